package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/port/database"
	"github.com/sesbridge/sesbridge/internal/port/messagequeue"
	"github.com/sesbridge/sesbridge/internal/port/notifier"
)

// NotificationService turns workflow events from the queue into email
// notifications for the affected company's admins.
type NotificationService struct {
	store    database.Store
	queue    messagequeue.Queue
	notifier notifier.Notifier
	cancels  []func()
}

// NewNotificationService creates a notification service.
func NewNotificationService(store database.Store, queue messagequeue.Queue, n notifier.Notifier) *NotificationService {
	return &NotificationService{store: store, queue: queue, notifier: n}
}

// Start subscribes to all request lifecycle subjects.
func (s *NotificationService) Start(ctx context.Context) error {
	if s.queue == nil || s.notifier == nil {
		slog.Info("notifications disabled: queue or notifier not configured")
		return nil
	}

	subjects := []string{
		messagequeue.SubjectRequestCreated,
		messagequeue.SubjectRequestResponded,
		messagequeue.SubjectRequestWithdrawn,
	}
	for _, subject := range subjects {
		cancel, err := s.queue.Subscribe(ctx, subject, s.handle)
		if err != nil {
			s.Stop()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.cancels = append(s.cancels, cancel)
	}
	return nil
}

// Stop cancels all subscriptions.
func (s *NotificationService) Stop() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

func (s *NotificationService) handle(ctx context.Context, subject string, data []byte) error {
	var ev messagequeue.RequestEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		// Drop malformed events; redelivery cannot fix them.
		slog.Error("malformed request event", "subject", subject, "error", err)
		return nil
	}

	// Responses go to the sender's side, everything else to the recipient.
	companyID := ev.ToCompanyID
	if subject == messagequeue.SubjectRequestResponded {
		companyID = ev.FromCompanyID
	}

	users, err := s.store.ListUsers(ctx, companyID)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	mailSubject, body := composeMail(subject, &ev)
	for i := range users {
		u := &users[i]
		if u.Role != user.RoleAdmin || !u.Active {
			continue
		}
		err := s.notifier.Send(ctx, notifier.Notification{
			To:      u.Email,
			Subject: mailSubject,
			Body:    body,
			Source:  subject,
		})
		if err != nil {
			slog.Warn("notification delivery failed", "to", u.Email, "subject", subject, "error", err)
		}
	}
	return nil
}

func composeMail(subject string, ev *messagequeue.RequestEvent) (mailSubject, body string) {
	switch subject {
	case messagequeue.SubjectRequestCreated:
		mailSubject = "New request received"
		body = fmt.Sprintf("<p>Your company received a new %s request. Sign in to review it.</p>", ev.Kind)
	case messagequeue.SubjectRequestResponded:
		mailSubject = fmt.Sprintf("Your request was %s", ev.Status)
		body = fmt.Sprintf("<p>A %s request you sent was %s.</p>", ev.Kind, ev.Status)
	case messagequeue.SubjectRequestWithdrawn:
		mailSubject = "A request was withdrawn"
		body = fmt.Sprintf("<p>A pending %s request addressed to your company was withdrawn by its sender.</p>", ev.Kind)
	default:
		mailSubject = "Request update"
		body = "<p>A request involving your company changed. Sign in for details.</p>"
	}
	return mailSubject, body
}
