// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects for request workflow lifecycle events. Downstream consumers
// (mail notification, audit) subscribe to these.
const (
	SubjectRequestCreated   = "requests.created"
	SubjectRequestUpdated   = "requests.updated"
	SubjectRequestWithdrawn = "requests.withdrawn"
	SubjectRequestResponded = "requests.responded"
)

// RequestEvent is the payload published on request lifecycle subjects.
type RequestEvent struct {
	RequestID     string `json:"request_id"`
	Kind          string `json:"kind"`
	FromCompanyID string `json:"from_company_id"`
	ToCompanyID   string `json:"to_company_id"`
	Status        string `json:"status"`
}
