package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/middleware"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("expected non-nil hub")
	}
	if hub.ConnectionCount("acme") != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount("acme"))
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub()

	// Broadcast with no connections should not panic.
	hub.BroadcastToCompany(context.Background(), "acme", Message{
		Type:    "test",
		Payload: []byte(`{"key":"value"}`),
	})
}

func TestHubBroadcastEventNoConnections(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEventToCompany(context.Background(), "acme", EventRequestResponded, RequestEvent{
		RequestID: "r1",
		Kind:      "talent",
		Status:    "accepted",
	})
}

func TestHubBroadcastEventMarshalError(t *testing.T) {
	hub := NewHub()

	// A channel cannot be marshaled to JSON; must log and not panic.
	hub.BroadcastEventToCompany(context.Background(), "acme", "bad", make(chan int))
}

// wsTestServer serves the hub with a fixed principal injected, the way
// the auth middleware would for a real request.
func wsTestServer(t *testing.T, hub *Hub, companyID string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := &user.Principal{UserID: "u1", CompanyID: companyID, Role: user.RoleAdmin}
		hub.HandleWS(w, r.WithContext(middleware.WithPrincipal(r.Context(), p)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func waitForConnections(t *testing.T, hub *Hub, companyID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectionCount(companyID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("connections for %s = %d, want %d", companyID, hub.ConnectionCount(companyID), want)
}

func TestHubConnectionStaysRegistered(t *testing.T) {
	hub := NewHub()
	srv := wsTestServer(t, hub, "acme")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForConnections(t, hub, "acme", 1)

	// The connection must outlive the upgrade, not get torn down as soon
	// as the server goroutine settles.
	time.Sleep(100 * time.Millisecond)
	if n := hub.ConnectionCount("acme"); n != 1 {
		t.Fatalf("connections after settling = %d, want 1", n)
	}
}

func TestHubDeliversEventToCompany(t *testing.T) {
	hub := NewHub()
	srv := wsTestServer(t, hub, "acme")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForConnections(t, hub, "acme", 1)

	hub.BroadcastEventToCompany(ctx, "acme", EventRequestReceived, RequestEvent{
		RequestID: "r1",
		Kind:      "talent",
		Status:    "pending",
	})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if msg.Type != EventRequestReceived {
		t.Errorf("type = %q, want %q", msg.Type, EventRequestReceived)
	}

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitForConnections(t, hub, "acme", 0)
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub()

	// Removing a connection that was never added should not panic.
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &conn{ws: nil, cancel: cancel, companyID: "acme"}
	hub.remove(c)
}
