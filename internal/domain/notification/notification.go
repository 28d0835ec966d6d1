package notification

import "context"

// Message is a user-facing notice about an application.
type Message struct {
	UserID        string `json:"user_id"`
	Title         string `json:"title"`
	Body          string `json:"message"`
	ApplicationID string `json:"application_id,omitempty"`
	Event         string `json:"event"`
}

// Notifier delivers one message to the external notification service.
type Notifier interface {
	Notify(ctx context.Context, m Message) error
}

// Dispatcher hands messages off without blocking the caller; delivery
// failures are the dispatcher's concern, never the caller's.
type Dispatcher interface {
	Dispatch(m Message)
}

// Discard drops every message.
type Discard struct{}

func (Discard) Dispatch(Message) {}
