package notifymock

import (
	"sync"

	"vehicle-loan-backend/internal/domain/notification"
)

// Recorder is a Dispatcher that keeps every message for later assertions.
type Recorder struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (r *Recorder) Dispatch(m notification.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *Recorder) Messages() []notification.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Events returns the Event field of each recorded message in order.
func (r *Recorder) Events() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Event
	}
	return out
}
