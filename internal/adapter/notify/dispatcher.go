package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vehicle-loan-backend/internal/domain/notification"
)

type Metrics interface {
	NotificationFailed()
}

type noopMetrics struct{}

func (noopMetrics) NotificationFailed() {}

type Options struct {
	Buffer  int
	Workers int
	Timeout time.Duration // per delivery
	Metrics Metrics
	Logger  *slog.Logger
}

// Dispatcher delivers messages on background workers. Dispatch never blocks:
// when the buffer is full the message is dropped and counted as a failure.
type Dispatcher struct {
	n       notification.Notifier
	ch      chan notification.Message
	timeout time.Duration
	metrics Metrics
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ notification.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(n notification.Notifier, opts Options) *Dispatcher {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	d := &Dispatcher{
		n:       n,
		ch:      make(chan notification.Message, opts.Buffer),
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}
	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *Dispatcher) Dispatch(m notification.Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.fail(m, "dispatcher closed", nil)
		return
	}
	select {
	case d.ch <- m:
	default:
		d.fail(m, "notification buffer full", nil)
	}
}

// Close stops accepting messages and waits until the queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for m := range d.ch {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.n.Notify(ctx, m); err != nil {
			d.fail(m, "notification delivery failed", err)
		}
		cancel()
	}
}

func (d *Dispatcher) fail(m notification.Message, msg string, err error) {
	d.metrics.NotificationFailed()
	attrs := []any{"user_id", m.UserID, "application_id", m.ApplicationID, "event", m.Event}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	d.log.Warn(msg, attrs...)
}
