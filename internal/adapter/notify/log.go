package notify

import (
	"context"
	"log/slog"

	"vehicle-loan-backend/internal/domain/notification"
)

// LogNotifier writes notices to the log. Used when no broker is configured.
type LogNotifier struct{ log *slog.Logger }

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(ctx context.Context, m notification.Message) error {
	l.log.InfoContext(ctx, "notification",
		"user_id", m.UserID, "application_id", m.ApplicationID, "event", m.Event, "title", m.Title)
	return nil
}
