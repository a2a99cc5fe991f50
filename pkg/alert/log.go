package alert

import (
	"context"
	"log/slog"
)

type logNotifier struct {
	log *slog.Logger
}

// NewLogNotifier returns a Notifier that writes alerts to the given
// logger instead of sending email. Intended for development and tests.
func NewLogNotifier(log *slog.Logger) Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(ctx context.Context, a Alert) error {
	if a.Category == "" {
		return ErrEmptyAlert
	}

	attrs := make([]any, 0, 6+len(a.Details)*2)
	attrs = append(attrs,
		slog.String("category", string(a.Category)),
		slog.String("operation", a.Operation),
		slog.Time("timestamp", a.Timestamp),
	)
	for k, v := range a.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}

	n.log.ErrorContext(ctx, a.Message, attrs...)
	return nil
}
