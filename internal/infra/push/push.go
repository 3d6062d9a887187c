package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

var (
	ErrPushRejected    = errors.New("push rejected by provider")
	ErrMissingEndpoint = errors.New("push endpoint is not configured")
)

// LogTransport writes pushes to the log instead of delivering them.
type LogTransport struct{}

func (LogTransport) Send(ctx context.Context, msg domain.PushMessage) error {
	slog.InfoContext(ctx, "push delivery skipped, no transport configured",
		slog.String("title", msg.Title),
		slog.String("handle", msg.Data["handle"]),
		slog.String("slot", msg.Data["slot"]),
	)
	return nil
}
