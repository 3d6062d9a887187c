package local

import (
	"context"
	"log/slog"
)

type TrayNotification struct {
	ID    string
	Title string
	Body  string
	Data  map[string]string
}

// Tray presents a notification to the user.
type Tray interface {
	Show(ctx context.Context, n TrayNotification) error
}

// LogTray writes notifications to the structured log. Used by the headless agent.
type LogTray struct{}

func (LogTray) Show(ctx context.Context, n TrayNotification) error {
	slog.InfoContext(ctx, "notification shown",
		slog.String("id", n.ID),
		slog.String("title", n.Title),
		slog.String("body", n.Body),
		slog.String("source_id", n.Data[DataSourceID]),
		slog.String("slot", n.Data[DataSlot]),
	)
	return nil
}
