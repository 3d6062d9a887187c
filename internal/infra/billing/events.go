package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

const (
	RoutingKeySubscriptionCanceled     = "subscription.canceled"
	RoutingKeySubscriptionTrialExpired = "subscription.trial_expired"
)

var (
	ErrMalformedEvent    = errors.New("malformed billing event")
	ErrUnknownRoutingKey = errors.New("unknown billing routing key")
)

// Canceller is the slice of the notification service billing events drive.
type Canceller interface {
	CancelAll(ctx context.Context, userID string) (int, error)
	CancelByType(ctx context.Context, userID string, category domain.Category) (int, error)
}

type Event struct {
	UserID     string `json:"user_id"`
	OccurredAt string `json:"occurred_at,omitempty"`
}

// Handler applies billing events to the notification schedule.
type Handler struct {
	canceller Canceller
}

func NewHandler(canceller Canceller) *Handler {
	return &Handler{canceller: canceller}
}

// Handle dispatches one event. Malformed or unknown events are reported as
// permanent errors so the consumer drops them instead of requeueing.
func (h *Handler) Handle(ctx context.Context, routingKey string, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrMalformedEvent)
	}

	var (
		cancelled int
		err       error
	)
	switch routingKey {
	case RoutingKeySubscriptionCanceled:
		cancelled, err = h.canceller.CancelAll(ctx, ev.UserID)
	case RoutingKeySubscriptionTrialExpired:
		cancelled, err = h.canceller.CancelByType(ctx, ev.UserID, domain.CategoryTrial)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoutingKey, routingKey)
	}

	if err != nil {
		return fmt.Errorf("failed to apply %s for user %s: %w", routingKey, ev.UserID, err)
	}

	slog.InfoContext(ctx, "billing event applied",
		slog.String("event", routingKey),
		slog.String("user_id", ev.UserID),
		slog.Int("cancelled_count", cancelled),
	)
	return nil
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrUnknownRoutingKey)
}
