//go:build !gcloud

package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/tracing"
)

const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

type Config struct {
	ExpoPushURL string
	AccessToken string
	Timeout     time.Duration
}

// ExpoClient posts one message per call to the Expo push API. Failures are
// returned to the caller and never retried here.
type ExpoClient struct {
	url         string
	accessToken string
	httpClient  *http.Client
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type expoResponse struct {
	Data struct {
		Status  string `json:"status"`
		ID      string `json:"id"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

func NewTransport(_ context.Context, cfg Config) (domain.PushTransport, func() error, error) {
	noop := func() error { return nil }
	if cfg.ExpoPushURL == "" {
		slog.Warn("EXPO_PUSH_URL not set, push delivery disabled")
		return LogTransport{}, noop, nil
	}

	slog.Info("push transport initialized",
		slog.String("type", "expo"),
		slog.String("url", cfg.ExpoPushURL),
	)
	return NewExpoClient(cfg), noop, nil
}

func NewExpoClient(cfg Config) *ExpoClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExpoClient{
		url:         cfg.ExpoPushURL,
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ExpoClient) Send(ctx context.Context, msg domain.PushMessage) error {
	ctx, span := tracing.StartExternalAPISpan(ctx, "expo_push", c.url)
	defer span.End()

	body, err := json.Marshal(expoMessage{
		To:    msg.Token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
		Sound: "default",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	tracing.InjectToHTTPRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: unexpected status code %d", ErrPushRejected, resp.StatusCode)
		tracing.RecordError(span, err)
		return err
	}

	var decoded expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode push response: %w", err)
	}

	if decoded.Data.Status != "ok" {
		reason := decoded.Data.Details.Error
		if reason == "" {
			reason = decoded.Data.Message
		}
		err := fmt.Errorf("%w: %s", ErrPushRejected, reason)
		tracing.RecordError(span, err)
		return err
	}

	slog.DebugContext(ctx, "push accepted",
		slog.String("ticket_id", decoded.Data.ID),
		slog.String("handle", msg.Data["handle"]),
	)
	tracing.RecordError(span, nil)
	return nil
}
