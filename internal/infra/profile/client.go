package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/logging"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/tracing"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type profileResponse struct {
	Timezone     string   `json:"timezone"`
	TrialEndDate string   `json:"trial_end_date"`
	PushTokens   []string `json:"push_tokens"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: newHTTPClient(baseURL),
	}
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = fmt.Sprintf("/api/v1/users/%s/profile", url.PathEscape(userID))

	ctx, span := tracing.StartExternalAPISpan(ctx, "get_profile", u.String())
	defer span.End()

	slog.DebugContext(ctx, "fetching user profile",
		slog.String("url", u.String()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	requestID := logging.ValidateAndExtractRequestID(logging.RequestIDFromContext(ctx))
	req.Header.Set("x-request-id", requestID)
	tracing.InjectToHTTPRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send request to profile service",
			slog.String("url", u.String()),
			slog.String("error", err.Error()),
		)
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrProfileNotFound
	default:
		slog.ErrorContext(ctx, "unexpected status code from profile service",
			slog.String("url", u.String()),
			slog.Int("status_code", resp.StatusCode),
		)
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		tracing.RecordError(span, err)
		return nil, err
	}

	var body profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	profile := &domain.UserProfile{
		UserID:     userID,
		Timezone:   body.Timezone,
		PushTokens: body.PushTokens,
	}
	if body.TrialEndDate != "" {
		trialEnd, err := time.Parse(time.RFC3339, body.TrialEndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid trial_end_date %q: %w", body.TrialEndDate, err)
		}
		profile.TrialEndDate = &trialEnd
	}

	tracing.RecordError(span, nil)
	return profile, nil
}
