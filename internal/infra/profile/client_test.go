package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

func TestClientGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-request-id") == "" {
			t.Error("expected x-request-id header")
		}
		switch r.URL.Path {
		case "/api/v1/users/user-1/profile":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"timezone":"Asia/Tokyo","trial_end_date":"2024-01-21T10:00:00Z","push_tokens":["token-a"]}`))
		case "/api/v1/users/user-2/profile":
			_, _ = w.Write([]byte(`{"timezone":"Europe/Berlin"}`))
		case "/api/v1/users/broken/profile":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	got, err := client.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantTrial := time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC)
	if got.Timezone != "Asia/Tokyo" || got.TrialEndDate == nil || !got.TrialEndDate.Equal(wantTrial) || len(got.PushTokens) != 1 {
		t.Errorf("unexpected profile %+v", got)
	}

	got, err = client.GetProfile(ctx, "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TrialEndDate != nil {
		t.Errorf("expected no trial end, got %v", got.TrialEndDate)
	}

	if _, err := client.GetProfile(ctx, "missing"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
	if _, err := client.GetProfile(ctx, "broken"); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestStaticProvider(t *testing.T) {
	trialEnd := time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC)
	p := NewStaticProvider("Asia/Tokyo", &trialEnd, "token-a")

	got, err := p.GetProfile(context.Background(), "user-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "user-9" || got.Timezone != "Asia/Tokyo" || !got.TrialEndDate.Equal(trialEnd) {
		t.Errorf("unexpected profile %+v", got)
	}

	got.PushTokens[0] = "mutated"
	again, _ := p.GetProfile(context.Background(), "user-9")
	if again.PushTokens[0] != "token-a" {
		t.Error("expected provider state isolated from callers")
	}
}
