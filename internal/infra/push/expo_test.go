//go:build !gcloud

package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

func TestExpoClientSend(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		wantErr    error
	}{
		{
			name:       "accepted",
			statusCode: http.StatusOK,
			response:   `{"data":{"status":"ok","id":"ticket-1"}}`,
		},
		{
			name:       "device not registered",
			statusCode: http.StatusOK,
			response:   `{"data":{"status":"error","message":"not a valid token","details":{"error":"DeviceNotRegistered"}}}`,
			wantErr:    ErrPushRejected,
		},
		{
			name:       "server error",
			statusCode: http.StatusBadGateway,
			response:   `{}`,
			wantErr:    ErrPushRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if r.Header.Get("Authorization") != "Bearer secret" {
					t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
				}

				var msg expoMessage
				if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if msg.To != "ExponentPushToken[abc]" || msg.Title != "Diet plan" {
					t.Errorf("unexpected message %+v", msg)
				}

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			client := NewExpoClient(Config{ExpoPushURL: srv.URL, AccessToken: "secret"})
			err := client.Send(context.Background(), domain.PushMessage{
				Token: "ExponentPushToken[abc]",
				Title: "Diet plan",
				Body:  "Dinner: soup",
				Data:  map[string]string{"handle": "srv-1"},
			})

			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if calls != 1 {
				t.Errorf("expected exactly one request, got %d", calls)
			}
		})
	}
}

func TestNewTransportWithoutURL(t *testing.T) {
	transport, closer, err := NewTransport(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer()

	if _, ok := transport.(LogTransport); !ok {
		t.Errorf("expected log transport, got %T", transport)
	}
}
