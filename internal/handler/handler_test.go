package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/profile"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/push"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/infra/repository"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/scheduler/server"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/schedulestore"
	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/service/notification"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepository()
	sched, err := server.New(repo, 1)
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	store := schedulestore.New(repo, sched)
	svc := notification.NewService(store, profile.NewStaticProvider("Europe/Berlin", nil, "token-a"), nil, notification.Config{})
	sweeper := server.NewSweeper(repo, push.LogTransport{}, store, server.SweeperConfig{})

	r := gin.New()
	api := r.Group("/api/v1")
	NewNotificationHandler(svc).RegisterRoutes(api)
	r.POST("/sweep", NewSweepHandler(sweeper).HandleSweep)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScheduleListAndCancel(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/users/user-1/notifications/schedule", ScheduleRequest{
		Descriptors: []DescriptorRequest{
			{Message: "Log breakfast", Time: "08:30", Recurrence: "weekly", Days: []string{"mon", "wed"}, Category: "diet"},
			{Message: "Stretch", Time: "21:00", Recurrence: "weekly", Days: []string{"fri"}, Category: "custom"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var batch notification.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if batch.Summary != "2 of 2 notifications scheduled successfully" {
		t.Errorf("unexpected summary %q", batch.Summary)
	}
	if batch.Timezone != "Europe/Berlin" {
		t.Errorf("unexpected timezone %s", batch.Timezone)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/users/user-1/notifications", nil)
	var list ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list.Notifications))
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/users/user-1/notifications?category=diet", nil)
	var cancel CancelResponse
	if err := json.Unmarshal(w.Body.Bytes(), &cancel); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if w.Code != http.StatusOK || cancel.CancelledCount != 2 {
		t.Errorf("expected 2 cancelled, got %d (%d)", cancel.CancelledCount, w.Code)
	}

	var customID string
	for _, n := range list.Notifications {
		if n.Category == "custom" {
			customID = n.SourceID
		}
	}
	w = doJSON(t, r, http.MethodDelete, "/api/v1/users/user-1/notifications/"+customID, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &cancel); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if cancel.CancelledCount != 1 {
		t.Errorf("expected 1 cancelled, got %d", cancel.CancelledCount)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/users/user-1/notifications/all", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &cancel); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if w.Code != http.StatusOK || cancel.CancelledCount != 0 {
		t.Errorf("expected nothing left to cancel, got %d (%d)", cancel.CancelledCount, w.Code)
	}
}

func TestScheduleValidation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "malformed body", body: "nope"},
		{name: "empty batch", body: ScheduleRequest{}},
	}

	r := newTestRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/users/user-1/notifications/schedule", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestScheduleReportsUndecodableDescriptorsPerItem(t *testing.T) {
	tests := []struct {
		name    string
		invalid DescriptorRequest
	}{
		{name: "bad time", invalid: DescriptorRequest{Message: "x", Time: "25:00", Days: []string{"tue"}, Category: "diet"}},
		{name: "bad weekday", invalid: DescriptorRequest{Message: "x", Time: "07:00", Days: []string{"funday"}, Category: "diet"}},
		{name: "unknown recurrence", invalid: DescriptorRequest{Message: "x", Time: "07:00", Recurrence: "monthly", Category: "diet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t)

			w := doJSON(t, r, http.MethodPost, "/api/v1/users/user-1/notifications/schedule", ScheduleRequest{
				Descriptors: []DescriptorRequest{
					{Message: "Log breakfast", Time: "08:00", Days: []string{"mon"}, Category: "diet"},
					tt.invalid,
				},
			})
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}

			var batch notification.BatchResult
			if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if batch.Summary != "1 of 2 notifications scheduled successfully" {
				t.Errorf("unexpected summary %q", batch.Summary)
			}
			if !batch.Results[0].Success {
				t.Errorf("expected valid descriptor to be scheduled, got %q", batch.Results[0].Error)
			}
			bad := batch.Results[1]
			if bad.Success || bad.Index != 1 || bad.Error == "" {
				t.Errorf("expected failed item at index 1, got %+v", bad)
			}

			w = doJSON(t, r, http.MethodGet, "/api/v1/users/user-1/notifications", nil)
			var list ListResponse
			if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(list.Notifications) != 1 {
				t.Errorf("expected 1 notification, got %d", len(list.Notifications))
			}
		})
	}
}

func TestCancelByTypeRequiresKnownCategory(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		path string
		want int
	}{
		{path: "/api/v1/users/user-1/notifications", want: http.StatusBadRequest},
		{path: "/api/v1/users/user-1/notifications?category=bogus", want: http.StatusBadRequest},
		{path: "/api/v1/users/user-1/notifications?category=trial", want: http.StatusOK},
	}
	for _, tt := range tests {
		w := doJSON(t, r, http.MethodDelete, tt.path, nil)
		if w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.want, w.Code)
		}
	}
}

func TestHandleSweep(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/sweep", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result server.SweepResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.SweepID == "" || result.Due != 0 {
		t.Errorf("unexpected sweep result %+v", result)
	}
}
