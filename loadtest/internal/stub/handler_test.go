package stub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() (*gin.Engine, *Storage) {
	gin.SetMode(gin.TestMode)
	storage := NewStorage()
	r := gin.New()
	NewHandler(storage).RegisterRoutes(r)
	return r, storage
}

func post(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))
	return w
}

func TestSeedAndFetchProfile(t *testing.T) {
	r, storage := newTestRouter()

	w := post(t, r, "/seed?run_id=run1", SeedRequest{Groups: []SeedGroup{
		{Count: 3, Timezone: "Asia/Tokyo", TokensPerUser: 2},
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/run1-user-1/profile", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var p ProfileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if p.Timezone != "Asia/Tokyo" || len(p.PushTokens) != 2 {
		t.Errorf("unexpected profile %+v", p)
	}

	storage.Reset("run1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/run1-user-1/profile", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after reset, got %d", w.Code)
	}
}

func TestPushReceiverCountsDuplicatesAndRejections(t *testing.T) {
	r, storage := newTestRouter()

	ids := storage.Seed("run1", SeedGroup{Count: 2, TokensPerUser: 1, RejectRatio: 0.5})
	good, _ := storage.Profile(ids[1])
	bad, _ := storage.Profile(ids[0])

	send := func(token, handle string) ExpoPushResponse {
		w := post(t, r, "/push/send", ExpoPushRequest{To: token, Data: map[string]string{"handle": handle}})
		var resp ExpoPushResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode push response: %v", err)
		}
		return resp
	}

	if resp := send(good.PushTokens[0], "srv-1"); resp.Data.Status != "ok" {
		t.Errorf("expected ok, got %+v", resp.Data)
	}
	send(good.PushTokens[0], "srv-1")
	if resp := send(bad.PushTokens[0], "srv-2"); resp.Data.Status != "error" || resp.Data.Details["error"] != "DeviceNotRegistered" {
		t.Errorf("expected rejection, got %+v", resp.Data)
	}

	stats := storage.Stats("run1")
	if stats.Received != 3 || stats.Accepted != 2 || stats.Rejected != 1 || stats.Duplicates != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
