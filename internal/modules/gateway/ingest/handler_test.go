package ingest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v2")
	NewHandler(f.service(), zap.NewNop()).RegisterRoutes(api)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not JSON: %v (%q)", err, w.Body.String())
		}
	}
	return w, decoded
}

func TestIngestMissingWebhookID(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	w, body := doRequest(t, r, http.MethodPost, "/api/v2/webhook/incoming", `{}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body["error"] != "Missing webhook_id" {
		t.Fatalf("body = %#v", body)
	}
	if len(f.events.created) != 0 {
		t.Fatalf("a request without an identifier must not be persisted")
	}
}

func TestIngestPathParam(t *testing.T) {
	f := newFixture()
	f.configs.cfg = activeConfig()
	r := newTestRouter(f)

	w, body := doRequest(t, r, http.MethodPost, "/api/v2/webhook/incoming/wh_test", `{"id":"abc123"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%#v)", w.Code, body)
	}
	if body["success"] != true {
		t.Fatalf("body = %#v", body)
	}
	if body["event_id"] != "abc123" {
		t.Fatalf("event_id = %v", body["event_id"])
	}
}

func TestIngestQueryFallback(t *testing.T) {
	f := newFixture()
	f.configs.cfg = activeConfig()
	r := newTestRouter(f)

	w, body := doRequest(t, r, http.MethodPost, "/api/v2/webhook/incoming?webhook_id=wh_test", `{"id":"abc123"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%#v)", w.Code, body)
	}
	if body["success"] != true {
		t.Fatalf("body = %#v", body)
	}
}

func TestIngestUnknownID(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f)

	w, body := doRequest(t, r, http.MethodPost, "/api/v2/webhook/incoming/wh_nope", `{}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body["error"] != "Webhook not found" {
		t.Fatalf("body = %#v", body)
	}
}

func TestIngestOptionsPreflight(t *testing.T) {
	f := newFixture()
	f.configs.cfg = activeConfig()
	r := newTestRouter(f)

	req := httptest.NewRequest(http.MethodOptions, "/api/v2/webhook/incoming/wh_test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if len(f.events.created) != 0 {
		t.Fatalf("preflight must not reach the pipeline")
	}
}

func TestIngestGetMethodRecorded(t *testing.T) {
	f := newFixture()
	f.configs.cfg = activeConfig()
	r := newTestRouter(f)

	w, _ := doRequest(t, r, http.MethodGet, "/api/v2/webhook/incoming/wh_test?ping=1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(f.events.created) != 1 {
		t.Fatalf("expected one event, got %d", len(f.events.created))
	}
	event := f.events.created[0]
	if event.Method != http.MethodGet {
		t.Fatalf("method = %q", event.Method)
	}
	if event.Query["ping"] != "1" {
		t.Fatalf("query = %#v", event.Query)
	}
}
