package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ravi-parthasarathy/webforge/pkg/events"
	"github.com/ravi-parthasarathy/webforge/pkg/generate"
	"github.com/ravi-parthasarathy/webforge/pkg/httpapi"
	"github.com/ravi-parthasarathy/webforge/pkg/stream"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer() (*httpapi.Server, *stream.Broadcaster) {
	b := stream.New(100)
	p := generate.New(b, nil)
	return httpapi.New(p, b, time.Second), b
}

func publishRun(b *stream.Broadcaster, projectID string) {
	em := events.NewEmitter(projectID, "c1", "gemini-3-pro-preview", b.Publish)
	em.ChatMessage("Starting project generation...")
	em.ProgressUpdate("generate", events.StatusInProgress)
	em.StreamComplete()
}

func TestHealth(t *testing.T) {
	s, _ := newServer()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestListEventsFiltered(t *testing.T) {
	s, b := newServer()
	publishRun(b, "p1")
	publishRun(b, "p2")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events?project_id=p1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Events []events.Envelope `json:"events"`
		Count  int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 3 || len(resp.Events) != 3 {
		t.Fatalf("count = %d, events = %d", resp.Count, len(resp.Events))
	}
	for _, env := range resp.Events {
		if env.ProjectID != "p1" {
			t.Errorf("foreign event: %s", env.ProjectID)
		}
	}
}

func TestStreamReplaysAndTerminates(t *testing.T) {
	s, b := newServer()
	publishRun(b, "p1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?project_id=p1", nil)
	s.Handler().ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()

	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(frames) != 4 {
		t.Fatalf("frames = %d, body:\n%s", len(frames), body)
	}
	for _, f := range frames {
		if !strings.HasPrefix(f, "data: ") {
			t.Errorf("bad frame %q", f)
		}
	}
	if frames[3] != "data: [DONE]" {
		t.Errorf("last frame = %q", frames[3])
	}

	var env events.Envelope
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &env); err != nil {
		t.Fatalf("first frame not an envelope: %v", err)
	}
	if env.EventType != events.TypeChatMessage {
		t.Errorf("first event = %s", env.EventType)
	}
}

func TestGenerateRejectsMissingQuery(t *testing.T) {
	s, _ := newServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/project/generate",
		strings.NewReader(`{"model_family": "gemini"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestModifyRejectsMissingInstruction(t *testing.T) {
	s, _ := newServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/project/modify",
		strings.NewReader(`{"project_id": "p1"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestModifyRejectsMissingProject(t *testing.T) {
	s, _ := newServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/project/modify",
		strings.NewReader(`{"instruction": "change title"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	s, _ := newServer()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/execute",
		strings.NewReader(`{"action": "launch_rockets"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || !strings.Contains(resp.Error, "unknown action") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestExecuteRequiresUserText(t *testing.T) {
	s, _ := newServer()
	for _, action := range []string{"classify_intent", "classify_page_type", "analyze_query", "chat"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/execute",
			strings.NewReader(`{"action": "`+action+`"}`))
		req.Header.Set("Content-Type", "application/json")
		s.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", action, w.Code)
		}
	}
}

// sseRecorder is a flushable ResponseWriter whose body can be read while
// the handler goroutine is still writing.
type sseRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   bytes.Buffer
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header)}
}

func (r *sseRecorder) Header() http.Header { return r.header }

func (r *sseRecorder) WriteHeader(int) {}

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *sseRecorder) Flush() {}

func (r *sseRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

func waitForStream(t *testing.T, r *sseRecorder, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(r.String(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in stream body:\n%s", substr, r.String())
}

func TestStreamDeliversLiveEventsAfterKeepalive(t *testing.T) {
	b := stream.New(100)
	p := generate.New(b, nil)
	s := httpapi.New(p, b, 25*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?project_id=p1", nil).WithContext(ctx)
	rec := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Handler().ServeHTTP(rec, req)
	}()

	// A keepalive frame proves the subscription is registered and idle.
	waitForStream(t, rec, ": keepalive\n\n")

	em := events.NewEmitter("p1", "c1", "gemini-3-pro-preview", b.Publish)
	em.ChatMessage("live update")
	waitForStream(t, rec, "live update")

	em.StreamComplete()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not finish after the terminal event")
	}

	body := rec.String()
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Errorf("missing done frame, body:\n%s", body)
	}
	if strings.Index(body, ": keepalive") > strings.Index(body, "live update") {
		t.Error("keepalive frame did not precede the live event")
	}
}
