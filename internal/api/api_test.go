package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/linkgraph/internal/engine"
	"github.com/starford/linkgraph/internal/index"
	"github.com/starford/linkgraph/internal/interaction"
	"github.com/starford/linkgraph/internal/sse"
	"github.com/starford/linkgraph/internal/testutil"
)

var vaultFiles = map[string]string{
	"a.md": "---\ntitle: Alpha\ntags: [go]\n---\nSee [[Beta]] for uniquetoken.\n",
	"b.md": "---\ntitle: Beta\n---\nBack to [[Alpha]].\n",
}

type env struct {
	eng    *engine.Engine
	router http.Handler
}

// testEnv builds a vault, index, broker and running engine behind the router.
// An empty token disables auth.
func testEnv(t *testing.T, token string, files map[string]string) *env {
	t.Helper()
	return testEnvWithSSE(t, token != "", token, files, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, files map[string]string, sseHandler http.Handler) *env {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	v, store := testutil.TestVault(t, files)
	db := testutil.TestDB(t)
	if _, err := index.Sync(context.Background(), db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	broker := sse.NewBroker(time.Millisecond)
	t.Cleanup(broker.Close)
	sink := engine.NewEventSink(broker)

	cfg := engine.DefaultConfig()
	cfg.FPS = 120
	cfg.Settings.ShowTags = false
	deps := interaction.Deps{
		Reader:    v,
		Navigator: sink,
		Appender:  v,
		Creator:   v,
		Prompter:  sink,
		Previews:  sink,
	}
	eng := engine.New(v, deps, cfg, engine.WithLogger(logger), engine.WithFrameSink(sink))
	if err := eng.Rescan(context.Background()); err != nil {
		t.Fatalf("Rescan: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		eng.Controller().Close()
	})

	return &env{eng: eng, router: NewRouter(NewService(eng, db), authEnabled, token, sseHandler)}
}

func (e *env) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestGraphEndpoint(t *testing.T) {
	e := testEnv(t, "", vaultFiles)

	w := e.do(t, http.MethodGet, "/graph", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph = %d", w.Code)
	}
	var resp GraphResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(resp.Nodes))
	}
	if len(resp.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(resp.Edges))
	}
	if resp.Stats.Notes != 2 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if resp.State != "idle" {
		t.Errorf("state = %q", resp.State)
	}
}

func TestBacklinksEndpoint(t *testing.T) {
	e := testEnv(t, "", vaultFiles)

	w := e.do(t, http.MethodGet, "/backlinks?id=a.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backlinks = %d, body = %s", w.Code, w.Body.String())
	}
	var resp BacklinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Backlinks) != 1 || resp.Backlinks[0].SourcePath != "b.md" {
		t.Errorf("backlinks = %+v", resp.Backlinks)
	}

	if w := e.do(t, http.MethodGet, "/backlinks?id=ghost.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown node = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/backlinks", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing id = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := testEnv(t, "", vaultFiles)

	w := e.do(t, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Path != "a.md" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	e := testEnv(t, "", vaultFiles)
	if w := e.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestSettingsEndpoint(t *testing.T) {
	e := testEnv(t, "", vaultFiles)

	w := e.do(t, http.MethodPut, "/settings", map[string]any{"profile": "dense", "gravity": 2.5})
	if w.Code != http.StatusOK {
		t.Fatalf("settings = %d, body = %s", w.Code, w.Body.String())
	}
	var got map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got["profile"] != "alternate" || got["gravity"] != 2.5 || got["show_tags"] != false {
		t.Errorf("settings = %v", got)
	}

	if w := e.do(t, http.MethodPut, "/settings", map[string]any{"gravity": 99}); w.Code != http.StatusBadRequest {
		t.Errorf("gravity out of range = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/settings", map[string]any{"profile": "spiral"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown profile = %d, want 400", w.Code)
	}
}

func TestSettingsEndpoint_InvalidJSON(t *testing.T) {
	e := testEnv(t, "", vaultFiles)
	req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader("{"))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestViewportAndWheel(t *testing.T) {
	e := testEnv(t, "", vaultFiles)

	if w := e.do(t, http.MethodPut, "/viewport", ViewportRequest{Width: 1000, Height: 500}); w.Code != http.StatusNoContent {
		t.Fatalf("viewport = %d, body = %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodPut, "/viewport", ViewportRequest{Width: 0, Height: 500}); w.Code != http.StatusBadRequest {
		t.Errorf("zero width = %d, want 400", w.Code)
	}

	w := e.do(t, http.MethodPost, "/wheel", WheelRequest{X: 500, Y: 250, Delta: -120})
	if w.Code != http.StatusOK {
		t.Fatalf("wheel = %d", w.Code)
	}
	var v interaction.View
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.K <= 1 {
		t.Errorf("zoom in left scale at %v", v.K)
	}
}

func TestPointer_InvalidAction(t *testing.T) {
	e := testEnv(t, "", vaultFiles)
	if w := e.do(t, http.MethodPost, "/pointer", PointerRequest{Action: "tap"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown action = %d, want 400", w.Code)
	}
}

func TestCreateFlow(t *testing.T) {
	e := testEnv(t, "", map[string]string{"a.md": "---\ntitle: Alpha\n---\nbody\n"})
	ctx := context.Background()

	// Pin the only node under the viewport centre.
	if err := e.eng.Do(ctx, func(en *engine.Engine) {
		en.Simulation().Place(0, 0, 0)
		en.Simulation().Pin(0, 0, 0)
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	if w := e.do(t, http.MethodPost, "/create", CreateRequest{Title: "Gamma"}); w.Code != http.StatusConflict {
		t.Errorf("create without pending = %d, want 409", w.Code)
	}

	steps := []PointerRequest{
		{Action: PointerDown, X: 400, Y: 300, Link: true},
		{Action: PointerMove, X: 600, Y: 300},
		{Action: PointerUp, X: 600, Y: 300},
	}
	var last PointerResponse
	for _, s := range steps {
		w := e.do(t, http.MethodPost, "/pointer", s)
		if w.Code != http.StatusOK {
			t.Fatalf("pointer %s = %d, body = %s", s.Action, w.Code, w.Body.String())
		}
		_ = json.Unmarshal(w.Body.Bytes(), &last)
	}
	if last.Pending == nil || last.Pending.SourcePath != "a.md" {
		t.Fatalf("pending = %+v", last.Pending)
	}

	if w := e.do(t, http.MethodPost, "/create", CreateRequest{Title: "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("blank title = %d, want 400", w.Code)
	}

	w := e.do(t, http.MethodPost, "/create", CreateRequest{Title: "Gamma", Folder: "ideas"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	var created CreateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Path != "ideas/Gamma.md" {
		t.Errorf("path = %q", created.Path)
	}

	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return e.eng.Snapshot().Graph.Len() == 2
	}, "created document never appeared in the graph")

	if w := e.do(t, http.MethodDelete, "/create", nil); w.Code != http.StatusNoContent {
		t.Errorf("cancel = %d, want 204", w.Code)
	}
}

func TestPreviewEndpoints(t *testing.T) {
	e := testEnv(t, "", vaultFiles)
	if w := e.do(t, http.MethodPost, "/preview/open", nil); w.Code != http.StatusNotFound {
		t.Errorf("open without preview = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/preview", nil); w.Code != http.StatusNoContent {
		t.Errorf("close preview = %d, want 204", w.Code)
	}
}

func TestRescanEndpoint(t *testing.T) {
	e := testEnv(t, "", vaultFiles)
	if w := e.do(t, http.MethodPost, "/rescan", nil); w.Code != http.StatusAccepted {
		t.Errorf("rescan = %d, want 202", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123", vaultFiles)
	if w := e.do(t, http.MethodGet, "/graph", nil, "Authorization", "Bearer secret123"); w.Code != http.StatusOK {
		t.Errorf("authed graph = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123", vaultFiles)
	if w := e.do(t, http.MethodGet, "/graph", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123", vaultFiles)
	if w := e.do(t, http.MethodGet, "/graph", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	e := testEnv(t, "", vaultFiles)
	if w := e.do(t, http.MethodGet, "/graph", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := testEnvWithSSE(t, true, "secret", vaultFiles, dummySSE())
	if w := e.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := testEnvWithSSE(t, true, "tok", vaultFiles, dummySSE())
	w := e.do(t, http.MethodGet, "/events", nil, "Authorization", "Bearer tok")
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func dummySSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	e := testEnvWithSSE(t, true, "tok", vaultFiles, dummySSE())
	if w := e.do(t, http.MethodGet, "/events?access_token=tok", nil); w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/events?access_token=nope", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE with wrong query token = %d, want 401", w.Code)
	}
	// Mutations only accept the header.
	if w := e.do(t, http.MethodPost, "/rescan?access_token=tok", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
}
