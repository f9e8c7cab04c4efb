package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-chat/auth"
	"light-chat/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProvider struct {
	reply string
	err   error
	got   []llm.Message
}

func (f *fakeProvider) Chat(_ context.Context, messages []llm.Message) (string, error) {
	f.got = messages
	return f.reply, f.err
}
func (f *fakeProvider) Name() string          { return "fake" }
func (f *fakeProvider) Models() []string      { return nil }
func (f *fakeProvider) ValidateConfig() error { return nil }

type failingAuth struct{}

func (failingAuth) Authenticate(context.Context, string, string) (bool, error) {
	return false, errors.New("gateway down")
}

func newTestServer(provider llm.Provider) *Server {
	return New(Config{Version: "test", CORSOrigins: []string{"http://localhost:3000"}},
		provider, auth.NewStatic("admin@example.com", "hunter2", nil), nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestChat_Success(t *testing.T) {
	provider := &fakeProvider{reply: "Hi there"}
	s := newTestServer(provider)

	w := do(t, s, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hello","timestamp":"2024-05-01T11:00:00.000Z"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hi there", decode(t, w)["message"])
	assert.Equal(t, []llm.Message{{Role: "user", Content: "Hello", Timestamp: "2024-05-01T11:00:00.000Z"}}, provider.got)
}

func TestChat_BadRequest(t *testing.T) {
	s := newTestServer(&fakeProvider{reply: "unused"})

	bodies := []string{
		`{}`,
		`{"messages":null}`,
		`{"messages":"Hello"}`,
		`{"messages":{"role":"user"}}`,
		`[1,2]`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/chat", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, errMessagesRequired, decode(t, w)["error"])
		})
	}
}

func TestChat_EmptyArrayIsForwarded(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	s := newTestServer(provider)

	w := do(t, s, http.MethodPost, "/api/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, provider.got)
}

func TestChat_ProviderFailures(t *testing.T) {
	cases := map[string]*fakeProvider{
		"error":       {err: errors.New("upstream 503")},
		"empty reply": {reply: ""},
	}
	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(provider)
			w := do(t, s, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hello"}]}`)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, errInternal, decode(t, w)["error"])
		})
	}
}

func TestChat_MalformedJSON(t *testing.T) {
	for _, body := range []string{`{"messages":`, `{"messages":[1,2]}`} {
		t.Run(body, func(t *testing.T) {
			provider := &fakeProvider{reply: "unused"}
			s := newTestServer(provider)
			w := do(t, s, http.MethodPost, "/api/chat", body)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, errInternal, decode(t, w)["error"])
			assert.Nil(t, provider.got)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(&fakeProvider{})

	w := do(t, s, http.MethodPost, "/api/login", `{"email":"admin@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"success": true}, decode(t, w))

	for _, body := range []string{
		`{"email":"admin@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"hunter2"}`,
		`{}`,
		`not json`,
	} {
		w := do(t, s, http.MethodPost, "/api/login", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
		out := decode(t, w)
		assert.Equal(t, false, out["success"])
		assert.Equal(t, errInvalidLogin, out["error"])
	}
}

func TestLogin_AuthenticatorError(t *testing.T) {
	s := New(Config{}, &fakeProvider{}, failingAuth{}, nil)
	w := do(t, s, http.MethodPost, "/api/login", `{"email":"a","password":"b"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeProvider{})
	w := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"status": "ok", "version": "test"}, decode(t, w))
}

func TestMetrics(t *testing.T) {
	s := newTestServer(&fakeProvider{err: errors.New("boom")})
	_ = do(t, s, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hello"}]}`)

	w := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "light_chat_gateway_completion_failures_total 1")
	assert.Contains(t, body, `light_chat_gateway_requests_total{endpoint="/api/chat",method="POST",status="500"} 1`)
}

func TestCORS(t *testing.T) {
	s := newTestServer(&fakeProvider{})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, &fakeProvider{}, failingAuth{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}
