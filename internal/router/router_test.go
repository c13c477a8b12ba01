package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dashboard-backend/internal/handlers"
	"dashboard-backend/internal/models"
	"dashboard-backend/internal/services"
)

// newTestServer wires the real services against a mocked completion API.
func newTestServer(t *testing.T, upstream http.HandlerFunc) http.Handler {
	t.Helper()

	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	store, err := services.NewCredentialStore(map[string]string{
		"student1": "1234",
		"laxit":    "pass123",
		"1":        "1",
	})
	require.NoError(t, err)

	log := zap.NewNop()
	provider := services.NewOpenRouterProvider(services.OpenRouterConfig{
		BaseURL: api.URL,
		APIKey:  "sk-test",
		Model:   "openai/gpt-4o-mini",
		Referer: "http://localhost",
		Title:   "FastAPI Chat",
	}, api.Client())
	chat := services.NewChatService(provider, services.ChatOptions{ConcurrentReqs: 2, Timeout: 5 * time.Second}, log)

	return New(
		handlers.NewAuthHandler(services.NewAuthService(store, log), log),
		handlers.NewChatHandler(chat, log),
		[]string{"*"},
		log,
	)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]interface{}
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func TestLoginScenarios(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("login must not call the completion API")
	})

	rr, body := do(t, h, http.MethodPost, "/login", `{"username":"laxit","password":"pass123"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]interface{}{"success": true}, body)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr, body = do(t, h, http.MethodPost, "/login", `{"username":"laxit","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, map[string]interface{}{"detail": "Invalid username or password"}, body)

	rr, body = do(t, h, http.MethodPost, "/login", `{"username":"nouser","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, map[string]interface{}{"detail": "Invalid username or password"}, body)
}

func TestChatScenario(t *testing.T) {
	var outbound struct {
		Model    string               `json:"model"`
		Messages []models.ChatMessage `json:"messages"`
	}
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&outbound))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there"}}]}`))
	})

	for _, path := range []string{"/", "/chat/", "/chat"} {
		rr, body := do(t, h, http.MethodPost, path, `{"prompt":"Hello"}`)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, map[string]interface{}{"reply": "Hi there"}, body, path)
	}

	require.Len(t, outbound.Messages, 2)
	assert.Equal(t, services.BuildConversation("Hello"), outbound.Messages)
}

func TestChatUpstreamFailure(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"internal"}}`))
	})

	rr, body := do(t, h, http.MethodPost, "/", `{"prompt":"Hello"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, map[string]interface{}{"detail": "Chat service returned an error"}, body)
}

func TestHealthAndMethods(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	rr, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPreflight(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodOptions, "/chat/", nil)
	req.Header.Set("Origin", "http://127.0.0.1:5500")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
