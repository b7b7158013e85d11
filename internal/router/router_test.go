package router

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/config"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/database"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.Conf
	config.Conf = &config.Config{
		Server: config.ServerConfig{
			SessionSecret:  "router-test-secret",
			AllowedOrigins: []string{"http://localhost:5173"},
			CSRF:           true,
			LoginRateLimit: 5,
		},
		Detector: config.DetectorConfig{MaxAttempts: 3, MaxNames: 1},
	}
	t.Cleanup(func() { config.Conf = prev })

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     fmt.Sprintf("file:router_%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	catalog := repository.NewCatalogRepository(db)
	attempts := repository.NewAttemptRepository(db)
	require.NoError(t, catalog.Add(context.Background(), []models.Quiz{{
		ID:    "quiz-1",
		Title: "Quiz One",
		Questions: []models.Question{
			{ID: "q1", Text: "One", Type: models.QuestionTrueFalse, CorrectAnswer: models.SingleAnswer("True")},
		},
	}}))

	sessions := services.NewSessionService(log, catalog, attempts, cache.NewMemoryStore(), models.RevisitResetUnlocked)
	runners := services.NewRunnerRegistry(log, sessions, services.EveryInterval(time.Hour))
	t.Cleanup(runners.Shutdown)
	gate, err := services.NewAdminGate("FUTURE")
	require.NoError(t, err)

	return Setup(log, Deps{
		Catalog:  catalog,
		Attempts: attempts,
		Sessions: sessions,
		Runners:  runners,
		Identity: services.NewIdentityService(log, "", time.Second, repository.NewKnownNameRepository(db)),
		Admin:    gate,
	})
}

// browser keeps the session cookie and CSRF token between requests.
type browser struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
	token  string
}

func (b *browser) do(method, path, body string) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	if b.token != "" {
		req.Header.Set(csrfTokenHeaderKey, b.token)
	}

	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == "mysession" {
			b.cookie = c
		}
	}
	if tok := w.Header().Get(csrfTokenHeaderKey); tok != "" {
		b.token = tok
	}
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)
	b := &browser{t: t, router: r}

	for _, path := range []string{"/api/quizzes", "/api/sessions/abc", "/api/attempts/abc", "/api/admin/suspicious", "/ws/sessions/abc"} {
		w := b.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCSRFRequired(t *testing.T) {
	r := newTestRouter(t)
	b := &browser{t: t, router: r}

	w := b.do(http.MethodGet, "/api/identity", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, b.token)

	saved := b.token
	b.token = ""
	w = b.do(http.MethodPost, "/api/login", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	b.token = "forged"
	w = b.do(http.MethodPost, "/api/login", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	b.token = saved
	w = b.do(http.MethodPost, "/api/login", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLoginFlow(t *testing.T) {
	r := newTestRouter(t)
	b := &browser{t: t, router: r}

	b.do(http.MethodGet, "/api/identity", "")
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/login", `{"name":"Ada"}`).Code)

	w := b.do(http.MethodGet, "/api/identity", "")
	assert.Contains(t, w.Body.String(), `"name":"Ada"`)

	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/quizzes", "").Code)
	assert.Equal(t, http.StatusCreated, b.do(http.MethodPost, "/api/quizzes/quiz-1/session", "").Code)
	assert.Equal(t, http.StatusForbidden, b.do(http.MethodGet, "/api/admin/suspicious", "").Code)

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/logout", "").Code)
	assert.Equal(t, http.StatusUnauthorized, b.do(http.MethodGet, "/api/quizzes", "").Code)
}

func TestAdminFlow(t *testing.T) {
	r := newTestRouter(t)
	b := &browser{t: t, router: r}

	b.do(http.MethodGet, "/api/identity", "")
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/admin/login", `{"password":"FUTURE"}`).Code)

	w := b.do(http.MethodGet, "/api/admin/suspicious", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestLoginRateLimited(t *testing.T) {
	r := newTestRouter(t)
	b := &browser{t: t, router: r}
	b.do(http.MethodGet, "/api/identity", "")

	for i := 0; i < 5; i++ {
		w := b.do(http.MethodPost, "/api/admin/login", `{"password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := b.do(http.MethodPost, "/api/admin/login", `{"password":"nope"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "http://quiz.example/ws/sessions/x", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://quiz.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))
}
