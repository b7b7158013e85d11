package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/config"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/database"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	headerUser  = "X-Test-User"
	headerAdmin = "X-Test-Admin"
)

type testEnv struct {
	engine   *gin.Engine
	catalog  *repository.CatalogRepository
	attempts *repository.AttemptRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	catalog := repository.NewCatalogRepository(db)
	attempts := repository.NewAttemptRepository(db)
	names := repository.NewKnownNameRepository(db)
	require.NoError(t, catalog.Add(context.Background(), []models.Quiz{testQuiz()}))

	sessionSvc := services.NewSessionService(log, catalog, attempts, cache.NewMemoryStore(), models.RevisitResetUnlocked,
		services.WithRand(func() *rand.Rand { return rand.New(rand.NewSource(1)) }),
		services.WithClock(func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }),
	)
	gate, err := services.NewAdminGate("FUTURE")
	require.NoError(t, err)
	identity := services.NewIdentityService(log, "", time.Second, names)

	authH := NewAuthHandler(log, identity, gate)
	quizH := NewQuizHandler(log, catalog, sessionSvc)
	sessionH := NewSessionHandler(log, sessionSvc)
	resultsH := NewResultsHandler(log, attempts)
	adminH := NewAdminHandler(log, catalog, attempts, func() quiz.Thresholds {
		return quiz.Thresholds{MaxAttempts: 2, MaxNames: 1}
	})

	r := gin.New()
	r.Use(sessions.Sessions("mysession", cookie.NewStore([]byte("test-secret"))))
	r.Use(func(c *gin.Context) {
		if name := c.GetHeader(headerUser); name != "" {
			c.Set(ContextKeyUser, models.SessionUser{Name: name, IP: "203.0.113.5", Device: services.DeviceDesktop})
		}
		if c.GetHeader(headerAdmin) == "true" {
			c.Set(ContextKeyIsAdmin, true)
		}
		c.Next()
	})

	r.POST("/api/login", authH.Login)
	r.POST("/api/admin/login", authH.AdminLogin)
	r.POST("/api/logout", authH.Logout)
	r.GET("/api/quizzes", quizH.List)
	r.POST("/api/quizzes/:id/session", quizH.StartSession)
	s := r.Group("/api/sessions/:key")
	s.GET("", sessionH.Get)
	s.PUT("/answers/:index", sessionH.Answer)
	s.POST("/check/:index", sessionH.Check)
	s.POST("/next", sessionH.Next)
	s.POST("/prev", sessionH.Prev)
	s.POST("/submit", sessionH.Submit)
	s.POST("/exit", sessionH.Exit)
	a := r.Group("/api/attempts/:id")
	a.GET("", resultsH.Get)
	a.GET("/review", resultsH.Review)
	a.PUT("/comment", resultsH.Comment)
	a.GET("/export.txt", resultsH.ExportText)
	a.GET("/export.png", resultsH.ExportPNG)
	ad := r.Group("/api/admin")
	ad.POST("/quizzes", adminH.Upload)
	ad.DELETE("/quizzes/:id", adminH.Delete)
	ad.GET("/quizzes/:id/attempts", adminH.Attempts)
	ad.GET("/quizzes/:id/attempts.xlsx", adminH.AttemptsXLSX)
	ad.GET("/quizzes/:id/chart", adminH.Chart)
	ad.GET("/suspicious", adminH.Suspicious)

	return &testEnv{engine: r, catalog: catalog, attempts: attempts}
}

func testQuiz() models.Quiz {
	return models.Quiz{
		ID:                "quiz-1",
		Title:             "Quiz One",
		Difficulty:        models.DifficultyEasy,
		TotalQuestions:    2,
		QuestionsToSelect: 2,
		Questions: []models.Question{
			{ID: "q1", Text: "First", Type: models.QuestionMultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: models.SingleAnswer("A"), Explanation: "A is right"},
			{ID: "q2", Text: "Second", Type: models.QuestionMultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: models.SingleAnswer("A")},
		},
	}
}

type request struct {
	method, path string
	body         string
	user         string
	admin        bool
	contentType  string
}

func (e *testEnv) do(r request) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if r.body != "" {
		body = bytes.NewReader([]byte(r.body))
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		ct := r.contentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}
	if r.user != "" {
		req.Header.Set(headerUser, r.user)
	}
	if r.admin {
		req.Header.Set(headerAdmin, "true")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}
