package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/export"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxCommentLength = 2000

// AttemptLog is the part of the attempt store the handlers use.
type AttemptLog interface {
	List(ctx context.Context) ([]models.QuizAttempt, error)
	FilterByQuiz(ctx context.Context, quizID string) ([]models.QuizAttempt, error)
	Get(ctx context.Context, id string) (*models.QuizAttempt, error)
	SetComment(ctx context.Context, id, text string) error
	DeleteByQuiz(ctx context.Context, quizID string) (int64, error)
	Stats(ctx context.Context, quizID string) (repository.QuizStats, error)
	ScoreTimeline(ctx context.Context, quizID string) ([]repository.TimelineDataPoint, error)
}

type ResultsHandler struct {
	log      *zap.Logger
	attempts AttemptLog
}

func NewResultsHandler(log *zap.Logger, attempts AttemptLog) *ResultsHandler {
	return &ResultsHandler{log: log, attempts: attempts}
}

type commentRequest struct {
	Comment string `json:"comment"`
}

func (h *ResultsHandler) Get(c *gin.Context) {
	a, ok := h.attempt(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ResultsHandler) Review(c *gin.Context) {
	a, ok := h.attempt(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"attemptId": a.ID,
		"quizId":    a.QuizID,
		"quizTitle": a.QuizTitle,
		"score":     a.Score,
		"items":     quiz.Review(a),
	})
}

func (h *ResultsHandler) Comment(c *gin.Context) {
	a, ok := h.attempt(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment."})
		return
	}
	text := strings.TrimSpace(req.Comment)
	if len(text) > maxCommentLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment is too long."})
		return
	}

	if err := h.attempts.SetComment(c.Request.Context(), a.ID, text); err != nil {
		respondError(c, h.log, err)
		return
	}
	a.Comment = &text
	c.JSON(http.StatusOK, a)
}

func (h *ResultsHandler) ExportText(c *gin.Context) {
	a, ok := h.attempt(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteText(&buf, a); err != nil {
		respondError(c, h.log, err)
		return
	}
	attachment(c, export.FileName(a, "txt"))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (h *ResultsHandler) ExportPNG(c *gin.Context) {
	a, ok := h.attempt(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePNG(&buf, a); err != nil {
		respondError(c, h.log, err)
		return
	}
	attachment(c, export.FileName(a, "png"))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// attempt loads the attempt named in the path. Only its owner and the admin
// may see it; anyone else gets a 404.
func (h *ResultsHandler) attempt(c *gin.Context) (*models.QuizAttempt, bool) {
	a, err := h.attempts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	user, _ := currentUser(c)
	if !isAdmin(c) && a.UserName != user.Name {
		respondError(c, h.log, repository.ErrAttemptNotFound)
		return nil, false
	}
	return a, true
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}
