package handlers

import (
	"context"
	"net/http"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QuizCatalog is the part of the catalog store the handlers use.
type QuizCatalog interface {
	List(ctx context.Context) ([]models.Quiz, error)
	Get(ctx context.Context, id string) (*models.Quiz, error)
	Add(ctx context.Context, quizzes []models.Quiz) error
	Remove(ctx context.Context, id string) error
}

// quizSummary is a catalog entry without its question bank.
type quizSummary struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Difficulty        models.Difficulty  `json:"difficulty"`
	TotalQuestions    int                `json:"totalQuestions"`
	QuestionsToSelect int                `json:"questionsToSelect"`
	Timer             models.TimerConfig `json:"timer"`
}

type QuizHandler struct {
	log      *zap.Logger
	catalog  QuizCatalog
	sessions *services.SessionService
}

func NewQuizHandler(log *zap.Logger, catalog QuizCatalog, sessions *services.SessionService) *QuizHandler {
	return &QuizHandler{log: log, catalog: catalog, sessions: sessions}
}

func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]quizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, quizSummary{
			ID:                q.ID,
			Title:             q.Title,
			Description:       q.Description,
			Difficulty:        q.Difficulty,
			TotalQuestions:    q.TotalQuestions,
			QuestionsToSelect: q.QuestionsToSelect,
			Timer:             q.Timer,
		})
	}
	c.JSON(http.StatusOK, out)
}

// StartSession resumes the caller's unfinished session on the quiz or
// starts a new one. A finished quiz started again is a retake.
func (h *QuizHandler) StartSession(c *gin.Context) {
	user, _ := currentUser(c)

	snap, resumed, err := h.sessions.Start(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"resumed": resumed, "session": snap.Session})
}
