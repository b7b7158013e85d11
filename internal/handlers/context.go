package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys of the cookie session.
const (
	SessionKeyName    = "userName"
	SessionKeyIP      = "ip"
	SessionKeyDevice  = "device"
	SessionKeyIsAdmin = "is_admin"
)

// Keys set on the gin context by the user loader.
const (
	ContextKeyUser    = "user"
	ContextKeyIsAdmin = "is_admin"
)

func currentUser(c *gin.Context) (models.SessionUser, bool) {
	v, ok := c.Get(ContextKeyUser)
	if !ok {
		return models.SessionUser{}, false
	}
	user, ok := v.(models.SessionUser)
	return user, ok
}

func isAdmin(c *gin.Context) bool {
	return c.GetBool(ContextKeyIsAdmin)
}

func indexParam(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question index."})
		return 0, false
	}
	return i, true
}

// respondError maps domain sentinels onto HTTP statuses. Anything unknown
// is logged and reported as a 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status, msg := http.StatusInternalServerError, "Something went wrong."
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		status, msg = http.StatusNotFound, "Quiz session not found."
	case errors.Is(err, repository.ErrQuizNotFound):
		status, msg = http.StatusNotFound, "Quiz not found."
	case errors.Is(err, repository.ErrAttemptNotFound):
		status, msg = http.StatusNotFound, "Result not found."
	case errors.Is(err, quiz.ErrEmptyAnswer):
		status, msg = http.StatusBadRequest, "Please provide an answer first."
	case errors.Is(err, quiz.ErrIndexOutOfRange):
		status, msg = http.StatusBadRequest, "Question index out of range."
	case errors.Is(err, quiz.ErrQuestionLocked):
		status, msg = http.StatusConflict, "This question has already been checked."
	case errors.Is(err, quiz.ErrSessionFinished):
		status, msg = http.StatusConflict, "This quiz has already finished."
	case errors.Is(err, quiz.ErrNoNextQuestion):
		status, msg = http.StatusConflict, "This is the last question."
	case errors.Is(err, quiz.ErrNoPreviousQuestion):
		status, msg = http.StatusConflict, "This is the first question."
	case errors.Is(err, quiz.ErrSubmitNotAllowed):
		status, msg = http.StatusConflict, "Check the last question before submitting."
	default:
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
