package handlers

import (
	"net/http"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	log      *zap.Logger
	sessions *services.SessionService
}

func NewSessionHandler(log *zap.Logger, sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{log: log, sessions: sessions}
}

type answerRequest struct {
	Answer models.Answer `json:"answer"`
}

func (h *SessionHandler) Get(c *gin.Context) {
	user, _ := currentUser(c)
	snap, err := h.sessions.Get(c.Request.Context(), c.Param("key"), user.Name)
	h.respond(c, snap, err)
}

func (h *SessionHandler) Answer(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer."})
		return
	}

	user, _ := currentUser(c)
	snap, err := h.sessions.Answer(c.Request.Context(), c.Param("key"), user.Name, index, req.Answer)
	h.respond(c, snap, err)
}

func (h *SessionHandler) Check(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	user, _ := currentUser(c)
	verdict, snap, err := h.sessions.Check(c.Request.Context(), c.Param("key"), user.Name, index)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verdict": verdict, "session": snap.Session})
}

func (h *SessionHandler) Next(c *gin.Context) {
	user, _ := currentUser(c)
	snap, err := h.sessions.Next(c.Request.Context(), c.Param("key"), user.Name)
	h.respond(c, snap, err)
}

func (h *SessionHandler) Prev(c *gin.Context) {
	user, _ := currentUser(c)
	snap, err := h.sessions.Prev(c.Request.Context(), c.Param("key"), user.Name)
	h.respond(c, snap, err)
}

func (h *SessionHandler) Submit(c *gin.Context) {
	user, _ := currentUser(c)
	snap, err := h.sessions.Submit(c.Request.Context(), c.Param("key"), user.Name)
	h.respond(c, snap, err)
}

func (h *SessionHandler) Exit(c *gin.Context) {
	user, _ := currentUser(c)
	snap, err := h.sessions.Exit(c.Request.Context(), c.Param("key"), user.Name)
	h.respond(c, snap, err)
}

func (h *SessionHandler) respond(c *gin.Context, snap *services.Snapshot, err error) {
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
