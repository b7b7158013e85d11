package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/handlers"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Message types sent on the timer stream.
const (
	TypeSnapshot = "snapshot"
	TypeTick     = "tick"
	TypeError    = "error"
)

type Message struct {
	Type     string              `json:"type"`
	Snapshot *services.Snapshot  `json:"snapshot,omitempty"`
	Tick     *services.TickEvent `json:"tick,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// TimerHandler streams the countdown of a quiz session over a websocket.
// The session only counts down while a stream is open; closing the socket
// stops its runner, and a new stream for the same session replaces the
// old one.
type TimerHandler struct {
	log      *zap.Logger
	sessions *services.SessionService
	runners  *services.RunnerRegistry
	upgrader websocket.Upgrader
}

func NewTimerHandler(log *zap.Logger, sessions *services.SessionService, runners *services.RunnerRegistry, checkOrigin func(*http.Request) bool) *TimerHandler {
	return &TimerHandler{
		log:      log,
		sessions: sessions,
		runners:  runners,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// conn serializes writes from the runner and the handler.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(m)
}

func (c *conn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = c.ws.Close()
}

func (h *TimerHandler) Stream(c *gin.Context) {
	key := c.Param("key")
	var owner string
	if v, ok := c.Get(handlers.ContextKeyUser); ok {
		owner = v.(models.SessionUser).Name
	}

	snap, err := h.sessions.Get(c.Request.Context(), key, owner)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quiz session not found."})
			return
		}
		h.log.Error("Failed to load session for timer", zap.String("session_id", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
		return
	}

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.String("session_id", key), zap.Error(err))
		return
	}
	cn := &conn{ws: wsConn}
	log := h.log.With(zap.String("session_id", key))
	log.Debug("Timer stream opened")

	if err := cn.send(Message{Type: TypeSnapshot, Snapshot: snap}); err != nil {
		cn.close(websocket.CloseInternalServerErr, "write failed")
		return
	}
	if snap.Session.Finished || !snap.Session.Timer.Enabled() {
		cn.close(websocket.CloseNormalClosure, "no countdown")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finished := false
	done, err := h.runners.Attach(ctx, key, func(ev services.TickEvent) {
		if ev.Outcome.Finished {
			finished = true
		}
		if err := cn.send(Message{Type: TypeTick, Tick: &ev}); err != nil {
			log.Debug("Timer write failed", zap.Error(err))
			cancel()
		}
	})
	if err != nil {
		_ = cn.send(Message{Type: TypeError, Error: "The timer is unavailable."})
		cn.close(websocket.CloseTryAgainLater, "shutting down")
		return
	}

	// The client never sends anything we act on; reading only notices the
	// socket going away.
	go func() {
		for {
			if _, _, err := wsConn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	<-done
	switch {
	case finished:
		cn.close(websocket.CloseNormalClosure, "quiz finished")
	case ctx.Err() != nil:
		cn.close(websocket.CloseNormalClosure, "")
	case h.stillLive(key, owner):
		cn.close(websocket.CloseNormalClosure, "timer moved to another connection")
	default:
		cn.close(websocket.CloseNormalClosure, "quiz ended")
	}
	log.Debug("Timer stream closed", zap.Bool("finished", finished))
}

// stillLive reports whether the session outlived its runner, which happens
// when another stream took the countdown over.
func (h *TimerHandler) stillLive(key, owner string) bool {
	snap, err := h.sessions.Get(context.Background(), key, owner)
	return err == nil && snap.Attempt == nil
}
