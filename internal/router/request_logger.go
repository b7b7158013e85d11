package router

import (
	"strings"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/handlers"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger creates a gin middleware for logging requests using zap.
// Requests on a quiz session, quiz or attempt carry its id so one user's
// run can be followed through the log.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		fields = append(fields, quizFields(c, route)...)
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		default:
			// Successful requests stay at Debug; answer saves and the timer stream are chatty.
			log.Debug("Request processed", fields...)
		}
	}
}

func quizFields(c *gin.Context, route string) []zap.Field {
	var fields []zap.Field
	if user, ok := c.Get(handlers.ContextKeyUser); ok {
		if u, ok := user.(models.SessionUser); ok {
			fields = append(fields, zap.String("user", u.Name), zap.String("device", u.Device))
		}
	}
	if c.GetBool(handlers.ContextKeyIsAdmin) {
		fields = append(fields, zap.Bool("admin", true))
	}
	if key := c.Param("key"); key != "" {
		fields = append(fields, zap.String("session_id", key))
	}
	if index := c.Param("index"); index != "" {
		fields = append(fields, zap.String("question_index", index))
	}
	if id := c.Param("id"); id != "" {
		if strings.HasPrefix(route, "/api/attempts/") {
			fields = append(fields, zap.String("attempt_id", id))
		} else {
			fields = append(fields, zap.String("quiz_id", id))
		}
	}
	return fields
}
