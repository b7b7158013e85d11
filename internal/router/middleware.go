package router

import (
	"net/http"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/handlers"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// UserLoaderMiddleware puts the user named in the cookie session on the
// context. Requests without one proceed as guests.
func UserLoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		name, ok := session.Get(handlers.SessionKeyName).(string)
		if !ok || name == "" {
			c.Next()
			return
		}

		ip, _ := session.Get(handlers.SessionKeyIP).(string)
		device, _ := session.Get(handlers.SessionKeyDevice).(string)
		isAdmin, _ := session.Get(handlers.SessionKeyIsAdmin).(bool)

		c.Set(handlers.ContextKeyUser, models.SessionUser{Name: name, IP: ip, Device: device})
		c.Set(handlers.ContextKeyIsAdmin, isAdmin)
		c.Next()
	}
}

// AuthRequired checks that a user was loaded into the context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(handlers.ContextKeyUser); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please log in first."})
			return
		}
		c.Next()
	}
}

// AdminRequired lets only an admin session through.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(handlers.ContextKeyIsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required."})
			return
		}
		c.Next()
	}
}
