package handlers

import (
	"net/http"
	"strings"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminDisplayName and AdminAddress identify the admin in the session.
const (
	AdminDisplayName = "Admin"
	AdminAddress     = "local"
)

type AuthHandler struct {
	log      *zap.Logger
	identity *services.IdentityService
	gate     *services.AdminGate
}

func NewAuthHandler(log *zap.Logger, identity *services.IdentityService, gate *services.AdminGate) *AuthHandler {
	return &AuthHandler{log: log, identity: identity, gate: gate}
}

type loginRequest struct {
	Name string `json:"name" binding:"required"`
}

type adminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Identity tells the client who the server thinks it is.
func (h *AuthHandler) Identity(c *gin.Context) {
	id := h.identity.Resolve(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
	resp := gin.H{"identity": id}
	if user, ok := currentUser(c); ok {
		resp["user"] = user
		resp["isAdmin"] = isAdmin(c)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter your name."})
		return
	}
	name := utils.NormalizeName(req.Name)
	if !utils.IsValidName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter your name."})
		return
	}
	if services.IsAdminName(name) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin login requires the admin password.", "admin": true})
		return
	}

	id := h.identity.Resolve(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
	user := models.SessionUser{Name: name, IP: id.IP, Device: id.Device}

	session := sessions.Default(c)
	session.Set(SessionKeyName, user.Name)
	session.Set(SessionKeyIP, user.IP)
	session.Set(SessionKeyDevice, user.Device)
	session.Delete(SessionKeyIsAdmin)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	h.identity.RememberName(c.Request.Context(), id.IP, name)
	h.log.Info("User logged in", zap.String("user", name), zap.String("ip", id.IP), zap.String("device", id.Device))

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"welcomeBack": id.KnownName != "" && strings.EqualFold(id.KnownName, name),
	})
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter the admin password."})
		return
	}
	if err := h.gate.Check(req.Password); err != nil {
		h.log.Warn("Admin login rejected", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password."})
		return
	}

	session := sessions.Default(c)
	session.Set(SessionKeyName, AdminDisplayName)
	session.Set(SessionKeyIP, AdminAddress)
	session.Set(SessionKeyDevice, services.DeviceDesktop)
	session.Set(SessionKeyIsAdmin, true)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    models.SessionUser{Name: AdminDisplayName, IP: AdminAddress, Device: services.DeviceDesktop},
		"isAdmin": true,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	c.Status(http.StatusNoContent)
}
