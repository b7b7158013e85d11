package router

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/config"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/handlers"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/ws"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Deps are the stores and services the routes are built on.
type Deps struct {
	Catalog  handlers.QuizCatalog
	Attempts handlers.AttemptLog
	Sessions *services.SessionService
	Runners  *services.RunnerRegistry
	Identity *services.IdentityService
	Admin    *services.AdminGate
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later."})
}

func Setup(log *zap.Logger, deps Deps) *gin.Engine {
	conf := config.Conf.Server

	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	corsConfig := cors.Config{
		AllowOrigins:     conf.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", csrfTokenHeaderKey},
		ExposeHeaders:    []string{csrfTokenHeaderKey, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(conf.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   conf.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("mysession", store))

	// Session-dependent middleware.
	router.Use(CSRFProtection(conf.CSRF))
	router.Use(UserLoaderMiddleware())

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Handlers and routes
	authHandler := handlers.NewAuthHandler(log, deps.Identity, deps.Admin)
	quizHandler := handlers.NewQuizHandler(log, deps.Catalog, deps.Sessions)
	sessionHandler := handlers.NewSessionHandler(log, deps.Sessions)
	resultsHandler := handlers.NewResultsHandler(log, deps.Attempts)
	adminHandler := handlers.NewAdminHandler(log, deps.Catalog, deps.Attempts, detectorThresholds)
	timerHandler := ws.NewTimerHandler(log, deps.Sessions, deps.Runners, originChecker(conf.AllowedOrigins))

	limit := uint(conf.LoginRateLimit)
	if limit == 0 {
		limit = 5
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/identity", authHandler.Identity)
	api.POST("/login", limiter, authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.POST("/admin/login", limiter, authHandler.AdminLogin)

	authorized := api.Group("/")
	authorized.Use(AuthRequired())
	{
		authorized.GET("/quizzes", quizHandler.List)
		authorized.POST("/quizzes/:id/session", quizHandler.StartSession)

		sessionRoutes := authorized.Group("/sessions/:key")
		{
			sessionRoutes.GET("", sessionHandler.Get)
			sessionRoutes.PUT("/answers/:index", sessionHandler.Answer)
			sessionRoutes.POST("/check/:index", sessionHandler.Check)
			sessionRoutes.POST("/next", sessionHandler.Next)
			sessionRoutes.POST("/prev", sessionHandler.Prev)
			sessionRoutes.POST("/submit", sessionHandler.Submit)
			sessionRoutes.POST("/exit", sessionHandler.Exit)
		}

		attemptRoutes := authorized.Group("/attempts/:id")
		{
			attemptRoutes.GET("", resultsHandler.Get)
			attemptRoutes.GET("/review", resultsHandler.Review)
			attemptRoutes.PUT("/comment", resultsHandler.Comment)
			attemptRoutes.GET("/export.txt", resultsHandler.ExportText)
			attemptRoutes.GET("/export.png", resultsHandler.ExportPNG)
		}
	}

	adminRoutes := api.Group("/admin")
	adminRoutes.Use(AuthRequired(), AdminRequired())
	{
		adminRoutes.POST("/quizzes", adminHandler.Upload)
		adminRoutes.DELETE("/quizzes/:id", adminHandler.Delete)
		adminRoutes.GET("/quizzes/:id/attempts", adminHandler.Attempts)
		adminRoutes.GET("/quizzes/:id/attempts.xlsx", adminHandler.AttemptsXLSX)
		adminRoutes.GET("/quizzes/:id/chart", adminHandler.Chart)
		adminRoutes.GET("/suspicious", adminHandler.Suspicious)
	}

	router.GET("/ws/sessions/:key", AuthRequired(), timerHandler.Stream)

	return router
}

// detectorThresholds reads the current config so a reload takes effect.
func detectorThresholds() quiz.Thresholds {
	d := config.Conf.Detector
	return quiz.Thresholds{MaxAttempts: d.MaxAttempts, MaxNames: d.MaxNames}
}

// originChecker accepts same-host websocket upgrades and the configured
// browser origins.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
