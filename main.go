package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/cache"
	redisstore "github.com/PYTHAGON2/cdcfib-mock-test/internal/cache/redis"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/config"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/database"
	logger "github.com/PYTHAGON2/cdcfib-mock-test/internal/logging"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/router"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"

	"go.uber.org/zap"
)

func main() {
	root := flag.String("root", ".", "project root holding config/ and .env")
	flag.Parse()

	// Load configuration
	if err := config.Load(*root); err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize Logger
	log, err := logger.Init(*root, config.Conf.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	config.Watch(log)

	// Initialize Database
	database.Init(log)

	catalog := repository.NewCatalogRepository(database.DB)
	attempts := repository.NewAttemptRepository(database.DB)
	knownNames := repository.NewKnownNameRepository(database.DB)

	ctx := context.Background()
	if _, err := services.SeedCatalog(ctx, log, catalog, config.Conf.Quiz.SeedFile); err != nil {
		log.Fatal("Failed to seed quiz catalog", zap.Error(err))
	}

	store, purger, closeStore := sessionStore(ctx, log)
	defer closeStore()

	sessions := services.NewSessionService(log, catalog, attempts, store,
		models.ParseRevisitPolicy(config.Conf.Quiz.RevisitTimerPolicy))
	runners := services.NewRunnerRegistry(log, sessions, services.EveryInterval(config.Conf.Session.TickInterval))

	if purger != nil {
		scheduler := services.NewScheduler(log, purger, config.Conf.Session.TTL)
		if err := scheduler.Start(config.Conf.Session.SweepSchedule); err != nil {
			log.Fatal("Failed to start session sweeper", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	gate, err := services.NewAdminGate(config.Conf.Admin.Secret)
	if err != nil {
		log.Fatal("Failed to prepare admin gate", zap.Error(err))
	}
	identity := services.NewIdentityService(log, config.Conf.Identity.LookupURL, config.Conf.Identity.Timeout, knownNames)

	// Setup router, passing the logger to it
	r := router.Setup(log, router.Deps{
		Catalog:  catalog,
		Attempts: attempts,
		Sessions: sessions,
		Runners:  runners,
		Identity: identity,
		Admin:    gate,
	})

	srv := &http.Server{
		Addr:    ":" + config.Conf.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info("Server listening on http://localhost" + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run Gin server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Timer streams are hijacked connections; stopping their runners lets
	// them close before the server waits on the rest.
	runners.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}
	log.Info("Server exited")
}

// sessionStore builds the configured session backend. Stores that do not
// expire entries themselves are also returned as a purger for the sweeper.
func sessionStore(ctx context.Context, log *zap.Logger) (cache.SessionStore, cache.StalePurger, func()) {
	conf := config.Conf.Session
	switch conf.Store {
	case "redis":
		rc := config.Conf.Redis
		store := redisstore.NewStore(rc.Addr, rc.Password, rc.DB, conf.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			log.Fatal("Failed to connect to redis", zap.String("addr", rc.Addr), zap.Error(err))
		}
		log.Info("Session store: redis", zap.String("addr", rc.Addr), zap.Duration("ttl", conf.TTL))
		return store, nil, func() {
			if err := store.Close(); err != nil {
				log.Warn("Failed to close redis client", zap.Error(err))
			}
		}
	case "memory":
		log.Warn("Session store: memory; sessions are lost on restart")
		store := cache.NewMemoryStore()
		return store, store, func() {}
	default:
		log.Info("Session store: database")
		store := repository.NewSessionRepository(database.DB)
		return store, store, func() {}
	}
}
