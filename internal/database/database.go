package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/config"
	logging "github.com/PYTHAGON2/cdcfib-mock-test/internal/logging"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the configured database, migrates it and stores it in DB.
func Init(log *zap.Logger) {
	db, err := Open(config.Conf.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection established successfully.", zap.String("driver", config.Conf.Database.Driver))

	if err := Migrate(db); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")
	DB = db
}

// Open connects with the driver named in cfg: postgres, or sqlite for
// development and tests.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); !strings.HasPrefix(cfg.Path, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Path)
	case "postgres", "":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLogger := logging.NewGormZapLogger(log, logging.ParseGormLevel(cfg.LogLevel))
	return gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
}

// Migrate creates or updates every table the application owns.
func Migrate(db *gorm.DB) error {
	// GORM's AutoMigrate creates the tables and the indexes declared in tags.
	err := db.AutoMigrate(
		&models.QuizRecord{},
		&models.AttemptRecord{},
		&models.SessionRecord{},
		&models.KnownName{},
	)
	if err != nil {
		return err
	}

	attemptsIndex := `CREATE INDEX IF NOT EXISTS idx_attempts_quiz_time ON quiz_attempts (quiz_id, timestamp DESC);`
	if err := db.Exec(attemptsIndex).Error; err != nil {
		return fmt.Errorf("create attempts index: %w", err)
	}
	return nil
}
