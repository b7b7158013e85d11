package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// v is kept for Watch after Load has read the file.
var v *viper.Viper

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Identity IdentityConfig `mapstructure:"identity"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Detector DetectorConfig `mapstructure:"detector"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	SessionSecret  string   `mapstructure:"session_secret"`
	SecureCookies  bool     `mapstructure:"secure_cookies"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	CSRF           bool     `mapstructure:"csrf"`
	LoginRateLimit int      `mapstructure:"login_rate_limit"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
	LogLevel string `mapstructure:"log_level"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// SessionConfig controls where live quiz sessions are kept and how they
// are driven.
type SessionConfig struct {
	Store         string        `mapstructure:"store"` // redis | database | memory
	TTL           time.Duration `mapstructure:"ttl"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type QuizConfig struct {
	SeedFile           string `mapstructure:"seed_file"`
	RevisitTimerPolicy string `mapstructure:"revisit_timer_policy"`
}

// IdentityConfig points at an ipify-compatible lookup used when the client
// address is not public.
type IdentityConfig struct {
	LookupURL string        `mapstructure:"lookup_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	Secret string `mapstructure:"secret"`
}

type DetectorConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	MaxNames    int `mapstructure:"max_names"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.csrf", true)
	v.SetDefault("server.login_rate_limit", 5)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "cdcfib")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "cdcfib.db")
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
	v.SetDefault("logging.console", true)

	// Session defaults
	v.SetDefault("session.store", "redis")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.sweep_schedule", "@every 15m")
	v.SetDefault("session.tick_interval", time.Second)

	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("quiz.seed_file", "config/quizzes.yaml")
	v.SetDefault("quiz.revisit_timer_policy", "unlocked")

	v.SetDefault("identity.lookup_url", "https://api.ipify.org?format=json")
	v.SetDefault("identity.timeout", 3*time.Second)

	v.SetDefault("admin.secret", "FUTURE")

	v.SetDefault("detector.max_attempts", 3)
	v.SetDefault("detector.max_names", 1)
}

// Load reads defaults, config/config.yaml and CDCFIB_* variables into Conf.
// A .env file in projectRoot, when present, is applied to the environment
// first.
func Load(projectRoot string) error {
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))

	v = viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("CDCFIB") // e.g., CDCFIB_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	Conf = &c
	return nil
}

// Watch reloads Conf when the config file changes. Settings read once at
// start-up (ports, drivers) need a restart; the rest take effect on the
// next request that reads them.
func Watch(log *zap.Logger) {
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var c Config
		if err := v.Unmarshal(&c); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		Conf = &c
	})
}
