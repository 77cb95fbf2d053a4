package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	CatalogDriverMemory   = "memory"
	CatalogDriverPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Catalog   CatalogConfig
	Timetable TimetableConfig
	Cache     CacheConfig
	Audit     AuditConfig
	Export    ExportConfig
	Realtime  RealtimeConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig selects where master data and committed entries live.
type CatalogConfig struct {
	Driver string
	Seed   bool
}

// TimetableConfig tunes the scheduling engine surface.
type TimetableConfig struct {
	AutocompleteLimit int
	PersistWorkers    int
	PersistRetries    int
	PersistBuffer     int
}

// CacheConfig governs Redis caching of timetable read models.
type CacheConfig struct {
	Enabled   bool
	TTL       time.Duration
	Namespace string
}

// AuditConfig schedules the periodic index integrity check.
type AuditConfig struct {
	Enabled  bool
	Schedule string
}

// ExportConfig anchors the weekly timetable to a calendar term for iCalendar feeds.
type ExportConfig struct {
	TermStart time.Time
	TermWeeks int
}

// RealtimeConfig toggles websocket timetable updates.
type RealtimeConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	driver := strings.ToLower(strings.TrimSpace(v.GetString("CATALOG_DRIVER")))
	if driver != CatalogDriverPostgres {
		driver = CatalogDriverMemory
	}
	cfg.Catalog = CatalogConfig{
		Driver: driver,
		Seed:   v.GetBool("CATALOG_SEED"),
	}

	cfg.Timetable = TimetableConfig{
		AutocompleteLimit: positiveOr(v.GetInt("AUTOCOMPLETE_LIMIT"), 10),
		PersistWorkers:    positiveOr(v.GetInt("PERSIST_WORKERS"), 2),
		PersistRetries:    positiveOr(v.GetInt("PERSIST_RETRIES"), 3),
		PersistBuffer:     positiveOr(v.GetInt("PERSIST_BUFFER"), 256),
	}

	cfg.Cache = CacheConfig{
		Enabled:   v.GetBool("ENABLE_CACHE"),
		TTL:       parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
		Namespace: strings.Trim(strings.TrimSpace(v.GetString("CACHE_NAMESPACE")), ":"),
	}

	cfg.Audit = AuditConfig{
		Enabled:  v.GetBool("ENABLE_AUDIT"),
		Schedule: v.GetString("AUDIT_SCHEDULE"),
	}

	cfg.Export = ExportConfig{
		TermStart: parseDate(v.GetString("EXPORT_TERM_START")),
		TermWeeks: positiveOr(v.GetInt("EXPORT_TERM_WEEKS"), 15),
	}

	cfg.Realtime = RealtimeConfig{
		Enabled: v.GetBool("ENABLE_REALTIME"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_DRIVER", CatalogDriverMemory)
	v.SetDefault("CATALOG_SEED", true)

	v.SetDefault("AUTOCOMPLETE_LIMIT", 10)
	v.SetDefault("PERSIST_WORKERS", 2)
	v.SetDefault("PERSIST_RETRIES", 3)
	v.SetDefault("PERSIST_BUFFER", 256)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_NAMESPACE", "ttapi")

	v.SetDefault("ENABLE_AUDIT", true)
	v.SetDefault("AUDIT_SCHEDULE", "0 */15 * * * *")

	v.SetDefault("EXPORT_TERM_START", "")
	v.SetDefault("EXPORT_TERM_WEEKS", 15)

	v.SetDefault("ENABLE_REALTIME", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseDate reads a YYYY-MM-DD date, returning the zero time when unset or malformed.
func parseDate(raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
