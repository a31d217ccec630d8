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

	StoreDriverJSON     = "json"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Env             string
	Port            int
	APIPrefix       string
	Timezone        string
	ShutdownTimeout time.Duration
	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// are honoured for client IPs. Empty trusts none.
	TrustedProxies []string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Store      StoreConfig
	Uploads    UploadsConfig
	Admissions AdmissionsConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	AdminAuth  AdminAuthConfig
	Cleanup    CleanupConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
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

// StoreConfig selects and tunes the admission record backend.
type StoreConfig struct {
	Driver       string
	DataFile     string
	WriteTimeout time.Duration
}

// UploadsConfig controls proof-of-payment storage and validation.
type UploadsConfig struct {
	Dir               string
	URLPrefix         string
	Public            bool
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
}

// AdmissionsConfig carries submission rules that vary per deployment.
type AdmissionsConfig struct {
	PhoneCountryCode  string
	CourseCatalogFile string
}

// CacheConfig toggles the records snapshot cache.
type CacheConfig struct {
	Enabled    bool
	RecordsTTL time.Duration
}

// RateLimitConfig bounds public submissions per client.
type RateLimitConfig struct {
	Submissions int
	Window      time.Duration
}

// AdminAuthConfig gates the admin endpoints behind bearer tokens.
type AdminAuthConfig struct {
	Enabled  bool
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

// CleanupConfig tunes the background attachment cleanup queue.
type CleanupConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.TrustedProxies = splitAndTrim(v.GetString("TRUSTED_PROXIES"))
	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{
		Driver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		DataFile:     v.GetString("DATA_FILE"),
		WriteTimeout: parseDuration(v.GetString("STORE_WRITE_TIMEOUT"), 5*time.Second),
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:               v.GetString("UPLOAD_DIR"),
		URLPrefix:         v.GetString("UPLOAD_URL_PREFIX"),
		Public:            v.GetBool("UPLOADS_PUBLIC"),
		MaxFileSizeBytes:  maxUpload,
		AllowedExtensions: splitAndTrim(v.GetString("UPLOAD_ALLOWED_EXTENSIONS")),
		SignedURLSecret:   v.GetString("ATTACHMENT_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("ATTACHMENT_URL_TTL"), 15*time.Minute),
	}

	cfg.Admissions = AdmissionsConfig{
		PhoneCountryCode:  v.GetString("PHONE_COUNTRY_CODE"),
		CourseCatalogFile: v.GetString("COURSE_CATALOG_FILE"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		RecordsTTL: parseDuration(v.GetString("RECORDS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		Submissions: v.GetInt("RATE_LIMIT_SUBMISSIONS"),
		Window:      parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
	}

	cfg.AdminAuth = AdminAuthConfig{
		Enabled:  v.GetBool("ADMIN_AUTH_ENABLED"),
		Secret:   v.GetString("ADMIN_JWT_SECRET"),
		TokenTTL: parseDuration(v.GetString("ADMIN_TOKEN_TTL"), 12*time.Hour),
		Issuer:   v.GetString("ADMIN_JWT_ISSUER"),
	}

	cfg.Cleanup = CleanupConfig{
		Workers:    v.GetInt("CLEANUP_WORKERS"),
		Retries:    v.GetInt("CLEANUP_RETRIES"),
		RetryDelay: parseDuration(v.GetString("CLEANUP_RETRY_DELAY"), 2*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "Asia/Karachi")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academy_admissions")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_DRIVER", StoreDriverJSON)
	v.SetDefault("DATA_FILE", "./data/admissions.json")
	v.SetDefault("STORE_WRITE_TIMEOUT", "5s")

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_URL_PREFIX", "uploads")
	v.SetDefault("UPLOADS_PUBLIC", true)
	v.SetDefault("MAX_UPLOAD_SIZE", 5*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_EXTENSIONS", "jpg,jpeg,png,pdf")
	v.SetDefault("ATTACHMENT_URL_SECRET", "dev_attachment_secret")
	v.SetDefault("ATTACHMENT_URL_TTL", "15m")

	v.SetDefault("PHONE_COUNTRY_CODE", "92")
	v.SetDefault("COURSE_CATALOG_FILE", "")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("RECORDS_CACHE_TTL", "5m")

	v.SetDefault("RATE_LIMIT_SUBMISSIONS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")

	v.SetDefault("ADMIN_AUTH_ENABLED", false)
	v.SetDefault("ADMIN_JWT_SECRET", "dev_admin_secret")
	v.SetDefault("ADMIN_TOKEN_TTL", "12h")
	v.SetDefault("ADMIN_JWT_ISSUER", "academy-admissions")

	v.SetDefault("CLEANUP_WORKERS", 1)
	v.SetDefault("CLEANUP_RETRIES", 3)
	v.SetDefault("CLEANUP_RETRY_DELAY", "2s")
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
