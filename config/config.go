package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type TokenConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type Config struct {
	Port         string
	StoreDriver  string
	MongoURI     string
	MongoDBName  string
	Tokens       TokenConfig
	CORSOrigin   string
	ServerURL    string
	ClientURL    string
	UploadDir    string
	CookieSecure bool
	LogFile      string
	LogLevel     string
	Mail         MailConfig
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// BlacklistFile lists rejected passwords, one per line.
	BlacklistFile string
	// MaxBodyBytes caps every request body, uploads included.
	MaxBodyBytes int64
}

// Load reads envFile (when it exists) into the process environment and builds
// the configuration from it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:        get("PORT", "8000"),
		StoreDriver: get("STORE_DRIVER", StoreMongo),
		MongoURI:    get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: get("MONGO_DB_NAME", "project_camp"),
		Tokens: TokenConfig{
			AccessSecret:  getenv("ACCESS_TOKEN_SECRET"),
			RefreshSecret: getenv("REFRESH_TOKEN_SECRET"),
		},
		CORSOrigin: get("CORS_ORIGIN", "http://localhost:5173"),
		ServerURL:  strings.TrimRight(get("SERVER_URL", "http://localhost:8000"), "/"),
		ClientURL:  strings.TrimRight(get("CLIENT_URL", "http://localhost:5173"), "/"),
		UploadDir:  get("UPLOAD_DIR", "public/images"),
		LogFile:    getenv("LOG_FILE"),
		LogLevel:   get("LOG_LEVEL", "info"),
		Mail: MailConfig{
			Host:     getenv("SMTP_HOST"),
			Port:     get("SMTP_PORT", "587"),
			Username: getenv("SMTP_USERNAME"),
			Password: getenv("SMTP_PASSWORD"),
			From:     get("MAIL_FROM", "no-reply@projectcamp.local"),
		},
		BlacklistFile: getenv("PASSWORD_BLACKLIST_FILE"),
	}

	var err error
	if cfg.Tokens.AccessExpiry, err = ParseExpiry(get("ACCESS_TOKEN_EXPIRY", "15m")); err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err)
	}
	if cfg.Tokens.RefreshExpiry, err = ParseExpiry(get("REFRESH_TOKEN_EXPIRY", "10d")); err != nil {
		return nil, fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err)
	}
	if cfg.ReadTimeout, err = ParseExpiry(get("READ_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("READ_TIMEOUT: %w", err)
	}
	if cfg.WriteTimeout, err = ParseExpiry(get("WRITE_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("WRITE_TIMEOUT: %w", err)
	}
	if cfg.CookieSecure, err = strconv.ParseBool(get("COOKIE_SECURE", "false")); err != nil {
		return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(get("MAX_BODY_BYTES", "10485760"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		return nil, errors.New("MAX_BODY_BYTES: must be a positive byte count")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var problems []string
	if c.Tokens.AccessSecret == "" {
		problems = append(problems, "ACCESS_TOKEN_SECRET is not set")
	}
	if c.Tokens.RefreshSecret == "" {
		problems = append(problems, "REFRESH_TOKEN_SECRET is not set")
	}
	if c.Tokens.AccessSecret != "" && c.Tokens.AccessSecret == c.Tokens.RefreshSecret {
		problems = append(problems, "ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.StoreDriver != StoreMongo && c.StoreDriver != StoreMemory {
		problems = append(problems, fmt.Sprintf("STORE_DRIVER %q is not one of mongo, memory", c.StoreDriver))
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// ParseExpiry accepts Go durations plus a day suffix ("7d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}
