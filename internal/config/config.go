// Package config resolves runtime configuration for the service.
// Resolution order is defaults -> YAML file -> environment, so local runs
// need nothing while deployments override per environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
type Config struct {
	Environment string
	HTTPPort    int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	MaxDBConns int32

	RedisURL string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	BcryptCost int

	LockoutThreshold int
	LockoutWindow    time.Duration

	LoginRateLimit   int
	ContactRateLimit int
	RateLimitWindow  time.Duration
	LockTimeout      time.Duration // max wait for the event row lock

	DomainURL string
	Social    SocialLinks
}

// SocialLinks holds the public profile URLs served by /api/config.
type SocialLinks struct {
	Facebook  string `yaml:"facebook"`
	Instagram string `yaml:"instagram"`
	LinkedIn  string `yaml:"linkedin"`
	Twitter   string `yaml:"twitter"`
}

// IsProduction reports whether error detail should be withheld from clients.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// configFile mirrors the YAML schema of configs/default.yaml. It is kept
// separate from Config so runtime-only fields stay internal.
type configFile struct {
	Environment string `yaml:"environment"`
	Server      struct {
		HTTPPort int `yaml:"http_port"`
	} `yaml:"server"`
	Database struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"database"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret        string `yaml:"jwt_secret"`
		JWTIssuer        string `yaml:"jwt_issuer"`
		JWTAudience      string `yaml:"jwt_audience"`
		TokenTTL         string `yaml:"token_ttl"`
		BcryptCost       int    `yaml:"bcrypt_cost"`
		LockoutThreshold int    `yaml:"lockout_threshold"`
		LockoutWindow    string `yaml:"lockout_window"`
	} `yaml:"auth"`
	Site struct {
		DomainURL string      `yaml:"domain_url"`
		Social    SocialLinks `yaml:"social"`
	} `yaml:"site"`
}

// Load resolves configuration. path may be empty; a missing file is not an
// error because every field has a default and an env override.
func Load(path string) (Config, error) {
	cfg := Config{
		Environment:      "development",
		HTTPPort:         8080,
		DBHost:           "localhost",
		DBPort:           "5432",
		DBUser:           "base_admin",
		DBPassword:       "base_admin",
		DBName:           "base_events",
		DBSSLMode:        "disable",
		MaxDBConns:       20,
		JWTIssuer:        "base-events",
		JWTAudience:      "base-events-users",
		TokenTTL:         7 * 24 * time.Hour,
		BcryptCost:       12,
		LockoutThreshold: 5,
		LockoutWindow:    15 * time.Minute,
		LoginRateLimit:   10,
		ContactRateLimit: 5,
		RateLimitWindow:  time.Minute,
		LockTimeout:      3 * time.Second,
		DomainURL:        "http://localhost:3000",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			var file configFile
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			applyFile(&cfg, file)
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-insecure-secret"
	}
	return cfg, nil
}

func applyFile(cfg *Config, file configFile) {
	setString(&cfg.Environment, file.Environment)
	if file.Server.HTTPPort > 0 {
		cfg.HTTPPort = file.Server.HTTPPort
	}
	setString(&cfg.DBHost, file.Database.Host)
	setString(&cfg.DBPort, file.Database.Port)
	setString(&cfg.DBUser, file.Database.User)
	setString(&cfg.DBPassword, file.Database.Password)
	setString(&cfg.DBName, file.Database.Name)
	setString(&cfg.DBSSLMode, file.Database.SSLMode)
	if file.Database.MaxConns > 0 {
		cfg.MaxDBConns = file.Database.MaxConns
	}
	setString(&cfg.RedisURL, file.Redis.URL)
	setString(&cfg.JWTSecret, file.Auth.JWTSecret)
	setString(&cfg.JWTIssuer, file.Auth.JWTIssuer)
	setString(&cfg.JWTAudience, file.Auth.JWTAudience)
	setDuration(&cfg.TokenTTL, file.Auth.TokenTTL)
	if file.Auth.BcryptCost > 0 {
		cfg.BcryptCost = file.Auth.BcryptCost
	}
	if file.Auth.LockoutThreshold > 0 {
		cfg.LockoutThreshold = file.Auth.LockoutThreshold
	}
	setDuration(&cfg.LockoutWindow, file.Auth.LockoutWindow)
	setString(&cfg.DomainURL, file.Site.DomainURL)
	if file.Site.Social != (SocialLinks{}) {
		cfg.Social = file.Site.Social
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Environment, os.Getenv("APP_ENV"))
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil && v > 0 {
		cfg.HTTPPort = v
	}
	setString(&cfg.DBHost, os.Getenv("DB_HOST"))
	setString(&cfg.DBPort, os.Getenv("DB_PORT"))
	setString(&cfg.DBUser, os.Getenv("DB_USER"))
	setString(&cfg.DBPassword, os.Getenv("DB_PASSWORD"))
	setString(&cfg.DBName, os.Getenv("DB_NAME"))
	setString(&cfg.DBSSLMode, os.Getenv("DB_SSLMODE"))
	setString(&cfg.RedisURL, os.Getenv("REDIS_URL"))
	setString(&cfg.JWTSecret, os.Getenv("JWT_SECRET"))
	setString(&cfg.JWTIssuer, os.Getenv("JWT_ISSUER"))
	setString(&cfg.JWTAudience, os.Getenv("JWT_AUDIENCE"))
	setDuration(&cfg.TokenTTL, os.Getenv("TOKEN_TTL"))
	setDuration(&cfg.LockoutWindow, os.Getenv("LOCKOUT_WINDOW"))
	if v, err := strconv.Atoi(os.Getenv("LOCKOUT_THRESHOLD")); err == nil && v > 0 {
		cfg.LockoutThreshold = v
	}
	setString(&cfg.DomainURL, os.Getenv("DOMAIN_URL"))
	setString(&cfg.Social.Facebook, os.Getenv("FACEBOOK_URL"))
	setString(&cfg.Social.Instagram, os.Getenv("INSTAGRAM_URL"))
	setString(&cfg.Social.LinkedIn, os.Getenv("LINKEDIN_URL"))
	setString(&cfg.Social.Twitter, os.Getenv("TWITTER_URL"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}
