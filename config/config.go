package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Firebase FirebaseConfig
	SMTP     SMTPConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	Issuer       string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// NotifyConfig tunes the delivery engine. Chunk size and the retry cap are
// fixed in the domain package; these knobs only shape timing and sweep load.
type NotifyConfig struct {
	SendTimeout   time.Duration // per external channel send
	SweepInterval time.Duration // how often the retry sweep runs
	RetryBackoff  time.Duration // minimum age of a failure before re-attempt
	SweepBatch    int           // max notifications claimed per sweep
	Retention     time.Duration // age after which terminal records are purged
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8088"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "edupulse:edupulse@tcp(localhost:3306)/edupulse?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			Issuer:       getenv("JWT_ISSUER", "edupulse"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", "no-reply@edupulse.io"),
			FromName: getenv("SMTP_FROM_NAME", "EduPulse"),
		},
		Notify: NotifyConfig{
			SendTimeout:   getenvDuration("NOTIFY_SEND_TIMEOUT", 10*time.Second),
			SweepInterval: getenvDuration("NOTIFY_SWEEP_INTERVAL", 5*time.Minute),
			RetryBackoff:  getenvDuration("NOTIFY_RETRY_BACKOFF", 5*time.Minute),
			SweepBatch:    getenvInt("NOTIFY_SWEEP_BATCH", 50),
			Retention:     getenvDuration("NOTIFY_RETENTION", 90*24*time.Hour),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
