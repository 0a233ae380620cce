package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr             string
	DatabaseURL      string
	DBConnectTimeout time.Duration
	JWTSecret        string
	AdminEmail       string
	CORSAllowOrigins string
	BodyLimit        int
	LogLevel         string
	S3               S3Config
}

// S3Config describes the S3-compatible bucket that hosts uploaded images.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	PublicURL    string
	UsePathStyle bool
}

func Load() Config {
	return Config{
		Addr:             getenv("PORTFOLIO_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBConnectTimeout: getenvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		CORSAllowOrigins: getenv("CORS_ALLOW_ORIGINS", "*"),
		BodyLimit:        getenvInt("BODY_LIMIT_BYTES", 10*1024*1024),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		S3: S3Config{
			Bucket:       os.Getenv("S3_BUCKET"),
			Region:       getenv("S3_REGION", "us-east-1"),
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
			PublicURL:    strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
			UsePathStyle: getenvBool("S3_USE_PATH_STYLE", false),
		},
	}
}

// Validate reports every required setting that is missing.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.AdminEmail == "" {
		errs = append(errs, errors.New("ADMIN_EMAIL is not set"))
	}
	if c.S3.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is not set"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
