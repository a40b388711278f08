package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/cocoiru/internal/tokens"
)

const (
	RevocationBackendDB    = "db"
	RevocationBackendRedis = "redis"
)

type Config struct {
	ListenAddr  string
	DatabaseURL string
	LogLevel    string

	SecretKey      []byte
	Algorithm      string
	AccessTokenTTL time.Duration
	BcryptCost     int
	CookieSecure   bool

	RevocationBackend string
	RedisURL          string
	SweepInterval     time.Duration

	KafkaBrokers []string
	EventsTopic  string

	AdminUsername string
	AdminPassword string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("notice: .env not loaded: %v", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:  EnvDefault("LISTEN_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		SecretKey:      []byte(os.Getenv("AUTH_SECRET_KEY")),
		Algorithm:      strings.ToUpper(EnvDefault("AUTH_ALGORITHM", "HS256")),
		AccessTokenTTL: time.Duration(EnvIntDefault("ACCESS_TOKEN_EXPIRE_SECONDS", 10800)) * time.Second,
		BcryptCost:     EnvIntDefault("BCRYPT_COST", 0),
		CookieSecure:   EnvBoolDefault("COOKIE_SECURE", true),

		RevocationBackend: strings.ToLower(EnvDefault("REVOCATION_BACKEND", RevocationBackendDB)),
		RedisURL:          os.Getenv("REDIS_URL"),
		SweepInterval:     EnvDurationDefault("REVOCATION_SWEEP_INTERVAL", time.Hour),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		EventsTopic:  EnvDefault("EVENTS_TOPIC", "auth_events"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return missing("DATABASE_URL")
	}
	if len(c.SecretKey) == 0 {
		return missing("AUTH_SECRET_KEY")
	}
	if _, err := tokens.SigningMethod(c.Algorithm); err != nil {
		return fmt.Errorf("AUTH_ALGORITHM: %w", err)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_SECONDS must be positive")
	}
	switch c.RevocationBackend {
	case RevocationBackendDB:
	case RevocationBackendRedis:
		if c.RedisURL == "" {
			return missing("REDIS_URL")
		}
	default:
		return fmt.Errorf("REVOCATION_BACKEND: unknown backend %q", c.RevocationBackend)
	}
	return nil
}

// Tokens is the signing configuration shared by the issuer and the verifier.
func (c *Config) Tokens() tokens.Config {
	return tokens.Config{
		Secret:    c.SecretKey,
		Algorithm: c.Algorithm,
		TTL:       c.AccessTokenTTL,
	}
}

func missing(name string) error {
	return fmt.Errorf("missing required env %s", name)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDurationDefault accepts a Go duration ("30m") or a plain number of seconds.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
