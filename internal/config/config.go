// Package config reads server settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything cmd/server needs to start.
type Config struct {
	Addr         string
	Env          string
	SiteURL      string
	DBPath       string
	CSRFKey      []byte
	RandomCSRF   bool // true when CSRFKey was generated at startup
	ResendKey    string
	EmailFrom    string
	MaterialsDir string
	ModalTTL     time.Duration
	LogLevel     string
	LogFormat    string
	SlowRequest  time.Duration
	SlowQuery    time.Duration
}

var (
	ErrCSRFKeyRequired = errors.New("GOALIEGEN_CSRF_KEY is required in production")
	ErrCSRFKeyFormat   = errors.New("GOALIEGEN_CSRF_KEY must be 64 hex characters (32 bytes)")
)

// Production reports whether the server runs with production settings.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env and .env.local when present, then the process environment.
func Load() (Config, error) {
	// Missing files are fine; variables already set win.
	_ = godotenv.Load(".env", ".env.local")
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
// PRE: getenv is non-nil
// POST: every field is set; durations fall back to their defaults when unparsable
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	c := Config{
		Addr:         env("GOALIEGEN_ADDR", ":8080"),
		Env:          env("GOALIEGEN_ENV", "development"),
		SiteURL:      env("GOALIEGEN_SITE_URL", "https://dev.goaliegen.com"),
		DBPath:       env("GOALIEGEN_DB_PATH", "goaliegen.db"),
		ResendKey:    env("GOALIEGEN_RESEND_KEY", ""),
		EmailFrom:    env("GOALIEGEN_EMAIL_FROM", "Goalie Gen <noreply@goaliegen.com>"),
		MaterialsDir: env("GOALIEGEN_MATERIALS_DIR", "materials"),
		LogLevel:     env("GOALIEGEN_LOG_LEVEL", "info"),
		LogFormat:    env("GOALIEGEN_LOG_FORMAT", "text"),
	}
	c.ModalTTL = duration(env("GOALIEGEN_MODAL_TTL", ""), 30*time.Minute)
	c.SlowRequest = millis(env("GOALIEGEN_SLOW_REQUEST_MS", ""), 200*time.Millisecond)
	c.SlowQuery = millis(env("GOALIEGEN_SLOW_QUERY_MS", ""), 50*time.Millisecond)

	key, random, err := csrfKey(getenv("GOALIEGEN_CSRF_KEY"), c.Production())
	if err != nil {
		return Config{}, err
	}
	c.CSRFKey, c.RandomCSRF = key, random
	return c, nil
}

// csrfKey decodes a hex key, or makes a random one outside production.
// Sessions do not survive a restart with a random key.
func csrfKey(keyHex string, production bool) ([]byte, bool, error) {
	if keyHex = strings.TrimSpace(keyHex); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, false, ErrCSRFKeyFormat
		}
		return key, false, nil
	}
	if production {
		return nil, false, ErrCSRFKeyRequired
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate CSRF key: %w", err)
	}
	return key, true, nil
}

func duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func millis(raw string, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}

// NewLogger builds the process logger: JSON or text, at the given level.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
