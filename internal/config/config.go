package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Cache backends understood by the gateway.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds the runtime configuration of the offline gateway.
type Config struct {
	ListenAddr   string `env:"OFFLINE_GATEWAY_ADDR" envDefault:":8008"`
	PublicURL    string `env:"OFFLINE_GATEWAY_PUBLIC_URL" envDefault:"http://localhost:8008/"`
	Origin       string `env:"OFFLINE_GATEWAY_ORIGIN" envDefault:"http://localhost:3000"`
	CacheName    string `env:"OFFLINE_GATEWAY_CACHE_NAME" envDefault:"dashboard-v3"`
	CacheBackend string `env:"OFFLINE_GATEWAY_CACHE_BACKEND" envDefault:"sqlite"`
	DBPath       string `env:"OFFLINE_GATEWAY_DB_PATH" envDefault:"offline-cache.db"`

	PrecacheAssets []string `env:"OFFLINE_GATEWAY_PRECACHE" envSeparator:"," envDefault:"./,./index.html,./stats.html,./settings.html,./manifest.json,./icon.svg,./apple-touch-icon.png,./apple-touch-icon-120x120.png,./apple-touch-icon-precomposed.png"`
	RootDocument   string   `env:"OFFLINE_GATEWAY_ROOT_DOCUMENT" envDefault:"./index.html"`
	EntryPoint     string   `env:"OFFLINE_GATEWAY_ENTRY_POINT" envDefault:"./index.html"`
	Icon           string   `env:"OFFLINE_GATEWAY_ICON" envDefault:"./apple-touch-icon.png"`
	Badge          string   `env:"OFFLINE_GATEWAY_BADGE" envDefault:"./apple-touch-icon-120x120.png"`

	DailyReminder   bool          `env:"OFFLINE_GATEWAY_DAILY_REMINDER" envDefault:"true"`
	DailyReminderAt string        `env:"OFFLINE_GATEWAY_DAILY_REMINDER_AT" envDefault:"09:00"`
	ProbeInterval   time.Duration `env:"OFFLINE_GATEWAY_PROBE_INTERVAL" envDefault:"15s"`
	BackgroundSync  bool          `env:"OFFLINE_GATEWAY_BACKGROUND_SYNC" envDefault:"true"`

	NATSURL     string `env:"OFFLINE_GATEWAY_NATS_URL"`
	NATSSubject string `env:"OFFLINE_GATEWAY_NATS_SUBJECT" envDefault:"dashboard.offline.events"`

	JWTSecret   string `env:"OFFLINE_GATEWAY_JWT_SECRET" envDefault:"development-insecure-secret-change-me"`
	JWTIssuer   string `env:"OFFLINE_GATEWAY_JWT_ISSUER" envDefault:"offline-gateway"`
	JWTAudience string `env:"OFFLINE_GATEWAY_JWT_AUDIENCE" envDefault:"dashboard-surfaces"`

	BrowserCommand string `env:"OFFLINE_GATEWAY_BROWSER"`
	LogLevel       string `env:"OFFLINE_GATEWAY_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a validated Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks fields that env parsing cannot.
func (c Config) Validate() error {
	if _, err := c.OriginURL(); err != nil {
		return err
	}
	if _, err := c.EntryPointURL(); err != nil {
		return err
	}
	if c.CacheName == "" {
		return errors.New("cache name must not be empty")
	}
	switch c.CacheBackend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.DailyReminder {
		if _, _, err := c.ReminderTime(); err != nil {
			return err
		}
	}
	if c.ProbeInterval < 0 {
		return errors.New("probe interval must not be negative")
	}
	return nil
}

// OriginURL returns the parsed dashboard origin.
func (c Config) OriginURL() (*url.URL, error) {
	u, err := url.Parse(c.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", c.Origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("origin %q must be an http(s) URL", c.Origin)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("origin %q has no host", c.Origin)
	}
	// The origin is a directory: "./" references resolve beneath it.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}
	return u, nil
}

// EntryPointURL resolves EntryPoint against the gateway's public URL; that
// is where new surfaces are opened.
func (c Config) EntryPointURL() (string, error) {
	base, err := url.Parse(c.PublicURL)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("invalid public url %q", c.PublicURL)
	}
	ref, err := url.Parse(c.EntryPoint)
	if err != nil {
		return "", fmt.Errorf("invalid entry point %q: %w", c.EntryPoint, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// ReminderTime splits DailyReminderAt ("HH:MM") into hour and minute.
func (c Config) ReminderTime() (uint, uint, error) {
	hh, mm, ok := strings.Cut(c.DailyReminderAt, ":")
	if !ok {
		return 0, 0, fmt.Errorf("daily reminder time %q must be HH:MM", c.DailyReminderAt)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("daily reminder time %q: invalid hour", c.DailyReminderAt)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("daily reminder time %q: invalid minute", c.DailyReminderAt)
	}
	return uint(hour), uint(minute), nil
}
