package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	DefaultHTTPAddr     = "127.0.0.1:8080"
	DefaultPreviewCount = 3
	MaxPreviewCount     = 20
	MaxAIRetries        = 10
)

// Validate rejects configs that cannot be applied. It is used both at startup
// and as the hot-reload gate, so a bad edit keeps the previous config live.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if addr := strings.TrimSpace(cfg.HTTP.Addr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("http.addr: invalid %q: %w", addr, err)
		}
	}
	for key, raw := range map[string]string{
		"http.read_timeout":  cfg.HTTP.ReadTimeout,
		"http.write_timeout": cfg.HTTP.WriteTimeout,
		"http.idle_timeout":  cfg.HTTP.IdleTimeout,
		"ai.timeout":         cfg.AI.Timeout,
		"ai.retry_base":      cfg.AI.RetryBase,
	} {
		if _, err := ParseDurationField(key, raw); err != nil {
			return err
		}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.HTTP.Mode)) {
	case "", "release", "debug", "test":
	default:
		return fmt.Errorf("http.mode: must be release, debug or test (got %q)", cfg.HTTP.Mode)
	}

	if cfg.Auth.Enabled && strings.TrimSpace(cfg.Auth.Token) == "" {
		return fmt.Errorf("auth.token is required when auth.enabled is true")
	}

	if tz := strings.TrimSpace(cfg.Schedule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("schedule.timezone: invalid %q: %w", tz, err)
		}
	}
	if cfg.Schedule.PreviewCount < 0 || cfg.Schedule.PreviewCount > MaxPreviewCount {
		return fmt.Errorf("schedule.preview_count must be between 0 and %d", MaxPreviewCount)
	}

	if cfg.AI.RatePerSec < 0 {
		return fmt.Errorf("ai.rate_per_sec must be >= 0")
	}
	if cfg.AI.Burst < 0 {
		return fmt.Errorf("ai.burst must be >= 0")
	}
	if cfg.AI.RetryMax < 0 || cfg.AI.RetryMax > MaxAIRetries {
		return fmt.Errorf("ai.retry_max must be between 0 and %d", MaxAIRetries)
	}

	if sc := cfg.Storage; sc != nil {
		switch strings.ToLower(strings.TrimSpace(sc.Driver)) {
		case "", "none":
		case "file", "sqlite", "sqlite3":
			if strings.TrimSpace(sc.Path) == "" {
				return fmt.Errorf("storage.path is required when storage.driver=%s", sc.Driver)
			}
		default:
			return fmt.Errorf("unknown storage.driver: %s", sc.Driver)
		}
		if sc.Retain < 0 {
			return fmt.Errorf("storage.retain must be >= 0")
		}
		if _, err := ParseDurationField("storage.busy_timeout", sc.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}
