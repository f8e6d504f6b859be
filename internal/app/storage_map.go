package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskmate/internal/auth"
	"taskmate/internal/config"
	"taskmate/internal/insights"
	"taskmate/internal/schedule"
	"taskmate/internal/storage"
	"taskmate/internal/web"
	logx "taskmate/pkg/logx"
)

type Config = config.Config

func mapLogConfig(cfg *Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		JSON:    cfg.Logging.JSON,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapStorageConfig(cfg *Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(sc.Path)

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path, Retain: sc.Retain}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy, Retain: sc.Retain}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapHTTPConfig(cfg *Config) (web.Config, error) {
	read, err := config.ParseDurationOrDefault("http.read_timeout", cfg.HTTP.ReadTimeout, 10*time.Second)
	if err != nil {
		return web.Config{}, err
	}
	write, err := config.ParseDurationOrDefault("http.write_timeout", cfg.HTTP.WriteTimeout, 60*time.Second)
	if err != nil {
		return web.Config{}, err
	}
	idle, err := config.ParseDurationOrDefault("http.idle_timeout", cfg.HTTP.IdleTimeout, 120*time.Second)
	if err != nil {
		return web.Config{}, err
	}
	addr := strings.TrimSpace(cfg.HTTP.Addr)
	if addr == "" {
		addr = config.DefaultHTTPAddr
	}
	return web.Config{Addr: addr, ReadTimeout: read, WriteTimeout: write, IdleTimeout: idle}, nil
}

func ginMode(cfg *Config) string {
	switch strings.ToLower(strings.TrimSpace(cfg.HTTP.Mode)) {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

func mapAuthConfig(cfg *Config) auth.Config {
	return auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
}

// scheduleState is swapped atomically on reload.
type scheduleState struct {
	builder schedule.Builder
	preview int
}

func mapScheduleConfig(cfg *Config) (*scheduleState, error) {
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Schedule.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("schedule.timezone: invalid %q: %w", tz, err)
		}
		loc = l
	}
	preview := cfg.Schedule.PreviewCount
	if preview <= 0 {
		preview = config.DefaultPreviewCount
	}
	return &scheduleState{builder: schedule.NewBuilder(schedule.WithLocation(loc)), preview: preview}, nil
}

// resolveAPIKey prefers the inline key, then the configured env var, then
// GEMINI_API_KEY and GOOGLE_API_KEY.
func resolveAPIKey(ai config.AIConfig) string {
	if k := strings.TrimSpace(ai.APIKey); k != "" {
		return k
	}
	envs := []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	if e := strings.TrimSpace(ai.APIKeyEnv); e != "" {
		envs = append([]string{e}, envs...)
	}
	for _, e := range envs {
		if k := strings.TrimSpace(os.Getenv(e)); k != "" {
			return k
		}
	}
	return ""
}

func mapGeminiConfig(cfg *Config) (insights.GeminiConfig, bool, error) {
	if !cfg.AI.Enabled {
		return insights.GeminiConfig{}, false, nil
	}
	timeout, err := config.ParseDurationField("ai.timeout", cfg.AI.Timeout)
	if err != nil {
		return insights.GeminiConfig{}, false, err
	}
	retryBase, err := config.ParseDurationField("ai.retry_base", cfg.AI.RetryBase)
	if err != nil {
		return insights.GeminiConfig{}, false, err
	}
	key := resolveAPIKey(cfg.AI)
	if key == "" {
		return insights.GeminiConfig{}, false, fmt.Errorf("ai.enabled is true but no API key is set (ai.api_key, $%s, $GEMINI_API_KEY or $GOOGLE_API_KEY)", envName(cfg.AI))
	}
	return insights.GeminiConfig{
		BaseURL:    cfg.AI.BaseURL,
		Model:      cfg.AI.Model,
		APIKey:     key,
		Timeout:    timeout,
		RatePerSec: cfg.AI.RatePerSec,
		Burst:      cfg.AI.Burst,
		RetryMax:   cfg.AI.RetryMax,
		RetryBase:  retryBase,
	}, true, nil
}

func envName(ai config.AIConfig) string {
	if e := strings.TrimSpace(ai.APIKeyEnv); e != "" {
		return e
	}
	return "GEMINI_API_KEY"
}
