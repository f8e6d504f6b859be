package config

import (
	"strings"

	logx "taskmate/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and safe
// structured attrs for logging. Secrets (auth token, API key) are only
// reported as "set" booleans.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.HTTP != newCfg.HTTP {
		changed = append(changed, "http")
		attrs = append(attrs,
			logx.String("http.addr", strings.TrimSpace(newCfg.HTTP.Addr)),
			logx.String("http.mode", strings.TrimSpace(newCfg.HTTP.Mode)),
		)
	}

	if oldCfg.Auth.Enabled != newCfg.Auth.Enabled || oldCfg.Auth.Token != newCfg.Auth.Token {
		changed = append(changed, "auth")
		attrs = append(attrs,
			logx.Bool("auth.enabled", newCfg.Auth.Enabled),
			logx.Bool("auth.token_set", strings.TrimSpace(newCfg.Auth.Token) != ""),
		)
	}

	if oldCfg.Schedule != newCfg.Schedule {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.String("schedule.timezone", strings.TrimSpace(newCfg.Schedule.Timezone)),
			logx.Int("schedule.preview_count", newCfg.Schedule.PreviewCount),
		)
	}

	if oldCfg.AI != newCfg.AI {
		changed = append(changed, "ai")
		attrs = append(attrs,
			logx.Bool("ai.enabled", newCfg.AI.Enabled),
			logx.String("ai.model", strings.TrimSpace(newCfg.AI.Model)),
			logx.Bool("ai.api_key_set", strings.TrimSpace(newCfg.AI.APIKey) != ""),
			logx.Float64("ai.rate_per_sec", newCfg.AI.RatePerSec),
		)
	}

	if !storageEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		if newCfg.Storage != nil {
			attrs = append(attrs, logx.String("storage.driver", newCfg.Storage.Driver))
		} else {
			attrs = append(attrs, logx.String("storage.driver", "none"))
		}
	}

	return changed, attrs
}

func storageEqual(a, b *StorageConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
