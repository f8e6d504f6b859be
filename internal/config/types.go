package config

// Config is the on-disk TaskMate configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	HTTP     HTTPConfig     `json:"http"`
	Auth     AuthConfig     `json:"auth"`
	Schedule ScheduleConfig `json:"schedule"`
	AI       AIConfig       `json:"ai"`

	// Storage keeps the AI insight history. Omitted or driver "none"
	// disables it.
	Storage *StorageConfig `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	JSON    bool        `json:"json,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HTTPConfig controls the dashboard API server.
//
// Defaults (when fields are omitted/zero):
//   - addr: "127.0.0.1:8080"
//   - read_timeout: "10s"
//   - write_timeout: "60s" (model calls can be slow)
//   - idle_timeout: "120s"
//   - mode: "release"
type HTTPConfig struct {
	Addr         string `json:"addr,omitempty"`
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
	// Mode is the gin mode: "release", "debug" or "test".
	Mode string `json:"mode,omitempty"`
}

// AuthConfig controls the mock bearer-token check.
//
// This is NOT a security boundary: any non-empty login receives Token.
type AuthConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"` // do not log
}

// ScheduleConfig controls how recurrence input is interpreted.
type ScheduleConfig struct {
	// Timezone is an IANA zone used for one-time schedules and previews,
	// e.g. "Asia/Jakarta". Empty means the process local zone.
	Timezone string `json:"timezone,omitempty"`
	// PreviewCount is how many upcoming runs a compile response lists
	// (default 3, max 20).
	PreviewCount int `json:"preview_count,omitempty"`
}

// AIConfig controls the hosted model used by the insight flows.
//
// Defaults (when fields are omitted/zero):
//   - base_url: Generative Language API v1beta
//   - model: "gemini-2.0-flash"
//   - api_key_env: "GEMINI_API_KEY" (GOOGLE_API_KEY is tried as well)
//   - timeout: "30s"
//   - rate_per_sec: 1, burst: 2
//   - retry_max: 3 (at most 10), retry_base: "1s"; retry waits double up to 30s
type AIConfig struct {
	Enabled   bool   `json:"enabled"`
	BaseURL   string `json:"base_url,omitempty"`
	Model     string `json:"model,omitempty"`
	APIKey    string `json:"api_key,omitempty"` // do not log
	APIKeyEnv string `json:"api_key_env,omitempty"`

	Timeout    string  `json:"timeout,omitempty"`
	RatePerSec float64 `json:"rate_per_sec,omitempty"`
	Burst      int     `json:"burst,omitempty"`
	RetryMax   int     `json:"retry_max,omitempty"`
	RetryBase  string  `json:"retry_base,omitempty"`
}

// StorageConfig controls the optional insight history store.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/taskmate.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
	// Retain is how many records are kept (default 500).
	Retain int `json:"retain,omitempty"`
}
