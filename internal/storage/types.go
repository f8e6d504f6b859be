package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// DefaultRetain is the number of records kept when Config.Retain is 0.
const DefaultRetain = 500

// Flow names stored in InsightRecord.Flow.
const (
	FlowInsights    = "insights"
	FlowSuggestions = "suggestions"
)

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines history file
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	Retain      int           // newest records kept; 0 means DefaultRetain
}

// InsightRecord is one successful model flow.
// Keep it compact and schema-stable.
type InsightRecord struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Flow    string    `json:"flow"`
	Model   string    `json:"model,omitempty"`
	Input   string    `json:"input"`
	Summary string    `json:"summary,omitempty"`
	Actions string    `json:"actions,omitempty"`
	TookMS  int64     `json:"took_ms"`
}

func (c Config) retain() int {
	if c.Retain > 0 {
		return c.Retain
	}
	return DefaultRetain
}
