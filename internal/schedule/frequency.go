package schedule

import (
	"fmt"
	"strings"
)

// Frequency selects which fields a schedule carries and how it compiles.
type Frequency int

const (
	FrequencyOnce Frequency = iota + 1
	FrequencyHourly
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
)

var frequencyNames = map[Frequency]string{
	FrequencyOnce:    "once",
	FrequencyHourly:  "hourly",
	FrequencyDaily:   "daily",
	FrequencyWeekly:  "weekly",
	FrequencyMonthly: "monthly",
}

func (f Frequency) String() string {
	if s, ok := frequencyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("frequency(%d)", int(f))
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	_, ok := frequencyNames[f]
	return ok
}

// ParseFrequency parses a frequency name case-insensitively.
func ParseFrequency(raw string) (Frequency, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for f, name := range frequencyNames {
		if name == s {
			return f, nil
		}
	}
	if s == "" {
		return 0, fmt.Errorf("frequency required")
	}
	return 0, fmt.Errorf("unknown frequency %q (use once, hourly, daily, weekly or monthly)", raw)
}

// Frequencies returns all frequencies in declaration order.
func Frequencies() []Frequency {
	return []Frequency{FrequencyOnce, FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly}
}

func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid frequency %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Frequency) UnmarshalText(b []byte) error {
	v, err := ParseFrequency(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
