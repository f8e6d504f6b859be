package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts exactly the classic five-field grammar Compile emits.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseExpression checks a five-field expression against the cron grammar.
func ParseExpression(expr string) (cron.Schedule, error) {
	s, err := cronParser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return s, nil
}

// NextRuns returns up to n fire times strictly after from, in the builder's
// zone. A one-time schedule yields its single run instant when it is still
// ahead of from.
func (b Builder) NextRuns(spec Spec, from time.Time, n int) ([]time.Time, error) {
	if spec == nil || n <= 0 {
		return nil, nil
	}
	loc := b.Location()
	from = from.In(loc)

	if once, ok := spec.(OnceSpec); ok {
		at := once.RunAt(loc)
		if at.After(from) {
			return []time.Time{at}, nil
		}
		return nil, nil
	}

	sched, err := ParseExpression(Compile(spec))
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// NextRuns is Builder.NextRuns in the local zone.
func NextRuns(spec Spec, from time.Time, n int) ([]time.Time, error) {
	return NewBuilder().NextRuns(spec, from, n)
}

var weekdayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Describe renders spec as a short English sentence for display.
func Describe(spec Spec) string {
	switch s := spec.(type) {
	case OnceSpec:
		return fmt.Sprintf("once on %s at %s", s.date, clock(s.hour, s.minute))
	case HourlySpec:
		return fmt.Sprintf("every hour at minute %d", s.minute)
	case DailySpec:
		return "every day at " + clock(s.hour, s.minute)
	case WeeklySpec:
		days := s.days.list()
		names := make([]string, len(days))
		for i, d := range days {
			names[i] = weekdayNames[d]
		}
		return fmt.Sprintf("every %s at %s", humanList(names), clock(s.hour, s.minute))
	case MonthlySpec:
		return fmt.Sprintf("on day %d of every month at %s", s.dayOfMonth, clock(s.hour, s.minute))
	default:
		return ""
	}
}

func clock(hour, minute int) string { return fmt.Sprintf("%02d:%02d", hour, minute) }

func humanList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
