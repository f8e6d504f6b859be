package schedule

import (
	"strconv"
	"strings"
)

const wildcard = "*"

// Compile renders spec as "minute hour day-of-month month day-of-week".
// Weekdays are serialized ascending, so equal day sets always produce the
// same string. A nil spec compiles to "".
func Compile(spec Spec) string {
	switch s := spec.(type) {
	case OnceSpec:
		return join(itoa(s.minute), itoa(s.hour), itoa(s.date.Day), itoa(int(s.date.Month)), wildcard)
	case HourlySpec:
		return join(itoa(s.minute), wildcard, wildcard, wildcard, wildcard)
	case DailySpec:
		return join(itoa(s.minute), itoa(s.hour), wildcard, wildcard, wildcard)
	case WeeklySpec:
		return join(itoa(s.minute), itoa(s.hour), wildcard, wildcard, joinInts(s.days.list()))
	case MonthlySpec:
		return join(itoa(s.minute), itoa(s.hour), itoa(s.dayOfMonth), wildcard, wildcard)
	default:
		return ""
	}
}

func join(minute, hour, dom, month, dow string) string {
	return minute + " " + hour + " " + dom + " " + month + " " + dow
}

func itoa(v int) string { return strconv.Itoa(v) }

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = itoa(v)
	}
	return strings.Join(parts, ",")
}
