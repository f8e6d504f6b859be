package schedule

import "fmt"

const (
	MinMinute     = 0
	MaxMinute     = 59
	MinHour       = 0
	MaxHour       = 23
	MinDayOfMonth = 1
	MaxDayOfMonth = 31
	MinWeekday    = 0 // Sunday
	MaxWeekday    = 6 // Saturday
)

// Field names used in FieldError.
const (
	FieldFrequency  = "frequency"
	FieldRunDate    = "run_date"
	FieldMinute     = "minute"
	FieldHour       = "hour"
	FieldDaysOfWeek = "days_of_week"
	FieldDayOfMonth = "day_of_month"
)

func ValidMinute(v int) bool     { return v >= MinMinute && v <= MaxMinute }
func ValidHour(v int) bool       { return v >= MinHour && v <= MaxHour }
func ValidDayOfMonth(v int) bool { return v >= MinDayOfMonth && v <= MaxDayOfMonth }
func ValidWeekday(v int) bool    { return v >= MinWeekday && v <= MaxWeekday }

func rangeConstraint(lo, hi int) string {
	return fmt.Sprintf("must be between %d and %d", lo, hi)
}

// checker accumulates field problems so a build reports all of them at once.
type checker struct {
	problems []FieldError
}

func (c *checker) add(field, constraint string) {
	c.problems = append(c.problems, FieldError{Field: field, Constraint: constraint})
}

func (c *checker) required(field string, v *int) (int, bool) {
	if v == nil {
		c.add(field, "is required")
		return 0, false
	}
	return *v, true
}

func (c *checker) minute(v int) bool {
	if !ValidMinute(v) {
		c.add(FieldMinute, rangeConstraint(MinMinute, MaxMinute))
		return false
	}
	return true
}

func (c *checker) hour(v int) bool {
	if !ValidHour(v) {
		c.add(FieldHour, rangeConstraint(MinHour, MaxHour))
		return false
	}
	return true
}

func (c *checker) dayOfMonth(v int) bool {
	if !ValidDayOfMonth(v) {
		c.add(FieldDayOfMonth, rangeConstraint(MinDayOfMonth, MaxDayOfMonth))
		return false
	}
	return true
}

// weekdays folds days into a set, recording every out-of-range value.
func (c *checker) weekdays(days []int) (weekdaySet, bool) {
	var set weekdaySet
	ok := true
	for _, d := range days {
		if !ValidWeekday(d) {
			c.add(FieldDaysOfWeek, fmt.Sprintf("%s (got %d)", rangeConstraint(MinWeekday, MaxWeekday), d))
			ok = false
			continue
		}
		set = set.with(d)
	}
	return set, ok
}

func (c *checker) err() error {
	if len(c.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: append([]FieldError(nil), c.problems...)}
}
