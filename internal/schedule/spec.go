package schedule

import (
	"math/bits"
	"time"
)

// Spec is a validated recurrence. The concrete types (OnceSpec, HourlySpec,
// DailySpec, WeeklySpec, MonthlySpec) carry only the fields of their
// frequency and can only be obtained through the New* constructors or a
// Builder, so every Spec in circulation is valid.
type Spec interface {
	Frequency() Frequency
	Minute() int
	sealed()
}

// OnceSpec fires a single time on Date at Hour:Minute.
type OnceSpec struct {
	date   Date
	minute int
	hour   int
}

func (OnceSpec) Frequency() Frequency { return FrequencyOnce }
func (s OnceSpec) Minute() int        { return s.minute }
func (s OnceSpec) Hour() int          { return s.hour }
func (s OnceSpec) Date() Date         { return s.date }
func (OnceSpec) sealed()              {}

// RunAt returns the run instant in loc.
func (s OnceSpec) RunAt(loc *time.Location) time.Time { return s.date.At(s.hour, s.minute, loc) }

// HourlySpec fires every hour at Minute.
type HourlySpec struct {
	minute int
}

func (HourlySpec) Frequency() Frequency { return FrequencyHourly }
func (s HourlySpec) Minute() int        { return s.minute }
func (HourlySpec) sealed()              {}

// DailySpec fires every day at Hour:Minute.
type DailySpec struct {
	minute int
	hour   int
}

func (DailySpec) Frequency() Frequency { return FrequencyDaily }
func (s DailySpec) Minute() int        { return s.minute }
func (s DailySpec) Hour() int          { return s.hour }
func (DailySpec) sealed()              {}

// WeeklySpec fires at Hour:Minute on each selected weekday.
type WeeklySpec struct {
	minute int
	hour   int
	days   weekdaySet
}

func (WeeklySpec) Frequency() Frequency { return FrequencyWeekly }
func (s WeeklySpec) Minute() int        { return s.minute }
func (s WeeklySpec) Hour() int          { return s.hour }
func (WeeklySpec) sealed()              {}

// DaysOfWeek returns the selected weekdays ascending (0 = Sunday).
func (s WeeklySpec) DaysOfWeek() []int { return s.days.list() }

// MonthlySpec fires at Hour:Minute on DayOfMonth of each month.
type MonthlySpec struct {
	minute     int
	hour       int
	dayOfMonth int
}

func (MonthlySpec) Frequency() Frequency { return FrequencyMonthly }
func (s MonthlySpec) Minute() int        { return s.minute }
func (s MonthlySpec) Hour() int          { return s.hour }
func (s MonthlySpec) DayOfMonth() int    { return s.dayOfMonth }
func (MonthlySpec) sealed()              {}

// weekdaySet is a bitmask over 0..6. Set semantics (and ascending iteration)
// come for free, which keeps WeeklySpec comparable with ==.
type weekdaySet uint8

func (w weekdaySet) with(day int) weekdaySet { return w | 1<<uint(day) }

func (w weekdaySet) empty() bool { return w == 0 }

func (w weekdaySet) list() []int {
	out := make([]int, 0, bits.OnesCount8(uint8(w)))
	for d := MinWeekday; d <= MaxWeekday; d++ {
		if w&(1<<uint(d)) != 0 {
			out = append(out, d)
		}
	}
	return out
}

// NewHourly builds an hourly schedule.
func NewHourly(minute int) (HourlySpec, error) {
	var c checker
	c.minute(minute)
	if err := c.err(); err != nil {
		return HourlySpec{}, err
	}
	return HourlySpec{minute: minute}, nil
}

// NewDaily builds a daily schedule. Arguments follow cron field order.
func NewDaily(minute, hour int) (DailySpec, error) {
	var c checker
	c.minute(minute)
	c.hour(hour)
	if err := c.err(); err != nil {
		return DailySpec{}, err
	}
	return DailySpec{minute: minute, hour: hour}, nil
}

// NewWeekly builds a weekly schedule. Duplicate days collapse; order does
// not matter. No days at all yields *EmptySelectionError.
func NewWeekly(minute, hour int, days ...int) (WeeklySpec, error) {
	var c checker
	c.minute(minute)
	c.hour(hour)
	set, _ := c.weekdays(days)
	var errs []error
	if len(days) == 0 {
		errs = append(errs, &EmptySelectionError{})
	}
	if err := c.err(); err != nil {
		errs = append(errs, err)
	}
	if err := joinErrs(errs); err != nil {
		return WeeklySpec{}, err
	}
	return WeeklySpec{minute: minute, hour: hour, days: set}, nil
}

// NewMonthly builds a monthly schedule.
func NewMonthly(minute, hour, dayOfMonth int) (MonthlySpec, error) {
	var c checker
	c.minute(minute)
	c.hour(hour)
	c.dayOfMonth(dayOfMonth)
	if err := c.err(); err != nil {
		return MonthlySpec{}, err
	}
	return MonthlySpec{minute: minute, hour: hour, dayOfMonth: dayOfMonth}, nil
}

// NewOnce builds a one-time schedule against the wall clock in the local zone.
// See Builder.NewOnce.
func NewOnce(date Date, minute, hour int) (OnceSpec, error) {
	return NewBuilder().NewOnce(date, minute, hour)
}
