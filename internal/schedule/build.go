package schedule

import (
	"errors"
	"strings"
	"time"
)

// Fields is loosely typed form input. Pointers distinguish "missing" from
// zero. Fields the selected frequency does not use are ignored.
type Fields struct {
	RunDate    string `json:"run_date,omitempty"`
	Minute     *int   `json:"minute,omitempty"`
	Hour       *int   `json:"hour,omitempty"`
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
	DayOfMonth *int   `json:"day_of_month,omitempty"`
}

// Int returns a pointer to v, for filling Fields.
func Int(v int) *int { return &v }

// Builder validates input against a clock and a time zone. It is immutable
// and safe for concurrent use.
type Builder struct {
	now func() time.Time
	loc *time.Location
}

type BuilderOption func(*Builder)

// WithClock overrides the clock used for past-date checks.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLocation sets the zone one-time schedules are interpreted in.
func WithLocation(loc *time.Location) BuilderOption {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

func NewBuilder(opts ...BuilderOption) Builder {
	b := Builder{now: time.Now, loc: time.Local}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func (b Builder) Location() *time.Location {
	if b.loc == nil {
		return time.Local
	}
	return b.loc
}

func (b Builder) clock() time.Time {
	if b.now == nil {
		return time.Now().In(b.Location())
	}
	return b.now().In(b.Location())
}

// ValidateAndBuild builds a Spec from form input using the wall clock and the
// local zone.
func ValidateAndBuild(frequency string, f Fields) (Spec, error) {
	return NewBuilder().ValidateAndBuild(frequency, f)
}

// ValidateAndBuild parses the frequency name and builds. An unknown frequency
// is reported as a ValidationError on the frequency field.
func (b Builder) ValidateAndBuild(frequency string, f Fields) (Spec, error) {
	freq, err := ParseFrequency(frequency)
	if err != nil {
		c := checker{}
		if strings.TrimSpace(frequency) == "" {
			c.add(FieldFrequency, "is required")
		} else {
			c.add(FieldFrequency, "must be one of once, hourly, daily, weekly, monthly")
		}
		return nil, c.err()
	}
	return b.Build(freq, f)
}

// Build builds a Spec for freq. On failure no Spec is returned; the error may
// join *PastDateError, *EmptySelectionError and *ValidationError (in that
// order). Use errors.As to test for a kind and Problems to list fields.
func (b Builder) Build(freq Frequency, f Fields) (Spec, error) {
	switch freq {
	case FrequencyOnce:
		return b.buildOnce(f)
	case FrequencyHourly:
		var c checker
		if m, ok := c.required(FieldMinute, f.Minute); ok {
			c.minute(m)
		}
		if err := c.err(); err != nil {
			return nil, err
		}
		return HourlySpec{minute: *f.Minute}, nil
	case FrequencyDaily:
		var c checker
		m, h := b.clockFields(&c, f)
		if err := c.err(); err != nil {
			return nil, err
		}
		return DailySpec{minute: m, hour: h}, nil
	case FrequencyWeekly:
		var c checker
		m, h := b.clockFields(&c, f)
		set, _ := c.weekdays(f.DaysOfWeek)
		var errs []error
		if len(f.DaysOfWeek) == 0 {
			errs = append(errs, &EmptySelectionError{})
		}
		if err := c.err(); err != nil {
			errs = append(errs, err)
		}
		if err := joinErrs(errs); err != nil {
			return nil, err
		}
		return WeeklySpec{minute: m, hour: h, days: set}, nil
	case FrequencyMonthly:
		var c checker
		m, h := b.clockFields(&c, f)
		dom, ok := c.required(FieldDayOfMonth, f.DayOfMonth)
		if ok {
			c.dayOfMonth(dom)
		}
		if err := c.err(); err != nil {
			return nil, err
		}
		return MonthlySpec{minute: m, hour: h, dayOfMonth: dom}, nil
	default:
		var c checker
		c.add(FieldFrequency, "must be one of once, hourly, daily, weekly, monthly")
		return nil, c.err()
	}
}

// clockFields checks minute and hour, both required.
func (b Builder) clockFields(c *checker, f Fields) (minute, hour int) {
	if m, ok := c.required(FieldMinute, f.Minute); ok {
		c.minute(m)
		minute = m
	}
	if h, ok := c.required(FieldHour, f.Hour); ok {
		c.hour(h)
		hour = h
	}
	return minute, hour
}

func (b Builder) buildOnce(f Fields) (Spec, error) {
	var c checker
	var (
		date   Date
		haveDt bool
	)
	if strings.TrimSpace(f.RunDate) == "" {
		c.add(FieldRunDate, "is required")
	} else if d, err := ParseDate(f.RunDate); err != nil {
		c.add(FieldRunDate, "must be a calendar date in YYYY-MM-DD form")
	} else {
		date, haveDt = d, true
	}
	before := len(c.problems)
	m, h := b.clockFields(&c, f)
	clockOK := len(c.problems) == before

	var errs []error
	if haveDt {
		if past := b.pastCheck(date, m, h, clockOK); past != nil {
			errs = append(errs, past)
		}
	}
	if err := c.err(); err != nil {
		errs = append(errs, err)
	}
	if err := joinErrs(errs); err != nil {
		return nil, err
	}
	return OnceSpec{date: date, minute: m, hour: h}, nil
}

// NewOnce builds a one-time schedule. A date before today is rejected
// whatever the other fields hold; a date of today is rejected when
// hour:minute has already passed in the builder's zone.
func (b Builder) NewOnce(date Date, minute, hour int) (OnceSpec, error) {
	f := Fields{RunDate: date.String(), Minute: Int(minute), Hour: Int(hour)}
	if date.IsZero() {
		f.RunDate = ""
	}
	s, err := b.buildOnce(f)
	if err != nil {
		return OnceSpec{}, err
	}
	return s.(OnceSpec), nil
}

func (b Builder) pastCheck(date Date, minute, hour int, clockOK bool) *PastDateError {
	now := b.clock()
	if date.Before(DateOf(now)) {
		pe := &PastDateError{Date: date, Now: now}
		if clockOK {
			pe.RunAt = date.At(hour, minute, b.Location())
		}
		return pe
	}
	if !clockOK {
		return nil
	}
	at := date.At(hour, minute, b.Location())
	if at.Before(now) {
		return &PastDateError{Date: date, RunAt: at, Now: now}
	}
	return nil
}

func joinErrs(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}
