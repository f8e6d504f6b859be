package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FieldError names one field and the constraint it violates.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

func (e FieldError) Error() string { return e.Field + " " + e.Constraint }

// ValidationError reports every missing or out-of-range field of a build.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Error())
	}
	return "invalid schedule: " + strings.Join(parts, "; ")
}

func (e *ValidationError) fieldProblems() []FieldError { return e.Problems }

// PastDateError is returned for a one-time schedule that can never fire.
type PastDateError struct {
	Date Date
	// RunAt is the full run instant; zero when hour/minute were unusable.
	RunAt time.Time
	Now   time.Time
}

func (e *PastDateError) Error() string {
	if !e.RunAt.IsZero() {
		return fmt.Sprintf("run time %s is in the past", e.RunAt.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf("run date %s is in the past", e.Date)
}

func (e *PastDateError) fieldProblems() []FieldError {
	return []FieldError{{Field: FieldRunDate, Constraint: "must not be in the past"}}
}

// EmptySelectionError is returned for a weekly schedule without weekdays.
type EmptySelectionError struct{}

func (e *EmptySelectionError) Error() string { return "weekly schedule needs at least one weekday" }

func (e *EmptySelectionError) fieldProblems() []FieldError {
	return []FieldError{{Field: FieldDaysOfWeek, Constraint: "must select at least one weekday"}}
}

type problemLister interface {
	fieldProblems() []FieldError
}

// Problems flattens a build error (possibly joined) into field problems, in
// the order the errors were joined. It returns nil for errors that did not
// come from this package.
func Problems(err error) []FieldError {
	if err == nil {
		return nil
	}
	var out []FieldError
	collectProblems(err, &out)
	return out
}

func collectProblems(err error, out *[]FieldError) {
	if p, ok := err.(problemLister); ok {
		*out = append(*out, p.fieldProblems()...)
		return
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			collectProblems(e, out)
		}
	case interface{ Unwrap() error }:
		if inner := u.Unwrap(); inner != nil {
			collectProblems(inner, out)
		}
	}
}

// IsInputError reports whether err is a caller-correctable build failure.
func IsInputError(err error) bool {
	var (
		ve *ValidationError
		pe *PastDateError
		ee *EmptySelectionError
	)
	return errors.As(err, &ve) || errors.As(err, &pe) || errors.As(err, &ee)
}
