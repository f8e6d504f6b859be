// Package schedule turns a structured recurrence description (frequency plus
// time fields and day selectors) into a canonical five-field cron string.
//
// The package is pure: it has no I/O, no shared mutable state and never logs.
// It is responsible only for:
//   - validating each field against its domain
//   - building a frequency-specific Spec (only via validating constructors)
//   - compiling a Spec into "minute hour day-of-month month day-of-week"
//   - previewing upcoming fire times of a compiled Spec
//
// Execution of schedules is someone else's job.
package schedule
