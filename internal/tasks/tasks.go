// Package tasks validates task submissions and compiles their recurrence.
// Scheduled tasks are returned to the caller and announced on the event
// bus; nothing is persisted or executed.
package tasks

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"taskmate/internal/directory"
	"taskmate/internal/eventbus"
	"taskmate/internal/metrics"
	"taskmate/internal/schedule"
	logx "taskmate/pkg/logx"
)

const (
	MinNameLen = 2
	MaxNameLen = 50
)

// Field names reported for task-level problems.
const (
	FieldTaskName    = "task_name"
	FieldAssignee    = "assignee"
	FieldDescription = "description"
)

const maxDescriptionLen = 2000

// Request is the task form.
type Request struct {
	TaskName    string          `json:"task_name"`
	Assignee    string          `json:"assignee"`
	Description string          `json:"description,omitempty"`
	Frequency   string          `json:"frequency"`
	Schedule    schedule.Fields `json:"schedule"`
}

// ScheduledTask is an accepted submission.
type ScheduledTask struct {
	ID          string             `json:"id"`
	TaskName    string             `json:"task_name"`
	Assignee    directory.Employee `json:"assignee"`
	Description string             `json:"description,omitempty"`
	Frequency   string             `json:"frequency"`
	Cron        string             `json:"cron"`
	Summary     string             `json:"summary"`
	NextRun     *time.Time         `json:"next_run,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Invalid reports every problem of a rejected submission, task fields first,
// then the recurrence problems.
type Invalid struct {
	Problems []schedule.FieldError
	// Schedule is the recurrence build error, if any. It keeps the typed
	// schedule errors reachable through errors.As.
	Schedule error
}

func (e *Invalid) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Error())
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

func (e *Invalid) Unwrap() error { return e.Schedule }

// BuilderSource yields the current schedule builder. The app swaps builders
// on config reload.
type BuilderSource func() schedule.Builder

type Service struct {
	builder BuilderSource
	bus     eventbus.Bus
	metrics *metrics.Metrics
	log     logx.Logger
	now     func() time.Time
}

func NewService(builder BuilderSource, bus eventbus.Bus, m *metrics.Metrics, log logx.Logger) *Service {
	if builder == nil {
		b := schedule.NewBuilder()
		builder = func() schedule.Builder { return b }
	}
	if bus == nil {
		bus = eventbus.Nop
	}
	return &Service{builder: builder, bus: bus, metrics: m, log: log.With(logx.String("comp", "tasks")), now: time.Now}
}

// Submit validates req and compiles its schedule. All task and recurrence
// problems are returned together as *Invalid.
func (s *Service) Submit(ctx context.Context, req Request) (ScheduledTask, error) {
	if err := ctx.Err(); err != nil {
		return ScheduledTask{}, err
	}
	var problems []schedule.FieldError
	add := func(field, constraint string) {
		problems = append(problems, schedule.FieldError{Field: field, Constraint: constraint})
	}

	name := strings.TrimSpace(req.TaskName)
	if n := utf8.RuneCountInString(name); n < MinNameLen || n > MaxNameLen {
		add(FieldTaskName, "must be between 2 and 50 characters")
	}
	var assignee directory.Employee
	switch a := strings.TrimSpace(req.Assignee); {
	case a == "":
		add(FieldAssignee, "is required")
	default:
		e, ok := directory.FindAssignable(a)
		if !ok {
			add(FieldAssignee, "must be an active employee")
		}
		assignee = e
	}
	desc := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		add(FieldDescription, "must be at most 2000 characters")
	}

	b := s.builder()
	spec, schedErr := b.ValidateAndBuild(req.Frequency, req.Schedule)
	if schedErr != nil {
		problems = append(problems, schedule.Problems(schedErr)...)
	}
	if len(problems) > 0 {
		s.metrics.ObserveScheduleBuild(req.Frequency, buildResult(schedErr))
		s.metrics.ObserveTaskSubmission(metrics.ResultInvalid)
		return ScheduledTask{}, &Invalid{Problems: problems, Schedule: schedErr}
	}
	s.metrics.ObserveScheduleBuild(req.Frequency, metrics.ResultOK)

	now := s.now()
	task := ScheduledTask{
		ID:          uuid.NewString(),
		TaskName:    name,
		Assignee:    assignee,
		Description: desc,
		Frequency:   spec.Frequency().String(),
		Cron:        schedule.Compile(spec),
		Summary:     schedule.Describe(spec),
		CreatedAt:   now,
	}
	if runs, err := b.NextRuns(spec, now, 1); err == nil && len(runs) == 1 {
		next := runs[0]
		task.NextRun = &next
	} else if err != nil {
		s.log.Warn("next run preview failed", logx.String("cron", task.Cron), logx.Err(err))
	}

	s.metrics.ObserveTaskSubmission(metrics.ResultOK)
	s.bus.Publish(eventbus.Event{Type: eventbus.TaskScheduled, Time: now, Data: task})
	s.log.Info("task scheduled",
		logx.String("id", task.ID),
		logx.String("task", task.TaskName),
		logx.String("assignee", assignee.Name),
		logx.String("cron", task.Cron),
	)
	return task, nil
}

func buildResult(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	return metrics.ResultInvalid
}

// IsInvalid reports whether err is a rejected submission.
func IsInvalid(err error) bool {
	var inv *Invalid
	return errors.As(err, &inv)
}
