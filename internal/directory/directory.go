// Package directory serves the dashboard's static sample data: employees,
// stat cards and the weekly task chart.
package directory

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Status of an employee.
type Status string

const (
	StatusActive     Status = "Active"
	StatusOnLeave    Status = "On Leave"
	StatusTerminated Status = "Terminated"
)

// StatusAll matches every status in FilterEmployees.
const StatusAll = "all"

type Employee struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   Status `json:"status"`
	Schedule string `json:"schedule"`
	Initials string `json:"initials"`
}

type ChangeType string

const (
	ChangeIncrease ChangeType = "increase"
	ChangeDecrease ChangeType = "decrease"
)

// Stat is one dashboard card.
type Stat struct {
	Title      string     `json:"title"`
	Value      string     `json:"value"`
	Change     string     `json:"change"`
	ChangeType ChangeType `json:"change_type"`
}

// WeekPoint is one bar pair of the completed/overdue chart.
type WeekPoint struct {
	Week      string `json:"week"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
}

var employees = []Employee{
	{ID: 1, Name: "Alice Johnson", Email: "alice@example.com", Role: "Manager", Status: StatusActive, Schedule: "Mon-Fri 9am-5pm"},
	{ID: 2, Name: "Bob Williams", Email: "bob@example.com", Role: "Developer", Status: StatusActive, Schedule: "Mon-Fri 10am-6pm"},
	{ID: 3, Name: "Charlie Brown", Email: "charlie@example.com", Role: "Designer", Status: StatusOnLeave, Schedule: "Tue-Sat 8am-4pm"},
	{ID: 4, Name: "Diana Miller", Email: "diana@example.com", Role: "Developer", Status: StatusActive, Schedule: "Mon-Fri 9am-5pm"},
	{ID: 5, Name: "Ethan Davis", Email: "ethan@example.com", Role: "QA Tester", Status: StatusTerminated, Schedule: "Mon-Fri 9am-5pm"},
	{ID: 6, Name: "Fiona Garcia", Email: "fiona@example.com", Role: "Developer", Status: StatusActive, Schedule: "Flexible"},
}

var stats = []Stat{
	{Title: "Completed Tasks", Value: "1,204", Change: "+12.5%", ChangeType: ChangeIncrease},
	{Title: "Schedule Adherence", Value: "92%", Change: "+2.1%", ChangeType: ChangeIncrease},
	{Title: "Overdue Tasks", Value: "12", Change: "-5.2%", ChangeType: ChangeDecrease},
	{Title: "Active Employees", Value: "48", Change: "+2", ChangeType: ChangeIncrease},
}

var chart = []WeekPoint{
	{Week: "Week 1", Completed: 186, Overdue: 80},
	{Week: "Week 2", Completed: 305, Overdue: 200},
	{Week: "Week 3", Completed: 237, Overdue: 120},
	{Week: "Week 4", Completed: 273, Overdue: 190},
	{Week: "Week 5", Completed: 209, Overdue: 130},
}

const keyMetrics = "Task Completion Rate: 85%, Schedule Adherence: 92%, Overdue Tasks: 12"

// KeyMetrics is the metric line handed to the insight model.
func KeyMetrics() string { return keyMetrics }

// Employees returns a copy of every employee with initials filled in.
func Employees() []Employee {
	return FilterEmployees("", StatusAll)
}

// FilterEmployees matches search case-insensitively against name or email,
// and status exactly. An empty status or "all" matches any status.
func FilterEmployees(search, status string) []Employee {
	q := strings.ToLower(strings.TrimSpace(search))
	status = strings.TrimSpace(status)
	out := make([]Employee, 0, len(employees))
	for _, e := range employees {
		if status != "" && !strings.EqualFold(status, StatusAll) && string(e.Status) != status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Name), q) && !strings.Contains(strings.ToLower(e.Email), q) {
			continue
		}
		e.Initials = Initials(e.Name)
		out = append(out, e)
	}
	return out
}

// Initials returns the first letters of the first two words of name, or the
// first two letters when name is a single word.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return string(r)
	default:
		a, _ := utf8.DecodeRuneInString(parts[0])
		b, _ := utf8.DecodeRuneInString(parts[1])
		return string([]rune{a, b})
	}
}

// AssignableEmployees returns the employees a task may be assigned to.
func AssignableEmployees() []Employee {
	return FilterEmployees("", string(StatusActive))
}

// FindAssignable resolves an assignee given by name (case-insensitive) or
// numeric id.
func FindAssignable(assignee string) (Employee, bool) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return Employee{}, false
	}
	for _, e := range AssignableEmployees() {
		if strings.EqualFold(e.Name, assignee) || strconv.Itoa(e.ID) == assignee {
			return e, true
		}
	}
	return Employee{}, false
}

func Stats() []Stat { return append([]Stat(nil), stats...) }

func Chart() []WeekPoint { return append([]WeekPoint(nil), chart...) }
