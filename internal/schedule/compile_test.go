package schedule

import (
	"strings"
	"testing"
)

func TestCompileEndToEnd(t *testing.T) {
	t.Parallel()
	b := testBuilder()
	tests := []struct {
		name string
		freq string
		f    Fields
		want string
	}{
		{name: "hourly", freq: "hourly", f: Fields{Minute: Int(15)}, want: "15 * * * *"},
		{name: "daily", freq: "daily", f: Fields{Minute: Int(30), Hour: Int(14)}, want: "30 14 * * *"},
		{name: "once", freq: "once", f: Fields{RunDate: "2024-03-05", Minute: Int(0), Hour: Int(9)}, want: "0 9 5 3 *"},
		{name: "monthly", freq: "monthly", f: Fields{Minute: Int(0), Hour: Int(9), DayOfMonth: Int(1)}, want: "0 9 1 * *"},
		{name: "weekly", freq: "weekly", f: Fields{Minute: Int(0), Hour: Int(9), DaysOfWeek: []int{5, 1, 3}}, want: "0 9 * * 1,3,5"},
		{name: "weekly dup", freq: "weekly", f: Fields{Minute: Int(5), Hour: Int(0), DaysOfWeek: []int{6, 0, 6, 0}}, want: "5 0 * * 0,6"},
		{name: "once december", freq: "once", f: Fields{RunDate: "2024-12-31", Minute: Int(59), Hour: Int(23)}, want: "59 23 31 12 *"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec, err := b.ValidateAndBuild(tt.freq, tt.f)
			if err != nil {
				t.Fatalf("ValidateAndBuild error: %v", err)
			}
			got := Compile(spec)
			if got != tt.want {
				t.Fatalf("Compile = %q, want %q", got, tt.want)
			}
			if n := len(strings.Fields(got)); n != 5 {
				t.Fatalf("expected 5 fields, got %d", n)
			}
			if _, err := ParseExpression(got); err != nil {
				t.Fatalf("compiled expression rejected by cron parser: %v", err)
			}
		})
	}
}

func TestCompileWeeklyCanonical(t *testing.T) {
	t.Parallel()
	a, err := NewWeekly(0, 9, 5, 1, 3)
	if err != nil {
		t.Fatalf("NewWeekly error: %v", err)
	}
	b, err := NewWeekly(0, 9, 1, 3, 5)
	if err != nil {
		t.Fatalf("NewWeekly error: %v", err)
	}
	if a != b {
		t.Fatalf("equal day sets built different specs: %v vs %v", a.DaysOfWeek(), b.DaysOfWeek())
	}
	if Compile(a) != Compile(b) || !strings.HasSuffix(Compile(a), " 1,3,5") {
		t.Fatalf("non-canonical output: %q vs %q", Compile(a), Compile(b))
	}
}

func TestCompileDeterministic(t *testing.T) {
	t.Parallel()
	spec, err := NewMonthly(0, 9, 1)
	if err != nil {
		t.Fatalf("NewMonthly error: %v", err)
	}
	first := Compile(spec)
	for i := 0; i < 100; i++ {
		if got := Compile(spec); got != first {
			t.Fatalf("Compile changed between calls: %q vs %q", got, first)
		}
	}
	if first != "0 9 1 * *" {
		t.Fatalf("Compile = %q", first)
	}
}

func TestCompileNil(t *testing.T) {
	t.Parallel()
	if got := Compile(nil); got != "" {
		t.Fatalf("Compile(nil) = %q", got)
	}
}

func TestConstructors(t *testing.T) {
	t.Parallel()
	h, err := NewHourly(15)
	if err != nil || Compile(h) != "15 * * * *" {
		t.Fatalf("NewHourly = %q, %v", Compile(h), err)
	}
	d, err := NewDaily(30, 14)
	if err != nil || Compile(d) != "30 14 * * *" {
		t.Fatalf("NewDaily = %q, %v", Compile(d), err)
	}
	if _, err := NewDaily(60, 14); err == nil {
		t.Fatal("NewDaily accepted minute 60")
	}
	if _, err := NewMonthly(0, 0, 0); err == nil {
		t.Fatal("NewMonthly accepted day 0")
	}
	if _, err := NewHourly(-1); err == nil {
		t.Fatal("NewHourly accepted -1")
	}
	o, err := testBuilder().NewOnce(Date{Year: 2024, Month: 3, Day: 5}, 0, 9)
	if err != nil || Compile(o) != "0 9 5 3 *" {
		t.Fatalf("NewOnce = %q, %v", Compile(o), err)
	}
	if _, err := testBuilder().NewOnce(Date{}, 0, 9); err == nil {
		t.Fatal("NewOnce accepted zero date")
	}
}
