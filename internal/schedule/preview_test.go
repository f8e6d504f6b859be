package schedule

import (
	"slices"
	"sync"
	"testing"
	"time"
)

func TestNextRunsDaily(t *testing.T) {
	t.Parallel()
	b := testBuilder()
	spec, err := NewDaily(30, 14)
	if err != nil {
		t.Fatalf("NewDaily error: %v", err)
	}
	runs, err := b.NextRuns(spec, fixedNow, 3)
	if err != nil {
		t.Fatalf("NextRuns error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, r := range runs {
		want := time.Date(2024, time.March, 1+i, 14, 30, 0, 0, time.UTC)
		if !r.Equal(want) {
			t.Fatalf("run %d = %v, want %v", i, r, want)
		}
	}
}

func TestNextRunsWeekly(t *testing.T) {
	t.Parallel()
	spec, err := NewWeekly(0, 9, 5, 1, 3)
	if err != nil {
		t.Fatalf("NewWeekly error: %v", err)
	}
	runs, err := testBuilder().NextRuns(spec, fixedNow, 3)
	if err != nil {
		t.Fatalf("NextRuns error: %v", err)
	}
	wantDays := []int{4, 6, 8} // Mon, Wed, Fri
	if len(runs) != len(wantDays) {
		t.Fatalf("expected %d runs, got %v", len(wantDays), runs)
	}
	for i, r := range runs {
		if r.Day() != wantDays[i] || r.Hour() != 9 || r.Minute() != 0 {
			t.Fatalf("run %d = %v", i, r)
		}
	}
}

func TestNextRunsOnce(t *testing.T) {
	t.Parallel()
	b := testBuilder()
	spec, err := b.NewOnce(Date{Year: 2024, Month: 3, Day: 5}, 0, 9)
	if err != nil {
		t.Fatalf("NewOnce error: %v", err)
	}
	runs, err := b.NextRuns(spec, fixedNow, 5)
	if err != nil {
		t.Fatalf("NextRuns error: %v", err)
	}
	if len(runs) != 1 || !runs[0].Equal(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected runs: %v", runs)
	}
	later := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	if runs, _ := b.NextRuns(spec, later, 5); len(runs) != 0 {
		t.Fatalf("expected no runs after the instant, got %v", runs)
	}
}

func TestNextRunsZeroCount(t *testing.T) {
	t.Parallel()
	spec, _ := NewHourly(0)
	runs, err := testBuilder().NextRuns(spec, fixedNow, 0)
	if err != nil || runs != nil {
		t.Fatalf("NextRuns(0) = %v, %v", runs, err)
	}
}

func TestParseExpressionRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, expr := range []string{"", "* * * *", "61 * * * *", "@hourly"} {
		if _, err := ParseExpression(expr); err == nil {
			t.Fatalf("expected error for %q", expr)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	weekly, _ := NewWeekly(0, 9, 5, 1, 3)
	daily, _ := NewDaily(30, 14)
	hourly, _ := NewHourly(15)
	monthly, _ := NewMonthly(0, 9, 1)
	once, _ := testBuilder().NewOnce(Date{Year: 2024, Month: 3, Day: 5}, 0, 9)
	tests := []struct {
		spec Spec
		want string
	}{
		{spec: weekly, want: "every Monday, Wednesday and Friday at 09:00"},
		{spec: daily, want: "every day at 14:30"},
		{spec: hourly, want: "every hour at minute 15"},
		{spec: monthly, want: "on day 1 of every month at 09:00"},
		{spec: once, want: "once on 2024-03-05 at 09:00"},
	}
	for _, tt := range tests {
		if got := Describe(tt.spec); got != tt.want {
			t.Fatalf("Describe = %q, want %q", got, tt.want)
		}
	}
}

func TestBuilderSharedAcrossGoroutines(t *testing.T) {
	t.Parallel()
	b := testBuilder()
	days := []int{5, 1, 3, 1}
	inputs := []struct {
		freq   string
		fields Fields
	}{
		{"hourly", Fields{Minute: Int(15)}},
		{"weekly", Fields{Minute: Int(0), Hour: Int(9), DaysOfWeek: days}},
		{"monthly", Fields{Minute: Int(30), Hour: Int(8), DayOfMonth: Int(31)}},
		{"once", Fields{RunDate: "2024-03-02", Minute: Int(0), Hour: Int(12)}},
	}

	type result struct {
		cron string
		runs []time.Time
	}
	want := make([]result, len(inputs))
	for i, in := range inputs {
		spec, err := b.ValidateAndBuild(in.freq, in.fields)
		if err != nil {
			t.Fatalf("%s: %v", in.freq, err)
		}
		runs, err := b.NextRuns(spec, fixedNow, 5)
		if err != nil {
			t.Fatalf("%s: %v", in.freq, err)
		}
		want[i] = result{cron: Compile(spec), runs: runs}
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < 50; iter++ {
				i := (g + iter) % len(inputs)
				spec, err := b.ValidateAndBuild(inputs[i].freq, inputs[i].fields)
				if err != nil {
					t.Errorf("%s: %v", inputs[i].freq, err)
					return
				}
				runs, err := b.NextRuns(spec, fixedNow, 5)
				if err != nil {
					t.Errorf("%s: %v", inputs[i].freq, err)
					return
				}
				if got := Compile(spec); got != want[i].cron {
					t.Errorf("%s: cron = %q, want %q", inputs[i].freq, got, want[i].cron)
				}
				if !slices.EqualFunc(runs, want[i].runs, time.Time.Equal) {
					t.Errorf("%s: runs = %v, want %v", inputs[i].freq, runs, want[i].runs)
				}
			}
		}()
	}
	wg.Wait()

	if !slices.Equal(days, []int{5, 1, 3, 1}) {
		t.Fatalf("caller's days mutated: %v", days)
	}
}
