package schedule

import "testing"

func TestValidMinuteDomain(t *testing.T) {
	t.Parallel()
	for v := -120; v <= 120; v++ {
		want := v >= 0 && v <= 59
		if got := ValidMinute(v); got != want {
			t.Fatalf("ValidMinute(%d) = %v, want %v", v, got, want)
		}
	}
}

func TestFieldValidators(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		fn   func(int) bool
		ok   []int
		bad  []int
	}{
		{name: "hour", fn: ValidHour, ok: []int{0, 12, 23}, bad: []int{-1, 24, 100}},
		{name: "day of month", fn: ValidDayOfMonth, ok: []int{1, 15, 31}, bad: []int{0, 32, -5}},
		{name: "weekday", fn: ValidWeekday, ok: []int{0, 3, 6}, bad: []int{-1, 7}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, v := range tt.ok {
				if !tt.fn(v) {
					t.Fatalf("%s rejected %d", tt.name, v)
				}
			}
			for _, v := range tt.bad {
				if tt.fn(v) {
					t.Fatalf("%s accepted %d", tt.name, v)
				}
			}
		})
	}
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()
	for _, f := range Frequencies() {
		got, err := ParseFrequency(" " + f.String() + " ")
		if err != nil {
			t.Fatalf("ParseFrequency(%q) error: %v", f.String(), err)
		}
		if got != f {
			t.Fatalf("ParseFrequency(%q) = %v, want %v", f.String(), got, f)
		}
	}
	if got, err := ParseFrequency("WEEKLY"); err != nil || got != FrequencyWeekly {
		t.Fatalf("ParseFrequency(WEEKLY) = %v, %v", got, err)
	}
	if _, err := ParseFrequency("fortnightly"); err == nil {
		t.Fatal("expected error for unknown frequency")
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	d, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.Year != 2024 || d.Month != 3 || d.Day != 5 {
		t.Fatalf("unexpected date: %+v", d)
	}
	if d.String() != "2024-03-05" {
		t.Fatalf("String() = %s", d.String())
	}
	for _, raw := range []string{"", "2024-02-30", "05/03/2024", "2024-13-01"} {
		if _, err := ParseDate(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
