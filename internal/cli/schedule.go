package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskmate/internal/schedule"
)

type scheduleFlags struct {
	frequency  string
	runDate    string
	minute     int
	hour       int
	days       []int
	dayOfMonth int
	timezone   string
	next       int
}

func scheduleCmd() *cobra.Command {
	var f scheduleFlags
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Validate recurrence input and print its cron expression",
		Example: `  taskmate schedule --frequency weekly --minute 30 --hour 9 --days 1,3,5
  taskmate schedule --frequency once --run-date 2030-01-02 --minute 0 --hour 8 --next 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields := schedule.Fields{RunDate: f.runDate, DaysOfWeek: f.days}
			if cmd.Flags().Changed("minute") {
				fields.Minute = schedule.Int(f.minute)
			}
			if cmd.Flags().Changed("hour") {
				fields.Hour = schedule.Int(f.hour)
			}
			if cmd.Flags().Changed("day-of-month") {
				fields.DayOfMonth = schedule.Int(f.dayOfMonth)
			}
			return runSchedule(cmd.OutOrStdout(), f, fields, time.Now)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.frequency, "frequency", "f", "", "once, hourly, daily, weekly or monthly")
	fl.StringVar(&f.runDate, "run-date", "", "run date for once (YYYY-MM-DD)")
	fl.IntVar(&f.minute, "minute", 0, "minute 0-59")
	fl.IntVar(&f.hour, "hour", 0, "hour 0-23")
	fl.IntSliceVar(&f.days, "days", nil, "weekdays 0-6 (0 = Sunday), comma separated")
	fl.IntVar(&f.dayOfMonth, "day-of-month", 0, "day of month 1-31")
	fl.StringVar(&f.timezone, "tz", "", "IANA time zone (default local)")
	fl.IntVar(&f.next, "next", 0, "also print the next N run times")
	return cmd
}

func runSchedule(w io.Writer, f scheduleFlags, fields schedule.Fields, now func() time.Time) error {
	loc := time.Local
	if tz := strings.TrimSpace(f.timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("--tz: %w", err)
		}
		loc = l
	}
	b := schedule.NewBuilder(schedule.WithClock(now), schedule.WithLocation(loc))
	spec, err := b.ValidateAndBuild(f.frequency, fields)
	if err != nil {
		if problems := schedule.Problems(err); len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(w, "  %s: %s\n", p.Field, p.Constraint)
			}
		}
		return err
	}

	fmt.Fprintln(w, schedule.Compile(spec))
	fmt.Fprintln(w, schedule.Describe(spec))
	if f.next > 0 {
		runs, err := b.NextRuns(spec, now(), f.next)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintln(w, r.Format(time.RFC3339))
		}
	}
	return nil
}
