package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/export"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	outDir   string
	date     string
	timezone string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "render_week",
		Short: "Render a demo family week as week.png and week.ics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "any date of the week to render, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.timezone, "tz", "Europe/Moscow", "schedule timezone")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	now := time.Now().In(loc)
	ref := schedule.DateOf(now)
	if opts.date != "" {
		if ref, err = schedule.ParseDate(opts.date); err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
	}

	d := newDemo(schedule.WeekStart(ref), loc)
	weekStart, weekEnd := schedule.ViewWeek.Window(ref)

	var occurrences []model.Occurrence
	expander := schedule.NewExpander(366)
	for _, a := range d.activities {
		occ, err := expander.MaterializeActivity(a, d.overrides[a.ID], weekStart, weekEnd)
		if err != nil {
			return fmt.Errorf("materialize activity %d: %w", a.ID, err)
		}
		occurrences = append(occurrences, occ...)
	}
	for _, l := range d.lessons {
		occ, err := expander.MaterializeLesson(l, loc, weekStart, weekEnd)
		if err != nil {
			return fmt.Errorf("materialize lesson %d: %w", l.ID, err)
		}
		occurrences = append(occurrences, occ...)
	}

	view, err := schedule.BuildView(occurrences, schedule.ViewWeek, ref)
	if err != nil {
		return err
	}
	png, err := export.RenderWeek(view, now)
	if err != nil {
		return err
	}

	b := export.NewCalendarBuilder("Демо", loc, now)
	for _, a := range d.activities {
		if err := b.AddActivity(a, d.overrides[a.ID]); err != nil {
			return fmt.Errorf("export activity %d: %w", a.ID, err)
		}
	}
	for _, l := range d.lessons {
		if err := b.AddLesson(l); err != nil {
			return fmt.Errorf("export lesson %d: %w", l.ID, err)
		}
	}
	ics, err := export.Encode(b.Calendar())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for name, data := range map[string][]byte{"week.png": png, "week.ics": ics} {
		path := filepath.Join(opts.outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", path, len(data))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d occurrences, week %s\n", view.Count(), schedule.FormatDate(weekStart))

	return nil
}
