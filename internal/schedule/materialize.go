package schedule

import (
	"cmp"
	"slices"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// MaterializeActivity вхождения активности в окне [windowStart, windowEnd] с учётом правок.
// Правка может перенести вхождение в окно из-за его пределов и обратно.
func (e *Expander) MaterializeActivity(a *model.ScheduleActivity, overrides []model.OccurrenceOverride, windowStart, windowEnd time.Time) ([]model.Occurrence, error) {
	windowStart, windowEnd = DateOf(windowStart), DateOf(windowEnd)
	if err := validateClocks(a.StartTime, a.EndTime); err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]model.OccurrenceOverride, len(overrides))
	for _, ov := range overrides {
		if ov.ActivityID == a.ID {
			byDate[DateOf(ov.OriginalDate)] = ov
		}
	}

	dates, err := e.activityDates(a, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	var out []model.Occurrence
	seen := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		seen[d] = true
		o := activityOccurrence(a, d)
		if ov, ok := byDate[d]; ok {
			if ov.IsCancelled {
				continue
			}
			o = applyOverride(o, ov)
		}
		if inWindow(o.Date, windowStart, windowEnd) {
			out = append(out, o)
		}
	}

	for original, ov := range byDate {
		if seen[original] || ov.IsCancelled || ov.Date == nil || !inWindow(DateOf(*ov.Date), windowStart, windowEnd) {
			continue
		}
		ok, err := e.activityOccurs(a, original)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, applyOverride(activityOccurrence(a, original), ov))
		}
	}

	SortOccurrences(out)
	return out, nil
}

// MaterializeLesson вхождения занятия в окне. Отменённые занятия время не занимают.
// Занятие, переходящее через полночь, обрезается концом суток.
func (e *Expander) MaterializeLesson(l *model.Lesson, loc *time.Location, windowStart, windowEnd time.Time) ([]model.Occurrence, error) {
	if !l.Occupies() {
		return nil, nil
	}
	if l.DurationMinutes <= 0 {
		return nil, NewValidationError("duration_minutes", "duration must be positive")
	}
	windowStart, windowEnd = DateOf(windowStart), DateOf(windowEnd)

	local := l.StartsAt.In(loc)
	anchor := DateOf(local)
	start := model.ClockOf(local)
	end := min(start+model.Clock(l.DurationMinutes), model.MinutesPerDay)

	var dates []time.Time
	if l.Recurrence == nil {
		if inWindow(anchor, windowStart, windowEnd) {
			dates = append(dates, anchor)
		}
	} else {
		var err error
		if dates, err = e.ExpandAll(*l.Recurrence, anchor, windowStart, windowEnd); err != nil {
			return nil, err
		}
	}

	title := ""
	if l.Student != nil {
		title = l.Student.Name
	}
	out := make([]model.Occurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, model.Occurrence{
			Source:       model.SourceLesson,
			SourceID:     l.ID,
			OwnerID:      l.TutorID,
			Title:        title,
			Date:         d,
			OriginalDate: d,
			StartTime:    start,
			EndTime:      end,
			Location:     lessonLocation(l),
		})
	}
	return out, nil
}

// SortOccurrences упорядочивает по дате, времени начала, затем по идентификатору источника
func SortOccurrences(occurrences []model.Occurrence) {
	slices.SortStableFunc(occurrences, compareOccurrences)
}

func compareOccurrences(a, b model.Occurrence) int {
	return cmp.Or(
		a.Date.Compare(b.Date),
		cmp.Compare(a.StartTime, b.StartTime),
		cmp.Compare(a.SourceID, b.SourceID),
		cmp.Compare(a.Source, b.Source),
		a.OriginalDate.Compare(b.OriginalDate),
	)
}

func (e *Expander) activityDates(a *model.ScheduleActivity, windowStart, windowEnd time.Time) ([]time.Time, error) {
	if a.IsRecurring {
		if a.Recurrence == nil {
			return nil, NewValidationError("recurrence", "recurring activity has no recurrence pattern")
		}
		return e.ExpandAll(*a.Recurrence, a.Date, windowStart, windowEnd)
	}
	if d := DateOf(a.Date); inWindow(d, windowStart, windowEnd) {
		return []time.Time{d}, nil
	}
	return nil, nil
}

func (e *Expander) activityOccurs(a *model.ScheduleActivity, date time.Time) (bool, error) {
	if !a.IsRecurring || a.Recurrence == nil {
		return DateOf(a.Date).Equal(date), nil
	}
	return e.Occurs(*a.Recurrence, a.Date, date)
}

func activityOccurrence(a *model.ScheduleActivity, date time.Time) model.Occurrence {
	return model.Occurrence{
		Source:       model.SourceActivity,
		SourceID:     a.ID,
		OwnerID:      a.ChildID,
		Title:        a.Title,
		Date:         date,
		OriginalDate: date,
		StartTime:    a.StartTime,
		EndTime:      a.EndTime,
		Location:     a.Location,
		Priority:     a.Priority,
		Reminders:    a.Reminders,
	}
}

func applyOverride(o model.Occurrence, ov model.OccurrenceOverride) model.Occurrence {
	if ov.Date != nil {
		o.Date = DateOf(*ov.Date)
	}
	if ov.StartTime != nil {
		o.StartTime = *ov.StartTime
	}
	if ov.EndTime != nil {
		o.EndTime = *ov.EndTime
	}
	if ov.Title != nil {
		o.Title = *ov.Title
	}
	if ov.Location != nil {
		o.Location = *ov.Location
	}
	o.Overridden = true
	return o
}

func lessonLocation(l *model.Lesson) string {
	if l.Location != "" {
		return l.Location
	}
	return l.MeetingLink
}

func inWindow(d, windowStart, windowEnd time.Time) bool {
	return !d.Before(windowStart) && !d.After(windowEnd)
}
