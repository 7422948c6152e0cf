package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//tutor_scheduler//Schedule//RU"

// uidNamespace пространство имён для детерминированных UID событий
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("tutor-scheduler"))

// CalendarBuilder собирает iCalendar из активностей и занятий.
// Серия становится одним VEVENT с RRULE, отменённые вхождения уходят в EXDATE,
// изменённые - в отдельные VEVENT с RECURRENCE-ID.
type CalendarBuilder struct {
	cal *ical.Calendar
	loc *time.Location
	now time.Time
}

func NewCalendarBuilder(name string, loc *time.Location, now time.Time) *CalendarBuilder {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}
	return &CalendarBuilder{cal: cal, loc: loc, now: now.UTC()}
}

// ActivityUID UID события активности. Не меняется между выгрузками.
func ActivityUID(activityID int64) string {
	return uuid.NewSHA1(uidNamespace, []byte("activity:"+strconv.FormatInt(activityID, 10))).String()
}

// LessonUID UID события занятия
func LessonUID(lessonID int64) string {
	return uuid.NewSHA1(uidNamespace, []byte("lesson:"+strconv.FormatInt(lessonID, 10))).String()
}

// AddActivity добавляет активность с её правками
func (b *CalendarBuilder) AddActivity(a *model.ScheduleActivity, overrides []model.OccurrenceOverride) error {
	uid := ActivityUID(a.ID)
	date := schedule.DateOf(a.Date)

	if !a.IsRecurring || a.Recurrence == nil {
		day, start, end, title, location := date, a.StartTime, a.EndTime, a.Title, a.Location
		for _, ov := range overrides {
			if ov.ActivityID != a.ID || !schedule.DateOf(ov.OriginalDate).Equal(date) {
				continue
			}
			if ov.IsCancelled {
				return nil
			}
			day, start, end, title, location = applyOverride(day, start, end, title, location, ov)
		}
		ev := b.event(uid, title, location, a.Description, day, start, end)
		b.cal.Children = append(b.cal.Children, ev.Component)
		return nil
	}

	opt, err := RecurrenceOption(*a.Recurrence, date, a.StartTime, b.loc)
	if err != nil {
		return fmt.Errorf("activity %d recurrence: %w", a.ID, err)
	}

	first := schedule.DateOf(opt.Dtstart)
	master := b.event(uid, a.Title, a.Location, a.Description, first, a.StartTime, a.EndTime)
	master.Props.SetRecurrenceRule(&opt)

	var modified []*ical.Event
	for _, ov := range overrides {
		if ov.ActivityID != a.ID {
			continue
		}
		original := a.StartTime.On(inLocation(ov.OriginalDate, b.loc))
		if ov.IsCancelled {
			exdate := ical.NewProp(ical.PropExceptionDates)
			exdate.SetDateTime(original)
			master.Props.Add(exdate)
			continue
		}

		day, start, end, title, location := applyOverride(schedule.DateOf(ov.OriginalDate), a.StartTime, a.EndTime, a.Title, a.Location, ov)
		ev := b.event(uid, title, location, a.Description, day, start, end)
		ev.Props.SetDateTime(ical.PropRecurrenceID, original)
		modified = append(modified, ev)
	}

	b.cal.Children = append(b.cal.Children, master.Component)
	for _, ev := range modified {
		b.cal.Children = append(b.cal.Children, ev.Component)
	}
	return nil
}

// AddLesson добавляет занятие. Отменённые занятия пропускаются.
func (b *CalendarBuilder) AddLesson(l *model.Lesson) error {
	if !l.Occupies() {
		return nil
	}

	title := "Занятие"
	if l.Student != nil && l.Student.Name != "" {
		title += ": " + l.Student.Name
	}
	location := l.Location
	if location == "" {
		location = l.MeetingLink
	}

	local := l.StartsAt.In(b.loc)
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, LessonUID(l.ID))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, b.now)
	ev.Props.SetText(ical.PropSummary, title)
	if location != "" {
		ev.Props.SetText(ical.PropLocation, location)
	}
	if l.Notes != "" {
		ev.Props.SetText(ical.PropDescription, l.Notes)
	}

	if l.Recurrence != nil {
		opt, err := RecurrenceOption(*l.Recurrence, schedule.DateOf(local), model.ClockOf(local), b.loc)
		if err != nil {
			return fmt.Errorf("lesson %d recurrence: %w", l.ID, err)
		}
		local = opt.Dtstart
		ev.Props.SetRecurrenceRule(&opt)
	}

	ev.Props.SetDateTime(ical.PropDateTimeStart, local)
	ev.Props.SetDateTime(ical.PropDateTimeEnd, local.Add(time.Duration(l.DurationMinutes)*time.Minute))

	b.cal.Children = append(b.cal.Children, ev.Component)
	return nil
}

// Calendar собранный календарь
func (b *CalendarBuilder) Calendar() *ical.Calendar {
	return b.cal
}

// Encode сериализует календарь в формат .ics
func Encode(cal *ical.Calendar) ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *CalendarBuilder) event(uid, title, location, description string, date time.Time, start, end model.Clock) *ical.Event {
	day := inLocation(date, b.loc)

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, b.now)
	ev.Props.SetText(ical.PropSummary, title)
	ev.Props.SetDateTime(ical.PropDateTimeStart, start.On(day))
	ev.Props.SetDateTime(ical.PropDateTimeEnd, end.On(day))
	if location != "" {
		ev.Props.SetText(ical.PropLocation, location)
	}
	if description != "" {
		ev.Props.SetText(ical.PropDescription, description)
	}
	return ev
}

func applyOverride(date time.Time, start, end model.Clock, title, location string, ov model.OccurrenceOverride) (time.Time, model.Clock, model.Clock, string, string) {
	if ov.Date != nil {
		date = schedule.DateOf(*ov.Date)
	}
	if ov.StartTime != nil {
		start = *ov.StartTime
	}
	if ov.EndTime != nil {
		end = *ov.EndTime
	}
	if ov.Title != nil {
		title = *ov.Title
	}
	if ov.Location != nil {
		location = *ov.Location
	}
	return date, start, end, title, location
}
