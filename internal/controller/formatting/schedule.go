package formatting

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
)

// FormatRecurrence описывает правило повторения по-русски
func FormatRecurrence(p *model.RecurrencePattern) string {
	if p == nil || p.Rule == nil {
		return "однократно"
	}

	every := max(p.Interval, 1)
	var text string
	switch p.Frequency() {
	case model.FrequencyDaily:
		text = everyN(every, "каждый день", "дн.")
	case model.FrequencyWeekly:
		text = everyN(every, "каждую неделю", "нед.")
		if days := p.Weekdays(); len(days) > 0 {
			names := make([]string, len(days))
			for i, d := range days {
				names[i] = GetWeekdayShortName(d)
			}
			text += " (" + strings.Join(names, ", ") + ")"
		}
	case model.FrequencyMonthly:
		text = everyN(every, "каждый месяц", "мес.")
	case model.FrequencyYearly:
		text = everyN(every, "каждый год", "г.")
	}

	if p.EndDate != nil {
		text += " до " + FormatDate(*p.EndDate)
	}
	if p.MaxOccurrences != nil {
		text += fmt.Sprintf(", %d раз", *p.MaxOccurrences)
	}
	return text
}

func everyN(n int, single, unit string) string {
	if n == 1 {
		return single
	}
	return fmt.Sprintf("раз в %d %s", n, unit)
}

// FormatOccurrence форматирует одно вхождение строкой списка
func FormatOccurrence(o model.Occurrence) string {
	icon := GetPriorityEmoji(o.Priority)
	if o.Source == model.SourceLesson {
		icon = "📚"
	}

	line := fmt.Sprintf("%s %s %s", FormatClockRange(o.StartTime, o.EndTime), icon, html.EscapeString(o.Title))
	if o.Location != "" {
		line += " 📍 " + html.EscapeString(o.Location)
	}
	if o.Overridden {
		line += " ✏️"
	}
	return line
}

// FormatView форматирует вид расписания текстом (HTML)
func FormatView(v *schedule.View) string {
	var sb strings.Builder

	switch v.Mode {
	case schedule.ViewDay:
		fmt.Fprintf(&sb, "📅 <b>%s, %s</b>\n", GetWeekdayName(v.Reference.Weekday()), FormatDate(v.Reference))
	case schedule.ViewWeek:
		fmt.Fprintf(&sb, "🗓 <b>Неделя %s - %s</b>\n", v.WindowStart.Format("02.01"), FormatDate(v.WindowEnd))
	case schedule.ViewMonth:
		fmt.Fprintf(&sb, "🗓 <b>%s %d</b>\n", GetMonthName(v.Reference.Month()), v.Reference.Year())
	}

	count := v.Count()
	if count == 0 {
		sb.WriteString("\nНет событий")
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d %s\n", count, PluralizeEvents(count))

	if v.Mode == schedule.ViewDay {
		day := v.Days[0]
		for _, bucket := range day.Hours {
			if len(bucket.Occurrences) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "\n<b>%02d:00</b>\n", bucket.Hour)
			for _, o := range bucket.Occurrences {
				sb.WriteString("• " + FormatOccurrence(o) + "\n")
			}
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	for _, day := range v.Days {
		if !day.InWindow || len(day.Occurrences) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", FormatDateWithWeekday(day.Date))
		for _, o := range day.Occurrences {
			sb.WriteString("• " + FormatOccurrence(o) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatActivity форматирует активность для списка
func FormatActivity(a *model.ScheduleActivity) string {
	text := fmt.Sprintf("%s <b>%s</b>\n   %s %s, %s",
		GetPriorityEmoji(a.Priority),
		html.EscapeString(a.Title),
		FormatDate(a.Date),
		FormatClockRange(a.StartTime, a.EndTime),
		FormatRecurrence(a.Recurrence),
	)
	if a.ActivityType != nil {
		text += "\n   " + a.ActivityType.Icon + " " + html.EscapeString(a.ActivityType.Name)
	}
	if a.Location != "" {
		text += "\n   📍 " + html.EscapeString(a.Location)
	}
	if n := len(a.Reminders); n > 0 {
		text += fmt.Sprintf("\n   🔔 за %s", FormatDuration(a.Reminders[0].MinutesBefore))
	}
	return text
}

// FormatLesson форматирует занятие в локации loc
func FormatLesson(l *model.Lesson, loc *time.Location) string {
	status := GetLessonStatusDisplay(l.Status)
	startsAt := l.StartsAt.In(loc)

	text := fmt.Sprintf("%s #%d %s, %s\n   %s",
		status.Emoji,
		l.ID,
		FormatDateWithWeekday(startsAt),
		startsAt.Format("15:04"),
		FormatDuration(l.DurationMinutes),
	)
	if l.Student != nil {
		text += " • 👦 " + html.EscapeString(l.Student.Name)
	}
	if l.Tutor != nil {
		text += " • 🎓 " + html.EscapeString(l.Tutor.DisplayName())
	}
	if l.Recurrence != nil {
		text += "\n   🔁 " + FormatRecurrence(l.Recurrence)
	}
	text += "\n   " + status.Text
	return text
}

// FormatSlot форматирует окно доступности
func FormatSlot(s model.ScheduleSlot) string {
	mark := "🟢"
	if !s.IsAvailable {
		mark = "⏸"
	}
	return fmt.Sprintf("%s %s %s", mark, GetWeekdayName(s.Weekday), FormatClockRange(s.StartTime, s.EndTime))
}
