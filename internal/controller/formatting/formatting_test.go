package formatting

import (
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRecurrence(t *testing.T) {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	count := 10

	tests := []struct {
		name    string
		pattern *model.RecurrencePattern
		want    string
	}{
		{"nil", nil, "однократно"},
		{"daily", &model.RecurrencePattern{Rule: model.Daily{}, Interval: 1}, "каждый день"},
		{"every two days", &model.RecurrencePattern{Rule: model.Daily{}, Interval: 2}, "раз в 2 дн."},
		{
			"weekly with days",
			&model.RecurrencePattern{Rule: model.Weekly{Weekdays: []time.Weekday{time.Monday, time.Wednesday}}, Interval: 1},
			"каждую неделю (Пн, Ср)",
		},
		{"monthly until", &model.RecurrencePattern{Rule: model.Monthly{}, Interval: 1, EndDate: &end}, "каждый месяц до 30.06.2024"},
		{"yearly count", &model.RecurrencePattern{Rule: model.Yearly{}, Interval: 1, MaxOccurrences: &count}, "каждый год, 10 раз"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRecurrence(tt.pattern))
		})
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "событие", PluralizeEvents(1))
	assert.Equal(t, "события", PluralizeEvents(3))
	assert.Equal(t, "событий", PluralizeEvents(11))
	assert.Equal(t, "событие", PluralizeEvents(21))
	assert.Equal(t, "занятий", PluralizeLessons(0))
	assert.Equal(t, "окна", PluralizeSlots(22))
}

func TestFormatOccurrence_EscapesHTML(t *testing.T) {
	o := model.Occurrence{
		Source:    model.SourceActivity,
		Title:     "Math <b>",
		StartTime: model.NewClock(9, 0),
		EndTime:   model.NewClock(10, 30),
		Priority:  model.PriorityHigh,
		Location:  "Room 1",
	}
	assert.Equal(t, "09:00-10:30 🔴 Math &lt;b&gt; 📍 Room 1", FormatOccurrence(o))

	o.Source = model.SourceLesson
	o.Location = ""
	o.Overridden = true
	assert.Equal(t, "09:00-10:30 📚 Math &lt;b&gt; ✏️", FormatOccurrence(o))
}

func TestFormatView(t *testing.T) {
	day := schedule.NewDate(2024, time.March, 4)
	occurrences := []model.Occurrence{
		{Source: model.SourceActivity, SourceID: 1, Title: "Бассейн", Date: day, OriginalDate: day,
			StartTime: model.NewClock(8, 0), EndTime: model.NewClock(9, 0), Priority: model.PriorityMedium},
		{Source: model.SourceLesson, SourceID: 2, Title: "Занятие", Date: day, OriginalDate: day,
			StartTime: model.NewClock(17, 0), EndTime: model.NewClock(18, 0)},
	}

	v, err := schedule.BuildView(occurrences, schedule.ViewDay, day)
	require.NoError(t, err)
	text := FormatView(v)
	assert.Contains(t, text, "Понедельник, 04.03.2024")
	assert.Contains(t, text, "2 события")
	assert.Contains(t, text, "<b>08:00</b>\n• 08:00-09:00 🟡 Бассейн")
	assert.Contains(t, text, "<b>17:00</b>\n• 17:00-18:00 📚 Занятие")

	v, err = schedule.BuildView(occurrences, schedule.ViewMonth, day)
	require.NoError(t, err)
	text = FormatView(v)
	assert.Contains(t, text, "Март 2024")
	assert.Contains(t, text, "<b>Пн 04.03</b>")

	v, err = schedule.BuildView(nil, schedule.ViewWeek, day)
	require.NoError(t, err)
	assert.Contains(t, FormatView(v), "Нет событий")
}

func TestFormatLesson(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	l := &model.Lesson{
		ID:              7,
		StartsAt:        time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
		Status:          model.LessonStatusConfirmed,
		Student:         &model.Child{Name: "Маша"},
	}

	text := FormatLesson(l, loc)
	assert.Contains(t, text, "✅ #7 Пн 04.03, 17:00")
	assert.Contains(t, text, "1 ч 30 мин • 👦 Маша")
	assert.Contains(t, text, "Подтверждено")
}
