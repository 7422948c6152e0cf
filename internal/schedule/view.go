package schedule

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
)

const (
	// DayViewFirstHour и DayViewLastHour границы почасовой сетки дневного вида.
	// Вхождения раньше первой сетки попадают в первую ячейку, позже - в последнюю.
	DayViewFirstHour = 6
	DayViewLastHour  = 22

	monthGridDays = 42
)

// ParseViewMode разбирает режим отображения
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ViewDay, ViewWeek, ViewMonth:
		return m, nil
	default:
		return "", NewValidationError("mode", fmt.Sprintf("unknown view mode %q", s))
	}
}

// Window окно режима для опорной даты: день, неделя Пн-Вс или календарный месяц
func (m ViewMode) Window(ref time.Time) (time.Time, time.Time) {
	switch m {
	case ViewWeek:
		return WeekStart(ref), WeekEnd(ref)
	case ViewMonth:
		return MonthStart(ref), MonthEnd(ref)
	default:
		d := DateOf(ref)
		return d, d
	}
}

// Grid сетка отображения. Для месяца - 42 дня с понедельника на или до первого числа.
func (m ViewMode) Grid(ref time.Time) (time.Time, time.Time) {
	if m == ViewMonth {
		start := WeekStart(MonthStart(ref))
		return start, start.AddDate(0, 0, monthGridDays-1)
	}
	return m.Window(ref)
}

// Shift сдвигает опорную дату на n окон
func (m ViewMode) Shift(ref time.Time, n int) time.Time {
	switch m {
	case ViewWeek:
		return WeekStart(ref).AddDate(0, 0, 7*n)
	case ViewMonth:
		return addMonthsClamped(MonthStart(ref), n)
	default:
		return DateOf(ref).AddDate(0, 0, n)
	}
}

type HourBucket struct {
	Hour        int
	Occurrences []model.Occurrence
}

// DayBucket вхождения одного дня сетки. Дни соседних месяцев в сетке месяца пустые.
type DayBucket struct {
	Date        time.Time
	InWindow    bool
	Occurrences []model.Occurrence
	Hours       []HourBucket // только для дневного вида
}

type View struct {
	Mode        ViewMode
	Reference   time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	GridStart   time.Time
	GridEnd     time.Time
	Days        []DayBucket
}

// BuildView раскладывает уже развёрнутые вхождения по ячейкам вида.
// Внутри ячейки порядок: время начала, затем идентификатор источника.
func BuildView(occurrences []model.Occurrence, mode ViewMode, ref time.Time) (*View, error) {
	if _, err := ParseViewMode(string(mode)); err != nil {
		return nil, err
	}

	ref = DateOf(ref)
	windowStart, windowEnd := mode.Window(ref)
	gridStart, gridEnd := mode.Grid(ref)

	v := &View{
		Mode:        mode,
		Reference:   ref,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		GridStart:   gridStart,
		GridEnd:     gridEnd,
	}

	index := make(map[time.Time]int)
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		index[d] = len(v.Days)
		v.Days = append(v.Days, DayBucket{Date: d, InWindow: inWindow(d, windowStart, windowEnd)})
	}

	sorted := make([]model.Occurrence, 0, len(occurrences))
	for _, o := range occurrences {
		o.Date = DateOf(o.Date)
		if inWindow(o.Date, windowStart, windowEnd) {
			sorted = append(sorted, o)
		}
	}
	SortOccurrences(sorted)

	for _, o := range sorted {
		b := &v.Days[index[o.Date]]
		b.Occurrences = append(b.Occurrences, o)
	}

	if mode == ViewDay {
		v.Days[0].Hours = hourBuckets(v.Days[0].Occurrences)
	}

	return v, nil
}

// Occurrences все вхождения окна в порядке отображения
func (v *View) Occurrences() []model.Occurrence {
	var out []model.Occurrence
	for _, d := range v.Days {
		out = append(out, d.Occurrences...)
	}
	return out
}

// Day ячейка даты, если она есть в сетке
func (v *View) Day(date time.Time) (*DayBucket, bool) {
	date = DateOf(date)
	if date.Before(v.GridStart) || date.After(v.GridEnd) {
		return nil, false
	}
	return &v.Days[DaysBetween(v.GridStart, date)], true
}

// Count количество вхождений в окне
func (v *View) Count() int {
	n := 0
	for _, d := range v.Days {
		n += len(d.Occurrences)
	}
	return n
}

func hourBuckets(occurrences []model.Occurrence) []HourBucket {
	hours := make([]HourBucket, 0, DayViewLastHour-DayViewFirstHour)
	for h := DayViewFirstHour; h < DayViewLastHour; h++ {
		hours = append(hours, HourBucket{Hour: h})
	}
	for _, o := range occurrences {
		h := min(max(o.StartTime.Hour(), DayViewFirstHour), DayViewLastHour-1)
		hours[h-DayViewFirstHour].Occurrences = append(hours[h-DayViewFirstHour].Occurrences, o)
	}
	return hours
}
