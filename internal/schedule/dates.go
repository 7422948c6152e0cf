package schedule

import "time"

// Даты в пакете - календарные: полночь UTC. Часовой пояс применяется
// только при переводе вхождения в момент времени.

const dateLayout = "2006-01-02"

// DateOf отбрасывает время суток, сохраняя календарную дату t в его локации
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate создаёт календарную дату
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату формата YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate форматирует календарную дату как YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// WeekStart понедельник недели, содержащей дату. Единственное правило начала недели в проекте.
func WeekStart(t time.Time) time.Time {
	d := DateOf(t)
	return d.AddDate(0, 0, -daysSinceMonday(d.Weekday()))
}

// WeekEnd воскресенье недели, содержащей дату
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// MonthStart первое число месяца
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return NewDate(y, m, 1)
}

// MonthEnd последнее число месяца
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	return NewDate(y, m, DaysIn(y, m))
}

// DaysIn количество дней в месяце
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween количество дней от a до b (отрицательно если b раньше a)
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// daysSinceMonday смещение дня недели от понедельника (Пн = 0, Вс = 6)
func daysSinceMonday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// addMonthsClamped сдвигает дату на months месяцев, прижимая день к концу месяца
func addMonthsClamped(anchor time.Time, months int) time.Time {
	y, m, d := anchor.Date()
	total := int(m) - 1 + months
	year := y + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	return NewDate(year, month, min(d, DaysIn(year, month)))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
