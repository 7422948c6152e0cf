package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
)

var errBadArgs = errors.New("bad command arguments")

// commandArgs аргументы команды после "/cmd" или "/cmd@botname"
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return fields
	}
	return fields[1:]
}

var weekdayAliases = map[string]time.Weekday{
	"пн": time.Monday, "понедельник": time.Monday, "mon": time.Monday, "monday": time.Monday, "1": time.Monday,
	"вт": time.Tuesday, "вторник": time.Tuesday, "tue": time.Tuesday, "tuesday": time.Tuesday, "2": time.Tuesday,
	"ср": time.Wednesday, "среда": time.Wednesday, "wed": time.Wednesday, "wednesday": time.Wednesday, "3": time.Wednesday,
	"чт": time.Thursday, "четверг": time.Thursday, "thu": time.Thursday, "thursday": time.Thursday, "4": time.Thursday,
	"пт": time.Friday, "пятница": time.Friday, "fri": time.Friday, "friday": time.Friday, "5": time.Friday,
	"сб": time.Saturday, "суббота": time.Saturday, "sat": time.Saturday, "saturday": time.Saturday, "6": time.Saturday,
	"вс": time.Sunday, "воскресенье": time.Sunday, "sun": time.Sunday, "sunday": time.Sunday, "7": time.Sunday,
}

// parseWeekday разбирает день недели: "пн", "monday" или номер 1..7 начиная с понедельника
func parseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", errBadArgs, s)
	}
	return wd, nil
}

// parseClockRange разбирает интервал "HH:MM-HH:MM"
func parseClockRange(s string) (model.Clock, model.Clock, error) {
	from, to, found := strings.Cut(strings.ReplaceAll(s, " ", ""), "-")
	if !found {
		return 0, 0, fmt.Errorf("%w: expected HH:MM-HH:MM, got %q", errBadArgs, s)
	}
	start, err := model.ParseClock(from)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", errBadArgs, err)
	}
	end, err := model.ParseClock(to)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", errBadArgs, err)
	}
	return start, end, nil
}

// parseUserDate разбирает дату: "сегодня", "завтра", YYYY-MM-DD, DD.MM.YYYY или DD.MM.
// Для DD.MM без года берётся ближайшая такая дата не раньше today.
func parseUserDate(s string, today time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "сегодня", "today":
		return today, nil
	case "завтра", "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if d, err := schedule.ParseDate(s); err == nil {
		return d, nil
	}
	if d, err := time.Parse("02.01.2006", s); err == nil {
		return d, nil
	}
	if d, err := time.Parse("02.01", s); err == nil {
		d = schedule.NewDate(today.Year(), d.Month(), d.Day())
		if d.Before(today) {
			d = d.AddDate(1, 0, 0)
		}
		return d, nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown date %q", errBadArgs, s)
}

type bookArgs struct {
	TutorID int64
	Date    time.Time
	Start   model.Clock
	Minutes int
	ChildID int64 // 0 если не указан
}

// parseBookArgs разбирает "/book <tutor_id> <дата> <HH:MM> <минуты> [child_id]"
func parseBookArgs(args []string, today time.Time) (bookArgs, error) {
	if len(args) < 4 || len(args) > 5 {
		return bookArgs{}, fmt.Errorf("%w: expected 4 or 5 arguments, got %d", errBadArgs, len(args))
	}

	var (
		out bookArgs
		err error
	)
	if out.TutorID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
		return bookArgs{}, fmt.Errorf("%w: tutor id: %v", errBadArgs, err)
	}
	if out.Date, err = parseUserDate(args[1], today); err != nil {
		return bookArgs{}, err
	}
	if out.Start, err = model.ParseClock(args[2]); err != nil {
		return bookArgs{}, fmt.Errorf("%w: %v", errBadArgs, err)
	}
	if out.Minutes, err = strconv.Atoi(args[3]); err != nil {
		return bookArgs{}, fmt.Errorf("%w: duration: %v", errBadArgs, err)
	}
	if len(args) == 5 {
		if out.ChildID, err = strconv.ParseInt(args[4], 10, 64); err != nil {
			return bookArgs{}, fmt.Errorf("%w: child id: %v", errBadArgs, err)
		}
	}
	return out, nil
}

// pickChild выбирает ребёнка по id, или единственного если id не указан
func pickChild(children []*model.Child, childID int64) (*model.Child, error) {
	if childID == 0 {
		if len(children) == 1 {
			return children[0], nil
		}
		return nil, fmt.Errorf("%w: child id is required for %d children", errBadArgs, len(children))
	}
	for _, c := range children {
		if c.ID == childID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown child %d", errBadArgs, childID)
}
