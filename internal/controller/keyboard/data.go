package keyboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/go-telegram/bot/models"
)

// Префиксы callback data
const (
	Noop = "noop"

	PrefixView          = "view"          // view:week:2024-03-04
	PrefixCancelOcc     = "occ_cancel"    // occ_cancel:12:2024-03-04
	PrefixDeleteAct     = "act_delete"    // act_delete:12
	PrefixLessonCancel  = "lesson_cancel" // lesson_cancel:7
	PrefixLessonConfirm = "lesson_confirm"
	PrefixLessonDone    = "lesson_done"
	PrefixLessonNoShow  = "lesson_noshow"
	PrefixSlotToggle    = "slot_toggle" // slot_toggle:3
	PrefixSlotDelete    = "slot_delete"
	PrefixNewActChild   = "new_act_child" // new_act_child:10
	PrefixNewActRepeat  = "new_act_rec"   // new_act_rec:weekly, new_act_rec:none
	PrefixNewActRemind  = "new_act_rem"   // new_act_rem:30, new_act_rem:0
)

// RepeatNone отсутствие повторения в диалоге создания активности
const RepeatNone = "none"

var ErrInvalidFormat = errors.New("invalid callback format")

// Data разобранный callback
type Data struct {
	Prefix string
	Args   []string
}

// Encode собирает callback data из префикса и аргументов
func Encode(prefix string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, prefix)
	for _, a := range args {
		switch v := a.(type) {
		case time.Time:
			parts = append(parts, schedule.FormatDate(v))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, ":")
}

// Parse разбирает callback data
func Parse(data string) Data {
	prefix, rest, found := strings.Cut(data, ":")
	if !found {
		return Data{Prefix: prefix}
	}
	return Data{Prefix: prefix, Args: strings.Split(rest, ":")}
}

// ID возвращает i-й аргумент как идентификатор
func (d Data) ID(i int) (int64, error) {
	if i >= len(d.Args) {
		return 0, ErrInvalidFormat
	}
	id, err := strconv.ParseInt(d.Args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return id, nil
}

// Date возвращает i-й аргумент как дату
func (d Data) Date(i int) (time.Time, error) {
	if i >= len(d.Args) {
		return time.Time{}, ErrInvalidFormat
	}
	date, err := schedule.ParseDate(d.Args[i])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return date, nil
}

// Arg возвращает i-й аргумент строкой
func (d Data) Arg(i int) (string, error) {
	if i >= len(d.Args) {
		return "", ErrInvalidFormat
	}
	return d.Args[i], nil
}

// AddViewNavigation добавляет навигацию по периодам и переключение режима
func (b *Builder) AddViewNavigation(mode schedule.ViewMode, ref, today time.Time) *Builder {
	b.Row(
		Button("⬅️", Encode(PrefixView, mode, mode.Shift(ref, -1))),
		Button("Сегодня", Encode(PrefixView, mode, today)),
		Button("➡️", Encode(PrefixView, mode, mode.Shift(ref, 1))),
	)

	var row []models.InlineKeyboardButton
	for _, m := range []schedule.ViewMode{schedule.ViewDay, schedule.ViewWeek, schedule.ViewMonth} {
		if m != mode {
			row = append(row, Button(modeTitle(m), Encode(PrefixView, m, ref)))
		}
	}
	return b.Row(row...)
}

func modeTitle(m schedule.ViewMode) string {
	switch m {
	case schedule.ViewDay:
		return "📅 День"
	case schedule.ViewWeek:
		return "🗓 Неделя"
	default:
		return "📆 Месяц"
	}
}

// AddOccurrenceCancels добавляет кнопки отмены вхождений активностей
func (b *Builder) AddOccurrenceCancels(occurrences []model.Occurrence) *Builder {
	for _, o := range occurrences {
		if o.Source != model.SourceActivity {
			continue
		}
		b.Row(Button(
			fmt.Sprintf("❌ %s %s", o.StartTime, o.Title),
			Encode(PrefixCancelOcc, o.SourceID, o.OriginalDate),
		))
	}
	return b
}
