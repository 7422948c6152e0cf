package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/keyboard"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Сколько ближайших занятий показывать в /lessons
const lessonsLimit = 10

// HandleBook обрабатывает команду /book <tutor_id> <дата> <HH:MM> <минуты> [child_id].
// Без аргументов показывает список репетиторов.
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		h.sendTutors(ctx, b, chatID)
		return
	}

	parsed, err := parseBookArgs(args, h.today())
	if err != nil {
		h.replyError(ctx, b, chatID, "parse book args", err)
		return
	}

	children, ok := h.requireChildren(ctx, b, chatID, user)
	if !ok {
		return
	}
	child, err := pickChild(children, parsed.ChildID)
	if err != nil {
		var sb strings.Builder
		sb.WriteString("👶 Укажите ребёнка последним аргументом:\n")
		for _, c := range children {
			fmt.Fprintf(&sb, "• %s: <code>%d</code>\n", html.EscapeString(c.Name), c.ID)
		}
		h.sendMessage(ctx, b, chatID, sb.String())
		return
	}

	lesson, err := h.bookingService.Book(ctx, user.ID, service.BookLessonInput{
		TutorID:         parsed.TutorID,
		StudentID:       child.ID,
		Date:            parsed.Date,
		StartTime:       parsed.Start,
		DurationMinutes: parsed.Minutes,
	})
	if err != nil {
		h.replyError(ctx, b, chatID, "book lesson", err)
		return
	}
	lesson.Student = child

	h.sendMessage(ctx, b, chatID, "✅ Занятие забронировано\n\n"+formatting.FormatLesson(lesson, h.loc))
}

func (h *Handlers) sendTutors(ctx context.Context, b *bot.Bot, chatID int64) {
	tutors, err := h.userService.ListTutors(ctx)
	if err != nil {
		h.replyError(ctx, b, chatID, "list tutors", err)
		return
	}
	if len(tutors) == 0 {
		h.sendMessage(ctx, b, chatID, "🎓 Репетиторов пока нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎓 <b>Репетиторы</b>\n\n")
	for _, t := range tutors {
		fmt.Fprintf(&sb, "• %s: <code>%d</code>\n", html.EscapeString(t.DisplayName()), t.ID)
	}
	sb.WriteString("\nЗапись: <code>/book ID 2024-03-04 15:00 60</code>")
	h.sendMessage(ctx, b, chatID, sb.String())
}

// HandleLessons обрабатывает команду /lessons: занятия репетитора и занятия детей
func (h *Handlers) HandleLessons(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	user, ok := h.requireUser(ctx, b, chatID, update.Message.From.ID)
	if !ok {
		return
	}

	if user.IsTutor {
		lessons, err := h.bookingService.TutorLessons(ctx, user.ID, lessonsLimit)
		if err != nil {
			h.replyError(ctx, b, chatID, "list tutor lessons", err)
			return
		}
		h.sendLessons(ctx, b, chatID, "🎓 Мои ученики", lessons, true)
	}

	lessons, err := h.bookingService.FamilyLessons(ctx, user.ID, lessonsLimit)
	if err != nil {
		h.replyError(ctx, b, chatID, "list family lessons", err)
		return
	}
	if len(lessons) > 0 || !user.IsTutor {
		h.sendLessons(ctx, b, chatID, "👨‍👩‍👧 Занятия детей", lessons, false)
	}
}

func (h *Handlers) sendLessons(ctx context.Context, b *bot.Bot, chatID int64, title string, lessons []*model.Lesson, asTutor bool) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d %s\n", title, len(lessons), formatting.PluralizeLessons(len(lessons)))

	kb := keyboard.NewBuilder()
	for _, l := range lessons {
		sb.WriteString("\n" + formatting.FormatLesson(l, h.loc) + "\n")
		kb.Row(lessonButtons(l, asTutor)...)
	}

	h.sendWithMarkup(ctx, b, chatID, strings.TrimRight(sb.String(), "\n"), kb.Build())
}

// lessonButtons кнопки действий над занятием в зависимости от статуса и роли
func lessonButtons(l *model.Lesson, asTutor bool) []models.InlineKeyboardButton {
	var buttons []models.InlineKeyboardButton
	if asTutor && l.Status == model.LessonStatusScheduled {
		buttons = append(buttons, keyboard.Button(fmt.Sprintf("✅ #%d", l.ID), keyboard.Encode(keyboard.PrefixLessonConfirm, l.ID)))
	}
	if asTutor && (l.Status == model.LessonStatusScheduled || l.Status == model.LessonStatusConfirmed) {
		buttons = append(buttons,
			keyboard.Button("✔️", keyboard.Encode(keyboard.PrefixLessonDone, l.ID)),
			keyboard.Button("🚫", keyboard.Encode(keyboard.PrefixLessonNoShow, l.ID)),
		)
	}
	if l.Status == model.LessonStatusScheduled || l.Status == model.LessonStatusConfirmed {
		buttons = append(buttons, keyboard.Button(fmt.Sprintf("❌ #%d", l.ID), keyboard.Encode(keyboard.PrefixLessonCancel, l.ID)))
	}
	return buttons
}

func (h *Handlers) onLessonCancel(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	h.lessonAction(ctx, b, cb, h.bookingService.Cancel)
}

func (h *Handlers) onLessonTutorAction(ctx context.Context, b *bot.Bot, cb *callbackContext) {
	switch cb.data.Prefix {
	case keyboard.PrefixLessonConfirm:
		h.lessonAction(ctx, b, cb, h.bookingService.Confirm)
	case keyboard.PrefixLessonDone:
		h.lessonAction(ctx, b, cb, h.bookingService.Complete)
	case keyboard.PrefixLessonNoShow:
		h.lessonAction(ctx, b, cb, h.bookingService.MarkNoShow)
	}
}

// lessonAction меняет статус занятия и сообщает результат
func (h *Handlers) lessonAction(
	ctx context.Context,
	b *bot.Bot,
	cb *callbackContext,
	action func(ctx context.Context, userID, lessonID int64) (*model.Lesson, error),
) {
	lessonID, err := cb.data.ID(0)
	if err != nil {
		cb.fail(ctx, b, h, "parse lesson", err)
		return
	}
	user, err := cb.user(ctx, h)
	if err != nil {
		cb.fail(ctx, b, h, "load user", err)
		return
	}

	lesson, err := action(ctx, user.ID, lessonID)
	if err != nil {
		cb.fail(ctx, b, h, cb.data.Prefix, err)
		return
	}

	status := formatting.GetLessonStatusDisplay(lesson.Status)
	h.answerCallback(ctx, b, cb.id, fmt.Sprintf("%s #%d: %s", status.Emoji, lesson.ID, status.Text), true)
}
