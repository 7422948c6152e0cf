package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/export"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/emersion/go-ical"
	"go.uber.org/zap"
)

// ErrPublishingDisabled публикация в CalDAV не настроена
var ErrPublishingDisabled = errors.New("calendar publishing is not configured")

// Глубина выгрузки календаря относительно текущего момента
const (
	exportPastDays   = 30
	exportFutureDays = 365
)

// CalendarPublisher выкладывает календарь во внешний сервис
type CalendarPublisher interface {
	Publish(ctx context.Context, cal *ical.Calendar) (int, error)
}

// ScheduleService собирает вхождения активностей и занятий и строит по ним виды и выгрузки
type ScheduleService struct {
	children   ChildStore
	activities ActivityStore
	overrides  OverrideStore
	lessons    LessonStore
	expander   *schedule.Expander
	loc        *time.Location
	publisher  CalendarPublisher
	logger     *zap.Logger
}

func NewScheduleService(
	children ChildStore,
	activities ActivityStore,
	overrides OverrideStore,
	lessons LessonStore,
	expander *schedule.Expander,
	loc *time.Location,
	publisher CalendarPublisher,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		children:   children,
		activities: activities,
		overrides:  overrides,
		lessons:    lessons,
		expander:   expander,
		loc:        loc,
		publisher:  publisher,
		logger:     logger,
	}
}

// Location часовой пояс расписания
func (s *ScheduleService) Location() *time.Location {
	return s.loc
}

// TutorLoad нагрузка репетитора за период
type TutorLoad struct {
	TutorID      int64
	Occurrences  int
	ConflictDays []time.Time
}

// ChildOccurrences вхождения активностей и занятий ребёнка в окне [from, to]
func (s *ScheduleService) ChildOccurrences(ctx context.Context, parentID, childID int64, from, to time.Time) ([]model.Occurrence, error) {
	if _, err := ownedChild(ctx, s.children, parentID, childID); err != nil {
		return nil, err
	}
	return s.childrenOccurrences(ctx, []int64{childID}, from, to)
}

// FamilyOccurrences вхождения всех детей родителя
func (s *ScheduleService) FamilyOccurrences(ctx context.Context, parentID int64, from, to time.Time) ([]model.Occurrence, error) {
	ids, err := s.childIDs(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.childrenOccurrences(ctx, ids, from, to)
}

// TutorOccurrences занятия репетитора в окне
func (s *ScheduleService) TutorOccurrences(ctx context.Context, tutorID int64, from, to time.Time) ([]model.Occurrence, error) {
	from, to = schedule.DateOf(from), schedule.DateOf(to)
	start, end := s.instants(from, to)

	lessons, err := s.lessons.ListByTutorInWindow(ctx, tutorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list tutor lessons: %w", err)
	}

	out, err := materializeLessons(s.expander, s.loc, lessons, from, to, s.logger)
	if err != nil {
		return nil, err
	}
	schedule.SortOccurrences(out)
	return out, nil
}

// UserOccurrences всё расписание пользователя: дети и, для репетитора, его занятия
func (s *ScheduleService) UserOccurrences(ctx context.Context, user *model.User, from, to time.Time) ([]model.Occurrence, error) {
	out, err := s.FamilyOccurrences(ctx, user.ID, from, to)
	if err != nil {
		return nil, err
	}

	if user.IsTutor {
		tutor, err := s.TutorOccurrences(ctx, user.ID, from, to)
		if err != nil {
			return nil, err
		}
		out = mergeOccurrences(out, tutor)
	}

	schedule.SortOccurrences(out)
	return out, nil
}

// View строит вид расписания пользователя за день, неделю или месяц вокруг ref
func (s *ScheduleService) View(ctx context.Context, user *model.User, mode schedule.ViewMode, ref time.Time) (*schedule.View, error) {
	from, to := mode.Window(schedule.DateOf(ref))

	occurrences, err := s.UserOccurrences(ctx, user, from, to)
	if err != nil {
		return nil, err
	}
	return schedule.BuildView(occurrences, mode, ref)
}

// WeekImage картинка недели пользователя
func (s *ScheduleService) WeekImage(ctx context.Context, user *model.User, ref, now time.Time) ([]byte, error) {
	v, err := s.View(ctx, user, schedule.ViewWeek, ref)
	if err != nil {
		return nil, err
	}
	return export.RenderWeek(v, now.In(s.loc))
}

// Calendar собирает iCalendar пользователя
func (s *ScheduleService) Calendar(ctx context.Context, user *model.User, now time.Time) (*ical.Calendar, error) {
	children, err := s.children.ListByParent(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	var activities []*model.ScheduleActivity
	ids := make([]int64, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
		list, err := s.activities.ListByChild(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("list child activities: %w", err)
		}
		activities = append(activities, list...)
	}

	byActivity, err := s.overridesOf(ctx, activities)
	if err != nil {
		return nil, err
	}

	today := schedule.DateOf(now.In(s.loc))
	start, end := s.instants(today.AddDate(0, 0, -exportPastDays), today.AddDate(0, 0, exportFutureDays))
	lessons, err := s.lessons.ListByStudentsInWindow(ctx, ids, start, end)
	if err != nil {
		return nil, fmt.Errorf("list student lessons: %w", err)
	}
	if user.IsTutor {
		tutorLessons, err := s.lessons.ListByTutorInWindow(ctx, user.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("list tutor lessons: %w", err)
		}
		lessons = append(lessons, tutorLessons...)
	}

	b := export.NewCalendarBuilder(user.DisplayName(), s.loc, now)
	for _, a := range activities {
		if err := b.AddActivity(a, byActivity[a.ID]); err != nil {
			s.logger.Warn("Skip activity in calendar export", zap.Int64("activity_id", a.ID), zap.Error(err))
		}
	}

	seen := make(map[int64]bool, len(lessons))
	for _, l := range lessons {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		if err := b.AddLesson(l); err != nil {
			s.logger.Warn("Skip lesson in calendar export", zap.Int64("lesson_id", l.ID), zap.Error(err))
		}
	}

	return b.Calendar(), nil
}

// ExportICal календарь пользователя в формате .ics
func (s *ScheduleService) ExportICal(ctx context.Context, user *model.User, now time.Time) ([]byte, error) {
	cal, err := s.Calendar(ctx, user, now)
	if err != nil {
		return nil, err
	}
	return export.Encode(cal)
}

// Publish выкладывает календарь пользователя в CalDAV
func (s *ScheduleService) Publish(ctx context.Context, user *model.User, now time.Time) (int, error) {
	if s.publisher == nil {
		return 0, ErrPublishingDisabled
	}

	cal, err := s.Calendar(ctx, user, now)
	if err != nil {
		return 0, err
	}

	n, err := s.publisher.Publish(ctx, cal)
	if err != nil {
		return 0, fmt.Errorf("publish calendar: %w", err)
	}

	s.logger.Info("Calendar published",
		zap.Int64("user_id", user.ID),
		zap.Int("objects", n),
	)

	return n, nil
}

// TutorLoads нагрузка всех репетиторов с занятиями на weeks недель начиная с from.
// День считается конфликтным если в нём есть пересекающиеся занятия.
func (s *ScheduleService) TutorLoads(ctx context.Context, from time.Time, weeks int) ([]TutorLoad, error) {
	from = schedule.DateOf(from)
	to := from.AddDate(0, 0, 7*weeks-1)

	tutorIDs, err := s.lessons.ListActiveTutorIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tutors: %w", err)
	}

	loads := make([]TutorLoad, 0, len(tutorIDs))
	for _, tutorID := range tutorIDs {
		occurrences, err := s.TutorOccurrences(ctx, tutorID, from, to)
		if err != nil {
			return nil, err
		}
		loads = append(loads, TutorLoad{
			TutorID:      tutorID,
			Occurrences:  len(occurrences),
			ConflictDays: conflictDays(occurrences),
		})
	}

	return loads, nil
}

func (s *ScheduleService) childIDs(ctx context.Context, parentID int64) ([]int64, error) {
	children, err := s.children.ListByParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	ids := make([]int64, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (s *ScheduleService) childrenOccurrences(ctx context.Context, childIDs []int64, from, to time.Time) ([]model.Occurrence, error) {
	if len(childIDs) == 0 {
		return nil, nil
	}
	from, to = schedule.DateOf(from), schedule.DateOf(to)

	activities, err := s.activities.ListByChildrenInWindow(ctx, childIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	out, err := materializeActivities(ctx, s.expander, s.overrides, activities, from, to, s.logger)
	if err != nil {
		return nil, err
	}

	start, end := s.instants(from, to)
	lessons, err := s.lessons.ListByStudentsInWindow(ctx, childIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("list student lessons: %w", err)
	}
	lessonOccurrences, err := materializeLessons(s.expander, s.loc, lessons, from, to, s.logger)
	if err != nil {
		return nil, err
	}

	out = append(out, lessonOccurrences...)
	schedule.SortOccurrences(out)
	return out, nil
}

func (s *ScheduleService) overridesOf(ctx context.Context, activities []*model.ScheduleActivity) (map[int64][]model.OccurrenceOverride, error) {
	return overridesByActivity(ctx, s.overrides, activities)
}

// instants переводит окно дат [from, to] в полуинтервал моментов времени в часовом поясе расписания
func (s *ScheduleService) instants(from, to time.Time) (time.Time, time.Time) {
	return windowInstants(s.loc, from, to)
}

func windowInstants(loc *time.Location, from, to time.Time) (time.Time, time.Time) {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	return time.Date(fy, fm, fd, 0, 0, 0, 0, loc), time.Date(ty, tm, td+1, 0, 0, 0, 0, loc)
}

func overridesByActivity(ctx context.Context, overrides OverrideStore, activities []*model.ScheduleActivity) (map[int64][]model.OccurrenceOverride, error) {
	if len(activities) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}

	list, err := overrides.ListByActivities(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}

	out := make(map[int64][]model.OccurrenceOverride, len(activities))
	for _, ov := range list {
		out[ov.ActivityID] = append(out[ov.ActivityID], ov)
	}
	return out, nil
}

// materializeActivities разворачивает активности в окне. Активность с некорректными
// данными пропускается, чтобы не ломать расписание целиком.
func materializeActivities(
	ctx context.Context,
	expander *schedule.Expander,
	overrides OverrideStore,
	activities []*model.ScheduleActivity,
	from, to time.Time,
	logger *zap.Logger,
) ([]model.Occurrence, error) {
	byActivity, err := overridesByActivity(ctx, overrides, activities)
	if err != nil {
		return nil, err
	}

	var out []model.Occurrence
	for _, a := range activities {
		occurrences, err := expander.MaterializeActivity(a, byActivity[a.ID], from, to)
		if err != nil {
			if schedule.IsValidation(err) {
				logger.Warn("Skip invalid activity", zap.Int64("activity_id", a.ID), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("materialize activity %d: %w", a.ID, err)
		}
		out = append(out, occurrences...)
	}
	return out, nil
}

func materializeLessons(expander *schedule.Expander, loc *time.Location, lessons []*model.Lesson, from, to time.Time, logger *zap.Logger) ([]model.Occurrence, error) {
	var out []model.Occurrence
	for _, l := range lessons {
		occurrences, err := expander.MaterializeLesson(l, loc, from, to)
		if err != nil {
			if schedule.IsValidation(err) {
				logger.Warn("Skip invalid lesson", zap.Int64("lesson_id", l.ID), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("materialize lesson %d: %w", l.ID, err)
		}
		out = append(out, occurrences...)
	}
	return out, nil
}

// mergeOccurrences объединяет списки без повторов одного и того же вхождения
func mergeOccurrences(a, b []model.Occurrence) []model.Occurrence {
	type key struct {
		source model.OccurrenceSource
		id     int64
		date   time.Time
	}

	seen := make(map[key]bool, len(a)+len(b))
	out := make([]model.Occurrence, 0, len(a)+len(b))
	for _, list := range [][]model.Occurrence{a, b} {
		for _, o := range list {
			k := key{o.Source, o.SourceID, o.OriginalDate}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, o)
		}
	}
	return out
}

// conflictDays дни, в которых есть пересекающиеся вхождения
func conflictDays(occurrences []model.Occurrence) []time.Time {
	var days []time.Time
	byDay := make(map[time.Time][]schedule.TimeRange)
	for _, o := range occurrences {
		r := schedule.RangeOf(o)
		if schedule.HasConflict(r, byDay[r.Date]) && (len(days) == 0 || !days[len(days)-1].Equal(r.Date)) {
			days = append(days, r.Date)
		}
		byDay[r.Date] = append(byDay[r.Date], r)
	}
	return days
}
