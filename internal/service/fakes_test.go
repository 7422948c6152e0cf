package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/google/uuid"
)

// In-memory реализации хранилищ для тестов сервисов.
// Выборки по окну возвращают надмножество: отбор по датам делает сервис.

type fakeUsers struct {
	byID   map[int64]*model.User
	nextID int64
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[int64]*model.User)}
	for _, u := range users {
		f.byID[u.ID] = u
		f.nextID = max(f.nextID, u.ID)
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range f.byID {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) Update(_ context.Context, user *model.User) error {
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) ListTutors(context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range f.byID {
		if u.IsTutor {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeChildren struct {
	byID    map[int64]*model.Child
	parents map[int64]int64 // parent user id -> telegram id
	nextID  int64
}

func newFakeChildren(children ...*model.Child) *fakeChildren {
	f := &fakeChildren{byID: make(map[int64]*model.Child), parents: make(map[int64]int64)}
	for _, c := range children {
		f.byID[c.ID] = c
		f.nextID = max(f.nextID, c.ID)
	}
	return f
}

func (f *fakeChildren) Create(_ context.Context, child *model.Child) error {
	f.nextID++
	child.ID = f.nextID
	f.byID[child.ID] = child
	return nil
}

func (f *fakeChildren) GetByID(_ context.Context, id int64) (*model.Child, error) {
	return f.byID[id], nil
}

func (f *fakeChildren) ListByParent(_ context.Context, parentID int64) ([]*model.Child, error) {
	var out []*model.Child
	for _, c := range f.byID {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *model.Child) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f *fakeChildren) ParentTelegramIDs(_ context.Context, childIDs []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	for _, id := range childIDs {
		c, ok := f.byID[id]
		if !ok {
			continue
		}
		if tg, ok := f.parents[c.ParentID]; ok {
			out[id] = tg
		}
	}
	return out, nil
}

type fakeTypes struct {
	types []*model.ActivityType
}

func (f *fakeTypes) List(context.Context) ([]*model.ActivityType, error) {
	return f.types, nil
}

func (f *fakeTypes) GetByID(_ context.Context, id int64) (*model.ActivityType, error) {
	for _, t := range f.types {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

type fakeActivities struct {
	byID    map[int64]*model.ScheduleActivity
	nextID  int64
	updates int

	// сохранённые id напоминаний и отметки о доставке, удаляемые каскадом как в БД
	reminderIDs map[int64][]uuid.UUID
	deliveries  *fakeDeliveries
}

func newFakeActivities(activities ...*model.ScheduleActivity) *fakeActivities {
	f := &fakeActivities{
		byID:        make(map[int64]*model.ScheduleActivity),
		reminderIDs: make(map[int64][]uuid.UUID),
	}
	for _, a := range activities {
		f.byID[a.ID] = a
		f.nextID = max(f.nextID, a.ID)
		f.saveReminders(a)
	}
	return f
}

func (f *fakeActivities) saveReminders(a *model.ScheduleActivity) {
	ids := make([]uuid.UUID, 0, len(a.Reminders))
	for _, r := range a.Reminders {
		ids = append(ids, r.ID)
	}
	for _, old := range f.reminderIDs[a.ID] {
		if !slices.Contains(ids, old) && f.deliveries != nil {
			f.deliveries.dropReminder(old)
		}
	}
	f.reminderIDs[a.ID] = ids
}

func (f *fakeActivities) Create(_ context.Context, a *model.ScheduleActivity) error {
	f.nextID++
	a.ID = f.nextID
	for i := range a.Reminders {
		a.Reminders[i].ActivityID = a.ID
	}
	f.byID[a.ID] = a
	f.saveReminders(a)
	return nil
}

func (f *fakeActivities) GetByID(_ context.Context, id int64) (*model.ScheduleActivity, error) {
	return f.byID[id], nil
}

func (f *fakeActivities) ListByChildrenInWindow(_ context.Context, childIDs []int64, _, _ time.Time) ([]*model.ScheduleActivity, error) {
	var out []*model.ScheduleActivity
	for _, a := range f.sorted() {
		if slices.Contains(childIDs, a.ChildID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivities) ListInWindow(context.Context, time.Time, time.Time) ([]*model.ScheduleActivity, error) {
	return f.sorted(), nil
}

func (f *fakeActivities) ListByChild(_ context.Context, childID int64) ([]*model.ScheduleActivity, error) {
	return f.ListByChildrenInWindow(context.Background(), []int64{childID}, time.Time{}, time.Time{})
}

func (f *fakeActivities) Update(_ context.Context, a *model.ScheduleActivity) error {
	f.updates++
	f.byID[a.ID] = a
	f.saveReminders(a)
	return nil
}

func (f *fakeActivities) SetCompleted(_ context.Context, id int64, completed bool) error {
	f.byID[id].IsCompleted = completed
	return nil
}

func (f *fakeActivities) Delete(_ context.Context, id int64) error {
	for _, old := range f.reminderIDs[id] {
		if f.deliveries != nil {
			f.deliveries.dropReminder(old)
		}
	}
	delete(f.reminderIDs, id)
	delete(f.byID, id)
	return nil
}

func (f *fakeActivities) sorted() []*model.ScheduleActivity {
	out := make([]*model.ScheduleActivity, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *model.ScheduleActivity) int { return int(a.ID - b.ID) })
	return out
}

type fakeOverrides struct {
	list []model.OccurrenceOverride
}

func (f *fakeOverrides) Upsert(_ context.Context, ov *model.OccurrenceOverride) error {
	for i, existing := range f.list {
		if existing.ActivityID == ov.ActivityID && existing.OriginalDate.Equal(ov.OriginalDate) {
			ov.ID = existing.ID
			f.list[i] = *ov
			return nil
		}
	}
	ov.ID = int64(len(f.list) + 1)
	f.list = append(f.list, *ov)
	return nil
}

func (f *fakeOverrides) ListByActivities(_ context.Context, activityIDs []int64) ([]model.OccurrenceOverride, error) {
	var out []model.OccurrenceOverride
	for _, ov := range f.list {
		if slices.Contains(activityIDs, ov.ActivityID) {
			out = append(out, ov)
		}
	}
	return out, nil
}

type fakeSlots struct {
	byID   map[int64]*model.ScheduleSlot
	nextID int64
}

func newFakeSlots(slots ...model.ScheduleSlot) *fakeSlots {
	f := &fakeSlots{byID: make(map[int64]*model.ScheduleSlot)}
	for _, s := range slots {
		_ = f.Create(context.Background(), &s)
	}
	return f
}

func (f *fakeSlots) Create(_ context.Context, slot *model.ScheduleSlot) error {
	f.nextID++
	slot.ID = f.nextID
	f.byID[slot.ID] = slot
	return nil
}

func (f *fakeSlots) GetByID(_ context.Context, id int64) (*model.ScheduleSlot, error) {
	return f.byID[id], nil
}

func (f *fakeSlots) ListByTutor(_ context.Context, tutorID int64) ([]model.ScheduleSlot, error) {
	var out []model.ScheduleSlot
	for id := int64(1); id <= f.nextID; id++ {
		if s, ok := f.byID[id]; ok && s.TutorID == tutorID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSlots) SetAvailable(_ context.Context, id int64, available bool) error {
	f.byID[id].IsAvailable = available
	return nil
}

func (f *fakeSlots) Delete(_ context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

type fakeLessons struct {
	mu     sync.Mutex
	byID   map[int64]*model.Lesson
	nextID int64
	locks  int
}

func newFakeLessons(lessons ...*model.Lesson) *fakeLessons {
	f := &fakeLessons{byID: make(map[int64]*model.Lesson)}
	for _, l := range lessons {
		f.byID[l.ID] = l
		f.nextID = max(f.nextID, l.ID)
	}
	return f
}

func (f *fakeLessons) WithTutorLock(ctx context.Context, _ int64, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks++
	return fn(ctx)
}

func (f *fakeLessons) Create(_ context.Context, l *model.Lesson) error {
	f.nextID++
	l.ID = f.nextID
	f.byID[l.ID] = l
	return nil
}

func (f *fakeLessons) GetByID(_ context.Context, id int64) (*model.Lesson, error) {
	return f.byID[id], nil
}

func (f *fakeLessons) ListByTutorInWindow(_ context.Context, tutorID int64, _, to time.Time) ([]*model.Lesson, error) {
	return f.filter(func(l *model.Lesson) bool {
		return l.TutorID == tutorID && l.Occupies() && l.StartsAt.Before(to)
	}), nil
}

func (f *fakeLessons) ListByStudentsInWindow(_ context.Context, studentIDs []int64, _, to time.Time) ([]*model.Lesson, error) {
	return f.filter(func(l *model.Lesson) bool {
		return slices.Contains(studentIDs, l.StudentID) && l.Occupies() && l.StartsAt.Before(to)
	}), nil
}

func (f *fakeLessons) ListUpcomingByTutor(_ context.Context, tutorID int64, from time.Time, limit int) ([]*model.Lesson, error) {
	out := f.filter(func(l *model.Lesson) bool {
		return l.TutorID == tutorID && (!l.StartsAt.Before(from) || l.Recurrence != nil)
	})
	return out[:min(limit, len(out))], nil
}

func (f *fakeLessons) ListUpcomingByStudents(_ context.Context, studentIDs []int64, from time.Time, limit int) ([]*model.Lesson, error) {
	out := f.filter(func(l *model.Lesson) bool {
		return slices.Contains(studentIDs, l.StudentID) && (!l.StartsAt.Before(from) || l.Recurrence != nil)
	})
	return out[:min(limit, len(out))], nil
}

func (f *fakeLessons) ListActiveTutorIDs(context.Context) ([]int64, error) {
	var ids []int64
	for _, l := range f.filter(func(l *model.Lesson) bool { return l.Occupies() }) {
		if !slices.Contains(ids, l.TutorID) {
			ids = append(ids, l.TutorID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *fakeLessons) UpdateStatus(_ context.Context, id int64, status model.LessonStatus) error {
	f.byID[id].Status = status
	return nil
}

func (f *fakeLessons) filter(keep func(*model.Lesson) bool) []*model.Lesson {
	var out []*model.Lesson
	for id := int64(1); id <= f.nextID; id++ {
		if l, ok := f.byID[id]; ok && keep(l) {
			out = append(out, l)
		}
	}
	return out
}

type deliveryKey struct {
	reminderID uuid.UUID
	date       time.Time
}

type fakeDeliveries struct {
	delivered map[deliveryKey]bool
}

func newFakeDeliveries() *fakeDeliveries {
	return &fakeDeliveries{delivered: make(map[deliveryKey]bool)}
}

func (f *fakeDeliveries) MarkDelivered(_ context.Context, reminderID uuid.UUID, date time.Time) (bool, error) {
	k := deliveryKey{reminderID, schedule.DateOf(date)}
	if f.delivered[k] {
		return false, nil
	}
	f.delivered[k] = true
	return true, nil
}

func (f *fakeDeliveries) dropReminder(reminderID uuid.UUID) {
	for k := range f.delivered {
		if k.reminderID == reminderID {
			delete(f.delivered, k)
		}
	}
}

func (f *fakeDeliveries) Unmark(_ context.Context, reminderID uuid.UUID, date time.Time) error {
	delete(f.delivered, deliveryKey{reminderID, schedule.DateOf(date)})
	return nil
}

type fakeNotifier struct {
	sent []DueReminder
	err  error
}

func (f *fakeNotifier) NotifyReminder(_ context.Context, r DueReminder) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

func date(s string) time.Time {
	d, err := schedule.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T {
	return &v
}
