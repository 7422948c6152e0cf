package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"go.uber.org/zap"
)

// AvailabilityService окна доступности репетиторов
type AvailabilityService struct {
	users  UserStore
	slots  AvailabilityStore
	logger *zap.Logger
}

func NewAvailabilityService(users UserStore, slots AvailabilityStore, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		users:  users,
		slots:  slots,
		logger: logger,
	}
}

// AddSlot объявляет еженедельное окно доступности репетитора
func (s *AvailabilityService) AddSlot(ctx context.Context, tutorID int64, weekday time.Weekday, start, end model.Clock) (*model.ScheduleSlot, error) {
	if err := requireTutor(ctx, s.users, tutorID); err != nil {
		return nil, err
	}

	r := schedule.WeeklyRange{Weekday: weekday, Start: start, End: end}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	slot := &model.ScheduleSlot{
		TutorID:     tutorID,
		Weekday:     weekday,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create availability slot: %w", err)
	}

	s.logger.Info("Availability slot added",
		zap.Int64("tutor_id", tutorID),
		zap.Int64("slot_id", slot.ID),
		zap.Stringer("weekday", weekday),
		zap.Stringer("start", start),
		zap.Stringer("end", end),
	)

	return slot, nil
}

// ListSlots окна доступности репетитора
func (s *AvailabilityService) ListSlots(ctx context.Context, tutorID int64) ([]model.ScheduleSlot, error) {
	return s.slots.ListByTutor(ctx, tutorID)
}

// SetAvailable временно закрывает или открывает окно
func (s *AvailabilityService) SetAvailable(ctx context.Context, tutorID, slotID int64, available bool) error {
	if _, err := s.ownedSlot(ctx, tutorID, slotID); err != nil {
		return err
	}
	if err := s.slots.SetAvailable(ctx, slotID, available); err != nil {
		return fmt.Errorf("set slot availability: %w", err)
	}

	s.logger.Info("Availability slot toggled",
		zap.Int64("slot_id", slotID),
		zap.Bool("available", available),
	)

	return nil
}

// ToggleSlot переключает доступность окна и возвращает новое значение
func (s *AvailabilityService) ToggleSlot(ctx context.Context, tutorID, slotID int64) (bool, error) {
	slot, err := s.ownedSlot(ctx, tutorID, slotID)
	if err != nil {
		return false, err
	}
	available := !slot.IsAvailable
	if err := s.slots.SetAvailable(ctx, slotID, available); err != nil {
		return false, fmt.Errorf("set slot availability: %w", err)
	}
	return available, nil
}

// RemoveSlot удаляет окно доступности. Уже забронированные занятия не трогаются.
func (s *AvailabilityService) RemoveSlot(ctx context.Context, tutorID, slotID int64) error {
	if _, err := s.ownedSlot(ctx, tutorID, slotID); err != nil {
		return err
	}
	if err := s.slots.Delete(ctx, slotID); err != nil {
		return fmt.Errorf("delete availability slot: %w", err)
	}

	s.logger.Info("Availability slot removed", zap.Int64("slot_id", slotID))

	return nil
}

func (s *AvailabilityService) ownedSlot(ctx context.Context, tutorID, slotID int64) (*model.ScheduleSlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get availability slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("slot %d: %w", slotID, ErrNotFound)
	}
	if slot.TutorID != tutorID {
		return nil, fmt.Errorf("slot %d: %w", slotID, ErrNotOwner)
	}
	return slot, nil
}

// requireTutor проверяет что пользователь существует и является репетитором
func requireTutor(ctx context.Context, users UserStore, userID int64) error {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if !user.IsTutor {
		return ErrNotTutor
	}
	return nil
}
