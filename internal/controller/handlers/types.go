package handlers

import (
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд и callback
type Handlers struct {
	userService         *service.UserService
	activityService     *service.ActivityService
	scheduleService     *service.ScheduleService
	availabilityService *service.AvailabilityService
	bookingService      *service.BookingService
	stateManager        *state.Manager
	loc                 *time.Location
	now                 func() time.Time
	logger              *zap.Logger
}

// Services набор сервисов, нужных обработчикам
type Services struct {
	Users        *service.UserService
	Activities   *service.ActivityService
	Schedule     *service.ScheduleService
	Availability *service.AvailabilityService
	Booking      *service.BookingService
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(services Services, stateManager *state.Manager, logger *zap.Logger) *Handlers {
	return &Handlers{
		userService:         services.Users,
		activityService:     services.Activities,
		scheduleService:     services.Schedule,
		availabilityService: services.Availability,
		bookingService:      services.Booking,
		stateManager:        stateManager,
		loc:                 services.Schedule.Location(),
		now:                 time.Now,
		logger:              logger,
	}
}

// today текущая дата в часовом поясе расписания
func (h *Handlers) today() time.Time {
	return schedule.DateOf(h.now().In(h.loc))
}
