package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"go.uber.org/zap"
)

type UserService struct {
	users    UserStore
	children ChildStore
	logger   *zap.Logger
}

func NewUserService(users UserStore, children ChildStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:    users,
		children: children,
		logger:   logger,
	}
}

type AddChildInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

// RegisterUser регистрирует или обновляет пользователя
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	// Проверяем существует ли пользователь
	existingUser, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	// Если пользователь уже существует, обновляем данные
	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName
		existingUser.LanguageCode = languageCode

		if err := s.users.Update(ctx, existingUser); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Debug("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
		)

		return existingUser, nil
	}

	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

// GetByID получает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// BecomeTutor делает пользователя репетитором
func (s *UserService) BecomeTutor(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if user.IsTutor {
		return nil
	}

	user.IsTutor = true
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User became tutor",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return nil
}

// ListTutors список репетиторов
func (s *UserService) ListTutors(ctx context.Context) ([]*model.User, error) {
	return s.users.ListTutors(ctx)
}

// AddChild добавляет ребёнка пользователю
func (s *UserService) AddChild(ctx context.Context, parentID int64, in AddChildInput) (*model.Child, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	child := &model.Child{ParentID: parentID, Name: in.Name}
	if err := s.children.Create(ctx, child); err != nil {
		return nil, fmt.Errorf("create child: %w", err)
	}

	s.logger.Info("Child added",
		zap.Int64("parent_id", parentID),
		zap.Int64("child_id", child.ID),
	)

	return child, nil
}

// ListChildren дети пользователя
func (s *UserService) ListChildren(ctx context.Context, parentID int64) ([]*model.Child, error) {
	return s.children.ListByParent(ctx, parentID)
}

// ownedChild получает ребёнка и проверяет что он принадлежит родителю
func ownedChild(ctx context.Context, children ChildStore, parentID, childID int64) (*model.Child, error) {
	child, err := children.GetByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	if child == nil {
		return nil, fmt.Errorf("child %d: %w", childID, ErrNotFound)
	}
	if child.ParentID != parentID {
		return nil, fmt.Errorf("child %d: %w", childID, ErrNotOwner)
	}
	return child, nil
}
