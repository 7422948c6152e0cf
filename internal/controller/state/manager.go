package state

import (
	"maps"
	"sync"
)

// Manager управляет состояниями пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя, сохраняя данные диалога
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		// Если состояние None, удаляем запись
		delete(sm.states, telegramID)
		return
	}

	sm.entry(telegramID).State = state
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(telegramID int64, key string) (any, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		value, ok := userData.Data[key]
		return value, ok
	}
	return nil, false
}

// SetData устанавливает временные данные пользователя
func (sm *Manager) SetData(telegramID int64, key string, value any) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.entry(telegramID).Data[key] = value
}

// Advance сохраняет значение шага и переводит диалог в следующее состояние
func (sm *Manager) Advance(telegramID int64, key string, value any, next UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	e := sm.entry(telegramID)
	e.Data[key] = value
	e.State = next
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// GetAllData получает копию всех временных данных пользователя
func (sm *Manager) GetAllData(telegramID int64) map[string]any {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return maps.Clone(userData.Data)
	}
	return nil
}

// Get типизированно читает значение диалога
func Get[T any](sm *Manager, telegramID int64, key string) (T, bool) {
	var zero T
	value, ok := sm.GetData(telegramID, key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}

func (sm *Manager) entry(telegramID int64) *UserData {
	e, exists := sm.states[telegramID]
	if !exists {
		e = &UserData{State: StateNone, Data: make(map[string]any)}
		sm.states[telegramID] = e
	}
	return e
}
