package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	TelegramToken string
	DBDSN         string
	Environment   string
	Timezone      *time.Location

	// Пустой путь - встроенные миграции
	MigrationsDir string

	// Максимальное окно развёртки правил без границы, в днях
	ExpansionMaxDays int

	MaterializeCron  string
	ReminderCron     string
	ReminderLookahead time.Duration

	CalDAV CalDAVConfig
}

// CalDAVConfig публикация календаря. Выключена если URL пустой.
type CalDAVConfig struct {
	URL          string
	User         string
	Password     string
	CalendarPath string
}

func (c CalDAVConfig) Enabled() bool {
	return c.URL != ""
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Отсутствие .env не ошибка
	_ = godotenv.Load(".env")

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из функции чтения переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:   getenv("TELEGRAM_TOKEN"),
		DBDSN:           getenv("DB_DSN"),
		Environment:     getenv("ENV"),
		MigrationsDir:   getenv("MIGRATIONS_DIR"),
		MaterializeCron: getenv("MATERIALIZE_CRON"),
		ReminderCron:    getenv("REMINDER_CRON"),
		CalDAV: CalDAVConfig{
			URL:          getenv("CALDAV_URL"),
			User:         getenv("CALDAV_USER"),
			Password:     getenv("CALDAV_PASSWORD"),
			CalendarPath: getenv("CALDAV_CALENDAR_PATH"),
		},
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MaterializeCron == "" {
		cfg.MaterializeCron = "0 3 * * *"
	}
	if cfg.ReminderCron == "" {
		cfg.ReminderCron = "* * * * *"
	}

	var errs []error

	tz := getenv("TIMEZONE")
	if tz == "" {
		tz = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	cfg.Timezone = loc

	if cfg.ExpansionMaxDays, err = intVar(getenv, "EXPANSION_MAX_DAYS", 366); err != nil {
		errs = append(errs, err)
	} else if cfg.ExpansionMaxDays < 1 {
		errs = append(errs, errors.New("EXPANSION_MAX_DAYS must be positive"))
	}

	lookahead, err := intVar(getenv, "REMINDER_LOOKAHEAD_MINUTES", 1440)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.ReminderLookahead = time.Duration(lookahead) * time.Minute

	for name, expr := range map[string]string{"MATERIALIZE_CRON": cfg.MaterializeCron, "REMINDER_CRON": cfg.ReminderCron} {
		if _, err := cron.ParseStandard(expr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required but not set"))
	}
	if cfg.CalDAV.Enabled() && cfg.CalDAV.CalendarPath == "" {
		errs = append(errs, errors.New("CALDAV_CALENDAR_PATH is required when CALDAV_URL is set"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intVar(getenv func(string) string, name string, def int) (int, error) {
	s := getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}
