package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	return &models.Message{}, f.err
}

func dueReminder() service.DueReminder {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	return service.DueReminder{
		ChatID: 555,
		Occurrence: model.Occurrence{
			Title:     "Бассейн <3",
			Date:      day,
			StartTime: model.NewClock(17, 0),
			EndTime:   model.NewClock(18, 0),
			Location:  "ФОК",
		},
		StartsAt: day.Add(17 * time.Hour),
	}
}

func TestNotifier_NotifyReminder(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, time.UTC)

	require.NoError(t, n.NotifyReminder(context.Background(), dueReminder()))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(555), sender.sent[0].ChatID)
	assert.Equal(t, models.ParseModeHTML, sender.sent[0].ParseMode)
	assert.Equal(t, "🔔 <b>Бассейн &lt;3</b>\nПн 04.03, 17:00-18:00\n📍 ФОК", sender.sent[0].Text)
}

func TestNotifier_SendError(t *testing.T) {
	n := NewNotifier(&fakeSender{err: errors.New("forbidden")}, time.UTC)

	err := n.NotifyReminder(context.Background(), dueReminder())
	assert.ErrorContains(t, err, "send reminder")
}
