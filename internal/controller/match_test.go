package controller

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func TestMatchCommand(t *testing.T) {
	match := matchCommand("book")
	msg := func(text string) *models.Update {
		return &models.Update{Message: &models.Message{Text: text}}
	}

	assert.True(t, match(msg("/book")))
	assert.True(t, match(msg("/book 2 2024-03-04 15:00 60")))
	assert.True(t, match(msg("/book@tutor_bot 2")))
	assert.False(t, match(msg("/bookings")))
	assert.False(t, match(msg("book")))
	assert.False(t, match(msg("")))
	assert.False(t, match(&models.Update{}))
}
