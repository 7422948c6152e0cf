package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityService_AddSlot(t *testing.T) {
	f := newFixture(t)
	svc := f.availabilityService()
	ctx := context.Background()

	slot, err := svc.AddSlot(ctx, tutorID, time.Monday, clock("10:00"), clock("14:00"))
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)

	slots, err := svc.ListSlots(ctx, tutorID)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	_, err = svc.AddSlot(ctx, parentID, time.Monday, clock("10:00"), clock("14:00"))
	assert.ErrorIs(t, err, ErrNotTutor)

	_, err = svc.AddSlot(ctx, tutorID, time.Monday, clock("14:00"), clock("10:00"))
	assert.True(t, schedule.IsValidation(err))

	_, err = svc.AddSlot(ctx, tutorID, time.Weekday(7), clock("10:00"), clock("11:00"))
	assert.Equal(t, []string{"weekday"}, fieldNames(err))
}

func TestAvailabilityService_ToggleAndRemove(t *testing.T) {
	f := newFixture(t)
	svc := f.availabilityService()
	ctx := context.Background()

	slot, err := svc.AddSlot(ctx, tutorID, time.Tuesday, clock("09:00"), clock("12:00"))
	require.NoError(t, err)

	require.NoError(t, svc.SetAvailable(ctx, tutorID, slot.ID, false))
	assert.False(t, f.slots.byID[slot.ID].IsAvailable)

	available, err := svc.ToggleSlot(ctx, tutorID, slot.ID)
	require.NoError(t, err)
	assert.True(t, available)
	assert.True(t, f.slots.byID[slot.ID].IsAvailable)

	_, err = svc.ToggleSlot(ctx, strangerID, slot.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	assert.ErrorIs(t, svc.RemoveSlot(ctx, strangerID, slot.ID), ErrNotOwner)
	assert.ErrorIs(t, svc.RemoveSlot(ctx, tutorID, 999), ErrNotFound)

	require.NoError(t, svc.RemoveSlot(ctx, tutorID, slot.ID))
	assert.Empty(t, f.slots.byID)
}
