package base

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := fmt.Errorf("update activity: %w", NotFound("activity", 42))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "update activity: activity 42: record not found")
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "no rows", err: fmt.Errorf("get user: %w", pgx.ErrNoRows), want: true},
		{name: "missing record", err: NotFound("slot", 7), want: true},
		{name: "other error", err: errors.New("connection refused"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}
