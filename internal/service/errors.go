package service

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNotOwner      = errors.New("does not belong to user")
	ErrNotTutor      = errors.New("user is not a tutor")
	ErrInPast        = errors.New("time is in the past")
	ErrInvalidStatus = errors.New("invalid status transition")
	ErrNotOccurrence = errors.New("date is not an occurrence of the activity")
)
