package notification

import "errors"

var (
	ErrTrialEndUnknown  = errors.New("trial end date unknown for user")
	ErrEmptyBatch       = errors.New("no notifications to schedule")
	ErrDuplicateInBatch = errors.New("notification repeats an earlier one in the same batch")
)
