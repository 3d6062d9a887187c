package repository

import "errors"

var (
	ErrInvalidDescriptorData = errors.New("invalid descriptor data")
	ErrInvalidOccurrenceData = errors.New("invalid occurrence data")
	ErrUnknownBackend        = errors.New("unknown storage backend")
)
