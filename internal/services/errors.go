package services

import "errors"

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("application already exists")
	ErrNotFound         = errors.New("application not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)
