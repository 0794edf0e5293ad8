package domain

import "errors"

var (
	// ErrStorageUnavailable means the transcript location cannot be opened or
	// created at all. It is the only fatal error at startup.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageWrite       = errors.New("storage write failed")
	ErrProvider           = errors.New("completion provider failed")
	ErrDelivery           = errors.New("notification delivery failed")
)
