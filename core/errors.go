package core

import "errors"

var (
	// ErrProfileNotFound is returned when no profile row matches the identifier.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrCodeMismatch is returned when a submitted code does not equal the
	// profile's current verification code (or no code is outstanding).
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrStoreUnavailable is returned when the profile store has not been
	// configured or its backing connection is unusable.
	ErrStoreUnavailable = errors.New("profile store unavailable")
)
