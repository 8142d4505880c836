package core

import (
	"context"
	"time"
)

// VerificationEventType identifies a verification lifecycle event.
type VerificationEventType string

const (
	VerificationEventCodeIssued VerificationEventType = "code_issued"
	VerificationEventConfirmed  VerificationEventType = "confirmed"
)

// VerificationEvent is a best-effort, append-only lifecycle record intended for
// external sinks.
type VerificationEvent struct {
	OccurredAt time.Time
	Issuer     string
	UserID     string
	Event      VerificationEventType
	Email      *string
}

// VerificationEventLogger records verification lifecycle events to an external
// sink. Implementations should be non-blocking and best-effort.
type VerificationEventLogger interface {
	LogVerificationEvent(ctx context.Context, e VerificationEvent) error
}
