package signup

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventStateChanged       ActivityEventType = "signup.state.changed"
	ActivityEventValidationFailure  ActivityEventType = "signup.validation.failure"
	ActivityEventRegisterSuccess    ActivityEventType = "signup.register.success"
	ActivityEventRegisterFailure    ActivityEventType = "signup.register.failure"
	ActivityEventGoogleLoginSuccess ActivityEventType = "signup.google_login.success"
	ActivityEventGoogleLoginFailure ActivityEventType = "signup.google_login.failure"
)

// ActivityEvent captures what happened during a submission.
type ActivityEvent struct {
	EventType  ActivityEventType
	FromState  SubmissionState
	ToState    SubmissionState
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
