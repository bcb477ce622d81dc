package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess      ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure      ActivityEventType = "auth.login.failure"
	ActivityEventUserRegistered    ActivityEventType = "user.registered"
	ActivityEventUserStatusChanged ActivityEventType = "user.status.changed"
	ActivityEventAccountLocked     ActivityEventType = "auth.account.locked"
	ActivityEventAccountUnlocked   ActivityEventType = "auth.account.unlocked"
	ActivityEventPasswordChanged   ActivityEventType = "user.password.changed"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	UserID     string
	FromStatus UserStatus
	ToStatus   UserStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged, never surfaced to the caller.
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

func (noopActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	return nil
}

func normalizeActivitySink(sink ActivitySink) ActivitySink {
	if sink == nil {
		return noopActivitySink{}
	}
	return sink
}
