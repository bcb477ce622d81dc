package auth

import (
	"time"
)

const (
	// DefaultMaxFailedAttempts locks an account on the fifth consecutive failure
	DefaultMaxFailedAttempts = 5
	// DefaultLockDuration is how long a tripped account stays locked
	DefaultLockDuration = time.Hour
)

// LockoutPolicy governs when repeated credential failures lock an account
// and when an expired lock releases it. Transitions are pure: every method
// returns a LockoutMutation describing the fields to persist, and the caller
// applies it inside the same unit of work as any subsequent write. Nothing
// here touches the store.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockDuration      time.Duration
}

// DefaultLockoutPolicy returns the policy with the stock threshold and window.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		LockDuration:      DefaultLockDuration,
	}
}

func (p LockoutPolicy) maxAttempts() int {
	if p.MaxFailedAttempts > 0 {
		return p.MaxFailedAttempts
	}
	return DefaultMaxFailedAttempts
}

func (p LockoutPolicy) lockDuration() time.Duration {
	if p.LockDuration > 0 {
		return p.LockDuration
	}
	return DefaultLockDuration
}

// LockoutMutation is the persistable outcome of a lockout transition. It
// carries the full lockout-relevant field set: Apply overwrites status,
// failed_attempts, locked_until, and last_login_at with these values.
type LockoutMutation struct {
	Status         UserStatus
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// Apply copies the mutation onto the in-memory user.
func (m LockoutMutation) Apply(user *User) {
	if user == nil {
		return
	}
	user.Status = m.Status
	user.FailedAttempts = m.FailedAttempts
	user.LockedUntil = m.LockedUntil
	user.LastLoginAt = m.LastLoginAt
}

// Evaluate computes the user's effective status at the given instant. When a
// LOCKED account's window has expired it returns ACTIVE plus the auto-unlock
// mutation the caller must persist; in every other case the mutation is nil.
// INACTIVE, SUSPENDED, and RESIGNED accounts never auto-unlock.
func (p LockoutPolicy) Evaluate(user *User, now time.Time) (UserStatus, *LockoutMutation) {
	if user == nil {
		return "", nil
	}

	status := user.Status.orDefault()

	if !status.AutoUnlocks() {
		return status, nil
	}

	if user.LockedUntil != nil && now.After(*user.LockedUntil) {
		mutation := p.Unlock(user)
		return mutation.Status, &mutation
	}

	return UserStatusLocked, nil
}

// RecordFailure increments the failure counter; reaching the threshold locks
// the account until now + LockDuration.
func (p LockoutPolicy) RecordFailure(user *User, now time.Time) LockoutMutation {
	mutation := LockoutMutation{
		Status:         user.Status.orDefault(),
		FailedAttempts: user.FailedAttempts + 1,
		LockedUntil:    user.LockedUntil,
		LastLoginAt:    user.LastLoginAt,
	}

	if mutation.FailedAttempts >= p.maxAttempts() {
		lockedUntil := now.Add(p.lockDuration())
		mutation.Status = UserStatusLocked
		mutation.LockedUntil = &lockedUntil
	}

	return mutation
}

// RecordSuccess stamps the login time and resets the failure counter.
func (p LockoutPolicy) RecordSuccess(user *User, now time.Time) LockoutMutation {
	loginAt := now
	return LockoutMutation{
		Status:         user.Status.orDefault(),
		FailedAttempts: 0,
		LockedUntil:    nil,
		LastLoginAt:    &loginAt,
	}
}

// Unlock releases the account: ACTIVE, counter reset, window cleared. Used by
// the auto-unlock path and by explicit administrative moves to ACTIVE.
func (p LockoutPolicy) Unlock(user *User) LockoutMutation {
	return LockoutMutation{
		Status:         UserStatusActive,
		FailedAttempts: 0,
		LockedUntil:    nil,
		LastLoginAt:    user.LastLoginAt,
	}
}
