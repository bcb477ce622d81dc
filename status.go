package auth

// UserStatus is the lifecycle status of a user account
type UserStatus string

const (
	// UserStatusActive accounts may authenticate
	UserStatusActive UserStatus = "ACTIVE"
	// UserStatusInactive accounts exist but may not authenticate
	UserStatusInactive UserStatus = "INACTIVE"
	// UserStatusLocked accounts tripped the failed-attempt threshold
	UserStatusLocked UserStatus = "LOCKED"
	// UserStatusSuspended accounts were administratively disabled
	UserStatusSuspended UserStatus = "SUSPENDED"
	// UserStatusResigned accounts belong to people who left
	UserStatusResigned UserStatus = "RESIGNED"
)

// IsValid checks if the status is one of the predefined statuses
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusLocked,
		UserStatusSuspended, UserStatusResigned:
		return true
	default:
		return false
	}
}

// CanAuthenticate reports whether the status admits a credential check.
// Only ACTIVE accounts authenticate; LOCKED accounts may become ACTIVE
// again through LockoutPolicy.Evaluate.
func (s UserStatus) CanAuthenticate() bool {
	return s == UserStatusActive
}

// AutoUnlocks reports whether an expired lock window releases the account.
// Administratively disabled statuses never auto-unlock.
func (s UserStatus) AutoUnlocks() bool {
	return s == UserStatusLocked
}

// GetAllStatuses returns all predefined statuses
func GetAllStatuses() []UserStatus {
	return []UserStatus{
		UserStatusActive,
		UserStatusInactive,
		UserStatusLocked,
		UserStatusSuspended,
		UserStatusResigned,
	}
}

// ParseStatus safely parses a string into a UserStatus type
func ParseStatus(statusStr string) (UserStatus, bool) {
	status := UserStatus(statusStr)
	return status, status.IsValid()
}

// orDefault substitutes ACTIVE for an unset status without touching the record.
func (s UserStatus) orDefault() UserStatus {
	if s == "" {
		return UserStatusActive
	}
	return s
}

// statusAuthError maps a user status to the error a login attempt should
// surface. ACTIVE yields nil.
func statusAuthError(status UserStatus) error {
	switch status {
	case UserStatusActive:
		return nil
	case UserStatusLocked:
		return ErrAccountLocked
	default:
		return ErrAccountDisabled
	}
}
