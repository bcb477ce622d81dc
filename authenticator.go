package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// BearerTokenType is the token_type value of every successful login.
const BearerTokenType = "Bearer"

// Auther orchestrates credential verification, the lockout state machine,
// permission resolution, and token issuance.
type Auther struct {
	repo         RepositoryManager
	tokens       TokenIssuer
	hasher       PasswordHasher
	resolver     PermissionResolver
	policy       LockoutPolicy
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// NewAuthenticator returns a new Authenticator wired against the repository
// manager. The RBAC resolver defaults to the manager's role directory.
func NewAuthenticator(repo RepositoryManager, tokens TokenIssuer) *Auther {
	return &Auther{
		repo:         repo,
		tokens:       tokens,
		hasher:       NewBcryptHasher(0),
		resolver:     NewResolver(repo.Roles()),
		policy:       DefaultLockoutPolicy(),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithLockoutPolicy overrides the failure threshold and lock duration.
func (s *Auther) WithLockoutPolicy(policy LockoutPolicy) *Auther {
	s.policy = policy
	return s
}

// WithPasswordHasher overrides the credential hasher.
func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithPermissionResolver overrides the RBAC resolver.
func (s *Auther) WithPermissionResolver(resolver PermissionResolver) *Auther {
	if resolver != nil {
		s.resolver = resolver
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	if clock != nil {
		s.now = clock
	}
	return s
}

// LockoutPolicy returns the active lockout policy.
func (s *Auther) LockoutPolicy() LockoutPolicy {
	return s.policy
}

// Login authenticates a username/password pair and mints an access token
// carrying the user's effective authorities. The gates run in order, each
// fail-fast: lookup, lockout evaluation, status check, credential check.
// Lockout-state writes happen inside one transaction with the evaluation
// that produced them; a failed credential check still commits its counter
// increment even though the login itself fails.
func (s *Auther) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result *LoginResult
	var loginErr error

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, loginErr = s.loginTx(ctx, tx, username, password)
		if loginErr != nil && isAuthOutcome(loginErr) {
			// commit whatever the attempt recorded, surface the outcome after
			return nil
		}
		return loginErr
	})

	if err != nil {
		s.logger.Error("login transaction failed for %s: %v", username, err)
		return nil, err
	}

	if loginErr != nil {
		return nil, loginErr
	}

	return result, nil
}

func (s *Auther) loginTx(ctx context.Context, tx bun.IDB, username, password string) (*LoginResult, error) {
	users := s.repo.Users()

	user, err := users.GetByUsernameTx(ctx, tx, username, WithUserRoles())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// unknown username answers exactly like a wrong password
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"username": username,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for login")
	}

	now := s.now()

	status, unlock := s.policy.Evaluate(user, now)
	if unlock != nil {
		if err := users.ApplyLoginStateTx(ctx, tx, user.ID, *unlock); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist auto-unlock")
		}
		unlock.Apply(user)
		s.emitAuthEvent(ctx, ActivityEventAccountUnlocked, ActorRef{Type: "system"}, user.ID.String(), nil)
	}

	if err := statusAuthError(status); err != nil {
		s.logger.Warn("login blocked for %s: status %s", username, status)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromUser(user), user.ID.String(), map[string]any{
			"username": username,
			"status":   status,
		})
		return nil, err
	}

	if err := s.hasher.Compare(password, user.PasswordHash); err != nil {
		if !goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify credentials")
		}

		if err := users.RecordFailedAttemptTx(ctx, tx, user.ID, s.policy, now); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login attempt")
		}

		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromUser(user), user.ID.String(), map[string]any{
			"username": username,
		})

		if user.FailedAttempts+1 >= s.policy.maxAttempts() {
			s.emitAuthEvent(ctx, ActivityEventAccountLocked, ActorRef{Type: "system"}, user.ID.String(), nil)
		}

		// the failure itself never announces the lock it may have tripped
		return nil, ErrInvalidCredentials
	}

	success := s.policy.RecordSuccess(user, now)
	if err := users.ApplyLoginStateTx(ctx, tx, user.ID, success); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist login state")
	}
	success.Apply(user)

	authorities, err := s.resolver.EffectivePermissions(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueAccess(user.Username, authorities)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromUser(user), user.ID.String(), map[string]any{
		"username": username,
	})

	return &LoginResult{
		AccessToken: token,
		TokenType:   BearerTokenType,
		ExpiresIn:   int64(s.tokens.AccessTokenTTL().Seconds()),
		User:        NewUserView(user),
	}, nil
}

// Register creates a new ACTIVE user after verifying username, email, and
// employee ID are each globally unique, in that order. The checks and the
// insert share one transaction; the first violation aborts and nothing is
// persisted. DB unique constraints remain the backstop for racing
// registrations.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*UserView, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration request")
	}

	hash, err := s.hasher.Hash(msg.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     msg.Username,
		Email:        msg.Email,
		EmployeeID:   msg.EmployeeID,
		PasswordHash: hash,
		Name:         msg.Name,
		Department:   msg.Department,
		Position:     msg.Position,
		Phone:        normalizePhone(msg.Phone),
		Status:       UserStatusActive,
	}

	if msg.UseHashid {
		if id, err := hashid.NewUUID(msg.Email); err == nil {
			user.ID = id
		}
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := s.repo.Users()

		if taken, err := users.ExistsByUsernameTx(ctx, tx, msg.Username); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username uniqueness")
		} else if taken {
			return ErrDuplicateUsername
		}

		if taken, err := users.ExistsByEmailTx(ctx, tx, msg.Email); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		} else if taken {
			return ErrDuplicateEmail
		}

		if taken, err := users.ExistsByEmployeeIDTx(ctx, tx, msg.EmployeeID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check employee ID uniqueness")
		} else if taken {
			return ErrDuplicateEmployeeID
		}

		created, err := users.RegisterTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		user = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventUserRegistered, s.actorFromUser(user), user.ID.String(), map[string]any{
		"username": user.Username,
	})

	return NewUserView(user), nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}

// isAuthOutcome reports whether the error is an authentication verdict
// rather than an infrastructure failure. Verdicts commit the state their
// attempt recorded; infrastructure failures roll it back and surface as a
// distinct kind.
func isAuthOutcome(err error) bool {
	return goerrors.Is(err, ErrInvalidCredentials) ||
		goerrors.Is(err, ErrAccountLocked) ||
		goerrors.Is(err, ErrAccountDisabled)
}

var _ Authenticator = (*Auther)(nil)
