package auth

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps verification sub-second on commodity hardware.
const DefaultBcryptCost = 12

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// BcryptHasher hashes credentials with bcrypt. The cost is tunable, the salt
// is generated per call and embedded in the output, and comparison is
// constant time.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher with the given cost; zero or negative
// falls back to DefaultBcryptCost.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) cost() int {
	if h.Cost > 0 {
		return h.Cost
	}
	return DefaultBcryptCost
}

// Hash generates a password hash
func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return string(out), nil
}

// Compare validates the given cleartext password against the hashed password
func (h BcryptHasher) Compare(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if goerrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
	}
	return nil
}

var _ PasswordHasher = BcryptHasher{}

// RandomPasswordHash is a throwaway credential for accounts provisioned
// without a password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := NewBcryptHasher(0).Hash(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
