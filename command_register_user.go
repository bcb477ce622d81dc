package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type RegisterUserMessage struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	UseHashid  bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the fields registration cannot proceed without. Field
// length and pattern policies live with the transport layer.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Username, validation.Required),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required),
		validation.Field(&e.Name, validation.Required),
	)
}

// RegisterUserHandler runs registrations dispatched as commands.
type RegisterUserHandler struct {
	auth Authenticator
}

func NewRegisterUserHandler(auth Authenticator) *RegisterUserHandler {
	return &RegisterUserHandler{auth: auth}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		_, err := h.auth.Register(ctx, event)
		return err
	}
}
