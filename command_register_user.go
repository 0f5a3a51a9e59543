package authkit

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RegisterUserMessage is the payload for user registration.
type RegisterUserMessage struct {
	Email         string    `json:"email"`
	Password      string    `json:"password"`
	DisplayName   string    `json:"display_name"`
	TenantID      uuid.UUID `json:"tenant_id,omitempty"`
	InitialClaims []string  `json:"initial_claims,omitempty"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate enforces the payload invariants before any store work happens.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&e.DisplayName, validation.Length(0, 200)),
	)
}

// RegisterUserHandler executes registrations against the session façade.
type RegisterUserHandler struct {
	sessions Sessions
}

func NewRegisterUserHandler(sessions Sessions) *RegisterUserHandler {
	return &RegisterUserHandler{sessions: sessions}
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
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if _, err := h.sessions.Register(ctx, event); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration failed")
	}

	return nil
}
