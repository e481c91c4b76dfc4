package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/meditrack/identity/internal/models"
	"github.com/meditrack/identity/pkg/auth"
)

// Shared validator instance (reused across all services)
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// username: charset restricted to [A-Za-z0-9_.-], length checked by min/max tags
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return auth.ValidateUsername(fl.Field().String()) == nil
	})
	return v
}

// registerInput is the shape of a self-service registration request.
type registerInput struct {
	Username string `validate:"required,min=3,max=64,username"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"required"`
}

// createUserInput is the shape of an admin-initiated account creation.
type createUserInput struct {
	Username string `validate:"required,min=3,max=64,username"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"required"`
}

// validateInput runs struct validation and maps field failures onto the
// error taxonomy so callers can correct input locally.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		switch ve[0].Field() {
		case "Username":
			return fmt.Errorf("%w: %s", models.ErrInvalidUsername, formatValidationError(ve[0]))
		case "Password":
			return fmt.Errorf("%w: %s", models.ErrInvalidPassword, formatValidationError(ve[0]))
		case "Role":
			return models.ErrInvalidRole
		}
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "username":
		return "can only contain letters, digits, '.', '_' or '-'"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// requireAdmin re-checks, against the live store, that the caller currently
// holds an active Admin account. Cached session flags are deliberately not
// trusted here.
func requireAdmin(ctx context.Context, users UserStore, username string) (*models.User, error) {
	caller, err := users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrForbidden
		}
		return nil, err
	}
	if !caller.IsActive || caller.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	return caller, nil
}
