package contextutils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// InvalidEmailMessage is the caller-facing message for a malformed address
const InvalidEmailMessage = "Invalid email address"

// IsValidEmail reports whether email is a syntactically valid address
func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// NormalizeEmail trims surrounding whitespace and validates the address.
// A malformed address yields ErrInvalidInput carrying InvalidEmailMessage.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if !IsValidEmail(email) {
		return "", WithMessage(ErrInvalidInput, InvalidEmailMessage)
	}
	return email, nil
}
