package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=8,max=128"`
}

// ValidateRegister enforces the account rules before any hashing work.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid registration: %w", err)
	}
	return nil
}
