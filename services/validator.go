package services

import (
	"estate-desk/domain"
	"estate-desk/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateCommand checks the struct tags of a command before any store access.
func validateCommand(cmd domain.Command) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrInvalidRequest, cmd.Name(), err)
	}
	return nil
}
