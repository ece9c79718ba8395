package agent

import (
	"errors"
	"fmt"
)

// ErrValidation marks request errors caused by client input.
var ErrValidation = errors.New("validation failed")

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
