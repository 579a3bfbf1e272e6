package reset

import (
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("missing required field")

// ValidationError is caller-caused and never reaches the Sender.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMissingField, e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrMissingField }

// DeliveryError wraps whatever the Sender returned.
type DeliveryError struct {
	Provider string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StatusCode maps an error from this package onto the response status.
func StatusCode(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return 400
	}
	return 500
}
