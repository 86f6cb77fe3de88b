package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned when a required parameter is absent.
	ErrMissingKey = errors.New("missing parameter")
	// ErrInvalidValue is returned when a parameter cannot be converted to
	// the requested type.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// KeyError attaches the offending parameter name to a lookup failure.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("parameter %s: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func missing(key string) error {
	return &KeyError{Key: key, Err: ErrMissingKey}
}

func invalid(key string, err error) error {
	return &KeyError{Key: key, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
}
