package story

import (
	"errors"
	"fmt"
)

// ErrNotReproducible is returned by Verify when a story's title or body is
// not what its request and salt produce.
var ErrNotReproducible = errors.New("story does not match its request and salt")

// ErrConfiguration matches every ConfigurationError.
var ErrConfiguration = errors.New("catalog configuration error")

// ConfigurationError reports that the catalog cannot serve a language.
type ConfigurationError struct {
	Language string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalog has no usable entries for language %q: %s", e.Language, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
