package ipc

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSignal indicates a name that is neither a block signal nor
	// a "<loop>><signal>" reference.
	ErrUnknownSignal = errors.New("ipc: unknown signal")

	// ErrUnknownBlock indicates a "<loop>><signal>" reference whose loop
	// does not exist or does not publish the signal.
	ErrUnknownBlock = errors.New("ipc: unknown block signal")
)

// ConfigError reports which control loop rejected its configuration.
type ConfigError struct {
	Loop    string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ipc: %s loop: %v", e.Loop, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// LookupError wraps a failed signal lookup with the requested name.
type LookupError struct {
	Name    string
	Wrapped error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %q", e.Wrapped, e.Name)
}

func (e *LookupError) Unwrap() error {
	return e.Wrapped
}
