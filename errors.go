package gridpath

import (
	"errors"
	"fmt"
)

var (
	// ErrRunActive is reported when an edit or a new run is attempted while a
	// replay holds the grid.
	ErrRunActive = errors.New("run in progress")

	// ErrStaleResult is returned by Play when the grid was edited after the
	// snapshot the result was computed from.
	ErrStaleResult = errors.New("search result does not match grid version")
)

// ConfigError reports malformed grid initialization parameters.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid grid config: %s: %s", e.Field, e.Reason)
}

// InvariantViolation reports a rejected grid mutation. The grid is left
// untouched; callers are expected to treat the operation as a no-op.
// Position is nil for grid-wide operations.
type InvariantViolation struct {
	Op       string
	Position *Position
	Reason   string
	Err      error
}

func (e *InvariantViolation) Error() string {
	if e.Position == nil {
		return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s %s rejected: %s", e.Op, *e.Position, e.Reason)
}

func (e *InvariantViolation) Unwrap() error { return e.Err }
