package patterns

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/receipts/internal/model"
)

// ErrPatternNotFound is returned when an operation names an unknown pattern ID.
var ErrPatternNotFound = errors.New("pattern not found")

// ConfigurationError describes one catalogue entry that could not be loaded.
// The entry is skipped; the rest of the catalogue stays usable.
type ConfigurationError struct {
	Category   model.Category
	Index      int // position within the category list, 0-based
	Expression string
	Err        error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s pattern %d %q: %v", e.Category, e.Index, e.Expression, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DuplicatePatternError is returned when an expression is already in the catalogue.
type DuplicatePatternError struct {
	Expression string
	ExistingID string
}

func (e *DuplicatePatternError) Error() string {
	return fmt.Sprintf("pattern %q already exists as %s", e.Expression, e.ExistingID)
}
