package csvimport

import (
	"errors"
	"fmt"
)

// ErrEmptyFile is returned when the sheet has no content at all
var ErrEmptyFile = errors.New("CSV file is empty")

// MissingColumnError is returned when the header row lacks one of the
// required columns.
type MissingColumnError struct {
	Column string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column '%s'", e.Column)
}
