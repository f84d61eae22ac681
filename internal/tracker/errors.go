package tracker

import (
	"errors"
	"fmt"
)

// Operation errors. Callers match them with errors.Is; the wrapped message
// is meant to be shown to the user as-is.
var (
	// ErrInvalidInput is returned when a required field is missing or a
	// quantity is out of range. No state is changed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingField is the ErrInvalidInput returned when a required field
	// is blank.
	ErrMissingField = fmt.Errorf("%w: missing field", ErrInvalidInput)

	// ErrItemNotFound is returned when no inventory item has the given UPC.
	ErrItemNotFound = errors.New("item not found")

	// ErrInsufficientStock is returned when a removal asks for more units
	// than the item holds.
	ErrInsufficientStock = errors.New("insufficient stock")
)
