package table

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a nil or missing construction parameter.
	// Raised before any graph mutation; construction is all-or-nothing.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotMaterialized signals a point-lookup view or retraction
	// activation requested against a source with no backing store. This is
	// a construction-order bug in the caller, not a transient condition.
	ErrNotMaterialized = errors.New("source is not materialized")
)

func NewInvalidArgumentError(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func NewNotMaterializedError(storeName string) error {
	return fmt.Errorf("%w: store %s", ErrNotMaterialized, storeName)
}
