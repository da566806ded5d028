package topology

import (
	"errors"
	"fmt"
)

// ErrTopology signals an invalid construction step: duplicate or unknown
// node names, missing parents, or operands that are not joinable. Raised
// synchronously at construction time, never deferred to runtime.
var ErrTopology = errors.New("invalid topology")

func NewTopologyError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTopology, fmt.Sprintf(format, args...))
}
