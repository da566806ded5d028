package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// Predicate decides whether a key-value pair passes a filter.
type Predicate func(key, value any) bool

// ValueMapper transforms a value, keeping the key.
type ValueMapper func(value any) any

// ValueJoiner combines the values of the two join operands for one key.
// Variants that do not suppress on a missing side invoke it with a nil
// operand, so joiners used with left and outer joins must tolerate nil.
type ValueJoiner func(left, right any) any

// ForeachAction is a terminal per-record side effect.
type ForeachAction func(key, value any)

// KeyValue is a re-keyed pair produced by a group-by selector.
type KeyValue struct {
	Key   any
	Value any
}

// KeyValueMapper selects the grouping key and value for one table entry.
type KeyValueMapper func(key, value any) KeyValue

// ValueGetter is a point-lookup view into a table node's current state:
// read-only, resolved within the thread that advances the underlying store.
type ValueGetter interface {
	Init(ctx *topology.Context) error
	Get(key any) (value any, loaded bool, err error)
}

// ValueGetterSupplier creates point-lookup views over one table node.
type ValueGetterSupplier interface {
	NewGetter() ValueGetter
}

// ProcessorSupplier is the contract every table-producing processor must
// honor to participate in the point-lookup and retraction protocols. A
// derived processor's View and EnableSendingOldValues are responsible for
// recursively involving the processor's own parent as needed.
type ProcessorSupplier interface {
	topology.ProcessorSupplier

	// View returns a point-lookup view factory over the node's state.
	View() (ValueGetterSupplier, error)
	// EnableSendingOldValues switches the node to emitting (old, new)
	// pairs. Idempotent.
	EnableSendingOldValues() error
	// SendingOldValues reports whether retraction propagation is active.
	SendingOldValues() bool
}
