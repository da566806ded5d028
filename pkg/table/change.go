package table

import (
	"fmt"

	"l7mp.io/tableflow/pkg/util"
)

// Change is one table update: the prior and the current value for a key.
// A nil Old is an insert, a nil New a deletion (retraction). Processors of
// nodes whose retraction flag is off receive changes with Old unset.
type Change struct {
	Old any
	New any
}

func (c Change) String() string {
	return fmt.Sprintf("(%s->%s)", util.Stringify(c.Old), util.Stringify(c.New))
}

func changeOf(value any) (Change, error) {
	c, ok := value.(Change)
	if !ok {
		return Change{}, fmt.Errorf("expected a change record, got %T", value)
	}
	return c, nil
}
