package table

type joinKind int

const (
	joinKindInner joinKind = iota
	joinKindLeft
	joinKindOuter
)

// reverseJoiner flips the operand order so the same combining function can
// serve the reaction processor of the opposite side.
func reverseJoiner(joiner ValueJoiner) ValueJoiner {
	return func(left, right any) any { return joiner(right, left) }
}

// Join derives the inner join of two tables: a result exists for a key only
// while both sides have a value.
func (t *Table) Join(other *Table, joiner ValueJoiner) (*Table, error) {
	return t.joinWith(other, joiner, joinKindInner)
}

// LeftJoin derives the left join: the left side drives existence, a missing
// right value is passed to the joiner as nil.
func (t *Table) LeftJoin(other *Table, joiner ValueJoiner) (*Table, error) {
	return t.joinWith(other, joiner, joinKindLeft)
}

// OuterJoin derives the outer join: either side alone produces a result,
// with the missing operand passed as nil.
func (t *Table) OuterJoin(other *Table, joiner ValueJoiner) (*Table, error) {
	return t.joinWith(other, joiner, joinKindOuter)
}

// joinWith builds the three-node join subgraph: one reaction processor per
// operand, each looking up the opposite side's current value through its
// point-lookup view, and a merge node unioning the two reaction outputs.
// Each underlying source change triggers exactly one reaction path, so the
// merge node needs no deduplication.
func (t *Table) joinWith(other *Table, joiner ValueJoiner, kind joinKind) (*Table, error) {
	if other == nil {
		return nil, NewInvalidArgumentError("other table must not be nil")
	}
	if joiner == nil {
		return nil, NewInvalidArgumentError("joiner must not be nil")
	}

	allSources, err := t.ensureJoinableWith(other)
	if err != nil {
		return nil, err
	}

	// Both reaction paths read the opposite side's current value and
	// retract results computed from their own side's old value, so both
	// operands must be materialized (when source-backed) and must send old
	// values before any node is wired.
	if err := t.Materialize(); err != nil {
		return nil, err
	}
	if err := other.Materialize(); err != nil {
		return nil, err
	}
	if err := t.enableSendingOldValues(); err != nil {
		return nil, err
	}
	if err := other.enableSendingOldValues(); err != nil {
		return nil, err
	}

	thisView, err := t.valueGetterSupplier()
	if err != nil {
		return nil, err
	}
	otherView, err := other.valueGetterSupplier()
	if err != nil {
		return nil, err
	}

	var joinThis, joinOther ProcessorSupplier
	var thisName, otherName string
	topo := t.builder.topo
	switch kind {
	case joinKindInner:
		thisName = topo.NewNodeName(joinThisPrefix)
		otherName = topo.NewNodeName(joinOtherPrefix)
		joinThis = &innerJoinSupplier{ownView: thisView, otherView: otherView, joiner: joiner}
		joinOther = &innerJoinSupplier{ownView: otherView, otherView: thisView, joiner: reverseJoiner(joiner)}
	case joinKindLeft:
		thisName = topo.NewNodeName(leftThisPrefix)
		otherName = topo.NewNodeName(leftOtherPrefix)
		joinThis = &leftJoinSupplier{ownView: thisView, otherView: otherView, joiner: joiner}
		joinOther = &rightJoinSupplier{ownView: otherView, otherView: thisView, joiner: reverseJoiner(joiner)}
	case joinKindOuter:
		thisName = topo.NewNodeName(outerThisPrefix)
		otherName = topo.NewNodeName(outerOtherPrefix)
		joinThis = &outerJoinSupplier{ownView: thisView, otherView: otherView, joiner: joiner}
		joinOther = &outerJoinSupplier{ownView: otherView, otherView: thisView, joiner: reverseJoiner(joiner)}
	}
	mergeName := topo.NewNodeName(mergePrefix)

	merger := &joinMergerSupplier{
		parent1: t.derive(thisName, joinThis, t.storeName),
		parent2: other.derive(otherName, joinOther, other.storeName),
	}

	if err := topo.AddProcessor(thisName, joinThis, t.name); err != nil {
		return nil, err
	}
	if err := topo.AddProcessor(otherName, joinOther, other.name); err != nil {
		return nil, err
	}
	if err := topo.AddProcessor(mergeName, merger, thisName, otherName); err != nil {
		return nil, err
	}

	t.builder.log.V(2).Info("registered join", "merge", mergeName,
		"this", thisName, "other", otherName)

	// Join results are not materialized by default and their provenance is
	// the union of both operands' sources.
	return &Table{
		builder:     t.builder,
		name:        mergeName,
		supplier:    merger,
		sourceNodes: allSources,
		keySerde:    t.keySerde,
	}, nil
}
