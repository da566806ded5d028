package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// filterSupplier derives a table keeping the entries that pass (or, with
// filterNot, fail) the predicate. A change whose new value stops passing
// while the old one passed turns into a retraction, so downstream state
// never retains a value the predicate no longer admits.
type filterSupplier struct {
	parent        *Table
	predicate     Predicate
	filterNot     bool
	sendOldValues bool
}

func (s *filterSupplier) NewProcessor() topology.Processor {
	return &filterProcessor{supplier: s}
}

func (s *filterSupplier) View() (ValueGetterSupplier, error) {
	parent, err := s.parent.valueGetterSupplier()
	if err != nil {
		return nil, err
	}
	return &filterValueGetterSupplier{supplier: s, parent: parent}, nil
}

func (s *filterSupplier) EnableSendingOldValues() error {
	if s.sendOldValues {
		return nil
	}
	if err := s.parent.enableSendingOldValues(); err != nil {
		return err
	}
	s.sendOldValues = true
	return nil
}

func (s *filterSupplier) SendingOldValues() bool { return s.sendOldValues }

// computeValue applies the predicate, mapping filtered-out values to nil.
func (s *filterSupplier) computeValue(key, value any) any {
	if value == nil {
		return nil
	}
	ok := s.predicate(key, value)
	if s.filterNot {
		ok = !ok
	}
	if ok {
		return value
	}
	return nil
}

type filterProcessor struct {
	supplier *filterSupplier
	ctx      *topology.Context
}

func (p *filterProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	return nil
}

func (p *filterProcessor) Process(key, value any) error {
	c, err := changeOf(value)
	if err != nil {
		return err
	}

	newV := p.supplier.computeValue(key, c.New)
	var oldV any
	if p.supplier.sendOldValues {
		oldV = p.supplier.computeValue(key, c.Old)
		if oldV == nil && newV == nil {
			// Neither side was ever visible downstream.
			return nil
		}
	}
	return p.ctx.Forward(key, Change{Old: oldV, New: newV})
}

type filterValueGetterSupplier struct {
	supplier *filterSupplier
	parent   ValueGetterSupplier
}

func (s *filterValueGetterSupplier) NewGetter() ValueGetter {
	return &filterValueGetter{supplier: s.supplier, parent: s.parent.NewGetter()}
}

type filterValueGetter struct {
	supplier *filterSupplier
	parent   ValueGetter
}

func (g *filterValueGetter) Init(ctx *topology.Context) error {
	return g.parent.Init(ctx)
}

func (g *filterValueGetter) Get(key any) (any, bool, error) {
	v, ok, err := g.parent.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v = g.supplier.computeValue(key, v)
	if v == nil {
		return nil, false, nil
	}
	return v, true, nil
}
