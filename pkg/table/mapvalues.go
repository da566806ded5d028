package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// mapValuesSupplier derives a table with every value transformed, keys and
// deletions passing through untouched.
type mapValuesSupplier struct {
	parent        *Table
	mapper        ValueMapper
	sendOldValues bool
}

func (s *mapValuesSupplier) NewProcessor() topology.Processor {
	return &mapValuesProcessor{supplier: s}
}

func (s *mapValuesSupplier) View() (ValueGetterSupplier, error) {
	parent, err := s.parent.valueGetterSupplier()
	if err != nil {
		return nil, err
	}
	return &mapValuesGetterSupplier{supplier: s, parent: parent}, nil
}

func (s *mapValuesSupplier) EnableSendingOldValues() error {
	if s.sendOldValues {
		return nil
	}
	if err := s.parent.enableSendingOldValues(); err != nil {
		return err
	}
	s.sendOldValues = true
	return nil
}

func (s *mapValuesSupplier) SendingOldValues() bool { return s.sendOldValues }

func (s *mapValuesSupplier) computeValue(value any) any {
	if value == nil {
		return nil
	}
	return s.mapper(value)
}

type mapValuesProcessor struct {
	supplier *mapValuesSupplier
	ctx      *topology.Context
}

func (p *mapValuesProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	return nil
}

func (p *mapValuesProcessor) Process(key, value any) error {
	c, err := changeOf(value)
	if err != nil {
		return err
	}

	newV := p.supplier.computeValue(c.New)
	var oldV any
	if p.supplier.sendOldValues {
		oldV = p.supplier.computeValue(c.Old)
	}
	return p.ctx.Forward(key, Change{Old: oldV, New: newV})
}

type mapValuesGetterSupplier struct {
	supplier *mapValuesSupplier
	parent   ValueGetterSupplier
}

func (s *mapValuesGetterSupplier) NewGetter() ValueGetter {
	return &mapValuesGetter{supplier: s.supplier, parent: s.parent.NewGetter()}
}

type mapValuesGetter struct {
	supplier *mapValuesSupplier
	parent   ValueGetter
}

func (g *mapValuesGetter) Init(ctx *topology.Context) error {
	return g.parent.Init(ctx)
}

func (g *mapValuesGetter) Get(key any) (any, bool, error) {
	v, ok, err := g.parent.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	return g.supplier.computeValue(v), true, nil
}
