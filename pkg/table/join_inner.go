package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// innerJoinSupplier is one side of an inner table-table join: it reacts to
// its own side's changes and completes them with the opposite side's
// current value. No value on the opposite side means no output at all.
// The same type serves both sides, the other side with a reversed joiner.
type innerJoinSupplier struct {
	ownView       ValueGetterSupplier
	otherView     ValueGetterSupplier
	joiner        ValueJoiner
	sendOldValues bool
}

func (s *innerJoinSupplier) NewProcessor() topology.Processor {
	return &innerJoinProcessor{supplier: s}
}

func (s *innerJoinSupplier) View() (ValueGetterSupplier, error) {
	return &innerJoinGetterSupplier{supplier: s}, nil
}

// EnableSendingOldValues only flips the local flag: the join constructor
// has already activated retraction on both operands.
func (s *innerJoinSupplier) EnableSendingOldValues() error {
	s.sendOldValues = true
	return nil
}

func (s *innerJoinSupplier) SendingOldValues() bool { return s.sendOldValues }

type innerJoinProcessor struct {
	supplier *innerJoinSupplier
	ctx      *topology.Context
	other    ValueGetter
}

func (p *innerJoinProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	p.other = p.supplier.otherView.NewGetter()
	return p.other.Init(ctx)
}

func (p *innerJoinProcessor) Process(key, value any) error {
	if key == nil {
		p.ctx.Logger().V(1).Info("skipping record with nil key")
		return nil
	}
	c, err := changeOf(value)
	if err != nil {
		return err
	}
	if c.New == nil && c.Old == nil {
		return nil
	}

	otherV, ok, err := p.other.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		// Inner join: no match, no output.
		return nil
	}

	var newV, oldV any
	if c.New != nil {
		newV = p.supplier.joiner(c.New, otherV)
	}
	if p.supplier.sendOldValues && c.Old != nil {
		oldV = p.supplier.joiner(c.Old, otherV)
	}
	return p.ctx.Forward(key, Change{Old: oldV, New: newV})
}

type innerJoinGetterSupplier struct {
	supplier *innerJoinSupplier
}

func (s *innerJoinGetterSupplier) NewGetter() ValueGetter {
	return &innerJoinGetter{
		joiner: s.supplier.joiner,
		own:    s.supplier.ownView.NewGetter(),
		other:  s.supplier.otherView.NewGetter(),
	}
}

type innerJoinGetter struct {
	joiner ValueJoiner
	own    ValueGetter
	other  ValueGetter
}

func (g *innerJoinGetter) Init(ctx *topology.Context) error {
	if err := g.own.Init(ctx); err != nil {
		return err
	}
	return g.other.Init(ctx)
}

func (g *innerJoinGetter) Get(key any) (any, bool, error) {
	v1, ok, err := g.own.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v2, ok, err := g.other.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	return g.joiner(v1, v2), true, nil
}
