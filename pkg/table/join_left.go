package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// leftJoinSupplier is the left-side reaction of a left join: the left side
// drives existence, so a missing right value never suppresses output; the
// joiner runs with a nil right operand instead.
type leftJoinSupplier struct {
	ownView       ValueGetterSupplier
	otherView     ValueGetterSupplier
	joiner        ValueJoiner
	sendOldValues bool
}

func (s *leftJoinSupplier) NewProcessor() topology.Processor {
	return &leftJoinProcessor{supplier: s}
}

func (s *leftJoinSupplier) View() (ValueGetterSupplier, error) {
	return &leftJoinGetterSupplier{supplier: s}, nil
}

func (s *leftJoinSupplier) EnableSendingOldValues() error {
	s.sendOldValues = true
	return nil
}

func (s *leftJoinSupplier) SendingOldValues() bool { return s.sendOldValues }

type leftJoinProcessor struct {
	supplier *leftJoinSupplier
	ctx      *topology.Context
	other    ValueGetter
}

func (p *leftJoinProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	p.other = p.supplier.otherView.NewGetter()
	return p.other.Init(ctx)
}

func (p *leftJoinProcessor) Process(key, value any) error {
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

	// An absent right value is a defined missing operand, not a reason to
	// suppress.
	otherV, _, err := p.other.Get(key)
	if err != nil {
		return err
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

type leftJoinGetterSupplier struct {
	supplier *leftJoinSupplier
}

func (s *leftJoinGetterSupplier) NewGetter() ValueGetter {
	return &leftJoinGetter{
		joiner: s.supplier.joiner,
		own:    s.supplier.ownView.NewGetter(),
		other:  s.supplier.otherView.NewGetter(),
	}
}

type leftJoinGetter struct {
	joiner ValueJoiner
	own    ValueGetter
	other  ValueGetter
}

func (g *leftJoinGetter) Init(ctx *topology.Context) error {
	if err := g.own.Init(ctx); err != nil {
		return err
	}
	return g.other.Init(ctx)
}

func (g *leftJoinGetter) Get(key any) (any, bool, error) {
	v1, ok, err := g.own.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v2, _, err := g.other.Get(key)
	if err != nil {
		return nil, false, err
	}
	return g.joiner(v1, v2), true, nil
}

// rightJoinSupplier is the right-side reaction of a left join, built with
// the reversed joiner: a right-side change can only produce output while
// the left side has a value, but when it does, the result is recomputed
// even for a right-side deletion (the joiner then sees a nil right
// operand), so downstream state falls back to the left-only result instead
// of dropping the key.
type rightJoinSupplier struct {
	ownView       ValueGetterSupplier
	otherView     ValueGetterSupplier
	joiner        ValueJoiner
	sendOldValues bool
}

func (s *rightJoinSupplier) NewProcessor() topology.Processor {
	return &rightJoinProcessor{supplier: s}
}

func (s *rightJoinSupplier) View() (ValueGetterSupplier, error) {
	return &rightJoinGetterSupplier{supplier: s}, nil
}

func (s *rightJoinSupplier) EnableSendingOldValues() error {
	s.sendOldValues = true
	return nil
}

func (s *rightJoinSupplier) SendingOldValues() bool { return s.sendOldValues }

type rightJoinProcessor struct {
	supplier *rightJoinSupplier
	ctx      *topology.Context
	other    ValueGetter
}

func (p *rightJoinProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	p.other = p.supplier.otherView.NewGetter()
	return p.other.Init(ctx)
}

func (p *rightJoinProcessor) Process(key, value any) error {
	if key == nil {
		p.ctx.Logger().V(1).Info("skipping record with nil key")
		return nil
	}
	c, err := changeOf(value)
	if err != nil {
		return err
	}

	leftV, ok, err := p.other.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		// The left side never existed for this key; a right-side update
		// cannot produce a left-join result.
		return nil
	}

	newV := p.supplier.joiner(c.New, leftV)
	var oldV any
	if p.supplier.sendOldValues {
		oldV = p.supplier.joiner(c.Old, leftV)
	}
	return p.ctx.Forward(key, Change{Old: oldV, New: newV})
}

type rightJoinGetterSupplier struct {
	supplier *rightJoinSupplier
}

func (s *rightJoinGetterSupplier) NewGetter() ValueGetter {
	return &rightJoinGetter{
		joiner: s.supplier.joiner,
		own:    s.supplier.ownView.NewGetter(),
		other:  s.supplier.otherView.NewGetter(),
	}
}

type rightJoinGetter struct {
	joiner ValueJoiner
	own    ValueGetter
	other  ValueGetter
}

func (g *rightJoinGetter) Init(ctx *topology.Context) error {
	if err := g.own.Init(ctx); err != nil {
		return err
	}
	return g.other.Init(ctx)
}

func (g *rightJoinGetter) Get(key any) (any, bool, error) {
	leftV, ok, err := g.other.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	v, _, err := g.own.Get(key)
	if err != nil {
		return nil, false, err
	}
	return g.joiner(v, leftV), true, nil
}
