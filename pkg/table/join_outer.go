package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// outerJoinSupplier is one side of an outer join: output is never
// suppressed, the joiner sees a nil operand for whichever side is missing.
// Both sides use this type, the other side with a reversed joiner.
type outerJoinSupplier struct {
	ownView       ValueGetterSupplier
	otherView     ValueGetterSupplier
	joiner        ValueJoiner
	sendOldValues bool
}

func (s *outerJoinSupplier) NewProcessor() topology.Processor {
	return &outerJoinProcessor{supplier: s}
}

func (s *outerJoinSupplier) View() (ValueGetterSupplier, error) {
	return &outerJoinGetterSupplier{supplier: s}, nil
}

func (s *outerJoinSupplier) EnableSendingOldValues() error {
	s.sendOldValues = true
	return nil
}

func (s *outerJoinSupplier) SendingOldValues() bool { return s.sendOldValues }

type outerJoinProcessor struct {
	supplier *outerJoinSupplier
	ctx      *topology.Context
	other    ValueGetter
}

func (p *outerJoinProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	p.other = p.supplier.otherView.NewGetter()
	return p.other.Init(ctx)
}

func (p *outerJoinProcessor) Process(key, value any) error {
	if key == nil {
		p.ctx.Logger().V(1).Info("skipping record with nil key")
		return nil
	}
	c, err := changeOf(value)
	if err != nil {
		return err
	}

	otherV, ok, err := p.other.Get(key)
	if err != nil {
		return err
	}

	// A nil new result with a non-nil old one is the retraction that
	// removes the key downstream once both sides are gone.
	var newV, oldV any
	if ok || c.New != nil {
		newV = p.supplier.joiner(c.New, otherV)
	}
	if p.supplier.sendOldValues && (ok || c.Old != nil) {
		oldV = p.supplier.joiner(c.Old, otherV)
	}
	return p.ctx.Forward(key, Change{Old: oldV, New: newV})
}

type outerJoinGetterSupplier struct {
	supplier *outerJoinSupplier
}

func (s *outerJoinGetterSupplier) NewGetter() ValueGetter {
	return &outerJoinGetter{
		joiner: s.supplier.joiner,
		own:    s.supplier.ownView.NewGetter(),
		other:  s.supplier.otherView.NewGetter(),
	}
}

type outerJoinGetter struct {
	joiner ValueJoiner
	own    ValueGetter
	other  ValueGetter
}

func (g *outerJoinGetter) Init(ctx *topology.Context) error {
	if err := g.own.Init(ctx); err != nil {
		return err
	}
	return g.other.Init(ctx)
}

func (g *outerJoinGetter) Get(key any) (any, bool, error) {
	v1, ok1, err := g.own.Get(key)
	if err != nil {
		return nil, false, err
	}
	v2, ok2, err := g.other.Get(key)
	if err != nil {
		return nil, false, err
	}
	if !ok1 && !ok2 {
		return nil, false, nil
	}
	return g.joiner(v1, v2), true, nil
}
