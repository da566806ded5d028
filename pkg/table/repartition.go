package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// repartitionSupplier re-keys a table for grouping: each change is split
// into a retraction of the old mapping and an addition of the new one,
// forwarded under their respective selected keys so a downstream
// aggregation can subtract and add independently. The parent must send old
// values; GroupBy activates that before this node sees any record.
type repartitionSupplier struct {
	parent   *Table
	selector KeyValueMapper
}

func (s *repartitionSupplier) NewProcessor() topology.Processor {
	return &repartitionProcessor{supplier: s}
}

func (s *repartitionSupplier) View() (ValueGetterSupplier, error) {
	parent, err := s.parent.valueGetterSupplier()
	if err != nil {
		return nil, err
	}
	return &repartitionGetterSupplier{supplier: s, parent: parent}, nil
}

// EnableSendingOldValues is a no-op: the repartition node splits every
// change into old and new mappings unconditionally.
func (s *repartitionSupplier) EnableSendingOldValues() error {
	return s.parent.enableSendingOldValues()
}

func (s *repartitionSupplier) SendingOldValues() bool { return true }

type repartitionProcessor struct {
	supplier *repartitionSupplier
	ctx      *topology.Context
}

func (p *repartitionProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	return nil
}

func (p *repartitionProcessor) Process(key, value any) error {
	c, err := changeOf(value)
	if err != nil {
		return err
	}

	if c.Old != nil {
		kv := p.supplier.selector(key, c.Old)
		if err := p.ctx.Forward(kv.Key, Change{Old: kv.Value}); err != nil {
			return err
		}
	}
	if c.New != nil {
		kv := p.supplier.selector(key, c.New)
		if err := p.ctx.Forward(kv.Key, Change{New: kv.Value}); err != nil {
			return err
		}
	}
	return nil
}

type repartitionGetterSupplier struct {
	supplier *repartitionSupplier
	parent   ValueGetterSupplier
}

func (s *repartitionGetterSupplier) NewGetter() ValueGetter {
	return &repartitionGetter{supplier: s.supplier, parent: s.parent.NewGetter()}
}

// repartitionGetter resolves the original key and returns the selected
// key-value pair as the node's value.
type repartitionGetter struct {
	supplier *repartitionSupplier
	parent   ValueGetter
}

func (g *repartitionGetter) Init(ctx *topology.Context) error {
	return g.parent.Init(ctx)
}

func (g *repartitionGetter) Get(key any) (any, bool, error) {
	v, ok, err := g.parent.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	return g.supplier.selector(key, v), true, nil
}
