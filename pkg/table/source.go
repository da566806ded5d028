package table

import (
	"sync/atomic"

	"l7mp.io/tableflow/pkg/store"
	"l7mp.io/tableflow/pkg/topology"
)

// sourceSupplier backs a table fed directly by an external changelog. The
// materialized flag is written by the materialization coordinator under its
// per-source lock and read from construction call sites.
type sourceSupplier struct {
	storeName     string
	materialized  atomic.Bool
	sendOldValues bool
}

func (s *sourceSupplier) NewProcessor() topology.Processor {
	return &sourceProcessor{supplier: s}
}

func (s *sourceSupplier) View() (ValueGetterSupplier, error) {
	if !s.materialized.Load() {
		return nil, NewNotMaterializedError(s.storeName)
	}
	return &sourceValueGetterSupplier{storeName: s.storeName}, nil
}

func (s *sourceSupplier) EnableSendingOldValues() error {
	if !s.materialized.Load() {
		return NewNotMaterializedError(s.storeName)
	}
	s.sendOldValues = true
	return nil
}

func (s *sourceSupplier) SendingOldValues() bool { return s.sendOldValues }

func (s *sourceSupplier) isMaterialized() bool { return s.materialized.Load() }
func (s *sourceSupplier) markMaterialized()    { s.materialized.Store(true) }

// sourceProcessor maintains the table's current state from the changelog:
// it upserts or deletes the stored value and forwards the update as a
// change record, with the prior value attached once retractions are on.
type sourceProcessor struct {
	supplier *sourceSupplier
	ctx      *topology.Context
	store    store.KeyValueStore // nil while the source is unmaterialized
}

func (p *sourceProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	if p.supplier.isMaterialized() {
		s, err := ctx.Store(p.supplier.storeName)
		if err != nil {
			return err
		}
		p.store = s
	}
	return nil
}

func (p *sourceProcessor) Process(key, value any) error {
	if key == nil {
		p.ctx.Logger().V(1).Info("skipping record with nil key")
		return nil
	}

	if p.store == nil {
		// Unmaterialized sources cannot know the prior value.
		return p.ctx.Forward(key, Change{New: value})
	}

	old, _, err := p.store.Get(key)
	if err != nil {
		return err
	}
	if value == nil {
		err = p.store.Delete(key)
	} else {
		err = p.store.Put(key, value)
	}
	if err != nil {
		return err
	}

	if p.supplier.SendingOldValues() {
		return p.ctx.Forward(key, Change{Old: old, New: value})
	}
	return p.ctx.Forward(key, Change{New: value})
}

type sourceValueGetterSupplier struct {
	storeName string
}

func (s *sourceValueGetterSupplier) NewGetter() ValueGetter {
	return &sourceValueGetter{storeName: s.storeName}
}

type sourceValueGetter struct {
	storeName string
	store     store.KeyValueStore
}

func (g *sourceValueGetter) Init(ctx *topology.Context) error {
	s, err := ctx.Store(g.storeName)
	if err != nil {
		return err
	}
	g.store = s
	return nil
}

func (g *sourceValueGetter) Get(key any) (any, bool, error) {
	return g.store.Get(key)
}
