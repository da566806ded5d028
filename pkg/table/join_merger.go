package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// joinMergerSupplier unions the two reaction outputs of a join into the
// result node. It is a pure pass-through: each underlying source change
// fires exactly one reaction path, never both, so no deduplication is
// needed. The driver's single-path fan-out is the precondition that keeps
// this true.
type joinMergerSupplier struct {
	parent1       *Table
	parent2       *Table
	sendOldValues bool
}

func (s *joinMergerSupplier) NewProcessor() topology.Processor {
	return &joinMergerProcessor{}
}

// View serves point lookups through the first reaction node, whose getter
// already combines both operands' current values.
func (s *joinMergerSupplier) View() (ValueGetterSupplier, error) {
	return s.parent1.valueGetterSupplier()
}

func (s *joinMergerSupplier) EnableSendingOldValues() error {
	if s.sendOldValues {
		return nil
	}
	if err := s.parent1.enableSendingOldValues(); err != nil {
		return err
	}
	if err := s.parent2.enableSendingOldValues(); err != nil {
		return err
	}
	s.sendOldValues = true
	return nil
}

func (s *joinMergerSupplier) SendingOldValues() bool { return s.sendOldValues }

type joinMergerProcessor struct {
	ctx *topology.Context
}

func (p *joinMergerProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	return nil
}

func (p *joinMergerProcessor) Process(key, value any) error {
	c, err := changeOf(value)
	if err != nil {
		return err
	}
	return p.ctx.Forward(key, c)
}
