package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// Stream is a minimal record-stream handle produced by projecting a table.
// The stream-side operator algebra lives elsewhere; a projected stream can
// be observed with Foreach or written to a topic.
type Stream struct {
	builder     *Builder
	name        string
	sourceNodes map[string]struct{}
}

func (s *Stream) Name() string { return s.name }

// Foreach attaches a terminal per-record side effect.
func (s *Stream) Foreach(action ForeachAction) error {
	if action == nil {
		return NewInvalidArgumentError("action must not be nil")
	}
	name := s.builder.topo.NewNodeName(foreachPrefix)
	supplier := &foreachSupplier{action: action}
	return s.builder.topo.AddProcessor(name, supplier, s.name)
}

// To writes the stream to a topic. A source within the same topology
// subscribed to that topic receives the records, which is what Through
// builds on.
func (s *Stream) To(topic string) error {
	if topic == "" {
		return NewInvalidArgumentError("topic must not be empty")
	}
	name := s.builder.topo.NewNodeName(sinkPrefix)
	return s.builder.topo.AddSink(name, topic, s.name)
}

// toStreamSupplier projects change records into plain values by discarding
// the old component. Stateless; it takes no part in the point-lookup or
// retraction protocols.
type toStreamSupplier struct{}

func (s *toStreamSupplier) NewProcessor() topology.Processor {
	return &toStreamProcessor{}
}

type toStreamProcessor struct {
	ctx *topology.Context
}

func (p *toStreamProcessor) Init(ctx *topology.Context) error {
	p.ctx = ctx
	return nil
}

func (p *toStreamProcessor) Process(key, value any) error {
	c, err := changeOf(value)
	if err != nil {
		return err
	}
	return p.ctx.Forward(key, c.New)
}

// foreachSupplier invokes a side-effect action per record and forwards
// nothing. With unwrapChange set the action sees the new value of a change
// record instead of the record itself.
type foreachSupplier struct {
	action       ForeachAction
	unwrapChange bool
}

func (s *foreachSupplier) NewProcessor() topology.Processor {
	return &foreachProcessor{supplier: s}
}

type foreachProcessor struct {
	supplier *foreachSupplier
}

func (p *foreachProcessor) Init(ctx *topology.Context) error { return nil }

func (p *foreachProcessor) Process(key, value any) error {
	if p.supplier.unwrapChange {
		c, err := changeOf(value)
		if err != nil {
			return err
		}
		value = c.New
	}
	p.supplier.action(key, value)
	return nil
}
