package table

import (
	"l7mp.io/tableflow/pkg/topology"
)

// changeCapture records the change records reaching a node.
type capturedRecord struct {
	Key    any
	Change Change
}

type changeCapture struct {
	records []capturedRecord
}

func (c *changeCapture) NewProcessor() topology.Processor {
	return &changeCaptureProcessor{capture: c}
}

type changeCaptureProcessor struct {
	capture *changeCapture
}

func (p *changeCaptureProcessor) Init(ctx *topology.Context) error { return nil }

func (p *changeCaptureProcessor) Process(key, value any) error {
	c, err := changeOf(value)
	if err != nil {
		return err
	}
	p.capture.records = append(p.capture.records, capturedRecord{Key: key, Change: c})
	return nil
}

// valueCapture records raw stream records reaching a node.
type valueCapture struct {
	records []topology.Record
}

func (c *valueCapture) NewProcessor() topology.Processor {
	return &valueCaptureProcessor{capture: c}
}

type valueCaptureProcessor struct {
	capture *valueCapture
}

func (p *valueCaptureProcessor) Init(ctx *topology.Context) error { return nil }

func (p *valueCaptureProcessor) Process(key, value any) error {
	p.capture.records = append(p.capture.records, topology.Record{Key: key, Value: value})
	return nil
}

// viewProbe initializes a point-lookup getter inside the driver so tests
// can query table state the way a reaction processor would.
type viewProbe struct {
	view   ValueGetterSupplier
	getter ValueGetter
}

func (s *viewProbe) NewProcessor() topology.Processor {
	return &viewProbeProcessor{probe: s}
}

type viewProbeProcessor struct {
	probe *viewProbe
}

func (p *viewProbeProcessor) Init(ctx *topology.Context) error {
	g := p.probe.view.NewGetter()
	if err := g.Init(ctx); err != nil {
		return err
	}
	p.probe.getter = g
	return nil
}

func (p *viewProbeProcessor) Process(key, value any) error { return nil }
