package topology

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-logr/logr"

	"l7mp.io/tableflow/pkg/store"
)

// Record is a keyed record observed at a sink.
type Record struct {
	Key   any
	Value any
}

// Driver instantiates a built topology and executes it synchronously: each
// piped record runs to completion through the graph before Pipe returns.
// Worker threads own partitions exclusively at runtime, so the driver never
// interleaves two records within one node; the single-threaded execution
// here models exactly that per-partition view.
type Driver struct {
	topo     *Topology
	procs    map[string]Processor
	stores   map[string]store.KeyValueStore
	outputs  map[string][]Record
	counters map[string]*metrics.Counter
	log      logr.Logger
}

// NewDriver creates the store instances and processors of the topology and
// initializes them in registration order, parents before children.
func NewDriver(topo *Topology, log logr.Logger) (*Driver, error) {
	d := &Driver{
		topo:     topo,
		procs:    make(map[string]Processor),
		stores:   make(map[string]store.KeyValueStore),
		outputs:  make(map[string][]Record),
		counters: make(map[string]*metrics.Counter),
		log:      log.WithName("driver"),
	}

	for name, supplier := range topo.stores {
		s, err := supplier.NewStore()
		if err != nil {
			return nil, fmt.Errorf("creating state store %s: %w", name, err)
		}
		d.stores[name] = s
	}

	for _, name := range topo.order {
		n := topo.nodes[name]
		if n.kind != nodeKindProcessor {
			continue
		}
		proc := n.supplier.NewProcessor()
		if proc == nil {
			return nil, NewTopologyError("node %s: supplier returned no processor", name)
		}
		ctx := &Context{nodeName: name, driver: d, log: d.log.WithValues("node", name)}
		if err := proc.Init(ctx); err != nil {
			return nil, fmt.Errorf("initializing node %s: %w", name, err)
		}
		d.procs[name] = proc
		d.counters[name] = metrics.GetOrCreateCounter(
			fmt.Sprintf(`tableflow_records_processed_total{node=%q}`, name))
	}

	return d, nil
}

// Pipe delivers one record to every source node subscribed to the topic.
func (d *Driver) Pipe(topic string, key, value any) error {
	delivered := false
	for _, name := range d.topo.order {
		n := d.topo.nodes[name]
		if n.kind != nodeKindSource || n.topic != topic {
			continue
		}
		delivered = true
		d.log.V(5).Info("piping record", "topic", topic, "source", name, "key", key)
		for _, child := range n.children {
			if err := d.deliver(child, key, value); err != nil {
				return err
			}
		}
	}
	if !delivered {
		return NewTopologyError("no source registered for topic %s", topic)
	}
	return nil
}

// Outputs returns the records written to a sink topic, in emission order.
// Looped-back topics appear here as well.
func (d *Driver) Outputs(topic string) []Record {
	return d.outputs[topic]
}

// Store exposes a state store instance, mainly for inspection in tests.
func (d *Driver) Store(name string) (store.KeyValueStore, bool) {
	s, ok := d.stores[name]
	return s, ok
}

func (d *Driver) deliver(nodeName string, key, value any) error {
	n, ok := d.topo.nodes[nodeName]
	if !ok {
		return NewTopologyError("delivery to unknown node %s", nodeName)
	}

	switch n.kind {
	case nodeKindProcessor:
		d.counters[nodeName].Inc()
		if err := d.procs[nodeName].Process(key, value); err != nil {
			return fmt.Errorf("node %s: %w", nodeName, err)
		}
		return nil

	case nodeKindSink:
		d.outputs[n.topic] = append(d.outputs[n.topic], Record{Key: key, Value: value})
		// Loop back to any source on the same topic.
		for _, name := range d.topo.order {
			src := d.topo.nodes[name]
			if src.kind != nodeKindSource || src.topic != n.topic {
				continue
			}
			for _, child := range src.children {
				if err := d.deliver(child, key, value); err != nil {
					return err
				}
			}
		}
		return nil

	default:
		return NewTopologyError("node %s: cannot deliver to a %s node", nodeName, n.kind)
	}
}
