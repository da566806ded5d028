package topology

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"l7mp.io/tableflow/pkg/store"
)

type nodeKind int

const (
	nodeKindSource nodeKind = iota
	nodeKindProcessor
	nodeKindSink
)

func (k nodeKind) String() string {
	switch k {
	case nodeKindSource:
		return "source"
	case nodeKindProcessor:
		return "processor"
	case nodeKindSink:
		return "sink"
	default:
		return "unknown"
	}
}

type node struct {
	name     string
	kind     nodeKind
	topic    string // sources and sinks only
	supplier ProcessorSupplier
	parents  []string
	children []string
}

// Topology is the construction-time registry of the processing graph. Node
// names are unique within a topology; uniqueness of generated names is
// guaranteed by the explicit counter, not by the callers.
type Topology struct {
	nodes             map[string]*node
	order             []string // registration order, parents before children
	stores            map[string]store.Supplier
	storeOwners       map[string]string
	copartitionGroups [][]string
	nameIndex         int
	storeMu           sync.Mutex
	log               logr.Logger
}

func New(log logr.Logger) *Topology {
	return &Topology{
		nodes:       make(map[string]*node),
		stores:      make(map[string]store.Supplier),
		storeOwners: make(map[string]string),
		log:         log.WithName("topology"),
	}
}

// NewNodeName returns a unique node name with the given prefix. The prefix
// encodes the operation kind for diagnostics.
func (t *Topology) NewNodeName(prefix string) string {
	name := fmt.Sprintf("%s%010d", prefix, t.nameIndex)
	t.nameIndex++
	return name
}

// AddSource registers an entry node subscribed to a topic. Records piped to
// the topic are delivered to every child of the source node.
func (t *Topology) AddSource(name, topic string) error {
	if name == "" || topic == "" {
		return NewTopologyError("source needs a name and a topic")
	}
	if _, ok := t.nodes[name]; ok {
		return NewTopologyError("node %s already registered", name)
	}
	t.register(&node{name: name, kind: nodeKindSource, topic: topic})
	return nil
}

// AddProcessor registers a processor node wired to one or more parents.
func (t *Topology) AddProcessor(name string, supplier ProcessorSupplier, parents ...string) error {
	if name == "" {
		return NewTopologyError("processor needs a name")
	}
	if supplier == nil {
		return NewTopologyError("processor %s: supplier must not be nil", name)
	}
	if len(parents) == 0 {
		return NewTopologyError("processor %s: needs at least one parent", name)
	}
	if _, ok := t.nodes[name]; ok {
		return NewTopologyError("node %s already registered", name)
	}
	for _, p := range parents {
		if _, ok := t.nodes[p]; !ok {
			return NewTopologyError("processor %s: parent %s not registered", name, p)
		}
	}
	t.register(&node{name: name, kind: nodeKindProcessor, supplier: supplier, parents: parents})
	return nil
}

// AddSink registers a terminal node that writes its input to a topic. If a
// source within the same topology subscribes to that topic, the driver
// loops the records back, which is how a table can be piped "through" an
// intermediate topic without broker I/O.
func (t *Topology) AddSink(name, topic, parent string) error {
	if name == "" || topic == "" {
		return NewTopologyError("sink needs a name and a topic")
	}
	if _, ok := t.nodes[name]; ok {
		return NewTopologyError("node %s already registered", name)
	}
	if _, ok := t.nodes[parent]; !ok {
		return NewTopologyError("sink %s: parent %s not registered", name, parent)
	}
	t.register(&node{name: name, kind: nodeKindSink, topic: topic, parents: []string{parent}})
	return nil
}

// AddStateStore registers a store supplier and connects it to its owning
// node. Safe for concurrent use: the materialization coordinator may
// register stores from concurrent construction call sites.
func (t *Topology) AddStateStore(supplier store.Supplier, owner string) error {
	if supplier == nil {
		return NewTopologyError("state store: supplier must not be nil")
	}
	t.storeMu.Lock()
	defer t.storeMu.Unlock()

	name := supplier.StoreName()
	if _, ok := t.stores[name]; ok {
		return NewTopologyError("state store %s already registered", name)
	}
	if _, ok := t.nodes[owner]; !ok {
		return NewTopologyError("state store %s: owner node %s not registered", name, owner)
	}
	t.stores[name] = supplier
	t.storeOwners[name] = owner
	t.log.V(4).Info("registered state store", "store", name, "owner", owner)
	return nil
}

// CopartitionSources marks a set of source nodes as requiring compatible
// partitioning. Every name must identify a registered source node; anything
// else means the operands are not joinable.
func (t *Topology) CopartitionSources(names ...string) error {
	if len(names) == 0 {
		return NewTopologyError("copartition: no source nodes given")
	}
	for _, name := range names {
		n, ok := t.nodes[name]
		if !ok {
			return NewTopologyError("copartition: node %s not registered", name)
		}
		if n.kind != nodeKindSource {
			return NewTopologyError("copartition: node %s is a %s, not a source", name, n.kind)
		}
	}
	group := make([]string, len(names))
	copy(group, names)
	t.copartitionGroups = append(t.copartitionGroups, group)
	return nil
}

// CopartitionGroups returns the registered copartition groups.
func (t *Topology) CopartitionGroups() [][]string {
	return t.copartitionGroups
}

func (t *Topology) register(n *node) {
	t.nodes[n.name] = n
	t.order = append(t.order, n.name)
	for _, p := range n.parents {
		parent := t.nodes[p]
		parent.children = append(parent.children, n.name)
	}
	t.log.V(4).Info("registered node", "name", n.name, "kind", n.kind.String(),
		"parents", n.parents)
}
