package table

import (
	"slices"

	"github.com/go-logr/logr"

	"l7mp.io/tableflow/pkg/store"
	"l7mp.io/tableflow/pkg/topology"
)

// Node name prefixes, one per operation kind. Uniqueness of the full name
// is guaranteed by the topology's naming counter.
const (
	sourceNodePrefix  = "SOURCE-"
	tableSourcePrefix = "TABLE-SOURCE-"
	filterPrefix      = "TABLE-FILTER-"
	mapValuesPrefix   = "TABLE-MAPVALUES-"
	toStreamPrefix    = "TABLE-TOSTREAM-"
	foreachPrefix     = "TABLE-FOREACH-"
	selectPrefix      = "TABLE-SELECT-"
	joinThisPrefix    = "TABLE-JOINTHIS-"
	joinOtherPrefix   = "TABLE-JOINOTHER-"
	leftThisPrefix    = "TABLE-LEFTTHIS-"
	leftOtherPrefix   = "TABLE-LEFTOTHER-"
	outerThisPrefix   = "TABLE-OUTERTHIS-"
	outerOtherPrefix  = "TABLE-OUTEROTHER-"
	mergePrefix       = "TABLE-MERGE-"
	sinkPrefix        = "STREAM-SINK-"
)

// StoreFactory produces the store supplier used when a source table is
// materialized. The default registers in-memory stores.
type StoreFactory func(name string, keySerde, valueSerde store.Serde) store.Supplier

// Builder wires table nodes into a topology. One builder owns one topology
// and the materialization state of the sources registered through it.
type Builder struct {
	topo         *topology.Topology
	storeFactory StoreFactory
	mat          *materializer
	log          logr.Logger
}

type BuilderOption func(*Builder)

// WithStoreFactory overrides the supplier used for materialized sources.
func WithStoreFactory(f StoreFactory) BuilderOption {
	return func(b *Builder) { b.storeFactory = f }
}

func NewBuilder(topo *topology.Topology, log logr.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		topo: topo,
		mat:  newMaterializer(),
		log:  log.WithName("table"),
		storeFactory: func(name string, keySerde, valueSerde store.Serde) store.Supplier {
			return store.NewMemorySupplier(name, keySerde, valueSerde)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Table registers a source-backed table: a source node subscribed to the
// changelog topic and the table-source processor maintaining current state.
// The backing store is not created here; materialization is lazy and
// happens when a downstream construction step first needs a point lookup
// into the source.
func (b *Builder) Table(topic, storeName string, keySerde, valueSerde store.Serde) (*Table, error) {
	if topic == "" {
		return nil, NewInvalidArgumentError("topic must not be empty")
	}
	if storeName == "" {
		return nil, NewInvalidArgumentError("store name must not be empty")
	}
	if keySerde == nil {
		return nil, NewInvalidArgumentError("key serde must not be nil")
	}

	srcName := b.topo.NewNodeName(sourceNodePrefix)
	if err := b.topo.AddSource(srcName, topic); err != nil {
		return nil, err
	}
	name := b.topo.NewNodeName(tableSourcePrefix)
	supplier := &sourceSupplier{storeName: storeName}
	if err := b.topo.AddProcessor(name, supplier, srcName); err != nil {
		return nil, err
	}

	b.log.V(2).Info("registered source table", "node", name, "topic", topic, "store", storeName)
	return &Table{
		builder:     b,
		name:        name,
		supplier:    supplier,
		sourceNodes: map[string]struct{}{srcName: {}},
		keySerde:    keySerde,
		valueSerde:  valueSerde,
		storeName:   storeName,
	}, nil
}

// Table is an immutable handle on one table-producing graph node. The only
// post-construction mutation is the one-way retraction flag.
type Table struct {
	builder       *Builder
	name          string
	supplier      ProcessorSupplier
	parent        *Table // nil for sources and join results
	sourceNodes   map[string]struct{}
	keySerde      store.Serde
	valueSerde    store.Serde
	storeName     string
	sendOldValues bool
}

// Name returns the table's processor node name within the topology.
func (t *Table) Name() string { return t.name }

// StoreName returns the name of the backing store serving point lookups
// into this table, or "" when lookups cannot be served from a single store.
func (t *Table) StoreName() string { return t.storeName }

// Materialize lazily creates and registers the backing store this table's
// point lookups resolve to. For derived tables this walks up to the source
// whose store ultimately serves the lookup; join results need no walking,
// their operands are materialized at join construction. Idempotent and
// safe under concurrent invocation from construction call sites sharing
// the same source.
func (t *Table) Materialize() error {
	if src, ok := t.supplier.(*sourceSupplier); ok {
		return t.builder.mat.materialize(t, src)
	}
	if t.parent != nil {
		return t.parent.Materialize()
	}
	return nil
}

// enableSendingOldValues activates retraction propagation for this node:
// every subsequent update carries the prior value alongside the new one.
// Idempotent; the activation is delegated to the node's processor, which
// recursively involves its parent when it cannot supply old values itself.
func (t *Table) enableSendingOldValues() error {
	if t.sendOldValues {
		return nil
	}
	if err := t.supplier.EnableSendingOldValues(); err != nil {
		return err
	}
	t.sendOldValues = true
	return nil
}

// valueGetterSupplier resolves the point-lookup view factory for this node.
func (t *Table) valueGetterSupplier() (ValueGetterSupplier, error) {
	return t.supplier.View()
}

// derive wraps a newly registered child node in a table handle. Operations
// that preserve per-key identity pass the parent's store name through so
// downstream point lookups keep resolving to the same physical store.
func (t *Table) derive(name string, supplier ProcessorSupplier, storeName string) *Table {
	return &Table{
		builder:     t.builder,
		name:        name,
		supplier:    supplier,
		parent:      t,
		sourceNodes: t.sourceNodes,
		keySerde:    t.keySerde,
		storeName:   storeName,
	}
}

// Filter derives a table containing only the entries passing the predicate.
func (t *Table) Filter(predicate Predicate) (*Table, error) {
	return t.filter(predicate, false)
}

// FilterNot derives the complement of Filter: only entries failing the
// predicate are kept.
func (t *Table) FilterNot(predicate Predicate) (*Table, error) {
	return t.filter(predicate, true)
}

func (t *Table) filter(predicate Predicate, filterNot bool) (*Table, error) {
	if predicate == nil {
		return nil, NewInvalidArgumentError("predicate must not be nil")
	}
	name := t.builder.topo.NewNodeName(filterPrefix)
	supplier := &filterSupplier{parent: t, predicate: predicate, filterNot: filterNot}
	if err := t.builder.topo.AddProcessor(name, supplier, t.name); err != nil {
		return nil, err
	}
	derived := t.derive(name, supplier, t.storeName)
	derived.valueSerde = t.valueSerde
	return derived, nil
}

// MapValues derives a table with every value transformed by the mapper.
func (t *Table) MapValues(mapper ValueMapper) (*Table, error) {
	if mapper == nil {
		return nil, NewInvalidArgumentError("mapper must not be nil")
	}
	name := t.builder.topo.NewNodeName(mapValuesPrefix)
	supplier := &mapValuesSupplier{parent: t, mapper: mapper}
	if err := t.builder.topo.AddProcessor(name, supplier, t.name); err != nil {
		return nil, err
	}
	return t.derive(name, supplier, t.storeName), nil
}

// Foreach attaches a terminal side effect invoked with each new value.
func (t *Table) Foreach(action ForeachAction) error {
	if action == nil {
		return NewInvalidArgumentError("action must not be nil")
	}
	name := t.builder.topo.NewNodeName(foreachPrefix)
	supplier := &foreachSupplier{action: action, unwrapChange: true}
	return t.builder.topo.AddProcessor(name, supplier, t.name)
}

// ToStream projects the table into a record stream by discarding the old
// component of every change. Pure, stateless, no materialization.
func (t *Table) ToStream() (*Stream, error) {
	name := t.builder.topo.NewNodeName(toStreamPrefix)
	if err := t.builder.topo.AddProcessor(name, &toStreamSupplier{}, t.name); err != nil {
		return nil, err
	}
	return &Stream{builder: t.builder, name: name, sourceNodes: t.sourceNodes}, nil
}

// To writes the table's current values to a topic.
func (t *Table) To(topic string) error {
	s, err := t.ToStream()
	if err != nil {
		return err
	}
	return s.To(topic)
}

// Through pipes the table to a topic and re-tables it from there under a
// new source and store name.
func (t *Table) Through(topic, storeName string) (*Table, error) {
	if storeName == "" {
		return nil, NewInvalidArgumentError("store name must not be empty")
	}
	if err := t.To(topic); err != nil {
		return nil, err
	}
	return t.builder.Table(topic, storeName, t.keySerde, t.valueSerde)
}

// GroupBy re-keys the table with the selector in preparation for a
// downstream aggregation. Selecting old and new values requires the
// receiver to send old values, which in turn requires a materialized
// source, so both are activated here.
func (t *Table) GroupBy(selector KeyValueMapper) (*GroupedTable, error) {
	if selector == nil {
		return nil, NewInvalidArgumentError("selector must not be nil")
	}
	if err := t.Materialize(); err != nil {
		return nil, err
	}
	name := t.builder.topo.NewNodeName(selectPrefix)
	supplier := &repartitionSupplier{parent: t, selector: selector}
	if err := t.builder.topo.AddProcessor(name, supplier, t.name); err != nil {
		return nil, err
	}
	if err := t.enableSendingOldValues(); err != nil {
		return nil, err
	}
	return &GroupedTable{builder: t.builder, name: name, sourceName: t.name}, nil
}

// ensureJoinableWith validates that two tables can be joined and returns
// the union of their transitive upstream sources. The partitioning rule
// itself is delegated to the topology's copartition bookkeeping.
func (t *Table) ensureJoinableWith(other *Table) (map[string]struct{}, error) {
	if other.builder != t.builder {
		return nil, topology.NewTopologyError("cannot join tables built on different topologies")
	}
	if len(t.sourceNodes) == 0 || len(other.sourceNodes) == 0 {
		return nil, topology.NewTopologyError("cannot join a table with no upstream sources")
	}

	union := make(map[string]struct{}, len(t.sourceNodes)+len(other.sourceNodes))
	for name := range t.sourceNodes {
		union[name] = struct{}{}
	}
	for name := range other.sourceNodes {
		union[name] = struct{}{}
	}

	names := make([]string, 0, len(union))
	for name := range union {
		names = append(names, name)
	}
	slices.Sort(names)
	if err := t.builder.topo.CopartitionSources(names...); err != nil {
		return nil, err
	}
	return union, nil
}

// GroupedTable is a handle on a re-keyed table; an aggregation layer
// attaches its processors to the select node.
type GroupedTable struct {
	builder    *Builder
	name       string
	sourceName string
}

// Name returns the repartition (select) node name.
func (g *GroupedTable) Name() string { return g.name }
