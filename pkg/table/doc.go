// Package table implements the changelog-table layer of the dataflow graph:
// a Table is a handle on a graph node representing "current value per key",
// maintained incrementally from an upstream changelog. Derived tables
// (filter, map-values, joins, group-by repartition) are wired through the
// topology builder; joins additionally rely on three cross-cutting
// protocols implemented here: point-lookup views into a table's current
// state, retraction propagation (emitting old values alongside new ones so
// stale results can be withdrawn), and lazy exactly-once materialization of
// source backing stores.
//
// All construction is synchronous and fails fast: no node or store is
// registered before every precondition of the call has passed.
package table
