// Package store defines the key-value store contract backing materialized
// tables, plus an in-memory engine used by the synchronous driver and the
// test suites. Physical persistence engines (on-disk formats, compaction)
// are expected to live behind the same Supplier interface.
package store
