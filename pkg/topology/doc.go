// Package topology implements the processing-graph builder: a registry of
// named source, processor and sink nodes, explicit unique-name generation,
// state-store registration, and copartition bookkeeping for joinability
// checks. It also ships a synchronous driver that instantiates a built
// topology and pushes records through it one at a time.
//
// Construction is single-threaded and happens entirely before processing
// starts; the only construction-time operation that may run concurrently is
// state-store registration, which the materialization coordinator performs
// under its own per-source locking.
package topology
