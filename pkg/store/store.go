package store

// KeyValueStore is the generic interface for a table's backing store. All
// read operations return the requested data along with an error (nil on
// success); a nil value with loaded=true is never returned, deletions
// remove the key entirely.
type KeyValueStore interface {
	// Name returns the registered store name.
	Name() string
	// Put inserts or updates a key-value pair.
	Put(key, value any) error
	// Delete removes a key-value pair. Deleting an absent key is a no-op.
	Delete(key any) error
	// Get returns the value for a key. The boolean return value indicates
	// whether a value for the key was found.
	Get(key any) (value any, loaded bool, err error)
	// Len returns the number of live entries.
	Len() int
}

// Supplier produces a store instance on demand. Suppliers are registered at
// topology-construction time and invoked once per store when the driver is
// built.
type Supplier interface {
	StoreName() string
	NewStore() (KeyValueStore, error)
}
