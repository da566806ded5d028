package table

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// materializer creates the backing store of a source exactly once. Mutual
// exclusion is scoped to the source node's identity: the materialized check
// and the create-and-register sequence form one atomic unit per source, and
// two sources never contend on each other's lock.
type materializer struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

func newMaterializer() *materializer {
	return &materializer{locks: xsync.NewMapOf[string, *sync.Mutex]()}
}

func (m *materializer) materialize(t *Table, src *sourceSupplier) error {
	mu, _ := m.locks.LoadOrStore(t.name, &sync.Mutex{})
	mu.Lock()
	defer mu.Unlock()

	if src.isMaterialized() {
		return nil
	}

	// The store mirrors a source changelog rather than derived computation,
	// so it is registered as directly queryable.
	supplier := t.builder.storeFactory(src.storeName, t.keySerde, t.valueSerde)
	if err := t.builder.topo.AddStateStore(supplier, t.name); err != nil {
		return err
	}
	src.markMaterialized()
	t.builder.log.V(2).Info("materialized source", "node", t.name, "store", src.storeName)
	return nil
}
