package store

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// memoryStore keeps live values in a concurrent map keyed by the serialized
// key bytes. Values are held as-is: serialization of values belongs to
// persistent engines, which sit behind the same Supplier interface.
type memoryStore struct {
	name     string
	keySerde Serde
	data     *xsync.MapOf[string, any]

	getTotal    *metrics.Counter
	putTotal    *metrics.Counter
	deleteTotal *metrics.Counter
}

// NewMemoryStore creates an in-memory key-value store. The key serde must
// yield a stable byte representation for equal keys.
func NewMemoryStore(name string, keySerde Serde) KeyValueStore {
	return &memoryStore{
		name:        name,
		keySerde:    keySerde,
		data:        xsync.NewMapOf[string, any](),
		getTotal:    metrics.GetOrCreateCounter(fmt.Sprintf(`tableflow_store_get_total{store=%q}`, name)),
		putTotal:    metrics.GetOrCreateCounter(fmt.Sprintf(`tableflow_store_put_total{store=%q}`, name)),
		deleteTotal: metrics.GetOrCreateCounter(fmt.Sprintf(`tableflow_store_delete_total{store=%q}`, name)),
	}
}

func (s *memoryStore) Name() string { return s.name }

func (s *memoryStore) Put(key, value any) error {
	k, err := s.mapKey(key)
	if err != nil {
		return err
	}
	s.data.Store(k, value)
	s.putTotal.Inc()
	return nil
}

func (s *memoryStore) Delete(key any) error {
	k, err := s.mapKey(key)
	if err != nil {
		return err
	}
	s.data.Delete(k)
	s.deleteTotal.Inc()
	return nil
}

func (s *memoryStore) Get(key any) (any, bool, error) {
	k, err := s.mapKey(key)
	if err != nil {
		return nil, false, err
	}
	s.getTotal.Inc()
	v, ok := s.data.Load(k)
	return v, ok, nil
}

func (s *memoryStore) Len() int { return s.data.Size() }

func (s *memoryStore) mapKey(key any) (string, error) {
	b, err := s.keySerde.Serialize(key)
	if err != nil {
		return "", fmt.Errorf("store %s: cannot map key: %w", s.name, err)
	}
	return string(b), nil
}

// MemorySupplier registers in-memory stores. The value serde is accepted to
// satisfy the supplier contract but only consulted by persistent engines.
type MemorySupplier struct {
	name       string
	keySerde   Serde
	valueSerde Serde
}

func NewMemorySupplier(name string, keySerde, valueSerde Serde) *MemorySupplier {
	return &MemorySupplier{name: name, keySerde: keySerde, valueSerde: valueSerde}
}

func (s *MemorySupplier) StoreName() string { return s.name }

func (s *MemorySupplier) NewStore() (KeyValueStore, error) {
	if s.keySerde == nil {
		return nil, fmt.Errorf("store %s: key serde must not be nil", s.name)
	}
	return NewMemoryStore(s.name, s.keySerde), nil
}
