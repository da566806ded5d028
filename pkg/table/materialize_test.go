package table

import (
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"l7mp.io/tableflow/pkg/store"
	"l7mp.io/tableflow/pkg/topology"
)

// stubSupplier counts retraction activations for idempotency checks.
type stubSupplier struct {
	enableCalls   int
	sendOldValues bool
}

func (s *stubSupplier) NewProcessor() topology.Processor   { return nil }
func (s *stubSupplier) View() (ValueGetterSupplier, error) { return nil, nil }
func (s *stubSupplier) SendingOldValues() bool             { return s.sendOldValues }

func (s *stubSupplier) EnableSendingOldValues() error {
	s.enableCalls++
	s.sendOldValues = true
	return nil
}

var _ = Describe("Materialization", func() {
	var topo *topology.Topology

	BeforeEach(func() {
		topo = topology.New(logger)
	})

	It("should create the backing store exactly once under concurrency", func() {
		var created atomic.Int32
		b := NewBuilder(topo, logger, WithStoreFactory(
			func(name string, keySerde, valueSerde store.Serde) store.Supplier {
				created.Add(1)
				return store.NewMemorySupplier(name, keySerde, valueSerde)
			}))

		tbl, err := b.Table("orders", "orders-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		errs := make([]error, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = tbl.Materialize()
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(created.Load()).To(Equal(int32(1)))
		Expect(tbl.supplier.(*sourceSupplier).isMaterialized()).To(BeTrue())
	})

	It("should reach the source through derivation chains", func() {
		b := NewBuilder(topo, logger)
		tbl, err := b.Table("orders", "orders-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())

		f, err := tbl.Filter(func(k, v any) bool { return true })
		Expect(err).NotTo(HaveOccurred())

		Expect(f.Materialize()).To(Succeed())
		Expect(tbl.supplier.(*sourceSupplier).isMaterialized()).To(BeTrue())
	})

	It("should refuse retraction on an unmaterialized source", func() {
		b := NewBuilder(topo, logger)
		tbl, err := b.Table("orders", "orders-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())

		Expect(tbl.enableSendingOldValues()).To(MatchError(ErrNotMaterialized))
		Expect(tbl.sendOldValues).To(BeFalse())

		Expect(tbl.Materialize()).To(Succeed())
		Expect(tbl.enableSendingOldValues()).To(Succeed())
		Expect(tbl.supplier.SendingOldValues()).To(BeTrue())
	})

	It("should activate retraction at most once per node", func() {
		b := NewBuilder(topo, logger)
		stub := &stubSupplier{}
		tbl := &Table{builder: b, name: "stub", supplier: stub}

		Expect(tbl.enableSendingOldValues()).To(Succeed())
		Expect(tbl.enableSendingOldValues()).To(Succeed())
		Expect(tbl.enableSendingOldValues()).To(Succeed())
		Expect(stub.enableCalls).To(Equal(1))
	})

	It("should recurse retraction activation through stateless chains", func() {
		b := NewBuilder(topo, logger)
		tbl, err := b.Table("orders", "orders-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())

		f, err := tbl.Filter(func(k, v any) bool { return true })
		Expect(err).NotTo(HaveOccurred())
		m, err := f.MapValues(func(v any) any { return v })
		Expect(err).NotTo(HaveOccurred())

		// Activation on the tail reaches the source, which demands a
		// materialized store first.
		Expect(m.enableSendingOldValues()).To(MatchError(ErrNotMaterialized))

		Expect(tbl.Materialize()).To(Succeed())
		Expect(m.enableSendingOldValues()).To(Succeed())
		Expect(tbl.supplier.SendingOldValues()).To(BeTrue())
		Expect(f.supplier.SendingOldValues()).To(BeTrue())
		Expect(m.supplier.SendingOldValues()).To(BeTrue())
	})

	It("should refuse views over unmaterialized sources", func() {
		b := NewBuilder(topo, logger)
		tbl, err := b.Table("orders", "orders-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())

		_, err = tbl.valueGetterSupplier()
		Expect(err).To(MatchError(ErrNotMaterialized))

		Expect(tbl.Materialize()).To(Succeed())
		_, err = tbl.valueGetterSupplier()
		Expect(err).NotTo(HaveOccurred())
	})
})
