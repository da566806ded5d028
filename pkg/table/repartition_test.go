package table

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"l7mp.io/tableflow/pkg/store"
	"l7mp.io/tableflow/pkg/topology"
)

var _ = Describe("GroupBy", func() {
	var topo *topology.Topology
	var b *Builder
	var tbl *Table

	// Values are (region, amount) pairs keyed by user; grouping selects the
	// region as the new key.
	byRegion := func(key, value any) KeyValue {
		v := value.([2]any)
		return KeyValue{Key: v[0], Value: v[1]}
	}

	BeforeEach(func() {
		topo = topology.New(logger)
		b = NewBuilder(topo, logger)
		var err error
		tbl, err = b.Table("purchases", "purchases-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should materialize the source and activate its retractions", func() {
		_, err := tbl.GroupBy(byRegion)
		Expect(err).NotTo(HaveOccurred())

		Expect(tbl.supplier.(*sourceSupplier).isMaterialized()).To(BeTrue())
		Expect(tbl.supplier.SendingOldValues()).To(BeTrue())
	})

	It("should split each change into re-keyed subtraction and addition", func() {
		g, err := tbl.GroupBy(byRegion)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Name()).To(HavePrefix("TABLE-SELECT-"))

		cap := &changeCapture{}
		Expect(topo.AddProcessor("capture", cap, g.Name())).To(Succeed())

		driver, err := topology.NewDriver(topo, logger)
		Expect(err).NotTo(HaveOccurred())

		// New user: one addition under the selected key.
		Expect(driver.Pipe("purchases", "alice", [2]any{"eu", 10})).To(Succeed())
		Expect(cap.records).To(Equal([]capturedRecord{
			{Key: "eu", Change: Change{New: 10}},
		}))

		// Region change: subtraction under the old key, addition under the
		// new one.
		cap.records = nil
		Expect(driver.Pipe("purchases", "alice", [2]any{"us", 10})).To(Succeed())
		Expect(cap.records).To(Equal([]capturedRecord{
			{Key: "eu", Change: Change{Old: 10}},
			{Key: "us", Change: Change{New: 10}},
		}))

		// Deletion: subtraction only.
		cap.records = nil
		Expect(driver.Pipe("purchases", "alice", nil)).To(Succeed())
		Expect(cap.records).To(Equal([]capturedRecord{
			{Key: "us", Change: Change{Old: 10}},
		}))
	})
})
