package table

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"l7mp.io/tableflow/pkg/store"
	"l7mp.io/tableflow/pkg/topology"
)

var _ = Describe("Filter", func() {
	var topo *topology.Topology
	var b *Builder
	var tbl *Table

	positive := func(k, v any) bool { return v.(int) > 0 }

	BeforeEach(func() {
		topo = topology.New(logger)
		b = NewBuilder(topo, logger)
		var err error
		tbl, err = b.Table("numbers", "numbers-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())
	})

	Context("without old values", func() {
		It("should forward passing values and nil out failing ones", func() {
			f, err := tbl.Filter(positive)
			Expect(err).NotTo(HaveOccurred())

			cap := &changeCapture{}
			Expect(topo.AddProcessor("capture", cap, f.Name())).To(Succeed())

			driver, err := topology.NewDriver(topo, logger)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Pipe("numbers", "k", 3)).To(Succeed())
			Expect(driver.Pipe("numbers", "k", -1)).To(Succeed())

			Expect(cap.records).To(Equal([]capturedRecord{
				{Key: "k", Change: Change{New: 3}},
				{Key: "k", Change: Change{New: nil}},
			}))
		})
	})

	Context("with retraction propagation enabled", func() {
		var cap *changeCapture
		var driver *topology.Driver

		// Builds filter(positive) with old values flowing and pipes the
		// transition sequence: insert passing, pass-to-fail, fail-to-fail,
		// fail-to-pass, delete.
		pipeTransitions := func(f *Table) {
			cap = &changeCapture{}
			Expect(topo.AddProcessor("capture", cap, f.Name())).To(Succeed())
			Expect(tbl.Materialize()).To(Succeed())
			Expect(f.enableSendingOldValues()).To(Succeed())

			var err error
			driver, err = topology.NewDriver(topo, logger)
			Expect(err).NotTo(HaveOccurred())

			for _, v := range []any{3, -1, -5, 7, nil} {
				Expect(driver.Pipe("numbers", "k", v)).To(Succeed())
			}
		}

		expected := []capturedRecord{
			{Key: "k", Change: Change{Old: nil, New: 3}},
			{Key: "k", Change: Change{Old: 3, New: nil}}, // pass-to-fail retracts
			// fail-to-fail is invisible on both sides: no emission
			{Key: "k", Change: Change{Old: nil, New: 7}}, // fail-to-pass has no visible old value
			{Key: "k", Change: Change{Old: 7, New: nil}},
		}

		It("should retract and re-emit across predicate transitions", func() {
			f, err := tbl.Filter(positive)
			Expect(err).NotTo(HaveOccurred())
			pipeTransitions(f)
			Expect(cap.records).To(Equal(expected))
		})

		It("should satisfy the complement law: filterNot(not p) behaves as filter(p)", func() {
			f, err := tbl.FilterNot(func(k, v any) bool { return !positive(k, v) })
			Expect(err).NotTo(HaveOccurred())
			pipeTransitions(f)
			Expect(cap.records).To(Equal(expected))
		})
	})

	Context("point lookups", func() {
		It("should hide filtered-out values from the view", func() {
			f, err := tbl.Filter(positive)
			Expect(err).NotTo(HaveOccurred())

			Expect(tbl.Materialize()).To(Succeed())
			view, err := f.valueGetterSupplier()
			Expect(err).NotTo(HaveOccurred())

			probe := &viewProbe{view: view}
			Expect(topo.AddProcessor("probe", probe, f.Name())).To(Succeed())

			driver, err := topology.NewDriver(topo, logger)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Pipe("numbers", "pos", 5)).To(Succeed())
			Expect(driver.Pipe("numbers", "neg", -5)).To(Succeed())

			v, ok, err := probe.getter.Get("pos")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(5))

			_, ok, err = probe.getter.Get("neg")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should refuse a view over an unmaterialized source", func() {
			f, err := tbl.Filter(positive)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.valueGetterSupplier()
			Expect(err).To(MatchError(ErrNotMaterialized))
		})
	})
})

var _ = Describe("MapValues", func() {
	var topo *topology.Topology
	var b *Builder
	var tbl *Table

	BeforeEach(func() {
		topo = topology.New(logger)
		b = NewBuilder(topo, logger)
		var err error
		tbl, err = b.Table("numbers", "numbers-store", store.StringSerde{}, store.JSONSerde{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should map new and old values but never deletions", func() {
		m, err := tbl.MapValues(func(v any) any { return v.(int) * 10 })
		Expect(err).NotTo(HaveOccurred())

		cap := &changeCapture{}
		Expect(topo.AddProcessor("capture", cap, m.Name())).To(Succeed())
		Expect(tbl.Materialize()).To(Succeed())
		Expect(m.enableSendingOldValues()).To(Succeed())

		driver, err := topology.NewDriver(topo, logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(driver.Pipe("numbers", "k", 1)).To(Succeed())
		Expect(driver.Pipe("numbers", "k", 2)).To(Succeed())
		Expect(driver.Pipe("numbers", "k", nil)).To(Succeed())

		Expect(cap.records).To(Equal([]capturedRecord{
			{Key: "k", Change: Change{Old: nil, New: 10}},
			{Key: "k", Change: Change{Old: 10, New: 20}},
			{Key: "k", Change: Change{Old: 20, New: nil}},
		}))
	})

	It("should map values read through the view", func() {
		m, err := tbl.MapValues(func(v any) any { return v.(int) * 10 })
		Expect(err).NotTo(HaveOccurred())

		Expect(tbl.Materialize()).To(Succeed())
		view, err := m.valueGetterSupplier()
		Expect(err).NotTo(HaveOccurred())

		probe := &viewProbe{view: view}
		Expect(topo.AddProcessor("probe", probe, m.Name())).To(Succeed())

		driver, err := topology.NewDriver(topo, logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(driver.Pipe("numbers", "k", 4)).To(Succeed())

		v, ok, err := probe.getter.Get("k")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(40))
	})
})
