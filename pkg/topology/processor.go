package topology

// Processor is a computation node instantiated by the driver. Init is
// called once, before any record is processed, with the node's runtime
// context; Process is called per record on the thread owning the node's
// partition.
type Processor interface {
	Init(ctx *Context) error
	Process(key, value any) error
}

// ProcessorSupplier creates the processor for a registered node. A supplier
// is registered once at construction time and asked for its processor when
// the driver is built.
type ProcessorSupplier interface {
	NewProcessor() Processor
}
