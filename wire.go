package wireruntime

// Region is a contiguous block of backing storage handed out by an Arena.
// Addr is the region's address in the arena's own address space (a guest
// pointer for linear-memory arenas, 0 for heap arenas).
type Region struct {
	Data []byte
	Addr uint32
}

// Arena supplies backing storage for message segments.
type Arena interface {
	Alloc(size uint32) (Region, error)
	Free(r Region)
}

// ArenaSizer reports how many bytes an arena currently has outstanding.
type ArenaSizer interface {
	InUse() uint64
}
