package memory

import (
	"sync"

	"github.com/tetratelabs/wazero/api"
	wireruntime "github.com/wippyai/wire-runtime"
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/layout"
	"go.uber.org/zap"
)

// GuestArena carves regions out of one reserved block of guest memory.
// Space is reclaimed once every region handed out has been freed.
// A GuestArena is safe for concurrent use.
type GuestArena struct {
	mem     api.Memory
	alloc   Allocator
	logger  *zap.Logger
	block   []byte
	base    uint32
	memSize uint32

	mu     sync.Mutex
	cursor uint32
	live   int
	closed bool
}

// NewGuestArena reserves capacity bytes of guest memory through alloc.
func NewGuestArena(mem api.Memory, alloc Allocator, capacity uint32) (*GuestArena, error) {
	if mem == nil {
		return nil, errors.InvalidInput(errors.PhaseAllocate, "nil guest memory")
	}
	if alloc == nil {
		return nil, errors.InvalidInput(errors.PhaseAllocate, "nil guest allocator")
	}
	capacity, err := layout.WordAlign(capacity)
	if err != nil {
		return nil, err
	}

	ptr, err := alloc.Alloc(capacity, layout.WordSize)
	if err != nil {
		return nil, err
	}
	block, ok := mem.Read(ptr, capacity)
	if !ok {
		alloc.Free(ptr, capacity, layout.WordSize)
		return nil, errors.New(errors.PhaseAllocate, errors.KindOutOfBounds).
			Detail("guest block [%d,%d) outside memory of %d bytes", ptr, uint64(ptr)+uint64(capacity), mem.Size()).
			Value(ptr).
			Build()
	}

	a := &GuestArena{
		mem:     mem,
		alloc:   alloc,
		logger:  Logger(),
		block:   block,
		base:    ptr,
		memSize: mem.Size(),
	}
	a.logger.Debug("reserved guest block",
		zap.Uint32("addr", ptr),
		zap.Uint32("capacity", capacity))
	return a, nil
}

// Alloc returns a zeroed, word-aligned region. Region.Addr is the region's
// guest address.
func (a *GuestArena) Alloc(size uint32) (wireruntime.Region, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.valid(errors.PhaseAllocate); err != nil {
		return wireruntime.Region{}, err
	}
	n, err := layout.WordAlign(size)
	if err != nil {
		return wireruntime.Region{}, err
	}
	free := uint32(len(a.block)) - a.cursor
	if n > free {
		return wireruntime.Region{}, errors.AllocationFailed(errors.PhaseAllocate, size,
			errors.Capacity(errors.PhaseAllocate, 0, uint64(n), free))
	}

	off := a.cursor
	a.cursor += n
	a.live++
	data := a.block[off : off+size : off+n]
	clear(data[:n])
	return wireruntime.Region{Data: data, Addr: a.base + off}, nil
}

// Valid reports whether regions handed out so far still alias guest memory.
// It fails once the arena is closed or the guest memory has been resized,
// because existing regions then hold a stale host view and writes through
// them never reach the guest.
func (a *GuestArena) Valid() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valid(errors.PhaseWrap)
}

func (a *GuestArena) valid(phase errors.Phase) error {
	if a.closed {
		return errors.InvalidInput(phase, "guest arena closed")
	}
	if got := a.mem.Size(); got != a.memSize {
		return errors.New(phase, errors.KindInvalidData).
			Detail("guest memory resized from %d to %d bytes; reserved block is stale", a.memSize, got).
			Value(got).
			Build()
	}
	return nil
}

// contains reports whether [addr, addr+n) lies inside the reserved block.
func (a *GuestArena) contains(addr, n uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return addr >= a.base && uint64(addr)+uint64(n) <= uint64(a.base)+uint64(len(a.block))
}

// Free marks a region unused.
func (a *GuestArena) Free(r wireruntime.Region) {
	if r.Data == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.live == 0 {
		return
	}
	a.live--
	if a.live == 0 {
		a.cursor = 0
	}
}

// InUse returns the bytes carved from the block since it was last empty.
func (a *GuestArena) InUse() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint64(a.cursor)
}

// Addr returns the guest address of the reserved block.
func (a *GuestArena) Addr() uint32 { return a.base }

// Cap returns the reserved block size.
func (a *GuestArena) Cap() uint32 { return uint32(len(a.block)) }

// Close returns the reserved block to the guest allocator.
func (a *GuestArena) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true
	a.alloc.Free(a.base, uint32(len(a.block)), layout.WordSize)
	a.block = nil
}
