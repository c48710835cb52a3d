package segment

import (
	"math/bits"
	"sync"
	"sync/atomic"

	wireruntime "github.com/wippyai/wire-runtime"
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/internal/abi"
)

const (
	// Pool limits to prevent memory bloat
	minPooledClass = 6  // 64 B
	maxPooledClass = 20 // 1 MB
)

// HeapArena hands out zeroed Go heap regions. Regions up to 1 MB are pooled
// per power-of-two size class. Safe for concurrent use.
type HeapArena struct {
	pools [maxPooledClass + 1]sync.Pool
	inUse atomic.Uint64
}

var defaultHeapArena = &HeapArena{}

// DefaultHeapArena returns the process-wide heap arena.
func DefaultHeapArena() *HeapArena {
	return defaultHeapArena
}

func NewHeapArena() *HeapArena {
	return &HeapArena{}
}

func sizeClass(size uint32) int {
	c := abi.NextPow2(size)
	if c == 0 {
		return -1
	}
	class := bits.TrailingZeros32(c)
	if class < minPooledClass {
		class = minPooledClass
	}
	if class > maxPooledClass {
		return -1
	}
	return class
}

// Alloc returns a zeroed region of exactly size bytes.
func (a *HeapArena) Alloc(size uint32) (wireruntime.Region, error) {
	if size > abi.MaxSegmentSize {
		return wireruntime.Region{}, errors.AllocationFailed(errors.PhaseAllocate, size,
			errors.InvalidInput(errors.PhaseAllocate, "size exceeds maximum segment size"))
	}

	class := sizeClass(size)
	if class < 0 {
		a.inUse.Add(uint64(size))
		return wireruntime.Region{Data: make([]byte, size)}, nil
	}

	var buf []byte
	if p, ok := a.pools[class].Get().(*[]byte); ok {
		buf = (*p)[:1<<class]
		clear(buf)
	} else {
		buf = make([]byte, 1<<class)
	}
	a.inUse.Add(uint64(cap(buf)))
	return wireruntime.Region{Data: buf[:size]}, nil
}

// Free returns a region to its pool. The region must not be used afterwards.
func (a *HeapArena) Free(r wireruntime.Region) {
	if r.Data == nil {
		return
	}
	n := uint32(cap(r.Data))
	a.inUse.Add(^(uint64(n) - 1))

	class := sizeClass(n)
	if class < 0 || n != 1<<class {
		return // unpooled or foreign buffer
	}
	buf := r.Data[:n]
	a.pools[class].Put(&buf)
}

// InUse returns the bytes currently handed out.
func (a *HeapArena) InUse() uint64 {
	return a.inUse.Load()
}
