package memory

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/wire-runtime/errors"
)

// Allocator hands out blocks of guest memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

var allocatorNames = []string{"cabi_realloc", "canonical_abi_realloc"}

// FindAllocator returns the module's realloc export, or nil.
func FindAllocator(mod api.Module) api.Function {
	if mod == nil {
		return nil
	}
	for _, name := range allocatorNames {
		if fn := mod.ExportedFunction(name); fn != nil {
			return fn
		}
	}
	return nil
}

// WrapAllocator adapts a guest realloc function with the
// (old_ptr, old_size, align, new_size) -> ptr signature.
func WrapAllocator(ctx context.Context, fn api.Function) Allocator {
	if fn == nil {
		return nil
	}
	return &ReallocAllocator{Ctx: ctx, Fn: fn}
}

// ReallocAllocator allocates through a guest realloc export.
type ReallocAllocator struct {
	Ctx context.Context
	Fn  api.Function
}

// Alloc allocates size bytes in the guest.
func (a *ReallocAllocator) Alloc(size, align uint32) (uint32, error) {
	results, err := a.Fn.Call(a.Ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseAllocate, size, err)
	}
	if len(results) == 0 {
		return 0, errors.AllocationFailed(errors.PhaseAllocate, size,
			errors.InvalidData(errors.PhaseAllocate, nil, "realloc returned no result"))
	}
	ptr := uint32(results[0])
	if ptr == 0 && size > 0 {
		return 0, errors.AllocationFailed(errors.PhaseAllocate, size,
			errors.InvalidData(errors.PhaseAllocate, nil, "realloc returned null"))
	}
	return ptr, nil
}

// Free releases a block by reallocating it to zero bytes.
func (a *ReallocAllocator) Free(ptr, size, align uint32) {
	_, _ = a.Fn.Call(a.Ctx, uint64(ptr), uint64(size), uint64(align), 0)
}
