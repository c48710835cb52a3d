// Package memory backs message segments with WebAssembly linear memory.
//
// A GuestArena reserves one block inside a wazero guest's memory and carves
// segment regions out of it, so a message built on the host is already in
// place for the guest to read:
//
//	alloc := memory.WrapAllocator(ctx, memory.FindAllocator(mod))
//	arena, err := memory.NewGuestArena(mod.Memory(), alloc, 64<<10)
//	msg, err := message.New(message.Options{Arena: arena})
//	...
//	segs, err := msg.Finalize()
//	spans, err := memory.Spans(arena, msg.Table()) // guest addresses of each segment
//
// In the other direction, ReadSegments turns spans written by a guest into
// segment views that message.Wrap accepts.
//
// The guest must not grow its memory while regions are in use: wazero
// invalidates earlier views on growth. The arena detects growth, fails
// further allocations, and Spans refuses to hand over the stale segments.
package memory
