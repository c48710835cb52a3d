// Package wireruntime provides the runtime support layer for code generated
// by the service compiler: a zero-copy, segment-based message encoding.
//
// Generated stubs never serialize field by field through a generic encoder.
// They call into small Builder and Reader views that compute offsets directly
// into raw segments, so the encoded form is the in-memory form.
//
// # Architecture Overview
//
//	wireruntime/         Root package with Arena and Region interfaces
//	├── segment/         Append-only segments and the per-message segment table
//	├── message/         Message context, Builder/Reader and list views
//	├── layout/          Offset arithmetic, pointer words, WIT layout calculator
//	├── memory/          wazero linear-memory arena for inter-isolate handoff
//	├── schema/          WIT-driven walker for inspecting encoded messages
//	├── errors/          Structured error types
//	├── examples/        Address book stubs and a runnable demo
//	└── cmd/wiredump/    Message dump and browser
//
// # Quick Start
//
// Build a message:
//
//	msg, err := message.NewWithDefaults()
//	if err != nil {
//	    return err
//	}
//	defer msg.Release()
//
//	root, err := msg.NewRoot(16)
//	if err != nil {
//	    return err
//	}
//	if err := message.WritePrimitive[uint32](root, 0, 42); err != nil {
//	    return err
//	}
//	segs, err := msg.Finalize()
//
// Read it back on the other side:
//
//	in, err := message.Wrap(segs, message.DefaultReadLimits())
//	root, err := in.Root()
//	v, err := message.ReadPrimitive[uint32](root, 0)
//
// # Layout Contract
//
// Builder and Reader agree on a single byte layout, versioned as
// layout.Version. Fixed-width values are little-endian; struct and list
// fields hold 8-byte pointer words addressing regions allocated later in the
// same or a linked segment.
//
// # Thread Safety
//
// A Message under construction is single-writer: allocation advances a shared
// cursor. Finalized and wrapped messages are immutable and may be read from
// multiple goroutines. Independent messages never share segments.
package wireruntime
