// Package message builds and reads messages in place.
//
// A Message owns the segments of one message. Builders write fields at
// fixed offsets inside struct regions; nested structs and lists are
// allocated out of line and referenced by pointer words. Readers mirror
// Builders over the same bytes and never allocate.
//
//	msg, _ := message.NewWithDefaults()
//	root, _ := msg.NewRoot(16)
//	_ = message.WritePrimitive(root, 0, uint32(42))
//	_ = root.SetText(8, "hello")
//	segs, _ := msg.Finalize()
//
//	recv, _ := message.Wrap(segs, message.DefaultReadLimits())
//	r, _ := recv.Root()
//	v, _ := message.ReadPrimitive[uint32](r, 0)
//
// Element sizes and field offsets are supplied by the caller, normally a
// generated stub that knows them statically. StructListBuilder and
// StructListReader fix the element size through a type parameter.
//
// All offset arithmetic is checked; any bounds or overflow failure is
// returned as an *errors.Error and never produces a view of the wrong bytes.
package message
