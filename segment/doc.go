// Package segment implements the append-only memory segments that hold an
// encoded message.
//
// # Segment
//
// A Segment is a fixed-capacity block with a monotonically advancing length
// cursor. Allocate reserves bytes at the cursor and never moves or resizes
// previously allocated bytes:
//
//	0          length            capacity
//	├──────────┼─────────────────┤
//	 allocated   free (writes rejected)
//
// Reads and writes must fall inside [0, length). Fixed-width helpers encode
// little-endian.
//
// # Table
//
// A Table is the ordered set of segments belonging to one message. When the
// preferred segment is full, Table.Alloc grows the message by linking a new
// segment instead of resizing. Setting Options.MaxSegments to 1 disables
// linking; the capacity error is then returned to the caller.
//
// # Arenas
//
// Segment storage comes from a wireruntime.Arena. HeapArena pools Go heap
// buffers by power-of-two size class and zeroes them on reuse. The memory
// package provides an arena backed by WebAssembly linear memory.
//
// # Thread Safety
//
// Segments and Tables are single-writer. A sealed Table is immutable and may
// be read concurrently.
package segment
