// Package layout defines the wire layout contract shared by builders and readers.
//
// # Offset Arithmetic
//
// DeriveOffset and DeriveElementOffset are the only primitives used to locate
// a field or list element. Both are checked: an overflowing computation is
// reported as a KindOverflow error instead of wrapping to a small in-range
// offset.
//
// # Pointer Words
//
// Struct and list fields hold an 8-byte little-endian pointer word:
//
//	lo (bytes 0-3)               hi (bytes 4-7)
//	──────────────────────────────────────────────────────
//	0                            0              null
//	rel<<2 | 1                   data size      struct
//	rel<<2 | 2                   element count  list
//	pad<<2 | 3                   segment id     far
//
// rel is the byte distance from the end of the pointer slot to the target.
// A far pointer addresses a landing pad in another segment; the pad holds a
// struct or list pointer relative to the pad's own end.
//
// # Schema Layout
//
// Calculator maps WIT types to slot sizes, struct field offsets and list
// element strides, so stub generators and the schema walker agree on the
// same layout:
//
//	Type              Slot    Align   Element stride
//	──────────────────────────────────────────────────
//	bool/u8/s8        1       1       1
//	u16/s16           2       2       2
//	u32/s32/f32/char  4       4       4
//	u64/s64/f64       8       8       8
//	string/list<T>    8       8       8 (pointer)
//	record/tuple      8       8       data size (inline)
//	enum              1/2/4   1/2/4   same
//	flags             1/2/4/8 1/2/4/8 same
//	option/result     tag+payload     same
//	variant           disc+payload    same
package layout
