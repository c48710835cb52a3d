package message

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/layout"
	"github.com/wippyai/wire-runtime/segment"
)

// point is a 16-byte struct: x int32 at 0, y float64 at 8.
type point struct{}

func (point) DataSize() uint32 { return 16 }

func buildPoints(t *testing.T, opts Options, n uint32) *Message {
	t.Helper()
	msg, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root, err := msg.NewRoot(16)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	list, err := NewStructList[point](root, 0, n)
	if err != nil {
		t.Fatalf("NewStructList: %v", err)
	}
	for i := uint32(0); i < n; i++ {
		p, err := list.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if err := WritePrimitive(p, 0, int32(i)*-3); err != nil {
			t.Fatalf("write x: %v", err)
		}
		if err := WritePrimitive(p, 8, float64(i)+0.5); err != nil {
			t.Fatalf("write y: %v", err)
		}
	}
	if err := WritePrimitive(root, 8, n); err != nil {
		t.Fatalf("write count: %v", err)
	}
	return msg
}

func checkPoints(t *testing.T, segs [][]byte, n uint32) {
	t.Helper()
	in, err := Wrap(segs, DefaultReadLimits())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	root, err := in.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	count, err := ReadPrimitive[uint32](root, 8)
	if err != nil || count != n {
		t.Fatalf("count = %d, %v; want %d", count, err, n)
	}
	list, err := ReadStructList[point](root, 0)
	if err != nil {
		t.Fatalf("ReadStructList: %v", err)
	}
	if list.Len() != n {
		t.Fatalf("list length = %d, want %d", list.Len(), n)
	}
	for i := uint32(0); i < n; i++ {
		p, err := list.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		x, err := ReadPrimitive[int32](p, 0)
		if err != nil {
			t.Fatalf("read x: %v", err)
		}
		y, err := ReadPrimitive[float64](p, 8)
		if err != nil {
			t.Fatalf("read y: %v", err)
		}
		if x != int32(i)*-3 || y != float64(i)+0.5 {
			t.Errorf("point %d = (%d, %v), want (%d, %v)", i, x, y, int32(i)*-3, float64(i)+0.5)
		}
	}
}

func TestRoundTrip_StructList(t *testing.T) {
	for _, n := range []uint32{0, 1, 7, 100} {
		msg := buildPoints(t, DefaultOptions(), n)
		segs, err := msg.Finalize()
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if len(segs) != 1 {
			t.Errorf("n=%d: %d segments, want 1", n, len(segs))
		}
		checkPoints(t, segs, n)
		msg.Release()
	}
}

func TestRoundTrip_FarPointers(t *testing.T) {
	opts := DefaultOptions()
	opts.SegmentSize = 64
	msg := buildPoints(t, opts, 10)
	defer msg.Release()

	segs, err := msg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("%d segments, want 2", len(segs))
	}
	if len(segs[0]) != 24 {
		t.Errorf("segment 0 holds %d bytes, want 24", len(segs[0]))
	}
	// landing pad plus ten 16-byte points
	if len(segs[1]) != 8+160 {
		t.Errorf("segment 1 holds %d bytes, want 168", len(segs[1]))
	}

	p, err := layout.DecodePointer(binary.LittleEndian.Uint64(segs[0][8:]))
	if err != nil {
		t.Fatalf("DecodePointer: %v", err)
	}
	if p.Kind != layout.PointerFar || p.Offset != 0 || p.Size != 1 {
		t.Errorf("list slot = %+v, want far pointer to segment 1 offset 0", p)
	}
	checkPoints(t, segs, 10)
}

func TestNewStructField_LinkingDisabled(t *testing.T) {
	msg, err := New(Options{SegmentSize: 64, MaxSegments: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(16)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	before := msg.Size()
	if _, err := NewStructList[point](root, 0, 10); !errors.IsKind(err, errors.KindCapacity) {
		t.Fatalf("err = %v, want capacity", err)
	}
	if msg.Size() != before {
		t.Errorf("size = %d after failed allocation, want %d", msg.Size(), before)
	}
	if msg.Table().Len() != 1 {
		t.Errorf("%d segments, want 1", msg.Table().Len())
	}
}

func TestFinalize(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(16)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	first, err := msg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !msg.Finalized() {
		t.Error("Finalized() = false after Finalize")
	}
	second, err := msg.Finalize()
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if len(first) != len(second) || &first[0][0] != &second[0][0] {
		t.Error("second Finalize returned different bytes")
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"primitive", func() error { return WritePrimitive(root, 0, uint64(1)) }},
		{"struct", func() error { _, err := root.NewStructField(0, 8); return err }},
		{"list", func() error { _, err := root.NewListField(8, 1, 4); return err }},
		{"text", func() error { return root.SetText(0, "x") }},
		{"root", func() error { _, err := msg.NewRoot(8); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.IsKind(err, errors.KindFinalized) {
				t.Errorf("err = %v, want finalized", err)
			}
		})
	}
	if got := msg.Size(); got != 24 {
		t.Errorf("size = %d after rejected writes, want 24", got)
	}
}

func TestNewRoot_Twice(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	if _, err := msg.NewRoot(8); err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if _, err := msg.NewRoot(8); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("err = %v, want invalid_input", err)
	}
}

func TestBuilder_FieldBounds(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(8)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := WritePrimitive(root, 4, uint32(1)); err != nil {
		t.Errorf("in-struct write: %v", err)
	}
	if err := WritePrimitive(root, 6, uint32(1)); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("straddling write: err = %v, want out_of_bounds", err)
	}
	if err := WritePrimitive(root, 8, uint8(1)); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("past-end write: err = %v, want out_of_bounds", err)
	}
	if _, err := root.NewStructField(4, 8); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("straddling pointer: err = %v, want out_of_bounds", err)
	}
}

func TestDefaultTolerance(t *testing.T) {
	// sender knows only a u32 at offset 0
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(8)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := WritePrimitive(root, 0, uint32(7)); err != nil {
		t.Fatalf("WritePrimitive: %v", err)
	}
	segs, err := msg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// receiver expects a 32-byte struct
	in, err := Wrap(segs, DefaultReadLimits())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	r, err := in.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if r.Size() != 8 {
		t.Errorf("root size = %d, want 8", r.Size())
	}
	if v, err := ReadPrimitive[uint32](r, 0); err != nil || v != 7 {
		t.Errorf("known field = %d, %v; want 7", v, err)
	}
	if v, err := ReadPrimitive[uint64](r, 8); err != nil || v != 0 {
		t.Errorf("new field = %d, %v; want 0", v, err)
	}
	if v, err := ReadPrimitiveOr(r, 16, int16(-5)); err != nil || v != -5 {
		t.Errorf("new field with default = %d, %v; want -5", v, err)
	}
	child, err := r.ReadStructField(16)
	if err != nil || !child.IsNull() {
		t.Errorf("new struct field = %+v, %v; want null", child, err)
	}
	if v, err := ReadPrimitive[uint32](child, 0); err != nil || v != 0 {
		t.Errorf("field of null struct = %d, %v; want 0", v, err)
	}
	list, err := r.ReadListField(24)
	if err != nil || list.Len() != 0 {
		t.Errorf("new list field = len %d, %v; want empty", list.Len(), err)
	}
	if s, err := r.ReadText(24); err != nil || s != "" {
		t.Errorf("new text field = %q, %v; want empty", s, err)
	}
}

func TestNullPointerReadsEmpty(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	if _, err := msg.NewRoot(16); err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	r, err := msg.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	child, err := r.ReadStructField(0)
	if err != nil || !child.IsNull() {
		t.Errorf("unset struct = %+v, %v; want null", child, err)
	}
	data, err := r.ReadData(8)
	if err != nil || data != nil {
		t.Errorf("unset data = %v, %v; want nil", data, err)
	}
}

func TestTextDataUnion(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(32)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := root.SetText(0, "héllo, wörld"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0xff}
	if err := root.SetData(8, payload); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if err := root.SetUnionTag(16, 3); err != nil {
		t.Fatalf("SetUnionTag: %v", err)
	}
	if err := root.SetText(24, ""); err != nil {
		t.Fatalf("SetText empty: %v", err)
	}
	if err := root.SetText(24, "\xff\xfe"); !errors.IsKind(err, errors.KindInvalidUTF8) {
		t.Errorf("invalid text: err = %v, want invalid_utf8", err)
	}

	segs, err := msg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	in, err := Wrap(segs, DefaultReadLimits())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	r, err := in.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if s, err := r.ReadText(0); err != nil || s != "héllo, wörld" {
		t.Errorf("text = %q, %v", s, err)
	}
	if d, err := r.ReadData(8); err != nil || !bytes.Equal(d, payload) {
		t.Errorf("data = %x, %v; want %x", d, err, payload)
	}
	if tag, err := r.UnionTag(16); err != nil || tag != 3 {
		t.Errorf("union tag = %d, %v; want 3", tag, err)
	}
	if s, err := r.ReadText(24); err != nil || s != "" {
		t.Errorf("empty text = %q, %v", s, err)
	}
	// binary data is not text
	if _, err := r.ReadText(8); !errors.IsKind(err, errors.KindInvalidUTF8) {
		t.Errorf("data as text: err = %v, want invalid_utf8", err)
	}
	// a list pointer is not a struct pointer
	if _, err := r.ReadStructField(0); !errors.IsKind(err, errors.KindInvalidPointer) {
		t.Errorf("text as struct: err = %v, want invalid_pointer", err)
	}
}

func TestCanonicalNaN(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(16)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := WritePrimitive(root, 0, math.Float32frombits(0x7fc00001)); err != nil {
		t.Fatalf("write f32: %v", err)
	}
	if err := WritePrimitive(root, 8, math.Float64frombits(0xfff0000000000001)); err != nil {
		t.Fatalf("write f64: %v", err)
	}
	r := root.Reader()
	if bits, _ := ReadPrimitive[uint32](r, 0); bits != 0x7fc00000 {
		t.Errorf("f32 NaN bits = %#x, want 0x7fc00000", bits)
	}
	if bits, _ := ReadPrimitive[uint64](r, 8); bits != 0x7ff8000000000000 {
		t.Errorf("f64 NaN bits = %#x, want 0x7ff8000000000000", bits)
	}
}

func TestPrimitives(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(48)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	writes := []error{
		WritePrimitive(root, 0, true),
		WritePrimitive(root, 1, int8(-2)),
		WritePrimitive(root, 2, int16(-300)),
		WritePrimitive(root, 4, int32(-70000)),
		WritePrimitive(root, 8, int64(math.MinInt64)),
		WritePrimitive(root, 16, uint64(math.MaxUint64)),
		WritePrimitive(root, 24, float32(1.5)),
		WritePrimitive(root, 32, -2.25),
		WritePrimitive(root, 40, uint8(200)),
	}
	for i, err := range writes {
		if err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	r := root.Reader()
	check := func(name string, got, want any, err error) {
		t.Helper()
		if err != nil || got != want {
			t.Errorf("%s = %v, %v; want %v", name, got, err, want)
		}
	}
	b, err := ReadPrimitive[bool](r, 0)
	check("bool", b, true, err)
	i8, err := ReadPrimitive[int8](r, 1)
	check("int8", i8, int8(-2), err)
	i16, err := ReadPrimitive[int16](r, 2)
	check("int16", i16, int16(-300), err)
	i32, err := ReadPrimitive[int32](r, 4)
	check("int32", i32, int32(-70000), err)
	i64, err := ReadPrimitive[int64](r, 8)
	check("int64", i64, int64(math.MinInt64), err)
	u64, err := ReadPrimitive[uint64](r, 16)
	check("uint64", u64, uint64(math.MaxUint64), err)
	f32, err := ReadPrimitive[float32](r, 24)
	check("float32", f32, float32(1.5), err)
	f64, err := ReadPrimitive[float64](r, 32)
	check("float64", f64, -2.25, err)
	u8, err := ReadPrimitive[uint8](r, 40)
	check("uint8", u8, uint8(200), err)
}

func TestGoldenBytes(t *testing.T) {
	if layout.Version != 1 {
		t.Fatalf("layout version %d: update golden bytes", layout.Version)
	}
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(16)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := WritePrimitive(root, 0, uint32(42)); err != nil {
		t.Fatalf("WritePrimitive: %v", err)
	}
	if err := root.SetText(8, "hi"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	segs, err := msg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	want := []byte{
		0x01, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, // root: struct, rel 0, 16 bytes
		0x2a, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // u32 42
		0x02, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, // text: list, rel 0, 2 bytes
		'h', 'i', 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	if len(segs) != 1 || !bytes.Equal(segs[0], want) {
		t.Errorf("encoded =\n% x\nwant\n% x", segs, want)
	}
}

func TestWrap_Malformed(t *testing.T) {
	word := func(p layout.Pointer) []byte {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, p.Encode())
		return b
	}
	join := func(parts ...[]byte) []byte { return bytes.Join(parts, nil) }
	structPtr := func(rel, size uint32) []byte {
		p, _ := layout.StructPointer(rel, size)
		return word(p)
	}
	farPtr := func(pad, seg uint32) []byte {
		p, _ := layout.FarPointer(pad, seg)
		return word(p)
	}

	tests := []struct {
		name string
		segs [][]byte
		kind errors.Kind
	}{
		{"no segments", nil, errors.KindInvalidInput},
		{"short", [][]byte{{1, 2, 3}}, errors.KindInvalidData},
		{"null tag", [][]byte{{0x04, 0, 0, 0, 0, 0, 0, 0}}, errors.KindInvalidPointer},
		{"struct past end", [][]byte{join(structPtr(0, 16), make([]byte, 8))}, errors.KindOutOfBounds},
		{"target past end", [][]byte{join(structPtr(64, 8), make([]byte, 8))}, errors.KindOutOfBounds},
		{"far missing segment", [][]byte{farPtr(0, 3)}, errors.KindOutOfBounds},
		{"far pad past end", [][]byte{farPtr(0, 1), make([]byte, 4)}, errors.KindOutOfBounds},
		{"far to far", [][]byte{farPtr(0, 1), farPtr(0, 0)}, errors.KindInvalidPointer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Wrap(tt.segs, DefaultReadLimits())
			if err == nil {
				_, err = in.Root()
			}
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestFarPointer_Standalone(t *testing.T) {
	data := make([]byte, 8)
	p, _ := layout.FarPointer(0, 1)
	binary.LittleEndian.PutUint64(data, p.Encode())

	r := NewReader(segment.FromBytes(0, data), 0, 8)
	if _, err := r.ReadStructField(0); !errors.IsKind(err, errors.KindInvalidPointer) {
		t.Errorf("err = %v, want invalid_pointer", err)
	}
}

func TestReadLimits_Depth(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	cur, err := msg.NewRoot(8)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	for i := 0; i < 5; i++ {
		if cur, err = cur.NewStructField(0, 8); err != nil {
			t.Fatalf("level %d: %v", i, err)
		}
	}
	segs, err := msg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	in, err := Wrap(segs, ReadLimits{MaxDepth: 3})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	r, err := in.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	for depth := 2; depth <= 3; depth++ {
		if r, err = r.ReadStructField(0); err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
	}
	if _, err := r.ReadStructField(0); !errors.IsKind(err, errors.KindLimit) {
		t.Errorf("depth 4: err = %v, want limit", err)
	}
}

func TestReadLimits_Traversal(t *testing.T) {
	msg, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer msg.Release()

	root, err := msg.NewRoot(8)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if err := root.SetData(0, make([]byte, 100)); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	segs, err := msg.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	t.Run("single read", func(t *testing.T) {
		in, err := Wrap(segs, ReadLimits{MaxTraversal: 64})
		if err != nil {
			t.Fatalf("Wrap: %v", err)
		}
		r, err := in.Root()
		if err != nil {
			t.Fatalf("Root: %v", err)
		}
		if _, err := r.ReadData(0); !errors.IsKind(err, errors.KindLimit) {
			t.Errorf("err = %v, want limit", err)
		}
	})

	t.Run("repeated reads", func(t *testing.T) {
		in, err := Wrap(segs, ReadLimits{MaxTraversal: 200})
		if err != nil {
			t.Fatalf("Wrap: %v", err)
		}
		r, err := in.Root()
		if err != nil {
			t.Fatalf("Root: %v", err)
		}
		if _, err := r.ReadData(0); err != nil {
			t.Fatalf("first read: %v", err)
		}
		if _, err := r.ReadData(0); !errors.IsKind(err, errors.KindLimit) {
			t.Errorf("second read: err = %v, want limit", err)
		}
	})

	t.Run("fresh root", func(t *testing.T) {
		in, err := Wrap(segs, ReadLimits{MaxTraversal: 200})
		if err != nil {
			t.Fatalf("Wrap: %v", err)
		}
		for i := 0; i < 3; i++ {
			r, err := in.Root()
			if err != nil {
				t.Fatalf("Root: %v", err)
			}
			if _, err := r.ReadData(0); err != nil {
				t.Fatalf("read %d: %v", i, err)
			}
		}
	})
}

// listMessage is a root struct holding one list pointer to count elements,
// followed by 8 bytes of element data.
func listMessage(count uint32) [][]byte {
	data := make([]byte, 24)
	root, _ := layout.StructPointer(0, 8)
	list, _ := layout.ListPointer(0, count)
	binary.LittleEndian.PutUint64(data[0:], root.Encode())
	binary.LittleEndian.PutUint64(data[8:], list.Encode())
	return [][]byte{data}
}

func TestReadLimits_ListCounts(t *testing.T) {
	tests := []struct {
		name     string
		count    uint32
		elemSize uint32
		limits   ReadLimits
		kind     errors.Kind
	}{
		{"count past format limit", math.MaxUint32, 1, DefaultReadLimits(), errors.KindLimit},
		{"elements past segment", 1 << 26, 1, DefaultReadLimits(), errors.KindOutOfBounds},
		{"stride overflows", 1 << 28, 1 << 16, DefaultReadLimits(), errors.KindOutOfBounds},
		{"zero size past budget", 1 << 24, 0, DefaultReadLimits(), errors.KindLimit},
		{"zero size within budget", 4, 0, DefaultReadLimits(), ""},
		{"fits", 8, 1, DefaultReadLimits(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Wrap(listMessage(tt.count), tt.limits)
			if err != nil {
				t.Fatalf("Wrap: %v", err)
			}
			r, err := in.Root()
			if err != nil {
				t.Fatalf("Root: %v", err)
			}
			l, err := r.ReadListField(0)
			if err == nil {
				err = l.Check(tt.elemSize)
			}
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if l.Len() != tt.count {
					t.Errorf("Len() = %d, want %d", l.Len(), tt.count)
				}
				return
			}
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestReadLimits_ZeroSizeElementsCharged(t *testing.T) {
	// root costs 8, each empty element costs one word
	in, err := Wrap(listMessage(16), ReadLimits{MaxTraversal: 64})
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	r, err := in.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	l, err := r.ReadListField(0)
	if err != nil {
		t.Fatalf("ReadListField: %v", err)
	}
	if err := l.Check(0); !errors.IsKind(err, errors.KindLimit) {
		t.Errorf("Check: err = %v, want limit", err)
	}

	var read int
	for i := uint32(0); i < l.Len(); i++ {
		if _, err = l.ReadListElement(i, 0); err != nil {
			break
		}
		read++
	}
	if !errors.IsKind(err, errors.KindLimit) {
		t.Fatalf("err = %v, want limit", err)
	}
	if read != 7 {
		t.Errorf("read %d empty elements before the limit, want 7", read)
	}
}

func TestRelease(t *testing.T) {
	arena := segment.NewHeapArena()
	msg, err := New(Options{Arena: arena})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := msg.NewRoot(8); err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if arena.InUse() == 0 {
		t.Fatal("arena reports no use after NewRoot")
	}
	msg.Release()
	msg.Release()
	if arena.InUse() != 0 {
		t.Errorf("in use = %d after Release, want 0", arena.InUse())
	}
	if _, err := msg.Root(); err == nil {
		t.Error("Root succeeded after Release")
	}
	if _, err := msg.Finalize(); err == nil {
		t.Error("Finalize succeeded after Release")
	}
}
