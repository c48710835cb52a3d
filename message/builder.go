package message

import (
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/internal/abi"
	"github.com/wippyai/wire-runtime/layout"
	"github.com/wippyai/wire-runtime/segment"
)

// Builder is a mutable view over a struct region of one segment.
//
// Builders are values: copying one yields another view of the same bytes.
// Builders derived from one message share its segment cursors and must not
// be used from more than one goroutine at a time.
type Builder struct {
	seg     *segment.Segment
	base    uint32
	size    uint32
	bounded bool
}

// NewBuilder returns a view of seg at base. It allocates nothing and its
// writes are bounded only by the segment's allocated length.
func NewBuilder(seg *segment.Segment, base uint32) Builder {
	return Builder{seg: seg, base: base}
}

func newStructBuilder(seg *segment.Segment, base, size uint32) Builder {
	return Builder{seg: seg, base: base, size: size, bounded: true}
}

// Segment returns the segment the view addresses.
func (b Builder) Segment() *segment.Segment { return b.seg }

// Base returns the view's byte offset within its segment.
func (b Builder) Base() uint32 { return b.base }

// Size returns the struct data size, or 0 for views made by NewBuilder.
func (b Builder) Size() uint32 { return b.size }

// Reader returns a read-side view of the same bytes.
func (b Builder) Reader() Reader {
	if b.seg == nil {
		return Reader{}
	}
	size := b.size
	if !b.bounded {
		if b.base > b.seg.Len() {
			size = 0
		} else {
			size = b.seg.Len() - b.base
		}
	}
	return NewReader(b.seg, b.base, size)
}

func (b Builder) ready() error {
	if b.seg == nil {
		return errors.InvalidInput(errors.PhaseBuild, "builder has no segment")
	}
	if t := b.seg.Table(); t != nil && t.Sealed() {
		return errors.Finalized("write")
	}
	return nil
}

// field resolves an n-byte field at fieldOffset to a segment offset.
func (b Builder) field(fieldOffset, n uint32) (uint32, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	if b.bounded && uint64(fieldOffset)+uint64(n) > uint64(b.size) {
		return 0, errors.New(errors.PhaseBuild, errors.KindOutOfBounds).
			Detail("field [%d,%d) outside struct of %d bytes", fieldOffset, uint64(fieldOffset)+uint64(n), b.size).
			Value(fieldOffset).
			Build()
	}
	return layout.DeriveOffset(b.base, fieldOffset)
}

// slot resolves the pointer slot at fieldOffset and checks it is allocated,
// so a failed slot never consumes segment space.
func (b Builder) slot(fieldOffset uint32) (uint32, error) {
	off, err := b.field(fieldOffset, layout.PointerSize)
	if err != nil {
		return 0, err
	}
	if uint64(off)+layout.PointerSize > uint64(b.seg.Len()) {
		if uint64(off)+layout.PointerSize > uint64(b.seg.Cap()) {
			return 0, errors.RangeOutOfBounds(errors.PhaseBuild, b.seg.ID(), uint64(off), layout.PointerSize, b.seg.Len())
		}
		return 0, errors.Unallocated(b.seg.ID(), uint64(off), layout.PointerSize, b.seg.Len())
	}
	return off, nil
}

// place allocates n bytes for the target of the pointer slot at slot and
// writes the pointer. The target lands in the slot's segment when it fits;
// otherwise it goes to a linked segment behind a landing pad and the slot
// receives a far pointer.
func (b Builder) place(slot uint32, kind layout.PointerKind, n, meta uint32) (*segment.Segment, uint32, error) {
	words, err := layout.WordAlign(n)
	if err != nil {
		return nil, 0, err
	}

	off, err := b.seg.Allocate(words)
	if err == nil {
		p, err := nearPointer(kind, off-(slot+layout.PointerSize), meta)
		if err != nil {
			return nil, 0, err
		}
		if err := b.seg.WriteU64(slot, p.Encode()); err != nil {
			return nil, 0, err
		}
		return b.seg, off, nil
	}

	t := b.seg.Table()
	if t == nil || !errors.IsKind(err, errors.KindCapacity) {
		return nil, 0, err
	}
	padded, ok := abi.SafeAddU32(words, layout.PointerSize)
	if !ok {
		return nil, 0, errors.Overflow(errors.PhaseBuild, nil, "far allocation", uint64(words), layout.PointerSize)
	}
	seg, pad, err := t.Alloc(b.seg, padded)
	if err != nil {
		return nil, 0, err
	}
	landing, err := nearPointer(kind, 0, meta)
	if err != nil {
		return nil, 0, err
	}
	if err := seg.WriteU64(pad, landing.Encode()); err != nil {
		return nil, 0, err
	}
	far, err := layout.FarPointer(pad, seg.ID())
	if err != nil {
		return nil, 0, err
	}
	if err := b.seg.WriteU64(slot, far.Encode()); err != nil {
		return nil, 0, err
	}
	return seg, pad + layout.PointerSize, nil
}

func nearPointer(kind layout.PointerKind, rel, meta uint32) (layout.Pointer, error) {
	if kind == layout.PointerList {
		return layout.ListPointer(rel, meta)
	}
	return layout.StructPointer(rel, meta)
}

// NewStructField allocates a structSize-byte struct, points the slot at
// fieldOffset to it and returns a Builder over it.
func (b Builder) NewStructField(fieldOffset, structSize uint32) (Builder, error) {
	slot, err := b.slot(fieldOffset)
	if err != nil {
		return Builder{}, err
	}
	seg, off, err := b.place(slot, layout.PointerStruct, structSize, structSize)
	if err != nil {
		return Builder{}, errors.WithPath(err, "struct")
	}
	return newStructBuilder(seg, off, structSize), nil
}

// NewListField allocates count elements of elementSize bytes, writes the list
// descriptor at fieldOffset and returns a ListBuilder over the elements.
func (b Builder) NewListField(fieldOffset, elementSize, count uint32) (ListBuilder, error) {
	if count > abi.MaxListLength {
		return ListBuilder{}, errors.New(errors.PhaseBuild, errors.KindLimit).
			Detail("list length %d exceeds %d", count, abi.MaxListLength).
			Value(count).
			Build()
	}
	n, err := layout.RegionSize(count, elementSize)
	if err != nil {
		return ListBuilder{}, err
	}
	slot, err := b.slot(fieldOffset)
	if err != nil {
		return ListBuilder{}, err
	}
	seg, off, err := b.place(slot, layout.PointerList, n, count)
	if err != nil {
		return ListBuilder{}, errors.WithPath(err, "list")
	}
	return NewListBuilder(seg, off, count), nil
}

// SetText stores s as a byte list at fieldOffset. s must be valid UTF-8.
func (b Builder) SetText(fieldOffset uint32, s string) error {
	if !utf8.ValidString(s) {
		return errors.InvalidUTF8(errors.PhaseBuild, []string{"text"}, []byte(s))
	}
	return b.setBytes(fieldOffset, unsafe.Slice(unsafe.StringData(s), len(s)))
}

// SetData stores p as a byte list at fieldOffset.
func (b Builder) SetData(fieldOffset uint32, p []byte) error {
	return b.setBytes(fieldOffset, p)
}

func (b Builder) setBytes(fieldOffset uint32, p []byte) error {
	if uint64(len(p)) > abi.MaxListLength {
		return errors.New(errors.PhaseBuild, errors.KindLimit).
			Detail("byte list of %d bytes exceeds %d", len(p), abi.MaxListLength).
			Build()
	}
	l, err := b.NewListField(fieldOffset, 1, uint32(len(p)))
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	return l.seg.Write(l.base, p)
}

// SetUnionTag writes a union discriminant at fieldOffset.
func (b Builder) SetUnionTag(fieldOffset uint32, tag uint16) error {
	return WritePrimitive(b, fieldOffset, tag)
}
