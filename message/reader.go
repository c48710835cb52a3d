package message

import (
	"unicode/utf8"

	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/internal/abi"
	"github.com/wippyai/wire-runtime/layout"
	"github.com/wippyai/wire-runtime/segment"
)

// Reader is an immutable view over a struct region. A Reader never writes
// or allocates.
//
// Fields that extend past the struct size, such as fields added after the
// sender was built, read as zero values. A null Reader (IsNull) reads every
// field as its zero value.
type Reader struct {
	seg   *segment.Segment
	state *readState
	base  uint32
	size  uint32
	depth uint32
}

// NewReader returns a view of a size-byte struct at base. Readers made this
// way carry no read limits.
func NewReader(seg *segment.Segment, base, size uint32) Reader {
	return Reader{seg: seg, base: base, size: size}
}

func (r Reader) Segment() *segment.Segment { return r.seg }

func (r Reader) Base() uint32 { return r.base }

// Size returns the struct data size the sender encoded.
func (r Reader) Size() uint32 { return r.size }

// IsNull reports whether the view came from a null pointer.
func (r Reader) IsNull() bool { return r.seg == nil }

// field resolves an n-byte field. present is false when the field lies
// outside the encoded struct.
func (r Reader) field(fieldOffset, n uint32) (off uint32, present bool, err error) {
	if r.seg == nil || uint64(fieldOffset)+uint64(n) > uint64(r.size) {
		return 0, false, nil
	}
	off, err = layout.DeriveOffset(r.base, fieldOffset)
	if err != nil {
		return 0, false, err
	}
	return off, true, nil
}

// pointer resolves the pointer slot at fieldOffset, following a far pointer
// through its landing pad. A missing or null slot yields a null pointer.
func (r Reader) pointer(fieldOffset uint32) (*segment.Segment, uint32, layout.Pointer, error) {
	slot, present, err := r.field(fieldOffset, layout.PointerSize)
	if err != nil || !present {
		return nil, 0, layout.Pointer{}, err
	}
	word, err := r.seg.ReadU64(slot)
	if err != nil {
		return nil, 0, layout.Pointer{}, err
	}
	p, err := layout.DecodePointer(word)
	if err != nil || p.IsNull() {
		return nil, 0, layout.Pointer{}, err
	}

	if p.Kind != layout.PointerFar {
		target, err := p.Target(slot + layout.PointerSize)
		if err != nil {
			return nil, 0, layout.Pointer{}, err
		}
		return r.seg, target, p, nil
	}

	t := r.seg.Table()
	if t == nil {
		return nil, 0, layout.Pointer{}, errors.InvalidPointer(errors.PhaseRead, nil, word, "far pointer in standalone segment")
	}
	seg, err := t.Segment(p.Size)
	if err != nil {
		return nil, 0, layout.Pointer{}, err
	}
	padWord, err := seg.ReadU64(p.Offset)
	if err != nil {
		return nil, 0, layout.Pointer{}, err
	}
	pad, err := layout.DecodePointer(padWord)
	if err != nil {
		return nil, 0, layout.Pointer{}, err
	}
	if pad.Kind != layout.PointerStruct && pad.Kind != layout.PointerList {
		return nil, 0, layout.Pointer{}, errors.InvalidPointer(errors.PhaseRead, nil, padWord, "landing pad must be a struct or list pointer")
	}
	if err := r.state.account(layout.PointerSize); err != nil {
		return nil, 0, layout.Pointer{}, err
	}
	target, err := pad.Target(p.Offset + layout.PointerSize)
	if err != nil {
		return nil, 0, layout.Pointer{}, err
	}
	return seg, target, pad, nil
}

// ReadStructField follows the struct pointer at fieldOffset. A null or
// missing pointer yields a null Reader.
func (r Reader) ReadStructField(fieldOffset uint32) (Reader, error) {
	seg, target, p, err := r.pointer(fieldOffset)
	if err != nil || seg == nil {
		return Reader{}, err
	}
	if p.Kind != layout.PointerStruct {
		return Reader{}, errors.InvalidPointer(errors.PhaseRead, []string{"struct"}, p.Encode(), "expected struct pointer, got "+p.Kind.String())
	}
	if uint64(target)+uint64(p.Size) > uint64(seg.Len()) {
		return Reader{}, errors.RangeOutOfBounds(errors.PhaseRead, seg.ID(), uint64(target), uint64(p.Size), seg.Len())
	}
	depth := r.depth + 1
	if err := r.state.enter(depth); err != nil {
		return Reader{}, err
	}
	if err := r.state.account(p.Size); err != nil {
		return Reader{}, err
	}
	return Reader{seg: seg, state: r.state, base: target, size: p.Size, depth: depth}, nil
}

// ReadListField follows the list pointer at fieldOffset. A null or missing
// pointer yields an empty list.
func (r Reader) ReadListField(fieldOffset uint32) (ListReader, error) {
	seg, target, p, err := r.pointer(fieldOffset)
	if err != nil || seg == nil {
		return ListReader{}, err
	}
	if p.Kind != layout.PointerList {
		return ListReader{}, errors.InvalidPointer(errors.PhaseRead, []string{"list"}, p.Encode(), "expected list pointer, got "+p.Kind.String())
	}
	if p.Size > abi.MaxListLength {
		return ListReader{}, errors.LimitExceeded("list length", uint64(p.Size), abi.MaxListLength)
	}
	if target > seg.Len() {
		return ListReader{}, errors.RangeOutOfBounds(errors.PhaseRead, seg.ID(), uint64(target), 0, seg.Len())
	}
	depth := r.depth + 1
	if err := r.state.enter(depth); err != nil {
		return ListReader{}, err
	}
	return ListReader{seg: seg, state: r.state, base: target, length: p.Size, depth: depth}, nil
}

// ReadData returns the byte list at fieldOffset. The slice aliases the
// message and must not be modified.
func (r Reader) ReadData(fieldOffset uint32) ([]byte, error) {
	l, err := r.ReadListField(fieldOffset)
	if err != nil || l.length == 0 {
		return nil, err
	}
	b, err := l.seg.Read(l.base, l.length)
	if err != nil {
		return nil, err
	}
	if err := r.state.account(l.length); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadText returns the text at fieldOffset.
func (r Reader) ReadText(fieldOffset uint32) (string, error) {
	b, err := r.ReadData(fieldOffset)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.InvalidUTF8(errors.PhaseRead, []string{"text"}, b)
	}
	return string(b), nil
}

// UnionTag reads the union discriminant at fieldOffset.
func (r Reader) UnionTag(fieldOffset uint32) (uint16, error) {
	return ReadPrimitive[uint16](r, fieldOffset)
}
