package message

import (
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/layout"
	"github.com/wippyai/wire-runtime/segment"
)

// ListBuilder addresses the elements of an allocated list region. The element
// size is supplied per call by the caller, which knows the element type.
type ListBuilder struct {
	seg    *segment.Segment
	base   uint32
	length uint32
}

// NewListBuilder returns a view of length elements starting at base.
func NewListBuilder(seg *segment.Segment, base, length uint32) ListBuilder {
	return ListBuilder{seg: seg, base: base, length: length}
}

func (l ListBuilder) Segment() *segment.Segment { return l.seg }

func (l ListBuilder) Base() uint32 { return l.base }

// Len returns the element count fixed at creation.
func (l ListBuilder) Len() uint32 { return l.length }

// ReadListElement returns a Builder over element i, based at
// Base() + i*elementSize in the same segment. elementSize must match the
// list's element type; it cannot be checked here.
func (l ListBuilder) ReadListElement(i, elementSize uint32) (Builder, error) {
	off, err := element(errors.PhaseBuild, l.seg, l.base, l.length, i, elementSize)
	if err != nil {
		return Builder{}, err
	}
	return newStructBuilder(l.seg, off, elementSize), nil
}

// Reader returns a read-side view of the same list.
func (l ListBuilder) Reader() ListReader {
	return NewListReader(l.seg, l.base, l.length)
}

// element computes and validates the offset of element i.
func element(phase errors.Phase, seg *segment.Segment, base, length, i, elementSize uint32) (uint32, error) {
	if seg == nil {
		return 0, errors.OutOfBounds(phase, nil, uint64(i), 0)
	}
	if i >= length {
		return 0, errors.OutOfBounds(phase, nil, uint64(i), uint64(length))
	}
	off, err := layout.DeriveElementOffset(base, i, elementSize)
	if err != nil {
		return 0, errors.WithPath(err, "element")
	}
	if uint64(off)+uint64(elementSize) > uint64(seg.Len()) {
		return 0, errors.RangeOutOfBounds(phase, seg.ID(), uint64(off), uint64(elementSize), seg.Len())
	}
	return off, nil
}

// ListReader is the read-side mirror of ListBuilder.
type ListReader struct {
	seg    *segment.Segment
	state  *readState
	base   uint32
	length uint32
	depth  uint32
}

// NewListReader returns a view of length elements starting at base.
func NewListReader(seg *segment.Segment, base, length uint32) ListReader {
	return ListReader{seg: seg, base: base, length: length}
}

func (l ListReader) Segment() *segment.Segment { return l.seg }

func (l ListReader) Base() uint32 { return l.base }

// Len returns the element count. A null list has length 0.
func (l ListReader) Len() uint32 { return l.length }

// Check verifies that all Len elements of elementSize bytes lie inside the
// segment and that reading every one of them fits the remaining traversal
// budget. Nothing is charged. Callers iterating an untrusted list call Check
// before sizing anything by Len.
func (l ListReader) Check(elementSize uint32) error {
	if l.length == 0 {
		return nil
	}
	if l.seg == nil {
		return errors.OutOfBounds(errors.PhaseRead, nil, 0, 0)
	}
	n := uint64(l.length) * uint64(elementSize)
	if uint64(l.base)+n > uint64(l.seg.Len()) {
		return errors.RangeOutOfBounds(errors.PhaseRead, l.seg.ID(), uint64(l.base), n, l.seg.Len())
	}
	return l.state.check(uint64(l.length) * cost(elementSize))
}

// ReadListElement returns a Reader over element i.
func (l ListReader) ReadListElement(i, elementSize uint32) (Reader, error) {
	off, err := element(errors.PhaseRead, l.seg, l.base, l.length, i, elementSize)
	if err != nil {
		return Reader{}, err
	}
	if err := l.state.account(elementSize); err != nil {
		return Reader{}, err
	}
	return Reader{seg: l.seg, state: l.state, base: off, size: elementSize, depth: l.depth}, nil
}
