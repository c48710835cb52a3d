package layout

import (
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/internal/abi"
)

// PointerKind is the tag stored in the low two bits of a pointer word.
type PointerKind uint8

const (
	PointerNull PointerKind = iota
	PointerStruct
	PointerList
	PointerFar
)

func (k PointerKind) String() string {
	switch k {
	case PointerNull:
		return "null"
	case PointerStruct:
		return "struct"
	case PointerList:
		return "list"
	case PointerFar:
		return "far"
	default:
		return "unknown"
	}
}

// MaxRelativeOffset is the largest distance a pointer word can encode.
const MaxRelativeOffset = 1<<30 - 1

// Pointer is a decoded pointer word.
//
// For struct and list pointers Offset is relative to the end of the slot.
// For far pointers Offset is the landing pad's offset and Size the segment id.
type Pointer struct {
	Kind   PointerKind
	Offset uint32
	Size   uint32
}

// StructPointer returns a struct pointer to a region of dataSize bytes at rel
// bytes past the slot end.
func StructPointer(rel, dataSize uint32) (Pointer, error) {
	return newPointer(PointerStruct, rel, dataSize)
}

// ListPointer returns a list pointer to count elements at rel bytes past the slot end.
func ListPointer(rel, count uint32) (Pointer, error) {
	return newPointer(PointerList, rel, count)
}

// FarPointer returns a pointer to a landing pad at padOffset in segment.
func FarPointer(padOffset, segment uint32) (Pointer, error) {
	return newPointer(PointerFar, padOffset, segment)
}

func newPointer(kind PointerKind, off, size uint32) (Pointer, error) {
	if off > MaxRelativeOffset {
		return Pointer{}, errors.New(errors.PhaseLayout, errors.KindOverflow).
			Detail("%s pointer offset %d exceeds %d", kind, off, MaxRelativeOffset).
			Value(off).
			Build()
	}
	return Pointer{Kind: kind, Offset: off, Size: size}, nil
}

// IsNull reports whether p is the null pointer.
func (p Pointer) IsNull() bool {
	return p.Kind == PointerNull
}

// Encode packs p into its wire word.
func (p Pointer) Encode() uint64 {
	if p.Kind == PointerNull {
		return 0
	}
	lo := p.Offset<<2 | uint32(p.Kind)
	return uint64(lo) | uint64(p.Size)<<32
}

// Target resolves a struct or list pointer against the end of its slot.
func (p Pointer) Target(slotEnd uint32) (uint32, error) {
	off, ok := abi.SafeAddU32(slotEnd, p.Offset)
	if !ok {
		return 0, errors.Overflow(errors.PhaseLayout, nil, "slotEnd+rel", uint64(slotEnd), uint64(p.Offset))
	}
	return off, nil
}

// DecodePointer unpacks a wire word.
func DecodePointer(word uint64) (Pointer, error) {
	if word == 0 {
		return Pointer{}, nil
	}
	lo := uint32(word)
	kind := PointerKind(lo & 3)
	if kind == PointerNull {
		return Pointer{}, errors.InvalidPointer(errors.PhaseRead, nil, word, "non-zero word with null tag")
	}
	return Pointer{Kind: kind, Offset: lo >> 2, Size: uint32(word >> 32)}, nil
}
