package layout

import (
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/internal/abi"
)

// Version identifies the wire layout contract implemented by this package.
const Version = 1

const (
	// WordSize is the allocation granularity used by builders.
	WordSize = 8
	// PointerSize is the size of a struct or list pointer slot.
	PointerSize = 8
)

// DeriveOffset returns base+fieldOffset, failing on overflow.
func DeriveOffset(base, fieldOffset uint32) (uint32, error) {
	off, ok := abi.SafeAddU32(base, fieldOffset)
	if !ok {
		return 0, errors.Overflow(errors.PhaseLayout, nil, "base+fieldOffset", uint64(base), uint64(fieldOffset))
	}
	return off, nil
}

// DeriveElementOffset returns base+index*elementSize, failing on overflow of
// either the product or the sum.
func DeriveElementOffset(base, index, elementSize uint32) (uint32, error) {
	rel, ok := abi.SafeMulU32(index, elementSize)
	if !ok {
		return 0, errors.Overflow(errors.PhaseLayout, nil, "index*elementSize", uint64(index), uint64(elementSize))
	}
	off, ok := abi.SafeAddU32(base, rel)
	if !ok {
		return 0, errors.Overflow(errors.PhaseLayout, nil, "base+index*elementSize", uint64(base), uint64(rel))
	}
	return off, nil
}

// RegionSize returns count*elementSize, failing on overflow.
func RegionSize(count, elementSize uint32) (uint32, error) {
	n, ok := abi.SafeMulU32(count, elementSize)
	if !ok {
		return 0, errors.Overflow(errors.PhaseLayout, nil, "count*elementSize", uint64(count), uint64(elementSize))
	}
	return n, nil
}

// WordAlign rounds n up to a whole number of words.
func WordAlign(n uint32) (uint32, error) {
	v, ok := abi.AlignToChecked(n, WordSize)
	if !ok {
		return 0, errors.Overflow(errors.PhaseLayout, nil, "word align", uint64(n), WordSize)
	}
	return v, nil
}
