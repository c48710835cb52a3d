package segment

import (
	wireruntime "github.com/wippyai/wire-runtime"
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/internal/abi"
	"go.uber.org/zap"
)

// DefaultSegmentSize is the capacity of the first segment and the minimum
// capacity of linked segments.
const DefaultSegmentSize = 4096

// Options configures a Table.
type Options struct {
	// Arena supplies segment storage. nil means DefaultHeapArena().
	Arena wireruntime.Arena

	// Logger overrides the package logger for this table.
	Logger *zap.Logger

	// SegmentSize is the capacity of the first segment and the minimum
	// capacity of each linked segment. 0 means DefaultSegmentSize.
	SegmentSize uint32

	// MaxSegments caps the number of linked segments. 0 means no cap beyond
	// the format limit; 1 disables linking.
	MaxSegments uint32
}

// DefaultOptions returns default table configuration.
func DefaultOptions() Options {
	return Options{
		SegmentSize: DefaultSegmentSize,
	}
}

// Table is the ordered set of segments holding one message.
type Table struct {
	arena    wireruntime.Arena
	logger   *zap.Logger
	segments []*Segment
	regions  []wireruntime.Region
	opts     Options
	sealed   bool
	released bool
}

// NewTable creates a table and allocates its first segment.
func NewTable(opts Options) (*Table, error) {
	if opts.SegmentSize == 0 {
		opts.SegmentSize = DefaultSegmentSize
	}
	if opts.SegmentSize > abi.MaxSegmentSize {
		return nil, errors.InvalidInput(errors.PhaseAllocate, "segment size exceeds maximum")
	}
	if opts.MaxSegments == 0 || opts.MaxSegments > abi.MaxSegments {
		opts.MaxSegments = abi.MaxSegments
	}
	if opts.Arena == nil {
		opts.Arena = DefaultHeapArena()
	}
	log := opts.Logger
	if log == nil {
		log = Logger()
	}

	t := &Table{
		arena:  opts.Arena,
		logger: log,
		opts:   opts,
	}
	if _, err := t.link(opts.SegmentSize); err != nil {
		return nil, err
	}
	return t, nil
}

// TableFromBytes wraps received segments as a sealed, read-only table.
func TableFromBytes(segments [][]byte) (*Table, error) {
	if len(segments) == 0 {
		return nil, errors.InvalidInput(errors.PhaseWrap, "message has no segments")
	}
	if len(segments) > abi.MaxSegments {
		return nil, errors.LimitExceeded("segment count", uint64(len(segments)), abi.MaxSegments)
	}

	t := &Table{
		logger:   Logger(),
		segments: make([]*Segment, len(segments)),
		sealed:   true,
	}
	for i, data := range segments {
		if uint64(len(data)) > abi.MaxSegmentSize {
			return nil, errors.New(errors.PhaseWrap, errors.KindOutOfBounds).
				Detail("segment %d: %d bytes exceeds maximum segment size", i, len(data)).
				Build()
		}
		seg := FromBytes(uint32(i), data)
		seg.table = t
		t.segments[i] = seg
	}
	return t, nil
}

// Len returns the number of segments.
func (t *Table) Len() int {
	return len(t.segments)
}

// Segment returns the segment with the given id.
func (t *Table) Segment(id uint32) (*Segment, error) {
	if uint64(id) >= uint64(len(t.segments)) {
		return nil, errors.New(errors.PhaseRead, errors.KindOutOfBounds).
			Detail("segment id %d out of range (%d segments)", id, len(t.segments)).
			Value(id).
			Build()
	}
	return t.segments[id], nil
}

// First returns segment 0.
func (t *Table) First() *Segment {
	return t.segments[0]
}

// Segments returns the segments in id order.
func (t *Table) Segments() []*Segment {
	return t.segments
}

// Sealed reports whether the table is finalized.
func (t *Table) Sealed() bool {
	return t.sealed
}

// Seal moves the table to the finalized state. Allocation fails afterwards.
func (t *Table) Seal() {
	t.sealed = true
}

// Size returns the total allocated bytes across all segments.
func (t *Table) Size() uint64 {
	var n uint64
	for _, s := range t.segments {
		n += uint64(s.Len())
	}
	return n
}

// Bytes returns the allocated bytes of each segment in id order.
func (t *Table) Bytes() [][]byte {
	out := make([][]byte, len(t.segments))
	for i, s := range t.segments {
		out[i] = s.Bytes()
	}
	return out
}

// Alloc reserves n bytes, preferring the given segment. If it is full the
// newest segment is tried, then a new segment is linked. The returned
// segment may differ from preferred.
func (t *Table) Alloc(preferred *Segment, n uint32) (*Segment, uint32, error) {
	if t.sealed {
		return nil, 0, errors.Finalized("allocate")
	}
	if t.released {
		return nil, 0, errors.InvalidInput(errors.PhaseAllocate, "table released")
	}

	if preferred != nil {
		if off, err := preferred.Allocate(n); err == nil {
			return preferred, off, nil
		}
	}
	last := t.segments[len(t.segments)-1]
	if last != preferred {
		if off, err := last.Allocate(n); err == nil {
			return last, off, nil
		}
	}

	seg, err := t.Grow(n)
	if err != nil {
		return nil, 0, err
	}
	off, err := seg.Allocate(n)
	if err != nil {
		return nil, 0, err
	}
	return seg, off, nil
}

// Grow links a new segment with room for at least minSize bytes.
func (t *Table) Grow(minSize uint32) (*Segment, error) {
	if t.sealed {
		return nil, errors.Finalized("grow")
	}
	if uint32(len(t.segments)) >= t.opts.MaxSegments {
		last := t.segments[len(t.segments)-1]
		return nil, errors.New(errors.PhaseAllocate, errors.KindCapacity).
			Detail("cannot link segment %d: limit %d reached (%d bytes requested, %d free)",
				len(t.segments), t.opts.MaxSegments, minSize, last.Free()).
			Value(uint64(minSize)).
			Build()
	}
	if minSize > abi.MaxSegmentSize {
		return nil, errors.Capacity(errors.PhaseAllocate, uint32(len(t.segments)), uint64(minSize), abi.MaxSegmentSize)
	}

	size := t.opts.SegmentSize
	if minSize > size {
		size = minSize
	}
	return t.link(size)
}

func (t *Table) link(size uint32) (*Segment, error) {
	region, err := t.arena.Alloc(size)
	if err != nil {
		return nil, errors.AllocationFailed(errors.PhaseAllocate, size, err)
	}
	if uint32(len(region.Data)) < size {
		t.arena.Free(region)
		return nil, errors.AllocationFailed(errors.PhaseAllocate, size,
			errors.InvalidData(errors.PhaseAllocate, nil, "arena returned a short region"))
	}

	seg := New(uint32(len(t.segments)), region)
	seg.table = t
	t.segments = append(t.segments, seg)
	t.regions = append(t.regions, region)

	if seg.ID() > 0 {
		t.logger.Debug("linked segment",
			zap.Uint32("segment", seg.ID()),
			zap.Uint32("capacity", seg.Cap()),
			zap.Uint32("addr", seg.Addr()))
	}
	return seg, nil
}

// Release returns all segment storage to the arena. The table and every
// view over it must not be used afterwards.
func (t *Table) Release() {
	if t.released {
		return
	}
	t.released = true
	t.sealed = true
	for _, r := range t.regions {
		t.arena.Free(r)
	}
	if s, ok := t.arena.(wireruntime.ArenaSizer); ok {
		t.logger.Debug("released table",
			zap.Int("segments", len(t.segments)),
			zap.Uint64("arena_in_use", s.InUse()))
	}
	t.regions = nil
	t.segments = nil
}
