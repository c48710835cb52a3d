package segment

import (
	"encoding/binary"

	wireruntime "github.com/wippyai/wire-runtime"
	"github.com/wippyai/wire-runtime/errors"
)

// Segment is a fixed-capacity, append-only block of message bytes.
type Segment struct {
	table    *Table
	data     []byte
	addr     uint32
	id       uint32
	length   uint32
	readOnly bool
}

// New creates an empty segment over an arena region.
func New(id uint32, region wireruntime.Region) *Segment {
	return &Segment{
		id:   id,
		data: region.Data,
		addr: region.Addr,
	}
}

// FromBytes wraps received bytes as a fully allocated, read-only segment.
func FromBytes(id uint32, data []byte) *Segment {
	return &Segment{
		id:       id,
		data:     data,
		length:   uint32(len(data)),
		readOnly: true,
	}
}

func (s *Segment) ID() uint32 { return s.id }

// Len returns the number of allocated bytes.
func (s *Segment) Len() uint32 { return s.length }

func (s *Segment) Cap() uint32 { return uint32(len(s.data)) }

// Free returns the unallocated capacity.
func (s *Segment) Free() uint32 { return s.Cap() - s.length }

// Addr returns the segment's address in its arena (0 for heap segments).
func (s *Segment) Addr() uint32 { return s.addr }

// Table returns the owning table, or nil for a standalone segment.
func (s *Segment) Table() *Table { return s.table }

func (s *Segment) ReadOnly() bool { return s.readOnly }

// Bytes returns the allocated prefix [0, Len()). The slice aliases the segment.
func (s *Segment) Bytes() []byte {
	return s.data[:s.length:s.length]
}

// Allocate reserves n bytes at the cursor and returns their offset.
// On a capacity error the cursor is left unchanged.
func (s *Segment) Allocate(n uint32) (uint32, error) {
	if s.readOnly {
		return 0, s.readOnlyErr(errors.PhaseAllocate)
	}
	if uint64(s.length)+uint64(n) > uint64(len(s.data)) {
		return 0, errors.Capacity(errors.PhaseAllocate, s.id, uint64(n), s.Free())
	}
	off := s.length
	s.length += n
	return off, nil
}

// Read returns a view of [off, off+n). The view aliases the segment.
func (s *Segment) Read(off, n uint32) ([]byte, error) {
	if err := s.checkRead(off, n); err != nil {
		return nil, err
	}
	end := off + n
	return s.data[off:end:end], nil
}

// Write copies p into [off, off+len(p)).
func (s *Segment) Write(off uint32, p []byte) error {
	if err := s.checkWrite(off, uint64(len(p))); err != nil {
		return err
	}
	copy(s.data[off:], p)
	return nil
}

func (s *Segment) checkRead(off, n uint32) error {
	if uint64(off)+uint64(n) > uint64(s.length) {
		return errors.RangeOutOfBounds(errors.PhaseRead, s.id, uint64(off), uint64(n), s.length)
	}
	return nil
}

func (s *Segment) checkWrite(off uint32, n uint64) error {
	if s.readOnly {
		return s.readOnlyErr(errors.PhaseBuild)
	}
	end := uint64(off) + n
	if end > uint64(len(s.data)) {
		return errors.RangeOutOfBounds(errors.PhaseBuild, s.id, uint64(off), n, s.length)
	}
	if end > uint64(s.length) {
		return errors.Unallocated(s.id, uint64(off), n, s.length)
	}
	return nil
}

func (s *Segment) readOnlyErr(phase errors.Phase) error {
	return errors.New(phase, errors.KindFinalized).
		Detail("segment %d is read-only", s.id).
		Build()
}

// ReadU8 reads an unsigned 8-bit value.
func (s *Segment) ReadU8(off uint32) (uint8, error) {
	if err := s.checkRead(off, 1); err != nil {
		return 0, err
	}
	return s.data[off], nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (s *Segment) ReadU16(off uint32) (uint16, error) {
	if err := s.checkRead(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s.data[off:]), nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (s *Segment) ReadU32(off uint32) (uint32, error) {
	if err := s.checkRead(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s.data[off:]), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (s *Segment) ReadU64(off uint32) (uint64, error) {
	if err := s.checkRead(off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s.data[off:]), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (s *Segment) WriteU8(off uint32, v uint8) error {
	if err := s.checkWrite(off, 1); err != nil {
		return err
	}
	s.data[off] = v
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (s *Segment) WriteU16(off uint32, v uint16) error {
	if err := s.checkWrite(off, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(s.data[off:], v)
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (s *Segment) WriteU32(off uint32, v uint32) error {
	if err := s.checkWrite(off, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s.data[off:], v)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (s *Segment) WriteU64(off uint32, v uint64) error {
	if err := s.checkWrite(off, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s.data[off:], v)
	return nil
}
