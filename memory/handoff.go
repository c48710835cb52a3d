package memory

import (
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/segment"
)

// Span locates one segment's bytes in guest memory.
type Span struct {
	Addr uint32
	Len  uint32
}

// Spans returns the guest location of each segment of t. Every segment must
// have been carved from a, and a must still be valid: after the guest grows
// its memory, writes made through the segments never reached the guest and
// Spans fails instead of handing over addresses of stale bytes.
func Spans(a *GuestArena, t *segment.Table) ([]Span, error) {
	if a == nil || t == nil {
		return nil, errors.InvalidInput(errors.PhaseWrap, "nil guest arena or segment table")
	}
	if err := a.Valid(); err != nil {
		return nil, errors.Wrap(errors.PhaseWrap, errors.KindInvalidData, err, "segments no longer alias guest memory")
	}
	segs := t.Segments()
	out := make([]Span, len(segs))
	for i, s := range segs {
		if !a.contains(s.Addr(), s.Len()) {
			return nil, errors.New(errors.PhaseWrap, errors.KindInvalidInput).
				Detail("segment %d at %d is not backed by the guest arena", i, s.Addr()).
				Value(s.Addr()).
				Build()
		}
		out[i] = Span{Addr: s.Addr(), Len: s.Len()}
	}
	return out, nil
}

// ReadSegments returns views of the given spans of guest memory, ready for
// message.Wrap. The views alias guest memory.
func ReadSegments(mem api.Memory, spans []Span) ([][]byte, error) {
	if mem == nil {
		return nil, errors.InvalidInput(errors.PhaseWrap, "nil guest memory")
	}
	out := make([][]byte, len(spans))
	for i, s := range spans {
		data, ok := mem.Read(s.Addr, s.Len)
		if !ok {
			return nil, errors.New(errors.PhaseWrap, errors.KindOutOfBounds).
				Detail("segment %d: guest range [%d,%d) outside memory of %d bytes",
					i, s.Addr, uint64(s.Addr)+uint64(s.Len), mem.Size()).
				Value(s.Addr).
				Build()
		}
		out[i] = data
	}
	return out, nil
}
