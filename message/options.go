package message

import (
	"sync/atomic"

	wireruntime "github.com/wippyai/wire-runtime"
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/layout"
	"github.com/wippyai/wire-runtime/segment"
	"go.uber.org/zap"
)

const (
	DefaultMaxDepth     = 64
	DefaultMaxTraversal = 64 << 20
)

// ReadLimits bound the work a Reader does on untrusted input.
type ReadLimits struct {
	// MaxDepth caps struct and list nesting below the root. 0 means DefaultMaxDepth.
	MaxDepth uint32

	// MaxTraversal caps the total bytes dereferenced through one message's
	// readers, including repeated reads. 0 means DefaultMaxTraversal.
	MaxTraversal uint64
}

// DefaultReadLimits returns the default read limits.
func DefaultReadLimits() ReadLimits {
	return ReadLimits{
		MaxDepth:     DefaultMaxDepth,
		MaxTraversal: DefaultMaxTraversal,
	}
}

func (l ReadLimits) normalize() ReadLimits {
	if l.MaxDepth == 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxTraversal == 0 {
		l.MaxTraversal = DefaultMaxTraversal
	}
	return l
}

// Options configures message construction.
type Options struct {
	// Arena supplies segment storage. nil means the shared heap arena.
	Arena wireruntime.Arena

	// Logger overrides the package logger for this message.
	Logger *zap.Logger

	// Limits apply when the message is read back through Root.
	Limits ReadLimits

	// SegmentSize is the first segment's capacity and the minimum capacity
	// of linked segments. 0 means segment.DefaultSegmentSize.
	SegmentSize uint32

	// MaxSegments caps linked segments; 1 disables linking. 0 means no cap.
	MaxSegments uint32
}

// DefaultOptions returns default message configuration.
func DefaultOptions() Options {
	return Options{
		SegmentSize: segment.DefaultSegmentSize,
		Limits:      DefaultReadLimits(),
	}
}

// readState is shared by every Reader derived from one root.
type readState struct {
	limits    ReadLimits
	traversed atomic.Uint64
}

func newReadState(limits ReadLimits) *readState {
	return &readState{limits: limits.normalize()}
}

// cost is the traversal charge for dereferencing n bytes. Empty regions
// still cost a word so that zero-size elements cannot be walked for free.
func cost(n uint32) uint64 {
	if n == 0 {
		return layout.WordSize
	}
	return uint64(n)
}

func (s *readState) account(n uint32) error {
	if s == nil {
		return nil
	}
	total := s.traversed.Add(cost(n))
	if total > s.limits.MaxTraversal {
		return errors.LimitExceeded("traversed bytes", total, s.limits.MaxTraversal)
	}
	return nil
}

// check reports whether n more bytes would exceed the traversal budget
// without charging them.
func (s *readState) check(n uint64) error {
	if s == nil {
		return nil
	}
	if total := s.traversed.Load() + n; total > s.limits.MaxTraversal {
		return errors.LimitExceeded("traversed bytes", total, s.limits.MaxTraversal)
	}
	return nil
}

func (s *readState) enter(depth uint32) error {
	if s == nil {
		return nil
	}
	if depth > s.limits.MaxDepth {
		return errors.LimitExceeded("nesting depth", uint64(depth), uint64(s.limits.MaxDepth))
	}
	return nil
}
