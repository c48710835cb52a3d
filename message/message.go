package message

import (
	"github.com/wippyai/wire-runtime/errors"
	"github.com/wippyai/wire-runtime/layout"
	"github.com/wippyai/wire-runtime/segment"
	"go.uber.org/zap"
)

// Message is the construction context of one message: it owns the segment
// table that every Builder and Reader of the message views.
//
// A Message is either building or finalized. Finalize moves it to the
// finalized state, after which every write fails.
type Message struct {
	table    *segment.Table
	logger   *zap.Logger
	limits   ReadLimits
	out      [][]byte
	released bool
}

// New creates a message with one empty segment.
func New(opts Options) (*Message, error) {
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	topts := segment.DefaultOptions()
	topts.Arena = opts.Arena
	topts.Logger = log
	topts.MaxSegments = opts.MaxSegments
	if opts.SegmentSize != 0 {
		topts.SegmentSize = opts.SegmentSize
	}
	t, err := segment.NewTable(topts)
	if err != nil {
		return nil, err
	}
	return &Message{
		table:  t,
		logger: log,
		limits: opts.Limits.normalize(),
	}, nil
}

// NewWithDefaults creates a message with DefaultOptions.
func NewWithDefaults() (*Message, error) {
	return New(DefaultOptions())
}

// Wrap exposes received segments as a finalized message. The segments are
// not copied and must stay unmodified while the message is in use.
func Wrap(segments [][]byte, limits ReadLimits) (*Message, error) {
	t, err := segment.TableFromBytes(segments)
	if err != nil {
		return nil, err
	}
	m := &Message{
		table:  t,
		logger: Logger(),
		limits: limits.normalize(),
		out:    segments,
	}
	m.logger.Debug("wrapped message",
		zap.Int("segments", t.Len()),
		zap.Uint64("bytes", t.Size()))
	return m, nil
}

// Table returns the message's segments.
func (m *Message) Table() *segment.Table { return m.table }

// Finalized reports whether the message no longer accepts writes.
func (m *Message) Finalized() bool { return m.table.Sealed() }

// Size returns the total allocated bytes.
func (m *Message) Size() uint64 {
	if m.released {
		return 0
	}
	return m.table.Size()
}

// NewRoot allocates the root pointer and a root struct of size bytes, and
// returns a Builder over the struct. It must be the first allocation.
func (m *Message) NewRoot(size uint32) (Builder, error) {
	if m.released {
		return Builder{}, errors.InvalidInput(errors.PhaseBuild, "message released")
	}
	if m.table.Sealed() {
		return Builder{}, errors.Finalized("new root")
	}
	seg := m.table.First()
	if seg.Len() != 0 {
		return Builder{}, errors.InvalidInput(errors.PhaseBuild, "root already allocated")
	}
	if _, err := seg.Allocate(layout.PointerSize); err != nil {
		return Builder{}, err
	}
	return newStructBuilder(seg, 0, layout.PointerSize).NewStructField(0, size)
}

// Root returns a Reader over the root struct. Readers derived from it share
// one traversal budget.
func (m *Message) Root() (Reader, error) {
	if m.released {
		return Reader{}, errors.InvalidInput(errors.PhaseRead, "message released")
	}
	seg := m.table.First()
	if seg.Len() < layout.PointerSize {
		return Reader{}, errors.InvalidData(errors.PhaseRead, []string{"root"}, "message too short for root pointer")
	}
	r := Reader{
		seg:   seg,
		state: newReadState(m.limits),
		size:  layout.PointerSize,
	}
	root, err := r.ReadStructField(0)
	if err != nil {
		return Reader{}, errors.WithPath(err, "root")
	}
	return root, nil
}

// Finalize seals the message and returns the allocated bytes of each segment.
// The slices alias the message. Repeated calls return the same slices.
func (m *Message) Finalize() ([][]byte, error) {
	if m.released {
		return nil, errors.New(errors.PhaseFinalize, errors.KindInvalidInput).
			Detail("message released").
			Build()
	}
	if m.out != nil {
		return m.out, nil
	}
	m.table.Seal()
	m.out = m.table.Bytes()
	m.logger.Debug("finalized message",
		zap.Int("segments", len(m.out)),
		zap.Uint64("bytes", m.table.Size()))
	return m.out, nil
}

// Release returns segment storage to the arena. The message, its finalized
// bytes and every view over it must not be used afterwards.
func (m *Message) Release() {
	if m.released {
		return
	}
	m.released = true
	m.out = nil
	m.table.Release()
}
