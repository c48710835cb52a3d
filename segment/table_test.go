package segment

import (
	"testing"

	"github.com/wippyai/wire-runtime/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTable_AllocPrefersSegment(t *testing.T) {
	tbl, err := NewTable(Options{SegmentSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Release()

	seg, off, err := tbl.Alloc(tbl.First(), 16)
	if err != nil {
		t.Fatal(err)
	}
	if seg.ID() != 0 || off != 0 {
		t.Errorf("got segment %d offset %d", seg.ID(), off)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTable_GrowsLinkedSegment(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tbl, err := NewTable(Options{SegmentSize: 64, Logger: zap.New(core)})
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Release()

	if _, _, err := tbl.Alloc(tbl.First(), 48); err != nil {
		t.Fatal(err)
	}

	seg, off, err := tbl.Alloc(tbl.First(), 100)
	if err != nil {
		t.Fatalf("Alloc should link a new segment: %v", err)
	}
	if seg.ID() != 1 || off != 0 {
		t.Errorf("got segment %d offset %d, want 1/0", seg.ID(), off)
	}
	if seg.Cap() != 100 {
		t.Errorf("linked capacity = %d, want 100", seg.Cap())
	}
	if tbl.First().Len() != 48 {
		t.Errorf("first segment mutated: len %d", tbl.First().Len())
	}

	// small allocation falls back to the newest segment before growing again
	seg, _, err = tbl.Alloc(tbl.First(), 32)
	if err != nil {
		t.Fatal(err)
	}
	if seg.ID() != 2 {
		// segment 1 is full (100/100), segment 0 has 16 free
		t.Errorf("got segment %d, want 2", seg.ID())
	}

	if n := logs.FilterMessage("linked segment").Len(); n != 2 {
		t.Errorf("logged %d link events, want 2", n)
	}
	if tbl.Size() != 48+100+32 {
		t.Errorf("Size() = %d", tbl.Size())
	}
}

func TestTable_LinkingDisabled(t *testing.T) {
	tbl, err := NewTable(Options{SegmentSize: 64, MaxSegments: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Release()

	_, _, err = tbl.Alloc(tbl.First(), 100)
	if !errors.IsKind(err, errors.KindCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if tbl.First().Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.First().Len())
	}
}

func TestTable_Sealed(t *testing.T) {
	tbl, err := NewTable(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Release()

	tbl.Seal()
	if !tbl.Sealed() {
		t.Fatal("expected sealed")
	}
	if _, _, err := tbl.Alloc(tbl.First(), 8); !errors.IsKind(err, errors.KindFinalized) {
		t.Errorf("expected finalized error, got %v", err)
	}
	if _, err := tbl.Grow(8); !errors.IsKind(err, errors.KindFinalized) {
		t.Errorf("expected finalized error, got %v", err)
	}
}

func TestTable_Bytes(t *testing.T) {
	tbl, err := NewTable(Options{SegmentSize: 16})
	if err != nil {
		t.Fatal(err)
	}
	defer tbl.Release()

	seg, off, _ := tbl.Alloc(tbl.First(), 8)
	_ = seg.WriteU64(off, 7)
	seg, off, _ = tbl.Alloc(tbl.First(), 24)
	_ = seg.WriteU64(off, 9)

	out := tbl.Bytes()
	if len(out) != 2 || len(out[0]) != 8 || len(out[1]) != 24 {
		t.Fatalf("Bytes() shapes: %d segments", len(out))
	}
	if out[0][0] != 7 || out[1][0] != 9 {
		t.Errorf("unexpected contents")
	}
}

func TestTableFromBytes(t *testing.T) {
	tbl, err := TableFromBytes([][]byte{{1, 2}, {3}})
	if err != nil {
		t.Fatal(err)
	}
	if !tbl.Sealed() || tbl.Len() != 2 {
		t.Fatalf("sealed=%v len=%d", tbl.Sealed(), tbl.Len())
	}
	seg, err := tbl.Segment(1)
	if err != nil {
		t.Fatal(err)
	}
	if seg.Table() != tbl || !seg.ReadOnly() {
		t.Error("segment not attached read-only")
	}
	if _, err := tbl.Segment(2); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("expected out of bounds, got %v", err)
	}

	if _, err := TableFromBytes(nil); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestNewTable_InvalidSize(t *testing.T) {
	if _, err := NewTable(Options{SegmentSize: 1<<30 + 1}); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestTable_ReleaseReturnsStorage(t *testing.T) {
	arena := NewHeapArena()
	core, logs := observer.New(zap.DebugLevel)
	tbl, err := NewTable(Options{SegmentSize: 64, Arena: arena, Logger: zap.New(core)})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := tbl.Alloc(tbl.First(), 200); err != nil {
		t.Fatal(err)
	}
	if arena.InUse() == 0 {
		t.Fatal("expected storage in use")
	}

	tbl.Release()
	tbl.Release() // idempotent
	if arena.InUse() != 0 {
		t.Errorf("InUse() = %d after release, want 0", arena.InUse())
	}
	released := logs.FilterMessage("released table").All()
	if len(released) != 1 {
		t.Fatalf("logged %d release events, want 1", len(released))
	}
	if got := released[0].ContextMap()["arena_in_use"]; got != uint64(0) {
		t.Errorf("arena_in_use = %v, want 0", got)
	}
	if _, _, err := tbl.Alloc(nil, 8); err == nil {
		t.Error("Alloc after release should fail")
	}
}
