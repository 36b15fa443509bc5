package astral

import (
	"math"
	"testing"
)

func TestNewDashPatternDuplicatesOddLength(t *testing.T) {
	dp := NewDashPattern(5)
	if dp == nil {
		t.Fatal("expected non-nil pattern")
	}
	if got := dp.NumIntervals(); got != 2 {
		t.Fatalf("expected 2 canonical intervals, got %d", got)
	}
}

func TestNewDashPatternAllZeroReturnsNil(t *testing.T) {
	if NewDashPattern(0, 0) != nil {
		t.Fatal("expected nil for all-zero lengths")
	}
	if NewDashPattern() != nil {
		t.Fatal("expected nil for no lengths")
	}
}

func TestDashPatternCanonicalFormSigns(t *testing.T) {
	dp := NewDashPattern(5, 3, 2, 3)
	canon := dp.canonicalForm()
	want := []float64{5, -3, 2, -3}
	if len(canon) != len(want) {
		t.Fatalf("expected %d intervals, got %d", len(want), len(canon))
	}
	for i, v := range want {
		if canon[i] != v {
			t.Fatalf("interval %d: expected %v, got %v", i, v, canon[i])
		}
	}
}

func TestDashPatternRotationAtIntervalBoundaryDoesNotMerge(t *testing.T) {
	// [5 draw, 3 skip]; rotate by 5 (exactly consuming the draw) puts us
	// at the start of the skip, which then wraps to meet the next draw
	// at the seam — but skip and draw differ in sign, so no merge here.
	dp := NewDashPattern(5, 3).WithStartOffset(5)
	canon := dp.canonicalForm()
	if len(canon) != 2 {
		t.Fatalf("expected 2 intervals after rotation, got %d: %v", len(canon), canon)
	}
	if canon[0] >= 0 {
		t.Fatalf("expected rotated sequence to start with the skip (negative), got %v", canon[0])
	}
}

func TestDashPatternRotationMidInterval(t *testing.T) {
	// [5 draw, 3 skip], rotate by 2: splits the draw into a 3-unit
	// remainder first, then the skip, then wraps to a 2-unit draw
	// remainder — first and last are both draws (same sign) and merge.
	dp := NewDashPattern(5, 3).WithStartOffset(2)
	canon := dp.canonicalForm()
	total := 0.0
	for _, v := range canon {
		total += v * sign(v)
	}
	if total != 8 {
		t.Fatalf("expected total pattern length preserved at 8, got %v (%v)", total, canon)
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func TestDashPatternPackLayout(t *testing.T) {
	dp := NewDashPattern(5, 3, 2, 3).WithCornerRadius(1.5).WithAdjustMode(LengthAdjustStretch).WithStrokeStartsAtEdge(true)
	packer := ItemDataPacker{}
	stroke := StrokeParameters{Radius: 2, InterpolationT: 0.25, MiterLimit: 4}

	blocks := dp.Pack(packer, stroke)
	wantSize := packer.PackedSize(stroke, dp)
	if len(blocks) != wantSize {
		t.Fatalf("expected %d packed blocks, got %d", wantSize, len(blocks))
	}

	header := blocks[1]
	if header.Z != 1.5 {
		t.Fatalf("expected corner_radius 1.5, got %v", header.Z)
	}

	sizeHeader := blocks[2]
	wantNumIntervals := math.Float32frombits(uint32(dp.NumIntervals()))
	if sizeHeader.W != wantNumIntervals {
		t.Fatalf("expected num_intervals lane %v, got %v", wantNumIntervals, sizeHeader.W)
	}
}

func TestItemDataPackerPackBaseSignEncoding(t *testing.T) {
	packer := ItemDataPacker{}
	g := packer.PackBase(StrokeParameters{Radius: 3, GracefulThin: true, MiterLimit: 2, MiterOverflow: MiterOverflowBevel})
	if g.X >= 0 {
		t.Fatalf("expected negative radius lane for graceful-thin, got %v", g.X)
	}
	if g.W >= 0 {
		t.Fatalf("expected negative miter-limit lane for bevel overflow, got %v", g.W)
	}
}

func TestItemDataPackerCapsJoinsCollapse(t *testing.T) {
	packer := ItemDataPacker{}
	thin := StrokeParameters{Radius: 0.01}
	if !packer.CapsJoinsCollapse(thin, 1.0) {
		t.Fatal("expected sub-pixel stroke caps/joins to collapse")
	}
	thick := StrokeParameters{Radius: 10}
	if packer.CapsJoinsCollapse(thick, 1.0) {
		t.Fatal("expected thick stroke caps/joins not to collapse")
	}
}

func TestDashPatternPackedSizeIncludesStrokeBase(t *testing.T) {
	packer := ItemDataPacker{}
	stroke := StrokeParameters{Radius: 1}
	if got := packer.PackedSize(stroke, nil); got != 1 {
		t.Fatalf("expected 1 block with no dash pattern, got %d", got)
	}
	dp := NewDashPattern(5, 3, 2, 3, 1, 1) // 6 canonical intervals -> ceil(6/4)=2
	if got := packer.PackedSize(stroke, dp); got != 1+2+2 {
		t.Fatalf("expected %d blocks, got %d", 1+2+2, got)
	}
}
