package astral

import "testing"

func TestNewAnimatedPathMatchesEachContour(t *testing.T) {
	start := NewPath()
	start.AddRect(0, 0, 10, 10)

	end := NewPath()
	end.AddRect(0, 0, 20, 20)

	ap, err := NewAnimatedPath(true, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ap.NumberContours() != 1 {
		t.Fatalf("expected 1 matched contour, got %d", ap.NumberContours())
	}
	c := ap.Contour(0)
	if c.StartContour().NumberCurves() != c.EndContour().NumberCurves() {
		t.Fatalf("expected matched curve counts, got %d vs %d", c.StartContour().NumberCurves(), c.EndContour().NumberCurves())
	}
}

func TestNewAnimatedPathContourCountMismatch(t *testing.T) {
	start := NewPath()
	start.AddRect(0, 0, 10, 10)

	end := NewPath()
	end.AddRect(0, 0, 10, 10)
	end.AddRect(20, 20, 5, 5)

	_, err := NewAnimatedPath(true, start, end)
	if err != ErrAnimatedPathContourCountMismatch {
		t.Fatalf("expected ErrAnimatedPathContourCountMismatch, got %v", err)
	}
}

func TestAnimatedPathBoundingBoxCovers(t *testing.T) {
	start := NewPath()
	start.AddRect(0, 0, 10, 10)
	end := NewPath()
	end.AddRect(0, 0, 10, 10)

	ap, err := NewAnimatedPath(true, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bb := ap.StartBoundingBox()
	if bb.Width() != 10 || bb.Height() != 10 {
		t.Fatalf("expected 10x10 bounding box, got %vx%v", bb.Width(), bb.Height())
	}
}
