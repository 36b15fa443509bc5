package astral

import "testing"

// buildClosedTriangleContour builds a closed 3-line-segment contour, the
// concrete sizing example: vertices[stencil]=3, vertices[fuzz]=18,
// block2=6, block3=0 for PassSet{contour_stencil, contour_fuzz}.
func buildClosedTriangleContour() *ContourData {
	c := NewContourData()
	c.Start(Pt(0, 0))
	c.CurveTo(NewLine(Pt(0, 0), Pt(10, 0)))
	c.CurveTo(NewLine(Pt(10, 0), Pt(5, 10)))
	c.CurveTo(NewLine(Pt(5, 10), Pt(0, 0)))
	c.Close()
	return c
}

func TestFillSTCClosedTriangleSizing(t *testing.T) {
	contour := buildClosedTriangleContour()
	data := NewFillSTCData(contour)

	if got := data.NumberLineSegments(); got != 3 {
		t.Fatalf("expected 3 line segments, got %d", got)
	}
	if got := data.NumberClosingEdges(); got != 0 {
		t.Fatalf("expected 0 implicit closing edges for an already-closed contour, got %d", got)
	}
	if got := data.NumberConicTriangles(); got != 0 {
		t.Fatalf("expected 0 conic triangles, got %d", got)
	}

	passSet := NewPassSet(PassContourStencil, PassContourFuzz)
	req := data.StorageRequirement(passSet)

	if req.VerticesStencil != 3 {
		t.Fatalf("expected vertices[stencil] = 3, got %d", req.VerticesStencil)
	}
	if req.VerticesContourFuzz != 18 {
		t.Fatalf("expected vertices[fuzz] = 18, got %d", req.VerticesContourFuzz)
	}
	if req.Block2Count != 6 {
		t.Fatalf("expected block2 = 6, got %d", req.Block2Count)
	}
	if req.Block3Count != 0 {
		t.Fatalf("expected block3 = 0, got %d", req.Block3Count)
	}
}

func TestFillSTCOpenContourGetsImplicitClosingEdge(t *testing.T) {
	c := NewContourData()
	c.Start(Pt(0, 0))
	c.CurveTo(NewLine(Pt(0, 0), Pt(10, 0)))
	c.CurveTo(NewLine(Pt(10, 0), Pt(5, 10)))
	// not closed: last end (5,10) != first start (0,0)

	data := NewFillSTCData(c)
	if got := data.NumberClosingEdges(); got != 1 {
		t.Fatalf("expected 1 implicit closing edge for an open contour, got %d", got)
	}

	req := data.StorageRequirement(NewPassSet(PassContourFuzz))
	// 2 explicit + 1 implicit = 3 fuzzed edges.
	if req.VerticesContourFuzz != 18 {
		t.Fatalf("expected vertices[fuzz] = 18, got %d", req.VerticesContourFuzz)
	}
	if req.Block2Count != 6 {
		t.Fatalf("expected block2 = 6, got %d", req.Block2Count)
	}
}

func TestFillSTCConicTriangleSizing(t *testing.T) {
	c := NewContourData()
	c.Start(Pt(0, 0))
	c.CurveTo(NewQuadratic(Pt(0, 0), Pt(5, 10), Pt(10, 0)))
	c.CurveTo(NewLine(Pt(10, 0), Pt(0, 0)))
	c.Close()

	data := NewFillSTCData(c)
	if got := data.NumberConicTriangles(); got != 1 {
		t.Fatalf("expected 1 conic triangle, got %d", got)
	}

	passSet := NewPassSet(PassConicTrianglesStencil, PassConicTriangleFuzz)
	req := data.StorageRequirement(passSet)
	if req.VerticesConicStencil != 3 {
		t.Fatalf("expected 3 conic stencil vertices, got %d", req.VerticesConicStencil)
	}
	if req.Block3Count != 3 {
		t.Fatalf("expected block3 = 3, got %d", req.Block3Count)
	}
	if req.Block2Count != 0 {
		t.Fatalf("expected block2 = 0 when contour fuzz pass isn't selected, got %d", req.Block2Count)
	}
}

func TestFillSTCEmptyContour(t *testing.T) {
	c := NewContourData()
	data := NewFillSTCData(c)
	req := data.StorageRequirement(NewPassSet(PassContourStencil, PassContourFuzz, PassConicTrianglesStencil, PassConicTriangleFuzz))
	if req != (StorageRequirement{}) {
		t.Fatalf("expected zero storage requirement for an empty contour, got %+v", req)
	}
}

func TestCookedDataStorageRequirementSharesBlocksWithNonAnimated(t *testing.T) {
	start := buildClosedTriangleContour()
	end := buildClosedTriangleContour()

	cooked := NewCookedData(NewFillSTCData(start), NewFillSTCData(end), NewPassSet(PassContourStencil, PassContourFuzz))
	req := cooked.StorageRequirement()

	if req.VerticesStencil != 3 || req.VerticesContourFuzz != 18 {
		t.Fatalf("expected shared vertex counts unchanged, got %+v", req)
	}
	// Each gvec4 already carries both endpoints' positions (xy = start,
	// zw = end), so the animated pair needs no more blocks than a single
	// (non-animated) Data — see packPositions.
	if req.Block2Count != 6 {
		t.Fatalf("expected block2 = 6 (unchanged from the non-animated case), got %d", req.Block2Count)
	}
}

// TestCookedDataPackRenderDataMatchesStorageRequirement is the animated
// counterpart of TestPackRenderDataMatchesStorageRequirement: it checks
// the same spec §8 invariant holds for CookedData.PackRenderData.
func TestCookedDataPackRenderDataMatchesStorageRequirement(t *testing.T) {
	start := buildClosedTriangleContour()
	end := buildClosedTriangleContour()
	passSet := NewPassSet(PassContourStencil, PassContourFuzz)

	cooked := NewCookedData(NewFillSTCData(start), NewFillSTCData(end), passSet)
	req := cooked.StorageRequirement()
	rd := cooked.PackRenderData()

	if len(rd.StencilVertices) != req.VerticesStencil {
		t.Fatalf("stencil vertices: storage=%d packed=%d", req.VerticesStencil, len(rd.StencilVertices))
	}
	if len(rd.ContourFuzzVertices) != req.VerticesContourFuzz {
		t.Fatalf("contour fuzz vertices: storage=%d packed=%d", req.VerticesContourFuzz, len(rd.ContourFuzzVertices))
	}
	if len(rd.Block2) != req.Block2Count {
		t.Fatalf("block2: storage=%d packed=%d", req.Block2Count, len(rd.Block2))
	}
}

// TestCookedDataPackRenderDataInterleavesEndpoints verifies the actual
// xy/zw packing: a triangle animating from a small triangle to a larger
// one translated by (100,100) should show the small triangle's positions
// in the xy lanes and the large one's in zw, never duplicated or dropped.
func TestCookedDataPackRenderDataInterleavesEndpoints(t *testing.T) {
	small := buildClosedTriangleContour()
	large := NewContourData()
	large.Start(Pt(100, 100))
	large.CurveTo(NewLine(Pt(100, 100), Pt(110, 100)))
	large.CurveTo(NewLine(Pt(110, 100), Pt(105, 110)))
	large.CurveTo(NewLine(Pt(105, 110), Pt(100, 100)))
	large.Close()

	passSet := NewPassSet(PassContourStencil)
	cooked := NewCookedData(NewFillSTCData(small), NewFillSTCData(large), passSet)
	rd := cooked.PackRenderData()

	for i, v := range rd.StencilVertices {
		if v.X == v.Z || v.Y == v.W {
			t.Fatalf("vertex %d: expected distinct start/end lanes for a translated animation, got %+v", i, v)
		}
		if v.Z < 99 || v.W < 99 {
			t.Fatalf("vertex %d: expected zw lanes to hold the end contour's translated position, got %+v", i, v)
		}
	}
}

// TestPackRenderDataMatchesStorageRequirement is the spec §8 invariant:
// the vertex / static-data counts StorageRequirement reports for a
// pass set must equal what PackRenderData actually writes.
func TestPackRenderDataMatchesStorageRequirement(t *testing.T) {
	cases := []struct {
		name    string
		contour *ContourData
		passSet PassSet
	}{
		{"closed triangle, stencil+fuzz", buildClosedTriangleContour(), NewPassSet(PassContourStencil, PassContourFuzz)},
		{"closed triangle, all passes", buildClosedTriangleContour(), NewPassSet(PassContourStencil, PassConicTrianglesStencil, PassContourFuzz, PassConicTriangleFuzz)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := NewFillSTCData(tc.contour)
			req := data.StorageRequirement(tc.passSet)
			rd := data.PackRenderData(tc.passSet)

			if len(rd.StencilVertices) != req.VerticesStencil {
				t.Fatalf("stencil vertices: storage=%d packed=%d", req.VerticesStencil, len(rd.StencilVertices))
			}
			if len(rd.ConicStencilVertices) != req.VerticesConicStencil {
				t.Fatalf("conic stencil vertices: storage=%d packed=%d", req.VerticesConicStencil, len(rd.ConicStencilVertices))
			}
			if len(rd.ContourFuzzVertices) != req.VerticesContourFuzz {
				t.Fatalf("contour fuzz vertices: storage=%d packed=%d", req.VerticesContourFuzz, len(rd.ContourFuzzVertices))
			}
			if len(rd.ConicFuzzVertices) != req.VerticesConicFuzz {
				t.Fatalf("conic fuzz vertices: storage=%d packed=%d", req.VerticesConicFuzz, len(rd.ConicFuzzVertices))
			}
			if len(rd.Block2) != req.Block2Count {
				t.Fatalf("block2: storage=%d packed=%d", req.Block2Count, len(rd.Block2))
			}
			if len(rd.Block3) != req.Block3Count {
				t.Fatalf("block3: storage=%d packed=%d", req.Block3Count, len(rd.Block3))
			}
		})
	}
}

// TestPackRenderDataNonAnimatedDuplicatesPositionIntoBothLanes is the
// non-animated special case of packPositions: a single (unpaired) Data
// has no second animation endpoint, so every packed gvec4's z,w lanes
// must duplicate its x,y lanes rather than reading as a neighboring
// fan point or being left zeroed.
func TestPackRenderDataNonAnimatedDuplicatesPositionIntoBothLanes(t *testing.T) {
	contour := buildClosedTriangleContour()
	data := NewFillSTCData(contour)
	passSet := NewPassSet(PassContourStencil, PassContourFuzz)
	rd := data.PackRenderData(passSet)

	for i, v := range rd.StencilVertices {
		if v.X != v.Z || v.Y != v.W {
			t.Fatalf("stencil vertex %d: expected (x,y) duplicated into (z,w), got %+v", i, v)
		}
	}
	for i, g := range rd.Block2 {
		if g.X != g.Z || g.Y != g.W {
			t.Fatalf("block2 gvec4 %d: expected position duplicated into z,w (not zeroed), got %+v", i, g)
		}
	}

	conicPassSet := NewPassSet(PassConicTriangleFuzz)
	conicData := NewFillSTCData(buildQuadraticTriangleContour())
	conicRD := conicData.PackRenderData(conicPassSet)
	for i, g := range conicRD.Block3 {
		if g.X != g.Z || g.Y != g.W {
			t.Fatalf("block3 gvec4 %d: expected position duplicated into z,w (not zeroed), got %+v", i, g)
		}
	}
}

// buildQuadraticTriangleContour builds the one-conic-triangle contour
// used by TestFillSTCConicTriangleSizing and the block3 duplication test.
func buildQuadraticTriangleContour() *ContourData {
	c := NewContourData()
	c.Start(Pt(0, 0))
	c.CurveTo(NewQuadratic(Pt(0, 0), Pt(5, 10), Pt(10, 0)))
	c.CurveTo(NewLine(Pt(10, 0), Pt(0, 0)))
	c.Close()
	return c
}

func TestPackRenderDataConicTriangleSizing(t *testing.T) {
	c := NewContourData()
	c.Start(Pt(0, 0))
	c.CurveTo(NewQuadratic(Pt(0, 0), Pt(5, 10), Pt(10, 0)))
	c.CurveTo(NewLine(Pt(10, 0), Pt(0, 0)))
	c.Close()

	data := NewFillSTCData(c)
	passSet := NewPassSet(PassConicTrianglesStencil, PassConicTriangleFuzz)
	req := data.StorageRequirement(passSet)
	rd := data.PackRenderData(passSet)

	if len(rd.ConicStencilVertices) != req.VerticesConicStencil {
		t.Fatalf("conic stencil vertices: storage=%d packed=%d", req.VerticesConicStencil, len(rd.ConicStencilVertices))
	}
	if len(rd.Block3) != req.Block3Count {
		t.Fatalf("block3: storage=%d packed=%d", req.Block3Count, len(rd.Block3))
	}
}

func TestNewCookedDataPanicsOnShapeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched shapes")
		}
	}()
	start := buildClosedTriangleContour()
	end := NewContourData()
	end.Start(Pt(0, 0))
	end.CurveTo(NewLine(Pt(0, 0), Pt(10, 0)))

	NewCookedData(NewFillSTCData(start), NewFillSTCData(end), NewPassSet(PassContourStencil))
}
