package astral

import "math"

// Pass names one rendering pass a FillSTC builder can emit geometry
// for.
type Pass uint8

const (
	PassContourStencil Pass = 1 << iota
	PassConicTrianglesStencil
	PassContourFuzz
	PassConicTriangleFuzz
)

// PassSet is a bitfield selecting a subset of passes, following the
// same packed-bitfield-newtype idiom as atlas.ImageSamplerBits: callers
// never OR raw bits themselves, only the With/Has accessors.
type PassSet uint8

// NewPassSet builds a PassSet from the given passes.
func NewPassSet(passes ...Pass) PassSet {
	var s PassSet
	for _, p := range passes {
		s |= PassSet(p)
	}
	return s
}

// With returns a copy of s with pass added.
func (s PassSet) With(pass Pass) PassSet { return s | PassSet(pass) }

// Has reports whether pass is selected.
func (s PassSet) Has(pass Pass) bool { return s&PassSet(pass) != 0 }

// GVec4 is one GPU-resident static-data slot: four 32-bit lanes,
// interpreted as floats or bit-cast to integers depending on the
// packing rule that wrote them.
type GVec4 struct {
	X, Y, Z, W float32
}

// ConicTriangle is the per-pixel-coverage triangle for one quadratic or
// conic curve: (start, control, end), with texture coordinates chosen
// so the interior test reduces to x²−y < 0 (vertices parameterised
// (0,0), (0.5,0), (1,1)).
type ConicTriangle struct {
	Start, Control, End Point
	AANeeded            bool
}

// LineSegment is one anti-alias fuzz edge: either an explicit line
// curve of the contour or an implicit closing edge synthesized when
// the contour isn't already closed.
type LineSegment struct {
	Start, End Point
}

// FillSTCData is the stencil-then-cover geometry extracted from a
// single contour: the flat-fill polyline, the curved-fill triangles,
// and the anti-alias fuzz edges for both.
type FillSTCData struct {
	lineContour   []Point
	conicTris     []ConicTriangle
	explicitLines []LineSegment
	closingLines  []LineSegment
}

// NewFillSTCData builds the stencil-then-cover geometry for contour.
// A cubic curve reaching the builder is approximated by a single
// quadratic before becoming a ConicTriangle, since the stencil-then-
// cover pipeline only has triangle geometry for the quadratic/conic
// curve family.
func NewFillSTCData(contour *ContourData) *FillSTCData {
	d := &FillSTCData{}
	curves := contour.Curves()
	if len(curves) == 0 {
		return d
	}

	d.lineContour = make([]Point, 0, len(curves))
	for _, c := range curves {
		d.lineContour = append(d.lineContour, c.Start())
	}

	for _, c := range curves {
		switch c.Type() {
		case CurveLine:
			d.explicitLines = append(d.explicitLines, LineSegment{Start: c.Start(), End: c.End()})
		case CurveCubic:
			q := cubicToQuadraticApprox(c)
			d.conicTris = append(d.conicTris, ConicTriangle{Start: q.Start(), Control: q.ControlPoint(0), End: q.End(), AANeeded: true})
		default: // CurveQuadratic, CurveConic, CurveConicArc
			d.conicTris = append(d.conicTris, ConicTriangle{Start: c.Start(), Control: c.ControlPoint(0), End: c.End(), AANeeded: true})
		}
	}

	if !contour.Closed() && len(curves) > 0 {
		last := curves[len(curves)-1].End()
		first := curves[0].Start()
		if last != first {
			d.closingLines = append(d.closingLines, LineSegment{Start: last, End: first})
		}
	}

	return d
}

// cubicToQuadraticApprox reduces a cubic Bezier to a single quadratic
// via the standard tangent-line-intersection construction, falling
// back to the midpoint of the cubic's two control points when the
// start/end tangents are parallel (degenerate intersection).
func cubicToQuadraticApprox(c ContourCurve) ContourCurve {
	p0, p1, p2, p3 := c.Start(), c.ControlPoint(0), c.ControlPoint(1), c.End()
	d1, d2 := p1.Sub(p0), p2.Sub(p3)
	denom := d1.Cross(d2)
	if math.Abs(denom) < 1e-9 {
		mid := p1.Add(p2).Mul(0.5)
		return NewQuadratic(p0, mid, p3)
	}
	// Solve p0 + t*d1 == p3 + s*d2 for t.
	diff := p3.Sub(p0)
	t := diff.Cross(d2) / denom
	control := p0.Add(d1.Mul(t))
	return NewQuadratic(p0, control, p3)
}

// NumberLineSegments returns the number of explicit line-curve edges.
func (d *FillSTCData) NumberLineSegments() int { return len(d.explicitLines) }

// NumberClosingEdges returns the number of implicit closing edges (0 or 1).
func (d *FillSTCData) NumberClosingEdges() int { return len(d.closingLines) }

// NumberConicTriangles returns the number of curved (quadratic/conic/
// cubic-approximated) segments.
func (d *FillSTCData) NumberConicTriangles() int { return len(d.conicTris) }

// fuzzEdgeCount is the total number of AA-fuzzed line edges: explicit
// line segments plus any implicit closing edge.
func (d *FillSTCData) fuzzEdgeCount() int {
	return len(d.explicitLines) + len(d.closingLines)
}

// fuzzEdges returns the explicit line edges followed by the implicit
// closing edge (if any), in the same order fuzzEdgeCount() counts them.
func (d *FillSTCData) fuzzEdges() []LineSegment {
	out := make([]LineSegment, 0, d.fuzzEdgeCount())
	out = append(out, d.explicitLines...)
	out = append(out, d.closingLines...)
	return out
}

const (
	lineFuzzVerticesPerSegment  = 6 // a 2-triangle quad straddling the edge
	conicStencilVerticesPerTri  = 3
	lineFuzzBlockSize           = 2 // two gvec4 per segment, one per endpoint
	conicFuzzBlockSize          = 3 // three gvec4 per triangle, one per vertex
)

// StorageRequirement reports, for the given pass selection, the vertex
// count per pass plus the number of size-2 and size-3 static-data
// blocks pack_render_data will need for a single (non-animated) Data.
type StorageRequirement struct {
	VerticesStencil      int
	VerticesConicStencil int
	VerticesContourFuzz  int
	VerticesConicFuzz    int
	Block2Count          int
	Block3Count          int
}

// StorageRequirement computes how much vertex and static-data storage
// passSet requires to render d.
func (d *FillSTCData) StorageRequirement(passSet PassSet) StorageRequirement {
	var r StorageRequirement
	if passSet.Has(PassContourStencil) {
		r.VerticesStencil = len(d.lineContour)
	}
	if passSet.Has(PassConicTrianglesStencil) {
		r.VerticesConicStencil = len(d.conicTris) * conicStencilVerticesPerTri
	}
	if passSet.Has(PassContourFuzz) {
		r.VerticesContourFuzz = d.fuzzEdgeCount() * lineFuzzVerticesPerSegment
		r.Block2Count = d.fuzzEdgeCount() * lineFuzzBlockSize
	}
	if passSet.Has(PassConicTriangleFuzz) {
		r.VerticesConicFuzz = len(d.conicTris) * conicStencilVerticesPerTri
		r.Block3Count = len(d.conicTris) * conicFuzzBlockSize
	}
	return r
}

// RenderData is the actual vertex and static-data payload pack_render_data
// writes for a single (non-animated) Data under a given pass selection.
// Its slice lengths always match the corresponding StorageRequirement
// fields for the same passSet.
type RenderData struct {
	StencilVertices      []GVec4
	ConicStencilVertices []GVec4
	ContourFuzzVertices  []GVec4
	ConicFuzzVertices    []GVec4
	Block2               []GVec4
	Block3               []GVec4
}

// conicTexCoord returns the per-vertex texture coordinate for corner k
// (0, 1, 2) of a conic triangle, parameterised (0,0), (0.5,0), (1,1) so
// the shader's interior test reduces to x²−y < 0.
func conicTexCoord(k int) (float32, float32) {
	switch k {
	case 0:
		return 0, 0
	case 1:
		return 0.5, 0
	default:
		return 1, 1
	}
}

// packPositions packs one static-data or stencil-vertex gvec4 as
// (a.x, a.y, b.x, b.y): a is this point's position in the start-of-
// animation contour, b its position in the end-of-animation contour.
// A non-animated Data packs against itself, so b == a and the gvec4
// simply duplicates the position into both halves — see
// pass_contour_stencil / the static-data blocks of fill_stc_shader.hpp.
func packPositions(a, b Point) GVec4 {
	return GVec4{float32(a.X), float32(a.Y), float32(b.X), float32(b.Y)}
}

// PackRenderData emits the actual vertex and static-data streams for d
// under passSet, following the layouts of spec §6, as a non-animated
// fill: every packed position duplicates into both animation-endpoint
// lanes. Static-data indices are block-local (0-based within this
// Data's own Block2/Block3 streams); a caller packing multiple Datas
// into one buffer offsets them by the base index it allocated.
func (d *FillSTCData) PackRenderData(passSet PassSet) RenderData {
	return packRenderData(d, d, passSet)
}

// PackRenderData emits the animated vertex and static-data streams for
// cd: every static-data block interleaves the start contour's position
// into the xy lanes and the end contour's corresponding position into
// the zw lanes (spec §4.6's "each vertex interpolates its two endpoint
// positions"). NewCookedData already guarantees cd.Start and cd.End
// have matching shape counts, so every position pair below is aligned
// by construction.
func (cd *CookedData) PackRenderData() RenderData {
	return packRenderData(cd.Start, cd.End, cd.PassSet)
}

// packRenderData is the shared implementation behind both the
// non-animated (start == end) and animated pack paths.
func packRenderData(start, end *FillSTCData, passSet PassSet) RenderData {
	var rd RenderData

	if passSet.Has(PassContourStencil) {
		n := len(start.lineContour)
		rd.StencilVertices = make([]GVec4, n)
		for i := 0; i < n; i++ {
			rd.StencilVertices[i] = packPositions(start.lineContour[i], end.lineContour[i])
		}
	}

	if passSet.Has(PassConicTrianglesStencil) {
		n := len(start.conicTris)
		rd.ConicStencilVertices = make([]GVec4, 0, n*conicStencilVerticesPerTri)
		for i := 0; i < n; i++ {
			v0Index := float32(i * 3)
			for k := 0; k < conicStencilVerticesPerTri; k++ {
				tu, tv := conicTexCoord(k)
				vIndex := float32(i*3 + k)
				rd.ConicStencilVertices = append(rd.ConicStencilVertices, GVec4{vIndex, tu, tv, v0Index})
			}
		}
	}

	startEdges, endEdges := start.fuzzEdges(), end.fuzzEdges()

	if passSet.Has(PassContourFuzz) {
		n := len(startEdges)
		rd.ContourFuzzVertices = make([]GVec4, 0, n*lineFuzzVerticesPerSegment)
		rd.Block2 = make([]GVec4, 0, n*lineFuzzBlockSize)
		for i := 0; i < n; i++ {
			sSeg, eSeg := startEdges[i], endEdges[i]
			rd.Block2 = append(rd.Block2,
				packPositions(sSeg.Start, eSeg.Start),
				packPositions(sSeg.End, eSeg.End),
			)
			// Two triangles covering the AA strip: (start,-1),(start,+1),(end,-1)
			// and (end,-1),(start,+1),(end,+1).
			base := float32(i)
			corners := [6][2]float32{
				{0, -1}, {0, 1}, {1, -1},
				{1, -1}, {0, 1}, {1, 1},
			}
			for _, c := range corners {
				rd.ContourFuzzVertices = append(rd.ContourFuzzVertices, GVec4{base, c[0], c[1], 0})
			}
		}
	}

	if passSet.Has(PassConicTriangleFuzz) {
		n := len(start.conicTris)
		rd.ConicFuzzVertices = make([]GVec4, 0, n*conicStencilVerticesPerTri)
		rd.Block3 = make([]GVec4, 0, n*conicFuzzBlockSize)
		for i := 0; i < n; i++ {
			sTri, eTri := start.conicTris[i], end.conicTris[i]
			rd.Block3 = append(rd.Block3,
				packPositions(sTri.Start, eTri.Start),
				packPositions(sTri.Control, eTri.Control),
				packPositions(sTri.End, eTri.End),
			)
			// Corner enum per vertex: start = 0 (neither bit), control = 1
			// (max_major), end = 3 (max_major|max_minor).
			base := float32(i)
			cornerEnum := [3]float32{0, 1, 3}
			for k := 0; k < conicStencilVerticesPerTri; k++ {
				rd.ConicFuzzVertices = append(rd.ConicFuzzVertices, GVec4{base, 0, 0, cornerEnum[k]})
			}
		}
	}

	return rd
}

// CookedData is the shared render-ready payload for an animated pair
// of contours: one vertex buffer and two static-data allocations (start
// and end), pinned together so every vertex can interpolate its two
// endpoint positions.
type CookedData struct {
	Start, End *FillSTCData
	PassSet    PassSet
}

// NewCookedData pins start and end together for animated rendering. It
// panics if their curve-shape counts (line segments, closing edges,
// conic triangles) don't match — callers should build start/end from
// the two contours of a matched AnimatedContour, whose invariants
// guarantee this.
func NewCookedData(start, end *FillSTCData, passSet PassSet) *CookedData {
	if len(start.lineContour) != len(end.lineContour) ||
		len(start.explicitLines) != len(end.explicitLines) ||
		len(start.closingLines) != len(end.closingLines) ||
		len(start.conicTris) != len(end.conicTris) {
		panic("astral: NewCookedData requires start and end FillSTCData to have matching shape counts")
	}
	return &CookedData{Start: start, End: end, PassSet: passSet}
}

// StorageRequirement reports the combined storage requirement for the
// animated pair. Vertex counts and static-data block counts are both
// shared with the non-animated case: every gvec4 the animated pack
// writes already carries both endpoint positions (start in xy, end in
// zw — see packPositions), so animating a fill doesn't allocate any
// extra blocks, only wider ones.
func (cd *CookedData) StorageRequirement() StorageRequirement {
	return cd.Start.StorageRequirement(cd.PassSet)
}
