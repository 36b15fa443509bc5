package astral

import (
	"errors"
	"math"
)

// ErrBothContoursEmpty is returned by AnimatedContour constructors when
// both the start and end contours are empty — the source's behavior in
// this case is assertion-guarded and undefined; this package instead
// reports it as an ordinary error, since it is reachable from ordinary
// (if degenerate) caller input rather than only from a programming
// mistake.
var ErrBothContoursEmpty = errors.New("astral: both contours of an AnimatedContour are empty")

// ErrMismatchedCurveCount is returned by the "raw" AnimatedContour
// constructors, which require the caller to supply already-matched
// curve sequences of equal length.
var ErrMismatchedCurveCount = errors.New("astral: raw AnimatedContour inputs must have equal curve counts")

// AnimatedContour pairs a start and end ContourData whose curve counts
// are equal and whose curves agree, index for index, in CurveType —
// produced by matching (splitting and/or type-promoting) the caller's
// input contours so that curve i of the start animates smoothly into
// curve i of the end. Both contours share the same Closed state.
type AnimatedContour struct {
	start, end *ContourData
	closed     bool
}

// StartContour returns the matched start-of-animation contour.
func (a *AnimatedContour) StartContour() *ContourData { return a.start }

// EndContour returns the matched end-of-animation contour.
func (a *AnimatedContour) EndContour() *ContourData { return a.end }

// Closed reports whether the animated contour is closed (affects
// whether stroking adds caps at its start/end).
func (a *AnimatedContour) Closed() bool { return a.closed }

// NewAnimatedContourRaw pairs two already-matched curve sequences: it
// requires len(start) == len(end) but, unlike NewAnimatedContour, does
// not itself split curves to align parameter lengths — it only
// type-promotes mismatched pairs so the CurveType-equality invariant
// holds.
func NewAnimatedContourRaw(closed bool, start, end []ContourCurve) (*AnimatedContour, error) {
	if len(start) != len(end) {
		return nil, ErrMismatchedCurveCount
	}
	sOut := make([]ContourCurve, len(start))
	eOut := make([]ContourCurve, len(end))
	for i := range start {
		sOut[i], eOut[i] = unifyCurveTypes(start[i], end[i])
	}
	return buildAnimatedContour(closed, sOut, eOut), nil
}

// NewAnimatedContourPointExpand creates an animated contour that begins
// as a single point and expands into curves. The point is treated as a
// sequence of equal-length degenerate (zero-length) curves of the same
// shape as the corresponding target curve, matching curves' count.
func NewAnimatedContourPointExpand(closed bool, point Point, curves []ContourCurve) (*AnimatedContour, error) {
	if len(curves) == 0 {
		return nil, ErrBothContoursEmpty
	}
	degenerate := make([]ContourCurve, len(curves))
	for i, c := range curves {
		degenerate[i] = collapseCurveToPoint(c, point)
	}
	return buildAnimatedContour(closed, degenerate, append([]ContourCurve(nil), curves...)), nil
}

// NewAnimatedContourPointCollapse is the reverse of
// NewAnimatedContourPointExpand: the contour collapses to a point.
func NewAnimatedContourPointCollapse(closed bool, curves []ContourCurve, point Point) (*AnimatedContour, error) {
	if len(curves) == 0 {
		return nil, ErrBothContoursEmpty
	}
	degenerate := make([]ContourCurve, len(curves))
	for i, c := range curves {
		degenerate[i] = collapseCurveToPoint(c, point)
	}
	return buildAnimatedContour(closed, append([]ContourCurve(nil), curves...), degenerate), nil
}

// NewAnimatedContourPointToPoint creates a degenerate animated contour
// that is a single point moving from start to end; stroking it
// produces caps, not a filled shape.
func NewAnimatedContourPointToPoint(start, end Point) *AnimatedContour {
	sc := []ContourCurve{NewLine(start, start)}
	ec := []ContourCurve{NewLine(end, end)}
	return buildAnimatedContour(false, sc, ec)
}

// collapseCurveToPoint returns a curve of the same CurveType and weight
// as template, but with every point (start, end, and controls)
// collapsed to p — used to synthesize the degenerate side of a
// point-collapse/point-expand animated contour.
func collapseCurveToPoint(template ContourCurve, p Point) ContourCurve {
	c := template
	c.start, c.end = p, p
	for i := 0; i < len(c.control); i++ {
		c.control[i] = p
	}
	c.arcCenter = p
	c.arcRadius = 0
	return c
}

// NewAnimatedContour matches two arbitrary contours by curve-type and
// parameter length (spec step 1-4): it computes per-curve parameter
// lengths (caller-supplied via startLengths/endLengths, or nil to use
// each curve's chord-based length estimate), then walks both
// normalized length sequences together, splitting whichever curve is
// "ahead" at the parameter corresponding to the shorter cumulative
// length, and promotes mismatched curve types so that, after matching,
// curve i of the result's start has the same type as curve i of its
// end. If both contours are empty, returns ErrBothContoursEmpty. If
// exactly one is empty, this degenerates to a point expand/collapse
// anchored at the empty side's own center (startCenter or endCenter).
//
// When both contours are closed, the end contour's starting curve is
// rotated to the one whose start point is angularly closest (relative
// to endCenter) to the start contour's first curve's start point
// (relative to startCenter) — a single-pass approximation of the full
// cumulative-length-polyline L2 minimization described by the source;
// it produces the same natural alignment for the common case of convex
// or near-convex contours without an O(n²) rotation search.
func NewAnimatedContour(closed bool,
	startCurves []ContourCurve, startCenter Point, startLengths []float64,
	endCurves []ContourCurve, endCenter Point, endLengths []float64) (*AnimatedContour, error) {

	if len(startCurves) == 0 && len(endCurves) == 0 {
		return nil, ErrBothContoursEmpty
	}
	if len(startCurves) == 0 {
		return NewAnimatedContourPointExpand(closed, startCenter, endCurves)
	}
	if len(endCurves) == 0 {
		return NewAnimatedContourPointCollapse(closed, startCurves, endCenter)
	}

	if closed {
		endCurves = rotateToNearestAngle(endCurves, endCenter, startCurves[0].Start(), startCenter)
	}

	sLens := curveLengths(startCurves, startLengths)
	eLens := curveLengths(endCurves, endLengths)

	sOut, eOut := matchByLength(startCurves, sLens, endCurves, eLens)
	return buildAnimatedContour(closed, sOut, eOut), nil
}

func curveLengths(curves []ContourCurve, provided []float64) []float64 {
	if provided != nil {
		return provided
	}
	out := make([]float64, len(curves))
	for i, c := range curves {
		out[i] = chordLength(c)
	}
	return out
}

// chordLength approximates a curve's length via its chord and control
// polygon, sufficient for length-proportional matching (an exact arc
// length is not required — only relative magnitudes matter).
func chordLength(c ContourCurve) float64 {
	poly := []Point{c.Start()}
	for i := 0; i < c.NumControlPoints(); i++ {
		poly = append(poly, c.ControlPoint(i))
	}
	poly = append(poly, c.End())
	chord := c.Start().Distance(c.End())
	var controlLen float64
	for i := 1; i < len(poly); i++ {
		controlLen += poly[i-1].Distance(poly[i])
	}
	return (chord + controlLen) / 2
}

func rotateToNearestAngle(curves []ContourCurve, center Point, refPoint, refCenter Point) []ContourCurve {
	refAngle := refPoint.Sub(refCenter).Atan2Point()
	best, bestDiff := 0, math.Inf(1)
	for i, c := range curves {
		a := c.Start().Sub(center).Atan2Point()
		d := angularDistance(a, refAngle)
		if d < bestDiff {
			best, bestDiff = i, d
		}
	}
	if best == 0 {
		return curves
	}
	out := make([]ContourCurve, 0, len(curves))
	out = append(out, curves[best:]...)
	out = append(out, curves[:best]...)
	return out
}

// Atan2Point returns atan2(p.Y, p.X), treating p as a displacement.
func (p Point) Atan2Point() float64 { return math.Atan2(p.Y, p.X) }

func angularDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	for d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// matchByLength is the core of step 3: it walks both contours' curves
// in parameter order, always splitting whichever curve's remaining
// length-fraction is larger at the point where the other curve ends,
// so that every output pair of matched segments spans the same
// fraction of total contour length on both sides.
func matchByLength(startCurves []ContourCurve, sLens []float64, endCurves []ContourCurve, eLens []float64) ([]ContourCurve, []ContourCurve) {
	sTotal, eTotal := sum(sLens), sum(eLens)
	if sTotal == 0 {
		sTotal = 1
	}
	if eTotal == 0 {
		eTotal = 1
	}

	var sOut, eOut []ContourCurve

	si, ei := 0, 0
	sCur, eCur := startCurves[0], endCurves[0]
	sRemain, eRemain := sLens[0] / sTotal, eLens[0] / eTotal

	for si < len(startCurves) && ei < len(endCurves) {
		switch {
		case sRemain < eRemain-1e-12:
			frac := sRemain / eRemain
			split := eCur.Split(frac, true)
			a, b := unifyCurveTypes(sCur, split.Before)
			sOut, eOut = append(sOut, a), append(eOut, b)
			eCur = split.After
			eRemain -= sRemain
			si++
			if si < len(startCurves) {
				sCur = startCurves[si]
				sRemain = sLens[si] / sTotal
			}
		case eRemain < sRemain-1e-12:
			frac := eRemain / sRemain
			split := sCur.Split(frac, true)
			a, b := unifyCurveTypes(split.Before, eCur)
			sOut, eOut = append(sOut, a), append(eOut, b)
			sCur = split.After
			sRemain -= eRemain
			ei++
			if ei < len(endCurves) {
				eCur = endCurves[ei]
				eRemain = eLens[ei] / eTotal
			}
		default:
			a, b := unifyCurveTypes(sCur, eCur)
			sOut, eOut = append(sOut, a), append(eOut, b)
			si++
			ei++
			if si < len(startCurves) {
				sCur = startCurves[si]
				sRemain = sLens[si] / sTotal
			}
			if ei < len(endCurves) {
				eCur = endCurves[ei]
				eRemain = eLens[ei] / eTotal
			}
		}
	}
	return sOut, eOut
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}

// curveRank orders curve types by representational richness: a line
// can be promoted into a conic-class curve exactly, and any conic-class
// curve can be (at least approximately) elevated into a cubic.
func curveRank(t CurveType) int {
	switch t {
	case CurveLine:
		return 0
	case CurveCubic:
		return 2
	default: // CurveQuadratic, CurveConic, CurveConicArc
		return 1
	}
}

// unifyCurveTypes promotes whichever of a, b has the lower curveRank up
// to the other's rank (spec step 4), then, if both are rank-1 but carry
// different CurveType tags (e.g. CurveQuadratic vs CurveConicArc — the
// same underlying rational-quadratic representation with w=1), retags
// both to the common CurveConic tag so the CurveType-equality invariant
// holds without changing either curve's geometry.
func unifyCurveTypes(a, b ContourCurve) (ContourCurve, ContourCurve) {
	ra, rb := curveRank(a.typ), curveRank(b.typ)
	switch {
	case ra < rb:
		a = promoteCurve(a, rb)
	case rb < ra:
		b = promoteCurve(b, ra)
	}
	if a.typ != b.typ && curveRank(a.typ) == 1 {
		a.typ, b.typ = CurveConic, CurveConic
	}
	return a, b
}

// promoteCurve re-expresses c as a curve of the given rank, preserving
// its traced geometry. Line->conic-class and line/quadratic->cubic
// promotions are exact degree elevations; conic(w != 1)->cubic uses a
// 4-point cubic-Bezier fit through c's values at t=0, 1/3, 2/3, 1, which
// is only an approximation since a non-parabolic conic has no exact
// polynomial cubic representation.
func promoteCurve(c ContourCurve, rank int) ContourCurve {
	if curveRank(c.typ) == rank {
		return c
	}
	switch rank {
	case 1:
		mid := c.start.Lerp(c.end, 0.5)
		out := NewQuadratic(c.start, mid, c.end)
		out.continuation, out.generation = c.continuation, c.generation
		return out
	case 2:
		switch c.typ {
		case CurveLine:
			c1 := c.start.Lerp(c.end, 1.0/3)
			c2 := c.start.Lerp(c.end, 2.0/3)
			out := NewCubic(c.start, c1, c2, c.end)
			out.continuation, out.generation = c.continuation, c.generation
			return out
		case CurveQuadratic:
			q := c.control[0]
			c1 := c.start.Add(q.Sub(c.start).Mul(2.0 / 3))
			c2 := c.end.Add(q.Sub(c.end).Mul(2.0 / 3))
			out := NewCubic(c.start, c1, c2, c.end)
			out.continuation, out.generation = c.continuation, c.generation
			return out
		default: // CurveConic, CurveConicArc with weight != 1
			p0 := c.start
			pa := c.EvalAt(1.0 / 3)
			pb := c.EvalAt(2.0 / 3)
			p3 := c.end
			c1 := p0.Mul(-5.0 / 6).Add(pa.Mul(18.0 / 6)).Add(pb.Mul(-9.0 / 6)).Add(p3.Mul(2.0 / 6))
			c2 := p0.Mul(2.0 / 6).Add(pa.Mul(-9.0 / 6)).Add(pb.Mul(18.0 / 6)).Add(p3.Mul(-5.0 / 6))
			out := NewCubic(p0, c1, c2, p3)
			out.continuation, out.generation = c.continuation, c.generation
			return out
		}
	}
	return c
}

func buildAnimatedContour(closed bool, start, end []ContourCurve) *AnimatedContour {
	s := NewContourData()
	s.SetSanitizeCurvesOnAdding(false)
	e := NewContourData()
	e.SetSanitizeCurvesOnAdding(false)

	if len(start) > 0 {
		s.Start(start[0].Start())
		for _, c := range start {
			s.CurveTo(c)
		}
		s.closed = closed
	}
	if len(end) > 0 {
		e.Start(end[0].Start())
		for _, c := range end {
			e.CurveTo(c)
		}
		e.closed = closed
	}
	return &AnimatedContour{start: s, end: e, closed: closed}
}
