package astral

import "math"

// Path is a builder and container for a sequence of contours. Building
// uses chained calls in the teacher's style: MoveTo starts a new
// contour, *_To appends a curve to the in-progress contour, and Close
// (or a *Close variant) ends it. Calling a *_To method before any
// MoveTo panics — it is a contract violation, not a reachable runtime
// condition.
//
// AddContour inserts a fully-formed ContourData. If a contour is
// currently in progress (MoveTo called, Close not yet called),
// AddContour inserts the new contour *before* the in-progress one in
// Contours() — this is deliberate, documented behavior, not an
// implementation accident: it lets a caller interleave AddContour calls
// with an open builder chain without disturbing the chain's eventual
// position as the path's last contour.
//
// Path is not safe for concurrent use.
type Path struct {
	opts pathOptions

	contours []*ContourData
	building *ContourData

	bbValid       bool
	bb            Rect
	itemPathCache map[RenderEngine]any
}

// NewPath returns an empty Path ready for building.
func NewPath(opts ...PathOption) *Path {
	o := defaultPathOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Path{opts: o}
}

// IsSanitized reports whether every contour returns true for its own
// IsSanitized.
func (p *Path) IsSanitized() bool {
	for _, c := range p.allContours() {
		if !c.IsSanitized() {
			return false
		}
	}
	return true
}

// NumberContours returns the number of finished contours plus, if a
// contour is in progress, one more for it.
func (p *Path) NumberContours() int { return len(p.allContours()) }

// Contour returns contour N (0-indexed across finished and any
// in-progress contour).
func (p *Path) Contour(n int) *ContourData {
	all := p.allContours()
	if n < 0 || n >= len(all) {
		panic("astral: Path.Contour index out of range")
	}
	return all[n]
}

// Contours returns every contour, finished and in-progress.
func (p *Path) Contours() []*ContourData { return p.allContours() }

func (p *Path) allContours() []*ContourData {
	if p.building == nil {
		return p.contours
	}
	all := make([]*ContourData, 0, len(p.contours)+1)
	all = append(all, p.contours...)
	all = append(all, p.building)
	return all
}

func (p *Path) requireBuilding(method string) {
	if p.building == nil {
		panic("astral: Path." + method + " called without a prior MoveTo")
	}
	p.invalidateCache()
}

// invalidateCache drops the cached bounding box and every per-RenderEngine
// ItemPath handle; called whenever the path's geometry changes.
func (p *Path) invalidateCache() {
	p.bbValid = false
	for k := range p.itemPathCache {
		delete(p.itemPathCache, k)
	}
}

// MoveTo starts a new contour at (x, y). If a contour is already in
// progress it is left unclosed and demoted into Contours() as-is; the
// new contour becomes the one in progress.
func (p *Path) MoveTo(x, y float64) *Path {
	p.invalidateCache()
	if p.building != nil {
		p.contours = append(p.contours, p.building)
	}
	c := NewContourData()
	c.SetSanitizeCurvesOnAdding(p.opts.sanitize)
	c.Start(Pt(x, y))
	p.building = c
	return p
}

// StartContourWithCurve starts a new contour whose first curve is
// curve.
func (p *Path) StartContourWithCurve(curve ContourCurve) *Path {
	p.invalidateCache()
	if p.building != nil {
		p.contours = append(p.contours, p.building)
	}
	c := NewContourData()
	c.SetSanitizeCurvesOnAdding(p.opts.sanitize)
	c.StartWithCurve(curve)
	p.building = c
	return p
}

// LineTo appends a line segment to the in-progress contour.
func (p *Path) LineTo(x, y float64, cont ...ContinuationKind) *Path {
	p.requireBuilding("LineTo")
	p.building.CurveTo(NewLine(p.building.CurrentPoint(), Pt(x, y)).WithContinuation(firstCont(cont)))
	return p
}

// QuadraticTo appends a quadratic Bezier curve to the in-progress
// contour.
func (p *Path) QuadraticTo(ctrlX, ctrlY, x, y float64, cont ...ContinuationKind) *Path {
	p.requireBuilding("QuadraticTo")
	cur := p.building.CurrentPoint()
	p.building.CurveTo(NewQuadratic(cur, Pt(ctrlX, ctrlY), Pt(x, y)).WithContinuation(firstCont(cont)))
	return p
}

// ConicTo appends a conic (rational quadratic Bezier) curve with weight
// w to the in-progress contour. w=1 is identical to QuadraticTo.
func (p *Path) ConicTo(w, ctrlX, ctrlY, x, y float64, cont ...ContinuationKind) *Path {
	p.requireBuilding("ConicTo")
	cur := p.building.CurrentPoint()
	p.building.CurveTo(NewConic(cur, Pt(ctrlX, ctrlY), Pt(x, y), w).WithContinuation(firstCont(cont)))
	return p
}

// CubicTo appends a cubic Bezier curve to the in-progress contour.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64, cont ...ContinuationKind) *Path {
	p.requireBuilding("CubicTo")
	cur := p.building.CurrentPoint()
	p.building.CurveTo(NewCubic(cur, Pt(c1x, c1y), Pt(c2x, c2y), Pt(x, y)).WithContinuation(firstCont(cont)))
	return p
}

// ArcTo appends a circular arc of sweep radians (sign gives direction)
// ending at (x, y) to the in-progress contour. Large sweeps are split
// into multiple conic-arc pieces of at most pi/2 each so that
// NewConicArc's single-piece limit is never violated.
func (p *Path) ArcTo(radians, x, y float64, cont ...ContinuationKind) *Path {
	p.requireBuilding("ArcTo")
	start := p.building.CurrentPoint()
	end := Pt(x, y)
	center, radius, startAngle := arcCenterFromChordAndSweep(start, end, radians)

	pieces := arcSplitCount(radians)
	sweepPerPiece := radians / float64(pieces)
	angle := startAngle
	c := firstCont(cont)
	for i := 0; i < pieces; i++ {
		arc := NewConicArc(center, radius, angle, sweepPerPiece)
		arcStart, arcEnd := arc.Start(), arc.End()
		if i == 0 {
			arc = arc.WithContinuation(c)
			arcStart = start
		} else {
			arc = arc.WithContinuation(Continuation)
		}
		if i == pieces-1 {
			arcEnd = end
		}
		p.building.CurveTo(arc.withEndpoints(arcStart, arcEnd))
		angle += sweepPerPiece
	}
	return p
}

// arcSplitCount returns how many <= pi/2 pieces an arc of the given
// signed sweep (radians) must be split into.
func arcSplitCount(radians float64) int {
	n := int(math.Ceil(math.Abs(radians) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	return n
}

// arcCenterFromChordAndSweep derives the arc's center, radius, and
// start angle from its chord endpoints and signed sweep angle.
func arcCenterFromChordAndSweep(start, end Point, sweep float64) (center Point, radius, startAngle float64) {
	chord := end.Sub(start)
	chordLen := chord.Length()
	if chordLen == 0 {
		return start, 0, 0
	}
	radius = (chordLen / 2) / math.Sin(sweep/2)
	mid := start.Lerp(end, 0.5)
	perp := Pt(-chord.Y, chord.X).Normalize()
	h := math.Sqrt(math.Max(radius*radius-(chordLen/2)*(chordLen/2), 0))
	sign := 1.0
	if sweep < 0 {
		sign = -1.0
	}
	if radius < 0 {
		sign = -sign
	}
	center = mid.Add(perp.Mul(-sign * h))
	startAngle = math.Atan2(start.Y-center.Y, start.X-center.X)
	return center, math.Abs(radius), startAngle
}

// CurveTo appends an arbitrary already-constructed ContourCurve to the
// in-progress contour. It panics unless curve.Start() equals the
// contour's current point.
func (p *Path) CurveTo(curve ContourCurve) *Path {
	p.requireBuilding("CurveTo")
	p.building.CurveTo(curve)
	return p
}

func firstCont(cont []ContinuationKind) ContinuationKind {
	if len(cont) > 0 {
		return cont[0]
	}
	return NotContinuation
}

// Close closes the in-progress contour and finalizes it into Contours.
// It panics if no contour is in progress.
func (p *Path) Close() *Path {
	p.requireBuilding("Close")
	p.building.Close()
	p.contours = append(p.contours, p.building)
	p.building = nil
	return p
}

// LineClose closes the in-progress contour with an explicit line
// segment back to its start point (equivalent to Close, named to match
// the teacher's distinction between an implicit and explicit closing
// edge for continuation bookkeeping).
func (p *Path) LineClose(cont ...ContinuationKind) *Path {
	p.requireBuilding("LineClose")
	start := p.building.StartPoint()
	if p.building.CurrentPoint() != start {
		p.building.CurveTo(NewLine(p.building.CurrentPoint(), start).WithContinuation(firstCont(cont)))
	}
	p.building.closed = true
	p.contours = append(p.contours, p.building)
	p.building = nil
	return p
}

// AddContour appends an already-built contour. If a contour is
// currently in progress, the new contour is inserted immediately before
// it (see Path's doc comment).
func (p *Path) AddContour(c *ContourData) *Path {
	p.invalidateCache()
	p.contours = append(p.contours, c)
	return p
}

// AddRect appends a closed rectangular contour.
func (p *Path) AddRect(x, y, w, h float64) *Path {
	return p.MoveTo(x, y).
		LineTo(x+w, y).
		LineTo(x+w, y+h).
		LineTo(x, y+h).
		Close()
}

// AddOval appends a closed oval contour inscribed in the given bounding
// rectangle, built from four quarter-circle conic-arc pieces (weight
// cos(pi/4) = sqrt(2)/2, the standard circle-with-conics construction).
func (p *Path) AddOval(x, y, w, h float64) *Path {
	rx, ry := w/2, h/2
	cx, cy := x+rx, y+ry
	const k = math.Sqrt2 / 2

	p.MoveTo(cx+rx, cy)
	p.ConicTo(k, cx+rx, cy+ry, cx, cy+ry)
	p.ConicTo(k, cx-rx, cy+ry, cx-rx, cy)
	p.ConicTo(k, cx-rx, cy-ry, cx, cy-ry)
	p.ConicTo(k, cx+rx, cy-ry, cx+rx, cy)
	return p.Close()
}

// AddRoundedRect appends a closed rounded-rectangle contour with corner
// radius r (clamped to half the smaller dimension).
func (p *Path) AddRoundedRect(x, y, w, h, r float64) *Path {
	if maxR := math.Min(w, h) / 2; r > maxR {
		r = maxR
	}
	const k = math.Sqrt2 / 2

	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.ConicTo(k, x+w, y, x+w, y+r)
	p.LineTo(x+w, y+h-r)
	p.ConicTo(k, x+w, y+h, x+w-r, y+h)
	p.LineTo(x+r, y+h)
	p.ConicTo(k, x, y+h, x, y+h-r)
	p.LineTo(x, y+r)
	p.ConicTo(k, x, y, x+r, y)
	return p.Close()
}

// PointQueryResult is the result of querying a Path for the nearest
// point on its boundary to a query point.
type PointQueryResult struct {
	Distance       float64
	ContourIndex   int
	CurveIndex     int
	ClosestT       float64
	WindingImpact  int
}

// distanceL1 returns the taxicab (L1) distance between a and b.
func distanceL1(a, b Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}

// DistanceToPath returns the L1 (taxicab) distance from pt to the
// path's boundary, along with which contour/curve/t achieved it. The
// distance is the minimum over 33 evenly spaced samples (t = 0, 1/32,
// ..., 1) of each curve, so ClosestT is one of those sample values.
// contourIndex/curveIndex are -1 if the path is empty. WindingImpact is
// the sign WindingNumber's crossing test gives the closest curve's
// start-to-end chord: +1 if its end Y is greater than its start Y, -1
// if smaller, 0 for a horizontal chord.
func (p *Path) DistanceToPath(pt Point) PointQueryResult {
	best := PointQueryResult{Distance: math.Inf(1), ContourIndex: -1, CurveIndex: -1}
	for ci, c := range p.allContours() {
		for ki, curve := range c.Curves() {
			const samples = 32
			for i := 0; i <= samples; i++ {
				t := float64(i) / samples
				d := distanceL1(curve.EvalAt(t), pt)
				if d < best.Distance {
					best = PointQueryResult{
						Distance:      d,
						ContourIndex:  ci,
						CurveIndex:    ki,
						ClosestT:      t,
						WindingImpact: windingImpact(curve.Start().Y, curve.End().Y),
					}
				}
			}
		}
	}
	return best
}

// windingImpact mirrors the crossing test WindingNumber applies to a
// curve's control-polygon chord: +1 for an upward crossing, -1 for a
// downward one, 0 for a horizontal (non-crossing) chord.
func windingImpact(startY, endY float64) int {
	switch {
	case endY > startY:
		return 1
	case endY < startY:
		return -1
	default:
		return 0
	}
}

// WindingNumber returns the winding number of the path's contours
// around pt, using the standard crossing-number rule evaluated against
// each curve's start-to-end chord. The result is exact for line
// segments; a curved segment is treated as its chord (sanitisation does
// not flatten curves), so points between a curve and its chord can get
// a different winding number than the true curved edge gives.
func (p *Path) WindingNumber(pt Point) int {
	winding := 0
	for _, c := range p.allContours() {
		for _, curve := range c.Curves() {
			a, b := curve.Start(), curve.End()
			if a.Y <= pt.Y {
				if b.Y > pt.Y && isLeft(a, b, pt) > 0 {
					winding++
				}
			} else if b.Y <= pt.Y && isLeft(a, b, pt) < 0 {
				winding--
			}
		}
	}
	return winding
}

func isLeft(a, b, pt Point) float64 {
	return (b.X-a.X)*(pt.Y-a.Y) - (pt.X-a.X)*(b.Y-a.Y)
}

// TightBoundingBox returns the union of every contour's tight bounding
// box, computed once per geometry change and cached.
func (p *Path) TightBoundingBox() Rect {
	if !p.bbValid {
		var bb Rect
		first := true
		for _, c := range p.allContours() {
			if c.Empty() {
				continue
			}
			cbb := c.TightBoundingBox()
			if first {
				bb, first = cbb, false
			} else {
				bb = bb.Union(cbb)
			}
		}
		p.bb, p.bbValid = bb, true
	}
	return p.bb
}

// ItemPathFor returns the cached per-RenderEngine render-data handle
// for this path, rebuilding via build if none is cached or the engine
// reports itself not Ready.
func (p *Path) ItemPathFor(engine RenderEngine, build func() any) any {
	if p.itemPathCache == nil {
		p.itemPathCache = make(map[RenderEngine]any)
	}
	if !engine.Ready() {
		delete(p.itemPathCache, engine)
	}
	if v, ok := p.itemPathCache[engine]; ok {
		return v
	}
	v := build()
	p.itemPathCache[engine] = v
	return v
}
