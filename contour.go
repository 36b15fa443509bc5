package astral

import "math"

// ContourData represents the geometry of a single contour: an ordered
// chain of ContourCurve segments where each curve's start equals the
// previous curve's end. A ContourData may be open (the last curve's end
// need not equal the first curve's start) or closed.
type ContourData struct {
	curves []ContourCurve
	closed bool

	startPt   Point
	lastEndPt Point

	sanitizeOnAdd bool
	sanitized     bool

	bb        Rect
	bbValid   bool
	joinBB    Rect
	joinValid bool
	controlBB Rect
	ctrlValid bool
}

// NewContourData returns an empty ContourData with sanitize-on-add
// enabled.
func NewContourData() *ContourData {
	return &ContourData{sanitizeOnAdd: true, sanitized: true}
}

// Empty reports whether the contour has no curves yet.
func (c *ContourData) Empty() bool { return len(c.curves) == 0 }

// NumberCurves returns the number of curves in the contour.
func (c *ContourData) NumberCurves() int { return len(c.curves) }

// Curve returns curve N; it panics if N is out of range.
func (c *ContourData) Curve(n int) ContourCurve {
	if n < 0 || n >= len(c.curves) {
		panic("astral: ContourData.Curve index out of range")
	}
	return c.curves[n]
}

// Curves returns the contour's curves. The returned slice must not be
// modified by the caller.
func (c *ContourData) Curves() []ContourCurve { return c.curves }

// Closed reports whether Close has been called on this contour.
func (c *ContourData) Closed() bool { return c.closed }

// StartPoint returns the starting point of the contour, set by Start.
func (c *ContourData) StartPoint() Point { return c.startPt }

// CurrentPoint returns the end point of the last curve added — the
// point at which the next curve will start.
func (c *ContourData) CurrentPoint() Point { return c.lastEndPt }

// SanitizeCurvesOnAdding reports whether curves are sanitized as they
// are added (see Sanitize). Default true.
func (c *ContourData) SanitizeCurvesOnAdding() bool { return c.sanitizeOnAdd }

// SetSanitizeCurvesOnAdding sets whether future additions are
// sanitized. It has no effect on curves already present; call Sanitize
// to sanitize them.
func (c *ContourData) SetSanitizeCurvesOnAdding(v bool) { c.sanitizeOnAdd = v }

// IsSanitized reports whether every curve currently in the contour has
// been sanitized.
func (c *ContourData) IsSanitized() bool { return c.sanitized }

// Clear removes all curves, resetting the contour to empty.
func (c *ContourData) Clear() {
	c.curves = c.curves[:0]
	c.lastEndPt = Point{}
	c.closed = false
	c.sanitized = true
	c.bbValid, c.joinValid, c.ctrlValid = false, false, false
}

// Start begins the contour at point p. It panics if the contour is not
// Empty.
func (c *ContourData) Start(p Point) {
	if !c.Empty() {
		panic("astral: ContourData.Start requires an empty contour")
	}
	c.startPt, c.lastEndPt = p, p
	c.bb = Rect{Min: p, Max: p}
	c.bbValid = true
}

// StartWithCurve begins the contour with curve as its first segment. It
// panics if the contour is not Empty.
func (c *ContourData) StartWithCurve(curve ContourCurve) {
	if !c.Empty() {
		panic("astral: ContourData.StartWithCurve requires an empty contour")
	}
	c.startPt = curve.Start()
	c.lastEndPt = curve.Start()
	c.CurveTo(curve)
}

// CurveTo appends curve to the contour. The curve's Start() must equal
// CurrentPoint(); it panics otherwise. If SanitizeCurvesOnAdding is
// enabled, the curve is sanitized (see Sanitize) before being appended,
// and may therefore expand into more than one stored curve.
func (c *ContourData) CurveTo(curve ContourCurve) {
	if c.closed {
		panic("astral: ContourData.CurveTo called on a closed contour")
	}
	if curve.Start() != c.lastEndPt {
		panic("astral: ContourData.CurveTo requires curve.Start() == CurrentPoint()")
	}
	if c.sanitizeOnAdd {
		for _, sc := range sanitizeCurve(curve) {
			c.appendRaw(sc)
		}
	} else {
		c.sanitized = false
		c.appendRaw(curve)
	}
}

func (c *ContourData) appendRaw(curve ContourCurve) {
	c.curves = append(c.curves, curve)
	c.lastEndPt = curve.End()
	c.updateBBs(curve)
}

func (c *ContourData) updateBBs(curve ContourCurve) {
	tbb := curve.TightBoundingBox()
	cbb := curve.ControlPointBoundingBox()
	if c.bbValid {
		c.bb = c.bb.Union(tbb)
	} else {
		c.bb, c.bbValid = tbb, true
	}
	if c.ctrlValid {
		c.controlBB = c.controlBB.Union(cbb)
	} else {
		c.controlBB, c.ctrlValid = cbb, true
	}
	if curve.Continuation() == NotContinuation {
		if c.joinValid {
			c.joinBB = c.joinBB.expandToContain(curve.Start())
		} else {
			c.joinBB = Rect{Min: curve.Start(), Max: curve.Start()}
			c.joinValid = true
		}
	}
}

// Close closes the contour: if the current point does not already
// equal the start point, a line segment is appended to close the gap.
// It panics if the contour is Empty.
func (c *ContourData) Close() {
	if c.Empty() {
		panic("astral: ContourData.Close requires a non-empty contour")
	}
	if c.lastEndPt != c.startPt {
		c.CurveTo(NewLine(c.lastEndPt, c.startPt))
	}
	c.closed = true
}

// TightBoundingBox returns the union of every curve's exact bounding
// box.
func (c *ContourData) TightBoundingBox() Rect { return c.bb }

// ControlPointBoundingBox returns the union of every curve's control
// polygon bounding box — a fast, conservative superset of
// TightBoundingBox.
func (c *ContourData) ControlPointBoundingBox() Rect { return c.controlBB }

// JoinBoundingBox returns the bounding box of the join points between
// curves: the start point of every curve whose Continuation is
// NotContinuation.
func (c *ContourData) JoinBoundingBox() Rect { return c.joinBB }

// Sanitize re-applies sanitizeCurve to every curve currently in the
// contour, rebuilding it in place. It reports whether anything changed.
// Sanitizing preserves the contour's start and end points.
func (c *ContourData) Sanitize() bool {
	if c.sanitized {
		return false
	}
	old := c.curves
	rebuilt := make([]ContourCurve, 0, len(old))
	for _, curve := range old {
		rebuilt = append(rebuilt, sanitizeCurve(curve)...)
	}
	changed := len(rebuilt) != len(old)
	if !changed {
		for i := range rebuilt {
			if rebuilt[i] != old[i] {
				changed = true
				break
			}
		}
	}
	c.curves = rebuilt
	c.sanitized = true
	c.bbValid, c.joinValid, c.ctrlValid = false, false, false
	for _, curve := range c.curves {
		c.updateBBs(curve)
	}
	return changed
}

// sanitizeCurve applies the contour sanitization rules to a single
// incoming curve, producing zero or more replacement curves:
//   - a line segment whose start equals its end is elided entirely.
//   - a cubic that is algebraically exactly a quadratic is rewritten as
//     a quadratic.
//   - any curve with Flatness() == 0 (other than a line) is rewritten
//     as a line segment.
//   - a quadratic or conic whose start equals its end is split into two
//     line segments tracing the same path the original curve traced
//     (start->control, control->end), since a degenerate zero-length
//     chord curve cannot be evaluated as a line itself.
func sanitizeCurve(curve ContourCurve) []ContourCurve {
	if curve.Type() == CurveLine {
		if curve.Start() == curve.End() {
			return nil
		}
		return []ContourCurve{curve}
	}

	if curve.Start() == curve.End() {
		switch curve.Type() {
		case CurveQuadratic, CurveConic, CurveConicArc:
			mid := curve.ControlPoint(0)
			var out []ContourCurve
			if curve.Start() != mid {
				out = append(out, NewLine(curve.Start(), mid).WithContinuation(curve.Continuation()))
			}
			if mid != curve.End() {
				cont := Continuation
				if len(out) == 0 {
					cont = curve.Continuation()
				}
				out = append(out, NewLine(mid, curve.End()).WithContinuation(cont))
			}
			return out
		}
	}

	if curve.Type() == CurveCubic {
		if q, ok := cubicAsExactQuadratic(curve); ok {
			curve = q
		}
	}

	if curve.Type() != CurveLine && curve.Flatness() == 0 {
		return []ContourCurve{NewLine(curve.Start(), curve.End()).WithContinuation(curve.Continuation())}
	}

	return []ContourCurve{curve}
}

// cubicAsExactQuadratic reports whether a cubic Bezier's control points
// lie exactly on the quadratic through the same endpoints — i.e.
// P1 == P0 + 2/3*(Q-P0) and P2 == P3 + 2/3*(Q-P3) for some Q — and if so
// returns the equivalent quadratic.
func cubicAsExactQuadratic(c ContourCurve) (ContourCurve, bool) {
	p0, p1, p2, p3 := c.Start(), c.ControlPoint(0), c.ControlPoint(1), c.End()
	// Solve for Q from the first relation, then verify the second.
	q := p0.Add(p1.Sub(p0).Mul(1.5))
	qFromEnd := p3.Add(p2.Sub(p3).Mul(1.5))
	const eps = 1e-9
	if math.Abs(q.X-qFromEnd.X) > eps || math.Abs(q.Y-qFromEnd.Y) > eps {
		return ContourCurve{}, false
	}
	return NewQuadratic(p0, q, p3).WithContinuation(c.Continuation()), true
}

// Reverse reverses the contour in place: curve order reverses, each
// curve reverses direction, and continuation flags are recomputed so
// that the reversed chain's join structure matches the original.
func (c *ContourData) Reverse() {
	n := len(c.curves)
	rev := make([]ContourCurve, n)
	for i, curve := range c.curves {
		r := curve.Reversed()
		// The reversed curve i lands at position n-1-i and is preceded by
		// reversed curve i+1, so the join before it is the original join
		// between curves i and i+1, whose kind curve i+1 carries.
		if i+1 < n {
			r.continuation = c.curves[i+1].continuation
		} else {
			r.continuation = NotContinuation
		}
		rev[n-1-i] = r
	}
	c.curves = rev
	c.startPt, c.lastEndPt = c.lastEndPt, c.startPt
}

// MakeCurveFirst rotates the contour's curve list so that curve index i
// becomes the first curve. It panics unless the contour is Closed.
func (c *ContourData) MakeCurveFirst(i int) {
	if !c.closed {
		panic("astral: MakeCurveFirst requires a closed contour")
	}
	n := len(c.curves)
	if i < 0 || i >= n {
		panic("astral: MakeCurveFirst index out of range")
	}
	if i == 0 {
		return
	}
	rotated := make([]ContourCurve, 0, n)
	rotated = append(rotated, c.curves[i:]...)
	rotated = append(rotated, c.curves[:i]...)
	c.curves = rotated
	c.startPt = c.curves[0].Start()
}
