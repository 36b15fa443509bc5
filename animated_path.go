package astral

import "errors"

// ErrAnimatedPathContourCountMismatch is returned when two Paths being
// matched into an AnimatedPath have different numbers of contours.
var ErrAnimatedPathContourCountMismatch = errors.New("astral: AnimatedPath requires start and end paths to have the same number of contours")

// AnimatedPath is an ordered sequence of AnimatedContours — the
// per-Path analogue of AnimatedContour — plus cached bounding boxes and
// a cache slot for one ItemPath per RenderEngine that has requested
// this animated path's render data.
//
// AnimatedPath is not safe for concurrent use.
type AnimatedPath struct {
	contours []*AnimatedContour

	bbValid bool
	bb      Rect

	itemPathCache map[RenderEngine]any
}

// NewAnimatedPath matches start and end Path contour-by-contour (using
// NewAnimatedContour for each pair, anchored at each contour's own
// control-point bounding box center) into an AnimatedPath. It requires
// start and end to have the same number of contours and returns
// ErrAnimatedPathContourCountMismatch otherwise.
func NewAnimatedPath(closed bool, start, end *Path) (*AnimatedPath, error) {
	sc, ec := start.Contours(), end.Contours()
	if len(sc) != len(ec) {
		return nil, ErrAnimatedPathContourCountMismatch
	}
	ap := &AnimatedPath{contours: make([]*AnimatedContour, len(sc))}
	for i := range sc {
		sCenter := sc[i].ControlPointBoundingBox()
		eCenter := ec[i].ControlPointBoundingBox()
		ac, err := NewAnimatedContour(closed,
			sc[i].Curves(), rectCenter(sCenter), nil,
			ec[i].Curves(), rectCenter(eCenter), nil)
		if err != nil {
			return nil, err
		}
		ap.contours[i] = ac
	}
	return ap, nil
}

func rectCenter(r Rect) Point {
	return r.Min.Lerp(r.Max, 0.5)
}

// NumberContours returns the number of matched contour pairs.
func (a *AnimatedPath) NumberContours() int { return len(a.contours) }

// Contour returns the Nth matched AnimatedContour.
func (a *AnimatedPath) Contour(n int) *AnimatedContour {
	if n < 0 || n >= len(a.contours) {
		panic("astral: AnimatedPath.Contour index out of range")
	}
	return a.contours[n]
}

// StartBoundingBox returns the union of every contour's start-side
// tight bounding box, computed once and cached.
func (a *AnimatedPath) StartBoundingBox() Rect {
	if !a.bbValid {
		a.computeBoundingBox()
	}
	return a.bb
}

func (a *AnimatedPath) computeBoundingBox() {
	var bb Rect
	first := true
	for _, c := range a.contours {
		cbb := c.StartContour().TightBoundingBox()
		if first {
			bb, first = cbb, false
		} else {
			bb = bb.Union(cbb)
		}
	}
	a.bb, a.bbValid = bb, true
}

// ItemPathFor returns the cached per-RenderEngine render data handle
// for this animated path, calling engine.Ready() to decide whether a
// cached value (if any) is still usable and building a fresh one via
// build otherwise. The cache is invalidated whenever a RenderEngine
// reports itself not Ready.
func (a *AnimatedPath) ItemPathFor(engine RenderEngine, build func() any) any {
	if a.itemPathCache == nil {
		a.itemPathCache = make(map[RenderEngine]any)
	}
	if !engine.Ready() {
		delete(a.itemPathCache, engine)
	}
	if v, ok := a.itemPathCache[engine]; ok {
		return v
	}
	v := build()
	a.itemPathCache[engine] = v
	return v
}
