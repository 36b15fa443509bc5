package astral

import "math"

// MiterOverflowPolicy selects what a stroker does when a miter join's
// length exceeds MiterLimit: clip it back to the limit (the default),
// or fall back to a bevel join entirely.
type MiterOverflowPolicy int

const (
	MiterOverflowClip MiterOverflowPolicy = iota
	MiterOverflowBevel
)

// StrokeParameters is the caller-facing stroke descriptor that
// ItemDataPacker compresses into GPU static data.
type StrokeParameters struct {
	// Radius is the stroke's half-width in path-space units.
	Radius float64
	// GracefulThin requests the "hairline fade" behaviour for strokes
	// that would rasterize thinner than a pixel, rather than clamping
	// to a 1px minimum.
	GracefulThin bool
	// InterpolationT is the animated-stroke blend parameter in [0,1];
	// 0 and 1 are the two endpoints of an AnimatedPath.
	InterpolationT float64
	// TransformHandle names the path→logical transform the render
	// engine should apply; it is opaque to this package.
	TransformHandle uint32
	MiterLimit      float64
	MiterOverflow   MiterOverflowPolicy
}

// ItemDataPacker packs StrokeParameters into the single gvec4 base
// descriptor every stroke (dashed or solid) carries, and reports sizing
// and collapse information derived from it.
type ItemDataPacker struct{}

// capsJoinsCollapseThreshold is the radius-in-pixels below which caps
// and joins contribute no visible geometry and can be skipped.
const capsJoinsCollapseThreshold = 0.1

// PackBase packs p into one gvec4: radius and miter-limit each carry a
// sign-encoded flag in their own lane (negative radius = graceful-thin,
// negative miter-limit = bevel-on-overflow), t is stored directly, and
// the transform handle is bit-cast into its lane.
func (ItemDataPacker) PackBase(p StrokeParameters) GVec4 {
	radius := math.Abs(p.Radius)
	if p.GracefulThin {
		radius = -radius
	}
	miterLimit := math.Abs(p.MiterLimit)
	if p.MiterOverflow == MiterOverflowBevel {
		miterLimit = -miterLimit
	}
	return GVec4{
		X: float32(radius),
		Y: float32(p.InterpolationT),
		Z: math.Float32frombits(p.TransformHandle),
		W: float32(miterLimit),
	}
}

// PackedSize reports how many gvec4 blocks packing stroke (with an
// optional dash pattern) will occupy.
func (packer ItemDataPacker) PackedSize(stroke StrokeParameters, dash *DashPattern) int {
	size := 1
	if dash != nil {
		size += dash.packedSize()
	}
	return size
}

// CapsJoinsCollapse reports whether, at the given path-to-pixel scale
// factor, stroke's caps and joins rasterize to nothing and can be
// skipped entirely.
func (ItemDataPacker) CapsJoinsCollapse(stroke StrokeParameters, pixelScale float64) bool {
	return math.Abs(stroke.Radius)*pixelScale < capsJoinsCollapseThreshold
}
