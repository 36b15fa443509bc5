// Package glyph caches rasterized and vector glyph data behind a
// Typeface, fed by a pluggable GlyphGenerator (typically a font-file
// bridge such as sfnt_generator.go's).
package glyph

import "github.com/astral-graphics/astral"

// Index identifies a glyph within a Typeface's fixed-size glyph table.
// It is the font's internal glyph index, not a Unicode code point.
type Index uint32

// FillRule selects how a scalable glyph's layer path resolves interior
// coverage when contours overlap.
type FillRule int

const (
	FillRuleNonZero FillRule = iota
	FillRuleOddEven
)

// PaletteColor is the RGBA8 palette color one layer of a COLR/CPAL-style
// colored glyph is painted with (PaletteLayer pairs it with the layer's
// path).
type PaletteColor struct {
	R, G, B, A uint8
}

// PaletteLayer pairs one glyph layer's path with the color it paints.
type PaletteLayer struct {
	Path  *astral.Path
	Color PaletteColor
}

// Metrics is the subset of font metrics a glyph needs for layout and
// placement, independent of whether it is scalable or fixed-size.
type Metrics struct {
	AdvanceX, AdvanceY float64
	BearingX, BearingY float64
	Width, Height      float64
}

// FixedStrike is one bitmap strike of a fixed-size glyph: pixels plus
// the size (in pixels per em) the strike was rendered at.
type FixedStrike struct {
	PixelsPerEm float64
	Width       int
	Height      int
	// Pixels holds RGBA8 data (Width*Height*4 bytes) exactly as the
	// generator returned it; Typeface adds no padding around the glyph.
	Pixels []byte
	// Mipmaps holds the box-averaged sRGB mip chain generated for the
	// smallest strike only; nil for every other strike.
	Mipmaps []FixedStrike
}

// Body is the cached state for one glyph index: its fetched content
// (once Inited) and a lock count protecting it from ejection while any
// Handle referencing it is outstanding.
//
// Per the package's single-threaded-except-fetch_glyphs_parallel
// contract, LockCount is a plain integer, not an atomic: outside a
// parallel fetch, callers never touch a Body concurrently, and inside
// one, each worker owns a disjoint set of glyph indices.
type Body struct {
	Inited    bool
	LockCount int32

	Metrics Metrics

	// Scalable glyph content: one ItemPath-ready Path and FillRule per
	// layer, and the palette color for colored (COLR) glyphs. A
	// monochrome scalable glyph has exactly one layer with an unset
	// (zero-value) PaletteColor.
	Layers    []*astral.Path
	FillRules []FillRule
	Colors    []PaletteColor

	// Fixed-size (bitmap) glyph content.
	Strikes []FixedStrike

	// queued marks this Body as already present in an in-flight
	// fetch_glyphs_parallel to-fetch list, preventing duplicate work
	// when the same index appears more than once in the request.
	queued bool
}

// Empty reports whether the body holds neither scalable nor fixed
// content — the "warning glyph" placeholder returned for a generator
// miss.
func (b *Body) Empty() bool {
	return len(b.Layers) == 0 && len(b.Strikes) == 0
}

// Handle is a live reference to a fetched glyph. While any Handle for a
// Body is outstanding, the body's lock count is nonzero and the
// Typeface will not eject it.
type Handle struct {
	body *Body
}

// Body returns the glyph content the handle refers to.
func (h Handle) Body() *Body { return h.body }

// Release decrements the body's lock count. Callers that keep a Handle
// for the lifetime of a draw call should Release it once done.
func (h Handle) Release() {
	if h.body != nil && h.body.LockCount > 0 {
		h.body.LockCount--
	}
}
