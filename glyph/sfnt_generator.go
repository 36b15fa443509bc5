package glyph

import (
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/astral-graphics/astral"
)

// SFNTGenerator is a Generator backed by a parsed TrueType/OpenType
// font, adapted from the teacher's OutlineExtractor idiom: segments are
// walked once and turned directly into astral Path contours rather
// than an intermediate outline-segment slice, since astral.Path is
// itself already a re-usable, cacheable builder.
//
// Per Generator's contract, every worker thread slot gets its own
// sfnt.Buffer — the scratch space sfnt.Font methods require — since a
// Buffer is not safe for concurrent use; the underlying *sfnt.Font
// itself is immutable parsed data and is shared across slots.
type SFNTGenerator struct {
	font        *sfnt.Font
	pixelsPerEm float64
	buffers     []sfnt.Buffer
}

// NewSFNTGenerator wraps font, rendering scalable glyph paths scaled
// for a pixelsPerEm em-square, with numThreads buffer slots available
// to FetchGlyphsParallel.
func NewSFNTGenerator(font *sfnt.Font, pixelsPerEm float64, numThreads int) *SFNTGenerator {
	if numThreads < 1 {
		numThreads = 1
	}
	return &SFNTGenerator{
		font:        font,
		pixelsPerEm: pixelsPerEm,
		buffers:     make([]sfnt.Buffer, numThreads),
	}
}

// NumberGlyphs reports the font's glyph count.
func (g *SFNTGenerator) NumberGlyphs() int {
	return g.font.NumGlyphs()
}

// NumberThreads reports how many buffer slots are available.
func (g *SFNTGenerator) NumberThreads() int {
	return len(g.buffers)
}

func (g *SFNTGenerator) ppem() fixed.Int26_6 {
	return fixed.Int26_6(g.pixelsPerEm * 64)
}

// Scalable converts glyph idx's outline into a single-layer astral
// Path. SFNTGenerator does not model COLR color glyphs, so layers has
// length 1 (length 0 for a glyph with no outline) and colors is nil.
func (g *SFNTGenerator) Scalable(slot int, idx Index) (Metrics, []*astral.Path, []FillRule, []PaletteColor, bool) {
	buf := &g.buffers[slot]
	gid := sfnt.GlyphIndex(idx)

	segments, err := g.font.LoadGlyph(buf, gid, g.ppem(), nil)
	if err != nil {
		return Metrics{}, nil, nil, nil, false
	}

	metrics := g.metricsFor(buf, gid)
	if len(segments) == 0 {
		// A valid glyph with no outline (e.g. space) still reports
		// metrics, just with zero layers.
		return metrics, nil, nil, nil, true
	}

	path := pathFromSegments(segments)
	return metrics, []*astral.Path{path}, []FillRule{FillRuleNonZero}, nil, true
}

// Fixed reports no bitmap strikes: SFNTGenerator only serves scalable
// outlines. A font bridge for embedded bitmap (sbix/CBDT) strikes would
// implement Fixed instead of delegating here.
func (g *SFNTGenerator) Fixed(slot int, idx Index, strike int) (Metrics, int, int, []byte, bool) {
	return Metrics{}, 0, 0, nil, false
}

func (g *SFNTGenerator) metricsFor(buf *sfnt.Buffer, gid sfnt.GlyphIndex) Metrics {
	advance, _ := g.font.GlyphAdvance(buf, gid, g.ppem(), 0)
	bounds, _ := g.font.Bounds(buf, g.ppem(), 0)
	return Metrics{
		AdvanceX: fixedToFloat(advance),
		BearingX: fixedToFloat(bounds.Min.X),
		BearingY: fixedToFloat(bounds.Min.Y),
		Width:    fixedToFloat(bounds.Max.X - bounds.Min.X),
		Height:   fixedToFloat(bounds.Max.Y - bounds.Min.Y),
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// pathFromSegments replays an sfnt segment list onto a new astral Path,
// translating sfnt's move/line/quad/cube ops to the matching Path
// builder calls.
func pathFromSegments(segments []sfnt.Segment) *astral.Path {
	path := astral.NewPath()
	started := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if started {
				path.Close()
			}
			started = true
			path.MoveTo(fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y))
		case sfnt.SegmentOpLineTo:
			path.LineTo(fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y))
		case sfnt.SegmentOpQuadTo:
			path.QuadraticTo(
				fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y),
				fixedToFloat(seg.Args[1].X), fixedToFloat(seg.Args[1].Y),
			)
		case sfnt.SegmentOpCubeTo:
			path.CubicTo(
				fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y),
				fixedToFloat(seg.Args[1].X), fixedToFloat(seg.Args[1].Y),
				fixedToFloat(seg.Args[2].X), fixedToFloat(seg.Args[2].Y),
			)
		}
	}
	if started {
		path.Close()
	}
	return path
}
