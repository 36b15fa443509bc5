// Package astral provides the core offline data subsystems of a 2D
// vector-graphics engine: curve and path representation, animated-path
// curve matching, and the stencil-then-cover (FillSTC) fill data
// builder.
//
// # Overview
//
// astral is deliberately not a renderer: shader compilation, draw-call
// batching, and actual GPU submission are the concern of a RenderEngine
// implementation supplied by the host application. This package produces
// the geometry and packed static-data blocks a RenderEngine consumes; it
// never calls a GPU API itself.
//
// Two companion packages round out the engine:
//   - github.com/astral-graphics/astral/atlas: the tiled image atlas
//     allocator (IntervalAllocator, TileAllocator, ImageAtlas).
//   - github.com/astral-graphics/astral/glyph: the glyph cache and
//     Typeface, with parallel glyph prefetch.
//
// # Quick Start
//
//	import "github.com/astral-graphics/astral"
//
//	p := astral.NewPath()
//	p.MoveTo(0, 0)
//	p.LineTo(100, 0)
//	p.QuadraticTo(100, 100, 50, 100)
//	p.Close()
//
// # Coordinate System
//
// Standard computer-graphics coordinates: origin (0,0) at top-left, X
// increases right, Y increases down, angles in radians with 0 pointing
// right and increasing counter-clockwise.
//
// # Concurrency
//
// Path, Contour, and AnimatedPath are not safe for concurrent use — see
// each type's doc comment. The glyph package's parallel prefetch entry
// point is the one sanctioned exception to astral's single-threaded
// model.
package astral
