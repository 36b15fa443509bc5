package atlas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ErrAtlasFull is returned by Flush when the color backing has exhausted
// its configured maximum layer count before the requested slack is
// covered. CreateImageMipElement reports an exhausted backing by wrapping
// the TileAllocator's ErrTilesExhausted instead.
var ErrAtlasFull = errors.New("atlas: backing exhausted its maximum layer count")

// Default tile geometry (spec §6): log2_tile_size = 6 (T = 64),
// tile_padding = 2 (Z = 60).
const (
	DefaultLog2TileSize = 6
	DefaultPadding      = 2
)

// ImageID names an Image registered with an ImageAtlas.
type ImageID uint64

// Colorspace of an Image's texel data.
type ImageColorspace int

const (
	ImageColorspaceLinear ImageColorspace = iota
	ImageColorspaceSRGB
)

type tileBackingKind int

const (
	tileBackingUnique tileBackingKind = iota
	tileBackingEmpty
	tileBackingFull
)

// tileBacking is the shared, reference-counted storage behind one color
// tile of an ImageMipElement. Empty and full tiles share one backing
// instance per atlas; unique tiles own one TileAllocator leaf each.
type tileBacking struct {
	kind tileBackingKind
	tile Tile
	refs int
}

// ImageMipElement is a single mip level's worth of atlas-backed tiles.
type ImageMipElement struct {
	atlas *ImageAtlas

	widthPx, heightPx int
	tilesX, tilesY    int
	colorTiles        [][]*tileBacking // [ty][tx]

	numIndexLevels int
	indexTile      Tile
	hasIndexTile   bool

	released bool
}

// Width and Height return the element's nominal pixel size.
func (e *ImageMipElement) Width() int  { return e.widthPx }
func (e *ImageMipElement) Height() int { return e.heightPx }

// NumIndexLevels returns the number of index-tile levels above this
// element's color tiles, computed so the root index tile is one texel
// addressing the whole image: the smallest N with Z * T^(N-1) >= the
// larger of the element's tile-grid dimensions.
func (e *ImageMipElement) NumIndexLevels() int { return e.numIndexLevels }

// Image is an ordered mip chain of ImageMipElements.
type Image struct {
	ID          ImageID
	Mips        []*ImageMipElement
	Colorspace  ImageColorspace
	Opaque      bool
	RenderIndex int64 // set by CreateRenderedImage; tracks GPU-side validity
}

// AtlasOption configures a new ImageAtlas.
type AtlasOption func(*atlasOptions)

type atlasOptions struct {
	log2TileSize  int
	padding       int
	colorTilesX   int
	colorTilesY   int
	maxColorLayer int
	indexTilesX   int
	indexTilesY   int
	maxIndexLayer int
	logger        *slog.Logger
}

func defaultAtlasOptions() atlasOptions {
	return atlasOptions{
		log2TileSize:  DefaultLog2TileSize,
		padding:       DefaultPadding,
		colorTilesX:   16,
		colorTilesY:   16,
		maxColorLayer: 4,
		indexTilesX:   16,
		indexTilesY:   16,
		maxIndexLayer: 4,
	}
}

// WithTileSize sets log2(tile size) and padding. Defaults: 6 (T=64), 2.
func WithTileSize(log2TileSize, padding int) AtlasOption {
	return func(o *atlasOptions) { o.log2TileSize = log2TileSize; o.padding = padding }
}

// WithColorBackingGrid sets the color backing's per-layer max-tile grid
// and maximum layer count.
func WithColorBackingGrid(tilesX, tilesY, maxLayers int) AtlasOption {
	return func(o *atlasOptions) { o.colorTilesX = tilesX; o.colorTilesY = tilesY; o.maxColorLayer = maxLayers }
}

// WithIndexBackingGrid sets the index backing's per-layer max-tile grid
// and maximum layer count.
func WithIndexBackingGrid(tilesX, tilesY, maxLayers int) AtlasOption {
	return func(o *atlasOptions) { o.indexTilesX = tilesX; o.indexTilesY = tilesY; o.maxIndexLayer = maxLayers }
}

// WithLogger overrides the logger used by the atlas. If nil or unset, the
// atlas logs nothing of its own (callers may still wire astral.Logger()
// through this option from the root package).
func WithLogger(l *slog.Logger) AtlasOption {
	return func(o *atlasOptions) { o.logger = l }
}

// ImageAtlas owns a color backing and an index backing, each a
// TileAllocator-managed array of layers, and the lifecycle of Image,
// ImageMipElement, and shared empty/full/unique tile backings.
//
// ImageAtlas is not safe for concurrent use.
type ImageAtlas struct {
	opts atlasOptions

	colorAlloc *TileAllocator
	indexAlloc *TileAllocator

	tileSize int
	padding  int
	usable   int // Z = tileSize - 2*padding

	emptyBacking *tileBacking
	fullBacking  *tileBacking

	lockDepth int
	pending   []func()

	images   map[ImageID]*Image
	nextID   atomic.Uint64
	extraTexels int
}

// NewImageAtlas creates an atlas with the given options.
func NewImageAtlas(opts ...AtlasOption) *ImageAtlas {
	o := defaultAtlasOptions()
	for _, opt := range opts {
		opt(&o)
	}
	tileSize := 1 << uint(o.log2TileSize)
	a := &ImageAtlas{
		opts:       o,
		colorAlloc: NewTileAllocator(o.log2TileSize, o.log2TileSize, o.colorTilesX, o.colorTilesY, o.maxColorLayer),
		indexAlloc: NewTileAllocator(o.log2TileSize, o.log2TileSize, o.indexTilesX, o.indexTilesY, o.maxIndexLayer),
		tileSize:   tileSize,
		padding:    o.padding,
		usable:     tileSize - 2*o.padding,
		images:     make(map[ImageID]*Image),
	}
	a.emptyBacking = &tileBacking{kind: tileBackingEmpty}
	a.fullBacking = &tileBacking{kind: tileBackingFull}
	return a
}

func (a *ImageAtlas) logger() *slog.Logger {
	if a.opts.logger != nil {
		return a.opts.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a minimal no-op slog.Handler used when no logger is
// configured, so the atlas package never forces astral's logger on
// callers that only import atlas.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func (a *ImageAtlas) numIndexLevels(tilesX, tilesY int) int {
	maxDim := tilesX
	if tilesY > maxDim {
		maxDim = tilesY
	}
	n := 1
	reach := a.usable
	for reach < maxDim {
		reach *= a.tileSize
		n++
	}
	return n
}

// CreateImageMipElement builds one mip level of widthPx x heightPx,
// using freshly allocated color tiles except where empty, full, or
// shared tiles are named. Tiles not listed are allocated fresh.
func (a *ImageAtlas) CreateImageMipElement(widthPx, heightPx int, empty, full [][2]int, shared []SharedTileInstance) (*ImageMipElement, error) {
	if widthPx <= 0 || heightPx <= 0 {
		panic("atlas: CreateImageMipElement requires positive dimensions")
	}
	tilesX := (widthPx + a.usable - 1) / a.usable
	tilesY := (heightPx + a.usable - 1) / a.usable

	e := &ImageMipElement{
		atlas: a, widthPx: widthPx, heightPx: heightPx,
		tilesX: tilesX, tilesY: tilesY,
		colorTiles: make([][]*tileBacking, tilesY),
	}
	for ty := range e.colorTiles {
		e.colorTiles[ty] = make([]*tileBacking, tilesX)
	}

	isEmpty := map[[2]int]bool{}
	for _, c := range empty {
		isEmpty[c] = true
	}
	isFull := map[[2]int]bool{}
	for _, c := range full {
		isFull[c] = true
	}
	isShared := map[[2]int]SharedTileInstance{}
	for _, s := range shared {
		isShared[[2]int{s.TileX, s.TileY}] = s
	}

	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			cell := [2]int{tx, ty}
			switch {
			case isEmpty[cell]:
				a.emptyBacking.refs++
				e.colorTiles[ty][tx] = a.emptyBacking
			case isFull[cell]:
				a.fullBacking.refs++
				e.colorTiles[ty][tx] = a.fullBacking
			default:
				if s, ok := isShared[cell]; ok {
					b := s.Source.colorTiles[s.TileY][s.TileX]
					b.refs++
					e.colorTiles[ty][tx] = b
					continue
				}
				tile, err := a.colorAlloc.Allocate(a.opts.log2TileSize, a.opts.log2TileSize)
				if err != nil {
					a.rollbackElement(e, ty, tx)
					return nil, fmt.Errorf("atlas: color tile (%d,%d): %w", tx, ty, err)
				}
				e.colorTiles[ty][tx] = &tileBacking{kind: tileBackingUnique, tile: tile, refs: 1}
			}
		}
	}

	e.numIndexLevels = a.numIndexLevels(tilesX, tilesY)
	indexTile, err := a.indexAlloc.Allocate(a.opts.log2TileSize, a.opts.log2TileSize)
	if err != nil {
		a.rollbackElement(e, tilesY, 0)
		return nil, fmt.Errorf("atlas: index tile: %w", err)
	}
	e.indexTile = indexTile
	e.hasIndexTile = true

	a.logger().Debug("created image mip element", "width", widthPx, "height", heightPx, "tiles_x", tilesX, "tiles_y", tilesY, "index_levels", e.numIndexLevels)
	return e, nil
}

// rollbackElement releases every color tile already placed before cell
// (stopCol, stopRow) in row-major order (every placed tile when stopRow
// is the row count), so a failed CreateImageMipElement call leaves no
// tiles behind.
func (a *ImageAtlas) rollbackElement(e *ImageMipElement, stopRow, stopCol int) {
	for ty := 0; ty < len(e.colorTiles); ty++ {
		for tx := 0; tx < len(e.colorTiles[ty]); tx++ {
			if ty > stopRow || (ty == stopRow && tx >= stopCol) {
				continue
			}
			b := e.colorTiles[ty][tx]
			if b == nil {
				continue
			}
			a.releaseBacking(b)
		}
	}
}

func (a *ImageAtlas) releaseBacking(b *tileBacking) {
	b.refs--
	if b.refs > 0 || b.kind != tileBackingUnique {
		return
	}
	release := func() { a.colorAlloc.Release(b.tile) }
	if a.lockDepth > 0 {
		a.pending = append(a.pending, release)
		return
	}
	release()
}

// SharedTileInstance names a source tile to reuse by reference.
type SharedTileInstance struct {
	Source *ImageMipElement
	TileX  int
	TileY  int
}

// ReleaseMipElement decrements the reference count of every color tile
// backing this element, returning a unique tile to the color allocator
// when its count reaches zero, and releases the element's index tile;
// releases are deferred while the atlas is locked.
func (a *ImageAtlas) ReleaseMipElement(e *ImageMipElement) {
	if e.released {
		return
	}
	e.released = true
	for _, row := range e.colorTiles {
		for _, b := range row {
			if b != nil {
				a.releaseBacking(b)
			}
		}
	}
	if e.hasIndexTile {
		tile := e.indexTile
		release := func() { a.indexAlloc.Release(tile) }
		if a.lockDepth > 0 {
			a.pending = append(a.pending, release)
		} else {
			release()
		}
	}
}

// NewImage registers an Image with the given mip chain, colorspace, and
// opacity flag, assigning it a fresh ImageID.
func (a *ImageAtlas) NewImage(mips []*ImageMipElement, cs ImageColorspace, opaque bool) *Image {
	id := ImageID(a.nextID.Add(1))
	img := &Image{ID: id, Mips: mips, Colorspace: cs, Opaque: opaque}
	a.images[id] = img
	return img
}

// CreateRenderedImage registers img (already built by NewImage) as the
// target of an offscreen render tagged with renderIndex, so a consumer
// polling FetchImage can tell when the GPU-side pixels became valid.
func (a *ImageAtlas) CreateRenderedImage(img *Image, renderIndex int64) {
	img.RenderIndex = renderIndex
}

// FetchImage returns the Image registered under id, or (nil, false) if
// it has been evicted. A non-nil result is always the same *Image value
// previously returned for that id.
func (a *ImageAtlas) FetchImage(id ImageID) (*Image, bool) {
	img, ok := a.images[id]
	return img, ok
}

// EvictImage removes id from the atlas's registry and releases every mip
// element's tiles. After this call FetchImage(id) returns (nil, false).
func (a *ImageAtlas) EvictImage(id ImageID) {
	img, ok := a.images[id]
	if !ok {
		return
	}
	for _, m := range img.Mips {
		a.ReleaseMipElement(m)
	}
	delete(a.images, id)
}

// LockResources begins a nestable scope in which tile releases are
// queued rather than executed immediately, so tiles are not reused while
// a GPU frame may still reference their pixels. Calls nest; releases run
// only once the outermost UnlockResources call returns.
func (a *ImageAtlas) LockResources() { a.lockDepth++ }

// UnlockResources ends one level of a LockResources scope. On the
// outermost call, every release queued since the matching LockResources
// call executes.
func (a *ImageAtlas) UnlockResources() {
	if a.lockDepth == 0 {
		panic("atlas: UnlockResources called without a matching LockResources")
	}
	a.lockDepth--
	if a.lockDepth > 0 {
		return
	}
	pending := a.pending
	a.pending = nil
	for _, fn := range pending {
		fn()
	}
}

// ExtraColorBackingTexels requests that the next Flush grow the color
// backing by at least n extra texels beyond what is strictly necessary,
// anticipating subsequent offscreen renders.
func (a *ImageAtlas) ExtraColorBackingTexels(n int) {
	if n > a.extraTexels {
		a.extraTexels = n
	}
}

// Flush materializes any slack requested through ExtraColorBackingTexels:
// it eagerly claims and immediately releases enough whole max tiles to
// cover the requested texel count, forcing TileAllocator to grow the
// color backing (new base tiles, and new layers once a layer's grid is
// full) right now rather than lazily on some later caller's Allocate.
// The claimed tiles are released back to the free pool so subsequent
// Allocate calls can use them. Flush reports ErrAtlasFull if the color
// backing has exhausted MaxLayers before the slack request is covered;
// the slack request is cleared regardless, successful or not.
func (a *ImageAtlas) Flush() error {
	n := a.extraTexels
	a.extraTexels = 0
	if n <= 0 {
		return nil
	}

	log2 := a.opts.log2TileSize
	tileTexels := 1 << uint(2*log2)
	tilesNeeded := (n + tileTexels - 1) / tileTexels

	claimed := make([]Tile, 0, tilesNeeded)
	var flushErr error
	for i := 0; i < tilesNeeded; i++ {
		tile, err := a.colorAlloc.Allocate(log2, log2)
		if err != nil {
			flushErr = fmt.Errorf("atlas: flushing %d extra texels: %w", n, ErrAtlasFull)
			break
		}
		claimed = append(claimed, tile)
	}
	for _, tile := range claimed {
		a.colorAlloc.Release(tile)
	}
	return flushErr
}
