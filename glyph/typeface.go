package glyph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/astral-graphics/astral"
)

// Generator produces glyph content on demand, one glyph index at a
// time, on behalf of a Typeface. A concrete Generator typically wraps
// a parsed font file (see sfnt_generator.go).
//
// Every method takes a thread slot: slot 0 is always the caller's own
// thread (used by FetchGlyph and the serial path of
// FetchGlyphsParallel); slots 1..NumberThreads()-1 are used by
// FetchGlyphsParallel's worker goroutines, each of which must own an
// independent face handle so concurrent generation calls never share
// mutable font-parser state.
type Generator interface {
	NumberGlyphs() int
	NumberThreads() int

	// Scalable reports whether idx is a vector glyph; if so it fills
	// metrics and per-layer paths/fill rules/palette colors. ok is
	// false if idx has no scalable representation.
	Scalable(slot int, idx Index) (metrics Metrics, layers []*astral.Path, fillRules []FillRule, colors []PaletteColor, ok bool)

	// Fixed reports whether idx has a fixed-size (bitmap) strike at
	// the given strike index; if so it fills metrics and pixel data.
	// ok is false once strike exceeds the available strike count.
	Fixed(slot int, idx Index, strike int) (metrics Metrics, width, height int, pixels []byte, ok bool)
}

// Typeface holds a Generator, one face handle's worth of per-thread
// state (owned by the Generator itself, not this type), and a
// fixed-size glyph table indexed by Index.
type Typeface struct {
	gen    Generator
	bodies []Body

	mu sync.Mutex // guards queued-flag bookkeeping during a parallel fetch
}

// NewTypeface builds a Typeface over gen, sized to gen.NumberGlyphs().
func NewTypeface(gen Generator) *Typeface {
	return &Typeface{
		gen:    gen,
		bodies: make([]Body, gen.NumberGlyphs()),
	}
}

// NumberGlyphs returns the size of the glyph table.
func (t *Typeface) NumberGlyphs() int { return len(t.bodies) }

// FetchGlyph returns a locked Handle for idx, generating its content on
// the caller's thread (slot) if this is the first fetch. It panics if
// idx is out of range — an out-of-range index is a caller contract
// violation, not a generator-miss.
func (t *Typeface) FetchGlyph(slot int, idx Index) Handle {
	if int(idx) < 0 || int(idx) >= len(t.bodies) {
		panic("glyph: FetchGlyph index out of range")
	}
	body := &t.bodies[idx]
	if !body.Inited {
		t.generate(slot, idx, body)
	}
	body.LockCount++
	return Handle{body: body}
}

// generate invokes the generator for idx and marks body inited,
// falling back to an empty "warning glyph" body on a generator miss.
func (t *Typeface) generate(slot int, idx Index, body *Body) {
	if metrics, width, height, pixels, ok := t.gen.Fixed(slot, idx, 0); ok {
		body.Metrics = metrics
		strikes := []FixedStrike{{Width: width, Height: height, Pixels: pixels}}
		for s := 1; ; s++ {
			_, w, h, px, ok2 := t.gen.Fixed(slot, idx, s)
			if !ok2 {
				break
			}
			strikes = append(strikes, FixedStrike{Width: w, Height: h, Pixels: px})
		}
		smallest := smallestStrikeIndex(strikes)
		strikes[smallest].Mipmaps = buildMipChain(strikes[smallest])
		body.Strikes = strikes
		body.Inited = true
		return
	}

	if metrics, layers, fillRules, colors, ok := t.gen.Scalable(slot, idx); ok {
		body.Metrics = metrics
		body.Layers = layers
		body.FillRules = fillRules
		body.Colors = colors
		body.Inited = true
		return
	}

	// Generator miss: leave body empty (the warning glyph) but still
	// mark it inited so repeated fetches don't keep re-invoking the
	// generator.
	body.Inited = true
}

func smallestStrikeIndex(strikes []FixedStrike) int {
	best := 0
	for i := range strikes {
		if strikes[i].Width*strikes[i].Height < strikes[best].Width*strikes[best].Height {
			best = i
		}
	}
	return best
}

// FetchGlyphsParallel fetches every index in indices, using up to
// numThreads-1 additional worker goroutines (goroutine 0 is the
// caller), and writes the resulting handles into out (sized and
// ordered to match indices). Duplicate indices are generated once.
//
// Worker i uses thread slot i, matching Generator's face-handle-per-
// slot contract. A worker panic (including one in the caller's own
// slot 0 work) is recovered, and once every worker has joined it is
// returned to the caller as an error, with no handles.
func (t *Typeface) FetchGlyphsParallel(numThreads int, indices []Index) ([]Handle, error) {
	if numThreads < 1 {
		numThreads = 1
	}
	if numThreads > t.gen.NumberThreads() {
		numThreads = t.gen.NumberThreads()
	}
	if numThreads < 1 {
		numThreads = 1
	}

	toFetch := t.dedupeToFetchList(indices)

	if numThreads == 1 || len(toFetch) <= 1 {
		for _, idx := range toFetch {
			body := &t.bodies[idx]
			if !body.Inited {
				t.generate(0, idx, body)
			}
		}
		t.clearQueuedFlags(toFetch)
		return t.lockAll(indices), nil
	}

	var counter atomic.Int64
	var wg sync.WaitGroup
	panics := make(chan any, numThreads)

	worker := func(slot int) {
		defer func() {
			if r := recover(); r != nil {
				panics <- r
			}
		}()
		for {
			i := counter.Add(1) - 1
			if int(i) >= len(toFetch) {
				return
			}
			idx := toFetch[i]
			body := &t.bodies[idx]
			if !body.Inited {
				t.generate(slot, idx, body)
			}
		}
	}
	for slot := 1; slot < numThreads; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			worker(slot)
		}(slot)
	}
	worker(0)
	wg.Wait()
	close(panics)

	t.clearQueuedFlags(toFetch)

	if r, ok := <-panics; ok {
		return nil, fmt.Errorf("glyph: worker panic during parallel fetch: %v", r)
	}

	return t.lockAll(indices), nil
}

// dedupeToFetchList builds the ordered, de-duplicated list of indices
// that actually need generating, marking each Body's queued flag so a
// repeated index in the request list is only scheduled once.
func (t *Typeface) dedupeToFetchList(indices []Index) []Index {
	t.mu.Lock()
	defer t.mu.Unlock()

	toFetch := make([]Index, 0, len(indices))
	for _, idx := range indices {
		body := &t.bodies[idx]
		if body.Inited || body.queued {
			continue
		}
		body.queued = true
		toFetch = append(toFetch, idx)
	}
	return toFetch
}

func (t *Typeface) clearQueuedFlags(toFetch []Index) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, idx := range toFetch {
		t.bodies[idx].queued = false
	}
}

func (t *Typeface) lockAll(indices []Index) []Handle {
	out := make([]Handle, len(indices))
	for i, idx := range indices {
		body := &t.bodies[idx]
		body.LockCount++
		out[i] = Handle{body: body}
	}
	return out
}
