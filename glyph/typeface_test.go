package glyph

import (
	"sync/atomic"
	"testing"

	"github.com/astral-graphics/astral"
)

// countingGenerator is a Generator test double that records how many
// times each glyph index has been generated, so tests can assert
// fetch_glyphs_parallel's "exactly one generation call per index"
// invariant.
type countingGenerator struct {
	numGlyphs  int
	numThreads int
	calls      []atomic.Int32
}

func newCountingGenerator(numGlyphs, numThreads int) *countingGenerator {
	return &countingGenerator{
		numGlyphs:  numGlyphs,
		numThreads: numThreads,
		calls:      make([]atomic.Int32, numGlyphs),
	}
}

func (g *countingGenerator) NumberGlyphs() int  { return g.numGlyphs }
func (g *countingGenerator) NumberThreads() int { return g.numThreads }

func (g *countingGenerator) Scalable(slot int, idx Index) (Metrics, []*astral.Path, []FillRule, []PaletteColor, bool) {
	g.calls[idx].Add(1)
	p := astral.NewPath()
	p.AddRect(0, 0, 1, 1)
	return Metrics{AdvanceX: 10}, []*astral.Path{p}, []FillRule{FillRuleNonZero}, nil, true
}

func (g *countingGenerator) Fixed(slot int, idx Index, strike int) (Metrics, int, int, []byte, bool) {
	return Metrics{}, 0, 0, nil, false
}

func TestFetchGlyphIncrementsLockAndCachesBody(t *testing.T) {
	gen := newCountingGenerator(4, 2)
	tf := NewTypeface(gen)

	h1 := tf.FetchGlyph(0, 2)
	h2 := tf.FetchGlyph(0, 2)

	if h1.Body() != h2.Body() {
		t.Fatal("expected repeated fetches of the same index to return the same body")
	}
	if gen.calls[2].Load() != 1 {
		t.Fatalf("expected exactly 1 generation call, got %d", gen.calls[2].Load())
	}
	if h1.Body().LockCount != 2 {
		t.Fatalf("expected lock count 2, got %d", h1.Body().LockCount)
	}

	h1.Release()
	if h1.Body().LockCount != 1 {
		t.Fatalf("expected lock count 1 after release, got %d", h1.Body().LockCount)
	}
}

func TestFetchGlyphGeneratedBodyIsNotEmpty(t *testing.T) {
	gen := newCountingGenerator(1, 1)
	tf := NewTypeface(gen)
	h := tf.FetchGlyph(0, 0)
	if h.Body().Empty() {
		t.Fatal("countingGenerator always reports ok=true; body should not be empty")
	}
}

func TestFetchGlyphsParallelGeneratesEachIndexOnce(t *testing.T) {
	const numGlyphs = 50
	gen := newCountingGenerator(numGlyphs, 8)
	tf := NewTypeface(gen)

	indices := make([]Index, 0, numGlyphs*2)
	for i := 0; i < numGlyphs; i++ {
		indices = append(indices, Index(i), Index(i)) // each index requested twice
	}

	handles, err := tf.FetchGlyphsParallel(8, indices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handles) != len(indices) {
		t.Fatalf("expected %d handles, got %d", len(indices), len(handles))
	}

	for i := 0; i < numGlyphs; i++ {
		if got := gen.calls[i].Load(); got != 1 {
			t.Fatalf("index %d: expected exactly 1 generation call, got %d", i, got)
		}
	}

	for i := 0; i < numGlyphs; i++ {
		a, b := handles[2*i], handles[2*i+1]
		if a.Body() != b.Body() {
			t.Fatalf("index %d: expected both requested handles to share a body", i)
		}
	}
}

type panickingGenerator struct{ countingGenerator }

func (g *panickingGenerator) Scalable(slot int, idx Index) (Metrics, []*astral.Path, []FillRule, []PaletteColor, bool) {
	if idx == 3 {
		panic("boom")
	}
	return g.countingGenerator.Scalable(slot, idx)
}

func TestFetchGlyphsParallelSurfacesWorkerPanic(t *testing.T) {
	gen := &panickingGenerator{countingGenerator: *newCountingGenerator(10, 4)}
	tf := NewTypeface(gen)

	indices := make([]Index, 10)
	for i := range indices {
		indices[i] = Index(i)
	}

	_, err := tf.FetchGlyphsParallel(4, indices)
	if err == nil {
		t.Fatal("expected worker panic to surface as an error")
	}
}
