package atlas

import "sort"

// ErrTilesExhausted is returned when every max-tile position
// (numTilesX * numTilesY * numLayers) has already been claimed and no
// further allocation, of any size, can be satisfied.
var ErrTilesExhausted = errTilesExhausted{}

type errTilesExhausted struct{}

func (errTilesExhausted) Error() string { return "atlas: tile allocator has no remaining max tiles" }

const (
	axisX = 0
	axisY = 1
)

// Tile identifies an allocated power-of-two rectangle of a TileAllocator.
// The zero value is not valid; only values returned by Allocate may be
// passed to Release.
type Tile struct {
	LogW, LogH int
	X, Y       int
	Layer      int

	node int
}

// Width returns 1<<LogW.
func (t Tile) Width() int { return 1 << t.LogW }

// Height returns 1<<LogH.
func (t Tile) Height() int { return 1 << t.LogH }

type tileNode struct {
	logW, logH int
	x, y       int
	layer      int

	parent     int
	children   [2]int
	childIndex int

	free      bool
	posInFree int
	live      bool
}

// TileAllocator allocates 2-D power-of-two sub-tiles from a grid of
// max-tile positions of size 2^maxLogW x 2^maxLogH, spread across
// numTilesX * numTilesY * numLayers positions.
//
// TileAllocator is not safe for concurrent use.
type TileAllocator struct {
	maxLogW, maxLogH int
	numTilesX        int
	numTilesY        int
	numLayers        int

	nodes []tileNode

	// freeByBucket[w][h] holds free leaf node indices of size (1<<w, 1<<h).
	freeByBucket [][][]int

	// order[w][h] is a precomputed list of (i, j) bucket coordinates with
	// i >= w, j >= h, ordered tightest-fit first: key (min(i,j), i+j).
	order [][][][2]int

	nextTX, nextTY, nextLayer int
}

// NewTileAllocator creates an allocator whose max tiles are
// 2^maxLogW x 2^maxLogH, with room for numTilesX * numTilesY max-tile
// positions per layer across numLayers layers.
func NewTileAllocator(maxLogW, maxLogH, numTilesX, numTilesY, numLayers int) *TileAllocator {
	a := &TileAllocator{
		maxLogW:   maxLogW,
		maxLogH:   maxLogH,
		numTilesX: numTilesX,
		numTilesY: numTilesY,
		numLayers: numLayers,
	}
	a.freeByBucket = make([][][]int, maxLogW+1)
	for w := range a.freeByBucket {
		a.freeByBucket[w] = make([][]int, maxLogH+1)
	}
	a.buildOrder()
	return a
}

func (a *TileAllocator) buildOrder() {
	a.order = make([][][][2]int, a.maxLogW+1)
	for w := 0; w <= a.maxLogW; w++ {
		a.order[w] = make([][][2]int, a.maxLogH+1)
		for h := 0; h <= a.maxLogH; h++ {
			var candidates [][2]int
			for i := w; i <= a.maxLogW; i++ {
				for j := h; j <= a.maxLogH; j++ {
					candidates = append(candidates, [2]int{i, j})
				}
			}
			sort.Slice(candidates, func(x, y int) bool {
				cx, cy := candidates[x], candidates[y]
				minX, minY := min(cx[0], cx[1]), min(cy[0], cy[1])
				if minX != minY {
					return minX < minY
				}
				return cx[0]+cx[1] < cy[0]+cy[1]
			})
			a.order[w][h] = candidates
		}
	}
}

func (a *TileAllocator) newNode(logW, logH, x, y, layer, parent, childIndex int) int {
	n := tileNode{
		logW: logW, logH: logH, x: x, y: y, layer: layer,
		parent: parent, children: [2]int{-1, -1}, childIndex: childIndex,
		live: true,
	}
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

func (a *TileAllocator) insertFree(idx int) {
	n := &a.nodes[idx]
	n.free = true
	list := a.freeByBucket[n.logW][n.logH]
	n.posInFree = len(list)
	a.freeByBucket[n.logW][n.logH] = append(list, idx)
}

func (a *TileAllocator) removeFree(idx int) {
	n := &a.nodes[idx]
	n.free = false
	list := a.freeByBucket[n.logW][n.logH]
	pos := n.posInFree
	last := len(list) - 1
	list[pos] = list[last]
	a.nodes[list[pos]].posInFree = pos
	a.freeByBucket[n.logW][n.logH] = list[:last]
}

func (a *TileAllocator) createBaseTile() (int, error) {
	if a.nextLayer >= a.numLayers {
		return -1, ErrTilesExhausted
	}
	tx, ty, layer := a.nextTX, a.nextTY, a.nextLayer
	idx := a.newNode(a.maxLogW, a.maxLogH, tx<<uint(a.maxLogW), ty<<uint(a.maxLogH), layer, -1, 0)

	a.nextTX++
	if a.nextTX >= a.numTilesX {
		a.nextTX = 0
		a.nextTY++
		if a.nextTY >= a.numTilesY {
			a.nextTY = 0
			a.nextLayer++
		}
	}
	return idx, nil
}

// splitTile splits node in two along axis, returning (minCorner, maxCorner).
// Neither child is inserted into a free list; the caller decides.
func (a *TileAllocator) splitTile(node, axis int) (int, int) {
	n := a.nodes[node]
	var c0, c1 int
	if axis == axisX {
		half := n.logW - 1
		size := 1 << uint(half)
		c0 = a.newNode(half, n.logH, n.x, n.y, n.layer, node, 0)
		c1 = a.newNode(half, n.logH, n.x+size, n.y, n.layer, node, 1)
	} else {
		half := n.logH - 1
		size := 1 << uint(half)
		c0 = a.newNode(n.logW, half, n.x, n.y, n.layer, node, 0)
		c1 = a.newNode(n.logW, half, n.x, n.y+size, n.layer, node, 1)
	}
	a.nodes[node].children = [2]int{c0, c1}
	return c0, c1
}

// Allocate returns a Tile of exactly 2^logW x 2^logH. It returns
// ErrTilesExhausted if no tile of any acceptable size exists and the
// max-tile grid is exhausted.
func (a *TileAllocator) Allocate(logW, logH int) (Tile, error) {
	if logW < 0 || logH < 0 || logW > a.maxLogW || logH > a.maxLogH {
		panic("atlas: TileAllocator.Allocate size out of range")
	}

	cur := -1
	for _, cand := range a.order[logW][logH] {
		list := a.freeByBucket[cand[0]][cand[1]]
		if len(list) > 0 {
			cur = list[len(list)-1]
			a.removeFree(cur)
			break
		}
	}
	if cur == -1 {
		var err error
		cur, err = a.createBaseTile()
		if err != nil {
			return Tile{}, err
		}
	}

	for a.nodes[cur].logH > logH {
		c0, c1 := a.splitTile(cur, axisY)
		a.insertFree(c1)
		cur = c0
	}
	for a.nodes[cur].logW > logW {
		c0, c1 := a.splitTile(cur, axisX)
		a.insertFree(c1)
		cur = c0
	}

	n := a.nodes[cur]
	return Tile{LogW: n.logW, LogH: n.logH, X: n.x, Y: n.y, Layer: n.layer, node: cur}, nil
}

// Release returns t to the free pool, recursively coalescing with its
// sibling whenever that sibling is also free.
func (a *TileAllocator) Release(t Tile) {
	cur := t.node
	for {
		a.insertFree(cur)
		parent := a.nodes[cur].parent
		if parent == -1 {
			return
		}
		sibIdx := 1 - a.nodes[cur].childIndex
		sib := a.nodes[parent].children[sibIdx]
		if !a.nodes[sib].free {
			return
		}
		a.removeFree(cur)
		a.removeFree(sib)
		a.nodes[sib].live = false
		a.nodes[cur].live = false
		a.nodes[parent].children = [2]int{-1, -1}
		cur = parent
	}
}

// Check verifies that no free tile currently has a free sibling, i.e.
// that coalescing ran to completion. Intended for use from tests.
func (a *TileAllocator) Check() error {
	for _, n := range a.nodes {
		if !n.live || !n.free || n.parent == -1 {
			continue
		}
		sibIdx := 1 - n.childIndex
		sib := a.nodes[n.parent].children[sibIdx]
		if sib != -1 && a.nodes[sib].live && a.nodes[sib].free {
			return checkError{msg: "atlas: tile allocator has uncoalesced free siblings"}
		}
	}
	return nil
}

// FreeTileCount returns the number of currently free leaf tiles, summed
// across all buckets. Intended for use from tests.
func (a *TileAllocator) FreeTileCount() int {
	n := 0
	for _, row := range a.freeByBucket {
		for _, list := range row {
			n += len(list)
		}
	}
	return n
}
