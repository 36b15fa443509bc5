package atlas

// Region is an arbitrary w x h rectangle realised as a tight union of
// power-of-two tiles, all within a single layer and contiguous, with no
// T-junctions between them.
type Region struct {
	Layer   int
	X, Y    int
	W, H    int
	Tiles   []Tile
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	log := 0
	v := 1
	for v < n {
		v <<= 1
		log++
	}
	return log
}

// AllocateRegion allocates a Region of exactly w x h texels: a tile of
// (ceil_log2(w), ceil_log2(h)) is allocated, split in the x-direction to
// a strip of width exactly w (unused halves return to free lists), then
// each resulting strip is split in the y-direction to height exactly h.
func (a *TileAllocator) AllocateRegion(w, h int) (Region, error) {
	if w <= 0 || h <= 0 {
		panic("atlas: AllocateRegion requires positive dimensions")
	}
	logW := ceilLog2(w)
	logH := ceilLog2(h)
	if logW > a.maxLogW || logH > a.maxLogH {
		panic("atlas: AllocateRegion dimensions exceed the max tile size")
	}

	root, err := a.Allocate(logW, logH)
	if err != nil {
		return Region{}, err
	}

	xStrips := a.splitAlong(root.node, axisX, w)

	var tiles []Tile
	for _, strip := range xStrips {
		pieces := a.splitAlong(strip, axisY, h)
		for _, p := range pieces {
			n := a.nodes[p]
			tiles = append(tiles, Tile{LogW: n.logW, LogH: n.logH, X: n.x, Y: n.y, Layer: n.layer, node: p})
		}
	}

	return Region{Layer: root.Layer, X: root.X, Y: root.Y, W: w, H: h, Tiles: tiles}, nil
}

// splitAlong recursively halves node along axis until the union of the
// returned leaf node indices spans exactly targetLen along that axis,
// starting at node's current origin. Discarded halves are returned to
// their free list.
func (a *TileAllocator) splitAlong(node, axis, targetLen int) []int {
	n := a.nodes[node]
	var full int
	if axis == axisX {
		full = 1 << uint(n.logW)
	} else {
		full = 1 << uint(n.logH)
	}
	if targetLen == full {
		return []int{node}
	}

	c0, c1 := a.splitTile(node, axis)
	half := full / 2
	if targetLen <= half {
		a.insertFree(c1)
		return a.splitAlong(c0, axis, targetLen)
	}
	rest := a.splitAlong(c1, axis, targetLen-half)
	return append([]int{c0}, rest...)
}

// ReleaseRegion releases every tile of a previously allocated Region.
func (a *TileAllocator) ReleaseRegion(r Region) {
	for _, t := range r.Tiles {
		a.Release(t)
	}
}
