// Package atlas implements the 1-D and 2-D offline allocators and the
// tiled image atlas built on top of them. The package is self-contained:
// it has no dependency on the root astral package, since an atlas is a
// resource a Path or Contour never reaches into directly.
package atlas

import "sort"

// ErrIntervalTooLarge is returned by Allocate when no layer has a free
// interval large enough to satisfy the request.
var ErrIntervalTooLarge = errIntervalTooLarge{}

type errIntervalTooLarge struct{}

func (errIntervalTooLarge) Error() string { return "atlas: no free interval large enough" }

// Interval identifies an allocated 1-D span within one layer of an
// IntervalAllocator. The zero value is not a valid Interval; only values
// returned by Allocate may be passed to Release.
type Interval struct {
	Layer  int
	Start  int
	Length int

	node int
}

type intervalNode struct {
	layer  int
	start  int
	length int
	free   bool

	prev, next int // arena indices, -1 for none
	posInFree  int // index of this node within freeBySize[length], valid iff free
	live       bool
}

// IntervalAllocator packs variable-length 1-D intervals across a fixed
// number of layers, each of a common, monotonically extensible length.
//
// IntervalAllocator is not safe for concurrent use.
type IntervalAllocator struct {
	nodes      []intervalNode
	layerHead  []int // index of the leftmost node of each layer
	layerTail  []int // index of the rightmost node of each layer
	length     int   // current length of every layer
	freeBySize map[int][]int
	freeSizes  []int // sorted ascending, unique sizes present in freeBySize with len>0
}

// NewIntervalAllocator creates an allocator with the given number of
// layers, each of the given length. length and numLayers may be zero, in
// which case NumberLayers/LayerLength must be used to grow the allocator
// before any interval can be allocated.
func NewIntervalAllocator(length, numLayers int) *IntervalAllocator {
	a := &IntervalAllocator{
		freeBySize: make(map[int][]int),
	}
	a.length = length
	for i := 0; i < numLayers; i++ {
		a.addLayer()
	}
	return a
}

func (a *IntervalAllocator) addLayer() {
	layer := len(a.layerHead)
	idx := a.newNode(layer, 0, a.length, true)
	a.layerHead = append(a.layerHead, idx)
	a.layerTail = append(a.layerTail, idx)
	if a.length > 0 {
		a.insertFree(idx)
	}
}

func (a *IntervalAllocator) newNode(layer, start, length int, free bool) int {
	n := intervalNode{layer: layer, start: start, length: length, free: free, prev: -1, next: -1, live: true}
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

func (a *IntervalAllocator) insertFree(idx int) {
	size := a.nodes[idx].length
	list := a.freeBySize[size]
	a.nodes[idx].posInFree = len(list)
	a.nodes[idx].free = true
	list = append(list, idx)
	a.freeBySize[size] = list
	if len(list) == 1 {
		i := sort.SearchInts(a.freeSizes, size)
		a.freeSizes = append(a.freeSizes, 0)
		copy(a.freeSizes[i+1:], a.freeSizes[i:])
		a.freeSizes[i] = size
	}
}

func (a *IntervalAllocator) removeFree(idx int) {
	size := a.nodes[idx].length
	list := a.freeBySize[size]
	pos := a.nodes[idx].posInFree
	last := len(list) - 1
	list[pos] = list[last]
	a.nodes[list[pos]].posInFree = pos
	list = list[:last]
	a.freeBySize[size] = list
	a.nodes[idx].free = false
	if len(list) == 0 {
		delete(a.freeBySize, size)
		i := sort.SearchInts(a.freeSizes, size)
		a.freeSizes = append(a.freeSizes[:i], a.freeSizes[i+1:]...)
	}
}

// Allocate returns an Interval of exactly size, taken from the smallest
// free interval of size >= size across all layers. It returns
// ErrIntervalTooLarge if no layer has enough room.
//
// Allocate(0) panics: allocating a zero-length interval is a programming
// error.
func (a *IntervalAllocator) Allocate(size int) (Interval, error) {
	if size <= 0 {
		panic("atlas: IntervalAllocator.Allocate requires size > 0")
	}
	i := sort.SearchInts(a.freeSizes, size)
	if i == len(a.freeSizes) {
		return Interval{}, ErrIntervalTooLarge
	}
	foundSize := a.freeSizes[i]
	list := a.freeBySize[foundSize]
	nodeIdx := list[len(list)-1]
	a.removeFree(nodeIdx)

	node := &a.nodes[nodeIdx]
	if foundSize == size {
		return Interval{Layer: node.layer, Start: node.start, Length: node.length, node: nodeIdx}, nil
	}

	remainderIdx := a.newNode(node.layer, node.start+size, foundSize-size, true)
	a.nodes[remainderIdx].prev = nodeIdx
	a.nodes[remainderIdx].next = a.nodes[nodeIdx].next
	if a.nodes[nodeIdx].next != -1 {
		a.nodes[a.nodes[nodeIdx].next].prev = remainderIdx
	} else {
		a.layerTail[node.layer] = remainderIdx
	}
	a.nodes[nodeIdx].next = remainderIdx
	a.nodes[nodeIdx].length = size
	a.insertFree(remainderIdx)

	return Interval{Layer: a.nodes[nodeIdx].layer, Start: a.nodes[nodeIdx].start, Length: size, node: nodeIdx}, nil
}

// Release returns iv to the free pool, coalescing with free neighbours on
// either side.
func (a *IntervalAllocator) Release(iv Interval) {
	idx := iv.node
	node := &a.nodes[idx]
	node.free = true

	if prev := node.prev; prev != -1 && a.nodes[prev].free {
		a.removeFree(prev)
		pn := &a.nodes[prev]
		node.start = pn.start
		node.length += pn.length
		node.prev = pn.prev
		if node.prev != -1 {
			a.nodes[node.prev].next = idx
		} else {
			a.layerHead[node.layer] = idx
		}
		pn.live = false
	}
	if next := node.next; next != -1 && a.nodes[next].free {
		a.removeFree(next)
		nn := &a.nodes[next]
		node.length += nn.length
		node.next = nn.next
		if node.next != -1 {
			a.nodes[node.next].prev = idx
		} else {
			a.layerTail[node.layer] = idx
		}
		nn.live = false
	}

	a.insertFree(idx)
}

// LayerLength extends every layer's length to newLength. newLength must
// be >= the current length.
func (a *IntervalAllocator) LayerLength(newLength int) {
	if newLength < a.length {
		panic("atlas: IntervalAllocator.LayerLength does not support shrinking")
	}
	delta := newLength - a.length
	a.length = newLength
	if delta == 0 {
		return
	}
	for layer, tail := range a.layerTail {
		_ = layer
		if a.nodes[tail].free {
			if a.nodes[tail].length > 0 {
				a.removeFree(tail)
			}
			a.nodes[tail].length += delta
			a.insertFree(tail)
		} else {
			idx := a.newNode(a.nodes[tail].layer, a.nodes[tail].start+a.nodes[tail].length, delta, true)
			a.nodes[idx].prev = tail
			a.nodes[tail].next = idx
			a.layerTail[a.nodes[tail].layer] = idx
			a.insertFree(idx)
		}
	}
}

// NumberLayers extends the allocator to newLayers layers. newLayers must
// be >= the current number of layers. New layers start fully free.
func (a *IntervalAllocator) NumberLayers(newLayers int) {
	if newLayers < len(a.layerHead) {
		panic("atlas: IntervalAllocator.NumberLayers does not support shrinking")
	}
	for len(a.layerHead) < newLayers {
		a.addLayer()
	}
}

// NumLayers returns the current number of layers.
func (a *IntervalAllocator) NumLayers() int { return len(a.layerHead) }

// Length returns the current common layer length.
func (a *IntervalAllocator) Length() int { return a.length }

// Check walks every layer verifying the gap-free, no-adjacent-free-pair
// invariant. It is intended for use from tests.
func (a *IntervalAllocator) Check() error {
	for layer, head := range a.layerHead {
		pos := 0
		idx := head
		var prevFree bool
		first := true
		for idx != -1 {
			n := a.nodes[idx]
			if n.start != pos {
				return errGapf(layer, pos, n.start)
			}
			if !first && prevFree && n.free {
				return errAdjacentFree(layer)
			}
			pos += n.length
			prevFree = n.free
			first = false
			idx = n.next
		}
		if pos != a.length {
			return errGapf(layer, pos, a.length)
		}
	}
	return nil
}

type checkError struct{ msg string }

func (e checkError) Error() string { return e.msg }

func errGapf(layer, got, want int) error {
	return checkError{msg: "atlas: interval allocator layer has a gap or overlap"}
}
func errAdjacentFree(layer int) error {
	return checkError{msg: "atlas: interval allocator has adjacent uncoalesced free intervals"}
}
