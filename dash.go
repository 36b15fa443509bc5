package astral

import "math"

// LengthAdjustMode selects how a DashPattern's drawn/skipped lengths
// are nudged so a contour's dash pattern ends exactly on a seam,
// mirroring the teacher's NewDash "normalize to an even pattern"
// philosophy but generalized to the three shader-side behaviours.
type LengthAdjustMode int

const (
	NoLengthAdjust LengthAdjustMode = iota
	LengthAdjustCompress
	LengthAdjustStretch
)

// Dash pattern header flag bits, OR-combined in the packed [+1].W lane.
const (
	flagNoLengthAdjust       = 0
	flagLengthAdjustCompress = 1
	flagLengthAdjustStretch  = 2
	flagStrokeStartsAtEdge   = 4
	flagAdjustXZLengths      = 8
	flagAdjustYWLengths      = 16
)

// DashPattern describes a repeating draw/skip interval sequence applied
// along a stroked contour, plus the adjustment and corner-rounding
// options that control how it meets contour ends and corners.
//
// Following NewDash's lead, lengths are supplied as an alternating
// draw/skip sequence and an odd-length sequence is logically
// duplicated; internally, though, draws and skips are stored signed
// (positive = draw, negative = skip) per the packed header's own
// convention, rather than as a separate parity bit.
type DashPattern struct {
	intervals       []float64
	startOffset     float64
	adjustMode      LengthAdjustMode
	strokeAtEdge    bool
	cornerRadius    float64
	adjustXZLengths bool
	adjustYWLengths bool
}

// NewDashPattern builds a dash pattern from alternating draw/skip
// lengths (e.g. NewDashPattern(5, 3) draws 5 units then skips 3). An
// odd-length sequence is duplicated, matching NewDash. Returns nil if
// no lengths are given or all are zero.
func NewDashPattern(lengths ...float64) *DashPattern {
	if len(lengths) == 0 {
		return nil
	}
	allZero := true
	for _, l := range lengths {
		if l > 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil
	}

	effective := lengths
	if len(lengths)%2 != 0 {
		effective = make([]float64, 0, len(lengths)*2)
		effective = append(effective, lengths...)
		effective = append(effective, lengths...)
	}

	intervals := make([]float64, len(effective))
	for i, l := range effective {
		v := math.Abs(l)
		if i%2 == 1 {
			v = -v
		}
		intervals[i] = v
	}
	return &DashPattern{intervals: intervals}
}

// WithStartOffset returns a copy of dp that begins dash_start_offset
// units into the pattern.
func (dp *DashPattern) WithStartOffset(offset float64) *DashPattern {
	c := *dp
	c.startOffset = offset
	return &c
}

// WithAdjustMode returns a copy of dp using the given length-adjustment
// behaviour.
func (dp *DashPattern) WithAdjustMode(mode LengthAdjustMode) *DashPattern {
	c := *dp
	c.adjustMode = mode
	return &c
}

// WithCornerRadius returns a copy of dp that rounds dash-cap corners by
// radius.
func (dp *DashPattern) WithCornerRadius(radius float64) *DashPattern {
	c := *dp
	c.cornerRadius = radius
	return &c
}

// WithStrokeStartsAtEdge returns a copy of dp that anchors the pattern
// to each contour edge rather than restarting once per contour.
func (dp *DashPattern) WithStrokeStartsAtEdge(v bool) *DashPattern {
	c := *dp
	c.strokeAtEdge = v
	return &c
}

// WithAxisLengthAdjust returns a copy of dp that applies the adjustment
// mode independently to the x/z- and y/w-channel interval sums.
func (dp *DashPattern) WithAxisLengthAdjust(adjustXZ, adjustYW bool) *DashPattern {
	c := *dp
	c.adjustXZLengths = adjustXZ
	c.adjustYWLengths = adjustYW
	return &c
}

// canonicalForm rotates intervals by startOffset and merges any
// same-sign intervals that meet at the resulting seam, producing the
// zero-offset form the shader actually consumes.
func (dp *DashPattern) canonicalForm() []float64 {
	if dp == nil || len(dp.intervals) == 0 {
		return nil
	}
	total := 0.0
	for _, v := range dp.intervals {
		total += math.Abs(v)
	}
	if total <= 0 {
		return nil
	}

	offset := math.Mod(dp.startOffset, total)
	if offset < 0 {
		offset += total
	}

	rotated := rotateIntervals(dp.intervals, offset)
	return mergeSeam(rotated)
}

// rotateIntervals splits the interval sequence at the point offset
// units into its cycle, re-ordering it so the split point becomes
// index 0. A partially-consumed interval at the split is itself split
// in two, preserving its sign on both halves.
func rotateIntervals(intervals []float64, offset float64) []float64 {
	if offset <= 0 {
		return append([]float64(nil), intervals...)
	}
	remaining := offset
	idx := 0
	for remaining > 0 && idx < len(intervals) {
		mag := math.Abs(intervals[idx])
		if remaining < mag {
			break
		}
		remaining -= mag
		idx++
	}
	if idx >= len(intervals) {
		return append([]float64(nil), intervals...)
	}

	result := make([]float64, 0, len(intervals)+1)
	if remaining > 0 {
		sign := math.Copysign(1, intervals[idx])
		tailMag := math.Abs(intervals[idx]) - remaining
		result = append(result, sign*tailMag)
		result = append(result, intervals[idx+1:]...)
		result = append(result, intervals[:idx]...)
		result = append(result, sign*remaining)
	} else {
		result = append(result, intervals[idx:]...)
		result = append(result, intervals[:idx]...)
	}
	return result
}

// mergeSeam combines the first and last interval of a rotated sequence
// when they share a sign, since the shader expects a canonical form
// where draws and skips already strictly alternate from the new start.
func mergeSeam(intervals []float64) []float64 {
	if len(intervals) < 2 {
		return intervals
	}
	first, last := intervals[0], intervals[len(intervals)-1]
	if math.Signbit(first) != math.Signbit(last) {
		return intervals
	}
	merged := make([]float64, 0, len(intervals)-1)
	merged = append(merged, first+last)
	merged = append(merged, intervals[1:len(intervals)-1]...)
	return merged
}

// channelSums splits the canonical interval sequence by packed-lane
// parity: intervals land in gvec4 lanes x,y,z,w in sequence (four per
// block), so the x/z lanes and y/w lanes form two interleaved
// half-rate sums the shader can use without walking every interval.
func channelSums(canon []float64) (sumXZ, sumYW float64) {
	for i, v := range canon {
		if i%2 == 0 {
			sumXZ += v
		} else {
			sumYW += v
		}
	}
	return sumXZ, sumYW
}

func (dp *DashPattern) flags() uint32 {
	var f uint32
	switch dp.adjustMode {
	case LengthAdjustCompress:
		f |= flagLengthAdjustCompress
	case LengthAdjustStretch:
		f |= flagLengthAdjustStretch
	}
	if dp.strokeAtEdge {
		f |= flagStrokeStartsAtEdge
	}
	if dp.adjustXZLengths {
		f |= flagAdjustXZLengths
	}
	if dp.adjustYWLengths {
		f |= flagAdjustYWLengths
	}
	return f
}

// packedSize is the number of gvec4 blocks the header plus interval
// vectors occupy (excludes the stroke base block).
func (dp *DashPattern) packedSize() int {
	canon := dp.canonicalForm()
	return 2 + (len(canon)+3)/4
}

// Pack packs stroke's base descriptor followed by the dash pattern's
// header and interval vectors.
func (dp *DashPattern) Pack(packer ItemDataPacker, stroke StrokeParameters) []GVec4 {
	blocks := make([]GVec4, 0, packer.PackedSize(stroke, dp))
	blocks = append(blocks, packer.PackBase(stroke))

	canon := dp.canonicalForm()
	sumXZ, sumYW := channelSums(canon)

	var first, last float64
	if len(canon) > 0 {
		first = canon[0]
		last = canon[len(canon)-1]
	}

	blocks = append(blocks, GVec4{
		X: float32(sumXZ),
		Y: float32(sumYW),
		Z: float32(dp.cornerRadius),
		W: math.Float32frombits(dp.flags()),
	})
	blocks = append(blocks, GVec4{
		X: 0,
		Y: float32(last),
		Z: float32(first),
		W: math.Float32frombits(uint32(len(canon))),
	})

	for i := 0; i < len(canon); i += 4 {
		var g GVec4
		lanes := [4]*float32{&g.X, &g.Y, &g.Z, &g.W}
		for j := 0; j < 4 && i+j < len(canon); j++ {
			*lanes[j] = float32(canon[i+j])
		}
		blocks = append(blocks, g)
	}
	return blocks
}

// NumIntervals reports the canonical (post-rotation, post-seam-merge)
// interval count.
func (dp *DashPattern) NumIntervals() int {
	return len(dp.canonicalForm())
}
