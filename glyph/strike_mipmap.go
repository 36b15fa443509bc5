package glyph

import (
	"image"

	"golang.org/x/image/draw"
)

// boxFilter is a box (nearest-neighbor-average) resampling kernel: it
// weights every source sample inside half a destination-pixel's width
// equally and nothing outside it, which is exactly mip-chain box
// averaging rather than a smooth interpolation like BiLinear/CatmullRom.
var boxFilter = draw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		if t < -0.5 || t > 0.5 {
			return 0
		}
		return 1
	},
}

// buildMipChain halves strike's dimensions repeatedly via sRGB box
// averaging until reaching a 1x1 level, returning the chain from
// largest-child to smallest (strike itself is not included).
func buildMipChain(strike FixedStrike) []FixedStrike {
	if strike.Width <= 1 && strike.Height <= 1 {
		return nil
	}

	var chain []FixedStrike
	src := strikeToRGBA(strike)
	for src.Bounds().Dx() > 1 || src.Bounds().Dy() > 1 {
		nw := max(1, src.Bounds().Dx()/2)
		nh := max(1, src.Bounds().Dy()/2)
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		boxFilter.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

		chain = append(chain, FixedStrike{Width: nw, Height: nh, Pixels: dst.Pix})
		src = dst
	}
	return chain
}

func strikeToRGBA(s FixedStrike) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	copy(img.Pix, s.Pixels)
	return img
}
