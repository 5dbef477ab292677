package texture

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Texture produces a spectral value for a uvw coordinate
type Texture interface {
	Sample(uvw core.Vec3) core.Spectrum
}

// Constant is a texture with a single value everywhere
type Constant struct {
	Value core.Spectrum
}

// NewConstant creates a constant texture
func NewConstant(value core.Spectrum) *Constant {
	return &Constant{Value: value}
}

// Sample returns the constant value
func (t *Constant) Sample(uvw core.Vec3) core.Spectrum {
	return t.Value
}

// Checker alternates two textures on a uv grid
type Checker struct {
	Odd, Even Texture
	UTiles    float64
	VTiles    float64
}

// NewChecker creates a checkerboard with the given tiling
func NewChecker(odd, even Texture, uTiles, vTiles float64) *Checker {
	return &Checker{Odd: odd, Even: even, UTiles: uTiles, VTiles: vTiles}
}

// Sample selects the odd or even texture by uv cell parity
func (t *Checker) Sample(uvw core.Vec3) core.Spectrum {
	iu := int(math.Floor(uvw.X * t.UTiles))
	iv := int(math.Floor(uvw.Y * t.VTiles))
	if (iu+iv)%2 != 0 {
		return t.Odd.Sample(uvw)
	}
	return t.Even.Sample(uvw)
}

// Image is a 2D raster texture sampled bilinearly with wrap addressing. Texel
// (0, 0) is the lower-left corner, matching the frame convention.
type Image struct {
	WidthPx  int
	HeightPx int
	texels   []core.Spectrum // row-major, bottom row first
}

// NewImage creates an image texture from row-major texel data (bottom row
// first). A zero-sized image degrades to black.
func NewImage(widthPx, heightPx int, texels []core.Spectrum) *Image {
	if widthPx <= 0 || heightPx <= 0 || len(texels) < widthPx*heightPx {
		return &Image{WidthPx: 0, HeightPx: 0}
	}
	return &Image{WidthPx: widthPx, HeightPx: heightPx, texels: texels}
}

// Texel returns the raw texel with wrap addressing
func (t *Image) Texel(x, y int) core.Spectrum {
	if t.WidthPx == 0 {
		return core.BlackSpectrum()
	}
	x = wrapIndex(x, t.WidthPx)
	y = wrapIndex(y, t.HeightPx)
	return t.texels[y*t.WidthPx+x]
}

// Sample returns the bilinearly filtered value at uv
func (t *Image) Sample(uvw core.Vec3) core.Spectrum {
	if t.WidthPx == 0 {
		return core.BlackSpectrum()
	}

	fx := uvw.X*float64(t.WidthPx) - 0.5
	fy := uvw.Y*float64(t.HeightPx) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	c00 := t.Texel(x0, y0).MulScalar((1 - dx) * (1 - dy))
	c10 := t.Texel(x0+1, y0).MulScalar(dx * (1 - dy))
	c01 := t.Texel(x0, y0+1).MulScalar((1 - dx) * dy)
	c11 := t.Texel(x0+1, y0+1).MulScalar(dx * dy)
	return c00.Add(c10).Add(c01).Add(c11)
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
