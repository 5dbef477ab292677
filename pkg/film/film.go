package film

import (
	"image"
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// HdrRgbFrame is the developed output: float32 RGB, row-major with the origin
// at the lower-left corner
type HdrRgbFrame struct {
	WidthPx  int
	HeightPx int
	Data     []float32 // 3 components per pixel: R, G, B
}

// NewHdrRgbFrame allocates a zeroed frame
func NewHdrRgbFrame(widthPx, heightPx int) *HdrRgbFrame {
	return &HdrRgbFrame{
		WidthPx:  widthPx,
		HeightPx: heightPx,
		Data:     make([]float32, widthPx*heightPx*3),
	}
}

// Pixel reads the RGB value at (x, y), origin lower-left
func (f *HdrRgbFrame) Pixel(x, y int) core.Spectrum {
	i := (y*f.WidthPx + x) * 3
	return core.NewSpectrum(float64(f.Data[i]), float64(f.Data[i+1]), float64(f.Data[i+2]))
}

// SetPixel writes the RGB value at (x, y)
func (f *HdrRgbFrame) SetPixel(x, y int, value core.Spectrum) {
	i := (y*f.WidthPx + x) * 3
	f.Data[i] = float32(value[0])
	f.Data[i+1] = float32(value[1])
	f.Data[i+2] = float32(value[2])
}

type sensorPixel struct {
	weightedSum core.Spectrum
	weightSum   float64
}

// HdrRgbFilm accumulates filtered radiance samples over an effective window
// (a sub-rect of the full resolution) and develops them into an HDR frame.
// A pixel's value is weightedSum / weightSum; pixels that never received
// weight develop to the configured fallback. Samples carrying NaN or infinite
// radiance are rejected before accumulation.
type HdrRgbFilm struct {
	widthPx  int
	heightPx int
	window   image.Rectangle
	pixels   []sensorPixel
	filter   Filter
	fallback core.Spectrum

	numSamples int64
}

// NewHdrRgbFilm creates a film covering the full resolution
func NewHdrRgbFilm(widthPx, heightPx int, filter Filter) *HdrRgbFilm {
	return NewHdrRgbFilmCropped(widthPx, heightPx, image.Rect(0, 0, widthPx, heightPx), filter)
}

// NewHdrRgbFilmCropped creates a film whose effective window is a sub-rect of
// the full resolution; only pixels inside the window allocate storage
func NewHdrRgbFilmCropped(widthPx, heightPx int, window image.Rectangle, filter Filter) *HdrRgbFilm {
	window = window.Intersect(image.Rect(0, 0, widthPx, heightPx))
	return &HdrRgbFilm{
		widthPx:  widthPx,
		heightPx: heightPx,
		window:   window,
		pixels:   make([]sensorPixel, window.Dx()*window.Dy()),
		filter:   filter,
	}
}

// Resolution returns the full raster dimensions
func (f *HdrRgbFilm) Resolution() (int, int) {
	return f.widthPx, f.heightPx
}

// Window returns the effective window
func (f *HdrRgbFilm) Window() image.Rectangle {
	return f.window
}

// SetFallback configures the value developed for zero-weight pixels
func (f *HdrRgbFilm) SetFallback(value core.Spectrum) {
	f.fallback = value
}

// NumSamples returns the number of accepted samples
func (f *HdrRgbFilm) NumSamples() int64 {
	return f.numSamples
}

// AddSample splats radiance at the continuous raster position (xPx, yPx):
// every window pixel under the filter support accumulates w * radiance and w
func (f *HdrRgbFilm) AddSample(xPx, yPx float64, radiance core.Spectrum) {
	if !radiance.IsFinite() {
		return // reject before accumulation; NaN would poison the pixel
	}

	r := f.filter.Radius()
	x0 := int(math.Ceil(xPx - 0.5 - r))
	x1 := int(math.Floor(xPx - 0.5 + r))
	y0 := int(math.Ceil(yPx - 0.5 - r))
	y1 := int(math.Floor(yPx - 0.5 + r))

	x0 = max(x0, f.window.Min.X)
	y0 = max(y0, f.window.Min.Y)
	x1 = min(x1, f.window.Max.X-1)
	y1 = min(y1, f.window.Max.Y-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			weight := f.filter.Evaluate(float64(x)+0.5-xPx, float64(y)+0.5-yPx)
			if weight <= 0 {
				continue
			}
			p := &f.pixels[f.index(x, y)]
			p.weightedSum = p.weightedSum.Add(radiance.MulScalar(weight))
			p.weightSum += weight
		}
	}
	f.numSamples++
}

func (f *HdrRgbFilm) index(x, y int) int {
	return (y-f.window.Min.Y)*f.window.Dx() + (x - f.window.Min.X)
}

// Develop writes weightedSum / weightSum for every pixel of the requested
// region (clipped to the window) into the frame
func (f *HdrRgbFilm) Develop(frame *HdrRgbFrame, region image.Rectangle) {
	region = region.Intersect(f.window)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			p := &f.pixels[f.index(x, y)]
			if p.weightSum > 0 {
				frame.SetPixel(x, y, p.weightedSum.DivScalar(p.weightSum))
			} else {
				frame.SetPixel(x, y, f.fallback)
			}
		}
	}
}

// GenChild creates a film covering exactly the given region, for per-worker
// accumulation. The child shares resolution, filter and fallback.
func (f *HdrRgbFilm) GenChild(region image.Rectangle) *HdrRgbFilm {
	child := NewHdrRgbFilmCropped(f.widthPx, f.heightPx, region.Intersect(f.window), f.filter)
	child.fallback = f.fallback
	return child
}

// MergeWith adds the other film's sensor pairs element-wise over the window
// overlap. The main film must only be merged under the renderer mutex.
func (f *HdrRgbFilm) MergeWith(other *HdrRgbFilm) {
	overlap := f.window.Intersect(other.window)
	for y := overlap.Min.Y; y < overlap.Max.Y; y++ {
		for x := overlap.Min.X; x < overlap.Max.X; x++ {
			src := &other.pixels[other.index(x, y)]
			dst := &f.pixels[f.index(x, y)]
			dst.weightedSum = dst.weightedSum.Add(src.weightedSum)
			dst.weightSum += src.weightSum
		}
	}
	f.numSamples += other.numSamples
}

// Clear resets all sensor pairs
func (f *HdrRgbFilm) Clear() {
	for i := range f.pixels {
		f.pixels[i] = sensorPixel{}
	}
	f.numSamples = 0
}
