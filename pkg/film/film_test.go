package film

import (
	"image"
	"math"
	"testing"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

func TestHdrRgbFilm_BoxFilterAccumulation(t *testing.T) {
	f := NewHdrRgbFilm(4, 4, NewBoxFilter(0.5))

	// Two samples into the center of pixel (1, 2)
	f.AddSample(1.5, 2.5, core.NewSpectrum(1, 0, 0))
	f.AddSample(1.5, 2.5, core.NewSpectrum(0, 1, 0))

	frame := NewHdrRgbFrame(4, 4)
	f.Develop(frame, f.Window())

	got := frame.Pixel(1, 2)
	want := core.NewSpectrum(0.5, 0.5, 0)
	for c := 0; c < core.SpectrumSize; c++ {
		if math.Abs(got[c]-want[c]) > 1e-6 {
			t.Errorf("pixel value: got %v, want %v", got, want)
		}
	}

	// Untouched pixels develop to the (zero) fallback
	if !frame.Pixel(0, 0).IsZero() {
		t.Error("untouched pixel not zero")
	}
}

func TestHdrRgbFilm_RejectsNonFiniteSamples(t *testing.T) {
	f := NewHdrRgbFilm(2, 2, NewBoxFilter(0.5))

	f.AddSample(0.5, 0.5, core.NewSpectrum(math.NaN(), 1, 1))
	f.AddSample(0.5, 0.5, core.NewSpectrum(math.Inf(1), 1, 1))
	if f.NumSamples() != 0 {
		t.Errorf("non-finite samples accepted: %d", f.NumSamples())
	}

	f.AddSample(0.5, 0.5, core.NewSpectrum(2, 2, 2))
	frame := NewHdrRgbFrame(2, 2)
	f.Develop(frame, f.Window())

	got := frame.Pixel(0, 0)
	if got != core.NewSpectrum(2, 2, 2) {
		t.Errorf("pixel after NaN rejection: got %v", got)
	}
	for _, v := range frame.Data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatal("developed frame contains non-finite values")
		}
	}
}

func TestHdrRgbFilm_ZeroWeightFallback(t *testing.T) {
	f := NewHdrRgbFilm(2, 2, NewBoxFilter(0.5))
	f.SetFallback(core.NewSpectrum(0.25, 0.5, 0.75))

	frame := NewHdrRgbFrame(2, 2)
	f.Develop(frame, f.Window())
	if got := frame.Pixel(1, 1); got != core.NewSpectrum(0.25, 0.5, 0.75) {
		t.Errorf("fallback: got %v", got)
	}
}

func TestHdrRgbFilm_ChildMergeEquivalence(t *testing.T) {
	direct := NewHdrRgbFilm(8, 8, NewGaussianFilter(1.0, 4.0))
	merged := NewHdrRgbFilm(8, 8, NewGaussianFilter(1.0, 4.0))

	region := image.Rect(2, 2, 6, 6)
	child := merged.GenChild(region)
	if child.Window() != region {
		t.Fatalf("child window: got %v, want %v", child.Window(), region)
	}

	// Same samples into the full film and into the child; samples whose
	// filter support crosses the region boundary clip differently, so keep
	// them inside radius distance of the border.
	samples := []struct {
		x, y float64
		v    core.Spectrum
	}{
		{3.5, 3.5, core.NewSpectrum(1, 2, 3)},
		{4.2, 4.8, core.NewSpectrum(0.5, 0.25, 0)},
		{3.1, 4.9, core.NewSpectrum(2, 0, 1)},
	}
	for _, s := range samples {
		direct.AddSample(s.x, s.y, s.v)
		child.AddSample(s.x, s.y, s.v)
	}
	merged.MergeWith(child)

	frameA := NewHdrRgbFrame(8, 8)
	frameB := NewHdrRgbFrame(8, 8)
	direct.Develop(frameA, region)
	merged.Develop(frameB, region)

	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			a := frameA.Pixel(x, y)
			b := frameB.Pixel(x, y)
			for c := 0; c < core.SpectrumSize; c++ {
				if math.Abs(a[c]-b[c]) > 1e-6 {
					t.Fatalf("pixel (%d,%d): direct %v vs merged %v", x, y, a, b)
				}
			}
		}
	}
}

func TestHdrRgbFilm_MergeIsAdditive(t *testing.T) {
	a := NewHdrRgbFilm(4, 4, NewBoxFilter(0.5))
	b := NewHdrRgbFilm(4, 4, NewBoxFilter(0.5))

	a.AddSample(1.5, 1.5, core.NewSpectrum(1, 1, 1))
	b.AddSample(1.5, 1.5, core.NewSpectrum(3, 3, 3))
	a.MergeWith(b)

	frame := NewHdrRgbFrame(4, 4)
	a.Develop(frame, a.Window())
	if got := frame.Pixel(1, 1); math.Abs(got[0]-2.0) > 1e-6 {
		t.Errorf("merged mean: got %v, want (2,2,2)", got)
	}
}

func TestFilters(t *testing.T) {
	box := NewBoxFilter(0.5)
	if box.Evaluate(0.4, -0.4) != 1 || box.Evaluate(0.6, 0) != 0 {
		t.Error("box filter support wrong")
	}

	gauss := NewGaussianFilter(1.5, 2.0)
	if gauss.Evaluate(0, 0) <= gauss.Evaluate(1, 0) {
		t.Error("gaussian not decreasing")
	}
	if gauss.Evaluate(1.6, 0) != 0 {
		t.Error("gaussian support not truncated")
	}

	bh := NewBlackmanHarrisFilter(1.5)
	if bh.Evaluate(0, 0) <= 0 {
		t.Error("blackman-harris center weight not positive")
	}
	if bh.Evaluate(2, 0) != 0 {
		t.Error("blackman-harris support not truncated")
	}
	if bh.Evaluate(0, 0) <= bh.Evaluate(1.2, 0) {
		t.Error("blackman-harris not decreasing toward the edge")
	}
}
