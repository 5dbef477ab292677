package renderer

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/arvoss/go-pathtracer/pkg/camera"
	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/estimator"
	"github.com/arvoss/go-pathtracer/pkg/film"
	"github.com/arvoss/go-pathtracer/pkg/geometry"
	"github.com/arvoss/go-pathtracer/pkg/optics"
	"github.com/arvoss/go-pathtracer/pkg/scene"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

func bneeptFactory(maxBounces, rrMin int) EstimatorFactory {
	return func() estimator.Estimator { return estimator.NewBneept(maxBounces, rrMin) }
}

func TestRender_EmptySceneDevelopsBlack(t *testing.T) {
	cam := camera.NewPinhole(
		core.NewVec3(0, 0, 3), core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0),
		math.Pi/4, 64, 64)
	empty := scene.Cook(scene.Description{Camera: cam, Accel: scene.AccelBvh})

	cfg := DefaultConfig(64, 64, 4)
	cfg.NumWorkers = 2
	cfg.Filter = film.NewBoxFilter(0.5)
	driver := New(cfg, bneeptFactory(8, 3), testLogger{})

	if err := driver.Update(empty); err != nil {
		t.Fatal(err)
	}
	if err := driver.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	frame := driver.Develop()
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if !frame.Pixel(x, y).IsZero() {
				t.Fatalf("pixel (%d,%d) not black: %v", x, y, frame.Pixel(x, y))
			}
		}
	}
}

// buildFurnace is the white-furnace configuration: a unit sphere of albedo 1
// inside a constant unit-radiance environment. Every unoccluded light path
// carries exactly the environment radiance, so the whole image must develop
// to 1.
func buildFurnace(widthPx, heightPx int) *scene.Scene {
	metadata := &core.PrimitiveMetadata{
		Optics: optics.NewLambertianDiffuseConstant(core.NewSpectrumScalar(1)),
	}
	sphere := geometry.NewSphere(core.NewVec3(0, 0, 0), 1, metadata)

	cam := camera.NewPinhole(
		core.NewVec3(0, 0, 3), core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0),
		math.Pi/4, widthPx, heightPx)

	return scene.Cook(scene.Description{
		Primitives:         []core.Primitive{sphere},
		Metadata:           []*core.PrimitiveMetadata{metadata},
		BackgroundRadiance: texture.NewConstant(core.NewSpectrumScalar(1)),
		Camera:             cam,
		Accel:              scene.AccelBvh,
	})
}

func TestRender_WhiteFurnace(t *testing.T) {
	if testing.Short() {
		t.Skip("furnace test is statistics-heavy")
	}

	const size = 32
	furnace := buildFurnace(size, size)

	cfg := DefaultConfig(size, size, 256)
	cfg.NumWorkers = 4
	cfg.TileSize = 16
	cfg.Filter = film.NewBoxFilter(0.5)
	driver := New(cfg, bneeptFactory(32, 4), testLogger{})

	if err := driver.Update(furnace); err != nil {
		t.Fatal(err)
	}
	if err := driver.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	frame := driver.Develop()
	sum := 0.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			pixel := frame.Pixel(x, y)
			for c := 0; c < core.SpectrumSize; c++ {
				sum += pixel[c]
				// Per-pixel Monte-Carlo noise bound
				if math.Abs(pixel[c]-1.0) > 0.1 {
					t.Errorf("furnace pixel (%d,%d)[%d]: got %f", x, y, c, pixel[c])
				}
			}
		}
	}

	mean := sum / float64(size*size*core.SpectrumSize)
	if math.Abs(mean-1.0) > 0.02 {
		t.Errorf("furnace mean: got %f, want 1 +- 0.02", mean)
	}
}

func TestRender_CornellBoxColorStatistics(t *testing.T) {
	if testing.Short() {
		t.Skip("cornell test is statistics-heavy")
	}

	const widthPx, heightPx = 96, 72
	box := scene.BuildCornell(scene.DefaultCornellOptions(widthPx, heightPx))

	cfg := DefaultConfig(widthPx, heightPx, 48)
	cfg.NumWorkers = 4
	cfg.TileSize = 24
	cfg.Filter = film.NewBoxFilter(0.5)
	driver := New(cfg, bneeptFactory(8, 3), testLogger{})

	if err := driver.Update(box); err != nil {
		t.Fatal(err)
	}
	if err := driver.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	frame := driver.Develop()

	avg := func(region image.Rectangle) core.Spectrum {
		sum := core.BlackSpectrum()
		count := 0.0
		for y := region.Min.Y; y < region.Max.Y; y++ {
			for x := region.Min.X; x < region.Max.X; x++ {
				sum = sum.Add(frame.Pixel(x, y))
				count++
			}
		}
		return sum.DivScalar(count)
	}

	// Central floor area: white surface under a white lamp, so the channel
	// ratios stay near 1 despite wall bleed
	floor := avg(image.Rect(widthPx/2-5, 1, widthPx/2+5, 5))
	if floor[0] <= 0 {
		t.Fatal("floor region is black")
	}
	gr := floor[1] / floor[0]
	br := floor[2] / floor[0]
	if gr < 0.9 || gr > 1.1 {
		t.Errorf("floor G/R ratio: got %f", gr)
	}
	if br < 0.9 || br > 1.1 {
		t.Errorf("floor B/R ratio: got %f", br)
	}

	// The left wall reads dominantly red, the right dominantly blue
	left := avg(image.Rect(2, heightPx/2-6, 9, heightPx/2+6))
	if left[0] < 1.5*left[1] || left[0] < 1.5*left[2] {
		t.Errorf("left wall not dominantly red: %v", left)
	}
	right := avg(image.Rect(widthPx-9, heightPx/2-6, widthPx-2, heightPx/2+6))
	if right[2] < 1.5*right[0] || right[2] < 1.5*right[1] {
		t.Errorf("right wall not dominantly blue: %v", right)
	}
}

func TestRender_ProgressAndPeek(t *testing.T) {
	furnace := buildFurnace(32, 32)

	cfg := DefaultConfig(32, 32, 4)
	cfg.NumWorkers = 2
	cfg.TileSize = 16
	driver := New(cfg, bneeptFactory(4, 2), testLogger{})

	if err := driver.Update(furnace); err != nil {
		t.Fatal(err)
	}
	if err := driver.Render(context.Background()); err != nil {
		t.Fatal(err)
	}

	if driver.SuppliedFraction() != 1 || driver.SubmittedFraction() != 1 {
		t.Errorf("fractions after render: %f, %f", driver.SuppliedFraction(), driver.SubmittedFraction())
	}
	if driver.NumSamplesTaken() != 32*32*4 {
		t.Errorf("samples taken: got %d, want %d", driver.NumSamplesTaken(), 32*32*4)
	}

	// Every completed unit queued an updated-region event covering the window
	covered := 0
	for {
		region, ok := driver.AsyncPollUpdatedRegion()
		if !ok {
			break
		}
		covered += region.Dx() * region.Dy()
	}
	if covered != 32*32 {
		t.Errorf("updated regions covered %d pixels, want %d", covered, 32*32)
	}

	// Peeking develops without disturbing the film
	peek := film.NewHdrRgbFrame(32, 32)
	driver.AsyncPeekRegion(peek, image.Rect(0, 0, 8, 8))
	if !peek.Pixel(4, 4).IsFinite() {
		t.Error("peeked pixel not finite")
	}
}

func TestRender_CancellationDropsInFlightWork(t *testing.T) {
	furnace := buildFurnace(64, 64)

	cfg := DefaultConfig(64, 64, 16)
	cfg.NumWorkers = 2
	driver := New(cfg, bneeptFactory(8, 3), testLogger{})
	if err := driver.Update(furnace); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // canceled before any unit completes

	if err := driver.Render(ctx); err != context.Canceled {
		t.Errorf("canceled render error: got %v", err)
	}
	if driver.NumSamplesTaken() != 0 {
		// Workers may begin a unit before observing cancellation, but no
		// partial unit may be merged
		frame := driver.Develop()
		nonZero := 0
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				if !frame.Pixel(x, y).IsZero() {
					nonZero++
				}
			}
		}
		if nonZero != 0 {
			t.Errorf("canceled render merged %d pixels", nonZero)
		}
	}
}

type testLogger struct{}

func (testLogger) Printf(format string, args ...interface{}) {}
