package renderer

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/estimator"
	"github.com/arvoss/go-pathtracer/pkg/film"
	"github.com/arvoss/go-pathtracer/pkg/sampler"
	"github.com/arvoss/go-pathtracer/pkg/scene"
)

// SchedulerType selects the work-unit dispatch strategy
type SchedulerType string

const (
	SchedulerSpiralGrid SchedulerType = "spiral-grid"
	SchedulerTile       SchedulerType = "tile"
	SchedulerDammertz   SchedulerType = "dammertz"
)

// Config parameterizes a render
type Config struct {
	WidthPx         int
	HeightPx        int
	SamplesPerPixel int
	NumWorkers      int // 0 selects runtime.NumCPU()
	Scheduler       SchedulerType
	TileSize        int
	Filter          film.Filter
	BaseSeed        int64

	// Dammertz tuning
	DammertzPasses    int
	PrecisionStandard float64
}

// DefaultConfig returns sensible settings for the given output size
func DefaultConfig(widthPx, heightPx, spp int) Config {
	return Config{
		WidthPx:           widthPx,
		HeightPx:          heightPx,
		SamplesPerPixel:   spp,
		Scheduler:         SchedulerSpiralGrid,
		TileSize:          32,
		Filter:            film.NewGaussianFilter(1.0, 4.0),
		BaseSeed:          42,
		DammertzPasses:    8,
		PrecisionStandard: 1.0,
	}
}

// EstimatorFactory builds one estimator per worker
type EstimatorFactory func() estimator.Estimator

// DefaultLogger writes to stdout
type DefaultLogger struct{}

// Printf implements core.Logger
func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// Renderer drives the render: it owns the main film, the scheduler and the
// worker pool, and exposes progress to the outside through atomic counters
// and an updated-region queue.
type Renderer struct {
	config  Config
	factory EstimatorFactory
	logger  core.Logger

	// Snapshot taken by Update; immutable during Render
	scene     *scene.Scene
	camera    core.Camera
	generator *sampler.Generator

	mainFilm  *film.HdrRgbFilm
	scheduler WorkScheduler

	// The single renderer mutex guards the main film, the scheduler, the
	// updated-region queue and GenCopied on the sample generator.
	mu             sync.Mutex
	updatedRegions []image.Rectangle

	numSamplesTaken       atomic.Int64
	totalPaths            atomic.Int64
	suppliedFractionBits  atomic.Uint64
	submittedFractionBits atomic.Uint64
	unitCounter           atomic.Int64
}

// New creates a renderer. The factory is invoked once per worker so each
// worker owns a dedicated estimator.
func New(config Config, factory EstimatorFactory, logger core.Logger) *Renderer {
	if logger == nil {
		logger = &DefaultLogger{}
	}
	if config.TileSize <= 0 {
		config.TileSize = 32
	}
	if config.Filter == nil {
		config.Filter = film.NewBoxFilter(0.5)
	}
	return &Renderer{config: config, factory: factory, logger: logger}
}

// Update cooks the renderer against a scene: sizes the main film, snapshots
// the camera, seeds the sample generator and initializes the scheduler.
func (r *Renderer) Update(s *scene.Scene) error {
	if s.Camera() == nil {
		return fmt.Errorf("renderer update: scene has no camera")
	}

	r.scene = s
	r.camera = s.Camera()
	r.generator = sampler.NewGenerator(r.config.BaseSeed, r.config.SamplesPerPixel)
	r.mainFilm = film.NewHdrRgbFilm(r.config.WidthPx, r.config.HeightPx, r.config.Filter)
	window := r.mainFilm.Window()

	switch r.config.Scheduler {
	case SchedulerTile:
		r.scheduler = NewTileScheduler(window, r.config.TileSize, r.config.SamplesPerPixel)
	case SchedulerDammertz:
		r.scheduler = NewDammertzScheduler(window, r.mainFilm,
			max(1, r.config.SamplesPerPixel/max(1, r.config.DammertzPasses)),
			r.config.DammertzPasses, r.config.PrecisionStandard)
	default:
		r.scheduler = NewSpiralGridScheduler(window, r.config.TileSize, r.config.SamplesPerPixel)
	}

	r.updatedRegions = nil
	r.numSamplesTaken.Store(0)
	r.totalPaths.Store(0)
	r.storeFractions()
	return nil
}

// Render runs the worker pool until the scheduler drains or the context is
// canceled. Cancellation is cooperative: workers check at unit boundaries and
// drop in-flight results rather than merging partial units.
func (r *Renderer) Render(ctx context.Context) error {
	if r.scene == nil {
		return fmt.Errorf("renderer: Update must run before Render")
	}

	numWorkers := r.config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	r.logger.Printf("rendering %dx%d at %d spp with %d workers\n",
		r.config.WidthPx, r.config.HeightPx, r.config.SamplesPerPixel, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workerLoop(ctx, r.factory())
		}()
	}
	wg.Wait()

	return ctx.Err()
}

// workerLoop is one worker: acquire a unit under the mutex, sample it into a
// private film, merge under the mutex, repeat.
func (r *Renderer) workerLoop(ctx context.Context, est estimator.Estimator) {
	integrand := estimator.Integrand{Scene: r.scene, Camera: r.camera}
	_, sensesReversed := est.(estimator.ReversedRaySensor)

	for {
		if ctx.Err() != nil {
			return
		}

		r.mu.Lock()
		var unit WorkUnit
		if !r.scheduler.Schedule(&unit) {
			r.mu.Unlock()
			return
		}
		subGenerator := r.generator.GenCopied(unit.Depth)
		r.mu.Unlock()
		r.storeFractions()

		workerFilm := r.mainFilm.GenChild(unit.Region)
		unitIndex := r.unitCounter.Add(1)
		flow := core.NewSampleFlow(r.config.BaseSeed ^ (unitIndex << 17))

		if r.sampleUnit(ctx, est, integrand, unit, subGenerator, workerFilm, flow, sensesReversed) {
			r.mu.Lock()
			r.mainFilm.MergeWith(workerFilm)
			r.updatedRegions = append(r.updatedRegions, unit.Region)
			r.scheduler.Submit(unit)
			r.mu.Unlock()
			r.storeFractions()
		}
	}
}

// sampleUnit runs the camera sampling work for one unit. It returns false
// when canceled mid-unit, in which case the worker film is dropped.
func (r *Renderer) sampleUnit(ctx context.Context, est estimator.Estimator, integrand estimator.Integrand, unit WorkUnit, subGenerator *sampler.Generator, workerFilm *film.HdrRgbFilm, flow *core.SampleFlow, sensesReversed bool) bool {
	region := unit.Region
	numPixels := region.Dx() * region.Dy()
	pixelStage := subGenerator.Declare2DStage(numPixels, region.Dx(), region.Dy())

	for subGenerator.PrepareBatch() {
		if ctx.Err() != nil {
			return false
		}

		for i := 0; i < numPixels; i++ {
			s := subGenerator.Get2D(pixelStage, i)
			xPx := float64(region.Min.X) + s.X*float64(region.Dx())
			yPx := float64(region.Min.Y) + s.Y*float64(region.Dy())

			ray := r.camera.GenSensedRay(core.NewVec2(xPx, yPx), flow)
			if sensesReversed {
				ray = ray.Reversed()
			}

			estimation := est.Estimate(ray, integrand, flow)
			workerFilm.AddSample(xPx, yPx, estimation.Radiance)

			r.numSamplesTaken.Add(1)
			r.totalPaths.Add(1)
		}
	}
	return true
}

func (r *Renderer) storeFractions() {
	r.mu.Lock()
	scheduled := r.scheduler.ScheduledFraction()
	submitted := r.scheduler.SubmittedFraction()
	r.mu.Unlock()
	r.suppliedFractionBits.Store(math.Float64bits(scheduled))
	r.submittedFractionBits.Store(math.Float64bits(submitted))
}

// AsyncPollUpdatedRegion pops the oldest updated-region event. Later events
// supersede earlier ones for the same region; no other ordering is promised.
func (r *Renderer) AsyncPollUpdatedRegion() (image.Rectangle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updatedRegions) == 0 {
		return image.Rectangle{}, false
	}
	region := r.updatedRegions[0]
	r.updatedRegions = r.updatedRegions[1:]
	return region, true
}

// AsyncPeekRegion develops the current state of a region into the frame
// without stopping the render
func (r *Renderer) AsyncPeekRegion(frame *film.HdrRgbFrame, region image.Rectangle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mainFilm.Develop(frame, region)
}

// Develop writes the whole film into a new frame
func (r *Renderer) Develop() *film.HdrRgbFrame {
	frame := film.NewHdrRgbFrame(r.config.WidthPx, r.config.HeightPx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mainFilm.Develop(frame, r.mainFilm.Window())
	return frame
}

// NumSamplesTaken reads the approximate monotone sample counter
func (r *Renderer) NumSamplesTaken() int64 {
	return r.numSamplesTaken.Load()
}

// SuppliedFraction reads the approximate scheduled-work fraction
func (r *Renderer) SuppliedFraction() float64 {
	return math.Float64frombits(r.suppliedFractionBits.Load())
}

// SubmittedFraction reads the approximate completed-work fraction
func (r *Renderer) SubmittedFraction() float64 {
	return math.Float64frombits(r.submittedFractionBits.Load())
}
