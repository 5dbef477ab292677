package renderer

import (
	"image"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/film"
)

// WorkUnit is a film region with a sample-batch budget (effective samples per
// pixel for that sweep). Units are owned by the scheduler and passed to
// workers by value.
type WorkUnit struct {
	Region image.Rectangle
	Depth  int
}

// Volume returns the unit's work volume in pixel-samples
func (u WorkUnit) Volume() int64 {
	return int64(u.Region.Dx()) * int64(u.Region.Dy()) * int64(u.Depth)
}

// WorkScheduler dispatches work units over the film crop window. Schedule and
// Submit are called under the renderer mutex.
type WorkScheduler interface {
	// Schedule produces the next unit; false means no work remains
	Schedule(unit *WorkUnit) bool

	// Submit returns a completed unit; adaptive schedulers may enqueue
	// follow-up work in response
	Submit(unit WorkUnit)

	// ScheduledFraction estimates how much work has been handed out
	ScheduledFraction() float64

	// SubmittedFraction estimates how much work has completed
	SubmittedFraction() float64
}

// fractions is the bookkeeping shared by the schedulers
type fractions struct {
	scheduledVolume int64
	submittedVolume int64
	totalVolume     int64
}

func (f *fractions) ScheduledFraction() float64 {
	if f.totalVolume == 0 {
		return 1
	}
	return float64(f.scheduledVolume) / float64(f.totalVolume)
}

func (f *fractions) SubmittedFraction() float64 {
	if f.totalVolume == 0 {
		return 1
	}
	return float64(f.submittedVolume) / float64(f.totalVolume)
}

// SpiralGridScheduler partitions the window into tileSize cells emitted in an
// outward spiral from the center, each carrying the full sample budget.
type SpiralGridScheduler struct {
	fractions
	units []WorkUnit
	next  int
}

// NewSpiralGridScheduler creates the scheduler over the given window
func NewSpiralGridScheduler(window image.Rectangle, tileSize, depth int) *SpiralGridScheduler {
	s := &SpiralGridScheduler{}

	cols := (window.Dx() + tileSize - 1) / tileSize
	rows := (window.Dy() + tileSize - 1) / tileSize
	if cols == 0 || rows == 0 {
		return s
	}

	cellAt := func(cx, cy int) (image.Rectangle, bool) {
		if cx < 0 || cx >= cols || cy < 0 || cy >= rows {
			return image.Rectangle{}, false
		}
		cell := image.Rect(
			window.Min.X+cx*tileSize,
			window.Min.Y+cy*tileSize,
			window.Min.X+(cx+1)*tileSize,
			window.Min.Y+(cy+1)*tileSize,
		).Intersect(window)
		return cell, !cell.Empty()
	}

	// Outward spiral walk: step 1 right, 1 up, 2 left, 2 down, 3 right, ...
	cx, cy := cols/2, rows/2
	emitted := 0
	total := cols * rows
	dirs := [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	stepLen := 1
	dirIdx := 0

	emit := func() {
		if cell, ok := cellAt(cx, cy); ok {
			unit := WorkUnit{Region: cell, Depth: depth}
			s.units = append(s.units, unit)
			s.totalVolume += unit.Volume()
			emitted++
		}
	}

	emit()
	for emitted < total {
		for leg := 0; leg < 2; leg++ {
			for step := 0; step < stepLen; step++ {
				cx += dirs[dirIdx][0]
				cy += dirs[dirIdx][1]
				emit()
				if emitted == total {
					return s
				}
			}
			dirIdx = (dirIdx + 1) % 4
		}
		stepLen++
	}
	return s
}

// Schedule hands out the next spiral cell
func (s *SpiralGridScheduler) Schedule(unit *WorkUnit) bool {
	if s.next >= len(s.units) {
		return false
	}
	*unit = s.units[s.next]
	s.next++
	s.scheduledVolume += unit.Volume()
	return true
}

// Submit records completion
func (s *SpiralGridScheduler) Submit(unit WorkUnit) {
	s.submittedVolume += unit.Volume()
}

// TileScheduler emits row-major tiles
type TileScheduler struct {
	fractions
	units []WorkUnit
	next  int
}

// NewTileScheduler creates the scheduler over the given window
func NewTileScheduler(window image.Rectangle, tileSize, depth int) *TileScheduler {
	s := &TileScheduler{}
	for y := window.Min.Y; y < window.Max.Y; y += tileSize {
		for x := window.Min.X; x < window.Max.X; x += tileSize {
			cell := image.Rect(x, y, x+tileSize, y+tileSize).Intersect(window)
			if cell.Empty() {
				continue
			}
			unit := WorkUnit{Region: cell, Depth: depth}
			s.units = append(s.units, unit)
			s.totalVolume += unit.Volume()
		}
	}
	return s
}

// Schedule hands out the next tile
func (s *TileScheduler) Schedule(unit *WorkUnit) bool {
	if s.next >= len(s.units) {
		return false
	}
	*unit = s.units[s.next]
	s.next++
	s.scheduledVolume += unit.Volume()
	return true
}

// Submit records completion
func (s *TileScheduler) Submit(unit WorkUnit) {
	s.submittedVolume += unit.Volume()
}

// DammertzScheduler adaptively refines the window: after each pass over a
// region its error estimate decides whether the region is dropped (below the
// terminate threshold), split (above the split threshold) or re-enqueued.
// Thresholds follow Dammertz et al.: terminate = 0.0002 * precisionStandard,
// split = 256 * terminate.
type DammertzScheduler struct {
	fractions
	mainFilm     *film.HdrRgbFilm
	queue        []WorkUnit
	inFlight     int
	depthPerPass int
	maxPasses    int
	passCount    map[string]int
	snapshots    map[string]*film.HdrRgbFrame
	terminate    float64
	split        float64
}

// NewDammertzScheduler creates the adaptive scheduler. The film is the main
// film; it is only read during Submit, which the renderer calls under its
// mutex.
func NewDammertzScheduler(window image.Rectangle, mainFilm *film.HdrRgbFilm, depthPerPass, maxPasses int, precisionStandard float64) *DammertzScheduler {
	s := &DammertzScheduler{
		mainFilm:     mainFilm,
		depthPerPass: depthPerPass,
		maxPasses:    maxPasses,
		passCount:    map[string]int{},
		snapshots:    map[string]*film.HdrRgbFrame{},
		terminate:    0.0002 * precisionStandard,
	}
	s.split = 256 * s.terminate

	unit := WorkUnit{Region: window, Depth: depthPerPass}
	s.queue = append(s.queue, unit)
	// The total volume is unknowable up front; it grows as regions re-enqueue
	s.totalVolume = unit.Volume() * int64(maxPasses)
	return s
}

// Schedule pops the next queued region
func (s *DammertzScheduler) Schedule(unit *WorkUnit) bool {
	if len(s.queue) == 0 {
		return false
	}
	*unit = s.queue[0]
	s.queue = s.queue[1:]
	s.inFlight++
	s.scheduledVolume += unit.Volume()
	if s.scheduledVolume > s.totalVolume {
		s.totalVolume = s.scheduledVolume
	}
	return true
}

// Submit measures the region's change since its previous pass and refines
func (s *DammertzScheduler) Submit(unit WorkUnit) {
	s.inFlight--
	s.submittedVolume += unit.Volume()

	key := unit.Region.String()
	s.passCount[key]++
	passes := s.passCount[key]

	w, h := s.mainFilm.Resolution()
	current := film.NewHdrRgbFrame(w, h)
	s.mainFilm.Develop(current, unit.Region)

	previous := s.snapshots[key]
	s.snapshots[key] = current
	if previous == nil {
		// First pass over this region: always continue
		s.enqueue(unit)
		return
	}

	err := regionError(previous, current, unit.Region)
	switch {
	case err < s.terminate || passes >= s.maxPasses:
		delete(s.snapshots, key)
		delete(s.passCount, key)
	case err > s.split && unit.Region.Dx() > 8 && unit.Region.Dy() > 8:
		delete(s.snapshots, key)
		delete(s.passCount, key)
		left, right := splitRegion(unit.Region)
		s.enqueue(WorkUnit{Region: left, Depth: s.depthPerPass})
		s.enqueue(WorkUnit{Region: right, Depth: s.depthPerPass})
	default:
		s.enqueue(unit)
	}
}

func (s *DammertzScheduler) enqueue(unit WorkUnit) {
	s.queue = append(s.queue, unit)
	if need := s.scheduledVolume + unit.Volume(); need > s.totalVolume {
		s.totalVolume = need
	}
}

// regionError is the mean relative luminance difference between two develops
// of the same region
func regionError(previous, current *film.HdrRgbFrame, region image.Rectangle) float64 {
	sum := 0.0
	count := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			prevLum := previous.Pixel(x, y).CalcLuminance(core.QuantityRaw)
			curLum := current.Pixel(x, y).CalcLuminance(core.QuantityRaw)
			denom := max(curLum, 1e-4)
			sum += abs(curLum-prevLum) / denom
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func splitRegion(region image.Rectangle) (image.Rectangle, image.Rectangle) {
	if region.Dx() >= region.Dy() {
		mid := (region.Min.X + region.Max.X) / 2
		return image.Rect(region.Min.X, region.Min.Y, mid, region.Max.Y),
			image.Rect(mid, region.Min.Y, region.Max.X, region.Max.Y)
	}
	mid := (region.Min.Y + region.Max.Y) / 2
	return image.Rect(region.Min.X, region.Min.Y, region.Max.X, mid),
		image.Rect(region.Min.X, mid, region.Max.X, region.Max.Y)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
