package sampler

import (
	"math/rand"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// StageHandle identifies a declared sample stage
type StageHandle int

type stage struct {
	numSamples int
	gridX      int
	gridY      int
	is2D       bool

	// per-batch sample storage, regenerated by PrepareBatch
	values2D []core.Vec2
	values1D []float64
}

// Generator produces stratified sample streams in batches. A batch supplies
// one sample per declared stream element (for the pixel stage: one sample per
// pixel). Work units receive their own sub-generator via GenCopied so workers
// never share RNG state.
type Generator struct {
	rng          *rand.Rand
	seed         int64
	numBatches   int
	currentBatch int
	stages       []*stage
}

// NewGenerator creates a generator producing numBatches batches from the seed
func NewGenerator(seed int64, numBatches int) *Generator {
	return &Generator{
		rng:        rand.New(rand.NewSource(seed)),
		seed:       seed,
		numBatches: numBatches,
	}
}

// NumSampleBatches returns the total batch budget
func (g *Generator) NumSampleBatches() int {
	return g.numBatches
}

// Declare2DStage declares a stratified 2D stream of numSamples samples
// stratified over a gridX x gridY grid
func (g *Generator) Declare2DStage(numSamples, gridX, gridY int) StageHandle {
	if gridX < 1 {
		gridX = 1
	}
	if gridY < 1 {
		gridY = 1
	}
	g.stages = append(g.stages, &stage{numSamples: numSamples, gridX: gridX, gridY: gridY, is2D: true})
	return StageHandle(len(g.stages) - 1)
}

// Declare1DStage declares a stratified 1D stream of numSamples samples
func (g *Generator) Declare1DStage(numSamples int) StageHandle {
	g.stages = append(g.stages, &stage{numSamples: numSamples, gridX: numSamples, gridY: 1})
	return StageHandle(len(g.stages) - 1)
}

// PrepareBatch generates fresh stratified values for every stage. It returns
// false once the batch budget is exhausted.
func (g *Generator) PrepareBatch() bool {
	if g.currentBatch >= g.numBatches {
		return false
	}
	g.currentBatch++

	for _, s := range g.stages {
		if s.is2D {
			g.fill2D(s)
		} else {
			g.fill1D(s)
		}
	}
	return true
}

// fill2D stratifies samples over the stage grid: sample i jitters inside grid
// cell i (wrapping when numSamples exceeds the cell count)
func (g *Generator) fill2D(s *stage) {
	if cap(s.values2D) < s.numSamples {
		s.values2D = make([]core.Vec2, s.numSamples)
	}
	s.values2D = s.values2D[:s.numSamples]

	numCells := s.gridX * s.gridY
	for i := 0; i < s.numSamples; i++ {
		cell := i % numCells
		cx := cell % s.gridX
		cy := cell / s.gridX
		s.values2D[i] = core.NewVec2(
			(float64(cx)+g.rng.Float64())/float64(s.gridX),
			(float64(cy)+g.rng.Float64())/float64(s.gridY),
		)
	}
}

func (g *Generator) fill1D(s *stage) {
	if cap(s.values1D) < s.numSamples {
		s.values1D = make([]float64, s.numSamples)
	}
	s.values1D = s.values1D[:s.numSamples]

	for i := 0; i < s.numSamples; i++ {
		cell := i % s.gridX
		s.values1D[i] = (float64(cell) + g.rng.Float64()) / float64(s.gridX)
	}
}

// Get2D reads sample index of a 2D stage in the current batch
func (g *Generator) Get2D(handle StageHandle, index int) core.Vec2 {
	return g.stages[handle].values2D[index]
}

// Get1D reads sample index of a 1D stage in the current batch
func (g *Generator) Get1D(handle StageHandle, index int) float64 {
	return g.stages[handle].values1D[index]
}

// GenCopied creates a sub-generator with the same stage declarations and a
// fresh batch budget. The child derives its seed from the parent stream, so
// distinct calls produce decorrelated sub-generators.
func (g *Generator) GenCopied(numBatches int) *Generator {
	child := NewGenerator(g.rng.Int63(), numBatches)
	for _, s := range g.stages {
		if s.is2D {
			child.Declare2DStage(s.numSamples, s.gridX, s.gridY)
		} else {
			child.Declare1DStage(s.numSamples)
		}
	}
	return child
}
