package core

import "math/rand"

// SampleFlow supplies the random numbers consumed by sampling operations. Each
// worker owns its own flow seeded from the render's base seed plus the work
// unit index, so a render is reproducible at a given seed with no process-wide
// RNG.
type SampleFlow struct {
	rng *rand.Rand
}

// NewSampleFlow creates a flow from an explicit seed
func NewSampleFlow(seed int64) *SampleFlow {
	return &SampleFlow{rng: rand.New(rand.NewSource(seed))}
}

// NewSampleFlowFrom wraps an existing RNG stream
func NewSampleFlowFrom(rng *rand.Rand) *SampleFlow {
	return &SampleFlow{rng: rng}
}

// Flow1D draws one uniform sample in [0, 1)
func (f *SampleFlow) Flow1D() float64 {
	return f.rng.Float64()
}

// Flow2D draws a pair of uniform samples in [0, 1)^2
func (f *SampleFlow) Flow2D() Vec2 {
	return Vec2{X: f.rng.Float64(), Y: f.rng.Float64()}
}

// Flow3D draws three uniform samples in [0, 1)^3
func (f *SampleFlow) Flow3D() Vec3 {
	return Vec3{X: f.rng.Float64(), Y: f.rng.Float64(), Z: f.rng.Float64()}
}

// Pick returns true with the given probability
func (f *SampleFlow) Pick(probability float64) bool {
	return f.rng.Float64() < probability
}

// PickIndex draws a uniform index in [0, n)
func (f *SampleFlow) PickIndex(n int) int {
	return f.rng.Intn(n)
}
