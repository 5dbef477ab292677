package emitter

import "github.com/arvoss/go-pathtracer/pkg/core"

// PowerWeightedSampler selects emitters in proportion to their approximate
// radiant flux, so bright lights receive more next-event samples. All-zero
// fluxes degrade to uniform selection.
type PowerWeightedSampler struct {
	emitters []core.Emitter
	dist     *core.Distribution1D
}

// NewPowerWeightedSampler creates a sampler over the given emitters
func NewPowerWeightedSampler(emitters []core.Emitter) *PowerWeightedSampler {
	weights := make([]float64, len(emitters))
	for i, e := range emitters {
		weights[i] = e.CalcRadiantFluxApprox()
	}
	return &PowerWeightedSampler{
		emitters: emitters,
		dist:     core.NewDistribution1D(weights),
	}
}

// NumEmitters returns the number of selectable emitters
func (s *PowerWeightedSampler) NumEmitters() int {
	return len(s.emitters)
}

// Sample picks an emitter and returns it with its selection probability
func (s *PowerWeightedSampler) Sample(flow *core.SampleFlow) (core.Emitter, float64, bool) {
	if len(s.emitters) == 0 {
		return nil, 0, false
	}
	index, prob := s.dist.SampleDiscrete(flow.Flow1D())
	return s.emitters[index], prob, prob > 0
}

// SelectionProb returns the selection probability of a specific emitter
func (s *PowerWeightedSampler) SelectionProb(target core.Emitter) float64 {
	for i, e := range s.emitters {
		if e == target {
			return s.dist.Pdf(i) / float64(s.dist.NumItems())
		}
	}
	return 0
}
