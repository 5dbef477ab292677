package core

// Distribution1D is a piecewise-constant probability distribution over [0, 1)
// built from non-negative weights. Sampling inverts the CDF with a binary
// search.
type Distribution1D struct {
	cdf      []float64 // len(weights) + 1, cdf[0] = 0, cdf[n] = 1
	funcInt  float64   // integral of the unnormalized weights over [0, 1)
	numItems int
}

// NewDistribution1D builds a distribution from the given weights. All-zero or
// empty weights produce a uniform distribution so that sampling stays valid.
func NewDistribution1D(weights []float64) *Distribution1D {
	n := len(weights)
	if n == 0 {
		n = 1
		weights = []float64{1}
	}

	cdf := make([]float64, n+1)
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		cdf[i+1] = cdf[i] + w/float64(n)
	}

	funcInt := cdf[n]
	if funcInt == 0 {
		for i := 1; i <= n; i++ {
			cdf[i] = float64(i) / float64(n)
		}
	} else {
		inv := 1.0 / funcInt
		for i := 1; i <= n; i++ {
			cdf[i] *= inv
		}
	}

	return &Distribution1D{cdf: cdf, funcInt: funcInt, numItems: n}
}

// NumItems returns the number of piecewise segments
func (d *Distribution1D) NumItems() int {
	return d.numItems
}

// Integral returns the unnormalized integral of the weights
func (d *Distribution1D) Integral() float64 {
	return d.funcInt
}

// SampleContinuous maps a uniform sample to a value in [0, 1) distributed
// according to the weights. Returns the value, its pdf and the segment index.
func (d *Distribution1D) SampleContinuous(u float64) (float64, float64, int) {
	i := d.findSegment(u)

	du := u - d.cdf[i]
	if segWidth := d.cdf[i+1] - d.cdf[i]; segWidth > 0 {
		du /= segWidth
	}

	pdf := d.Pdf(i)
	value := (float64(i) + du) / float64(d.numItems)
	return value, pdf, i
}

// SampleDiscrete maps a uniform sample to a segment index with its discrete
// probability
func (d *Distribution1D) SampleDiscrete(u float64) (int, float64) {
	i := d.findSegment(u)
	return i, d.cdf[i+1] - d.cdf[i]
}

// Pdf returns the continuous pdf (w.r.t. the [0, 1) measure) over segment i
func (d *Distribution1D) Pdf(i int) float64 {
	return (d.cdf[i+1] - d.cdf[i]) * float64(d.numItems)
}

// PdfContinuous returns the continuous pdf at value v in [0, 1)
func (d *Distribution1D) PdfContinuous(v float64) float64 {
	i := int(v * float64(d.numItems))
	if i < 0 {
		i = 0
	} else if i >= d.numItems {
		i = d.numItems - 1
	}
	return d.Pdf(i)
}

// findSegment locates the largest i with cdf[i] <= u via binary search
func (d *Distribution1D) findSegment(u float64) int {
	lo, hi := 0, len(d.cdf)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if d.cdf[mid] <= u {
			lo = mid
		} else {
			hi = mid
		}
	}
	if lo >= d.numItems {
		lo = d.numItems - 1
	}
	return lo
}

// Distribution2D is a piecewise-constant distribution over [0, 1)^2 stored as
// a marginal distribution over rows and one conditional distribution per row.
type Distribution2D struct {
	conditional []*Distribution1D // per-row distribution over u
	marginal    *Distribution1D   // distribution over v (row selection)
	numCols     int
	numRows     int
}

// NewDistribution2D builds a 2D distribution from row-major weights with the
// given dimensions. Row 0 corresponds to v in [0, 1/numRows).
func NewDistribution2D(weights []float64, numCols, numRows int) *Distribution2D {
	conditional := make([]*Distribution1D, numRows)
	rowIntegrals := make([]float64, numRows)
	for y := 0; y < numRows; y++ {
		row := weights[y*numCols : (y+1)*numCols]
		conditional[y] = NewDistribution1D(row)
		rowIntegrals[y] = conditional[y].Integral()
	}

	return &Distribution2D{
		conditional: conditional,
		marginal:    NewDistribution1D(rowIntegrals),
		numCols:     numCols,
		numRows:     numRows,
	}
}

// SampleContinuous maps a uniform sample pair to (u, v) in [0, 1)^2 with the
// joint pdf of the sampled location
func (d *Distribution2D) SampleContinuous(sample Vec2) (Vec2, float64) {
	v, pdfV, row := d.marginal.SampleContinuous(sample.Y)
	u, pdfU, _ := d.conditional[row].SampleContinuous(sample.X)
	return Vec2{X: u, Y: v}, pdfU * pdfV
}

// Pdf returns the joint pdf at (u, v)
func (d *Distribution2D) Pdf(uv Vec2) float64 {
	row := int(uv.Y * float64(d.numRows))
	if row < 0 {
		row = 0
	} else if row >= d.numRows {
		row = d.numRows - 1
	}
	return d.marginal.Pdf(row) * d.conditional[row].PdfContinuous(uv.X)
}
