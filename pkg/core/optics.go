package core

// ETransport selects the direction of Monte-Carlo path construction. Radiance
// transport traces from the camera; importance transport traces from lights.
// Refraction is not symmetric between the two (the adjoint eta^2 factor).
type ETransport int

const (
	TransportRadiance ETransport = iota
	TransportImportance
)

// ESidedness controls whether geometric and shading normals must agree on
// which hemisphere V and L lie in.
type ESidedness int

const (
	// SidednessStrict rejects samples where the two normals disagree
	SidednessStrict ESidedness = iota
	// SidednessTrusted accepts the shading normal's verdict
	SidednessTrusted
	// SidednessDoNotCare skips the check entirely
	SidednessDoNotCare
)

// AllElementals requests every lobe of a composite optics
const AllElementals = -1

// BsdfQueryContext parameterizes every optics query
type BsdfQueryContext struct {
	Transport ETransport
	Sidedness ESidedness
	Elemental int // AllElementals or a specific lobe index
}

// DefaultBsdfQueryContext returns the context used by the estimators
func DefaultBsdfQueryContext() BsdfQueryContext {
	return BsdfQueryContext{
		Transport: TransportRadiance,
		Sidedness: SidednessStrict,
		Elemental: AllElementals,
	}
}

// SurfacePhenomenon is one class of scattering behavior an optics can exhibit
type SurfacePhenomenon uint8

const (
	DiffuseReflection SurfacePhenomenon = 1 << iota
	GlossyReflection
	DeltaReflection
	DiffuseTransmission
	GlossyTransmission
	DeltaTransmission
)

// SurfacePhenomena is the set of phenomena exhibited by an optics
type SurfacePhenomena uint8

// Has reports whether the set contains the phenomenon
func (p SurfacePhenomena) Has(phenomenon SurfacePhenomenon) bool {
	return p&SurfacePhenomena(phenomenon) != 0
}

// HasDelta reports whether any delta lobe is present
func (p SurfacePhenomena) HasDelta() bool {
	return p.Has(DeltaReflection) || p.Has(DeltaTransmission)
}

// IsAllDelta reports whether every lobe is a delta lobe
func (p SurfacePhenomena) IsAllDelta() bool {
	nonDelta := SurfacePhenomena(DiffuseReflection | GlossyReflection |
		DiffuseTransmission | GlossyTransmission)
	return p != 0 && p&nonDelta == 0
}

// Union combines phenomena sets
func (p SurfacePhenomena) Union(other SurfacePhenomena) SurfacePhenomena {
	return p | other
}

// PhenomenaOf builds a set from individual phenomena
func PhenomenaOf(phenomena ...SurfacePhenomenon) SurfacePhenomena {
	var set SurfacePhenomena
	for _, ph := range phenomena {
		set |= SurfacePhenomena(ph)
	}
	return set
}

// BsdfSample is the result of importance-sampling an optics. PdfAppliedBsdf is
// f(X,L,V) * |N.L| / pdfW, the quantity the estimators multiply throughput by;
// for delta lobes the division by the (delta) pdf is folded in analytically.
type BsdfSample struct {
	L              Vec3
	PdfAppliedBsdf Spectrum
}

// IsMeasurable reports whether the sample carries useful measure
func (s BsdfSample) IsMeasurable() bool {
	return s.PdfAppliedBsdf.IsFinite() && !s.PdfAppliedBsdf.HasNegative() && !s.PdfAppliedBsdf.IsZero()
}

// SurfaceOptics is the unified BSDF query interface: evaluate, sample, pdf.
type SurfaceOptics interface {
	// Phenomena declares the scattering classes this optics exhibits
	Phenomena() SurfacePhenomena

	// NumElementals returns the number of indivisible lobes
	NumElementals() int

	// CalcBsdf evaluates f(X, L, V); zero for delta lobes
	CalcBsdf(ctx BsdfQueryContext, x *HitDetail, l, v Vec3) Spectrum

	// GenBsdfSample draws L given V, returning the pdf-applied BSDF. ok is
	// false when the sample carries no measure (absorption, TIR, sidedness
	// rejection).
	GenBsdfSample(ctx BsdfQueryContext, x *HitDetail, v Vec3, flow *SampleFlow) (BsdfSample, bool)

	// CalcBsdfPdfW returns the solid-angle pdf of GenBsdfSample producing L;
	// zero for delta lobes
	CalcBsdfPdfW(ctx BsdfQueryContext, x *HitDetail, l, v Vec3) float64
}

// SidednessAgreed checks V and L hemisphere placement against the context's
// sidedness policy. Helper shared by the optics implementations.
func SidednessAgreed(ctx BsdfQueryContext, x *HitDetail, l, v Vec3, sameSide bool) bool {
	switch ctx.Sidedness {
	case SidednessDoNotCare:
		return true
	case SidednessTrusted:
		ns := x.ShadingNormal
		if sameSide {
			return (ns.Dot(l) > 0) == (ns.Dot(v) > 0)
		}
		return (ns.Dot(l) > 0) != (ns.Dot(v) > 0)
	default: // SidednessStrict
		ns := x.ShadingNormal
		ng := x.GeometryNormal
		var shadingOk, geometricOk bool
		if sameSide {
			shadingOk = (ns.Dot(l) > 0) == (ns.Dot(v) > 0)
			geometricOk = (ng.Dot(l) > 0) == (ng.Dot(v) > 0)
		} else {
			shadingOk = (ns.Dot(l) > 0) != (ns.Dot(v) > 0)
			geometricOk = (ng.Dot(l) > 0) != (ng.Dot(v) > 0)
		}
		return shadingOk && geometricOk
	}
}
