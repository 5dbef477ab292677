package optics

import (
	"math"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// Microfacet describes a normal distribution over a rough surface in the
// local frame of the shading normal (+Z up). All directions handed to these
// methods are unit length and expressed in that frame.
type Microfacet interface {
	// Distribution is the NDF D(m)
	Distribution(m core.Vec3) float64

	// Shadowing is the joint masking-shadowing term G(l, v, m)
	Shadowing(l, v, m core.Vec3) float64

	// ShadowingG1 is the single-direction masking term G1(v, m)
	ShadowingG1(v, m core.Vec3) float64

	// SampleH importance-samples a microfacet normal from D(m)|m.n|
	SampleH(sample core.Vec2) core.Vec3
}

func roughnessToAlpha(roughness float64) float64 {
	// Squared perceptual-roughness mapping; floored to keep D finite
	return math.Max(roughness*roughness, 1e-4)
}

// GgxIso is the isotropic Trowbridge-Reitz (GGX) distribution
type GgxIso struct {
	alpha float64
}

// NewGgxIso creates an isotropic GGX distribution from perceptual roughness
func NewGgxIso(roughness float64) *GgxIso {
	return &GgxIso{alpha: roughnessToAlpha(roughness)}
}

// Distribution evaluates the GGX NDF
func (g *GgxIso) Distribution(m core.Vec3) float64 {
	cos := m.Z
	if cos <= 0 {
		return 0
	}
	a2 := g.alpha * g.alpha
	d := cos*cos*(a2-1) + 1
	return a2 / (math.Pi * d * d)
}

// ShadowingG1 is the Smith masking term for GGX
func (g *GgxIso) ShadowingG1(v, m core.Vec3) float64 {
	cos := v.Z
	if cos*v.Dot(m) <= 0 {
		return 0
	}
	cos = math.Abs(cos)
	if cos >= 1 {
		return 1
	}
	tan2 := (1 - cos*cos) / (cos * cos)
	return 2.0 / (1.0 + math.Sqrt(1.0+g.alpha*g.alpha*tan2))
}

// Shadowing is the separable Smith G = G1(l) * G1(v)
func (g *GgxIso) Shadowing(l, v, m core.Vec3) float64 {
	return g.ShadowingG1(l, m) * g.ShadowingG1(v, m)
}

// SampleH draws a half vector from D(m)|m.n| (Walter 2007)
func (g *GgxIso) SampleH(sample core.Vec2) core.Vec3 {
	phi := 2 * math.Pi * sample.Y
	tan2 := g.alpha * g.alpha * sample.X / (1 - sample.X)
	cos := 1.0 / math.Sqrt(1.0+tan2)
	sin := math.Sqrt(math.Max(0, 1-cos*cos))
	return core.NewVec3(sin*math.Cos(phi), sin*math.Sin(phi), cos)
}

// BeckmannIso is the isotropic Beckmann-Spizzichino distribution
type BeckmannIso struct {
	alpha float64
}

// NewBeckmannIso creates an isotropic Beckmann distribution from perceptual
// roughness
func NewBeckmannIso(roughness float64) *BeckmannIso {
	return &BeckmannIso{alpha: roughnessToAlpha(roughness)}
}

// Distribution evaluates the Beckmann NDF
func (b *BeckmannIso) Distribution(m core.Vec3) float64 {
	cos := m.Z
	if cos <= 0 {
		return 0
	}
	cos2 := cos * cos
	a2 := b.alpha * b.alpha
	return math.Exp((cos2-1)/(a2*cos2)) / (math.Pi * a2 * cos2 * cos2)
}

// ShadowingG1 uses the rational approximation of Walter et al.
func (b *BeckmannIso) ShadowingG1(v, m core.Vec3) float64 {
	cos := v.Z
	if cos*v.Dot(m) <= 0 {
		return 0
	}
	cos = math.Abs(cos)
	if cos >= 1 {
		return 1
	}
	tan := math.Sqrt(1-cos*cos) / cos
	a := 1.0 / (b.alpha * tan)
	if a >= 1.6 {
		return 1
	}
	return (3.535*a + 2.181*a*a) / (1 + 2.276*a + 2.577*a*a)
}

// Shadowing is the separable Smith G
func (b *BeckmannIso) Shadowing(l, v, m core.Vec3) float64 {
	return b.ShadowingG1(l, m) * b.ShadowingG1(v, m)
}

// SampleH draws a half vector from D(m)|m.n|
func (b *BeckmannIso) SampleH(sample core.Vec2) core.Vec3 {
	phi := 2 * math.Pi * sample.Y
	tan2 := -b.alpha * b.alpha * math.Log(1-sample.X)
	cos := 1.0 / math.Sqrt(1.0+tan2)
	sin := math.Sqrt(math.Max(0, 1-cos*cos))
	return core.NewVec3(sin*math.Cos(phi), sin*math.Sin(phi), cos)
}

// GgxAniso is the anisotropic GGX distribution with separate tangent and
// bitangent roughnesses
type GgxAniso struct {
	alphaU float64
	alphaV float64
}

// NewGgxAniso creates an anisotropic GGX distribution from perceptual
// roughnesses along the two tangent directions
func NewGgxAniso(roughnessU, roughnessV float64) *GgxAniso {
	return &GgxAniso{
		alphaU: roughnessToAlpha(roughnessU),
		alphaV: roughnessToAlpha(roughnessV),
	}
}

// Distribution evaluates the anisotropic NDF
func (g *GgxAniso) Distribution(m core.Vec3) float64 {
	cos := m.Z
	if cos <= 0 {
		return 0
	}
	sx := m.X / g.alphaU
	sy := m.Y / g.alphaV
	d := sx*sx + sy*sy + cos*cos
	return 1.0 / (math.Pi * g.alphaU * g.alphaV * d * d)
}

// ShadowingG1 uses the Smith term with direction-dependent alpha
func (g *GgxAniso) ShadowingG1(v, m core.Vec3) float64 {
	cos := v.Z
	if cos*v.Dot(m) <= 0 {
		return 0
	}
	cos = math.Abs(cos)
	if cos >= 1 {
		return 1
	}

	sin2 := 1 - cos*cos
	inv := 1.0 / sin2
	cosPhi2 := v.X * v.X * inv
	sinPhi2 := v.Y * v.Y * inv
	alpha2 := cosPhi2*g.alphaU*g.alphaU + sinPhi2*g.alphaV*g.alphaV
	tan2 := sin2 / (cos * cos)
	return 2.0 / (1.0 + math.Sqrt(1.0+alpha2*tan2))
}

// Shadowing is the separable Smith G
func (g *GgxAniso) Shadowing(l, v, m core.Vec3) float64 {
	return g.ShadowingG1(l, m) * g.ShadowingG1(v, m)
}

// SampleH draws a half vector from the anisotropic NDF
func (g *GgxAniso) SampleH(sample core.Vec2) core.Vec3 {
	phi := math.Atan(g.alphaV / g.alphaU * math.Tan(2*math.Pi*sample.Y+0.5*math.Pi))
	if sample.Y > 0.5 {
		phi += math.Pi
	}
	cosPhi := math.Cos(phi)
	sinPhi := math.Sin(phi)

	inv := cosPhi*cosPhi/(g.alphaU*g.alphaU) + sinPhi*sinPhi/(g.alphaV*g.alphaV)
	tan2 := sample.X / ((1 - sample.X) * inv)
	cos := 1.0 / math.Sqrt(1.0+tan2)
	sin := math.Sqrt(math.Max(0, 1-cos*cos))
	return core.NewVec3(sin*cosPhi, sin*sinPhi, cos)
}

// HalfVectorPdfW converts the NDF sampling density D(m)|m.n| to a solid-angle
// pdf over reflected directions: pdfW(l) = D(m)|m.n| / (4 |v.m|)
func HalfVectorPdfW(mf Microfacet, l, v core.Vec3) float64 {
	h := l.Add(v)
	if h.IsZero() {
		return 0
	}
	m := h.Normalize()
	if m.Z < 0 {
		m = m.Negate()
	}
	vDotM := math.Abs(v.Dot(m))
	if vDotM == 0 {
		return 0
	}
	return mf.Distribution(m) * math.Abs(m.Z) / (4 * vDotM)
}
