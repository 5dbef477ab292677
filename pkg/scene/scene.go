package scene

import (
	"github.com/arvoss/go-pathtracer/pkg/accel"
	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/emitter"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// AccelType selects the ray-scene acceleration structure
type AccelType string

const (
	AccelBvh           AccelType = "bvh"
	AccelIndexedKdtree AccelType = "indexed-kd-tree"
)

// Occluder is an acceleration structure that answers both closest-hit and
// any-hit queries
type Occluder interface {
	core.Intersectable
	IsOccluding(ray *core.Ray) bool
}

// Description is the input to cooking: the flat primitive pool with its
// metadata arena, the surface emitters, an optional environment radiance and
// the camera. The scene owns the arenas; primitives refer to metadata
// non-owningly.
type Description struct {
	Primitives         []core.Primitive
	Metadata           []*core.PrimitiveMetadata
	Emitters           []core.Emitter
	BackgroundRadiance texture.Texture // nil for no environment
	Camera             core.Camera
	Accel              AccelType
}

// Scene is the cooked, immutable view the estimators render from. It is safe
// for concurrent lock-free reads for the duration of a render.
type Scene struct {
	primitives []core.Primitive
	metadata   []*core.PrimitiveMetadata
	emitters   []core.Emitter
	background *emitter.BackgroundEmitter
	sampler    *emitter.PowerWeightedSampler
	camera     core.Camera
	accel      Occluder
	worldBound core.AABB
}

// Cook builds the acceleration structure and the emitter sampler and freezes
// the scene
func Cook(desc Description) *Scene {
	worldBound := core.EmptyAABB()
	for _, prim := range desc.Primitives {
		worldBound = worldBound.Union(prim.CalcAABB())
	}

	var structure Occluder
	switch desc.Accel {
	case AccelIndexedKdtree:
		structure = accel.NewIndexedKdtree(desc.Primitives, accel.DefaultIndexedKdtreeParams())
	default:
		structure = accel.NewBvh(desc.Primitives)
	}

	emitters := make([]core.Emitter, 0, len(desc.Emitters)+1)
	emitters = append(emitters, desc.Emitters...)

	var background *emitter.BackgroundEmitter
	if desc.BackgroundRadiance != nil {
		background = emitter.NewBackgroundEmitter(desc.BackgroundRadiance, worldBound)
		emitters = append(emitters, background)
	}

	return &Scene{
		primitives: desc.Primitives,
		metadata:   desc.Metadata,
		emitters:   emitters,
		background: background,
		sampler:    emitter.NewPowerWeightedSampler(emitters),
		camera:     desc.Camera,
		accel:      structure,
		worldBound: worldBound,
	}
}

// CalcIntersection finds the closest hit and completes its detail. The probe
// lives on the caller's stack; detail computation runs only for the accepted
// hit.
func (s *Scene) CalcIntersection(ray *core.Ray, detail *core.HitDetail) bool {
	var probe core.HitProbe
	probe.Clear()
	if !s.accel.IsIntersecting(ray, &probe) {
		return false
	}
	probe.Current().CalcIntersectionDetail(ray, &probe, detail)
	return true
}

// IsOccluding answers a shadow-ray query
func (s *Scene) IsOccluding(ray *core.Ray) bool {
	return s.accel.IsOccluding(ray)
}

// Primitives returns the cooked primitive pool
func (s *Scene) Primitives() []core.Primitive {
	return s.primitives
}

// Emitters returns every emitter including the background
func (s *Scene) Emitters() []core.Emitter {
	return s.emitters
}

// Background returns the environment emitter, or nil
func (s *Scene) Background() *emitter.BackgroundEmitter {
	return s.background
}

// EmitterSampler returns the power-weighted emitter selector
func (s *Scene) EmitterSampler() *emitter.PowerWeightedSampler {
	return s.sampler
}

// Camera returns the scene camera
func (s *Scene) Camera() core.Camera {
	return s.camera
}

// WorldBound returns the union of all primitive bounds
func (s *Scene) WorldBound() core.AABB {
	return s.worldBound
}
