package loaders

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/geometry"
)

// LoadGltfMeshes opens a .glb / .gltf file and returns one TriangleMesh per
// mesh primitive, all referencing the given metadata record. Materials and
// textures embedded in the file are ignored; the caller assigns optics.
func LoadGltfMeshes(path string, transform core.Transform, metadata *core.PrimitiveMetadata) ([]*geometry.TriangleMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "gltf open %q", path)
	}

	var meshes []*geometry.TriangleMesh
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			loaded, err := loadGltfPrimitive(doc, prim, transform, metadata)
			if err != nil {
				return nil, errors.Wrapf(err, "gltf mesh %q", mesh.Name)
			}
			if loaded != nil {
				meshes = append(meshes, loaded)
			}
		}
	}
	return meshes, nil
}

func loadGltfPrimitive(doc *gltf.Document, prim *gltf.Primitive, transform core.Transform, metadata *core.PrimitiveMetadata) (*geometry.TriangleMesh, error) {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, nil // point/line primitives carry no renderable surface
	}

	rawPositions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], nil)
	if err != nil {
		return nil, errors.Wrap(err, "read positions")
	}
	positions := make([]core.Vec3, len(rawPositions))
	for i, p := range rawPositions {
		positions[i] = core.NewVec3(float64(p[0]), float64(p[1]), float64(p[2]))
	}

	var normals []core.Vec3
	if normalIndex, ok := prim.Attributes["NORMAL"]; ok {
		rawNormals, err := modeler.ReadNormal(doc, doc.Accessors[normalIndex], nil)
		if err != nil {
			return nil, errors.Wrap(err, "read normals")
		}
		normals = make([]core.Vec3, len(rawNormals))
		for i, n := range rawNormals {
			normals[i] = core.NewVec3(float64(n[0]), float64(n[1]), float64(n[2]))
		}
	}

	var uvs []core.Vec2
	if uvIndex, ok := prim.Attributes["TEXCOORD_0"]; ok {
		rawUvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIndex], nil)
		if err != nil {
			return nil, errors.Wrap(err, "read texcoords")
		}
		uvs = make([]core.Vec2, len(rawUvs))
		for i, uv := range rawUvs {
			// glTF uv origin is top-left; the film convention is bottom-left
			uvs[i] = core.NewVec2(float64(uv[0]), 1.0-float64(uv[1]))
		}
	}

	var indices []int
	if prim.Indices != nil {
		rawIndices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, errors.Wrap(err, "read indices")
		}
		indices = make([]int, len(rawIndices))
		for i, idx := range rawIndices {
			indices[i] = int(idx)
		}
	} else {
		indices = make([]int, len(positions))
		for i := range indices {
			indices[i] = i
		}
	}

	return geometry.NewTriangleMesh(positions, normals, uvs, indices, transform, metadata), nil
}
