package loaders

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/geometry"
)

// plyHeader is the parsed header of a PLY file
type plyHeader struct {
	format      string // "ascii" or "binary_little_endian"
	vertexCount int
	faceCount   int
	vertexProps []string
}

// LoadPlyMesh loads an ASCII or binary little-endian PLY file into a
// TriangleMesh. Vertex normals and texture coordinates are picked up when
// present; faces with more than three vertices are fan-triangulated.
func LoadPlyMesh(path string, transform core.Transform, metadata *core.PrimitiveMetadata) (*geometry.TriangleMesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ply open %q", path)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	header, err := parsePlyHeader(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "ply header %q", path)
	}

	switch header.format {
	case "ascii":
		return readPlyAscii(reader, header, transform, metadata)
	case "binary_little_endian":
		return readPlyBinary(reader, header, transform, metadata)
	default:
		return nil, errors.Errorf("ply format %q not supported", header.format)
	}
}

func parsePlyHeader(reader *bufio.Reader) (*plyHeader, error) {
	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, errors.New("missing ply magic")
	}

	header := &plyHeader{}
	element := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "truncated header")
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			header.format = fields[1]
		case "element":
			element = fields[1]
			count, _ := strconv.Atoi(fields[2])
			if element == "vertex" {
				header.vertexCount = count
			} else if element == "face" {
				header.faceCount = count
			}
		case "property":
			if element == "vertex" && len(fields) >= 3 && fields[1] != "list" {
				header.vertexProps = append(header.vertexProps, fields[len(fields)-1])
			}
		case "end_header":
			return header, nil
		}
	}
}

func propIndex(props []string, name string) int {
	for i, p := range props {
		if p == name {
			return i
		}
	}
	return -1
}

type plyBuffers struct {
	positions []core.Vec3
	normals   []core.Vec3
	uvs       []core.Vec2
	indices   []int
}

func (b *plyBuffers) addVertex(header *plyHeader, values []float64) {
	px := propIndex(header.vertexProps, "x")
	b.positions = append(b.positions, core.NewVec3(values[px], values[px+1], values[px+2]))

	if nx := propIndex(header.vertexProps, "nx"); nx >= 0 {
		b.normals = append(b.normals, core.NewVec3(values[nx], values[nx+1], values[nx+2]))
	}
	if u := propIndex(header.vertexProps, "u"); u >= 0 {
		b.uvs = append(b.uvs, core.NewVec2(values[u], values[u+1]))
	} else if s := propIndex(header.vertexProps, "s"); s >= 0 {
		b.uvs = append(b.uvs, core.NewVec2(values[s], values[s+1]))
	}
}

func (b *plyBuffers) addFace(face []int) {
	for i := 1; i+1 < len(face); i++ {
		b.indices = append(b.indices, face[0], face[i], face[i+1])
	}
}

func (b *plyBuffers) build(header *plyHeader, transform core.Transform, metadata *core.PrimitiveMetadata) *geometry.TriangleMesh {
	normals := b.normals
	if len(normals) != len(b.positions) {
		normals = nil
	}
	uvs := b.uvs
	if len(uvs) != len(b.positions) {
		uvs = nil
	}
	return geometry.NewTriangleMesh(b.positions, normals, uvs, b.indices, transform, metadata)
}

func readPlyAscii(reader *bufio.Reader, header *plyHeader, transform core.Transform, metadata *core.PrimitiveMetadata) (*geometry.TriangleMesh, error) {
	buffers := &plyBuffers{}

	for v := 0; v < header.vertexCount; v++ {
		fields, err := readNonEmptyLine(reader)
		if err != nil {
			return nil, errors.Wrap(err, "truncated vertices")
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			values[i], _ = strconv.ParseFloat(f, 64)
		}
		buffers.addVertex(header, values)
	}

	for f := 0; f < header.faceCount; f++ {
		fields, err := readNonEmptyLine(reader)
		if err != nil {
			return nil, errors.Wrap(err, "truncated faces")
		}
		count, _ := strconv.Atoi(fields[0])
		face := make([]int, 0, count)
		for i := 1; i <= count && i < len(fields); i++ {
			idx, _ := strconv.Atoi(fields[i])
			face = append(face, idx)
		}
		buffers.addFace(face)
	}

	return buffers.build(header, transform, metadata), nil
}

func readNonEmptyLine(reader *bufio.Reader) ([]string, error) {
	for {
		line, err := reader.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func readPlyBinary(reader *bufio.Reader, header *plyHeader, transform core.Transform, metadata *core.PrimitiveMetadata) (*geometry.TriangleMesh, error) {
	buffers := &plyBuffers{}

	values := make([]float64, len(header.vertexProps))
	for v := 0; v < header.vertexCount; v++ {
		for i := range values {
			f, err := readFloat32LE(reader)
			if err != nil {
				return nil, errors.Wrap(err, "truncated vertices")
			}
			values[i] = f
		}
		buffers.addVertex(header, values)
	}

	for f := 0; f < header.faceCount; f++ {
		var count uint8
		if err := binary.Read(reader, binary.LittleEndian, &count); err != nil {
			return nil, errors.Wrap(err, "truncated faces")
		}
		face := make([]int, count)
		for i := range face {
			var idx int32
			if err := binary.Read(reader, binary.LittleEndian, &idx); err != nil {
				return nil, errors.Wrap(err, "truncated face indices")
			}
			face[i] = int(idx)
		}
		buffers.addFace(face)
	}

	return buffers.build(header, transform, metadata), nil
}

func readFloat32LE(reader io.Reader) (float64, error) {
	var buf [4]byte
	if _, err := io.ReadFull(reader, buf[:]); err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))), nil
}
