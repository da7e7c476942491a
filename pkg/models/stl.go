package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// STLLoader loads STL (stereolithography) files in both ASCII and binary formats.
type STLLoader struct {
	SmoothNormals  bool    // average normals per vertex
	NoDedupe       bool    // each triangle gets its own three vertices
	CleanMesh      bool    // remove degenerate/duplicate/internal faces after loading
	MergeTolerance float64 // vertex merge distance; 0 means exact match
}

// NewSTLLoader creates a new STL loader with default settings.
func NewSTLLoader() *STLLoader {
	return &STLLoader{}
}

// quantizedKey is a hashable grid-snapped position, so float32 noise does
// not split vertices that should be shared.
type quantizedKey struct {
	x, y, z int64
}

func quantizePosition(pos math3d.Vec3, tolerance float64) quantizedKey {
	if tolerance <= 0 {
		tolerance = 1e-12
	}
	scale := 1.0 / tolerance
	return quantizedKey{
		x: int64(math.Round(pos.X * scale)),
		y: int64(math.Round(pos.Y * scale)),
		z: int64(math.Round(pos.Z * scale)),
	}
}

// stlBuilder accumulates facets, merging vertices unless NoDedupe is set.
type stlBuilder struct {
	loader    *STLLoader
	mesh      *Mesh
	vertexMap map[quantizedKey]int
}

func (l *STLLoader) newBuilder(name string) *stlBuilder {
	return &stlBuilder{
		loader:    l,
		mesh:      NewMesh(name),
		vertexMap: make(map[quantizedKey]int),
	}
}

func (b *stlBuilder) vertex(pos, normal math3d.Vec3) int {
	if b.loader.NoDedupe {
		return b.mesh.AddVertex(MeshVertex{Position: pos, Normal: normal})
	}
	key := quantizePosition(pos, b.loader.MergeTolerance)
	if idx, ok := b.vertexMap[key]; ok {
		// Accumulate for averaging in finish
		b.mesh.Vertices[idx].Normal = b.mesh.Vertices[idx].Normal.Add(normal)
		return idx
	}
	idx := b.mesh.AddVertex(MeshVertex{Position: pos, Normal: normal})
	b.vertexMap[key] = idx
	return idx
}

// facet adds one triangle, reversing winding to match the OBJ and glTF loaders.
func (b *stlBuilder) facet(v [3]int) {
	b.mesh.AddTriangle(v[0], v[2], v[1])
}

func (b *stlBuilder) finish() *Mesh {
	m := b.mesh
	if !b.loader.NoDedupe {
		for i := range m.Vertices {
			m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
		}
	}
	m.CalculateBounds()
	if b.loader.SmoothNormals {
		m.CalculateSmoothNormals()
	}
	if b.loader.CleanMesh {
		m.CleanMesh()
	}
	return m
}

// LoadFS loads an STL file from a filesystem.
func (l *STLLoader) LoadFS(fsys fs.FS, path string) (*Mesh, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read STL file: %w", err)
	}
	return l.LoadBytes(data, path)
}

// LoadBytes parses STL from a byte slice.
func (l *STLLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	if isBinarySTL(data) {
		return l.loadBinary(data, name)
	}
	return l.loadASCII(data, name)
}

// Load parses STL from a reader. The whole stream is read to detect the format.
func (l *STLLoader) Load(r io.Reader, name string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read STL data: %w", err)
	}
	return l.LoadBytes(data, name)
}

// isBinarySTL detects binary STL: an 80-byte header then a triangle count
// that matches the file size. ASCII files start with "solid", but so do
// some binary headers, hence the size check.
func isBinarySTL(data []byte) bool {
	if len(data) < 84 {
		return false
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		triCount := binary.LittleEndian.Uint32(data[80:84])
		return uint64(len(data)) == 84+uint64(triCount)*50
	}

	return true
}

func (l *STLLoader) loadBinary(data []byte, name string) (*Mesh, error) {
	if len(data) < 84 {
		return nil, fmt.Errorf("binary STL too short: %d bytes", len(data))
	}

	triCount := binary.LittleEndian.Uint32(data[80:84])
	expectedSize := 84 + uint64(triCount)*50
	if uint64(len(data)) < expectedSize {
		return nil, fmt.Errorf("binary STL truncated: expected %d bytes, got %d", expectedSize, len(data))
	}

	b := l.newBuilder(name)
	readVec := func(off int) math3d.Vec3 {
		return math3d.V3(
			float64(readFloat32LE(data[off:])),
			float64(readFloat32LE(data[off+4:])),
			float64(readFloat32LE(data[off+8:])),
		)
	}

	offset := 84
	for range triCount {
		normal := readVec(offset)
		offset += 12

		var faceVerts [3]int
		for v := range 3 {
			faceVerts[v] = b.vertex(readVec(offset), normal)
			offset += 12
		}
		offset += 2 // attribute byte count

		b.facet(faceVerts)
	}

	return b.finish(), nil
}

func readFloat32LE(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func (l *STLLoader) loadASCII(data []byte, name string) (*Mesh, error) {
	b := l.newBuilder(name)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	var currentNormal math3d.Vec3
	var faceVerts []int
	inFacet := false
	inLoop := false

	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				b.mesh.Name = fields[1]
			}

		case "facet":
			if len(fields) >= 5 && strings.ToLower(fields[1]) == "normal" {
				n, err := parseSTLTriple(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid normal: %w", lineNum, err)
				}
				currentNormal = n.Normalize()
			}
			inFacet = true
			faceVerts = nil

		case "outer":
			if len(fields) >= 2 && strings.ToLower(fields[1]) == "loop" {
				inLoop = true
			}

		case "vertex":
			if !inFacet || !inLoop {
				return nil, fmt.Errorf("line %d: vertex outside facet/loop", lineNum)
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs x y z", lineNum)
			}
			pos, err := parseSTLTriple(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex: %w", lineNum, err)
			}
			faceVerts = append(faceVerts, b.vertex(pos, currentNormal))

		case "endloop":
			inLoop = false

		case "endfacet":
			if len(faceVerts) >= 3 {
				b.facet([3]int{faceVerts[0], faceVerts[1], faceVerts[2]})
			}
			inFacet = false
			faceVerts = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ASCII STL: %w", err)
	}

	return b.finish(), nil
}

func parseSTLTriple(fields []string) (math3d.Vec3, error) {
	var v [3]float64
	for i := range 3 {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, err
		}
		v[i] = f
	}
	return math3d.V3(v[0], v[1], v[2]), nil
}
