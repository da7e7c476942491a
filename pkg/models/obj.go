package models

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// OBJLoader reads Wavefront OBJ geometry: positions, normals, texture
// coordinates and polygonal faces. Materials and groups are ignored.
type OBJLoader struct {
	CalculateNormals bool // compute normals when the file has none
	SmoothNormals    bool // average normals per vertex instead of per face
}

// NewOBJLoader returns a loader that fills in smooth normals when the file
// carries none, so the Gouraud and Phong rows differ from the flat row.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadFS loads an OBJ file from a filesystem.
func (l *OBJLoader) LoadFS(fsys fs.FS, path string) (*Mesh, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OBJ file: %w", err)
	}
	defer f.Close()

	return l.Load(f, path)
}

type objVertexKey struct {
	pos, uv, normal int
}

// objParser holds the 0-indexed attribute pools while a file is scanned.
type objParser struct {
	mesh      *Mesh
	positions []math3d.Vec3
	normals   []math3d.Vec3
	uvs       []math3d.Vec2
	vertexMap map[objVertexKey]int
}

// Load parses an OBJ from a reader.
func (l *OBJLoader) Load(r io.Reader, name string) (*Mesh, error) {
	p := &objParser{
		mesh:      NewMesh(name),
		vertexMap: make(map[objVertexKey]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if err := p.parseLine(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read OBJ: %w", err)
	}

	mesh := p.mesh
	mesh.CalculateBounds()

	if l.CalculateNormals && len(p.normals) == 0 {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	return mesh, nil
}

func (p *objParser) parseLine(fields []string) error {
	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3, "vertex")
		if err != nil {
			return err
		}
		p.positions = append(p.positions, math3d.V3(v[0], v[1], v[2]))

	case "vt":
		v, err := parseFloats(fields[1:], 2, "texture coord")
		if err != nil {
			return err
		}
		p.uvs = append(p.uvs, math3d.V2(v[0], v[1]))

	case "vn":
		v, err := parseFloats(fields[1:], 3, "normal")
		if err != nil {
			return err
		}
		p.normals = append(p.normals, math3d.V3(v[0], v[1], v[2]).Normalize())

	case "f":
		return p.parseFace(fields[1:])

	case "o", "g":
		if len(fields) > 1 {
			p.mesh.Name = fields[1]
		}

	default:
		// mtllib, usemtl, s, l, p and unknown directives carry nothing we draw
	}
	return nil
}

func (p *objParser) parseFace(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("face needs at least 3 vertices")
	}

	faceVerts := make([]int, 0, len(refs))
	for _, ref := range refs {
		posIdx, uvIdx, normalIdx, err := parseFaceVertex(ref)
		if err != nil {
			return err
		}

		posIdx = resolveIndex(posIdx, len(p.positions))
		uvIdx = resolveIndex(uvIdx, len(p.uvs))
		normalIdx = resolveIndex(normalIdx, len(p.normals))

		if posIdx < 0 || posIdx >= len(p.positions) {
			return fmt.Errorf("position index %d out of range", posIdx+1)
		}

		key := objVertexKey{posIdx, uvIdx, normalIdx}
		vertIdx, exists := p.vertexMap[key]
		if !exists {
			vert := MeshVertex{Position: p.positions[posIdx]}
			if uvIdx >= 0 && uvIdx < len(p.uvs) {
				vert.UV = p.uvs[uvIdx]
			}
			if normalIdx >= 0 && normalIdx < len(p.normals) {
				vert.Normal = p.normals[normalIdx]
			}
			vertIdx = p.mesh.AddVertex(vert)
			p.vertexMap[key] = vertIdx
		}
		faceVerts = append(faceVerts, vertIdx)
	}

	// Fan triangulation. OBJ is CCW front-facing; the rasterizer works in a
	// Y-down screen space, so winding is reversed here like the other loaders.
	for i := 1; i < len(faceVerts)-1; i++ {
		p.mesh.AddTriangle(faceVerts[0], faceVerts[i+1], faceVerts[i])
	}
	return nil
}

func parseFloats(fields []string, n int, what string) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("invalid %s (need %d values)", what, n)
	}
	out := make([]float64, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s component %q: %w", what, fields[i], err)
		}
		out[i] = f
	}
	return out, nil
}

// parseFaceVertex parses a face vertex in format: v, v/vt, v/vt/vn, or v//vn
// Returns 1-indexed values (0 means not specified)
func parseFaceVertex(s string) (pos, uv, normal int, err error) {
	parts := strings.Split(s, "/")

	pos, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid vertex index: %s", parts[0])
	}

	if len(parts) > 1 && parts[1] != "" {
		uv, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid texture index: %s", parts[1])
		}
	}

	if len(parts) > 2 && parts[2] != "" {
		normal, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid normal index: %s", parts[2])
		}
	}

	return pos, uv, normal, nil
}

// resolveIndex converts OBJ 1-indexed (or negative) index to 0-indexed.
// Returns -1 if index was 0 (not specified).
func resolveIndex(idx, count int) int {
	if idx == 0 {
		return -1
	}
	if idx < 0 {
		return count + idx
	}
	return idx - 1
}
