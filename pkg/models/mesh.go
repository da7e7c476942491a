// Package models provides the triangle meshes shown in the grid: procedural
// sources (sphere, iso-surface) and readers for OBJ, STL and glTF files.
package models

import (
	"github.com/taigrr/shadegrid/pkg/math3d"
)

// Mesh is an indexed triangle mesh with optional per-vertex scalars.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// HasScalars is set when Vertices[i].Scalar carries data (contour values).
	HasScalars bool

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Scalar   float64
}

// Face is a triangle: vertex indices plus a material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material is the subset of a glTF PBR material kept for reporting.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0-1 range
	Metallic  float64
	Roughness float64
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
	}
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v MeshVertex) int {
	m.Vertices = append(m.Vertices, v)
	return len(m.Vertices) - 1
}

// AddTriangle appends a face without material.
func (m *Mesh) AddTriangle(a, b, c int) {
	m.Faces = append(m.Faces, Face{V: [3]int{a, b, c}, Material: -1})
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateNormals assigns each face's normal to its vertices.
// Shared vertices end up with the normal of the last face that touches them.
func (m *Mesh) CalculateNormals() {
	for i := range m.Faces {
		f := &m.Faces[i]
		normal := m.faceNormal(*f)
		m.Vertices[f.V[0]].Normal = normal
		m.Vertices[f.V[1]].Normal = normal
		m.Vertices[f.V[2]].Normal = normal
	}
}

// CalculateSmoothNormals computes area-weighted averaged normals.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		normal := v2.Sub(v0).Cross(v1.Sub(v0)) // area-weighted, normalized below

		m.Vertices[f.V[0]].Normal = m.Vertices[f.V[0]].Normal.Add(normal)
		m.Vertices[f.V[1]].Normal = m.Vertices[f.V[1]].Normal.Add(normal)
		m.Vertices[f.V[2]].Normal = m.Vertices[f.V[2]].Normal.Add(normal)
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// faceNormal is the outward unit normal of f. Faces are stored clockwise as
// seen from outside (the readers reverse the file winding), so the cross
// product runs v2 before v1.
func (m *Mesh) faceNormal(f Face) math3d.Vec3 {
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v2.Sub(v0).Cross(v1.Sub(v0)).Normalize()
}

// HasNormals reports whether any vertex carries a usable normal.
func (m *Mesh) HasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal.Len() > 0.001 {
			return true
		}
	}
	return false
}

// Transform applies a transformation matrix to all vertices.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		// Rotation part only; non-uniform scale would need the inverse transpose
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:       m.Name,
		Vertices:   make([]MeshVertex, len(m.Vertices)),
		Faces:      make([]Face, len(m.Faces)),
		Materials:  make([]Material, len(m.Materials)),
		HasScalars: m.HasScalars,
		BoundsMin:  m.BoundsMin,
		BoundsMax:  m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	return clone
}

// GetVertex returns the position, normal, and UV for vertex i.
// Implements render.MeshRenderer.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetFace returns the vertex indices for face i.
// Implements render.MeshRenderer.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetBounds returns the axis-aligned bounding box.
// Implements render.BoundedMeshRenderer.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}

// GetScalar returns the scalar attached to vertex i.
// Implements render.ScalarMeshRenderer.
func (m *Mesh) GetScalar(i int) (float64, bool) {
	if !m.HasScalars {
		return 0, false
	}
	return m.Vertices[i].Scalar, true
}

// faceKey creates a canonical key for a face by sorting vertex indices.
// Two faces with the same vertices (in any order) will have the same key.
func faceKey(v0, v1, v2 int) [3]int {
	if v0 > v1 {
		v0, v1 = v1, v0
	}
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	if v0 > v1 {
		v0, v1 = v1, v0
	}
	return [3]int{v0, v1, v2}
}

// DeduplicateFaces removes faces that repeat the same three vertices
// regardless of winding, keeping the first occurrence.
// Returns the number of faces removed.
func (m *Mesh) DeduplicateFaces() int {
	if len(m.Faces) == 0 {
		return 0
	}

	seen := make(map[[3]int]bool)
	kept := make([]Face, 0, len(m.Faces))

	for _, f := range m.Faces {
		key := faceKey(f.V[0], f.V[1], f.V[2])
		if !seen[key] {
			seen[key] = true
			kept = append(kept, f)
		}
	}

	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// RemoveInternalFaces removes pairs of faces over the same vertices whose
// normals point in opposite directions (glued-together shells).
// Returns the number of faces removed.
func (m *Mesh) RemoveInternalFaces() int {
	if len(m.Faces) == 0 {
		return 0
	}

	type faceInfo struct {
		index  int
		normal math3d.Vec3
	}
	groups := make(map[[3]int][]faceInfo)

	for i, f := range m.Faces {
		key := faceKey(f.V[0], f.V[1], f.V[2])
		groups[key] = append(groups[key], faceInfo{index: i, normal: m.faceNormal(f)})
	}

	toRemove := make(map[int]bool)
	for _, faceList := range groups {
		if len(faceList) < 2 {
			continue
		}
		for i := range faceList {
			if toRemove[faceList[i].index] {
				continue
			}
			for j := i + 1; j < len(faceList); j++ {
				if toRemove[faceList[j].index] {
					continue
				}
				if faceList[i].normal.Dot(faceList[j].normal) < -0.99 {
					toRemove[faceList[i].index] = true
					toRemove[faceList[j].index] = true
					break
				}
			}
		}
	}

	if len(toRemove) == 0 {
		return 0
	}

	kept := make([]Face, 0, len(m.Faces)-len(toRemove))
	for i, f := range m.Faces {
		if !toRemove[i] {
			kept = append(kept, f)
		}
	}

	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// CleanMesh removes degenerate, internal and duplicate faces (in that order:
// dedup would otherwise hide internal pairs) and compacts the vertex array.
// Returns the total number of faces removed.
func (m *Mesh) CleanMesh() int {
	removed := m.RemoveDegenerateFaces()
	removed += m.RemoveInternalFaces()
	removed += m.DeduplicateFaces()
	m.RemoveUnreferencedVertices()
	return removed
}

// RemoveDegenerateFaces removes faces with repeated indices or near-zero area.
// Returns the number of faces removed.
func (m *Mesh) RemoveDegenerateFaces() int {
	if len(m.Faces) == 0 {
		return 0
	}

	const minArea = 1e-10
	kept := make([]Face, 0, len(m.Faces))

	for _, f := range m.Faces {
		if f.V[0] == f.V[1] || f.V[1] == f.V[2] || f.V[0] == f.V[2] {
			continue
		}

		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		area := v1.Sub(v0).Cross(v2.Sub(v0)).Len() * 0.5

		if area > minArea {
			kept = append(kept, f)
		}
	}

	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// RemoveUnreferencedVertices compacts the vertex array and remaps face indices.
func (m *Mesh) RemoveUnreferencedVertices() {
	if len(m.Faces) == 0 || len(m.Vertices) == 0 {
		return
	}

	referenced := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		referenced[f.V[0]] = true
		referenced[f.V[1]] = true
		referenced[f.V[2]] = true
	}

	newIndex := make([]int, len(m.Vertices))
	newVertices := make([]MeshVertex, 0, len(m.Vertices))
	for i, v := range m.Vertices {
		if referenced[i] {
			newIndex[i] = len(newVertices)
			newVertices = append(newVertices, v)
		}
	}

	for i := range m.Faces {
		m.Faces[i].V[0] = newIndex[m.Faces[i].V[0]]
		m.Faces[i].V[1] = newIndex[m.Faces[i].V[1]]
		m.Faces[i].V[2] = newIndex[m.Faces[i].V[2]]
	}

	m.Vertices = newVertices
}
