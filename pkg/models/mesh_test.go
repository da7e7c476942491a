package models

import (
	"strings"
	"testing"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// cubeSource is a 2x2x2 cube around the origin, quads wound counter-clockwise
// from outside, without normals.
const cubeSource = `o cube
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
v -1 -1  1
v  1 -1  1
v  1  1  1
v -1  1  1
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

func loadCube(t *testing.T, smooth bool) *Mesh {
	t.Helper()
	loader := NewOBJLoader()
	loader.SmoothNormals = smooth
	mesh, err := loader.Load(strings.NewReader(cubeSource), "cube.obj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mesh
}

// quad returns the unit square in the z=0 plane as two triangles in the
// stored winding, facing +Z.
func quad() *Mesh {
	m := NewMesh("quad")
	for _, p := range []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0)} {
		m.AddVertex(MeshVertex{Position: p})
	}
	m.AddTriangle(0, 2, 1)
	m.AddTriangle(0, 3, 2)
	return m
}

func TestAddVertexAndTriangle(t *testing.T) {
	m := quad()
	if m.VertexCount() != 4 || m.TriangleCount() != 2 {
		t.Fatalf("counts = %d/%d, want 4/2", m.VertexCount(), m.TriangleCount())
	}
	if idx := m.AddVertex(MeshVertex{Position: math3d.V3(5, 5, 5)}); idx != 4 {
		t.Errorf("AddVertex index = %d, want 4", idx)
	}
	if f := m.Faces[1]; f.V != [3]int{0, 3, 2} || f.Material != -1 {
		t.Errorf("face 1 = %+v, want [0 3 2] without material", f)
	}
	if got := m.GetFace(0); got != [3]int{0, 2, 1} {
		t.Errorf("GetFace(0) = %v", got)
	}
}

func TestFaceNormalFollowsStoredWinding(t *testing.T) {
	m := quad()
	for i, f := range m.Faces {
		if n := m.faceNormal(f); !n.ApproxEqual(math3d.V3(0, 0, 1), 1e-12) {
			t.Errorf("face %d normal = %v, want (0,0,1)", i, n)
		}
	}
	m.CalculateNormals()
	for i, v := range m.Vertices[:4] {
		if v.Normal != math3d.V3(0, 0, 1) {
			t.Errorf("vertex %d normal = %v, want (0,0,1)", i, v.Normal)
		}
	}
}

func TestCubeNormalsPointOutward(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		m := loadCube(t, false)
		for i, f := range m.Faces {
			n := m.faceNormal(f)
			centroid := m.Vertices[f.V[0]].Position.Add(m.Vertices[f.V[1]].Position).Add(m.Vertices[f.V[2]].Position).Scale(1.0 / 3)
			// the normal is the axis the face sits on
			if n.Dot(centroid) < 0.999 {
				t.Errorf("face %d normal %v, centroid %v", i, n, centroid)
			}
		}
		for i, v := range m.Vertices {
			if v.Normal.Dot(v.Position) <= 0 {
				t.Errorf("vertex %d normal %v points inward", i, v.Normal)
			}
		}
	})

	t.Run("smooth", func(t *testing.T) {
		m := loadCube(t, true)
		for i, v := range m.Vertices {
			if d := v.Normal.Dot(v.Position.Normalize()); d < 0.9 {
				t.Errorf("vertex %d normal %v off the corner diagonal (dot %f)", i, v.Normal, d)
			}
		}
	})
}

func TestCloneKeepsScalars(t *testing.T) {
	m := quad()
	m.HasScalars = true
	for i := range m.Vertices {
		m.Vertices[i].Scalar = float64(i) + 0.5
	}
	m.CalculateBounds()

	c := m.Clone()
	m.Vertices[2].Scalar = 99
	m.Faces[0].V = [3]int{3, 3, 3}

	if s, ok := c.GetScalar(2); !ok || s != 2.5 {
		t.Errorf("clone scalar = %v,%v, want 2.5,true", s, ok)
	}
	if c.Faces[0].V != [3]int{0, 2, 1} {
		t.Errorf("clone face shares storage: %v", c.Faces[0].V)
	}
	if lo, hi := c.GetBounds(); lo != math3d.V3(0, 0, 0) || hi != math3d.V3(1, 1, 0) {
		t.Errorf("clone bounds = %v..%v", lo, hi)
	}

	m.HasScalars = false
	if _, ok := m.GetScalar(0); ok {
		t.Error("GetScalar reported data with HasScalars unset")
	}
}

func TestFaceKey(t *testing.T) {
	for _, f := range [][3]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}} {
		if got := faceKey(f[0], f[1], f[2]); got != [3]int{0, 1, 2} {
			t.Errorf("faceKey%v = %v", f, got)
		}
	}
	if got := faceKey(5, 10, 3); got != [3]int{3, 5, 10} {
		t.Errorf("faceKey(5, 10, 3) = %v", got)
	}
}

func TestMeshCleanup(t *testing.T) {
	tests := []struct {
		name      string
		faces     [][3]int
		clean     func(*Mesh) int
		removed   int
		remaining [][3]int
	}{
		{
			name:      "duplicates in any order",
			faces:     [][3]int{{0, 2, 1}, {0, 2, 1}, {1, 0, 2}, {0, 3, 2}},
			clean:     (*Mesh).DeduplicateFaces,
			removed:   2,
			remaining: [][3]int{{0, 2, 1}, {0, 3, 2}},
		},
		{
			name:      "back to back pair",
			faces:     [][3]int{{0, 2, 1}, {0, 1, 2}, {0, 3, 2}},
			clean:     (*Mesh).RemoveInternalFaces,
			removed:   2,
			remaining: [][3]int{{0, 3, 2}},
		},
		{
			name:      "repeated index and zero area",
			faces:     [][3]int{{0, 2, 1}, {0, 0, 1}, {1, 0, 1}, {0, 1, 4}},
			clean:     (*Mesh).RemoveDegenerateFaces,
			removed:   3,
			remaining: [][3]int{{0, 2, 1}},
		},
		{
			name:      "clean all",
			faces:     [][3]int{{0, 2, 1}, {0, 1, 2}, {0, 3, 2}, {0, 3, 2}, {2, 2, 3}},
			clean:     (*Mesh).CleanMesh,
			removed:   4,
			remaining: [][3]int{{0, 2, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quad()
			m.AddVertex(MeshVertex{Position: math3d.V3(2, 0, 0)}) // collinear with 0 and 1
			m.Faces = m.Faces[:0]
			for _, f := range tt.faces {
				m.AddTriangle(f[0], f[1], f[2])
			}
			if got := tt.clean(m); got != tt.removed {
				t.Errorf("removed %d, want %d", got, tt.removed)
			}
			if tt.name == "clean all" {
				// vertices 0, 2 and 3 survive and are renumbered
				if m.VertexCount() != 3 {
					t.Errorf("VertexCount = %d, want 3", m.VertexCount())
				}
			}
			if len(m.Faces) != len(tt.remaining) {
				t.Fatalf("faces = %v, want %v", m.Faces, tt.remaining)
			}
			for i, f := range m.Faces {
				if f.V != tt.remaining[i] {
					t.Errorf("face %d = %v, want %v", i, f.V, tt.remaining[i])
				}
			}
		})
	}
}

func TestLoadCompactsMesh(t *testing.T) {
	// vertex 5 is never used and vertex 6 only by the collinear third face
	path := writeFile(t, "messy.obj", `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 9 9 9
v 2 0 0
f 1 2 3
f 1 3 4
f 1 2 6
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", m.TriangleCount())
	}
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4", m.VertexCount())
	}
	for i, f := range m.Faces {
		for _, idx := range f.V {
			if idx >= m.VertexCount() {
				t.Errorf("face %d index %d not remapped", i, idx)
			}
		}
	}
	if lo, hi := m.GetBounds(); lo != math3d.V3(0, 0, 0) || hi != math3d.V3(1, 1, 0) {
		t.Errorf("bounds = %v..%v, want the unit square", lo, hi)
	}
	// file winding is counter-clockwise from +Z; normals follow it
	for i, v := range m.Vertices {
		if !v.Normal.ApproxEqual(math3d.V3(0, 0, 1), 1e-9) {
			t.Errorf("vertex %d normal = %v, want (0,0,1)", i, v.Normal)
		}
	}
}
