package models

import (
	"strings"
	"testing"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

func TestOBJFaces(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		vertices int
		faces    [][3]int
		wantName string
	}{
		{
			name:     "triangle",
			src:      "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n",
			vertices: 3,
			faces:    [][3]int{{0, 2, 1}},
			wantName: "tri.obj",
		},
		{
			name:     "pentagon fans from the first corner",
			src:      "v 0 0 0\nv 1 0 0\nv 2 1 0\nv 1 2 0\nv 0 1 0\nf 1 2 3 4 5\n",
			vertices: 5,
			faces:    [][3]int{{0, 2, 1}, {0, 3, 2}, {0, 4, 3}},
			wantName: "tri.obj",
		},
		{
			name:     "negative indices count back from the last vertex",
			src:      "v 9 9 9\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n",
			vertices: 3,
			faces:    [][3]int{{0, 2, 1}},
			wantName: "tri.obj",
		},
		{
			name:     "shared corners are merged",
			src:      "o plate\nv 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3\nf 1 3 4\n",
			vertices: 4,
			faces:    [][3]int{{0, 2, 1}, {0, 3, 2}},
			wantName: "plate",
		},
		{
			name:     "same position with different uv splits",
			src:      "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 1\nf 1/1 2/1 3/1\nf 1/2 3/2 2/2\n",
			vertices: 6,
			faces:    [][3]int{{0, 2, 1}, {3, 5, 4}},
			wantName: "tri.obj",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh, err := NewOBJLoader().Load(strings.NewReader(tt.src), "tri.obj")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if mesh.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", mesh.Name, tt.wantName)
			}
			if mesh.VertexCount() != tt.vertices {
				t.Errorf("VertexCount = %d, want %d", mesh.VertexCount(), tt.vertices)
			}
			if len(mesh.Faces) != len(tt.faces) {
				t.Fatalf("faces = %v, want %v", mesh.Faces, tt.faces)
			}
			for i, f := range mesh.Faces {
				if f.V != tt.faces[i] {
					t.Errorf("face %d = %v, want %v", i, f.V, tt.faces[i])
				}
			}
		})
	}
}

func TestOBJSuppliedAttributes(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.25 0.75
vn 0 0 2
f 1/1/1 2//1 3/1/1
`
	mesh, err := NewOBJLoader().Load(strings.NewReader(src), "attrs")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// supplied normals are normalized and never recomputed
	for i := range mesh.Vertices {
		if _, n, _ := mesh.GetVertex(i); n != math3d.V3(0, 0, 1) {
			t.Errorf("vertex %d normal = %v, want (0,0,1)", i, n)
		}
	}
	if _, _, uv := mesh.GetVertex(0); uv != math3d.V2(0.25, 0.75) {
		t.Errorf("vertex 0 uv = %v", uv)
	}
	if _, _, uv := mesh.GetVertex(1); uv != (math3d.Vec2{}) {
		t.Errorf("v//vn vertex uv = %v, want zero", uv)
	}
}

func TestOBJWithoutNormals(t *testing.T) {
	loader := NewOBJLoader()
	loader.CalculateNormals = false
	mesh, err := loader.Load(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), "bare")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mesh.HasNormals() {
		t.Error("normals computed with CalculateNormals off")
	}

	loader.CalculateNormals = true
	loader.SmoothNormals = false
	mesh, err = loader.Load(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), "bare")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// counter-clockwise seen from +Z in the file
	if _, n, _ := mesh.GetVertex(0); n != math3d.V3(0, 0, 1) {
		t.Errorf("normal = %v, want (0,0,1)", n)
	}
}

func TestOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"short vertex", "v 1 2\n", "line 1: invalid vertex"},
		{"bad float", "# c\nv 1 x 3\n", "line 2: invalid vertex component"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n", "line 3: face needs at least 3 vertices"},
		{"out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", "line 4: position index 4 out of range"},
		{"bad index", "v 0 0 0\nf a 1 1\n", "line 2: invalid vertex index"},
		{"bad normal index", "v 0 0 0\nf 1//n 1 1\n", "invalid normal index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOBJLoader().Load(strings.NewReader(tt.src), "bad.obj")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}
