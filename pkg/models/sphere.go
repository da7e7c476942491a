package models

import (
	"fmt"
	"math"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// SphereSource describes a latitude/longitude sphere with poles on the Z axis.
type SphereSource struct {
	Center          math3d.Vec3
	Radius          float64
	ThetaResolution int // points around each latitude ring
	PhiResolution   int // latitude steps from pole to pole, poles included
}

// NewSphereSource returns the default sphere: radius 0.5 at the origin, 8x8.
func NewSphereSource() *SphereSource {
	return &SphereSource{
		Radius:          0.5,
		ThetaResolution: 8,
		PhiResolution:   8,
	}
}

// Build generates the sphere mesh with exact radial normals.
// The mesh has 2 + theta*(phi-2) vertices and 2*theta*(phi-2) triangles.
func (s *SphereSource) Build() (*Mesh, error) {
	theta, phi := s.ThetaResolution, s.PhiResolution
	if theta < 3 || phi < 3 || s.Radius <= 0 {
		return nil, fmt.Errorf("invalid sphere: theta=%d phi=%d radius=%g", theta, phi, s.Radius)
	}

	mesh := NewMesh("sphere")
	point := func(dir math3d.Vec3) int {
		return mesh.AddVertex(MeshVertex{
			Position: s.Center.Add(dir.Scale(s.Radius)),
			Normal:   dir,
		})
	}

	north := point(math3d.V3(0, 0, 1))
	south := point(math3d.V3(0, 0, -1))

	rings := phi - 2
	ring := func(j, i int) int {
		return 2 + j*theta + i%theta
	}
	for j := range rings {
		p := float64(j+1) * math.Pi / float64(phi-1)
		for i := range theta {
			t := float64(i) * 2 * math.Pi / float64(theta)
			point(math3d.V3(math.Sin(p)*math.Cos(t), math.Sin(p)*math.Sin(t), math.Cos(p)))
		}
	}

	for i := range theta {
		addOutward(mesh, north, ring(0, i), ring(0, i+1))
		addOutward(mesh, south, ring(rings-1, i+1), ring(rings-1, i))
	}
	for j := range rings - 1 {
		for i := range theta {
			a, b := ring(j, i), ring(j+1, i)
			c, d := ring(j+1, i+1), ring(j, i+1)
			addOutward(mesh, a, b, c)
			addOutward(mesh, a, c, d)
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// addOutward adds a triangle given counter-clockwise as seen from outside,
// flipping it into the loaders' winding convention.
func addOutward(m *Mesh, a, b, c int) {
	m.AddTriangle(a, c, b)
}
