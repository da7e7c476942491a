package models

import (
	"fmt"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// ImplicitFunction is a scalar field with an analytic gradient.
type ImplicitFunction interface {
	Evaluate(p math3d.Vec3) float64
	Gradient(p math3d.Vec3) math3d.Vec3
}

// Quadric is F(x,y,z) = a0*x² + a1*y² + a2*z² + a3*xy + a4*yz + a5*xz + a6*x + a7*y + a8*z + a9.
type Quadric struct {
	Coefficients [10]float64
}

// NewQuadric creates a quadric from its ten coefficients.
func NewQuadric(c ...float64) (*Quadric, error) {
	if len(c) != 10 {
		return nil, fmt.Errorf("quadric needs 10 coefficients, got %d", len(c))
	}
	q := &Quadric{}
	copy(q.Coefficients[:], c)
	return q, nil
}

// Evaluate returns F(p).
func (q *Quadric) Evaluate(p math3d.Vec3) float64 {
	a := q.Coefficients
	return a[0]*p.X*p.X + a[1]*p.Y*p.Y + a[2]*p.Z*p.Z +
		a[3]*p.X*p.Y + a[4]*p.Y*p.Z + a[5]*p.X*p.Z +
		a[6]*p.X + a[7]*p.Y + a[8]*p.Z + a[9]
}

// Gradient returns ∇F(p).
func (q *Quadric) Gradient(p math3d.Vec3) math3d.Vec3 {
	a := q.Coefficients
	return math3d.V3(
		2*a[0]*p.X+a[3]*p.Y+a[5]*p.Z+a[6],
		2*a[1]*p.Y+a[3]*p.X+a[4]*p.Z+a[7],
		2*a[2]*p.Z+a[4]*p.Y+a[5]*p.X+a[8],
	)
}

// Volume is a scalar field sampled on a regular grid, X varying fastest.
type Volume struct {
	Dims     [3]int
	Min, Max math3d.Vec3
	Values   []float64
}

// SampleFunction evaluates fn on a dims[0] x dims[1] x dims[2] grid spanning [min, max].
func SampleFunction(fn ImplicitFunction, dims [3]int, min, max math3d.Vec3) (*Volume, error) {
	for _, d := range dims {
		if d < 2 {
			return nil, fmt.Errorf("sample dimensions must be >= 2, got %v", dims)
		}
	}
	v := &Volume{
		Dims:   dims,
		Min:    min,
		Max:    max,
		Values: make([]float64, dims[0]*dims[1]*dims[2]),
	}
	for k := range dims[2] {
		for j := range dims[1] {
			for i := range dims[0] {
				v.Values[v.index(i, j, k)] = fn.Evaluate(v.Point(i, j, k))
			}
		}
	}
	return v, nil
}

func (v *Volume) index(i, j, k int) int {
	return i + v.Dims[0]*(j+v.Dims[1]*k)
}

// Point returns the world position of grid node (i, j, k).
func (v *Volume) Point(i, j, k int) math3d.Vec3 {
	step := v.Max.Sub(v.Min)
	return math3d.V3(
		v.Min.X+step.X*float64(i)/float64(v.Dims[0]-1),
		v.Min.Y+step.Y*float64(j)/float64(v.Dims[1]-1),
		v.Min.Z+step.Z*float64(k)/float64(v.Dims[2]-1),
	)
}

// At returns the sample at grid node (i, j, k).
func (v *Volume) At(i, j, k int) float64 {
	return v.Values[v.index(i, j, k)]
}

// ContourValues returns n values evenly spaced over [lo, hi].
// A single value is lo.
func ContourValues(n int, lo, hi float64) []float64 {
	if n <= 0 {
		return nil
	}
	values := make([]float64, n)
	incr := 0.0
	if n > 1 {
		incr = (hi - lo) / float64(n-1)
	}
	for i := range values {
		values[i] = lo + float64(i)*incr
	}
	return values
}

// Cube corner offsets; corner c sits at (i+dx, j+dy, k+dz).
var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// Six tetrahedra around the 0-6 diagonal. Neighbouring cubes split their
// shared faces along the same diagonal, so the surface is crack-free.
var cubeTetrahedra = [6][4]int{
	{0, 1, 2, 6}, {0, 2, 3, 6}, {0, 3, 7, 6},
	{0, 7, 4, 6}, {0, 4, 5, 6}, {0, 5, 1, 6},
}

type isoEdge struct {
	a, b  int // grid node indices, a < b
	level int
}

// contourer extracts iso-surfaces with marching tetrahedra, sharing each
// edge crossing between the tetrahedra that touch it.
type contourer struct {
	vol   *Volume
	fn    ImplicitFunction
	mesh  *Mesh
	edges map[isoEdge]int
}

// Contour extracts one surface per value from vol. Vertices carry the
// contour value as their scalar. When fn is non-nil its gradient supplies
// the normals, otherwise central differences of the samples are used.
func Contour(vol *Volume, fn ImplicitFunction, values []float64) *Mesh {
	c := &contourer{
		vol:   vol,
		fn:    fn,
		mesh:  NewMesh("isosurface"),
		edges: make(map[isoEdge]int),
	}
	c.mesh.HasScalars = true

	for level, iso := range values {
		for k := range vol.Dims[2] - 1 {
			for j := range vol.Dims[1] - 1 {
				for i := range vol.Dims[0] - 1 {
					c.cube(i, j, k, level, iso)
				}
			}
		}
	}

	c.mesh.RemoveDegenerateFaces()
	c.mesh.RemoveUnreferencedVertices()
	c.mesh.CalculateBounds()
	return c.mesh
}

func (c *contourer) cube(i, j, k, level int, iso float64) {
	var node [8]int
	var val [8]float64
	for n, off := range cubeCorners {
		node[n] = c.vol.index(i+off[0], j+off[1], k+off[2])
		val[n] = c.vol.Values[node[n]]
	}

	for _, tet := range cubeTetrahedra {
		var in, out []int
		for _, corner := range tet {
			if val[corner] >= iso {
				in = append(in, node[corner])
			} else {
				out = append(out, node[corner])
			}
		}

		switch len(in) {
		case 1:
			c.triangle(
				c.crossing(in[0], out[0], level, iso),
				c.crossing(in[0], out[1], level, iso),
				c.crossing(in[0], out[2], level, iso))
		case 3:
			c.triangle(
				c.crossing(out[0], in[0], level, iso),
				c.crossing(out[0], in[1], level, iso),
				c.crossing(out[0], in[2], level, iso))
		case 2:
			ac := c.crossing(in[0], out[0], level, iso)
			ad := c.crossing(in[0], out[1], level, iso)
			bd := c.crossing(in[1], out[1], level, iso)
			bc := c.crossing(in[1], out[0], level, iso)
			c.triangle(ac, ad, bd)
			c.triangle(ac, bd, bc)
		}
	}
}

// crossing returns the vertex where the iso value crosses the edge between
// two grid nodes, creating it on first use.
func (c *contourer) crossing(a, b, level int, iso float64) int {
	key := isoEdge{a: min(a, b), b: max(a, b), level: level}
	if idx, ok := c.edges[key]; ok {
		return idx
	}

	fa, fb := c.vol.Values[key.a], c.vol.Values[key.b]
	t := 0.5
	if fb != fa {
		t = (iso - fa) / (fb - fa)
	}
	pa, pb := c.nodePoint(key.a), c.nodePoint(key.b)
	pos := pa.Lerp(pb, t)

	idx := c.mesh.AddVertex(MeshVertex{
		Position: pos,
		Normal:   c.gradient(pos, key.a, key.b, t).Normalize(),
		Scalar:   iso,
	})
	c.edges[key] = idx
	return idx
}

func (c *contourer) nodePoint(n int) math3d.Vec3 {
	nx, ny := c.vol.Dims[0], c.vol.Dims[1]
	return c.vol.Point(n%nx, (n/nx)%ny, n/(nx*ny))
}

func (c *contourer) gradient(pos math3d.Vec3, a, b int, t float64) math3d.Vec3 {
	if c.fn != nil {
		return c.fn.Gradient(pos)
	}
	return c.nodeGradient(a).Lerp(c.nodeGradient(b), t)
}

// nodeGradient estimates the gradient at a grid node with central
// differences, one-sided at the volume boundary.
func (c *contourer) nodeGradient(n int) math3d.Vec3 {
	v := c.vol
	nx, ny := v.Dims[0], v.Dims[1]
	idx := [3]int{n % nx, (n / nx) % ny, n / (nx * ny)}
	size := v.Max.Sub(v.Min)
	spacing := [3]float64{
		size.X / float64(v.Dims[0]-1),
		size.Y / float64(v.Dims[1]-1),
		size.Z / float64(v.Dims[2]-1),
	}

	var g [3]float64
	for axis := range 3 {
		lo, hi := idx, idx
		if lo[axis] > 0 {
			lo[axis]--
		}
		if hi[axis] < v.Dims[axis]-1 {
			hi[axis]++
		}
		steps := float64(hi[axis] - lo[axis])
		if steps == 0 || spacing[axis] == 0 {
			continue
		}
		g[axis] = (v.At(hi[0], hi[1], hi[2]) - v.At(lo[0], lo[1], lo[2])) / (steps * spacing[axis])
	}
	return math3d.V3(g[0], g[1], g[2])
}

// triangle adds a face oriented so its normal follows the field gradient.
func (c *contourer) triangle(a, b, d int) {
	pa := c.mesh.Vertices[a].Position
	pb := c.mesh.Vertices[b].Position
	pd := c.mesh.Vertices[d].Position
	faceN := pb.Sub(pa).Cross(pd.Sub(pa))
	avg := c.mesh.Vertices[a].Normal.Add(c.mesh.Vertices[b].Normal).Add(c.mesh.Vertices[d].Normal)
	if faceN.Dot(avg) < 0 {
		b, d = d, b
	}
	addOutward(c.mesh, a, b, d)
}

// IsoSurfaceSource is a sampled implicit function contoured at several values.
type IsoSurfaceSource struct {
	Function    ImplicitFunction
	Dims        [3]int
	Min, Max    math3d.Vec3
	NumContours int
	Range       [2]float64
}

// NewQuadricIsoSurface returns the x² + 2y² + 3z² + yz quadric sampled on a
// 25³ grid over [-1, 1]³ with five contours spanning [1, 6].
func NewQuadricIsoSurface() *IsoSurfaceSource {
	return &IsoSurfaceSource{
		Function:    &Quadric{Coefficients: [10]float64{1, 2, 3, 0, 1, 0, 0, 0, 0, 0}},
		Dims:        [3]int{25, 25, 25},
		Min:         math3d.V3(-1, -1, -1),
		Max:         math3d.V3(1, 1, 1),
		NumContours: 5,
		Range:       [2]float64{1, 6},
	}
}

// Build samples the function and extracts the contours.
func (s *IsoSurfaceSource) Build() (*Mesh, error) {
	if s.Function == nil {
		return nil, fmt.Errorf("iso-surface has no implicit function")
	}
	vol, err := SampleFunction(s.Function, s.Dims, s.Min, s.Max)
	if err != nil {
		return nil, err
	}
	mesh := Contour(vol, s.Function, ContourValues(s.NumContours, s.Range[0], s.Range[1]))
	if mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("iso-surface: %w", ErrEmptyMesh)
	}
	return mesh, nil
}
