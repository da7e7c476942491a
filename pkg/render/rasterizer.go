package render

import (
	"image"
	"math"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// Vertex carries the attributes interpolated across a triangle.
type Vertex struct {
	Position math3d.Vec3 // world position
	Normal   math3d.Vec3
	Color    math3d.Vec3 // linear RGB in [0,1]
}

// Triangle represents a triangle to be rasterized.
type Triangle struct {
	V [3]Vertex
}

// FragmentShader returns the colour of a pixel from interpolated attributes.
type FragmentShader func(pos, normal, color math3d.Vec3) math3d.Vec3

// RasterStats counts primitives for the last frame.
type RasterStats struct {
	TrianglesDrawn   int
	TrianglesSkipped int // behind the camera, culled or degenerate
	LinesDrawn       int
}

// Rasterizer draws triangles and lines into one viewport of a shared
// framebuffer, with a depth buffer covering the whole surface.
type Rasterizer struct {
	fb            *Framebuffer
	zbuffer       []float64
	viewProj      math3d.Mat4
	clip          image.Rectangle
	CullBackfaces bool // skip back-facing triangles (negative screen-space winding)
	Stats         RasterStats
}

// minW is the smallest clip-space w a vertex may have; triangles with a
// vertex closer to the eye plane are dropped.
const minW = 1e-6

// NewRasterizer creates a rasterizer drawing to the whole framebuffer.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		fb:       fb,
		viewProj: math3d.Identity(),
	}
	r.Resize()
	return r
}

// Resize resizes the depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		r.clip = image.Rectangle{}
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.clip = r.fb.Bounds()
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the whole Z-buffer.
func (r *Rasterizer) ClearDepth() {
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	// copy-doubling
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// ClearDepthRect clears the Z-buffer inside rect only.
func (r *Rasterizer) ClearDepthRect(rect image.Rectangle) {
	if r.fb == nil {
		return
	}
	rect = rect.Intersect(r.fb.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := r.zbuffer[y*r.fb.Width+rect.Min.X : y*r.fb.Width+rect.Max.X]
		for i := range row {
			row[i] = math.MaxFloat64
		}
	}
}

// Begin targets the pixel rectangle rect with the given view-projection.
// NDC [-1,1] maps onto rect and nothing outside it is touched.
func (r *Rasterizer) Begin(rect image.Rectangle, viewProj math3d.Mat4) {
	if r.fb != nil {
		rect = rect.Intersect(r.fb.Bounds())
	}
	r.clip = rect
	r.viewProj = viewProj
}

// ResetStats zeroes the primitive counters.
func (r *Rasterizer) ResetStats() {
	r.Stats = RasterStats{}
}

// getDepth returns the depth at (x, y).
func (r *Rasterizer) getDepth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// setDepth sets the depth at (x, y).
func (r *Rasterizer) setDepth(x, y int, z float64) {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return
	}
	r.zbuffer[y*r.Width()+x] = z
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // pixel coordinates
	Z    float64 // NDC depth
	InvW float64 // 1/w for perspective-correct interpolation
}

func (r *Rasterizer) project(p math3d.Vec3) (screenVertex, bool) {
	clipPos := r.viewProj.MulVec4(math3d.V4FromV3(p, 1))
	if clipPos.W <= minW {
		return screenVertex{}, false
	}
	invW := 1 / clipPos.W
	ndcX, ndcY := clipPos.X*invW, clipPos.Y*invW
	return screenVertex{
		X:    float64(r.clip.Min.X) + (ndcX+1)*0.5*float64(r.clip.Dx()),
		Y:    float64(r.clip.Min.Y) + (1-ndcY)*0.5*float64(r.clip.Dy()), // Y flipped
		Z:    clipPos.Z * invW,
		InvW: invW,
	}, true
}

// screen projects a triangle and returns its signed screen area. Triangles
// facing the camera, stored in the mesh winding, have a positive area.
func (r *Rasterizer) screen(tri Triangle) ([3]screenVertex, float64, bool) {
	var sv [3]screenVertex
	for i := range 3 {
		v, ok := r.project(tri.V[i].Position)
		if !ok {
			return sv, 0, false
		}
		sv[i] = v
	}

	edge1 := math3d.V2(sv[1].X-sv[0].X, sv[1].Y-sv[0].Y)
	edge2 := math3d.V2(sv[2].X-sv[0].X, sv[2].Y-sv[0].Y)
	return sv, edge1.Cross(edge2), true
}

// setup projects a triangle, returning false when it must be skipped.
func (r *Rasterizer) setup(tri Triangle) ([3]screenVertex, bool) {
	sv, cross, ok := r.screen(tri)
	if !ok || math.Abs(cross) < 1e-12 {
		return sv, false
	}
	if r.CullBackfaces && cross < 0 {
		return sv, false
	}
	return sv, true
}

// FrontFacing reports whether tri faces the camera on screen. Triangles that
// cannot be projected count as front facing; they are skipped when drawn.
func (r *Rasterizer) FrontFacing(tri Triangle) bool {
	_, cross, ok := r.screen(tri)
	return !ok || cross >= 0
}

// scan walks the pixels covered by the triangle that pass the depth test and
// stores the colour returned by shade, which receives perspective-correct
// barycentric weights.
func (r *Rasterizer) scan(sv [3]screenVertex, shade func(w math3d.Vec3) math3d.Vec3) {
	if r.clip.Empty() {
		return
	}
	minX := int(math.Max(float64(r.clip.Min.X), math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.clip.Max.X-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(float64(r.clip.Min.Y), math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.clip.Max.Y-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			bc := barycentric(
				sv[0].X, sv[0].Y,
				sv[1].X, sv[1].Y,
				sv[2].X, sv[2].Y,
				px, py,
			)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			// NDC depth is affine in screen space
			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			if z < -1 || z > 1 || z >= r.getDepth(x, y) {
				continue
			}

			w0, w1, w2 := bc.X*sv[0].InvW, bc.Y*sv[1].InvW, bc.Z*sv[2].InvW
			sum := w0 + w1 + w2
			if sum == 0 {
				continue
			}
			pc := math3d.V3(w0/sum, w1/sum, w2/sum)

			r.setDepth(x, y, z)
			r.fb.SetPixel(x, y, FromFloat(shade(pc)))
		}
	}
}

// DrawTriangle rasterizes a triangle, interpolating vertex colours.
// Equal vertex colours give flat shading.
func (r *Rasterizer) DrawTriangle(tri Triangle) {
	sv, ok := r.setup(tri)
	if !ok {
		r.Stats.TrianglesSkipped++
		return
	}
	r.Stats.TrianglesDrawn++
	c := [3]math3d.Vec3{tri.V[0].Color, tri.V[1].Color, tri.V[2].Color}
	r.scan(sv, func(w math3d.Vec3) math3d.Vec3 {
		return interpolate3(c[0], c[1], c[2], w)
	})
}

// DrawTriangleShaded rasterizes a triangle, interpolating position, normal
// and colour per pixel and handing them to shade.
func (r *Rasterizer) DrawTriangleShaded(tri Triangle, shade FragmentShader) {
	sv, ok := r.setup(tri)
	if !ok {
		r.Stats.TrianglesSkipped++
		return
	}
	r.Stats.TrianglesDrawn++
	v := tri.V
	r.scan(sv, func(w math3d.Vec3) math3d.Vec3 {
		pos := interpolate3(v[0].Position, v[1].Position, v[2].Position, w)
		normal := interpolate3(v[0].Normal, v[1].Normal, v[2].Normal, w)
		color := interpolate3(v[0].Color, v[1].Color, v[2].Color, w)
		return shade(pos, normal, color)
	})
}

// lineDepthBias lets a line win depth ties against surfaces it lies on.
const lineDepthBias = 1e-5

// DrawLine3D draws a depth-tested line between two vertices, interpolating
// their colours.
func (r *Rasterizer) DrawLine3D(a, b Vertex) {
	sa, okA := r.project(a.Position)
	sb, okB := r.project(b.Position)
	if !okA || !okB || r.clip.Empty() {
		return
	}
	r.Stats.LinesDrawn++

	dx, dy := sb.X-sa.X, sb.Y-sa.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		x := int(math.Floor(sa.X + dx*t))
		y := int(math.Floor(sa.Y + dy*t))
		if !image.Pt(x, y).In(r.clip) {
			continue
		}
		z := sa.Z + (sb.Z-sa.Z)*t
		if z < -1 || z > 1 || z-lineDepthBias >= r.getDepth(x, y) {
			continue
		}
		// perspective-correct colour
		wa, wb := (1-t)*sa.InvW, t*sb.InvW
		color := a.Color.Scale(wa).Add(b.Color.Scale(wb)).Scale(1 / (wa + wb))
		r.setDepth(x, y, z)
		r.fb.SetPixel(x, y, FromFloat(color))
	}
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

// interpolate3 blends three vectors with barycentric weights.
func interpolate3(a, b, c, w math3d.Vec3) math3d.Vec3 {
	return a.Scale(w.X).Add(b.Scale(w.Y)).Add(c.Scale(w.Z))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
