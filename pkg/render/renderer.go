package render

import (
	"math"

	"github.com/taigrr/shadegrid/pkg/layout"
	"github.com/taigrr/shadegrid/pkg/math3d"
)

// Renderer draws a set of actors with its lights and camera into one
// viewport of the shared framebuffer.
type Renderer struct {
	Name string

	// AutomaticLightCreation adds a headlight on the first render when the
	// renderer has no lights.
	AutomaticLightCreation bool
	TwoSidedLighting       bool

	actors     []*Actor
	lights     []*Light
	camera     *Camera
	background Color
	viewport   layout.Viewport
	aspect     float64
}

// NewRenderer creates an empty renderer covering the whole display.
func NewRenderer() *Renderer {
	return &Renderer{
		AutomaticLightCreation: true,
		TwoSidedLighting:       true,
		viewport:               layout.Full,
		aspect:                 1,
	}
}

// AddActor appends an actor.
func (r *Renderer) AddActor(a *Actor) { r.actors = append(r.actors, a) }

// Actors returns the renderer's actors.
func (r *Renderer) Actors() []*Actor { return r.actors }

// AddLight appends a light.
func (r *Renderer) AddLight(l *Light) { r.lights = append(r.lights, l) }

// Lights returns the renderer's lights.
func (r *Renderer) Lights() []*Light { return r.lights }

// SetBackground sets the colour the viewport is cleared to.
func (r *Renderer) SetBackground(c Color) { r.background = c }

// Background returns the viewport clear colour.
func (r *Renderer) Background() Color { return r.background }

// SetViewport sets the normalized rectangle the renderer draws into.
func (r *Renderer) SetViewport(vp layout.Viewport) { r.viewport = vp }

// Viewport returns the normalized rectangle the renderer draws into.
func (r *Renderer) Viewport() layout.Viewport { return r.viewport }

// Aspect is the pixel aspect ratio of the viewport at the last render.
func (r *Renderer) Aspect() float64 { return r.aspect }

// SetAspect overrides the aspect ratio used by ResetCamera before the first render.
func (r *Renderer) SetAspect(aspect float64) {
	if aspect > 0 {
		r.aspect = aspect
	}
}

// ActiveCamera returns the renderer's camera, creating one on first use.
func (r *Renderer) ActiveCamera() *Camera {
	if r.camera == nil {
		r.camera = NewCamera()
	}
	return r.camera
}

// SetActiveCamera makes the renderer use cam. The pointer is kept, not
// copied, so renderers given the same camera move together.
func (r *Renderer) SetActiveCamera(cam *Camera) { r.camera = cam }

// Bounds returns the union of the visible actors' bounds; ok is false when
// there is nothing to bound.
func (r *Renderer) Bounds() (minB, maxB math3d.Vec3, ok bool) {
	minB = math3d.V3(math.Inf(1), math.Inf(1), math.Inf(1))
	maxB = minB.Negate()
	for _, a := range r.actors {
		if !a.Visible || a.Mapper == nil || a.Mapper.Input().TriangleCount() == 0 {
			continue
		}
		lo, hi := a.Bounds()
		minB, maxB = minB.Min(lo), maxB.Max(hi)
		ok = true
	}
	if !ok {
		return math3d.Vec3{}, math3d.Vec3{}, false
	}
	return minB, maxB, true
}

// ResetCamera frames the visible actors with the active camera, keeping its
// viewing direction. A renderer with nothing visible frames the unit cube
// around the origin.
func (r *Renderer) ResetCamera() {
	minB, maxB, ok := r.Bounds()
	if !ok {
		minB, maxB = math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)
	}
	r.ActiveCamera().ResetCamera(minB, maxB, r.aspect)
}

// Render clears the viewport to the background and draws every visible actor.
func (r *Renderer) Render(fb *Framebuffer, rast *Rasterizer) {
	rect := r.viewport.PixelRect(fb.Width, fb.Height)
	if rect.Empty() {
		return
	}
	r.aspect = float64(rect.Dx()) / float64(rect.Dy())

	fb.FillRect(rect, r.background)
	rast.ClearDepthRect(rect)

	minB, maxB, ok := r.Bounds()
	if !ok {
		return
	}
	cam := r.ActiveCamera()
	cam.ResetClippingRange(minB, maxB)

	if len(r.lights) == 0 && r.AutomaticLightCreation {
		r.AddLight(NewHeadLight())
	}
	env := newLightingEnv(r.lights, cam, r.TwoSidedLighting)

	rast.Begin(rect, cam.ViewProjectionMatrix(r.aspect))
	for _, a := range r.actors {
		if a.Visible && a.Mapper != nil {
			drawActor(rast, env, a)
		}
	}
}

// preparedMesh is an actor's mesh in world space with per-vertex colours.
type preparedMesh struct {
	pos     []math3d.Vec3
	normal  []math3d.Vec3
	ambient []math3d.Vec3 // nil: property colour everywhere
	diffuse []math3d.Vec3
	faces   [][3]int
}

func prepare(a *Actor) *preparedMesh {
	mesh := a.Mapper.Input()
	n := mesh.VertexCount()
	pm := &preparedMesh{
		pos:    make([]math3d.Vec3, n),
		normal: make([]math3d.Vec3, n),
		faces:  make([][3]int, mesh.TriangleCount()),
	}
	for i := range n {
		p, nrm, _ := mesh.GetVertex(i)
		pm.pos[i] = a.Transform.MulVec3(p)
		pm.normal[i] = a.Transform.MulVec3Dir(nrm).Normalize()
	}
	for i := range pm.faces {
		pm.faces[i] = mesh.GetFace(i)
	}
	if colors := a.Mapper.scalarColors(); colors != nil {
		pm.ambient = colors
		pm.diffuse = colors
	}
	return pm
}

func (pm *preparedMesh) material(prop *Property, i int) material {
	if pm.diffuse == nil {
		return material{prop: prop, ambient: prop.AmbientColor, diffuse: prop.DiffuseColor}
	}
	return material{prop: prop, ambient: pm.ambient[i], diffuse: pm.diffuse[i]}
}

func drawActor(rast *Rasterizer, env *lightingEnv, a *Actor) {
	prop := a.Property()
	pm := prepare(a)

	if prop.Representation() == Wireframe {
		drawWireframe(rast, env, pm, prop)
		return
	}

	switch prop.Interpolation() {
	case Flat:
		for _, f := range pm.faces {
			p := [3]math3d.Vec3{pm.pos[f[0]], pm.pos[f[1]], pm.pos[f[2]]}
			tri := Triangle{V: [3]Vertex{{Position: p[0]}, {Position: p[1]}, {Position: p[2]}}}
			n := faceNormal(p, [3]math3d.Vec3{pm.normal[f[0]], pm.normal[f[1]], pm.normal[f[2]]})
			n = env.orient(n, rast.FrontFacing(tri))
			m := pm.material(prop, f[0])
			if pm.diffuse != nil {
				m.diffuse = pm.diffuse[f[0]].Add(pm.diffuse[f[1]]).Add(pm.diffuse[f[2]]).Scale(1.0 / 3)
				m.ambient = m.diffuse
			}
			centroid := p[0].Add(p[1]).Add(p[2]).Scale(1.0 / 3)
			c := env.shade(centroid, n, m)
			for k := range tri.V {
				tri.V[k].Normal, tri.V[k].Color = n, c
			}
			rast.DrawTriangle(tri)
		}

	case Gouraud:
		front := litVertices(env, pm, prop, false)
		var back []math3d.Vec3
		for _, f := range pm.faces {
			tri := pm.triangle(f, front)
			if env.twoSided && !rast.FrontFacing(tri) {
				if back == nil {
					back = litVertices(env, pm, prop, true)
				}
				tri = pm.triangle(f, back)
			}
			rast.DrawTriangle(tri)
		}

	case Phong:
		base := make([]math3d.Vec3, len(pm.pos))
		for i := range base {
			base[i] = pm.material(prop, i).diffuse
		}
		shader := func(front bool) FragmentShader {
			return func(pos, normal, color math3d.Vec3) math3d.Vec3 {
				m := material{prop: prop, ambient: ambientFor(pm, prop, color), diffuse: color}
				return env.shade(pos, env.orient(normal, front), m)
			}
		}
		frontShade, backShade := shader(true), shader(false)
		for _, f := range pm.faces {
			tri := pm.triangle(f, base)
			if rast.FrontFacing(tri) {
				rast.DrawTriangleShaded(tri, frontShade)
			} else {
				rast.DrawTriangleShaded(tri, backShade)
			}
		}
	}
}

func ambientFor(pm *preparedMesh, prop *Property, interpolated math3d.Vec3) math3d.Vec3 {
	if pm.ambient == nil {
		return prop.AmbientColor
	}
	return interpolated
}

// litVertices lights every vertex once, from the reverse side when back is
// set.
func litVertices(env *lightingEnv, pm *preparedMesh, prop *Property, back bool) []math3d.Vec3 {
	lit := make([]math3d.Vec3, len(pm.pos))
	for i := range lit {
		lit[i] = env.shade(pm.pos[i], env.orient(pm.normal[i], !back), pm.material(prop, i))
	}
	return lit
}

func (pm *preparedMesh) triangle(f [3]int, colors []math3d.Vec3) Triangle {
	var tri Triangle
	for k, vi := range f {
		tri.V[k] = Vertex{Position: pm.pos[vi], Normal: pm.normal[vi], Color: colors[vi]}
	}
	return tri
}

// drawWireframe draws each mesh edge once with per-vertex lighting.
func drawWireframe(rast *Rasterizer, env *lightingEnv, pm *preparedMesh, prop *Property) {
	lit := make([]math3d.Vec3, len(pm.pos))
	for i := range lit {
		lit[i] = env.shade(pm.pos[i], env.towardViewer(pm.pos[i], pm.normal[i]), pm.material(prop, i))
	}
	seen := make(map[[2]int]bool, len(pm.faces)*3/2)
	for _, f := range pm.faces {
		for k := range 3 {
			a, b := f[k], f[(k+1)%3]
			key := [2]int{min(a, b), max(a, b)}
			if seen[key] {
				continue
			}
			seen[key] = true
			rast.DrawLine3D(
				Vertex{Position: pm.pos[a], Normal: pm.normal[a], Color: lit[a]},
				Vertex{Position: pm.pos[b], Normal: pm.normal[b], Color: lit[b]},
			)
		}
	}
}
