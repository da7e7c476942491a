package render

import (
	"math"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// lightingEnv holds everything needed to light a point for one frame.
type lightingEnv struct {
	lights   []resolvedLight
	eye      math3d.Vec3
	twoSided bool
}

func newLightingEnv(lights []*Light, cam *Camera, twoSided bool) *lightingEnv {
	env := &lightingEnv{eye: cam.Position(), twoSided: twoSided}
	for _, l := range lights {
		if l.On {
			env.lights = append(env.lights, l.resolve(cam))
		}
	}
	return env
}

// material is a property with the per-point ambient and diffuse colours,
// which scalars may replace.
type material struct {
	prop    *Property
	ambient math3d.Vec3
	diffuse math3d.Vec3
}

// orient returns the normal to light a triangle with. With two-sided
// lighting a back-facing triangle is lit from its reverse side.
func (e *lightingEnv) orient(n math3d.Vec3, front bool) math3d.Vec3 {
	if e.twoSided && !front {
		return n.Negate()
	}
	return n
}

// towardViewer turns n toward the eye under two-sided lighting. Lines have
// no winding, so their vertex normals are oriented per point.
func (e *lightingEnv) towardViewer(p, n math3d.Vec3) math3d.Vec3 {
	if e.twoSided && n.Dot(e.eye.Sub(p)) < 0 {
		return n.Negate()
	}
	return n
}

// shade evaluates the Phong reflection model at p with normal n, already
// oriented: ambient + diffuse*sum(N.L) + specular*sum((R.V)^power).
func (e *lightingEnv) shade(p, n math3d.Vec3, m material) math3d.Vec3 {
	prop := m.prop
	view := e.eye.Sub(p).Normalize()
	n = n.Normalize()

	var diffuse, specular math3d.Vec3
	for i := range e.lights {
		l := &e.lights[i]
		toLight, att := l.incidence(p)
		if att <= 0 {
			continue
		}
		nl := n.Dot(toLight)
		if nl <= 0 {
			continue
		}
		diffuse = diffuse.Add(l.diffuse.Scale(nl * att))
		if prop.Specular > 0 {
			r := toLight.Negate().Reflect(n)
			rv := math.Max(0, r.Dot(view))
			specular = specular.Add(l.specular.Scale(math.Pow(rv, prop.SpecularPower) * att))
		}
	}

	out := m.ambient.Scale(prop.Ambient)
	out = out.Add(m.diffuse.Mul(diffuse).Scale(prop.Diffuse))
	out = out.Add(prop.SpecularColor.Mul(specular).Scale(prop.Specular))
	return out
}

// faceNormal is the flat-shading normal of a triangle: its geometric normal,
// turned to the side its vertex normals point to. Triangles are stored
// clockwise as seen from the side the geometric normal points to.
func faceNormal(p [3]math3d.Vec3, n [3]math3d.Vec3) math3d.Vec3 {
	g := p[2].Sub(p[0]).Cross(p[1].Sub(p[0])).Normalize()
	if g.Dot(n[0].Add(n[1]).Add(n[2])) < 0 {
		return g.Negate()
	}
	return g
}
