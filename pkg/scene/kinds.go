// Package scene builds the renderers of the shading grid and wires their
// cameras together.
package scene

// ShadingMode selects how a renderer's surface is drawn. The order is the
// grid's row order.
type ShadingMode int

const (
	Wireframe ShadingMode = iota
	Flat
	Gouraud
	Phong
)

// ShadingModes lists every mode in row order.
var ShadingModes = []ShadingMode{Wireframe, Flat, Gouraud, Phong}

func (m ShadingMode) String() string {
	switch m {
	case Wireframe:
		return "Wireframe"
	case Flat:
		return "Flat"
	case Gouraud:
		return "Gouraud"
	case Phong:
		return "Phong"
	}
	return "Unknown"
}

// ShapeKind selects the geometry of a renderer. The order is the grid's
// column order.
type ShapeKind int

const (
	ProceduralSphere ShapeKind = iota
	ExternalMeshA
	ImplicitIsoSurface
	ExternalMeshB
)

// ShapeKinds lists every shape in column order.
var ShapeKinds = []ShapeKind{ProceduralSphere, ExternalMeshA, ImplicitIsoSurface, ExternalMeshB}

func (k ShapeKind) String() string {
	switch k {
	case ProceduralSphere:
		return "Sphere"
	case ExternalMeshA:
		return "Model"
	case ImplicitIsoSurface:
		return "IsoSurface"
	case ExternalMeshB:
		return "SecondModel"
	}
	return "Unknown"
}

// NeedsMesh reports whether the shape is read from a mesh file.
func (k ShapeKind) NeedsMesh() bool {
	return k == ExternalMeshA || k == ExternalMeshB
}

// SlotName names the renderer for a (shape, mode) pair, e.g. "PhongSphere".
func SlotName(shape ShapeKind, mode ShadingMode) string {
	return mode.String() + shape.String()
}
