package models

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/shadegrid/pkg/math3d"
)

// GLTFLoader flattens the default scene of a glTF/GLB file into one Mesh,
// baking node transforms into vertex positions.
type GLTFLoader struct {
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.FromDocument(doc, filepath.Base(path))
}

// FromDocument converts an already decoded document.
func (l *GLTFLoader) FromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	mesh.Materials = extractMaterials(doc)

	for _, nodeIdx := range rootNodes(doc) {
		if err := l.processNode(doc, nodeIdx, math3d.Identity(), mesh); err != nil {
			return nil, err
		}
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// rootNodes returns the nodes of the default scene, or every parentless node
// when the document defines no scenes.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		sceneIdx := 0
		if doc.Scene != nil {
			sceneIdx = int(*doc.Scene)
		}
		roots := make([]int, 0, len(doc.Scenes[sceneIdx].Nodes))
		for _, n := range doc.Scenes[sceneIdx].Nodes {
			roots = append(roots, int(n))
		}
		return roots
	}

	isChild := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, child := range n.Children {
			isChild[int(child)] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeTransform builds the local TRS (or explicit matrix) transform of a node.
func nodeTransform(node *gltf.Node) math3d.Mat4 {
	if node.Matrix != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} &&
		node.Matrix != [16]float64{} {
		return math3d.Mat4FromSlice(node.Matrix[:])
	}

	local := math3d.Identity()
	if node.Translation != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Translate(math3d.V3(node.Translation[0], node.Translation[1], node.Translation[2])))
	}
	if node.Rotation != [4]float64{0, 0, 0, 1} && node.Rotation != [4]float64{} {
		local = local.Mul(math3d.QuatToMat4(node.Rotation[0], node.Rotation[1], node.Rotation[2], node.Rotation[3]))
	}
	if node.Scale != [3]float64{1, 1, 1} && node.Scale != [3]float64{0, 0, 0} {
		local = local.Mul(math3d.Scale(math3d.V3(node.Scale[0], node.Scale[1], node.Scale[2])))
	}
	return local
}

func (l *GLTFLoader) processNode(doc *gltf.Document, nodeIdx int, parent math3d.Mat4, mesh *Mesh) error {
	node := doc.Nodes[nodeIdx]
	world := parent.Mul(nodeTransform(node))

	if node.Mesh != nil {
		if err := l.processMesh(doc, doc.Meshes[int(*node.Mesh)], mesh, world); err != nil {
			return fmt.Errorf("mesh %d: %w", int(*node.Mesh), err)
		}
	}

	for _, childIdx := range node.Children {
		if err := l.processNode(doc, int(childIdx), world, mesh); err != nil {
			return err
		}
	}
	return nil
}

// processMesh appends the triangle primitives of m, transformed into world space.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, transform math3d.Mat4) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, int(posIdx))
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, int(normIdx))
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, int(uvIdx))
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		materialIdx := -1
		if prim.Material != nil {
			materialIdx = int(*prim.Material)
		}

		baseVertex := len(mesh.Vertices)
		for i := range positions {
			v := MeshVertex{Position: transform.MulVec3(positions[i])}
			if i < len(normals) {
				v.Normal = transform.MulVec3Dir(normals[i]).Normalize()
			}
			if i < len(uvs) {
				// glTF has V=0 at the top
				v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
			}
			mesh.AddVertex(v)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, int(*prim.Indices))
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// glTF is CCW front-facing; reverse like the OBJ loader
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{baseVertex + indices[i], baseVertex + indices[i+2], baseVertex + indices[i+1]},
				Material: materialIdx,
			})
		}
	}

	return nil
}

func extractMaterials(doc *gltf.Document) []Material {
	materials := make([]Material, len(doc.Materials))

	for i, mat := range doc.Materials {
		m := Material{
			Name:      mat.Name,
			BaseColor: [4]float64{1, 1, 1, 1},
			Roughness: 1,
		}

		if pbr := mat.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				for c := range 4 {
					m.BaseColor[c] = float64(pbr.BaseColorFactor[c])
				}
			}
			if pbr.MetallicFactor != nil {
				m.Metallic = float64(*pbr.MetallicFactor)
			}
			if pbr.RoughnessFactor != nil {
				m.Roughness = float64(*pbr.RoughnessFactor)
			}
		}

		materials[i] = m
	}

	return materials
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		off := i * stride
		result[i] = math3d.V3(readFloat32(data[off:]), readFloat32(data[off+4:]), readFloat32(data[off+8:]))
	}
	return result, nil
}

func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}

	data, stride, err := accessorBytes(doc, accessor, 8)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec2, accessor.Count)
	for i := range result {
		off := i * stride
		result[i] = math3d.V2(readFloat32(data[off:]), readFloat32(data[off+4:]))
	}
	return result, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index component type: %v", accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range result {
		off := i * stride
		switch size {
		case 1:
			result[i] = int(data[off])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(data[off:]))
		default:
			result[i] = int(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return result, nil
}

// accessorBytes returns the accessor's slice of its (embedded) buffer and
// the element stride, bounds-checked against the buffer length.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[int(*accessor.BufferView)]
	buffer := doc.Buffers[int(bufferView.Buffer)]
	if len(buffer.Data) == 0 {
		return nil, 0, fmt.Errorf("buffer %d has no data", int(bufferView.Buffer))
	}

	stride := int(bufferView.ByteStride)
	if stride == 0 {
		stride = elemSize
	}
	start := int(bufferView.ByteOffset) + int(accessor.ByteOffset)
	count := int(accessor.Count)
	if count == 0 {
		return nil, stride, nil
	}
	end := start + (count-1)*stride + elemSize
	if start < 0 || end > len(buffer.Data) {
		return nil, 0, fmt.Errorf("accessor out of buffer bounds (%d > %d)", end, len(buffer.Data))
	}
	return buffer.Data[start:end], stride, nil
}

func readFloat32(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}
