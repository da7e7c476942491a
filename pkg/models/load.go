package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
	// ErrEmptyMesh is returned when a file parses but holds no triangles.
	ErrEmptyMesh = errors.New("mesh has no triangles")
)

// Formats lists the extensions Load understands.
var Formats = []string{".obj", ".stl", ".glb", ".gltf"}

// Load reads a mesh file from disk, picking the reader by extension.
// Degenerate faces are dropped so every triangle has a usable normal.
func Load(path string) (*Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	var (
		mesh *Mesh
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		mesh, err = NewOBJLoader().LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	case ".stl":
		loader := NewSTLLoader()
		loader.SmoothNormals = true
		mesh, err = loader.LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	case ".glb", ".gltf":
		mesh, err = NewGLTFLoader().Load(path)
	default:
		return nil, fmt.Errorf("%w: %q (use %s)", ErrUnsupportedFormat, ext, strings.Join(Formats, ", "))
	}
	if err != nil {
		return nil, err
	}

	mesh.RemoveDegenerateFaces()
	mesh.RemoveUnreferencedVertices()
	if mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyMesh)
	}
	mesh.CalculateBounds()
	return mesh, nil
}
