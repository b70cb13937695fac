// Package gpu defines the data exchanged with the GPU device: vertex buffer
// layout, mesh and texture handles, and per-draw uniform parameters.
package gpu

import (
	"errors"
	"fmt"

	"github.com/Faultbox/arplace/pkg/math"
)

const (
	floatSize = 4
	indexSize = 2

	positionComponents = 3
	texCoordComponents = 2
	normalComponents   = 3
)

// ErrInvalidMesh is returned when mesh attribute streams disagree in length.
var ErrInvalidMesh = errors.New("invalid mesh data")

// Layout gives the byte offsets of the attribute streams inside one vertex
// buffer. Positions come first, then texcoords, then normals, each tightly
// packed.
type Layout struct {
	VertexCount    int
	TexCoordOffset int
	NormalOffset   int
	TotalBytes     int
}

// NewLayout computes the buffer layout for vertexCount vertices.
func NewLayout(vertexCount int) Layout {
	tex := floatSize * positionComponents * vertexCount
	norm := tex + floatSize*texCoordComponents*vertexCount
	return Layout{
		VertexCount:    vertexCount,
		TexCoordOffset: tex,
		NormalOffset:   norm,
		TotalBytes:     norm + floatSize*normalComponents*vertexCount,
	}
}

// MeshData is the CPU-side geometry handed to UploadMesh.
type MeshData struct {
	Positions []float32
	TexCoords []float32
	Normals   []float32
	Indices   []uint16
}

// Validate checks that the attribute streams describe the same vertices and
// that every index is in range.
func (d MeshData) Validate() error {
	if len(d.Positions) == 0 || len(d.Positions)%positionComponents != 0 {
		return fmt.Errorf("%w: %d position floats", ErrInvalidMesh, len(d.Positions))
	}
	n := len(d.Positions) / positionComponents
	if len(d.TexCoords) != n*texCoordComponents {
		return fmt.Errorf("%w: %d texcoord floats for %d vertices", ErrInvalidMesh, len(d.TexCoords), n)
	}
	if len(d.Normals) != n*normalComponents {
		return fmt.Errorf("%w: %d normal floats for %d vertices", ErrInvalidMesh, len(d.Normals), n)
	}
	if len(d.Indices) == 0 || len(d.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrInvalidMesh, len(d.Indices))
	}
	for i, idx := range d.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index %d at %d out of range [0,%d)", ErrInvalidMesh, idx, i, n)
		}
	}
	return nil
}

// Mesh is an uploaded mesh.
type Mesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	Layout     Layout
	IndexCount int32
}

// Texture is an uploaded 2D texture name.
type Texture uint32

// Range selects a sub-range of a mesh's index buffer, in indices.
type Range struct {
	Start int
	Count int
}

// LitParams are the uniforms of the textured-lit program.
type LitParams struct {
	MVP       math.Mat4
	ModelView math.Mat4
	// Light is the view-space light direction in xyz and the intensity in w.
	Light math.Vec4
	// Color is RGBA in [0,255]; the shader scales it.
	Color [4]float32
}

// MaterialParams are the uniforms of the material program.
type MaterialParams struct {
	MVP      math.Mat4
	Ambient  [3]float32
	Diffuse  [3]float32
	Specular [3]float32
}
