package geometry

import (
	"fmt"

	"github.com/Faultbox/arplace/internal/engine/gpu"
)

// Shading selects the program a record is drawn with.
type Shading int

const (
	// ShadingTexturedLit uses the fixed light, the object color and the texture.
	ShadingTexturedLit Shading = iota
	// ShadingMaterial draws each material group with its own coefficients.
	ShadingMaterial
)

func (s Shading) String() string {
	switch s {
	case ShadingTexturedLit:
		return "textured-lit"
	case ShadingMaterial:
		return "material"
	default:
		return fmt.Sprintf("Shading(%d)", int(s))
	}
}

// Material holds the reflectance coefficients of one named sub-material.
type Material struct {
	Name      string
	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Shininess float32
	Dissolve  float32
}

// defaultMaterial is used for faces declared before any usemtl.
var defaultMaterial = Material{
	Ambient:   [3]float32{0.2, 0.2, 0.2},
	Diffuse:   [3]float32{0.8, 0.8, 0.8},
	Shininess: 10,
	Dissolve:  1,
}

// MaterialGroup is an index range drawn with one material.
type MaterialGroup struct {
	Material Material
	Start    int
	Count    int
}

// Record is the immutable geometry of one object kind together with the GPU
// resources it was uploaded to.
type Record struct {
	Kind Kind
	Name string

	Positions []float32 // xyz per vertex
	TexCoords []float32 // uv per vertex
	Normals   []float32 // xyz per vertex
	Indices   []uint16  // triangle list

	Bounds BoundingBox
	Groups []MaterialGroup

	Mesh    gpu.Mesh
	Texture gpu.Texture
}

// VertexCount returns the number of vertices.
func (r *Record) VertexCount() int {
	return len(r.Positions) / 3
}

// Shading reports which program draws this record: records that carry
// material groups use the material path.
func (r *Record) Shading() Shading {
	if len(r.Groups) > 0 {
		return ShadingMaterial
	}
	return ShadingTexturedLit
}

// MeshData returns the CPU buffers in upload form.
func (r *Record) MeshData() gpu.MeshData {
	return gpu.MeshData{
		Positions: r.Positions,
		TexCoords: r.TexCoords,
		Normals:   r.Normals,
		Indices:   r.Indices,
	}
}

// validate checks that the attribute streams agree and that groups cover
// valid index ranges.
func (r *Record) validate() error {
	if err := r.MeshData().Validate(); err != nil {
		return err
	}
	for i, g := range r.Groups {
		if g.Start < 0 || g.Count <= 0 || g.Start+g.Count > len(r.Indices) {
			return fmt.Errorf("group %d (%s): range %d+%d outside %d indices", i, g.Material.Name, g.Start, g.Count, len(r.Indices))
		}
	}
	return nil
}
