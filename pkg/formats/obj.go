// Package formats provides parsers for the Wavefront OBJ and MTL asset formats.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// OBJ format errors.
var (
	ErrEmptyOBJ          = errors.New("OBJ contains no faces")
	ErrInvalidOBJLine    = errors.New("invalid OBJ statement")
	ErrOBJIndexRange     = errors.New("OBJ face index out of range")
	ErrDegenerateOBJFace = errors.New("OBJ face has fewer than 3 vertices")
)

// OBJFaceVertex references one corner of a face.
// Indices are zero-based; -1 means the attribute is absent.
type OBJFaceVertex struct {
	Position int
	TexCoord int
	Normal   int
}

// OBJFace is a polygon with the material that was active when it was declared.
type OBJFace struct {
	Vertices []OBJFaceVertex
	Material string
}

// OBJ is a parsed Wavefront OBJ file.
type OBJ struct {
	Positions    [][3]float32
	TexCoords    [][2]float32
	Normals      [][3]float32
	Faces        []OBJFace
	MaterialLibs []string
}

// OBJGroup is a contiguous index range drawn with one material.
type OBJGroup struct {
	Material string
	Start    int
	Count    int
}

// OBJMesh is a renderable triangle list: every vertex carries its own
// position, texcoord and normal, so a single index addresses all three.
type OBJMesh struct {
	Positions []float32 // xyz per vertex
	TexCoords []float32 // uv per vertex
	Normals   []float32 // xyz per vertex
	Indices   []uint32
	Groups    []OBJGroup
}

// VertexCount returns the number of vertices in the mesh.
func (m *OBJMesh) VertexCount() int {
	return len(m.Positions) / 3
}

// ParseOBJ parses OBJ text. Statements other than v, vt, vn, f, usemtl and
// mtllib are ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	material := ""

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		ident, args := fields[0], fields[1:]

		switch ident {
		case "v", "vn":
			v, err := parseFloats(args, 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			p := [3]float32{v[0], v[1], v[2]}
			if ident == "v" {
				obj.Positions = append(obj.Positions, p)
			} else {
				obj.Normals = append(obj.Normals, p)
			}
		case "vt":
			v, err := parseFloats(args, 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			obj.TexCoords = append(obj.TexCoords, [2]float32{v[0], v[1]})
		case "f":
			face, err := obj.parseFace(args, material)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			obj.Faces = append(obj.Faces, face)
		case "usemtl":
			material = strings.Join(args, " ")
		case "mtllib":
			obj.MaterialLibs = append(obj.MaterialLibs, args...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	if len(obj.Faces) == 0 {
		return nil, ErrEmptyOBJ
	}
	return obj, nil
}

func (o *OBJ) parseFace(args []string, material string) (OBJFace, error) {
	if len(args) < 3 {
		return OBJFace{}, ErrDegenerateOBJFace
	}
	face := OBJFace{Material: material, Vertices: make([]OBJFaceVertex, 0, len(args))}
	for _, arg := range args {
		parts := strings.Split(arg, "/")
		fv := OBJFaceVertex{Position: -1, TexCoord: -1, Normal: -1}

		var err error
		if fv.Position, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
			return OBJFace{}, err
		}
		if fv.Position < 0 {
			return OBJFace{}, fmt.Errorf("%w: face vertex %q has no position", ErrInvalidOBJLine, arg)
		}
		if len(parts) > 1 {
			if fv.TexCoord, err = resolveIndex(parts[1], len(o.TexCoords)); err != nil {
				return OBJFace{}, err
			}
		}
		if len(parts) > 2 {
			if fv.Normal, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
				return OBJFace{}, err
			}
		}
		face.Vertices = append(face.Vertices, fv)
	}
	return face, nil
}

// resolveIndex converts a one-based (or negative, relative) OBJ index into a
// zero-based one. An empty field yields -1.
func resolveIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad index %q", ErrInvalidOBJLine, s)
	}
	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if n == 0 || idx < 0 || idx >= count {
		return 0, fmt.Errorf("%w: %d (have %d)", ErrOBJIndexRange, n, count)
	}
	return idx, nil
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) < n {
		return nil, fmt.Errorf("%w: want %d values, got %d", ErrInvalidOBJLine, n, len(args))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOBJLine, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

type vertexKey struct {
	fv     OBJFaceVertex
	normal [3]float32 // generated face normal when fv.Normal < 0
}

// Renderable triangulates the polygons (fan order) and unifies the separate
// position/texcoord/normal indices into one index per vertex. Faces without
// normals get a flat face normal; faces without texcoords get (0, 0).
// Consecutive faces sharing a material form one group.
func (o *OBJ) Renderable() *OBJMesh {
	mesh := &OBJMesh{}
	lookup := make(map[vertexKey]uint32)

	emit := func(fv OBJFaceVertex, flat [3]float32) uint32 {
		key := vertexKey{fv: fv}
		if fv.Normal < 0 {
			key.normal = flat
		}
		if idx, ok := lookup[key]; ok {
			return idx
		}
		idx := uint32(len(mesh.Positions) / 3)
		p := o.Positions[fv.Position]
		mesh.Positions = append(mesh.Positions, p[0], p[1], p[2])

		var uv [2]float32
		if fv.TexCoord >= 0 {
			uv = o.TexCoords[fv.TexCoord]
		}
		mesh.TexCoords = append(mesh.TexCoords, uv[0], uv[1])

		n := flat
		if fv.Normal >= 0 {
			n = o.Normals[fv.Normal]
		}
		mesh.Normals = append(mesh.Normals, n[0], n[1], n[2])

		lookup[key] = idx
		return idx
	}

	for i := range o.Faces {
		face := &o.Faces[i]
		flat := faceNormal(o.Positions, face)

		if n := len(mesh.Groups); n == 0 || mesh.Groups[n-1].Material != face.Material {
			mesh.Groups = append(mesh.Groups, OBJGroup{Material: face.Material, Start: len(mesh.Indices)})
		}

		first := emit(face.Vertices[0], flat)
		for j := 1; j+1 < len(face.Vertices); j++ {
			b := emit(face.Vertices[j], flat)
			c := emit(face.Vertices[j+1], flat)
			mesh.Indices = append(mesh.Indices, first, b, c)
		}
		mesh.Groups[len(mesh.Groups)-1].Count = len(mesh.Indices) - mesh.Groups[len(mesh.Groups)-1].Start
	}

	return mesh
}

// faceNormal computes the normal of the first three corners.
// Degenerate faces fall back to +Y.
func faceNormal(positions [][3]float32, face *OBJFace) [3]float32 {
	v0 := positions[face.Vertices[0].Position]
	v1 := positions[face.Vertices[1].Position]
	v2 := positions[face.Vertices[2].Position]
	e1 := [3]float32{v1[0] - v0[0], v1[1] - v0[1], v1[2] - v0[2]}
	e2 := [3]float32{v2[0] - v0[0], v2[1] - v0[1], v2[2] - v0[2]}
	n := [3]float32{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
	l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l < 1e-6 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}
