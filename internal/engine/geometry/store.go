// Package geometry owns the per-kind meshes, materials and textures that
// placed objects are drawn with. Everything is loaded once and lives until
// Release.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"path"

	"go.uber.org/zap"

	"github.com/Faultbox/arplace/internal/engine/gpu"
	"github.com/Faultbox/arplace/internal/engine/texture"
	"github.com/Faultbox/arplace/internal/logger"
	"github.com/Faultbox/arplace/pkg/formats"
)

// Asset errors wrapped by LoadError.
var (
	ErrAssetMissing   = errors.New("asset missing")
	ErrAssetMalformed = errors.New("asset malformed")
	ErrUnknownKind    = errors.New("unknown object kind")
)

// maxVertices is the most vertices a 16-bit index buffer can address.
const maxVertices = 1 << 16

// Kind identifies a registered object kind.
type Kind int

// KindSpec declares where a kind's assets live inside the asset FS.
type KindSpec struct {
	Name     string
	Mesh     string
	Texture  string // optional
	Material string // optional MTL library, else the mesh's first mtllib; enables material shading
}

// LoadError reports why a kind could not be loaded. The kind stays
// unavailable for the rest of the session.
type LoadError struct {
	Kind string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %q: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("load %q from %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Uploader moves geometry and textures to the GPU.
type Uploader interface {
	UploadMesh(gpu.MeshData) (gpu.Mesh, error)
	UploadTexture(*image.RGBA) (gpu.Texture, error)
	ReleaseMesh(gpu.Mesh)
	ReleaseTexture(gpu.Texture)
}

// Store maps kinds to their loaded records. It is not safe for concurrent
// use; the render thread owns it.
type Store struct {
	assets fs.FS
	gpu    Uploader

	specs   []KindSpec
	byName  map[string]Kind
	records map[Kind]*Record
	failed  map[Kind]error
}

// NewStore creates a store reading assets from fsys and uploading through up.
func NewStore(fsys fs.FS, up Uploader) *Store {
	return &Store{
		assets:  fsys,
		gpu:     up,
		byName:  make(map[string]Kind),
		records: make(map[Kind]*Record),
		failed:  make(map[Kind]error),
	}
}

// Register declares a kind and returns its id. Registering a name twice
// returns the first id and keeps the first spec.
func (s *Store) Register(spec KindSpec) Kind {
	if k, ok := s.byName[spec.Name]; ok {
		return k
	}
	k := Kind(len(s.specs))
	s.specs = append(s.specs, spec)
	s.byName[spec.Name] = k
	return k
}

// Resolve maps a kind name to its id.
func (s *Store) Resolve(name string) (Kind, bool) {
	k, ok := s.byName[name]
	return k, ok
}

// Kinds returns the registered specs in registration order.
func (s *Store) Kinds() []KindSpec {
	out := make([]KindSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Available reports whether kind has been loaded successfully.
func (s *Store) Available(kind Kind) bool {
	_, ok := s.records[kind]
	return ok
}

// Get returns the loaded record for kind. It never loads.
func (s *Store) Get(kind Kind) (*Record, bool) {
	r, ok := s.records[kind]
	return r, ok
}

// LoadAll loads every registered kind. Failures are logged and the kind is
// left unavailable. It returns the number of kinds available afterwards.
func (s *Store) LoadAll() int {
	for k := range s.specs {
		if _, err := s.Load(Kind(k)); err != nil {
			logger.Error("object kind unavailable", zap.String("kind", s.specs[k].Name), zap.Error(err))
		}
	}
	return len(s.records)
}

// Load reads, validates and uploads the assets of kind. A kind is loaded at
// most once: later calls return the cached record or the original error.
func (s *Store) Load(kind Kind) (*Record, error) {
	if r, ok := s.records[kind]; ok {
		return r, nil
	}
	if err, ok := s.failed[kind]; ok {
		return nil, err
	}
	if kind < 0 || int(kind) >= len(s.specs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	r, err := s.load(kind, s.specs[kind])
	if err != nil {
		s.failed[kind] = err
		return nil, err
	}
	s.records[kind] = r
	logger.Debug("object kind loaded",
		zap.String("kind", r.Name),
		zap.Int("vertices", r.VertexCount()),
		zap.Int("indices", len(r.Indices)),
		zap.Stringer("shading", r.Shading()))
	return r, nil
}

func (s *Store) load(kind Kind, spec KindSpec) (*Record, error) {
	fail := func(name string, err error) error {
		return &LoadError{Kind: spec.Name, Path: name, Err: err}
	}

	data, err := s.read(spec.Mesh)
	if err != nil {
		return nil, fail(spec.Mesh, err)
	}
	obj, err := formats.ParseOBJ(data)
	if err != nil {
		return nil, fail(spec.Mesh, fmt.Errorf("%w: %w", ErrAssetMalformed, err))
	}
	mesh := obj.Renderable()
	if mesh.VertexCount() > maxVertices {
		return nil, fail(spec.Mesh, fmt.Errorf("%w: %d vertices exceed 16-bit indices", ErrAssetMalformed, mesh.VertexCount()))
	}

	r := &Record{
		Kind:      kind,
		Name:      spec.Name,
		Positions: mesh.Positions,
		TexCoords: mesh.TexCoords,
		Normals:   mesh.Normals,
		Indices:   make([]uint16, len(mesh.Indices)),
		Bounds:    ComputeBoundingBox(mesh.Positions),
	}
	for i, idx := range mesh.Indices {
		r.Indices[i] = uint16(idx)
	}

	// mtllib names are relative to the mesh
	libPath := spec.Material
	if libPath == "" && len(obj.MaterialLibs) > 0 {
		libPath = path.Join(path.Dir(spec.Mesh), obj.MaterialLibs[0])
	}
	var diffuseMap string
	if libPath != "" {
		diffuseMap, err = s.loadMaterials(r, mesh.Groups, libPath)
		if err != nil {
			return nil, fail(libPath, err)
		}
	}

	if err := r.validate(); err != nil {
		return nil, fail(spec.Mesh, fmt.Errorf("%w: %w", ErrAssetMalformed, err))
	}

	texPath := spec.Texture
	if texPath == "" {
		texPath = diffuseMap
	}
	img := texture.Solid(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if texPath != "" {
		data, err := s.read(texPath)
		if err != nil {
			return nil, fail(texPath, err)
		}
		if img, err = texture.Decode(data); err != nil {
			return nil, fail(texPath, fmt.Errorf("%w: %w", ErrAssetMalformed, err))
		}
	}

	if r.Mesh, err = s.gpu.UploadMesh(r.MeshData()); err != nil {
		return nil, fail("", fmt.Errorf("upload mesh: %w", err))
	}
	if r.Texture, err = s.gpu.UploadTexture(img); err != nil {
		s.gpu.ReleaseMesh(r.Mesh)
		return nil, fail("", fmt.Errorf("upload texture: %w", err))
	}
	return r, nil
}

// loadMaterials attaches one MaterialGroup per OBJ group and returns the
// first diffuse map named by the library.
func (s *Store) loadMaterials(r *Record, groups []formats.OBJGroup, lib string) (string, error) {
	data, err := s.read(lib)
	if err != nil {
		return "", err
	}
	mats, err := formats.ParseMTL(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAssetMalformed, err)
	}

	byName := make(map[string]Material, len(mats))
	diffuseMap := ""
	for _, m := range mats {
		byName[m.Name] = Material{
			Name:      m.Name,
			Ambient:   m.Ambient,
			Diffuse:   m.Diffuse,
			Specular:  m.Specular,
			Shininess: m.Shininess,
			Dissolve:  m.Dissolve,
		}
		if diffuseMap == "" {
			diffuseMap = m.DiffuseMap
		}
	}

	r.Groups = make([]MaterialGroup, 0, len(groups))
	for _, g := range groups {
		mat := defaultMaterial
		if g.Material != "" {
			var ok bool
			if mat, ok = byName[g.Material]; !ok {
				return "", fmt.Errorf("%w: material %q not defined", ErrAssetMalformed, g.Material)
			}
		}
		r.Groups = append(r.Groups, MaterialGroup{Material: mat, Start: g.Start, Count: g.Count})
	}
	return diffuseMap, nil
}

// read treats every read failure as a missing asset, including invalid paths
// and directories.
func (s *Store) read(name string) ([]byte, error) {
	data, err := fs.ReadFile(s.assets, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetMissing, err)
	}
	return data, nil
}

// Release frees every uploaded mesh and texture once and forgets all
// records. Registered kinds are kept.
func (s *Store) Release() {
	for k, r := range s.records {
		s.gpu.ReleaseMesh(r.Mesh)
		s.gpu.ReleaseTexture(r.Texture)
		delete(s.records, k)
	}
	logger.Debug("geometry released", zap.Int("kinds", len(s.specs)))
}
