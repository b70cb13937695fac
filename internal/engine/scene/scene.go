// Package scene draws placed objects and hit-tests taps against them.
package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/arplace/internal/engine/debug"
	"github.com/Faultbox/arplace/internal/engine/geometry"
	"github.com/Faultbox/arplace/internal/engine/gpu"
	"github.com/Faultbox/arplace/internal/engine/picking"
	"github.com/Faultbox/arplace/internal/logger"
	"github.com/Faultbox/arplace/pkg/math"
)

// lightDirection is the fixed light in object space: straight up.
var lightDirection = math.Vec4{0, 1, 0, 0}

// DefaultTintAlpha is the weight, in [0,255], of the object colour over its
// texture in the textured-lit shader.
const DefaultTintAlpha = 30

// Object is a drawable placed instance.
type Object interface {
	Kind() geometry.Kind
	// ModelMatrix is the object's local-to-world transform.
	ModelMatrix() math.Mat4
	// Color is RGBA in [0,255].
	Color() [4]uint8
	Selected() bool
	// Tracking reports whether the object's pose is valid this frame.
	Tracking() bool
}

// Geometry looks up loaded records.
type Geometry interface {
	Get(geometry.Kind) (*geometry.Record, bool)
}

// Drawer issues draw calls.
type Drawer interface {
	DrawLit(gpu.Mesh, gpu.Texture, gpu.LitParams) error
	DrawMaterial(gpu.Mesh, gpu.Texture, gpu.Range, gpu.MaterialParams) error
	DrawLines(vertices []float32, mvp math.Mat4, color [4]float32) error
}

// Config contains renderer options.
type Config struct {
	Width  int
	Height int
	// SelectionColor outlines selected objects, RGBA in [0,255].
	SelectionColor   [4]uint8
	ShowSelectionBox bool
	// TintAlpha replaces the object colour's alpha when uploaded, so the
	// texture stays visible under the tint.
	TintAlpha uint8
}

// DefaultConfig returns a default renderer configuration.
func DefaultConfig() Config {
	return Config{
		Width:            1280,
		Height:           720,
		SelectionColor:   [4]uint8{66, 133, 244, 255},
		ShowSelectionBox: true,
		TintAlpha:        DefaultTintAlpha,
	}
}

// FrameStats summarizes one DrawFrame call.
type FrameStats struct {
	Drawn   int
	Skipped int
	Errors  int
}

// Renderer draws objects from a geometry store through a Drawer. It keeps no
// per-frame state; every draw computes its own matrices.
type Renderer struct {
	config Config
	store  Geometry
	dev    Drawer
}

// New creates a renderer.
func New(cfg Config, store Geometry, dev Drawer) *Renderer {
	return &Renderer{config: cfg, store: store, dev: dev}
}

// SetSize sets the viewport used to map projected points to pixels.
func (r *Renderer) SetSize(width, height int) {
	r.config.Width = width
	r.config.Height = height
}

// Size returns the viewport size.
func (r *Renderer) Size() (width, height int) {
	return r.config.Width, r.config.Height
}

// DrawFrame draws every tracking object in list order. Objects whose
// geometry is unavailable are skipped. Draw errors are logged and do not stop
// the frame.
func (r *Renderer) DrawFrame(view, projection math.Mat4, lightIntensity float32, objects []Object) FrameStats {
	var stats FrameStats
	for _, obj := range objects {
		if !obj.Tracking() {
			stats.Skipped++
			continue
		}
		rec, ok := r.store.Get(obj.Kind())
		if !ok {
			stats.Skipped++
			continue
		}
		if err := r.drawObject(view, projection, lightIntensity, obj, rec); err != nil {
			stats.Errors++
			logger.Warn("draw object failed", zap.String("kind", rec.Name), zap.Error(err))
			continue
		}
		stats.Drawn++
	}
	return stats
}

func (r *Renderer) drawObject(view, projection math.Mat4, lightIntensity float32, obj Object, rec *geometry.Record) error {
	modelView := view.Mul(obj.ModelMatrix())
	mvp := projection.Mul(modelView)

	switch rec.Shading() {
	case geometry.ShadingMaterial:
		for _, g := range rec.Groups {
			err := r.dev.DrawMaterial(rec.Mesh, rec.Texture, gpu.Range{Start: g.Start, Count: g.Count}, gpu.MaterialParams{
				MVP:      mvp,
				Ambient:  g.Material.Ambient,
				Diffuse:  g.Material.Diffuse,
				Specular: g.Material.Specular,
			})
			if err != nil {
				return err
			}
		}
	default:
		light := modelView.MulVec4(lightDirection).Normalize3()
		light[3] = lightIntensity
		c := obj.Color()
		err := r.dev.DrawLit(rec.Mesh, rec.Texture, gpu.LitParams{
			MVP:       mvp,
			ModelView: modelView,
			Light:     light,
			Color:     [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(r.config.TintAlpha)},
		})
		if err != nil {
			return err
		}
	}

	if obj.Selected() && r.config.ShowSelectionBox {
		c := r.config.SelectionColor
		color := [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
		return r.dev.DrawLines(debug.BoxWireframe(rec.Bounds, debug.SelectionPadding), mvp, color)
	}
	return nil
}

// HitTest reports whether the screen point (x, y) falls strictly inside the
// screen rectangle covered by obj's projected bounding box. This is a
// screen-space test and over-approximates the object's silhouette. Objects
// without geometry, or with a corner behind the camera, never hit.
func (r *Renderer) HitTest(view, projection math.Mat4, obj Object, x, y float32) bool {
	rec, ok := r.store.Get(obj.Kind())
	if !ok {
		return false
	}
	mvp := projection.Mul(view).Mul(obj.ModelMatrix())
	rect, ok := picking.ProjectCorners(mvp, rec.Bounds.Corners(), float32(r.config.Width), float32(r.config.Height))
	if !ok {
		return false
	}
	return rect.Contains(x, y)
}
