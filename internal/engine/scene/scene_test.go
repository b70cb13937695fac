package scene

import (
	"errors"
	"testing"

	"github.com/Faultbox/arplace/internal/engine/geometry"
	"github.com/Faultbox/arplace/internal/engine/gpu"
	"github.com/Faultbox/arplace/pkg/math"
)

type testObject struct {
	kind     geometry.Kind
	model    math.Mat4
	color    [4]uint8
	selected bool
	tracking bool
}

func (o *testObject) Kind() geometry.Kind    { return o.kind }
func (o *testObject) ModelMatrix() math.Mat4 { return o.model }
func (o *testObject) Color() [4]uint8        { return o.color }
func (o *testObject) Selected() bool         { return o.selected }
func (o *testObject) Tracking() bool         { return o.tracking }

type mapStore map[geometry.Kind]*geometry.Record

func (m mapStore) Get(k geometry.Kind) (*geometry.Record, bool) {
	r, ok := m[k]
	return r, ok
}

type drawCall struct {
	op    string
	mesh  gpu.Mesh
	lit   gpu.LitParams
	mat   gpu.MaterialParams
	rng   gpu.Range
	lines int
	color [4]float32
}

type recordingDrawer struct {
	calls   []drawCall
	failLit error
}

func (d *recordingDrawer) DrawLit(m gpu.Mesh, _ gpu.Texture, p gpu.LitParams) error {
	d.calls = append(d.calls, drawCall{op: "lit", mesh: m, lit: p})
	return d.failLit
}

func (d *recordingDrawer) DrawMaterial(m gpu.Mesh, _ gpu.Texture, r gpu.Range, p gpu.MaterialParams) error {
	d.calls = append(d.calls, drawCall{op: "material", mesh: m, rng: r, mat: p})
	return nil
}

func (d *recordingDrawer) DrawLines(v []float32, _ math.Mat4, c [4]float32) error {
	d.calls = append(d.calls, drawCall{op: "lines", lines: len(v) / 3, color: c})
	return nil
}

func unitBoxRecord(kind geometry.Kind, vao uint32) *geometry.Record {
	return &geometry.Record{
		Kind:   kind,
		Name:   "box",
		Bounds: geometry.BoundingBox{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}},
		Mesh:   gpu.Mesh{VAO: vao, IndexCount: 36},
	}
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestDrawFrameOrderAndSkips(t *testing.T) {
	store := mapStore{
		0: unitBoxRecord(0, 10),
		1: unitBoxRecord(1, 11),
	}
	dev := &recordingDrawer{}
	r := New(DefaultConfig(), store, dev)

	objects := []Object{
		&testObject{kind: 1, model: math.Identity(), tracking: true},
		&testObject{kind: 0, model: math.Identity(), tracking: false}, // paused
		&testObject{kind: 7, model: math.Identity(), tracking: true},  // no geometry
		&testObject{kind: 0, model: math.Identity(), tracking: true},
	}
	stats := r.DrawFrame(math.Identity(), math.Identity(), 1, objects)

	if stats.Drawn != 2 || stats.Skipped != 2 || stats.Errors != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if len(dev.calls) != 2 {
		t.Fatalf("expected 2 draws, got %d", len(dev.calls))
	}
	if dev.calls[0].mesh.VAO != 11 || dev.calls[1].mesh.VAO != 10 {
		t.Errorf("draw order does not follow list order: %v, %v", dev.calls[0].mesh.VAO, dev.calls[1].mesh.VAO)
	}
}

func TestDrawFrameLitParams(t *testing.T) {
	store := mapStore{0: unitBoxRecord(0, 1)}
	dev := &recordingDrawer{}
	r := New(DefaultConfig(), store, dev)

	view := math.Translate(0, 0, -5)
	proj := math.Perspective(math.Radians(60), 1, 0.1, 100)
	model := math.Translate(1, 0, 0).Mul(math.RotateY(math.Radians(90)))
	obj := &testObject{kind: 0, model: model, color: [4]uint8{66, 244, 133, 255}, tracking: true}

	r.DrawFrame(view, proj, 0.7, []Object{obj})
	if len(dev.calls) != 1 {
		t.Fatalf("expected one draw, got %d", len(dev.calls))
	}
	p := dev.calls[0].lit

	wantMV := view.Mul(model)
	wantMVP := proj.Mul(wantMV)
	for i := range wantMVP {
		if !approx(p.MVP[i], wantMVP[i]) || !approx(p.ModelView[i], wantMV[i]) {
			t.Fatalf("matrix element %d differs", i)
		}
	}
	// rotation about Y keeps +Y as +Y; translation is ignored for w=0
	if !approx(p.Light[0], 0) || !approx(p.Light[1], 1) || !approx(p.Light[2], 0) {
		t.Errorf("light direction: got %v, want (0,1,0)", p.Light)
	}
	if p.Light[3] != 0.7 {
		t.Errorf("light intensity: got %v, want 0.7", p.Light[3])
	}
	if p.Color != [4]float32{66, 244, 133, DefaultTintAlpha} {
		t.Errorf("color: got %v", p.Color)
	}
	if obj.color[3] != 255 {
		t.Errorf("display color must not change, got %v", obj.color)
	}
}

func TestDrawFrameTextureShowsThroughTint(t *testing.T) {
	tests := []struct {
		name      string
		tintAlpha uint8
	}{
		{"default", DefaultTintAlpha},
		{"custom", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TintAlpha = tt.tintAlpha
			dev := &recordingDrawer{}
			r := New(cfg, mapStore{0: unitBoxRecord(0, 1)}, dev)

			obj := &testObject{kind: 0, model: math.Identity(), color: [4]uint8{66, 244, 133, 255}, tracking: true}
			r.DrawFrame(math.Identity(), math.Identity(), 1, []Object{obj})

			if len(dev.calls) != 1 {
				t.Fatalf("expected one draw, got %d", len(dev.calls))
			}
			a := dev.calls[0].lit.Color[3]
			if a != float32(tt.tintAlpha) {
				t.Errorf("uploaded alpha: got %v, want %v", a, tt.tintAlpha)
			}
			// object.frag mixes tint*a + (1-a)*texture with a in [0,1]
			if textureWeight := 1 - a/255; textureWeight <= 0.5 {
				t.Errorf("texture weight %v should dominate the tint", textureWeight)
			}
		})
	}
}

func TestDrawFrameMaterialPath(t *testing.T) {
	rec := unitBoxRecord(0, 1)
	rec.Groups = []geometry.MaterialGroup{
		{Material: geometry.Material{Name: "a", Diffuse: [3]float32{1, 0, 0}}, Start: 0, Count: 12},
		{Material: geometry.Material{Name: "b", Diffuse: [3]float32{0, 0, 1}}, Start: 12, Count: 24},
	}
	dev := &recordingDrawer{}
	r := New(DefaultConfig(), mapStore{0: rec}, dev)

	view := math.Translate(0, 0, -3)
	proj := math.Perspective(math.Radians(60), 1, 0.1, 100)
	model := math.Translate(0.5, 0, 0)
	r.DrawFrame(view, proj, 1, []Object{&testObject{kind: 0, model: model, tracking: true}})

	if len(dev.calls) != 2 {
		t.Fatalf("expected one draw per group, got %d", len(dev.calls))
	}
	wantMVP := proj.Mul(view.Mul(model))
	for i, call := range dev.calls {
		if call.op != "material" {
			t.Errorf("call %d: expected material draw, got %s", i, call.op)
		}
		g := rec.Groups[i]
		if call.rng.Start != g.Start || call.rng.Count != g.Count || call.mat.Diffuse != g.Material.Diffuse {
			t.Errorf("call %d: got %+v / %+v", i, call.rng, call.mat.Diffuse)
		}
		for j := range wantMVP {
			if !approx(call.mat.MVP[j], wantMVP[j]) {
				t.Fatalf("call %d: MVP element %d differs", i, j)
			}
		}
	}
}

func TestDrawFrameSelectionBox(t *testing.T) {
	dev := &recordingDrawer{}
	r := New(DefaultConfig(), mapStore{0: unitBoxRecord(0, 1)}, dev)

	r.DrawFrame(math.Identity(), math.Identity(), 1, []Object{
		&testObject{kind: 0, model: math.Identity(), tracking: true, selected: true},
	})
	if len(dev.calls) != 2 || dev.calls[1].op != "lines" || dev.calls[1].lines != 24 {
		t.Fatalf("expected mesh then 24-vertex wireframe, got %+v", dev.calls)
	}
	if !approx(dev.calls[1].color[2], 244.0/255) {
		t.Errorf("selection color not normalized: %v", dev.calls[1].color)
	}

	dev.calls = nil
	cfg := DefaultConfig()
	cfg.ShowSelectionBox = false
	r = New(cfg, mapStore{0: unitBoxRecord(0, 1)}, dev)
	r.DrawFrame(math.Identity(), math.Identity(), 1, []Object{
		&testObject{kind: 0, model: math.Identity(), tracking: true, selected: true},
	})
	if len(dev.calls) != 1 {
		t.Errorf("selection box drawn while disabled: %+v", dev.calls)
	}
}

func TestDrawFrameContinuesAfterError(t *testing.T) {
	dev := &recordingDrawer{failLit: errors.New("GL error")}
	r := New(DefaultConfig(), mapStore{0: unitBoxRecord(0, 1)}, dev)

	objs := []Object{
		&testObject{kind: 0, model: math.Identity(), tracking: true},
		&testObject{kind: 0, model: math.Identity(), tracking: true},
	}
	stats := r.DrawFrame(math.Identity(), math.Identity(), 1, objs)
	if stats.Errors != 2 || len(dev.calls) != 2 {
		t.Errorf("expected both objects attempted with errors, got %+v and %d calls", stats, len(dev.calls))
	}
}

func TestHitTestIdentity(t *testing.T) {
	r := New(DefaultConfig(), mapStore{0: unitBoxRecord(0, 1)}, &recordingDrawer{})
	r.SetSize(800, 800)
	obj := &testObject{kind: 0, model: math.Identity(), tracking: true}
	id := math.Identity()

	tests := []struct {
		name string
		x, y float32
		want bool
	}{
		{"center", 400, 400, true},
		{"corner on edge", 0, 0, false},
		{"near corner inside", 0.5, 0.5, true},
		{"far edge", 800, 800, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.HitTest(id, id, obj, tt.x, tt.y); got != tt.want {
				t.Errorf("HitTest(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHitTestTranslatedObject(t *testing.T) {
	r := New(DefaultConfig(), mapStore{0: unitBoxRecord(0, 1)}, &recordingDrawer{})
	r.SetSize(800, 600)

	view := math.LookAt(math.Vec3{Z: 10}, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(math.Radians(60), 800.0/600.0, 0.1, 100)
	left := &testObject{kind: 0, model: math.Translate(-4, 0, 0).Mul(math.Scale(0.5, 0.5, 0.5)), tracking: true}

	if r.HitTest(view, proj, left, 400, 300) {
		t.Error("object left of center should not cover the center")
	}
	if !r.HitTest(view, proj, left, 400-4*(400/(10*0.57735*800/600)), 300) {
		t.Error("tap over the object's projected center should hit")
	}
}

func TestHitTestMissingGeometryAndBehindCamera(t *testing.T) {
	r := New(DefaultConfig(), mapStore{0: unitBoxRecord(0, 1)}, &recordingDrawer{})
	r.SetSize(800, 800)

	if r.HitTest(math.Identity(), math.Identity(), &testObject{kind: 5, model: math.Identity()}, 400, 400) {
		t.Error("object without geometry must not hit")
	}

	view := math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(math.Radians(60), 1, 0.1, 100)
	behind := &testObject{kind: 0, model: math.Translate(0, 0, 10)}
	if r.HitTest(view, proj, behind, 400, 400) {
		t.Error("object behind the camera must not hit")
	}
}
