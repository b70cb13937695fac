// Package app wires the window, tracking session, geometry store, renderer
// and placement controller into the render loop.
package app

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/arplace/internal/config"
	"github.com/Faultbox/arplace/internal/engine/audio"
	"github.com/Faultbox/arplace/internal/engine/capture"
	"github.com/Faultbox/arplace/internal/engine/geometry"
	"github.com/Faultbox/arplace/internal/engine/gesture"
	"github.com/Faultbox/arplace/internal/engine/input"
	"github.com/Faultbox/arplace/internal/engine/renderer"
	"github.com/Faultbox/arplace/internal/engine/scene"
	"github.com/Faultbox/arplace/internal/engine/window"
	"github.com/Faultbox/arplace/internal/logger"
	"github.com/Faultbox/arplace/internal/placement"
	"github.com/Faultbox/arplace/internal/tracking"
)

const (
	sliderStep = 5
	panStep    = 5
)

// App is the running viewer.
type App struct {
	config  *config.Config
	running bool

	window   *window.Window
	device   *renderer.Device
	session  *tracking.SimSession
	store    *geometry.Store
	scene    *scene.Renderer
	input    *input.Input
	detector *gesture.Detector
	ctrl     *placement.Controller
	photo    *capture.Photo
	sounds   *audio.Manager

	// unmuteVolume is restored when sound is switched back on.
	unmuteVolume float64
	debugLog     bool
}

// New opens the window, creates the GL device and the tracking session and
// loads every configured object kind.
func New(cfg *config.Config) (*App, error) {
	a := &App{config: cfg}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "ARPlace",
		Width:      cfg.Display.Width,
		Height:     cfg.Display.Height,
		Fullscreen: cfg.Display.Fullscreen,
		VSync:      cfg.Display.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the GL context the window just made current.
	a.device, err = renderer.NewDevice()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	a.session = tracking.NewSimSession(tracking.SimConfig{
		FOV:            cfg.Tracking.FOV,
		Near:           cfg.Tracking.Near,
		Far:            cfg.Tracking.Far,
		PlaneY:         cfg.Tracking.PlaneY,
		PlaneExtent:    cfg.Tracking.PlaneExtent,
		CameraDistance: cfg.Tracking.CameraDistance,
		LightIntensity: cfg.Tracking.LightIntensity,
	})

	assets := os.DirFS(cfg.Assets.Dir)
	a.store = geometry.NewStore(assets, a.device)
	for _, k := range cfg.Assets.Kinds {
		a.store.Register(geometry.KindSpec{
			Name:     k.Name,
			Mesh:     k.Mesh,
			Texture:  k.Texture,
			Material: k.Material,
		})
	}
	available := a.store.LoadAll()
	logger.Info("object kinds loaded",
		zap.String("dir", cfg.Assets.Dir),
		zap.Int("available", available),
		zap.Int("registered", len(cfg.Assets.Kinds)))

	a.scene = scene.New(scene.Config{
		Width:            cfg.Display.Width,
		Height:           cfg.Display.Height,
		SelectionColor:   cfg.Scene.SelectedColor,
		ShowSelectionBox: cfg.Scene.ShowSelectionBox,
		TintAlpha:        scene.DefaultTintAlpha,
	}, a.store, a.device)

	queue := gesture.NewQueue(cfg.Scene.GestureQueueSize)
	a.detector = gesture.NewDetector(queue)
	a.input = input.New(a.detector)

	a.ctrl = placement.NewController(placement.Config{
		MaxObjects:    cfg.Scene.MaxObjects,
		DefaultColor:  cfg.Scene.DefaultColor,
		SelectedColor: cfg.Scene.SelectedColor,
	}, queue, a.scene, a.store, a.session)
	if err := a.ctrl.SetObjectKind(cfg.Scene.DefaultKind); err != nil {
		logger.Warn("default object kind unavailable", zap.Error(err))
	}

	a.photo = capture.NewPhoto(cfg.Capture.Dir, cfg.Capture.Prefix)

	if cfg.Audio.Enabled {
		a.sounds = loadSounds(assets, cfg.Audio)
		a.ctrl.OnEvent(a.onPlacementEvent)
	}

	a.resize(a.window.Size())

	logger.Info("viewer initialized")
	return a, nil
}

// Run runs the render loop until the window is closed or Esc is pressed.
func (a *App) Run() error {
	a.running = true

	frameCount := 0
	fpsTimer := time.Now()
	skipped := 0
	frameLog := logger.Named("frame")

	logger.Debug("starting render loop")

	for a.running {
		if a.input.Update() {
			a.running = false
			break
		}
		a.handleEvents()

		if !a.frame() {
			skipped++
		}

		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			frameLog.Debug("fps",
				zap.Int("frames", frameCount),
				zap.Int("skipped", skipped),
				zap.Int("objects", len(a.ctrl.Objects())),
				zap.Int("anchors", a.session.AnchorCount()),
				zap.Int("gestures_dropped", a.detector.Dropped()))
			frameCount, skipped = 0, 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// frame runs one tracking update and draws it. It reports false when the
// session produced no frame.
func (a *App) frame() bool {
	width, height := a.window.DrawableSize()
	a.device.BeginFrame(width, height, a.config.Display.ClearColor)

	f, err := a.session.Update()
	if err != nil {
		logger.Warn("tracking update failed, skipping frame", zap.Error(err))
		return false
	}

	a.ctrl.HandleGesture(f)
	stats := a.ctrl.DrawAll(f)
	if stats.Errors > 0 {
		logger.Debug("frame drawn with errors",
			zap.Int("drawn", stats.Drawn),
			zap.Int("errors", stats.Errors))
	}

	if a.ctrl.PhotoRequested() {
		a.savePhoto(width, height)
	}
	return true
}

func (a *App) savePhoto(width, height int) {
	pixels, err := a.device.ReadPixels(width, height)
	if err != nil {
		logger.Error("failed to read frame", zap.Error(err))
		return
	}
	path, err := a.photo.SavePixels(pixels, width, height)
	if err != nil {
		logger.Error("failed to save photo", zap.Error(err))
		return
	}
	logger.Info("photo saved", zap.String("path", path))
	a.play(audio.CueShutter)
}

// loadSounds opens the speaker and decodes the configured cues. Failures
// only cost the affected cue.
func loadSounds(assets fs.FS, cfg config.AudioConfig) *audio.Manager {
	m := audio.New(cfg.Volume)
	if err := m.Init(); err != nil {
		logger.Warn("audio unavailable", zap.Error(err))
		return nil
	}
	cues := map[audio.Cue]string{
		audio.CuePlace:   cfg.Place,
		audio.CueSelect:  cfg.Select,
		audio.CueShutter: cfg.Shutter,
	}
	for cue, name := range cues {
		if name == "" {
			continue
		}
		data, err := fs.ReadFile(assets, name)
		if err == nil {
			err = m.Load(cue, data)
		}
		if err != nil {
			logger.Warn("sound cue unavailable", zap.Stringer("cue", cue), zap.Error(err))
		}
	}
	return m
}

func (a *App) onPlacementEvent(e placement.Event, _ *placement.Object) {
	switch e {
	case placement.EventPlaced, placement.EventMoved:
		a.play(audio.CuePlace)
	case placement.EventSelected:
		a.play(audio.CueSelect)
	}
}

func (a *App) play(cue audio.Cue) {
	if a.sounds == nil || !a.sounds.Initialized() || !a.sounds.Loaded(cue) {
		return
	}
	if err := a.sounds.Play(cue); err != nil {
		logger.Debug("failed to play cue", zap.Stringer("cue", cue), zap.Error(err))
	}
}

func (a *App) handleEvents() {
	cam := a.session.Camera()
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			a.resize(a.window.Size())
		case input.EventOrbit:
			cam.HandleDrag(event.DX, event.DY)
		case input.EventZoom:
			cam.HandleZoom(event.Wheel)
		case input.EventKeyDown:
			a.handleKey(event.Key)
		}
	}
}

func (a *App) handleKey(key sdl.Keycode) {
	cam := a.session.Camera()

	switch key {
	case sdl.K_ESCAPE:
		a.running = false
	case sdl.K_DELETE, sdl.K_BACKSPACE:
		a.ctrl.DeleteObject()
	case sdl.K_p:
		a.ctrl.TakePhoto()
	case sdl.K_m:
		a.toggleMute()
	case sdl.K_F3:
		a.toggleDebugLog()
	case sdl.K_LEFTBRACKET, sdl.K_RIGHTBRACKET:
		if sel, ok := a.ctrl.Selected(); ok {
			step := sliderStep
			if key == sdl.K_LEFTBRACKET {
				step = -step
			}
			a.ctrl.AdjustRotation(sel.RotationProgress() + step)
		}
	case sdl.K_MINUS, sdl.K_EQUALS:
		if sel, ok := a.ctrl.Selected(); ok {
			step := sliderStep
			if key == sdl.K_MINUS {
				step = -step
			}
			a.ctrl.AdjustScale(sel.ScaleProgress() + step)
		}
	case sdl.K_k:
		a.session.LoseTracking()
	case sdl.K_SPACE:
		a.session.SetPaused(!a.session.Paused())
	case sdl.K_UP:
		cam.HandleMovement(panStep, 0)
	case sdl.K_DOWN:
		cam.HandleMovement(-panStep, 0)
	case sdl.K_LEFT:
		cam.HandleMovement(0, -panStep)
	case sdl.K_RIGHT:
		cam.HandleMovement(0, panStep)
	default:
		if key >= sdl.K_1 && key <= sdl.K_9 {
			a.selectKind(int(key - sdl.K_1))
		}
	}
}

func (a *App) selectKind(index int) {
	kinds := a.store.Kinds()
	if index >= len(kinds) {
		return
	}
	name := kinds[index].Name
	if cur, ok := a.ctrl.ObjectKind(); ok && cur == geometry.Kind(index) {
		return
	}
	if err := a.ctrl.SetObjectKind(name); err != nil {
		logger.Warn("cannot select object kind", zap.Error(err))
		return
	}
	a.window.SetTitle("ARPlace - " + name)
	logger.Info("object kind selected", zap.String("kind", name))
}

func (a *App) toggleMute() {
	if a.sounds == nil {
		return
	}
	if vol := a.sounds.Volume(); vol > 0 {
		a.unmuteVolume = vol
		a.sounds.SetVolume(0)
	} else {
		if a.unmuteVolume <= 0 {
			a.unmuteVolume = a.config.Audio.Volume
		}
		a.sounds.SetVolume(a.unmuteVolume)
	}
	logger.Info("sound volume changed", zap.Float64("volume", a.sounds.Volume()))
}

// toggleDebugLog switches between debug and the configured level.
func (a *App) toggleDebugLog() {
	a.debugLog = !a.debugLog
	lvl := a.config.Logging.Level
	if a.debugLog {
		lvl = "debug"
	}
	logger.SetLevel(lvl)
	logger.Info("log level changed", zap.String("level", lvl))
}

// resize propagates the window size. Gestures arrive in window coordinates,
// so hit tests use the window size rather than the drawable size.
func (a *App) resize(width, height int) {
	a.scene.SetSize(width, height)
	a.session.SetViewport(width, height)
}

// Close tears everything down: anchors first, then GPU resources, the
// device, the session and finally the window.
func (a *App) Close() {
	logger.Debug("closing viewer")

	if a.ctrl != nil {
		a.ctrl.Release()
	}
	if a.store != nil {
		a.store.Release()
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.sounds != nil {
		a.sounds.Close()
	}
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			logger.Warn("failed to close tracking session", zap.Error(err))
		}
	}
	if a.window != nil {
		a.window.Close()
	}
}
