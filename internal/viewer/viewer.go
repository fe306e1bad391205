// Package viewer runs the interactive map viewer: window, frame loop and fly camera.
package viewer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/vbsp-viewer/internal/config"
	"github.com/Faultbox/vbsp-viewer/internal/engine/camera"
	"github.com/Faultbox/vbsp-viewer/internal/engine/debug"
	"github.com/Faultbox/vbsp-viewer/internal/engine/input"
	"github.com/Faultbox/vbsp-viewer/internal/engine/renderer"
	"github.com/Faultbox/vbsp-viewer/internal/engine/scene"
	"github.com/Faultbox/vbsp-viewer/internal/engine/window"
	"github.com/Faultbox/vbsp-viewer/internal/logger"
	"github.com/Faultbox/vbsp-viewer/internal/world"
)

const appTitle = "BSP Viewer"

// Viewer is the interactive map viewer.
type Viewer struct {
	cfg      *config.Config
	title    string
	running  bool
	looking  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.FlyCamera
	exporter *debug.Exporter
	root     *scene.Node
	log      *zap.Logger
}

// New loads the map at path and opens a window showing it.
func New(cfg *config.Config, path string) (*Viewer, error) {
	log := logger.Named("viewer")

	opts := world.DefaultOptions()
	opts.HDR = cfg.Map.HDR
	opts.StrictEntities = cfg.Map.StrictEntities
	opts.Packer.MaxSize = cfg.Map.AtlasMaxSize

	root, stats, err := world.Load(path, opts)
	if err != nil {
		return nil, fmt.Errorf("loading map: %w", err)
	}

	v := &Viewer{
		cfg:      cfg,
		title:    fmt.Sprintf("%s - %s", appTitle, filepath.Base(path)),
		root:     root,
		input:    input.New(),
		exporter: debug.NewExporter(cfg.Export.Dir, cfg.Export.Format),
		log:      log,
	}

	v.window, err = window.New(window.Config{
		Title:      v.title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    cfg.Graphics.MSAA,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer after window, since the OpenGL context must exist.
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:       width,
		Height:      height,
		Multisample: cfg.Graphics.MSAA > 0,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	v.renderer.Upload(root)

	v.camera = camera.NewFlyCamera()
	v.camera.FOV = cfg.Graphics.FOV
	v.camera.Speed = cfg.Camera.Speed
	v.camera.Sensitivity = cfg.Camera.Sensitivity
	v.resetCamera()

	log.Info("viewer initialized",
		zap.String("map", root.Name),
		zap.Int("models", stats.Models),
		zap.Int("groups", stats.Groups),
		zap.Int("vertices", stats.Vertices),
	)
	return v, nil
}

// Run starts the frame loop. It returns nil when the user quits.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.update(float32(dt))

		v.renderer.Begin()
		v.renderer.Draw(v.root, v.camera.ViewMatrix(), v.camera.ProjectionMatrix(v.renderer.Aspect()))
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
			)
			v.window.SetTitle(fmt.Sprintf("%s (%d fps, %.1f m/s)", v.title, frameCount, v.camera.Speed))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.DrawableSize())

		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_G:
				v.renderer.SetShowGrid(!v.renderer.ShowGrid())
			case sdl.SCANCODE_F11:
				v.window.ToggleFullscreen()
			case sdl.SCANCODE_F12:
				v.screenshot()
			case sdl.SCANCODE_HOME:
				v.resetCamera()
			}

		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				v.setLooking(true)
			}
		case input.EventMouseUp:
			if event.Button == sdl.BUTTON_RIGHT {
				v.setLooking(false)
			}

		case input.EventMouseWheel:
			v.camera.HandleZoom(event.DeltaY)
		}
	}
}

// resetCamera frames the whole map.
func (v *Viewer) resetCamera() {
	if minB, maxB, ok := v.root.Bounds(); ok {
		v.camera.FitToBounds(minB, maxB)
	}
}

func (v *Viewer) setLooking(looking bool) {
	if v.looking == looking {
		return
	}
	v.looking = looking
	v.window.SetMouseCaptured(looking)
}

// update moves the camera from held keys and drags it with the right mouse button.
func (v *Viewer) update(dt float32) {
	if v.looking {
		dx, dy := v.input.MouseDelta()
		v.camera.HandleLook(float32(dx), float32(dy))
	}

	var forward, right, up float32
	if v.input.IsKeyHeld(sdl.SCANCODE_W) {
		forward++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_S) {
		forward--
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_D) {
		right++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_A) {
		right--
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_SPACE) {
		up++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_LCTRL) {
		up--
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_LSHIFT) {
		dt *= 4
	}
	v.camera.HandleMovement(forward, right, up, dt)
}

func (v *Viewer) screenshot() {
	width, height := v.window.DrawableSize()
	path, err := v.exporter.CaptureFromPixels("screenshot", v.renderer.ReadPixels(), width, height)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases GPU and window resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
