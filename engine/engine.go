package engine

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/engine/effect"
	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/window"
)

// ErrNotConfigured is returned by Run when the engine has no window or no renderer.
var ErrNotConfigured = errors.New("engine needs a window and a renderer")

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	window   window.Window
	renderer renderer.Renderer
	library  shader.Library
	effects  []effect.Effect

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickRate     time.Duration
	tickCallback func(deltaTime float32)
	drawCallback func(deltaTime float32) error

	renderFrameLimit time.Duration
	lastFrame        time.Time

	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine drives effect rendering. Frames run on the thread that called Run, which must
// own the graphics context: each frame reloads changed shaders, opens a renderer frame,
// calls the draw callback, and presents. The tick callback runs on its own goroutine at
// a fixed rate and is the place to animate effect parameters, which are safe to set
// concurrently with pass applies.
type Engine interface {
	// Window returns the window frames are drawn into.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the device effects are built on.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// AddEffect registers an effect whose link count feeds the profiler and which is
	// released when the engine shuts down.
	//
	// Parameters:
	//   - e: the effect
	AddEffect(e effect.Effect)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetDrawCallback registers the function called inside every frame, between BeginFrame
	// and EndFrame. It applies passes and issues draws.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds, an error is logged and the frame still presents
	SetDrawCallback(callback func(deltaTime float32) error)

	// EnableProfiler enables frame rate and link count output to the log.
	EnableProfiler()

	// DisableProfiler disables profiling output.
	DisableProfiler()

	// Run starts the tick goroutine and the frame loop. It blocks until the window closes
	// or Quit is called, then releases effects, the shader library and the renderer.
	//
	// Returns:
	//   - error: ErrNotConfigured if the window or renderer is missing
	Run() error

	// Quit stops the tick goroutine and closes the window. Safe to call multiple times.
	Quit()
}

// NewEngine creates an engine. The window's resize callback is routed to the renderer.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:          &sync.Mutex{},
		profiler:    profiler.NewProfiler(),
		tickRate:    time.Second / 60,
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer != nil {
				e.renderer.Resize(width, height)
			}
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) AddEffect(fx effect.Effect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.effects = append(e.effects, fx)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetDrawCallback(callback func(deltaTime float32) error) {
	e.drawCallback = callback
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) Run() error {
	if e.window == nil || e.renderer == nil {
		return ErrNotConfigured
	}

	e.wg.Add(1)
	go e.handleTick()

	e.lastFrame = time.Now()
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.Close()
		default:
			e.frame()
		}
	})
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.shutdown()
	return nil
}

func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleTick fires the tick callback at the configured rate until quit.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		}
	}
}

// frame renders one frame on the calling thread.
func (e *engine) frame() {
	now := time.Now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now

	if e.library != nil && len(e.library.Dirty()) > 0 {
		if _, err := e.library.Reload(); err != nil {
			log.Printf("[Engine] shader reload failed: %v", err)
		}
	}

	if err := e.renderer.BeginFrame(); err != nil {
		log.Printf("[Engine] begin frame failed: %v", err)
		return
	}
	if e.drawCallback != nil {
		if err := e.drawCallback(dt); err != nil {
			log.Printf("[Engine] draw failed: %v", err)
		}
	}
	e.renderer.EndFrame()
	e.renderer.Present()

	if e.profilingEnabled {
		e.profiler.Tick(e.linkCount())
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (e *engine) linkCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	for _, fx := range e.effects {
		total += fx.LinkCount()
	}
	return total
}

// shutdown releases GPU objects in dependency order: pass programs, then shaders, then the device.
func (e *engine) shutdown() {
	e.mu.Lock()
	effects := e.effects
	e.effects = nil
	e.mu.Unlock()

	for _, fx := range effects {
		fx.Release()
	}
	if e.library != nil {
		e.library.Release()
	}
	effect.ReleasePassthrough(e.renderer.Backend())
	e.renderer.Release()
}
