package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-fx/engine/effect"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables profiling output.
//
// Parameters:
//   - enabled: if true, logs frame rate and link counts once per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the tick callback rate. Values <= 0 are treated as 60Hz.
//
// Parameters:
//   - fps: ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.tickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window frames are drawn into.
//
// Parameters:
//   - w: a window created with the client API matching the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer created for the window.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithLibrary sets a shader library whose dirty entries are reloaded at the start of each frame.
//
// Parameters:
//   - l: the shader library, usually with Watch running
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLibrary(l shader.Library) EngineBuilderOption {
	return func(e *engine) {
		e.library = l
	}
}

// WithEffect registers an effect at construction, see Engine.AddEffect.
//
// Parameters:
//   - fx: the effect
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEffect(fx effect.Effect) EngineBuilderOption {
	return func(e *engine) {
		e.effects = append(e.effects, fx)
	}
}

// WithRenderFrameLimit caps the frame rate. Pass 0 to uncap (default).
//
// Parameters:
//   - fps: maximum frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
