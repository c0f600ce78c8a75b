package renderer

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
)

// RendererBackendType identifies the graphics API the Renderer drives.
type RendererBackendType int

const (
	// BackendTypeGL selects OpenGL 4.1 core. The window must be created with window.ClientAPIOpenGL.
	BackendTypeGL RendererBackendType = iota

	// BackendTypeWGPU selects WebGPU. The window must be created with window.ClientAPINone.
	BackendTypeWGPU
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeGL:
		return "OpenGL"
	case BackendTypeWGPU:
		return "WebGPU"
	default:
		return "unknown"
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately. May tear but has the lowest latency.
	PresentModeUncapped
)

// frameBackend is the per-API half of the Renderer: it owns the surface or default
// framebuffer and hands out the program backend effects compile against.
type frameBackend interface {
	// Programs returns the program backend bound to this frame backend.
	Programs() program.Backend

	// ConfigureSurface sizes the render target.
	ConfigureSurface(width, height int)

	// BeginFrame clears the render target and opens the frame for draws.
	BeginFrame(clear [4]float64) error

	// Draw issues one triangle-list draw with the bound program.
	Draw(vertices []common.SpriteVertex) error

	// EndFrame closes the frame and submits its commands.
	EndFrame()

	// Present shows the finished frame.
	Present()

	// Release frees API objects.
	Release()
}
