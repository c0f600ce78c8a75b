package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/window"
)

var (
	// ErrClientAPIMismatch is returned when the window was created for a different graphics API than the requested backend.
	ErrClientAPIMismatch = errors.New("window client API does not match renderer backend")

	// ErrFrameInProgress is returned by BeginFrame while a previous frame has not been presented.
	ErrFrameInProgress = errors.New("previous frame not yet presented")

	// ErrNoFrame is returned by Draw outside BeginFrame and EndFrame.
	ErrNoFrame = errors.New("no frame in progress")
)

const (
	defaultWidth  = 800
	defaultHeight = 600
)

type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	frames      frameBackend
	viewport    common.Viewport
	inFrame     bool
	drawing     bool

	clearColor           [4]float64
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// Renderer is the graphics device effects draw on. It owns the window's render target
// and the program backend every shader and pass program is created with, and it
// tracks the viewport the passthrough vertex stage projects onto.
//
// A frame is BeginFrame, any number of pass applies and draws, EndFrame, then Present.
type Renderer interface {
	shader.Device

	// BackendType returns the graphics API the renderer drives.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Resize reconfigures the render target and viewport. Call it from the window's resize callback.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// BeginFrame clears the render target and opens a frame. On WebGPU this begins the
	// render pass that program binds and draws are recorded into.
	//
	// Returns:
	//   - error: ErrFrameInProgress, or an error if the surface texture could not be acquired
	BeginFrame() error

	// Draw draws vertices as a triangle list with the program bound by the last pass apply.
	// The bound vertex stage must read the SpriteVertex layout, as the passthrough stage does.
	//
	// Parameters:
	//   - vertices: the triangle list vertices, a multiple of three
	//
	// Returns:
	//   - error: ErrNoFrame outside a frame, or an error if the vertex data could not be uploaded
	Draw(vertices []common.SpriteVertex) error

	// EndFrame closes the frame and submits it to the GPU. It does not present.
	EndFrame()

	// Present displays the last submitted frame.
	Present()

	// Release frees the render target. Effects and shaders must be released first.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the renderer for a window. For BackendTypeGL the window's context
// is made current on the calling thread, which then owns every GL call.
//
// Parameters:
//   - backendType: the graphics API to drive
//   - win: the window to render into, created with the matching client API
//   - opts: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the new renderer
//   - error: ErrClientAPIMismatch, or an error if the graphics API could not be initialized
func NewRenderer(backendType RendererBackendType, win window.Window, opts ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(backendType, opts...)

	var err error
	switch backendType {
	case BackendTypeGL:
		if win.ClientAPI() != window.ClientAPIOpenGL {
			return nil, fmt.Errorf("%w: %v window for %v renderer", ErrClientAPIMismatch, win.ClientAPI(), backendType)
		}
		r.frames, err = newGLFrameBackend(win)
	case BackendTypeWGPU:
		if win.ClientAPI() != window.ClientAPINone {
			return nil, fmt.Errorf("%w: %v window for %v renderer", ErrClientAPIMismatch, win.ClientAPI(), backendType)
		}
		r.frames, err = newWGPUFrameBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, r.presentMode)
	default:
		return nil, fmt.Errorf("unsupported renderer backend type %d", backendType)
	}
	if err != nil {
		return nil, err
	}

	r.Resize(common.Coalesce(win.Width(), defaultWidth), common.Coalesce(win.Height(), defaultHeight))
	return r, nil
}

func newRenderer(backendType RendererBackendType, opts ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		clearColor:  [4]float64{0.1, 0.1, 0.1, 1.0},
		presentMode: PresentModeVSync,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *renderer) Backend() program.Backend {
	return r.frames.Programs()
}

func (r *renderer) Viewport() common.Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Resize(width, height int) {
	// Minimized windows report a zero framebuffer; keep the last usable size.
	if width <= 0 || height <= 0 {
		return
	}

	r.mu.Lock()
	r.viewport = common.NewViewport(width, height)
	r.mu.Unlock()

	r.frames.ConfigureSurface(width, height)
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFrame {
		return ErrFrameInProgress
	}
	if err := r.frames.BeginFrame(r.clearColor); err != nil {
		return err
	}
	r.inFrame = true
	r.drawing = true
	return nil
}

func (r *renderer) Draw(vertices []common.SpriteVertex) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.drawing {
		return ErrNoFrame
	}
	if len(vertices) == 0 {
		return nil
	}
	return r.frames.Draw(vertices)
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.drawing {
		return
	}
	r.drawing = false
	r.frames.EndFrame()
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return
	}
	r.frames.Present()
	r.inFrame = false
}

func (r *renderer) Release() {
	r.frames.Release()
}
