package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuVertexCapacity is the number of vertices one frame can draw.
const wgpuVertexCapacity = 1 << 16

// wgpuFrameBackend renders into a WebGPU surface. Each frame is one render pass, which
// the program backend records pipeline binds into.
type wgpuFrameBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode

	programs program.WGPUBackend

	// vertexBuffer is shared by every draw of a frame; each draw writes past the previous one.
	vertexBuffer   *wgpu.Buffer
	vertexCapacity uint64
	vertexCursor   uint64

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ frameBackend = &wgpuFrameBackend{}

func newWGPUFrameBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, mode PresentMode) (*wgpuFrameBackend, error) {
	if surfaceDescriptor == nil {
		return nil, fmt.Errorf("failed to create WebGPU renderer: window has no surface")
	}
	runtime.LockOSThread()

	b := &wgpuFrameBackend{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
	}
	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request WebGPU adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "Effect Device"})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to request WebGPU device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		b.Release()
		return nil, fmt.Errorf("failed to create WebGPU renderer: surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]

	b.programs = program.NewWGPUBackend(b.device, b.queue, b.surfaceFormat)

	b.vertexCapacity = wgpuVertexCapacity * common.SpriteVertexStride
	b.vertexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Sprite Vertices",
		Size:  b.vertexCapacity,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("failed to create vertex buffer: %w", err)
	}
	return b, nil
}

func (b *wgpuFrameBackend) Programs() program.Backend {
	return b.programs
}

func (b *wgpuFrameBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})
}

func (b *wgpuFrameBackend) BeginFrame(clear [4]float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return ErrFrameInProgress
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: clear[0], G: clear[1], B: clear[2], A: clear[3]},
			},
		},
	})

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.vertexCursor = 0
	b.programs.SetRenderPass(pass)
	return nil
}

func (b *wgpuFrameBackend) Draw(vertices []common.SpriteVertex) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	data := common.SliceToBytes(vertices)
	size := uint64(len(data))
	if b.vertexCursor+size > b.vertexCapacity {
		return fmt.Errorf("frame exceeds %d sprite vertices", wgpuVertexCapacity)
	}

	if err := b.queue.WriteBuffer(b.vertexBuffer, b.vertexCursor, data); err != nil {
		return fmt.Errorf("failed to upload vertices: %w", err)
	}
	b.framePass.SetVertexBuffer(0, b.vertexBuffer, b.vertexCursor, size)
	b.framePass.Draw(uint32(len(vertices)), 1, 0, 0)
	b.vertexCursor += size
	return nil
}

func (b *wgpuFrameBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.programs.SetRenderPass(nil)
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameTexture()
		return
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (b *wgpuFrameBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrameTexture()
}

// releaseFrameTexture drops the acquired surface texture. Must be called with b.mu held.
func (b *wgpuFrameBackend) releaseFrameTexture() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuFrameBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrameTexture()
	if b.vertexBuffer != nil {
		b.vertexBuffer.Release()
		b.vertexBuffer = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
