package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/window"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// glFrameBackend draws into the window's default framebuffer.
type glFrameBackend struct {
	win      window.Window
	programs program.Backend
	vao      uint32
	vbo      uint32
	width    int32
	height   int32
}

var _ frameBackend = &glFrameBackend{}

func newGLFrameBackend(win window.Window) (*glFrameBackend, error) {
	win.MakeContextCurrent()
	programs, err := program.NewGLBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}

	b := &glFrameBackend{win: win, programs: programs}

	// Core profile refuses draws without a bound vertex array object.
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)

	// Locations match the passthrough attributes: aPosition, aTexCoord, aColor.
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 4, gl.FLOAT, false, common.SpriteVertexStride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, common.SpriteVertexStride, 16)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, common.SpriteVertexStride, 24)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	return b, nil
}

func (b *glFrameBackend) Programs() program.Backend {
	return b.programs
}

func (b *glFrameBackend) ConfigureSurface(width, height int) {
	b.width, b.height = int32(width), int32(height)
	gl.Viewport(0, 0, b.width, b.height)
}

func (b *glFrameBackend) BeginFrame(clear [4]float64) error {
	gl.Viewport(0, 0, b.width, b.height)
	gl.ClearColor(float32(clear[0]), float32(clear[1]), float32(clear[2]), float32(clear[3]))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (b *glFrameBackend) Draw(vertices []common.SpriteVertex) error {
	data := common.SliceToBytes(vertices)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(vertices)))
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("draw failed with GL error 0x%x", code)
	}
	return nil
}

func (b *glFrameBackend) EndFrame() {
	gl.Flush()
}

func (b *glFrameBackend) Present() {
	b.win.SwapBuffers()
}

func (b *glFrameBackend) Release() {
	gl.DeleteBuffers(1, &b.vbo)
	gl.DeleteVertexArrays(1, &b.vao)
	b.vao, b.vbo = 0, 0
}
