package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program/programtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFrames struct {
	programs   *programtest.Backend
	configured [][2]int
	cleared    [][4]float64
	drawn      int
	ended      int
	presented  int
	beginErr   error
}

func (f *fakeFrames) Programs() program.Backend { return f.programs }
func (f *fakeFrames) ConfigureSurface(width, height int) {
	f.configured = append(f.configured, [2]int{width, height})
}
func (f *fakeFrames) BeginFrame(clear [4]float64) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.cleared = append(f.cleared, clear)
	return nil
}
func (f *fakeFrames) Draw(vertices []common.SpriteVertex) error {
	f.drawn += len(vertices)
	return nil
}
func (f *fakeFrames) EndFrame() { f.ended++ }
func (f *fakeFrames) Present()  { f.presented++ }
func (f *fakeFrames) Release()  {}

func newTestRenderer(opts ...RendererBuilderOption) (*renderer, *fakeFrames) {
	frames := &fakeFrames{programs: programtest.NewBackend()}
	r := newRenderer(BackendTypeGL, opts...)
	r.frames = frames
	return r, frames
}

func TestResizeTracksViewport(t *testing.T) {
	r, frames := newTestRenderer()

	r.Resize(800, 600)
	assert.Equal(t, common.NewViewport(800, 600), r.Viewport())

	r.Resize(0, 0)
	assert.Equal(t, common.NewViewport(800, 600), r.Viewport())
	assert.Equal(t, [][2]int{{800, 600}}, frames.configured)

	r.Resize(1024, 768)
	assert.Equal(t, 1024, r.Viewport().Width)
	assert.Same(t, frames.programs, r.Backend())
}

func TestFrameLifecycle(t *testing.T) {
	r, frames := newTestRenderer(WithClearColor(0, 0, 0, 1))

	assert.ErrorIs(t, r.Draw(common.Quad(0, 0, 1, 1, [4]float32{})), ErrNoFrame)

	require.NoError(t, r.BeginFrame())
	assert.ErrorIs(t, r.BeginFrame(), ErrFrameInProgress)
	require.NoError(t, r.Draw(common.Quad(0, 0, 1, 1, [4]float32{})))
	require.NoError(t, r.Draw(nil))
	r.EndFrame()
	assert.ErrorIs(t, r.Draw(common.Quad(0, 0, 1, 1, [4]float32{})), ErrNoFrame)
	r.Present()
	require.NoError(t, r.BeginFrame())
	r.EndFrame()
	r.Present()

	assert.Equal(t, [][4]float64{{0, 0, 0, 1}, {0, 0, 0, 1}}, frames.cleared)
	assert.Equal(t, 6, frames.drawn)
	assert.Equal(t, 2, frames.ended)
	assert.Equal(t, 2, frames.presented)

	r.Present()
	assert.Equal(t, 2, frames.presented)
}

func TestBeginFrameError(t *testing.T) {
	r, frames := newTestRenderer()
	frames.beginErr = errors.New("surface lost")

	assert.EqualError(t, r.BeginFrame(), "surface lost")
	r.EndFrame()
	assert.Zero(t, frames.ended)
}

func TestBackendTypeDefaults(t *testing.T) {
	r := newRenderer(BackendTypeWGPU)
	assert.Equal(t, BackendTypeWGPU, r.BackendType())
	assert.Equal(t, PresentModeVSync, r.presentMode)
	assert.Equal(t, "WebGPU", r.BackendType().String())
}
