package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/effect"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program/programtest"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	backend  *programtest.Backend
	events   []string
	beginErr error
	released bool
}

var _ renderer.Renderer = &fakeRenderer{}

func (r *fakeRenderer) Backend() program.Backend                  { return r.backend }
func (r *fakeRenderer) Viewport() common.Viewport                 { return common.NewViewport(800, 600) }
func (r *fakeRenderer) BackendType() renderer.RendererBackendType { return renderer.BackendTypeGL }
func (r *fakeRenderer) Resize(width, height int)                  {}
func (r *fakeRenderer) EndFrame()                                 { r.events = append(r.events, "end") }
func (r *fakeRenderer) Present()                                  { r.events = append(r.events, "present") }
func (r *fakeRenderer) Release()                                  { r.released = true }

func (r *fakeRenderer) Draw(vertices []common.SpriteVertex) error {
	r.events = append(r.events, "draw vertices")
	return nil
}

func (r *fakeRenderer) BeginFrame() error {
	if r.beginErr != nil {
		return r.beginErr
	}
	r.events = append(r.events, "begin")
	return nil
}

func TestFrameOrder(t *testing.T) {
	r := &fakeRenderer{backend: programtest.NewBackend()}
	e := NewEngine(WithRenderer(r)).(*engine)
	e.SetDrawCallback(func(float32) error {
		r.events = append(r.events, "draw")
		return errors.New("draw failed")
	})

	e.frame()
	assert.Equal(t, []string{"begin", "draw", "end", "present"}, r.events)
}

func TestFrameSkipsDrawWhenBeginFails(t *testing.T) {
	r := &fakeRenderer{backend: programtest.NewBackend(), beginErr: errors.New("surface lost")}
	e := NewEngine(WithRenderer(r)).(*engine)
	drawn := false
	e.SetDrawCallback(func(float32) error {
		drawn = true
		return nil
	})

	e.frame()
	assert.False(t, drawn)
	assert.Empty(t, r.events)
}

func TestFrameReloadsDirtyShaders(t *testing.T) {
	r := &fakeRenderer{backend: programtest.NewBackend()}
	path := filepath.Join(t.TempDir(), "tint.frag")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}"), 0o644))

	lib := shader.NewLibrary(r.backend, shader.WithWorkers(1))
	require.NoError(t, lib.Load(context.Background(), shader.Source{Key: "tint", Stage: program.ShaderStageFragment, Path: path}))
	before, _ := lib.Shader("tint")

	e := NewEngine(WithRenderer(r), WithLibrary(lib)).(*engine)
	require.True(t, lib.MarkDirty("tint"))
	e.frame()

	after, _ := lib.Shader("tint")
	assert.NotSame(t, before, after)
	assert.Empty(t, lib.Dirty())

	e.shutdown()
	assert.True(t, r.released)
}

func TestLinkCountSumsEffects(t *testing.T) {
	r := &fakeRenderer{backend: programtest.NewBackend()}
	frag, err := shader.NewShader(r.backend, "frag", program.ShaderStageFragment, "void main() {}")
	require.NoError(t, err)

	fx := effect.NewEffect("fx", r)
	tech, err := fx.AddTechnique("main")
	require.NoError(t, err)
	_, err = tech.AddPass("p0", effect.NewConstantState(effect.StateClassPixelShader, frag))
	require.NoError(t, err)

	e := NewEngine(WithRenderer(r), WithEffect(fx)).(*engine)
	e.AddEffect(fx)
	assert.Equal(t, 2, e.linkCount())
}

func TestRunRequiresWindowAndRenderer(t *testing.T) {
	assert.ErrorIs(t, NewEngine().Run(), ErrNotConfigured)
}

func TestTickRateOption(t *testing.T) {
	e := NewEngine(WithTickRate(0), WithRenderFrameLimit(-1)).(*engine)
	assert.Equal(t, int64(16666666), e.tickRate.Nanoseconds())
	assert.Zero(t, e.renderFrameLimit)
}

func TestShutdownReleasesPassthrough(t *testing.T) {
	r := &fakeRenderer{backend: programtest.NewBackend()}
	frag, err := shader.NewShader(r.backend, "frag", program.ShaderStageFragment, "void main() {}")
	require.NoError(t, err)

	fx := effect.NewEffect("fx", r)
	tech, err := fx.AddTechnique("main")
	require.NoError(t, err)
	p, err := tech.AddPass("p0", effect.NewConstantState(effect.StateClassPixelShader, frag))
	require.NoError(t, err)
	require.True(t, p.PassthroughAttached())

	e := NewEngine(WithRenderer(r), WithEffect(fx)).(*engine)
	e.shutdown()

	assert.Equal(t, 1, r.backend.CompiledCount(effect.PassthroughKey))
	assert.Equal(t, 1, r.backend.Count(programtest.OpDeleteShader))
	assert.Equal(t, 1, r.backend.Count(programtest.OpDeleteProgram))
	assert.True(t, r.released)
}
