package shader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/effect/parameter"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program/programtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDevice struct {
	backend  program.Backend
	viewport common.Viewport
}

func (d testDevice) Backend() program.Backend { return d.backend }
func (d testDevice) Viewport() common.Viewport { return d.viewport }

const tintFragment = `#version 410 core
//@fx:include sprite_varyings
//@fx:uniform tint TintColor
//@fx:uniform mode
//@fx:uniform world
//@fx:viewport screenSize
uniform vec4 tint;
uniform int mode;
uniform mat4 world;
uniform vec2 screenSize;
out vec4 fragColor;
void main() { fragColor = tint * vFrontColor; }
`

func TestNewShaderCompilesProcessedSource(t *testing.T) {
	b := programtest.NewBackend()
	s, err := NewShader(b, "tint", program.ShaderStageFragment, tintFragment)
	require.NoError(t, err)

	assert.Equal(t, "tint", s.Key())
	assert.Equal(t, program.ShaderStageFragment, s.Stage())
	require.NotNil(t, b.Shader(s.Handle()))
	assert.Equal(t, s.Source(), b.Shader(s.Handle()).Source)
	assert.NotContains(t, s.Source(), "@fx:")
	assert.Len(t, s.Declarations(), 4)
}

func TestNewShaderErrors(t *testing.T) {
	b := programtest.NewBackend()
	_, err := NewShader(b, "bad", program.ShaderStageFragment, "//@fx:include nothing")
	assert.ErrorContains(t, err, "failed to pre-process")

	b.FailCompileWhen(func(label string) error { return errors.New("syntax error") })
	_, err = NewShader(b, "broken", program.ShaderStageFragment, "void main() {}")
	assert.ErrorContains(t, err, "syntax error")
}

func TestShaderOnLinkBindsAttributes(t *testing.T) {
	b := programtest.NewBackend()
	src := "//@fx:attribute 0 aPosition\n//@fx:attribute 3 aNormal\nvoid main() {}"
	s, err := NewShader(b, "vs", program.ShaderStageVertex, src, WithAttribute(5, "aExtra"))
	require.NoError(t, err)

	prog, err := b.CreateProgram()
	require.NoError(t, err)
	s.OnLink(prog)

	assert.Equal(t, map[string]uint32{"aExtra": 5, "aPosition": 0, "aNormal": 3}, b.Program(prog).Attribs)
}

func TestShaderApplyUploadsBoundParameters(t *testing.T) {
	b := programtest.NewBackend()
	s, err := NewShader(b, "tint", program.ShaderStageFragment, tintFragment)
	require.NoError(t, err)
	prog, _ := b.CreateProgram()

	var world [16]float32
	world[0], world[5], world[10], world[15] = 2, 2, 2, 1
	params := parameter.NewParameterSet(
		parameter.MustParameter("TintColor", []float32{1, 0.5, 0.25, 1}),
		parameter.MustParameter("mode", true),
		parameter.MustParameter("world", world),
	)
	device := testDevice{backend: b, viewport: common.NewViewport(640, 480)}

	require.NoError(t, s.Apply(prog, params, device))

	v, ok := b.Uniform(prog, "tint")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0.5, 0.25, 1}, v)
	v, _ = b.Uniform(prog, "mode")
	assert.Equal(t, int32(1), v)
	v, _ = b.Uniform(prog, "world")
	assert.Equal(t, world, v)
	v, _ = b.Uniform(prog, "screenSize")
	assert.Equal(t, []float32{640, 480}, v)
}

func TestShaderApplySkipsMissing(t *testing.T) {
	b := programtest.NewBackend()
	b.HideUniform("mode")
	s, err := NewShader(b, "tint", program.ShaderStageFragment, tintFragment)
	require.NoError(t, err)
	prog, _ := b.CreateProgram()

	params := parameter.NewParameterSet(parameter.MustParameter("mode", 2))
	require.NoError(t, s.Apply(prog, params, nil))
	require.NoError(t, s.Apply(prog, nil, nil))

	_, ok := b.Uniform(prog, "mode")
	assert.False(t, ok)
	_, ok = b.Uniform(prog, "tint")
	assert.False(t, ok)
	assert.Zero(t, b.Count(programtest.OpSetUniform))
}

func TestShaderLocationCacheResetOnLink(t *testing.T) {
	b := programtest.NewBackend()
	s, err := NewShader(b, "f", program.ShaderStageFragment, "void main() {}", WithUniform("alpha", "Alpha"))
	require.NoError(t, err)
	prog, _ := b.CreateProgram()
	params := parameter.NewParameterSet(parameter.MustParameter("Alpha", float32(0.5)))

	require.NoError(t, s.Apply(prog, params, nil))
	b.HideUniform("alpha")
	require.NoError(t, s.Apply(prog, params, nil))
	assert.Equal(t, 2, b.Count(programtest.OpSetUniform))

	s.OnLink(prog)
	require.NoError(t, s.Apply(prog, params, nil))
	assert.Equal(t, 2, b.Count(programtest.OpSetUniform))
}

func TestShaderRelease(t *testing.T) {
	b := programtest.NewBackend()
	s, err := NewShader(b, "f", program.ShaderStageFragment, "void main() {}")
	require.NoError(t, err)

	s.Release()
	s.Release()
	assert.True(t, b.Shader(s.Handle()).Deleted)
	assert.Equal(t, 1, b.Count(programtest.OpDeleteShader))

	prog, _ := b.CreateProgram()
	assert.ErrorIs(t, s.Apply(prog, nil, nil), ErrShaderReleased)
}
