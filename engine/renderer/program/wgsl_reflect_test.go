package program

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexWGSL = `
@group(0) @binding(0) var<uniform> transformMatrix: mat4x4<f32>;

struct VertexInput {
    @location(2) aColor: vec4<f32>,
    @location(0) aPosition: vec4<f32>, // position first in memory
    @location(1) aTexCoord: vec2<f32>,
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) texCoord: vec4<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = transformMatrix * in.aPosition;
    return out;
}
`

const testFragmentWGSL = `
@group(0) @binding(1) var<uniform> tint: vec4<f32>;
@group(1) @binding(0) var<uniform> ignored: f32;

@fragment
fn fs_main(@location(0) texCoord: vec4<f32>) -> @location(0) vec4<f32> {
    return tint;
}
`

func TestParseEntryPoint(t *testing.T) {
	assert.Equal(t, "vs_main", parseEntryPoint(testVertexWGSL, ShaderStageVertex))
	assert.Equal(t, "", parseEntryPoint(testVertexWGSL, ShaderStageFragment))
	assert.Equal(t, "fs_main", parseEntryPoint(testFragmentWGSL, ShaderStageFragment))
	assert.Equal(t, "", parseEntryPoint("// @vertex fn commented()", ShaderStageVertex))
}

func TestParseVertexInputsSkipsBuiltinStructs(t *testing.T) {
	inputs := parseVertexInputs(testVertexWGSL)
	require.Len(t, inputs, 3)

	assert.Equal(t, wgslVertexInput{name: "aPosition", location: 0, typeName: "vec4<f32>"}, inputs[0])
	assert.Equal(t, wgslVertexInput{name: "aTexCoord", location: 1, typeName: "vec2<f32>"}, inputs[1])
	assert.Equal(t, wgslVertexInput{name: "aColor", location: 2, typeName: "vec4<f32>"}, inputs[2])
}

func TestParseUniformsOnlyGroupZero(t *testing.T) {
	assert.Equal(t, []wgslUniform{{name: "transformMatrix", binding: 0, typeName: "mat4x4<f32>"}}, parseUniforms(testVertexWGSL))
	assert.Equal(t, []wgslUniform{{name: "tint", binding: 1, typeName: "vec4<f32>"}}, parseUniforms(testFragmentWGSL))
}

func TestBuildVertexBufferLayout(t *testing.T) {
	layout, ok := buildVertexBufferLayout(parseVertexInputs(testVertexWGSL))
	require.True(t, ok)

	assert.Equal(t, uint64(40), layout.ArrayStride)
	require.Len(t, layout.Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layout.Attributes[0].Format)
	assert.Equal(t, uint64(0), layout.Attributes[0].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layout.Attributes[1].Format)
	assert.Equal(t, uint64(16), layout.Attributes[1].Offset)
	assert.Equal(t, uint64(24), layout.Attributes[2].Offset)
	assert.Equal(t, uint32(2), layout.Attributes[2].ShaderLocation)

	_, ok = buildVertexBufferLayout([]wgslVertexInput{{name: "m", typeName: "mat4x4<f32>"}})
	assert.False(t, ok)
}

func TestMergeUniforms(t *testing.T) {
	slots, err := mergeUniforms(parseUniforms(testVertexWGSL), parseUniforms(testFragmentWGSL))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "transformMatrix", slots[0].name)
	assert.Equal(t, uint64(64), slots[0].size)
	assert.Equal(t, "tint", slots[1].name)
	assert.Equal(t, uint64(16), slots[1].size)

	shared := []wgslUniform{{name: "transformMatrix", binding: 0, typeName: "mat4x4<f32>"}}
	slots, err = mergeUniforms(shared, shared)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	_, err = mergeUniforms(shared, []wgslUniform{{name: "other", binding: 0, typeName: "f32"}})
	assert.Error(t, err)

	_, err = mergeUniforms([]wgslUniform{{name: "arr", binding: 0, typeName: "array<f32, 4>"}}, nil)
	assert.Error(t, err)
}
