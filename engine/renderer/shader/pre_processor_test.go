package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	a, err := parseAnnotation("float x = 1.0;", 1)
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = parseAnnotation("  // @fx:uniform tint", 3)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, AnnotationTypeUniform, a.Type)
	assert.Equal(t, []AnnotationArg{"tint", "tint"}, a.Args)
	assert.Equal(t, 3, a.Line)

	a, err = parseAnnotation("//@fx:uniform tint TintColor", 1)
	require.NoError(t, err)
	assert.Equal(t, []AnnotationArg{"tint", "TintColor"}, a.Args)

	a, err = parseAnnotation("//@fx:attribute 2 aColor", 1)
	require.NoError(t, err)
	require.NotNil(t, a.Location)
	assert.Equal(t, 2, *a.Location)
	assert.Equal(t, []AnnotationArg{"aColor"}, a.Args)

	a, err = parseAnnotation("//@fx:viewport screenSize", 1)
	require.NoError(t, err)
	assert.Equal(t, AnnotationTypeViewport, a.Type)
}

func TestParseAnnotationErrors(t *testing.T) {
	bad := []string{
		"//@fx:",
		"//@fx:include",
		"//@fx:include a b",
		"//@fx:uniform",
		"//@fx:uniform 1bad",
		"//@fx:attribute x aPosition",
		"//@fx:attribute -1 aPosition",
		"//@fx:attribute 0",
		"//@fx:viewport",
		"//@fx:sampler tex",
	}
	for _, line := range bad {
		_, err := parseAnnotation(line, 7)
		assert.Error(t, err, line)
		if err != nil {
			assert.Contains(t, err.Error(), "line 7")
		}
	}
}

func TestPreProcessorIncludesAndCollects(t *testing.T) {
	src := strings.Join([]string{
		"#version 410 core",
		"//@fx:include sprite_varyings",
		"//@fx:include color",
		"//@fx:uniform tint",
		"//@fx:viewport screenSize",
		"uniform vec4 tint;",
		"out vec4 fragColor;",
	}, "\n")

	pp := NewPreProcessor(program.ShadingLanguageGLSL)
	out, err := pp.Process(src)
	require.NoError(t, err)

	assert.Contains(t, out, "in vec4 vTexCoord0;")
	assert.Contains(t, out, "float luminance(vec3 c)")
	assert.NotContains(t, out, "@fx:")
	assert.Contains(t, out, "uniform vec4 tint;")

	decls := pp.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, AnnotationTypeUniform, decls[0].Type)
	assert.Equal(t, AnnotationTypeViewport, decls[1].Type)
}

func TestPreProcessorLanguageSnippets(t *testing.T) {
	out, err := NewPreProcessor(program.ShadingLanguageWGSL).Process("//@fx:include transform")
	require.NoError(t, err)
	assert.Equal(t, "@group(0) @binding(0) var<uniform> transformMatrix: mat4x4<f32>;", out)

	out, err = NewPreProcessor(program.ShadingLanguageGLSL).Process("//@fx:include transform")
	require.NoError(t, err)
	assert.Equal(t, "uniform mat4 transformMatrix;", out)
}

func TestPreProcessorCustomSnippetAndClone(t *testing.T) {
	pp := NewPreProcessor(program.ShadingLanguageGLSL, WithSnippet("noise", "float noise(vec2 p);"))
	_, err := pp.Process("//@fx:uniform a")
	require.NoError(t, err)

	clone := pp.Clone()
	assert.Nil(t, clone.Declarations())
	assert.Equal(t, program.ShadingLanguageGLSL, clone.Language())

	out, err := clone.Process("//@fx:include noise")
	require.NoError(t, err)
	assert.Equal(t, "float noise(vec2 p);", out)

	_, err = clone.Process("//@fx:include missing")
	assert.ErrorContains(t, err, "unknown @fx:include snippet")
}

func TestPreProcessorDeclarationsNotAliased(t *testing.T) {
	pp := NewPreProcessor(program.ShadingLanguageGLSL)
	_, err := pp.Process("//@fx:uniform first")
	require.NoError(t, err)
	first := pp.Declarations()

	_, err = pp.Process("//@fx:uniform second")
	require.NoError(t, err)
	assert.Equal(t, AnnotationArg("first"), first[0].Args[0])
}
