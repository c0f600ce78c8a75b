package program

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormat holds the wgpu vertex format and its byte size for offset calculation
type wgslVertexFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]wgslVertexFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"i32":       {wgpu.VertexFormatSint32, 4},
}

// wgslUniformSizeMap maps the WGSL types accepted as standalone uniforms to their
// buffer size, padded to the 16 byte uniform alignment.
var wgslUniformSizeMap = map[string]uint64{
	"f32":         16,
	"i32":         16,
	"u32":         16,
	"vec2f":       16,
	"vec2<f32>":   16,
	"vec3f":       16,
	"vec3<f32>":   16,
	"vec4f":       16,
	"vec4<f32>":   16,
	"mat4x4f":     64,
	"mat4x4<f32>": 64,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationFieldRegex captures the location, name and type of a @location(N) struct field
	locationFieldRegex = regexp.MustCompile(`@location\((\d+)\)\s*(\w+)\s*:\s*([\w<>]+)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// uniformDeclRegex captures group, binding, variable name and type from
	// declarations like: @group(0) @binding(0) var<uniform> transformMatrix: mat4x4<f32>;
	uniformDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var<uniform>\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// wgslVertexInput is one @location field of a vertex input struct.
type wgslVertexInput struct {
	name     string
	location uint32
	typeName string
}

// wgslUniform is one var<uniform> declaration in bind group 0.
type wgslUniform struct {
	name     string
	binding  uint32
	typeName string
}

// parseEntryPoint extracts the entry point function name for the given stage
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - stage: the shader stage to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, stage ShaderStage) string {
	cleaned := stripLineComments(source)

	var re *regexp.Regexp
	switch stage {
	case ShaderStageVertex:
		re = vertexEntryRegex
	case ShaderStageFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseVertexInputs collects the @location fields of every struct that is a pure vertex
// input (has @location fields and no @builtin fields), sorted by location.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []wgslVertexInput: the vertex inputs sorted by location
func parseVertexInputs(source string) []wgslVertexInput {
	cleaned := stripLineComments(source)
	var inputs []wgslVertexInput
	for _, match := range structBlockRegex.FindAllStringSubmatch(cleaned, -1) {
		body := match[2]
		if builtinRegex.MatchString(body) {
			continue
		}
		for _, field := range locationFieldRegex.FindAllStringSubmatch(body, -1) {
			loc, err := strconv.Atoi(field[1])
			if err != nil {
				continue
			}
			inputs = append(inputs, wgslVertexInput{
				name:     field[2],
				location: uint32(loc),
				typeName: strings.TrimSpace(field[3]),
			})
		}
	}
	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].location < inputs[j].location
	})
	return inputs
}

// parseUniforms extracts the var<uniform> declarations of bind group 0.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []wgslUniform: the group 0 uniforms in source order
func parseUniforms(source string) []wgslUniform {
	cleaned := stripLineComments(source)
	var uniforms []wgslUniform
	for _, match := range uniformDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		if group != 0 {
			continue
		}
		binding, _ := strconv.Atoi(match[2])
		uniforms = append(uniforms, wgslUniform{
			name:     match[3],
			binding:  uint32(binding),
			typeName: strings.TrimSpace(match[4]),
		})
	}
	return uniforms
}

// buildVertexBufferLayout packs the vertex inputs into a single interleaved buffer layout.
//
// Parameters:
//   - inputs: the vertex inputs sorted by location
//
// Returns:
//   - wgpu.VertexBufferLayout: the interleaved layout
//   - bool: false if an input uses a type with no vertex format
func buildVertexBufferLayout(inputs []wgslVertexInput) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(inputs))
	var offset uint64

	for _, in := range inputs {
		info, ok := wgslVertexFormatMap[in.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}

		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: in.location,
		})
		offset += info.size
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// stripLineComments removes single-line // comments from WGSL source so they
// do not interfere with struct and field parsing
//
// Parameters:
//   - source: raw WGSL source string
//
// Returns:
//   - string: source with line comments removed
func stripLineComments(source string) string {
	var sb strings.Builder
	lines := strings.SplitSeq(source, "\n")
	for line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
