package effect

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

// StateClass is the pipeline state a pass state record assigns.
// Effect loaders emit every class; passes only accept the two shader classes.
type StateClass int

const (
	// StateClassVertexShader assigns the vertex shader.
	StateClassVertexShader StateClass = iota

	// StateClassPixelShader assigns the pixel (fragment) shader.
	StateClassPixelShader

	StateClassRenderState
	StateClassTexture
	StateClassSampler
	StateClassSamplerState
	StateClassTransform
	StateClassShaderConstant
	StateClassUnknown
)

func (c StateClass) String() string {
	switch c {
	case StateClassVertexShader:
		return "vertex shader"
	case StateClassPixelShader:
		return "pixel shader"
	case StateClassRenderState:
		return "render state"
	case StateClassTexture:
		return "texture"
	case StateClassSampler:
		return "sampler"
	case StateClassSamplerState:
		return "sampler state"
	case StateClassTransform:
		return "transform"
	case StateClassShaderConstant:
		return "shader constant"
	default:
		return "unknown"
	}
}

// stage maps a shader state class to the pipeline stage it assigns.
func (c StateClass) stage() (program.ShaderStage, bool) {
	switch c {
	case StateClassVertexShader:
		return program.ShaderStageVertex, true
	case StateClassPixelShader:
		return program.ShaderStageFragment, true
	default:
		return 0, false
	}
}

// BindingKind is how a state record's value is obtained.
type BindingKind int

const (
	// BindingKindConstant holds a shader fixed when the effect is built.
	BindingKindConstant BindingKind = iota

	// BindingKindExpressionIndex holds an expression evaluated against the live parameters on every apply.
	BindingKindExpressionIndex

	// BindingKindParameter names a parameter holding the shader. Passes reject it.
	BindingKindParameter
)

func (k BindingKind) String() string {
	switch k {
	case BindingKindConstant:
		return "constant"
	case BindingKindExpressionIndex:
		return "expression index"
	case BindingKindParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// StateRecord is one immutable rule of a pass describing how a pipeline state is assigned.
type StateRecord struct {
	class   StateClass
	kind    BindingKind
	payload any
}

// NewConstantState creates a record assigning a fixed shader.
func NewConstantState(class StateClass, s shader.Shader) StateRecord {
	return StateRecord{class: class, kind: BindingKindConstant, payload: s}
}

// NewExpressionState creates a record whose shader is resolved by evaluating expr on every apply.
func NewExpressionState(class StateClass, expr Expression) StateRecord {
	return StateRecord{class: class, kind: BindingKindExpressionIndex, payload: expr}
}

// NewParameterState creates a record whose shader is held by the named parameter.
func NewParameterState(class StateClass, name string) StateRecord {
	return StateRecord{class: class, kind: BindingKindParameter, payload: name}
}

// NewState creates a record from raw loader output. The payload is interpreted by kind.
func NewState(class StateClass, kind BindingKind, payload any) StateRecord {
	return StateRecord{class: class, kind: kind, payload: payload}
}

func (r StateRecord) Class() StateClass {
	return r.class
}

func (r StateRecord) Kind() BindingKind {
	return r.kind
}

// Shader returns the fixed shader of a constant record, nil otherwise.
func (r StateRecord) Shader() shader.Shader {
	s, _ := r.payload.(shader.Shader)
	return s
}

// Expression returns the expression of an expression index record, nil otherwise.
func (r StateRecord) Expression() Expression {
	e, _ := r.payload.(Expression)
	return e
}

// ParameterName returns the parameter name of a parameter record, empty otherwise.
func (r StateRecord) ParameterName() string {
	n, _ := r.payload.(string)
	return n
}
