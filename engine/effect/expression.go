package effect

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/engine/effect/parameter"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

// Expression computes a value from the live parameter set. Passes evaluate the
// expressions of their expression index records on every apply and expect a shader.Shader.
type Expression interface {
	// Evaluate computes the expression result.
	//
	// Parameters:
	//   - params: the live parameter set of the owning effect
	//
	// Returns:
	//   - any: the result, a shader.Shader for shader state records
	//   - error: an error if the expression cannot be evaluated
	Evaluate(params parameter.ParameterSet) (any, error)
}

// ExpressionFunc adapts a function to the Expression interface.
type ExpressionFunc func(params parameter.ParameterSet) (any, error)

func (f ExpressionFunc) Evaluate(params parameter.ParameterSet) (any, error) {
	return f(params)
}

type indexExpression struct {
	param   string
	shaders []shader.Shader
}

// NewIndexExpression creates the common shader-array selector: the named integer (or
// float, truncated) parameter indexes into shaders.
//
// Parameters:
//   - paramName: the parameter holding the index
//   - shaders: the candidates
//
// Returns:
//   - Expression: the selector
func NewIndexExpression(paramName string, shaders ...shader.Shader) Expression {
	return &indexExpression{param: paramName, shaders: shaders}
}

func (e *indexExpression) Evaluate(params parameter.ParameterSet) (any, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: %q", parameter.ErrUnknownParameter, e.param)
	}
	p, ok := params.Get(e.param)
	if !ok {
		return nil, fmt.Errorf("%w: %q", parameter.ErrUnknownParameter, e.param)
	}

	var index int
	if i, ok := p.Int32(); ok {
		index = int(i)
	} else if f, ok := p.Float32s(); ok && len(f) == 1 {
		index = int(f[0])
	} else {
		return nil, fmt.Errorf("index parameter %q holds a %v, not a scalar", e.param, p.Kind())
	}

	if index < 0 || index >= len(e.shaders) {
		return nil, fmt.Errorf("%w: %s = %d, %d shaders", ErrExpressionIndexOutOfRange, e.param, index, len(e.shaders))
	}
	return e.shaders[index], nil
}
