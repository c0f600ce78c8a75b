package parameter

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ValueKind identifies the type of value held by a Parameter.
type ValueKind int

const (
	// ValueKindFloat32 is a single float scalar.
	ValueKindFloat32 ValueKind = iota

	// ValueKindFloat32s is a float vector of one to four components.
	ValueKindFloat32s

	// ValueKindInt32 is a signed integer scalar, also used for sampler units and shader indices.
	ValueKindInt32

	// ValueKindBool is a boolean, uploaded as an integer 0 or 1.
	ValueKindBool

	// ValueKindMatrix is a column-major 4x4 float matrix.
	ValueKindMatrix
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindFloat32:
		return "float32"
	case ValueKindFloat32s:
		return "[]float32"
	case ValueKindInt32:
		return "int32"
	case ValueKindBool:
		return "bool"
	case ValueKindMatrix:
		return "[16]float32"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsupportedValue is returned when a value has a Go type no ValueKind represents.
	ErrUnsupportedValue = errors.New("unsupported parameter value")

	// ErrValueKindMismatch is returned when SetValue would change the kind of a Parameter.
	ErrValueKindMismatch = errors.New("parameter value kind mismatch")
)

type parameter struct {
	mu    *sync.RWMutex
	name  string
	kind  ValueKind
	value any
}

// Parameter is a named, typed value read by effect expressions and shader uniform hooks.
// The kind of a Parameter is fixed at creation; SetValue only accepts values of the same kind.
type Parameter interface {
	// Name returns the parameter name. Shader uniforms bind to parameters with the same name.
	//
	// Returns:
	//   - string: the parameter name
	Name() string

	// Kind returns the kind of value the parameter holds.
	//
	// Returns:
	//   - ValueKind: the value kind
	Kind() ValueKind

	// Value returns the current value as float32, []float32, int32, bool or [16]float32.
	//
	// Returns:
	//   - any: the current value
	Value() any

	// SetValue replaces the current value.
	// Accepts float32, float64, []float32, int, int32, bool and [16]float32.
	//
	// Parameters:
	//   - v: the new value
	//
	// Returns:
	//   - error: ErrUnsupportedValue or ErrValueKindMismatch
	SetValue(v any) error

	// Float32s returns float and float vector values as a component slice.
	//
	// Returns:
	//   - []float32: a copy of the components
	//   - bool: false if the parameter is not a float kind
	Float32s() ([]float32, bool)

	// Int32 returns integer values, and booleans as 0 or 1.
	//
	// Returns:
	//   - int32: the integer value
	//   - bool: false if the parameter is not an integer or boolean kind
	Int32() (int32, bool)

	// Matrix returns matrix values.
	//
	// Returns:
	//   - [16]float32: the column-major matrix
	//   - bool: false if the parameter is not a matrix
	Matrix() ([16]float32, bool)
}

var _ Parameter = &parameter{}

// NewParameter creates a Parameter whose kind is derived from the initial value.
//
// Parameters:
//   - name: the parameter name
//   - value: the initial value; float32, float64, []float32 (1 to 4 components), int, int32, bool or [16]float32
//
// Returns:
//   - Parameter: the new parameter
//   - error: ErrUnsupportedValue if the value has no matching kind
func NewParameter(name string, value any) (Parameter, error) {
	kind, normalized, err := normalize(value)
	if err != nil {
		return nil, fmt.Errorf("parameter %q: %w", name, err)
	}
	return &parameter{
		mu:    &sync.RWMutex{},
		name:  name,
		kind:  kind,
		value: normalized,
	}, nil
}

// MustParameter is like NewParameter but panics on error. Intended for static parameter tables.
func MustParameter(name string, value any) Parameter {
	p, err := NewParameter(name, value)
	if err != nil {
		panic(err)
	}
	return p
}

func normalize(value any) (ValueKind, any, error) {
	switch v := value.(type) {
	case float32:
		return ValueKindFloat32, v, nil
	case float64:
		return ValueKindFloat32, float32(v), nil
	case []float32:
		if len(v) == 0 || len(v) > 4 {
			return 0, nil, fmt.Errorf("%w: vector of %d components", ErrUnsupportedValue, len(v))
		}
		return ValueKindFloat32s, slices.Clone(v), nil
	case int:
		return ValueKindInt32, int32(v), nil
	case int32:
		return ValueKindInt32, v, nil
	case bool:
		return ValueKindBool, v, nil
	case [16]float32:
		return ValueKindMatrix, v, nil
	default:
		return 0, nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

func (p *parameter) Name() string {
	return p.name
}

func (p *parameter) Kind() ValueKind {
	return p.kind
}

func (p *parameter) Value() any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if v, ok := p.value.([]float32); ok {
		return slices.Clone(v)
	}
	return p.value
}

func (p *parameter) SetValue(v any) error {
	kind, normalized, err := normalize(v)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", p.name, err)
	}
	if kind != p.kind {
		return fmt.Errorf("parameter %q: %w: have %v, got %v", p.name, ErrValueKindMismatch, p.kind, kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = normalized
	return nil
}

func (p *parameter) Float32s() ([]float32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch v := p.value.(type) {
	case float32:
		return []float32{v}, true
	case []float32:
		return slices.Clone(v), true
	}
	return nil, false
}

func (p *parameter) Int32() (int32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch v := p.value.(type) {
	case int32:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (p *parameter) Matrix() ([16]float32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.value.([16]float32)
	return m, ok
}
