package shader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/effect/parameter"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
)

var (
	// ErrShaderReleased is returned by Apply once the shader's native object has been deleted.
	ErrShaderReleased = errors.New("shader released")

	// ErrUnsupportedUniformKind is returned when a bound parameter has a kind with no uniform upload.
	ErrUnsupportedUniformKind = errors.New("unsupported uniform value kind")
)

// Device is the graphics device a shader applies its uniforms against.
type Device interface {
	// Backend returns the program backend owning every program and shader of the device.
	//
	// Returns:
	//   - program.Backend: the program backend
	Backend() program.Backend

	// Viewport returns the current viewport in pixels.
	//
	// Returns:
	//   - common.Viewport: the viewport
	Viewport() common.Viewport
}

// uniformBinding ties a uniform to the effect parameter feeding it.
type uniformBinding struct {
	uniform string
	param   string
}

// attributeBinding is a vertex attribute location bound before every link.
type attributeBinding struct {
	location uint32
	name     string
}

type shader struct {
	backend program.Backend
	key     string
	stage   program.ShaderStage
	source  string
	handle  program.ShaderID

	declarations     []Annotation
	uniforms         []uniformBinding
	attributes       []attributeBinding
	viewportUniforms []string

	// locations caches resolved uniform locations per program; cleared by OnLink.
	locations map[program.ProgramID]map[string]int32

	pp       PreProcessor
	released bool
}

// Shader is a compiled shader object with a pipeline stage tag. Its identity is the
// interface value itself: two Shaders compiled from the same source are distinct.
//
// Beyond the native handle a Shader carries the hooks an effect pass drives: OnLink runs
// before every link of a program the shader is attached to, and Apply uploads the
// shader's parameter-backed uniforms after the program is bound.
type Shader interface {
	// Key returns the identifier the shader was created with.
	//
	// Returns:
	//   - string: the shader key
	Key() string

	// Stage returns the pipeline stage the shader was compiled for.
	//
	// Returns:
	//   - program.ShaderStage: the shader stage
	Stage() program.ShaderStage

	// Handle returns the backend's native shader object.
	//
	// Returns:
	//   - program.ShaderID: the native handle
	Handle() program.ShaderID

	// Source returns the pre-processed source that was compiled.
	//
	// Returns:
	//   - string: the compiled source
	Source() string

	// Declarations returns the uniform, attribute and viewport annotations parsed from the source.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// OnLink binds the shader's declared attribute locations on a program about to be linked
	// and drops any uniform locations cached for it.
	//
	// Parameters:
	//   - prog: the program being linked
	OnLink(prog program.ProgramID)

	// Apply uploads every bound parameter present in params, and the viewport size to any
	// viewport uniform, to the bound program. Uniforms the program does not expose are skipped.
	//
	// Parameters:
	//   - prog: the bound program
	//   - params: the live parameter set, may be nil
	//   - device: the device providing the viewport, may be nil
	//
	// Returns:
	//   - error: ErrShaderReleased, or ErrUnsupportedUniformKind for a parameter with no upload path
	Apply(prog program.ProgramID, params parameter.ParameterSet, device Device) error

	// Release deletes the native shader object. Further calls are no-ops.
	Release()
}

var _ Shader = &shader{}

// NewShader pre-processes and compiles shader source on a backend.
//
// Parameters:
//   - backend: the backend that compiles and owns the shader object
//   - key: an identifier used as the debug label
//   - stage: the pipeline stage the source targets
//   - source: shader source in the backend's shading language, may contain @fx: annotations
//   - opts: a variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the compiled shader
//   - error: an error if pre-processing or compilation fails
func NewShader(backend program.Backend, key string, stage program.ShaderStage, source string, opts ...ShaderBuilderOption) (Shader, error) {
	s := newShader(backend, key, stage, opts...)
	processed, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %q: failed to pre-process source: %w", key, err)
	}
	if err := s.compile(processed, s.pp.Declarations()); err != nil {
		return nil, err
	}
	return s, nil
}

func newShader(backend program.Backend, key string, stage program.ShaderStage, opts ...ShaderBuilderOption) *shader {
	s := &shader{
		backend:   backend,
		key:       key,
		stage:     stage,
		locations: make(map[program.ProgramID]map[string]int32),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pp == nil {
		s.pp = NewPreProcessor(backend.ShadingLanguage())
	}
	return s
}

// compile records the declarations of already pre-processed source and compiles it.
func (s *shader) compile(processed string, declarations []Annotation) error {
	s.source = processed
	s.declarations = slices.Clone(declarations)

	for _, d := range s.declarations {
		switch d.Type {
		case AnnotationTypeUniform:
			s.uniforms = append(s.uniforms, uniformBinding{uniform: string(d.Args[0]), param: string(d.Args[1])})
		case AnnotationTypeAttribute:
			s.attributes = append(s.attributes, attributeBinding{location: uint32(*d.Location), name: string(d.Args[0])})
		case AnnotationTypeViewport:
			s.viewportUniforms = append(s.viewportUniforms, string(d.Args[0]))
		}
	}

	handle, err := s.backend.CompileShader(s.stage, s.key, processed)
	if err != nil {
		return err
	}
	s.handle = handle
	return nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Stage() program.ShaderStage {
	return s.stage
}

func (s *shader) Handle() program.ShaderID {
	return s.handle
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) OnLink(prog program.ProgramID) {
	for _, a := range s.attributes {
		s.backend.BindAttribLocation(prog, a.location, a.name)
	}
	delete(s.locations, prog)
}

func (s *shader) location(prog program.ProgramID, name string) int32 {
	cache, ok := s.locations[prog]
	if !ok {
		cache = make(map[string]int32)
		s.locations[prog] = cache
	}
	loc, ok := cache[name]
	if !ok {
		loc = s.backend.UniformLocation(prog, name)
		cache[name] = loc
	}
	return loc
}

func (s *shader) Apply(prog program.ProgramID, params parameter.ParameterSet, device Device) error {
	if s.released {
		return fmt.Errorf("shader %q: %w", s.key, ErrShaderReleased)
	}

	if params != nil {
		for _, u := range s.uniforms {
			p, ok := params.Get(u.param)
			if !ok {
				continue
			}
			loc := s.location(prog, u.uniform)
			if loc < 0 {
				continue
			}
			switch p.Kind() {
			case parameter.ValueKindFloat32, parameter.ValueKindFloat32s:
				v, _ := p.Float32s()
				s.backend.SetUniformFloat32s(prog, loc, v)
			case parameter.ValueKindInt32, parameter.ValueKindBool:
				v, _ := p.Int32()
				s.backend.SetUniformInt32(prog, loc, v)
			case parameter.ValueKindMatrix:
				m, _ := p.Matrix()
				s.backend.SetUniformMatrix4(prog, loc, m)
			default:
				return fmt.Errorf("shader %q uniform %q: %w: %v", s.key, u.uniform, ErrUnsupportedUniformKind, p.Kind())
			}
		}
	}

	if device != nil {
		vp := device.Viewport()
		for _, name := range s.viewportUniforms {
			if loc := s.location(prog, name); loc >= 0 {
				s.backend.SetUniformFloat32s(prog, loc, []float32{float32(vp.Width), float32(vp.Height)})
			}
		}
	}
	return nil
}

func (s *shader) Release() {
	if s.released {
		return
	}
	s.released = true
	s.backend.DeleteShader(s.handle)
	clear(s.locations)
}
