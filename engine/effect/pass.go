package effect

import (
	"fmt"
	"log"
	"slices"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/effect/parameter"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

type pass struct {
	name      string
	technique Technique
	backend   program.Backend
	program   program.ProgramID
	states    []StateRecord

	// vertex and fragment are the explicit shaders currently attached.
	vertex, fragment shader.Shader

	passthrough         shader.Shader
	passthroughAttached bool

	needsRelink bool
	linked      bool
	failed      bool
	released    bool
	linkCount   int

	// transformLocation is the passthrough transform uniform location, resolved after each link.
	transformLocation int32
}

// Pass is one linked program of a technique plus the rules assigning its vertex and
// fragment shaders. Shaders bound by constant records are attached when the pass is
// built; shaders bound by expressions are resolved on every Apply, and the program is
// relinked only when a resolved shader differs by identity from the attached one.
//
// A pass without an explicit vertex shader draws with the shared passthrough vertex
// stage, which maps pixel coordinates onto the device viewport.
//
// A Pass is not safe for concurrent use and must be driven from the thread that owns
// the graphics context.
type Pass interface {
	// Name returns the pass name. Names are not required to be unique.
	//
	// Returns:
	//   - string: the pass name
	Name() string

	// Technique returns the technique the pass belongs to.
	//
	// Returns:
	//   - Technique: the owning technique
	Technique() Technique

	// Apply resolves expression-bound shaders against the effect's live parameters,
	// relinks the program if the attached set changed, binds it, and uploads uniforms.
	// It must be called before every draw made with the pass.
	//
	// Returns:
	//   - error: ErrPassFailed or ErrPassReleased for an unusable pass, a *LinkError if the
	//     relink fails, or an expression error
	Apply() error

	// Program returns the pass's native program handle.
	//
	// Returns:
	//   - program.ProgramID: the program handle
	Program() program.ProgramID

	// States returns the pass state records.
	//
	// Returns:
	//   - []StateRecord: a copy of the records in declaration order
	States() []StateRecord

	// VertexShader returns the explicit vertex shader currently attached, or nil when the
	// passthrough stage is in use.
	//
	// Returns:
	//   - shader.Shader: the attached vertex shader
	VertexShader() shader.Shader

	// FragmentShader returns the fragment shader currently attached, or nil.
	//
	// Returns:
	//   - shader.Shader: the attached fragment shader
	FragmentShader() shader.Shader

	// PassthroughAttached reports whether the passthrough vertex stage is attached.
	//
	// Returns:
	//   - bool: true if the passthrough stage is attached
	PassthroughAttached() bool

	// LinkCount returns how many times the program has been linked.
	//
	// Returns:
	//   - int: the link count
	LinkCount() int

	// Failed reports whether a link has failed, leaving the pass unusable.
	//
	// Returns:
	//   - bool: true after a link failure
	Failed() bool

	// Release deletes the native program. Attached shaders are owned elsewhere and left alone.
	Release()
}

var _ Pass = &pass{}

// NewPass builds a pass program from its state records. Constant shaders are attached
// immediately; if that already satisfies every stage the records name, the program is
// linked before returning. Otherwise linking waits for the first Apply.
//
// Parameters:
//   - technique: the owning technique, providing the effect's device and parameters
//   - name: the pass name
//   - states: the state records, only vertex and pixel shader classes are accepted
//
// Returns:
//   - Pass: the new pass
//   - error: ErrUnsupportedStateClass, ErrUnsupportedBindingKind, ErrStageMismatch or a
//     *LinkError; the program is deleted before the error is returned
func NewPass(technique Technique, name string, states ...StateRecord) (Pass, error) {
	backend := technique.Effect().Device().Backend()
	prog, err := backend.CreateProgram()
	if err != nil {
		return nil, fmt.Errorf("pass %q: %w", name, err)
	}

	p := &pass{
		name:              name,
		technique:         technique,
		backend:           backend,
		program:           prog,
		states:            slices.Clone(states),
		transformLocation: -1,
	}

	if err := p.classify(); err != nil {
		backend.DeleteProgram(prog)
		return nil, err
	}
	return p, nil
}

// classify validates every record, attaches constant shaders and links if nothing is
// left to resolve.
func (p *pass) classify() error {
	var needVertex, needFragment bool

	for i, st := range p.states {
		stage, ok := st.class.stage()
		if !ok {
			return fmt.Errorf("pass %q state %d: %w: %v", p.name, i, ErrUnsupportedStateClass, st.class)
		}
		if stage == program.ShaderStageVertex {
			needVertex = true
		} else {
			needFragment = true
		}

		switch st.kind {
		case BindingKindConstant:
			s := st.Shader()
			if s == nil {
				return fmt.Errorf("pass %q state %d: constant %v has no shader", p.name, i, st.class)
			}
			if s.Stage() != stage {
				return fmt.Errorf("pass %q state %d: %w: %v shader %q in %v state", p.name, i, ErrStageMismatch, s.Stage(), s.Key(), st.class)
			}
			p.attach(stage, s)
		case BindingKindExpressionIndex:
			if st.Expression() == nil {
				return fmt.Errorf("pass %q state %d: expression %v has no expression", p.name, i, st.class)
			}
		default:
			return fmt.Errorf("pass %q state %d: %w: %v", p.name, i, ErrUnsupportedBindingKind, st.kind)
		}
	}

	if needVertex == (p.vertex != nil) && needFragment == (p.fragment != nil) {
		return p.link()
	}
	return nil
}

// attach makes s the attached shader of its stage, detaching the previous one.
func (p *pass) attach(stage program.ShaderStage, s shader.Shader) {
	current := p.vertex
	if stage == program.ShaderStageFragment {
		current = p.fragment
	}
	if current == s {
		return
	}
	if current != nil {
		p.backend.DetachShader(p.program, current.Handle())
	}
	p.backend.AttachShader(p.program, s.Handle())
	if stage == program.ShaderStageVertex {
		p.vertex = s
	} else {
		p.fragment = s
	}
	p.needsRelink = true
}

// link swaps the passthrough stage in or out as needed and links the program.
func (p *pass) link() error {
	if p.vertex == nil && !p.passthroughAttached {
		pt, err := passthroughFor(p.backend)
		if err != nil {
			p.failed = true
			return fmt.Errorf("pass %q: %w", p.name, err)
		}
		p.passthrough = pt
		p.backend.AttachShader(p.program, pt.Handle())
		pt.OnLink(p.program)
		p.passthroughAttached = true
	} else if p.vertex != nil && p.passthroughAttached {
		p.backend.DetachShader(p.program, p.passthrough.Handle())
		p.passthroughAttached = false
	}

	if p.vertex != nil {
		p.vertex.OnLink(p.program)
	}
	if p.fragment != nil {
		p.fragment.OnLink(p.program)
	}

	p.backend.LinkProgram(p.program)
	p.linkCount++
	if !p.backend.LinkStatus(p.program) {
		info := p.backend.ProgramInfoLog(p.program)
		log.Printf("[Effect] pass %q link failed: %s", p.name, info)
		p.failed = true
		return &LinkError{Pass: p.name, Log: info}
	}

	p.linked = true
	p.needsRelink = false
	p.transformLocation = -1
	if p.passthroughAttached {
		p.transformLocation = p.backend.UniformLocation(p.program, TransformUniform)
	}
	return nil
}

// resolve evaluates an expression record into the shader it selects.
func (p *pass) resolve(i int, st StateRecord, stage program.ShaderStage, params parameter.ParameterSet) (shader.Shader, error) {
	result, err := st.Expression().Evaluate(params)
	if err != nil {
		return nil, fmt.Errorf("pass %q state %d: %w", p.name, i, err)
	}
	s, ok := result.(shader.Shader)
	if !ok || s == nil {
		return nil, fmt.Errorf("pass %q state %d: %w: got %T", p.name, i, ErrInvalidExpressionResult, result)
	}
	if s.Stage() != stage {
		return nil, fmt.Errorf("pass %q state %d: %w: %v shader %q in %v state", p.name, i, ErrExpressionStageMismatch, s.Stage(), s.Key(), st.class)
	}
	return s, nil
}

func (p *pass) Apply() error {
	if p.released {
		return fmt.Errorf("pass %q: %w", p.name, ErrPassReleased)
	}
	if p.failed {
		return fmt.Errorf("pass %q: %w", p.name, ErrPassFailed)
	}

	eff := p.technique.Effect()
	eff.OnApply()
	params := eff.Parameters()

	for i, st := range p.states {
		stage, ok := st.class.stage()
		if !ok {
			return fmt.Errorf("pass %q state %d: %w: %v", p.name, i, ErrUnsupportedStateClass, st.class)
		}

		switch st.kind {
		case BindingKindConstant:
			continue
		case BindingKindExpressionIndex:
			s, err := p.resolve(i, st, stage, params)
			if err != nil {
				return err
			}
			p.attach(stage, s)
		default:
			// Unreachable: classify rejects every other kind before a pass exists.
			return fmt.Errorf("pass %q state %d: %w: %v", p.name, i, ErrUnsupportedBindingKind, st.kind)
		}
	}

	if p.needsRelink || !p.linked {
		if err := p.link(); err != nil {
			return err
		}
	}

	p.backend.UseProgram(p.program)

	device := eff.Device()
	if p.vertex != nil {
		if err := p.vertex.Apply(p.program, params, device); err != nil {
			return fmt.Errorf("pass %q: %w", p.name, err)
		}
	} else {
		vp := device.Viewport()
		var transform [16]float32
		common.ScreenTransform(transform[:], float32(vp.Width), float32(vp.Height))
		p.backend.SetUniformMatrix4(p.program, p.transformLocation, transform)
	}

	if p.fragment != nil {
		if err := p.fragment.Apply(p.program, params, device); err != nil {
			return fmt.Errorf("pass %q: %w", p.name, err)
		}
	}
	return nil
}

func (p *pass) Name() string {
	return p.name
}

func (p *pass) Technique() Technique {
	return p.technique
}

func (p *pass) Program() program.ProgramID {
	return p.program
}

func (p *pass) States() []StateRecord {
	return slices.Clone(p.states)
}

func (p *pass) VertexShader() shader.Shader {
	return p.vertex
}

func (p *pass) FragmentShader() shader.Shader {
	return p.fragment
}

func (p *pass) PassthroughAttached() bool {
	return p.passthroughAttached
}

func (p *pass) LinkCount() int {
	return p.linkCount
}

func (p *pass) Failed() bool {
	return p.failed
}

func (p *pass) Release() {
	if p.released {
		return
	}
	p.released = true
	p.backend.DeleteProgram(p.program)
}
