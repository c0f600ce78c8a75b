// Package programtest provides an in-memory program.Backend that records every call,
// for testing code that drives programs without a graphics context.
package programtest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
)

// Op names a recorded Backend call.
type Op string

const (
	OpCreateProgram      Op = "CreateProgram"
	OpDeleteProgram      Op = "DeleteProgram"
	OpCompileShader      Op = "CompileShader"
	OpDeleteShader       Op = "DeleteShader"
	OpAttachShader       Op = "AttachShader"
	OpDetachShader       Op = "DetachShader"
	OpBindAttribLocation Op = "BindAttribLocation"
	OpLinkProgram        Op = "LinkProgram"
	OpUseProgram         Op = "UseProgram"
	OpSetUniform         Op = "SetUniform"
)

// Call is one recorded Backend call. Fields that do not apply to Op are zero.
type Call struct {
	Op       Op
	Program  program.ProgramID
	Shader   program.ShaderID
	Location int32
	Name     string
}

// Program is the recorded state of one program object.
type Program struct {
	Attached  map[program.ShaderID]struct{}
	Attribs   map[string]uint32
	Uniforms  map[string]any
	LinkCount int
	Linked    bool
	InfoLog   string
	Deleted   bool

	// MaxVertexAttached is the highest number of vertex shaders attached at once.
	MaxVertexAttached int

	locations map[string]int32
}

// Shader is the recorded state of one compiled shader object.
type Shader struct {
	Stage   program.ShaderStage
	Label   string
	Source  string
	Deleted bool
}

// Backend records calls and emulates program objects in memory.
type Backend struct {
	mu       sync.Mutex
	language program.ShadingLanguage
	nextID   uint32
	calls    []Call
	programs map[program.ProgramID]*Program
	shaders  map[program.ShaderID]*Shader
	used     program.ProgramID

	failLink    func(p program.ProgramID, attached []program.ShaderID) (string, bool)
	failCompile func(label string) error
	hidden      map[string]struct{}
}

var _ program.Backend = &Backend{}

// NewBackend creates a recording backend reporting GLSL as its shading language.
func NewBackend() *Backend {
	return &Backend{
		language: program.ShadingLanguageGLSL,
		programs: make(map[program.ProgramID]*Program),
		shaders:  make(map[program.ShaderID]*Shader),
		hidden:   make(map[string]struct{}),
	}
}

// SetShadingLanguage changes the dialect reported by ShadingLanguage.
func (b *Backend) SetShadingLanguage(l program.ShadingLanguage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.language = l
}

// FailLinkWhen installs a predicate deciding whether a LinkProgram call fails.
// When it reports true the returned string becomes the program info log.
func (b *Backend) FailLinkWhen(fn func(p program.ProgramID, attached []program.ShaderID) (string, bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failLink = fn
}

// FailCompileWhen installs a hook whose non-nil error fails CompileShader for the given label.
func (b *Backend) FailCompileWhen(fn func(label string) error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failCompile = fn
}

// HideUniform makes UniformLocation report -1 for the named uniform on every program.
func (b *Backend) HideUniform(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hidden[name] = struct{}{}
}

// Calls returns a copy of every recorded call in order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// CallsFor returns the recorded calls that targeted program p.
func (b *Backend) CallsFor(p program.ProgramID) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Call
	for _, c := range b.calls {
		if c.Program == p {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many calls of the given op were recorded.
func (b *Backend) Count(op Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log without touching program or shader state.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Program returns the recorded state of p, or nil if p was never created.
func (b *Backend) Program(p program.ProgramID) *Program {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.programs[p]
}

// Shader returns the recorded state of s, or nil if s was never compiled.
func (b *Backend) Shader(s program.ShaderID) *Shader {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shaders[s]
}

// IsAttached reports whether s is currently attached to p.
func (b *Backend) IsAttached(p program.ProgramID, s program.ShaderID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return false
	}
	_, ok = prog.Attached[s]
	return ok
}

// Attached returns the shaders currently attached to p in ascending ID order.
func (b *Backend) Attached(p program.ProgramID) []program.ShaderID {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return nil
	}
	return attachedIDs(prog)
}

// LinkCount returns how many times p has been linked.
func (b *Backend) LinkCount(p program.ProgramID) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		return prog.LinkCount
	}
	return 0
}

// UsedProgram returns the program most recently bound with UseProgram.
func (b *Backend) UsedProgram() program.ProgramID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Uniform returns the last value uploaded to the named uniform of p.
// Values are []float32, int32 or [16]float32 depending on the setter used.
func (b *Backend) Uniform(p program.ProgramID, name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return nil, false
	}
	v, ok := prog.Uniforms[name]
	return v, ok
}

// CompiledCount returns how many shaders with the given label were compiled.
func (b *Backend) CompiledCount(label string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.calls {
		if c.Op == OpCompileShader && c.Name == label {
			n++
		}
	}
	return n
}

func attachedIDs(prog *Program) []program.ShaderID {
	ids := make([]program.ShaderID, 0, len(prog.Attached))
	for id := range prog.Attached {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (b *Backend) record(c Call) {
	b.calls = append(b.calls, c)
}

func (b *Backend) ShadingLanguage() program.ShadingLanguage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.language
}

func (b *Backend) CreateProgram() (program.ProgramID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := program.ProgramID(b.nextID)
	b.programs[id] = &Program{
		Attached:  make(map[program.ShaderID]struct{}),
		Attribs:   make(map[string]uint32),
		Uniforms:  make(map[string]any),
		locations: make(map[string]int32),
	}
	b.record(Call{Op: OpCreateProgram, Program: id})
	return id, nil
}

func (b *Backend) DeleteProgram(p program.ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		prog.Deleted = true
	}
	b.record(Call{Op: OpDeleteProgram, Program: p})
}

func (b *Backend) CompileShader(stage program.ShaderStage, label, source string) (program.ShaderID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpCompileShader, Name: label})
	if b.failCompile != nil {
		if err := b.failCompile(label); err != nil {
			return 0, fmt.Errorf("failed to compile %v shader %q: %w", stage, label, err)
		}
	}

	b.nextID++
	id := program.ShaderID(b.nextID)
	b.shaders[id] = &Shader{Stage: stage, Label: label, Source: source}
	b.calls[len(b.calls)-1].Shader = id
	return id, nil
}

func (b *Backend) DeleteShader(s program.ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sh, ok := b.shaders[s]; ok {
		sh.Deleted = true
	}
	b.record(Call{Op: OpDeleteShader, Shader: s})
}

func (b *Backend) AttachShader(p program.ProgramID, s program.ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpAttachShader, Program: p, Shader: s})
	prog, ok := b.programs[p]
	if !ok {
		return
	}
	prog.Attached[s] = struct{}{}

	vertex := 0
	for id := range prog.Attached {
		if sh, ok := b.shaders[id]; ok && sh.Stage == program.ShaderStageVertex {
			vertex++
		}
	}
	prog.MaxVertexAttached = max(prog.MaxVertexAttached, vertex)
}

func (b *Backend) DetachShader(p program.ProgramID, s program.ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpDetachShader, Program: p, Shader: s})
	if prog, ok := b.programs[p]; ok {
		delete(prog.Attached, s)
	}
}

func (b *Backend) BindAttribLocation(p program.ProgramID, location uint32, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpBindAttribLocation, Program: p, Location: int32(location), Name: name})
	if prog, ok := b.programs[p]; ok {
		prog.Attribs[name] = location
	}
}

func (b *Backend) LinkProgram(p program.ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpLinkProgram, Program: p})
	prog, ok := b.programs[p]
	if !ok {
		return
	}
	prog.LinkCount++
	prog.Linked = true
	prog.InfoLog = ""
	if b.failLink != nil {
		if log, fail := b.failLink(p, attachedIDs(prog)); fail {
			prog.Linked = false
			prog.InfoLog = log
		}
	}
}

func (b *Backend) LinkStatus(p program.ProgramID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	return ok && prog.Linked
}

func (b *Backend) ProgramInfoLog(p program.ProgramID) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prog, ok := b.programs[p]; ok {
		return prog.InfoLog
	}
	return ""
}

func (b *Backend) UseProgram(p program.ProgramID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(Call{Op: OpUseProgram, Program: p})
	b.used = p
}

func (b *Backend) UniformLocation(p program.ProgramID, name string) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog, ok := b.programs[p]
	if !ok {
		return -1
	}
	if _, hidden := b.hidden[name]; hidden {
		return -1
	}
	loc, ok := prog.locations[name]
	if !ok {
		loc = int32(len(prog.locations))
		prog.locations[name] = loc
	}
	return loc
}

// setUniform stores value under the uniform name that owns location. Must be called with b.mu held.
func (b *Backend) setUniform(p program.ProgramID, location int32, value any) {
	if location < 0 {
		return
	}
	prog, ok := b.programs[p]
	if !ok {
		return
	}
	for name, loc := range prog.locations {
		if loc == location {
			prog.Uniforms[name] = value
			b.record(Call{Op: OpSetUniform, Program: p, Location: location, Name: name})
			return
		}
	}
}

func (b *Backend) SetUniformFloat32s(p program.ProgramID, location int32, values []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setUniform(p, location, slices.Clone(values))
}

func (b *Backend) SetUniformInt32(p program.ProgramID, location int32, value int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setUniform(p, location, value)
}

func (b *Backend) SetUniformMatrix4(p program.ProgramID, location int32, m [16]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setUniform(p, location, m)
}
