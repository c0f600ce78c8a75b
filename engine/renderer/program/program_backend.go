package program

// ProgramID is the native handle of a program object owned by a Backend.
// The zero value never identifies a live program.
type ProgramID uint32

// ShaderID is the native handle of a compiled shader object owned by a Backend.
// The zero value never identifies a live shader.
type ShaderID uint32

// ShaderStage tags a compiled shader object with the pipeline stage it runs in.
type ShaderStage int

const (
	// ShaderStageVertex is the vertex processing stage.
	ShaderStageVertex ShaderStage = iota

	// ShaderStageFragment is the fragment (pixel) processing stage.
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// ShadingLanguage identifies the source dialect a Backend compiles.
type ShadingLanguage int

const (
	// ShadingLanguageGLSL is GLSL 4.10 core, consumed by the OpenGL backend.
	ShadingLanguageGLSL ShadingLanguage = iota

	// ShadingLanguageWGSL is WGSL, consumed by the WebGPU backend.
	ShadingLanguageWGSL
)

// Backend is the native program API that effect passes link against. It mirrors the
// classic attach/detach/link program object model: a program collects shader objects,
// is linked, and once linked can be bound for drawing and have uniforms uploaded.
//
// Backends are not safe for concurrent use and must be driven from the thread that owns
// the graphics context.
type Backend interface {
	// ShadingLanguage reports which source dialect CompileShader accepts.
	//
	// Returns:
	//   - ShadingLanguage: the dialect of shader source this backend compiles
	ShadingLanguage() ShadingLanguage

	// CreateProgram creates a new, empty program object.
	//
	// Returns:
	//   - ProgramID: the handle of the new program
	//   - error: an error if the program object could not be created
	CreateProgram() (ProgramID, error)

	// DeleteProgram releases a program object. Attached shaders are not deleted.
	//
	// Parameters:
	//   - p: the program to delete
	DeleteProgram(p ProgramID)

	// CompileShader compiles shader source for the given stage.
	//
	// Parameters:
	//   - stage: the pipeline stage the source targets
	//   - label: a debug label used in error messages
	//   - source: the shader source in the backend's ShadingLanguage
	//
	// Returns:
	//   - ShaderID: the handle of the compiled shader object
	//   - error: an error carrying the compiler log if compilation fails
	CompileShader(stage ShaderStage, label, source string) (ShaderID, error)

	// DeleteShader releases a compiled shader object.
	//
	// Parameters:
	//   - s: the shader to delete
	DeleteShader(s ShaderID)

	// AttachShader attaches a compiled shader to a program. Takes effect at the next link.
	//
	// Parameters:
	//   - p: the program to attach to
	//   - s: the shader to attach
	AttachShader(p ProgramID, s ShaderID)

	// DetachShader detaches a compiled shader from a program. Takes effect at the next link.
	//
	// Parameters:
	//   - p: the program to detach from
	//   - s: the shader to detach
	DetachShader(p ProgramID, s ShaderID)

	// BindAttribLocation binds a named vertex attribute to a location. Takes effect at the next link.
	//
	// Parameters:
	//   - p: the program to configure
	//   - location: the attribute location index
	//   - name: the attribute name as declared in the vertex shader
	BindAttribLocation(p ProgramID, location uint32, name string)

	// LinkProgram links the currently attached shaders into an executable program.
	// The outcome is queried with LinkStatus.
	//
	// Parameters:
	//   - p: the program to link
	LinkProgram(p ProgramID)

	// LinkStatus reports whether the most recent LinkProgram call succeeded.
	//
	// Parameters:
	//   - p: the program to query
	//
	// Returns:
	//   - bool: true if the program is linked
	LinkStatus(p ProgramID) bool

	// ProgramInfoLog returns the driver diagnostic log of the most recent link.
	//
	// Parameters:
	//   - p: the program to query
	//
	// Returns:
	//   - string: the info log, empty if the driver produced none
	ProgramInfoLog(p ProgramID) string

	// UseProgram binds a linked program for subsequent draws and uniform uploads.
	//
	// Parameters:
	//   - p: the program to bind
	UseProgram(p ProgramID)

	// UniformLocation resolves the location of a named uniform in a linked program.
	//
	// Parameters:
	//   - p: the linked program
	//   - name: the uniform name
	//
	// Returns:
	//   - int32: the uniform location, or -1 if the program has no active uniform with that name
	UniformLocation(p ProgramID, name string) int32

	// SetUniformFloat32s uploads a float, vec2, vec3 or vec4 (by len(values)) to a uniform
	// of the bound program.
	//
	// Parameters:
	//   - p: the bound program
	//   - location: the uniform location
	//   - values: one to four components
	SetUniformFloat32s(p ProgramID, location int32, values []float32)

	// SetUniformInt32 uploads an int (or sampler unit) to a uniform of the bound program.
	//
	// Parameters:
	//   - p: the bound program
	//   - location: the uniform location
	//   - value: the integer value
	SetUniformInt32(p ProgramID, location int32, value int32)

	// SetUniformMatrix4 uploads a column-major 4x4 matrix to a uniform of the bound program.
	//
	// Parameters:
	//   - p: the bound program
	//   - location: the uniform location
	//   - m: the matrix in column-major order
	SetUniformMatrix4(p ProgramID, location int32, m [16]float32)
}
