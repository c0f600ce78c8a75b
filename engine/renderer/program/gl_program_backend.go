package program

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// glProgramBackend implements Backend on top of an OpenGL 4.1 core context.
// Program and shader IDs are the GL object names directly.
type glProgramBackend struct{}

var _ Backend = &glProgramBackend{}

// NewGLBackend loads the OpenGL 4.1 core function pointers and returns a Backend driving them.
// An OpenGL context must be current on the calling thread.
//
// Returns:
//   - Backend: the OpenGL program backend
//   - error: an error if the GL function pointers could not be loaded
func NewGLBackend() (Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return &glProgramBackend{}, nil
}

func (b *glProgramBackend) ShadingLanguage() ShadingLanguage {
	return ShadingLanguageGLSL
}

func (b *glProgramBackend) CreateProgram() (ProgramID, error) {
	handle := gl.CreateProgram()
	if handle == 0 {
		return 0, errors.New("glCreateProgram returned 0")
	}
	return ProgramID(handle), nil
}

func (b *glProgramBackend) DeleteProgram(p ProgramID) {
	gl.DeleteProgram(uint32(p))
}

func (b *glProgramBackend) CompileShader(stage ShaderStage, label, source string) (ShaderID, error) {
	var shaderType uint32
	switch stage {
	case ShaderStageVertex:
		shaderType = gl.VERTEX_SHADER
	case ShaderStageFragment:
		shaderType = gl.FRAGMENT_SHADER
	default:
		return 0, fmt.Errorf("shader %q: unsupported stage %v", label, stage)
	}

	handle := gl.CreateShader(shaderType)
	glSrc, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(handle, 1, glSrc, nil)
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(log))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("failed to compile %v shader %q: %s", stage, label, strings.TrimRight(log, "\x00"))
	}

	return ShaderID(handle), nil
}

func (b *glProgramBackend) DeleteShader(s ShaderID) {
	gl.DeleteShader(uint32(s))
}

func (b *glProgramBackend) AttachShader(p ProgramID, s ShaderID) {
	gl.AttachShader(uint32(p), uint32(s))
}

func (b *glProgramBackend) DetachShader(p ProgramID, s ShaderID) {
	gl.DetachShader(uint32(p), uint32(s))
}

func (b *glProgramBackend) BindAttribLocation(p ProgramID, location uint32, name string) {
	gl.BindAttribLocation(uint32(p), location, gl.Str(name+"\x00"))
}

func (b *glProgramBackend) LinkProgram(p ProgramID) {
	gl.LinkProgram(uint32(p))
}

func (b *glProgramBackend) LinkStatus(p ProgramID) bool {
	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

func (b *glProgramBackend) ProgramInfoLog(p ProgramID) string {
	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(p), logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (b *glProgramBackend) UseProgram(p ProgramID) {
	gl.UseProgram(uint32(p))
}

func (b *glProgramBackend) UniformLocation(p ProgramID, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (b *glProgramBackend) SetUniformFloat32s(_ ProgramID, location int32, values []float32) {
	if location < 0 || len(values) == 0 {
		return
	}
	switch len(values) {
	case 1:
		gl.Uniform1fv(location, 1, &values[0])
	case 2:
		gl.Uniform2fv(location, 1, &values[0])
	case 3:
		gl.Uniform3fv(location, 1, &values[0])
	default:
		gl.Uniform4fv(location, 1, &values[0])
	}
}

func (b *glProgramBackend) SetUniformInt32(_ ProgramID, location int32, value int32) {
	if location < 0 {
		return
	}
	gl.Uniform1i(location, value)
}

func (b *glProgramBackend) SetUniformMatrix4(_ ProgramID, location int32, m [16]float32) {
	if location < 0 {
		return
	}
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}
