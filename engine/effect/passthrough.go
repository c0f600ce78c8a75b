package effect

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

const (
	// PassthroughKey is the key of the passthrough vertex shader.
	PassthroughKey = "passthrough"

	// TransformUniform is the passthrough vertex shader's projection uniform.
	TransformUniform = "transformMatrix"
)

// Passthrough vertex attribute locations.
const (
	AttribPosition uint32 = 0
	AttribTexCoord uint32 = 1
	AttribColor    uint32 = 2
)

//go:embed assets/passthrough.vert
var passthroughGLSL string

//go:embed assets/passthrough.wgsl
var passthroughWGSL string

// passthroughRegistry holds the passthrough vertex shader of every backend it was needed on.
// Entries are compiled on first request and live until ReleasePassthrough.
var passthroughRegistry = struct {
	mu      sync.Mutex
	shaders map[program.Backend]shader.Shader
}{
	shaders: make(map[program.Backend]shader.Shader),
}

// passthroughFor returns the shared passthrough vertex shader of a backend, compiling it
// on the first call for that backend.
func passthroughFor(backend program.Backend) (shader.Shader, error) {
	passthroughRegistry.mu.Lock()
	defer passthroughRegistry.mu.Unlock()

	if s, ok := passthroughRegistry.shaders[backend]; ok {
		return s, nil
	}

	source := passthroughGLSL
	if backend.ShadingLanguage() == program.ShadingLanguageWGSL {
		source = passthroughWGSL
	}
	s, err := shader.NewShader(backend, PassthroughKey, program.ShaderStageVertex, source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile passthrough vertex shader: %w", err)
	}
	passthroughRegistry.shaders[backend] = s
	return s, nil
}

// ReleasePassthrough releases the passthrough vertex shader compiled for backend and
// forgets it, so a later pass on the same backend compiles a fresh one. Call it after
// every pass using backend has been released and before the backend itself goes away.
//
// Parameters:
//   - backend: the backend whose passthrough shader is released
func ReleasePassthrough(backend program.Backend) {
	passthroughRegistry.mu.Lock()
	defer passthroughRegistry.mu.Unlock()

	if s, ok := passthroughRegistry.shaders[backend]; ok {
		s.Release()
		delete(passthroughRegistry.shaders, backend)
	}
}
