package shader

// ShaderBuilderOption configures a Shader created with NewShader or loaded by a Library.
type ShaderBuilderOption func(*shader)

// WithPreProcessor sets the pre-processor used on the shader source.
// Defaults to NewPreProcessor for the backend's shading language.
//
// Parameters:
//   - pp: the pre-processor to use
//
// Returns:
//   - ShaderBuilderOption: a function that applies the pre-processor to a shader instance
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		s.pp = pp
	}
}

// WithUniform binds a uniform to an effect parameter without an annotation in the source.
//
// Parameters:
//   - uniform: the uniform name in the shader
//   - param: the effect parameter feeding it
//
// Returns:
//   - ShaderBuilderOption: a function that applies the binding to a shader instance
func WithUniform(uniform, param string) ShaderBuilderOption {
	return func(s *shader) {
		s.uniforms = append(s.uniforms, uniformBinding{uniform: uniform, param: param})
	}
}

// WithAttribute declares a vertex attribute location without an annotation in the source.
//
// Parameters:
//   - location: the attribute location
//   - name: the attribute name in the shader
//
// Returns:
//   - ShaderBuilderOption: a function that applies the attribute to a shader instance
func WithAttribute(location uint32, name string) ShaderBuilderOption {
	return func(s *shader) {
		s.attributes = append(s.attributes, attributeBinding{location: location, name: name})
	}
}
