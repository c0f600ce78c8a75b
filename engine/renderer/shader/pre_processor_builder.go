package shader

// PreProcessorOption configures a PreProcessor created with NewPreProcessor.
type PreProcessorOption func(*preProcessor)

// WithSnippet registers a snippet that //@fx:include <name> injects.
// Registering a built-in snippet name replaces the built-in source.
//
// Parameters:
//   - name: the include argument
//   - source: the source injected in place of the annotation
//
// Returns:
//   - PreProcessorOption: a function that applies the snippet to a preProcessor instance
func WithSnippet(name, source string) PreProcessorOption {
	return func(p *preProcessor) {
		p.snippetRegistry[AnnotationArg(name)] = source
	}
}
