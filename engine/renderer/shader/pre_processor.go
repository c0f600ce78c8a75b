// pre_processor.go implements the effect shader pre-processor. It scans shader source
// for @fx: annotations, replaces include annotations with registered snippet source and
// strips the declaration annotations, collecting them so the Shader can bind attributes
// at link time and upload parameter-backed uniforms at apply time.
package shader

import (
	_ "embed"
	"fmt"
	"maps"
	"strings"

	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/program"
)

//go:embed assets/transform.glsl
var glslTransformSource string

//go:embed assets/transform.wgsl
var wgslTransformSource string

//go:embed assets/sprite_varyings.glsl
var glslSpriteVaryingsSource string

//go:embed assets/sprite_varyings.wgsl
var wgslSpriteVaryingsSource string

//go:embed assets/color.glsl
var glslColorSource string

//go:embed assets/color.wgsl
var wgslColorSource string

// builtinSnippets holds the snippets every pre-processor starts with, per shading language.
var builtinSnippets = map[program.ShadingLanguage]map[AnnotationArg]string{
	program.ShadingLanguageGLSL: {
		AnnotationArgTransform:      glslTransformSource,
		AnnotationArgSpriteVaryings: glslSpriteVaryingsSource,
		AnnotationArgColor:          glslColorSource,
	},
	program.ShadingLanguageWGSL: {
		AnnotationArgTransform:      wgslTransformSource,
		AnnotationArgSpriteVaryings: wgslSpriteVaryingsSource,
		AnnotationArgColor:          wgslColorSource,
	},
}

type preProcessor struct {
	language program.ShadingLanguage

	// snippetRegistry maps include arguments to the source injected in their place.
	snippetRegistry map[AnnotationArg]string

	// declarations accumulates uniform, attribute and viewport annotations during a Process call.
	declarations []Annotation
}

// PreProcessor expands @fx: annotations in shader source for one shading language.
// A PreProcessor is not safe for concurrent use; Process resets its declarations.
type PreProcessor interface {
	// Process replaces @fx:include annotations with their snippet source and removes the
	// declaration annotations, recording them in source order.
	//
	// Parameters:
	//   - source: the raw shader source containing annotations
	//
	// Returns:
	//   - string: the processed shader source
	//   - error: an error if an annotation is malformed or includes an unknown snippet
	Process(source string) (string, error)

	// Declarations returns the uniform, attribute and viewport annotations collected during
	// the most recent call to Process. Returns nil if Process has not been called.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation

	// Language returns the shading language whose snippets this pre-processor injects.
	//
	// Returns:
	//   - program.ShadingLanguage: the shading language
	Language() program.ShadingLanguage

	// Clone returns an independent pre-processor with the same snippet registry,
	// for processing sources on other goroutines.
	//
	// Returns:
	//   - PreProcessor: the copy
	Clone() PreProcessor
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor for the given language with the built-in snippets
// registered, plus any registered through options.
//
// Parameters:
//   - language: the shading language of the sources to be processed
//   - opts: a variadic list of PreProcessorOption functions
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(language program.ShadingLanguage, opts ...PreProcessorOption) PreProcessor {
	p := &preProcessor{
		language:        language,
		snippetRegistry: maps.Clone(builtinSnippets[language]),
	}
	if p.snippetRegistry == nil {
		p.snippetRegistry = make(map[AnnotationArg]string)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			snippet, ok := p.snippetRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @fx:include snippet %q", i+1, a.Args[0])
			}
			out = append(out, strings.TrimRight(snippet, "\n"))
		case AnnotationTypeUniform, AnnotationTypeAttribute, AnnotationTypeViewport:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

func (p *preProcessor) Language() program.ShadingLanguage {
	return p.language
}

func (p *preProcessor) Clone() PreProcessor {
	return &preProcessor{
		language:        p.language,
		snippetRegistry: maps.Clone(p.snippetRegistry),
	}
}
