// annotations.go defines the annotation types and parser for the effect shader
// pre-processor. Annotations are single-line comments prefixed with @fx: that inject
// registered source snippets and declare how a shader's uniforms and vertex attributes
// are wired to effect parameters. The same syntax is used in GLSL and WGSL sources since
// both use // line comments.
package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an effect annotation within a comment line.
const annotationPrefix = "@fx:"

// AnnotationType identifies the kind of annotation parsed from a comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered snippet at the annotation site.
	// It is consumed entirely during pre-processing and never appears in Declarations.
	//
	// Syntax: //@fx:include <snippet>
	//
	// Example: //@fx:include transform
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeUniform binds a uniform to an effect parameter. Shader.Apply uploads
	// the parameter's current value to the uniform every time the owning pass is applied.
	// The parameter name defaults to the uniform name.
	//
	// Syntax: //@fx:uniform <uniform_name> [parameter_name]
	//
	// Example: //@fx:uniform tint TintColor
	AnnotationTypeUniform AnnotationType = "uniform"

	// AnnotationTypeAttribute declares a vertex attribute location that Shader.OnLink
	// binds on every program the shader is linked into.
	//
	// Syntax: //@fx:attribute <location> <attribute_name>
	//
	// Example: //@fx:attribute 0 aPosition
	AnnotationTypeAttribute AnnotationType = "attribute"

	// AnnotationTypeViewport binds a vec2 uniform to the device viewport size in pixels.
	//
	// Syntax: //@fx:viewport <uniform_name>
	AnnotationTypeViewport AnnotationType = "viewport"
)

// Annotation represents a single parsed @fx: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:   [0] = snippet name
	//   - uniform:   [0] = uniform name, [1] = parameter name
	//   - attribute: [0] = attribute name
	//   - viewport:  [0] = uniform name
	Args []AnnotationArg

	// Line is the 1-based line number in the original source where this annotation was found.
	Line int

	// Location is the attribute location for attribute annotations, nil otherwise.
	Location *int
}

// AnnotationArg is a single annotation argument.
type AnnotationArg string

// Snippet names registered by NewPreProcessor for both shading languages.
const (
	// AnnotationArgTransform declares the transformMatrix uniform used by the passthrough vertex stage.
	AnnotationArgTransform AnnotationArg = "transform"

	// AnnotationArgSpriteVaryings declares the outputs of the passthrough vertex stage as fragment inputs.
	AnnotationArgSpriteVaryings AnnotationArg = "sprite_varyings"

	// AnnotationArgColor provides luminance and gamma helper functions.
	AnnotationArgColor AnnotationArg = "color"
)

// isIdentifier reports whether s is a valid GLSL/WGSL identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// parseAnnotation attempts to parse a single source line as an @fx: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	_, after, ok := strings.Cut(comment, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @fx annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @fx include annotation requires exactly one argument", lineNum)
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeUniform:
		if len(args) < 2 || len(args) > 3 {
			return nil, fmt.Errorf("line %d: @fx uniform annotation requires a uniform name and an optional parameter name", lineNum)
		}
		if !isIdentifier(args[1]) {
			return nil, fmt.Errorf("line %d: invalid uniform name %q in @fx uniform annotation", lineNum, args[1])
		}
		param := args[1]
		if len(args) == 3 {
			param = args[2]
		}
		return &Annotation{
			Type: AnnotationTypeUniform,
			Args: []AnnotationArg{AnnotationArg(args[1]), AnnotationArg(param)},
			Line: lineNum,
		}, nil
	case AnnotationTypeAttribute:
		if len(args) != 3 {
			return nil, fmt.Errorf("line %d: @fx attribute annotation requires exactly two arguments (location, attribute name)", lineNum)
		}
		loc, err := strconv.Atoi(args[1])
		if err != nil || loc < 0 {
			return nil, fmt.Errorf("line %d: invalid attribute location %q in @fx attribute annotation", lineNum, args[1])
		}
		if !isIdentifier(args[2]) {
			return nil, fmt.Errorf("line %d: invalid attribute name %q in @fx attribute annotation", lineNum, args[2])
		}
		return &Annotation{
			Type:     AnnotationTypeAttribute,
			Args:     []AnnotationArg{AnnotationArg(args[2])},
			Line:     lineNum,
			Location: &loc,
		}, nil
	case AnnotationTypeViewport:
		if len(args) != 2 || !isIdentifier(args[1]) {
			return nil, fmt.Errorf("line %d: @fx viewport annotation requires exactly one uniform name", lineNum)
		}
		return &Annotation{
			Type: AnnotationTypeViewport,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @fx annotation type %q", lineNum, args[0])
	}
}
