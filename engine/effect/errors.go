package effect

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedStateClass is returned when a pass state targets anything other than the vertex or pixel shader.
	ErrUnsupportedStateClass = errors.New("unsupported state class")

	// ErrUnsupportedBindingKind is returned for parameter-bound shader states and unknown binding kinds.
	ErrUnsupportedBindingKind = errors.New("unsupported binding kind")

	// ErrLinkFailure is matched by every *LinkError.
	ErrLinkFailure = errors.New("program link failed")

	// ErrStageMismatch is returned when a constant state's shader was compiled for the other stage.
	ErrStageMismatch = errors.New("shader stage does not match state class")

	// ErrExpressionStageMismatch is returned when an expression resolves to a shader of the other stage.
	ErrExpressionStageMismatch = errors.New("expression resolved to a shader of the wrong stage")

	// ErrInvalidExpressionResult is returned when an expression resolves to nil or to something that is not a shader.
	ErrInvalidExpressionResult = errors.New("expression did not resolve to a shader")

	// ErrExpressionIndexOutOfRange is returned when an index expression selects past its shader list.
	ErrExpressionIndexOutOfRange = errors.New("expression index out of range")

	// ErrPassFailed is returned by Apply on a pass whose link has failed.
	ErrPassFailed = errors.New("pass is unusable after a link failure")

	// ErrPassReleased is returned by Apply on a released pass.
	ErrPassReleased = errors.New("pass released")

	// ErrDuplicateTechnique is returned when adding a technique whose name is taken.
	ErrDuplicateTechnique = errors.New("duplicate technique")

	// ErrUnknownTechnique is returned when selecting a technique the effect does not have.
	ErrUnknownTechnique = errors.New("unknown technique")
)

// LinkError reports a failed program link together with the backend's info log.
type LinkError struct {
	// Pass is the name of the pass whose program failed to link.
	Pass string
	// Log is the program info log captured after the link.
	Log string
}

func (e *LinkError) Error() string {
	if e.Log == "" {
		return fmt.Sprintf("pass %q: %v", e.Pass, ErrLinkFailure)
	}
	return fmt.Sprintf("pass %q: %v: %s", e.Pass, ErrLinkFailure, e.Log)
}

func (e *LinkError) Unwrap() error {
	return ErrLinkFailure
}
