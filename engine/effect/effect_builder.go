package effect

import "github.com/Carmen-Shannon/oxy-fx/engine/effect/parameter"

// EffectBuilderOption configures an Effect created with NewEffect.
type EffectBuilderOption func(*effect)

// WithParameters sets the live parameter set. Defaults to an empty set.
//
// Parameters:
//   - params: the parameter set shared by every pass
//
// Returns:
//   - EffectBuilderOption: a function that applies the parameter set to an effect instance
func WithParameters(params parameter.ParameterSet) EffectBuilderOption {
	return func(e *effect) {
		e.params = params
	}
}

// WithParameter adds one parameter to the effect's set. When a set given with
// WithParameters already holds the name, the existing parameter is kept.
//
// Parameters:
//   - p: the parameter
//
// Returns:
//   - EffectBuilderOption: a function that adds the parameter to an effect instance
func WithParameter(p parameter.Parameter) EffectBuilderOption {
	return func(e *effect) {
		if p != nil {
			e.extra = append(e.extra, p)
		}
	}
}

// WithOnApply sets a hook run at the start of every pass apply.
//
// Parameters:
//   - fn: the hook, receiving the effect
//
// Returns:
//   - EffectBuilderOption: a function that applies the hook to an effect instance
func WithOnApply(fn func(Effect)) EffectBuilderOption {
	return func(e *effect) {
		e.onApply = fn
	}
}
