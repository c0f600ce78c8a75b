package effect

import (
	"slices"
)

type technique struct {
	name   string
	effect Effect
	passes []Pass
}

// Technique is an ordered list of passes drawing one variant of an effect. Callers
// apply each pass before the draw calls it covers:
//
//	for _, p := range tech.Passes() {
//		if err := p.Apply(); err != nil { ... }
//		draw()
//	}
type Technique interface {
	// Name returns the technique name.
	//
	// Returns:
	//   - string: the technique name
	Name() string

	// Effect returns the effect the technique belongs to.
	//
	// Returns:
	//   - Effect: the owning effect
	Effect() Effect

	// AddPass builds a pass from its state records and appends it to the technique.
	//
	// Parameters:
	//   - name: the pass name, duplicates are allowed
	//   - states: the pass state records
	//
	// Returns:
	//   - Pass: the new pass
	//   - error: any error returned by NewPass, in which case nothing is appended
	AddPass(name string, states ...StateRecord) (Pass, error)

	// Pass returns the first pass with the given name.
	//
	// Parameters:
	//   - name: the pass name
	//
	// Returns:
	//   - Pass: the pass, nil if absent
	//   - bool: true if a pass was found
	Pass(name string) (Pass, bool)

	// Passes returns the passes in draw order.
	//
	// Returns:
	//   - []Pass: a copy of the pass list
	Passes() []Pass

	// LinkCount returns the summed link count of every pass.
	//
	// Returns:
	//   - int: the total link count
	LinkCount() int

	// Release releases every pass and empties the technique.
	Release()
}

var _ Technique = &technique{}

// NewTechnique creates an empty technique. Most callers use Effect.AddTechnique instead,
// which also registers the technique by name.
//
// Parameters:
//   - effect: the owning effect
//   - name: the technique name
//
// Returns:
//   - Technique: the new technique
func NewTechnique(effect Effect, name string) Technique {
	return &technique{
		name:   name,
		effect: effect,
	}
}

func (t *technique) Name() string {
	return t.name
}

func (t *technique) Effect() Effect {
	return t.effect
}

func (t *technique) AddPass(name string, states ...StateRecord) (Pass, error) {
	p, err := NewPass(t, name, states...)
	if err != nil {
		return nil, err
	}
	t.passes = append(t.passes, p)
	return p, nil
}

func (t *technique) Pass(name string) (Pass, bool) {
	for _, p := range t.passes {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

func (t *technique) Passes() []Pass {
	return slices.Clone(t.passes)
}

func (t *technique) LinkCount() int {
	total := 0
	for _, p := range t.passes {
		total += p.LinkCount()
	}
	return total
}

func (t *technique) Release() {
	for _, p := range t.passes {
		p.Release()
	}
	t.passes = nil
}
