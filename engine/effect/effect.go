package effect

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-fx/engine/effect/parameter"
	"github.com/Carmen-Shannon/oxy-fx/engine/renderer/shader"
)

type effect struct {
	name    string
	device  shader.Device
	params  parameter.ParameterSet
	extra   []parameter.Parameter
	onApply func(Effect)

	techniques map[string]Technique
	order      []string
	current    Technique
}

// Effect groups named techniques over one live parameter set and one device. The
// parameter set is shared by every pass: expressions read it to pick shaders and
// shaders read it to upload their uniforms.
type Effect interface {
	// Name returns the effect name.
	//
	// Returns:
	//   - string: the effect name
	Name() string

	// Device returns the device the effect draws on.
	//
	// Returns:
	//   - shader.Device: the device
	Device() shader.Device

	// Parameters returns the live parameter set.
	//
	// Returns:
	//   - parameter.ParameterSet: the parameter set
	Parameters() parameter.ParameterSet

	// OnApply runs the apply hook configured with WithOnApply. Passes call it at the start
	// of every Apply, before resolving expressions, so the hook may update parameters.
	OnApply()

	// AddTechnique creates and registers an empty technique. The first technique added
	// becomes the current one.
	//
	// Parameters:
	//   - name: the technique name
	//
	// Returns:
	//   - Technique: the new technique
	//   - error: ErrDuplicateTechnique if the name is taken
	AddTechnique(name string) (Technique, error)

	// Technique returns the technique with the given name.
	//
	// Parameters:
	//   - name: the technique name
	//
	// Returns:
	//   - Technique: the technique, nil if absent
	//   - bool: true if the technique exists
	Technique(name string) (Technique, bool)

	// Techniques returns every technique in insertion order.
	//
	// Returns:
	//   - []Technique: the techniques
	Techniques() []Technique

	// CurrentTechnique returns the selected technique, nil before any technique is added.
	//
	// Returns:
	//   - Technique: the current technique
	CurrentTechnique() Technique

	// SetCurrentTechnique selects the technique callers should draw with.
	//
	// Parameters:
	//   - name: the technique name
	//
	// Returns:
	//   - error: ErrUnknownTechnique if the effect has no such technique
	SetCurrentTechnique(name string) error

	// LinkCount returns the summed link count of every pass of every technique.
	//
	// Returns:
	//   - int: the total link count
	LinkCount() int

	// Release releases every technique and its passes. Shaders are left to their owners.
	Release()
}

var _ Effect = &effect{}

// NewEffect creates an effect with no techniques.
//
// Parameters:
//   - name: the effect name
//   - device: the device providing the program backend and viewport
//   - opts: a variadic list of EffectBuilderOption functions
//
// Returns:
//   - Effect: the new effect
func NewEffect(name string, device shader.Device, opts ...EffectBuilderOption) Effect {
	e := &effect{
		name:       name,
		device:     device,
		techniques: make(map[string]Technique),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.params == nil {
		e.params = parameter.NewParameterSet(e.extra...)
	} else {
		for _, p := range e.extra {
			if err := e.params.Add(p); err != nil {
				log.Printf("[Effect] %q: keeping existing parameter: %v", name, err)
			}
		}
	}
	e.extra = nil
	return e
}

func (e *effect) Name() string {
	return e.name
}

func (e *effect) Device() shader.Device {
	return e.device
}

func (e *effect) Parameters() parameter.ParameterSet {
	return e.params
}

func (e *effect) OnApply() {
	if e.onApply != nil {
		e.onApply(e)
	}
}

func (e *effect) AddTechnique(name string) (Technique, error) {
	if _, ok := e.techniques[name]; ok {
		return nil, fmt.Errorf("effect %q: %w: %q", e.name, ErrDuplicateTechnique, name)
	}
	t := NewTechnique(e, name)
	e.techniques[name] = t
	e.order = append(e.order, name)
	if e.current == nil {
		e.current = t
	}
	return t, nil
}

func (e *effect) Technique(name string) (Technique, bool) {
	t, ok := e.techniques[name]
	return t, ok
}

func (e *effect) Techniques() []Technique {
	out := make([]Technique, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.techniques[name])
	}
	return out
}

func (e *effect) CurrentTechnique() Technique {
	return e.current
}

func (e *effect) SetCurrentTechnique(name string) error {
	t, ok := e.techniques[name]
	if !ok {
		return fmt.Errorf("effect %q: %w: %q", e.name, ErrUnknownTechnique, name)
	}
	e.current = t
	return nil
}

func (e *effect) LinkCount() int {
	total := 0
	for _, t := range e.techniques {
		total += t.LinkCount()
	}
	return total
}

func (e *effect) Release() {
	for _, name := range e.order {
		e.techniques[name].Release()
	}
}
