package parameter

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrUnknownParameter is returned when a ParameterSet has no parameter with the requested name.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrDuplicateParameter is returned when adding a parameter whose name is already taken.
	ErrDuplicateParameter = errors.New("duplicate parameter")
)

type parameterSet struct {
	mu     *sync.RWMutex
	order  []string
	byName map[string]Parameter
}

// ParameterSet is the live, ordered collection of an effect's parameters.
// Expressions and shader uniform hooks read it at apply time, so values set
// between frames take effect on the next apply.
type ParameterSet interface {
	// Get looks up a parameter by name.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - Parameter: the parameter, or nil if absent
	//   - bool: true if the parameter exists
	Get(name string) (Parameter, bool)

	// Set updates the value of an existing parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the new value, of the same kind as the current one
	//
	// Returns:
	//   - error: ErrUnknownParameter, or any error from Parameter.SetValue
	Set(name string, value any) error

	// Add appends a parameter to the set.
	//
	// Parameters:
	//   - p: the parameter to add
	//
	// Returns:
	//   - error: ErrDuplicateParameter if a parameter with the same name exists
	Add(p Parameter) error

	// Names returns the parameter names in insertion order.
	//
	// Returns:
	//   - []string: the names
	Names() []string

	// Len returns the number of parameters in the set.
	//
	// Returns:
	//   - int: the parameter count
	Len() int
}

var _ ParameterSet = &parameterSet{}

// NewParameterSet creates a ParameterSet holding the given parameters in order.
// A later parameter with a name already seen replaces the earlier one in place.
//
// Parameters:
//   - params: the initial parameters
//
// Returns:
//   - ParameterSet: the new set
func NewParameterSet(params ...Parameter) ParameterSet {
	s := &parameterSet{
		mu:     &sync.RWMutex{},
		byName: make(map[string]Parameter, len(params)),
	}
	for _, p := range params {
		if p == nil {
			continue
		}
		if _, ok := s.byName[p.Name()]; !ok {
			s.order = append(s.order, p.Name())
		}
		s.byName[p.Name()] = p
	}
	return s
}

func (s *parameterSet) Get(name string) (Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byName[name]
	return p, ok
}

func (s *parameterSet) Set(name string, value any) error {
	p, ok := s.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return p.SetValue(value)
}

func (s *parameterSet) Add(p Parameter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[p.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateParameter, p.Name())
	}
	s.order = append(s.order, p.Name())
	s.byName[p.Name()] = p
	return nil
}

func (s *parameterSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

func (s *parameterSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
