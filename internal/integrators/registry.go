package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynlab/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler":    func() dynamo.Integrator { return NewEuler() },
	"midpoint": func() dynamo.Integrator { return NewMidpoint() },
	"heun":     func() dynamo.Integrator { return NewHeun() },
	"rk4":      func() dynamo.Integrator { return NewRK4() },
	"rk45":     func() dynamo.Integrator { return NewRK45() },
}

// New returns a fresh integrator by name. Integrators carry scratch state,
// so callers get a new value on every call.
func New(name string) (dynamo.Integrator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: integrator %q", dynamo.ErrUnknownKind, name)
	}
	return factory(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
