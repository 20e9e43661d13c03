package agent

import (
	"errors"
	"fmt"
)

// Registry - роль -> адаптер, собирается один раз при старте
type Registry struct {
	adapters map[Name]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[Name]Adapter, len(adapters))}
	for _, a := range adapters {
		n := a.Name()
		if !n.IsValid() || n == CulturalAdaptation {
			return nil, fmt.Errorf("%w: %q cannot be registered", ErrUnknownSpecialist, n)
		}
		if _, dup := r.adapters[n]; dup {
			return nil, fmt.Errorf("specialist %q registered twice", n)
		}
		r.adapters[n] = a
	}
	return r, nil
}

func (r *Registry) Get(n Name) (Adapter, bool) {
	a, ok := r.adapters[n]
	return a, ok
}

// Names - зарегистрированные роли в каноническом порядке
func (r *Registry) Names() []Name {
	var out []Name
	for _, n := range AllNames {
		if _, ok := r.adapters[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Close закрывает всех, ошибки собирает вместе
func (r *Registry) Close() error {
	var errs []error
	for _, n := range r.Names() {
		if err := r.adapters[n].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", n, err))
		}
	}
	return errors.Join(errs...)
}
