package calculator

import "strings"

// Registry indexes calculators by their normalized name. It is assembled once
// at startup and read-only afterwards.
type Registry struct {
	calculators map[string]Calculator
}

func NewRegistry(calculators ...Calculator) *Registry {
	registry := &Registry{calculators: make(map[string]Calculator, len(calculators))}
	for _, calc := range calculators {
		if calc == nil {
			continue
		}
		registry.calculators[normalize(calc.Name())] = calc
	}
	return registry
}

func (r *Registry) Exists(name string) bool {
	_, ok := r.calculators[normalize(name)]
	return ok
}

func (r *Registry) Lookup(name string) (Calculator, bool) {
	calc, ok := r.calculators[normalize(name)]
	return calc, ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
