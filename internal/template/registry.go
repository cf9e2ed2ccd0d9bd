package template

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownType indicates an application type with no registered template.
var ErrUnknownType = errors.New("unknown application type")

// Registry maps application type ids to templates. It is populated at
// process start and read-only afterwards, so lookups need no locking.
type Registry struct {
	templates map[string]*Template
}

func NewRegistry() *Registry {
	return &Registry{templates: map[string]*Template{}}
}

// Register validates and adds a template. Duplicate types are rejected.
func (r *Registry) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, exists := r.templates[t.Type]; exists {
		return fmt.Errorf("template %s already registered", t.Type)
	}
	r.templates[t.Type] = t
	return nil
}

// MustRegister panics on registration failure; intended for the static
// built-in template set wired at startup.
func (r *Registry) MustRegister(t *Template) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the template governing typeID.
func (r *Registry) Get(typeID string) (*Template, error) {
	t, ok := r.templates[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeID)
	}
	return t, nil
}

// List returns all registered templates sorted by type id.
func (r *Registry) List() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
