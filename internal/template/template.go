// Package template holds the declarative definition of an application
// workflow: states, role-scoped permissions, transitions, external data
// providers and lifecycle policy. Templates are configuration, validated
// once at registration; the engine interprets them per request.
package template

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"caseflow/internal/domain"
)

// Role is a state-scoped permission label for an actor on one application.
type Role string

// Event names an inbound trigger (submit, approve, reject, ...).
type Event string

// Hook names a side effect the API layer runs on state entry/exit. The
// engine only reports which hooks should fire; it never performs I/O.
type Hook string

// ProviderFunc fetches external data for an application. Network I/O lives
// behind this function; the gate awaits it before committing results.
type ProviderFunc func(ctx context.Context, app domain.Application) (any, error)

// Provider declares an external data fetch bound to a state/role.
type Provider struct {
	Key string
	// Blocking providers must have succeeded before a transition that
	// names them in RequireProviders. Default is best-effort.
	Blocking bool
	// Cacheable providers reuse their result within a single state entry
	// instead of re-fetching on every run.
	Cacheable bool
	Fetch     ProviderFunc
}

// Scope bounds what a role may read or write in a given state.
type Scope struct {
	All          bool
	Answers      []string
	ExternalData []string
}

// WriteAll grants unrestricted access to every answer and provider key.
func WriteAll() *Scope { return &Scope{All: true} }

// Keys restricts access to the named top-level answer keys and external
// data provider keys.
func Keys(answers []string, externalData []string) *Scope {
	return &Scope{Answers: answers, ExternalData: externalData}
}

// AllowsAnswer reports whether the scope permits writing the answer key.
func (s *Scope) AllowsAnswer(key string) bool {
	if s == nil {
		return false
	}
	if s.All {
		return true
	}
	for _, k := range s.Answers {
		if k == key {
			return true
		}
	}
	return false
}

// AllowsExternalData reports whether the scope permits the provider key.
func (s *Scope) AllowsExternalData(key string) bool {
	if s == nil {
		return false
	}
	if s.All {
		return true
	}
	for _, k := range s.ExternalData {
		if k == key {
			return true
		}
	}
	return false
}

// RoleSpec is one role's entry in a state's role table.
type RoleSpec struct {
	ID Role
	// Write is nil when the role has no write access in this state.
	Write *Scope
	// Read is nil when the role may not see the application's answers.
	Read      *Scope
	Providers []Provider
	// Events the role may fire from this state. An event listed here but
	// absent from the transition table still rejects with an invalid
	// transition, not forbidden.
	Events []Event
}

// Allows reports whether the role may fire the event from this state.
func (r RoleSpec) Allows(evt Event) bool {
	for _, e := range r.Events {
		if e == evt {
			return true
		}
	}
	return false
}

// Lifecycle controls listing and automatic pruning for a state.
// The two flags are independent: an application can be prunable yet still
// listed to its owner, and vice versa.
type Lifecycle struct {
	ShouldBeListed bool
	ShouldBePruned bool
	WhenToPrune    time.Duration
}

// ListedForever keeps the application visible and never pruned.
func ListedForever() Lifecycle {
	return Lifecycle{ShouldBeListed: true}
}

// Ephemeral hides the application from listings and prunes it after d.
func Ephemeral(d time.Duration) Lifecycle {
	return Lifecycle{ShouldBePruned: true, WhenToPrune: d}
}

// PruneAt returns when an application entering the state at enteredAt
// becomes prunable, or nil if the state never prunes.
func (l Lifecycle) PruneAt(enteredAt time.Time) *time.Time {
	if !l.ShouldBePruned {
		return nil
	}
	at := enteredAt.Add(l.WhenToPrune)
	return &at
}

// StateMeta is the per-state configuration of a template.
type StateMeta struct {
	Roles     []RoleSpec
	Lifecycle Lifecycle
	OnEntry   []Hook
	OnExit    []Hook
	// Transitions maps event -> target state. An empty table marks a
	// terminal state.
	Transitions map[Event]string
	// RequireProviders maps an event to provider keys whose last result
	// must be success before that transition commits. Events absent from
	// the map are ungated, so an abort-style back-edge stays open even
	// while a required provider is failing.
	RequireProviders map[Event][]string
}

// Role returns the role entry for id, if the role participates in this state.
func (m StateMeta) Role(id Role) (RoleSpec, bool) {
	for _, r := range m.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return RoleSpec{}, false
}

// Terminal reports whether the state has no outgoing transitions.
func (m StateMeta) Terminal() bool {
	return len(m.Transitions) == 0
}

// Template is a complete workflow definition for one application type.
type Template struct {
	Type       string
	Name       string
	DataSchema *huma.Schema
	Initial    string
	States     map[string]StateMeta
	// MapRole resolves an actor to their role on the application. It must
	// be deterministic and side-effect free; it runs on every request.
	// Returning false denies the actor any standing on the application.
	MapRole func(actorID string, app domain.Application) (Role, bool)
}

// State returns the meta for a state name.
func (t *Template) State(name string) (StateMeta, bool) {
	m, ok := t.States[name]
	return m, ok
}

// Validate checks the template's internal consistency. Registration fails
// on the first violation, so stringly-typed state and event names cannot
// leak past process start.
func (t *Template) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("template type is required")
	}
	if t.MapRole == nil {
		return fmt.Errorf("template %s: role mapper is required", t.Type)
	}
	if t.DataSchema == nil {
		return fmt.Errorf("template %s: data schema is required", t.Type)
	}
	if len(t.States) == 0 {
		return fmt.Errorf("template %s: at least one state is required", t.Type)
	}
	if _, ok := t.States[t.Initial]; !ok {
		return fmt.Errorf("template %s: initial state %q not declared", t.Type, t.Initial)
	}
	for name, meta := range t.States {
		for evt, target := range meta.Transitions {
			if evt == "" {
				return fmt.Errorf("template %s: state %s has empty event name", t.Type, name)
			}
			if _, ok := t.States[target]; !ok {
				return fmt.Errorf("template %s: state %s transitions on %s to undeclared state %q", t.Type, name, evt, target)
			}
		}
		seenRoles := map[Role]bool{}
		for _, role := range meta.Roles {
			if role.ID == "" {
				return fmt.Errorf("template %s: state %s has role with empty id", t.Type, name)
			}
			if seenRoles[role.ID] {
				return fmt.Errorf("template %s: state %s declares role %s twice", t.Type, name, role.ID)
			}
			seenRoles[role.ID] = true
			seenProviders := map[string]bool{}
			for _, p := range role.Providers {
				if p.Key == "" {
					return fmt.Errorf("template %s: state %s role %s has provider with empty key", t.Type, name, role.ID)
				}
				if seenProviders[p.Key] {
					return fmt.Errorf("template %s: state %s role %s declares provider %s twice", t.Type, name, role.ID, p.Key)
				}
				seenProviders[p.Key] = true
				if p.Fetch == nil {
					return fmt.Errorf("template %s: provider %s has no fetch function", t.Type, p.Key)
				}
			}
		}
		if meta.Lifecycle.ShouldBePruned && meta.Lifecycle.WhenToPrune <= 0 {
			return fmt.Errorf("template %s: state %s is prunable but has no prune delay", t.Type, name)
		}
		for evt, keys := range meta.RequireProviders {
			if _, ok := meta.Transitions[evt]; !ok {
				return fmt.Errorf("template %s: state %s requires providers for undeclared transition %s", t.Type, name, evt)
			}
			for _, key := range keys {
				if !t.declaresProvider(key) {
					return fmt.Errorf("template %s: state %s requires undeclared provider %s", t.Type, name, key)
				}
			}
		}
	}
	t.DataSchema.PrecomputeMessages()
	return nil
}

func (t *Template) declaresProvider(key string) bool {
	for _, meta := range t.States {
		for _, role := range meta.Roles {
			for _, p := range role.Providers {
				if p.Key == key {
					return true
				}
			}
		}
	}
	return false
}
