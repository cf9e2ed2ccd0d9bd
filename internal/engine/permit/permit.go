// Package permit resolves what a role may read and write on an application
// in its current state, and enforces it over incoming mutations.
package permit

import (
	"sort"

	"caseflow/internal/domain"
	"caseflow/internal/fault"
	"caseflow/internal/template"
)

// WritableScope computes the write scope for role in the application's
// current state. A nil result means no write access at all: the state is
// unknown, the role does not participate in it, or the role entry grants
// no write.
func WritableScope(t *template.Template, app domain.Application, role template.Role) *template.Scope {
	meta, ok := t.State(app.State)
	if !ok {
		return nil
	}
	spec, ok := meta.Role(role)
	if !ok {
		return nil
	}
	return spec.Write
}

// ReadableScope computes the read scope for role in the application's
// current state; nil means the role may not see any answers.
func ReadableScope(t *template.Template, app domain.Application, role template.Role) *template.Scope {
	meta, ok := t.State(app.State)
	if !ok {
		return nil
	}
	spec, ok := meta.Role(role)
	if !ok {
		return nil
	}
	return spec.Read
}

// FilterAnswers enforces scope over an incoming answer mutation. In strict
// mode any key outside the scope fails the whole mutation with a Forbidden
// listing every illegal key; otherwise illegal keys are silently dropped
// and only permitted keys are retained. The input map is never mutated.
func FilterAnswers(scope *template.Scope, answers map[string]any, strict bool) (map[string]any, error) {
	if scope != nil && scope.All {
		out := make(map[string]any, len(answers))
		for k, v := range answers {
			out[k] = v
		}
		return out, nil
	}
	accepted := make(map[string]any, len(answers))
	var illegal []string
	for k, v := range answers {
		if scope.AllowsAnswer(k) {
			accepted[k] = v
		} else {
			illegal = append(illegal, k)
		}
	}
	if strict && len(illegal) > 0 {
		sort.Strings(illegal)
		return nil, fault.Forbidden{Keys: illegal, Reason: "answers outside writable scope"}
	}
	return accepted, nil
}

// CheckProviders verifies every requested provider key is within the write
// scope. An empty request is a no-op success regardless of scope.
func CheckProviders(scope *template.Scope, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	var illegal []string
	for _, k := range keys {
		if !scope.AllowsExternalData(k) {
			illegal = append(illegal, k)
		}
	}
	if len(illegal) > 0 {
		sort.Strings(illegal)
		return fault.Forbidden{Keys: illegal, Reason: "external data providers outside writable scope"}
	}
	return nil
}

// VisibleAnswers projects answers through a read scope. With a nil scope
// nothing is visible; with All the full map is returned unchanged.
func VisibleAnswers(scope *template.Scope, answers map[string]any) map[string]any {
	if scope == nil {
		return map[string]any{}
	}
	if scope.All {
		return answers
	}
	out := make(map[string]any, len(scope.Answers))
	for _, k := range scope.Answers {
		if v, ok := answers[k]; ok {
			out[k] = v
		}
	}
	return out
}

// VisibleExternalData projects provider results through a read scope.
func VisibleExternalData(scope *template.Scope, data map[string]domain.ExternalDataEntry) map[string]domain.ExternalDataEntry {
	if scope == nil {
		return map[string]domain.ExternalDataEntry{}
	}
	if scope.All {
		return data
	}
	out := make(map[string]domain.ExternalDataEntry, len(scope.ExternalData))
	for _, k := range scope.ExternalData {
		if v, ok := data[k]; ok {
			out[k] = v
		}
	}
	return out
}
