// Package schema validates application answers against a template's
// declarative JSON schema. It is a pure function layer: no I/O, and the
// answers value is never mutated.
package schema

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"caseflow/internal/fault"
)

// registry resolves schema refs; templates use inline schemas so this
// stays empty, but huma's validator requires one.
var registry = huma.NewMapRegistry("#/components/schemas/", huma.DefaultSchemaNamer)

// Validate checks answers against s. With partial set, only the keys
// present are checked against their individual property schemas and
// absent required keys are not flagged (auto-save / draft persistence).
// A nil return means the answers are valid.
func Validate(s *huma.Schema, answers map[string]any, partial bool) *fault.ValidationFailed {
	if s == nil {
		return nil
	}
	if partial {
		return validatePartial(s, answers)
	}
	pb := huma.NewPathBuffer([]byte(""), 0)
	res := &huma.ValidateResult{}
	huma.Validate(registry, s, pb, huma.ModeWriteToServer, answers, res)
	return toFailure(res)
}

func validatePartial(s *huma.Schema, answers map[string]any) *fault.ValidationFailed {
	var fields []fault.FieldError
	for key, value := range answers {
		prop, ok := s.Properties[key]
		if !ok {
			if additionalAllowed(s) {
				continue
			}
			fields = append(fields, fault.FieldError{Key: key, Message: "unexpected property"})
			continue
		}
		pb := huma.NewPathBuffer([]byte(key), len(key))
		res := &huma.ValidateResult{}
		huma.Validate(registry, prop, pb, huma.ModeWriteToServer, value, res)
		for _, err := range res.Errors {
			fields = append(fields, fieldError(key, err))
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &fault.ValidationFailed{Fields: fields}
}

func additionalAllowed(s *huma.Schema) bool {
	if s.AdditionalProperties == nil {
		return true
	}
	if allowed, ok := s.AdditionalProperties.(bool); ok {
		return allowed
	}
	return true
}

func toFailure(res *huma.ValidateResult) *fault.ValidationFailed {
	if len(res.Errors) == 0 {
		return nil
	}
	fields := make([]fault.FieldError, 0, len(res.Errors))
	for _, err := range res.Errors {
		fields = append(fields, fieldError("", err))
	}
	return &fault.ValidationFailed{Fields: fields}
}

func fieldError(key string, err error) fault.FieldError {
	if detail, ok := err.(*huma.ErrorDetail); ok {
		loc := detail.Location
		if loc == "" {
			loc = key
		}
		return fault.FieldError{Key: loc, Message: detail.Message}
	}
	return fault.FieldError{Key: key, Message: err.Error()}
}

// Object is a shorthand for building template data schemas.
func Object(required []string, props map[string]*huma.Schema) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
}

// String builds a string property schema with optional bounds.
func String(minLen, maxLen int) *huma.Schema {
	s := &huma.Schema{Type: huma.TypeString}
	if minLen > 0 {
		s.MinLength = &minLen
	}
	if maxLen > 0 {
		s.MaxLength = &maxLen
	}
	return s
}

// Enum builds a string property constrained to the given values.
func Enum(values ...string) *huma.Schema {
	vals := make([]any, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
	}
	return &huma.Schema{Type: huma.TypeString, Enum: vals}
}

// Bool builds a boolean property schema.
func Bool() *huma.Schema {
	return &huma.Schema{Type: huma.TypeBoolean}
}

// Int builds an integer property schema with an optional minimum.
func Int(min *float64) *huma.Schema {
	return &huma.Schema{Type: huma.TypeInteger, Minimum: min}
}

// Describe attaches a human description to a property schema.
func Describe(s *huma.Schema, desc string) *huma.Schema {
	s.Description = desc
	return s
}

// MustPrecompute prepares a hand-built schema for validation. Registration
// normally does this; tests building ad-hoc schemas call it directly.
func MustPrecompute(s *huma.Schema) *huma.Schema {
	if s == nil {
		panic(fmt.Errorf("nil schema"))
	}
	s.PrecomputeMessages()
	return s
}
