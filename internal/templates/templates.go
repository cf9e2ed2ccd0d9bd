// Package templates holds the built-in application templates. Each template
// is plain Go configuration; adding a new application type means adding a
// file here and registering it in Builtin.
package templates

import (
	"caseflow/internal/template"
)

// Builtin returns a registry with every built-in template registered.
// Registration validates each template, so a malformed definition fails at
// process start rather than on first use.
func Builtin() *template.Registry {
	r := template.NewRegistry()
	r.MustRegister(CriminalRecord())
	r.MustRegister(BenefitsReview())
	return r
}
