package template_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"caseflow/internal/domain"
	"caseflow/internal/schema"
	"caseflow/internal/template"
)

func validTemplate() *template.Template {
	return &template.Template{
		Type:       "demo",
		DataSchema: schema.Object(nil, nil),
		Initial:    "draft",
		MapRole: func(actorID string, app domain.Application) (template.Role, bool) {
			return "applicant", true
		},
		States: map[string]template.StateMeta{
			"draft": {
				Lifecycle: template.ListedForever(),
				Roles: []template.RoleSpec{{
					ID:     "applicant",
					Write:  template.WriteAll(),
					Events: []template.Event{"SUBMIT"},
				}},
				Transitions: map[template.Event]string{"SUBMIT": "done"},
			},
			"done": {
				Lifecycle: template.ListedForever(),
				Roles:     []template.RoleSpec{{ID: "applicant", Read: template.WriteAll()}},
			},
		},
	}
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	if err := validTemplate().Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*template.Template)
		want   string
	}{
		{"missing initial", func(tpl *template.Template) { tpl.Initial = "ghost" }, "initial state"},
		{"missing role mapper", func(tpl *template.Template) { tpl.MapRole = nil }, "role mapper"},
		{"missing schema", func(tpl *template.Template) { tpl.DataSchema = nil }, "data schema"},
		{"dangling transition", func(tpl *template.Template) {
			meta := tpl.States["draft"]
			meta.Transitions = map[template.Event]string{"SUBMIT": "nowhere"}
			tpl.States["draft"] = meta
		}, "undeclared state"},
		{"duplicate role", func(tpl *template.Template) {
			meta := tpl.States["draft"]
			meta.Roles = append(meta.Roles, template.RoleSpec{ID: "applicant"})
			tpl.States["draft"] = meta
		}, "twice"},
		{"provider without fetch", func(tpl *template.Template) {
			meta := tpl.States["draft"]
			meta.Roles[0].Providers = []template.Provider{{Key: "x"}}
			tpl.States["draft"] = meta
		}, "fetch"},
		{"prunable without delay", func(tpl *template.Template) {
			meta := tpl.States["done"]
			meta.Lifecycle = template.Lifecycle{ShouldBePruned: true}
			tpl.States["done"] = meta
		}, "prune delay"},
		{"undeclared required provider", func(tpl *template.Template) {
			meta := tpl.States["draft"]
			meta.RequireProviders = map[template.Event][]string{"SUBMIT": {"ghostProvider"}}
			tpl.States["draft"] = meta
		}, "undeclared provider"},
		{"required provider on undeclared transition", func(tpl *template.Template) {
			meta := tpl.States["draft"]
			meta.Roles[0].Providers = []template.Provider{{Key: "x", Fetch: func(ctx context.Context, app domain.Application) (any, error) { return nil, nil }}}
			meta.RequireProviders = map[template.Event][]string{"GHOST": {"x"}}
			tpl.States["draft"] = meta
		}, "undeclared transition"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := validTemplate()
			tc.mutate(tpl)
			err := tpl.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := template.NewRegistry()
	if err := r.Register(validTemplate()); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(validTemplate()); err == nil {
		t.Fatalf("duplicate type accepted")
	}
	if _, err := r.Get("demo"); err != nil {
		t.Fatal(err)
	}
	_, err := r.Get("ghost")
	if !errors.Is(err, template.ErrUnknownType) {
		t.Fatalf("err = %v", err)
	}
	if got := r.List(); len(got) != 1 || got[0].Type != "demo" {
		t.Fatalf("list = %v", got)
	}
}

func TestLifecyclePruneAt(t *testing.T) {
	entered := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if at := template.ListedForever().PruneAt(entered); at != nil {
		t.Fatalf("non-prunable lifecycle returned deadline %v", at)
	}
	at := template.Ephemeral(24 * time.Hour).PruneAt(entered)
	if at == nil || !at.Equal(entered.Add(24*time.Hour)) {
		t.Fatalf("prune at = %v", at)
	}
}

func TestScopeNilSafety(t *testing.T) {
	var s *template.Scope
	if s.AllowsAnswer("x") || s.AllowsExternalData("x") {
		t.Fatalf("nil scope allowed access")
	}
}

func TestStateMetaHelpers(t *testing.T) {
	tpl := validTemplate()
	meta, _ := tpl.State("done")
	if !meta.Terminal() {
		t.Fatalf("done should be terminal")
	}
	meta, _ = tpl.State("draft")
	if meta.Terminal() {
		t.Fatalf("draft is not terminal")
	}
	if _, ok := meta.Role("applicant"); !ok {
		t.Fatalf("applicant role missing")
	}
	if _, ok := meta.Role("ghost"); ok {
		t.Fatalf("ghost role found")
	}
	if !meta.Roles[0].Allows("SUBMIT") || meta.Roles[0].Allows("ABORT") {
		t.Fatalf("event allowance wrong")
	}
}
