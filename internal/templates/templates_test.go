package templates_test

import (
	"testing"

	"caseflow/internal/domain"
	"caseflow/internal/templates"
)

func TestBuiltinRegistersCleanly(t *testing.T) {
	// Builtin panics if any template fails validation.
	r := templates.Builtin()
	list := r.List()
	if len(list) != 2 {
		t.Fatalf("templates = %d", len(list))
	}
	for _, typeID := range []string{"criminal-record", "benefits-review"} {
		if _, err := r.Get(typeID); err != nil {
			t.Fatalf("%s: %v", typeID, err)
		}
	}
}

func TestCriminalRecordRoleMapping(t *testing.T) {
	tpl := templates.CriminalRecord()
	app := domain.Application{Applicant: "user-1", Assignees: []string{"reviewer-1"}}
	role, ok := tpl.MapRole("user-1", app)
	if !ok || role != templates.RoleApplicant {
		t.Fatalf("applicant mapping = %s, %v", role, ok)
	}
	// Assignees have no standing on a single-party template.
	if _, ok := tpl.MapRole("reviewer-1", app); ok {
		t.Fatalf("assignee should have no role")
	}
}

func TestBenefitsReviewRoleMapping(t *testing.T) {
	tpl := templates.BenefitsReview()
	app := domain.Application{Applicant: "user-1", Assignees: []string{"reviewer-1"}}
	if role, ok := tpl.MapRole("user-1", app); !ok || role != templates.RoleApplicant {
		t.Fatalf("applicant mapping = %s, %v", role, ok)
	}
	if role, ok := tpl.MapRole("reviewer-1", app); !ok || role != templates.RoleReviewer {
		t.Fatalf("reviewer mapping = %s, %v", role, ok)
	}
	if _, ok := tpl.MapRole("stranger", app); ok {
		t.Fatalf("stranger should have no role")
	}
}
