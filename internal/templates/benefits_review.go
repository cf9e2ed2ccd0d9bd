package templates

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"caseflow/internal/domain"
	"caseflow/internal/schema"
	"caseflow/internal/template"
)

// BenefitsReview is a two-party flow: the applicant drafts and submits, an
// assigned reviewer approves or sends the application back. It exercises
// assignee-based roles and per-key write scopes.
func BenefitsReview() *template.Template {
	minAmount := float64(1)
	dataSchema := schema.Object(
		[]string{"fullName", "amount"},
		map[string]*huma.Schema{
			"fullName":       schema.String(1, 256),
			"amount":         schema.Int(&minAmount),
			"reason":         schema.String(0, 2000),
			"reviewerNotes":  schema.Describe(schema.String(0, 2000), "Visible to the reviewer only"),
			"termsAccepted":  schema.Bool(),
			"paymentAccount": schema.String(0, 64),
		},
	)
	employment := template.Provider{
		Key:       "currentEmployment",
		Blocking:  true,
		Cacheable: true,
		Fetch:     fetchCurrentEmployment,
	}
	return &template.Template{
		Type:       "benefits-review",
		Name:       "Benefits application",
		DataSchema: dataSchema,
		Initial:    "draft",
		MapRole:    applicantOrAssignee,
		States: map[string]template.StateMeta{
			"draft": {
				Lifecycle: template.ListedForever(),
				Roles: []template.RoleSpec{{
					ID:        RoleApplicant,
					Write:     template.Keys([]string{"fullName", "amount", "reason", "termsAccepted", "paymentAccount"}, []string{"currentEmployment"}),
					Read:      template.WriteAll(),
					Providers: []template.Provider{employment},
					Events:    []template.Event{EventSubmit},
				}},
				Transitions: map[template.Event]string{
					EventSubmit: "inReview",
				},
				RequireProviders: map[template.Event][]string{
					EventSubmit: {"currentEmployment"},
				},
			},
			"inReview": {
				Lifecycle: template.ListedForever(),
				OnEntry:   []template.Hook{"notify.reviewer"},
				OnExit:    []template.Hook{"notify.applicant"},
				Roles: []template.RoleSpec{
					{
						ID:   RoleApplicant,
						Read: template.Keys([]string{"fullName", "amount", "reason", "termsAccepted", "paymentAccount"}, []string{"currentEmployment"}),
						// The applicant can withdraw but no longer edit.
						Events: []template.Event{EventAbort},
					},
					{
						ID:    RoleReviewer,
						Write: template.Keys([]string{"reviewerNotes"}, nil),
						Read:  template.WriteAll(),
						Events: []template.Event{
							EventApprove, EventReject,
						},
					},
				},
				Transitions: map[template.Event]string{
					EventApprove: "approved",
					EventReject:  "draft",
					EventAbort:   "aborted",
				},
			},
			"approved": {
				Lifecycle: template.ListedForever(),
				OnEntry:   []template.Hook{"payment.disburse"},
				Roles: []template.RoleSpec{
					{ID: RoleApplicant, Read: template.WriteAll()},
					{ID: RoleReviewer, Read: template.WriteAll()},
				},
			},
			"aborted": {
				Lifecycle: template.Ephemeral(30 * 24 * time.Hour),
				Roles: []template.RoleSpec{
					{ID: RoleApplicant, Read: template.WriteAll()},
				},
			},
		},
	}
}

func applicantOrAssignee(actorID string, app domain.Application) (template.Role, bool) {
	if actorID == app.Applicant {
		return RoleApplicant, true
	}
	if app.HasAssignee(actorID) {
		return RoleReviewer, true
	}
	return "", false
}

func fetchCurrentEmployment(ctx context.Context, app domain.Application) (any, error) {
	return map[string]any{
		"employed": true,
		"since":    "2020-01-01",
	}, nil
}
