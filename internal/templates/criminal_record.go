package templates

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"caseflow/internal/domain"
	"caseflow/internal/schema"
	"caseflow/internal/template"
)

const (
	RoleApplicant template.Role = "applicant"
	RoleReviewer  template.Role = "reviewer"

	EventSubmit  template.Event = "SUBMIT"
	EventAbort   template.Event = "ABORT"
	EventApprove template.Event = "APPROVE"
	EventReject  template.Event = "REJECT"
)

// CriminalRecord is a single-applicant pay-and-fetch flow: fill in a draft,
// pay, receive the certificate. Aborting payment returns to draft with the
// answers intact.
func CriminalRecord() *template.Template {
	dataSchema := schema.Object(
		[]string{"fullName", "email"},
		map[string]*huma.Schema{
			"fullName": schema.String(1, 256),
			"email":    schema.Describe(schema.String(3, 256), "Address the certificate is sent to"),
			"delivery": schema.Enum("digital", "mail"),
		},
	)
	registry := template.Provider{
		Key:       "nationalRegistry",
		Cacheable: true,
		Fetch:     fetchNationalRegistry,
	}
	payment := template.Provider{
		Key:      "paymentStatus",
		Blocking: true,
		Fetch:    fetchPaymentStatus,
	}
	return &template.Template{
		Type:       "criminal-record",
		Name:       "Criminal record certificate",
		DataSchema: dataSchema,
		Initial:    "draft",
		MapRole:    applicantOnly,
		States: map[string]template.StateMeta{
			"draft": {
				Lifecycle: template.ListedForever(),
				Roles: []template.RoleSpec{{
					ID:        RoleApplicant,
					Write:     template.WriteAll(),
					Read:      template.WriteAll(),
					Providers: []template.Provider{registry},
					Events:    []template.Event{EventSubmit},
				}},
				Transitions: map[template.Event]string{
					EventSubmit: "payment",
				},
			},
			"payment": {
				// Unpaid payment sessions disappear after a day.
				Lifecycle: template.Ephemeral(24 * time.Hour),
				OnEntry:   []template.Hook{"payment.charge"},
				Roles: []template.RoleSpec{{
					ID:        RoleApplicant,
					Write:     template.Keys(nil, []string{"paymentStatus"}),
					Read:      template.WriteAll(),
					Providers: []template.Provider{payment},
					Events:    []template.Event{EventSubmit, EventAbort},
				}},
				Transitions: map[template.Event]string{
					EventSubmit: "completed",
					EventAbort:  "draft",
				},
				// Only completion waits on payment; aborting back to
				// draft must work while the charge is failing.
				RequireProviders: map[template.Event][]string{
					EventSubmit: {"paymentStatus"},
				},
			},
			"completed": {
				Lifecycle: template.Lifecycle{
					ShouldBeListed: true,
					ShouldBePruned: true,
					WhenToPrune:    90 * 24 * time.Hour,
				},
				OnEntry: []template.Hook{"certificate.issue"},
				Roles: []template.RoleSpec{{
					ID:   RoleApplicant,
					Read: template.WriteAll(),
				}},
			},
		},
	}
}

func applicantOnly(actorID string, app domain.Application) (template.Role, bool) {
	if actorID == app.Applicant {
		return RoleApplicant, true
	}
	return "", false
}

// fetchNationalRegistry resolves the applicant's registry entry. The stub
// derives it locally; a deployment swaps in a client for the registry API.
func fetchNationalRegistry(ctx context.Context, app domain.Application) (any, error) {
	return map[string]any{
		"nationalId": app.Applicant,
		"fetchedFor": app.ID,
	}, nil
}

func fetchPaymentStatus(ctx context.Context, app domain.Application) (any, error) {
	return map[string]any{"fulfilled": true}, nil
}
