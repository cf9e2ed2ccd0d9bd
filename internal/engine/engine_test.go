package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"caseflow/internal/db"
	"caseflow/internal/domain"
	"caseflow/internal/engine"
	"caseflow/internal/fault"
	"caseflow/internal/migrate"
	"caseflow/internal/schema"
	"caseflow/internal/template"
	"caseflow/internal/templates"
)

type testEnv struct {
	Engine engine.Engine
	Clock  *time.Time
	Ctx    context.Context
}

func newTestEnv(t *testing.T, extra ...*template.Template) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	registry := templates.Builtin()
	for _, tpl := range extra {
		registry.MustRegister(tpl)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &now
	eng := engine.New(conn, registry)
	eng.Now = func() time.Time { return *clock }
	return testEnv{Engine: eng, Clock: clock, Ctx: context.Background()}
}

func (env testEnv) createCriminalRecord(t *testing.T, applicant string) domain.Application {
	t.Helper()
	app, err := env.Engine.CreateApplication(env.Ctx, engine.CreateOptions{
		TypeID:    "criminal-record",
		Applicant: applicant,
	})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	return app
}

func TestCreateApplicationRunsInitialProviders(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")
	if app.State != "draft" {
		t.Fatalf("state = %s, want draft", app.State)
	}
	if app.Version != 1 {
		t.Fatalf("version = %d, want 1", app.Version)
	}
	entry, ok := app.ExternalData["nationalRegistry"]
	if !ok {
		t.Fatalf("nationalRegistry not fetched on creation")
	}
	if entry.Status != domain.ExternalDataSuccess {
		t.Fatalf("nationalRegistry status = %s", entry.Status)
	}
	events, err := env.Engine.Repo.ListEvents(env.Ctx, app.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != "application.created" {
		t.Fatalf("events = %+v", events)
	}
}

func TestFireEventFullFlow(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")

	_, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID,
		ActorID:       "user-1",
		Answers:       map[string]any{"fullName": "Jon Jonsson", "email": "jon@example.is"},
		Strict:        true,
	})
	if err != nil {
		t.Fatalf("save answers: %v", err)
	}

	app, tr, err := env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{
		ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if tr.From != "draft" || tr.To != "payment" {
		t.Fatalf("transition = %+v", tr)
	}
	if len(tr.SideEffects) != 1 || tr.SideEffects[0] != "payment.charge" {
		t.Fatalf("side effects = %v", tr.SideEffects)
	}
	if app.State != "payment" || app.Version != 3 {
		t.Fatalf("app = %s v%d", app.State, app.Version)
	}
	// payment provider runs on entry and must succeed before SUBMIT.
	if app.ExternalData["paymentStatus"].Status != domain.ExternalDataSuccess {
		t.Fatalf("paymentStatus = %+v", app.ExternalData["paymentStatus"])
	}

	app, tr, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{
		ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if app.State != "completed" || tr.To != "completed" {
		t.Fatalf("app = %s", app.State)
	}

	// completed is terminal: any further event rejects as an invalid
	// transition no matter who fires it, never as a permission error.
	_, _, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{
		ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1",
	})
	var invalid fault.InvalidTransition
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid transition from terminal state, got %v", err)
	}
	if invalid.State != "completed" || invalid.Event != "SUBMIT" {
		t.Fatalf("invalid = %+v", invalid)
	}
}

func TestAbortReturnsToDraftKeepingAnswers(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")
	if _, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"fullName": "Jon Jonsson", "email": "jon@example.is"},
	}); err != nil {
		t.Fatal(err)
	}
	app, _, err := env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if app.Listed {
		t.Fatalf("payment state should not be listed")
	}
	if app.PruneAt == nil {
		t.Fatalf("payment state should set a prune deadline")
	}

	app, tr, err := env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "ABORT", ActorID: "user-1"})
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if tr.To != "draft" || app.State != "draft" {
		t.Fatalf("abort landed in %s", app.State)
	}
	if app.Answers["fullName"] != "Jon Jonsson" {
		t.Fatalf("answers lost on abort: %+v", app.Answers)
	}
	if !app.Listed || app.PruneAt != nil {
		t.Fatalf("draft lifecycle not restored: listed=%v pruneAt=%v", app.Listed, app.PruneAt)
	}
}

func TestStrangerHasNoStanding(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")

	_, _, err := env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "intruder"})
	var forbidden fault.Forbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("fire: expected forbidden, got %v", err)
	}
	_, err = env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{ApplicationID: app.ID, ActorID: "intruder", Answers: map[string]any{"email": "x@y.is"}})
	if !errors.As(err, &forbidden) {
		t.Fatalf("save: expected forbidden, got %v", err)
	}
	_, err = env.Engine.ViewApplication(env.Ctx, app.ID, "intruder")
	if !errors.As(err, &forbidden) {
		t.Fatalf("view: expected forbidden, got %v", err)
	}
}

func TestUndeclaredEventIsInvalidTransition(t *testing.T) {
	// A role may be allowed to fire an event that the transition table
	// does not declare; that is a transition error, not a permission one.
	tpl := &template.Template{
		Type:       "dangling-event",
		DataSchema: schema.Object(nil, nil),
		Initial:    "open",
		MapRole: func(actorID string, app domain.Application) (template.Role, bool) {
			return "applicant", actorID == app.Applicant
		},
		States: map[string]template.StateMeta{
			"open": {
				Lifecycle: template.ListedForever(),
				Roles: []template.RoleSpec{{
					ID:     "applicant",
					Write:  template.WriteAll(),
					Events: []template.Event{"SUBMIT", "PING"},
				}},
				Transitions: map[template.Event]string{"SUBMIT": "closed"},
			},
			"closed": {
				Lifecycle: template.ListedForever(),
				Roles:     []template.RoleSpec{{ID: "applicant", Read: template.WriteAll()}},
			},
		},
	}
	env := newTestEnv(t, tpl)
	app, err := env.Engine.CreateApplication(env.Ctx, engine.CreateOptions{TypeID: "dangling-event", Applicant: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "PING", ActorID: "user-1"})
	var invalid fault.InvalidTransition
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if invalid.State != "open" || invalid.Event != "PING" {
		t.Fatalf("invalid = %+v", invalid)
	}
	// Unchanged on rejection.
	got, err := env.Engine.Repo.GetApplication(env.Ctx, app.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != "open" || got.Version != app.Version {
		t.Fatalf("application mutated by rejected event: %s v%d", got.State, got.Version)
	}
}

func TestBlockingProviderGatesTransition(t *testing.T) {
	broken := template.Provider{
		Key:      "brokenLookup",
		Blocking: true,
		Fetch: func(ctx context.Context, app domain.Application) (any, error) {
			return nil, fmt.Errorf("upstream unavailable")
		},
	}
	tpl := &template.Template{
		Type:       "gated",
		DataSchema: schema.Object(nil, nil),
		Initial:    "draft",
		MapRole: func(actorID string, app domain.Application) (template.Role, bool) {
			return "applicant", actorID == app.Applicant
		},
		States: map[string]template.StateMeta{
			"draft": {
				Lifecycle: template.ListedForever(),
				Roles: []template.RoleSpec{{
					ID:        "applicant",
					Write:     template.WriteAll(),
					Providers: []template.Provider{broken},
					Events:    []template.Event{"SUBMIT"},
				}},
				Transitions:      map[template.Event]string{"SUBMIT": "done"},
				RequireProviders: map[template.Event][]string{"SUBMIT": {"brokenLookup"}},
			},
			"done": {
				Lifecycle: template.ListedForever(),
				Roles:     []template.RoleSpec{{ID: "applicant", Read: template.WriteAll()}},
			},
		},
	}
	env := newTestEnv(t, tpl)
	app, err := env.Engine.CreateApplication(env.Ctx, engine.CreateOptions{TypeID: "gated", Applicant: "user-1"})
	if err != nil {
		t.Fatalf("create must succeed even when a provider fails: %v", err)
	}
	entry := app.ExternalData["brokenLookup"]
	if entry.Status != domain.ExternalDataFailure || entry.Reason == "" {
		t.Fatalf("failure not recorded: %+v", entry)
	}
	_, _, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1"})
	var vf fault.ValidationFailed
	if !errors.As(err, &vf) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if len(vf.Fields) != 1 || vf.Fields[0].Key != "brokenLookup" {
		t.Fatalf("fields = %+v", vf.Fields)
	}
}

func TestFailedProviderDoesNotBlockEscapeTransition(t *testing.T) {
	// The gate is per transition: a failing charge blocks completion but
	// never the abort back to draft, so the application cannot get stuck.
	charge := template.Provider{
		Key:      "chargeStatus",
		Blocking: true,
		Fetch: func(ctx context.Context, app domain.Application) (any, error) {
			return nil, fmt.Errorf("card declined")
		},
	}
	tpl := &template.Template{
		Type:       "walled-payment",
		DataSchema: schema.Object(nil, nil),
		Initial:    "draft",
		MapRole: func(actorID string, app domain.Application) (template.Role, bool) {
			return "applicant", actorID == app.Applicant
		},
		States: map[string]template.StateMeta{
			"draft": {
				Lifecycle: template.ListedForever(),
				Roles: []template.RoleSpec{{
					ID:     "applicant",
					Write:  template.WriteAll(),
					Events: []template.Event{"SUBMIT"},
				}},
				Transitions: map[template.Event]string{"SUBMIT": "payment"},
			},
			"payment": {
				Lifecycle: template.ListedForever(),
				Roles: []template.RoleSpec{{
					ID:        "applicant",
					Write:     template.Keys(nil, []string{"chargeStatus"}),
					Providers: []template.Provider{charge},
					Events:    []template.Event{"SUBMIT", "ABORT"},
				}},
				Transitions: map[template.Event]string{
					"SUBMIT": "done",
					"ABORT":  "draft",
				},
				RequireProviders: map[template.Event][]string{"SUBMIT": {"chargeStatus"}},
			},
			"done": {
				Lifecycle: template.ListedForever(),
				Roles:     []template.RoleSpec{{ID: "applicant", Read: template.WriteAll()}},
			},
		},
	}
	env := newTestEnv(t, tpl)
	app, err := env.Engine.CreateApplication(env.Ctx, engine.CreateOptions{TypeID: "walled-payment", Applicant: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	app, _, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1"})
	if err != nil {
		t.Fatalf("enter payment: %v", err)
	}
	if app.ExternalData["chargeStatus"].Status != domain.ExternalDataFailure {
		t.Fatalf("chargeStatus = %+v", app.ExternalData["chargeStatus"])
	}

	// Completion stays gated on the failed charge.
	_, _, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1"})
	var vf fault.ValidationFailed
	if !errors.As(err, &vf) {
		t.Fatalf("expected validation failure on SUBMIT, got %v", err)
	}

	// Aborting is ungated and must succeed.
	app, tr, err := env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "ABORT", ActorID: "user-1"})
	if err != nil {
		t.Fatalf("abort with failed provider: %v", err)
	}
	if tr.To != "draft" || app.State != "draft" {
		t.Fatalf("abort landed in %s", app.State)
	}
}

func TestReviewerWriteScopes(t *testing.T) {
	env := newTestEnv(t)
	app, err := env.Engine.CreateApplication(env.Ctx, engine.CreateOptions{
		TypeID: "benefits-review", Applicant: "user-1", Assignees: []string{"reviewer-1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"fullName": "Jon Jonsson", "amount": 1000},
		Strict:  true,
	}); err != nil {
		t.Fatal(err)
	}
	app, _, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if app.State != "inReview" {
		t.Fatalf("state = %s", app.State)
	}

	// Strict write with an out-of-scope key rejects and names it.
	_, err = env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "reviewer-1",
		Answers: map[string]any{"reviewerNotes": "looks fine", "amount": 999999},
		Strict:  true, Partial: true,
	})
	var forbidden fault.Forbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(forbidden.Keys) != 1 || forbidden.Keys[0] != "amount" {
		t.Fatalf("forbidden keys = %v", forbidden.Keys)
	}

	// Non-strict write drops the key silently and keeps the rest.
	got, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "reviewer-1",
		Answers: map[string]any{"reviewerNotes": "looks fine", "amount": 999999},
		Partial: true,
	})
	if err != nil {
		t.Fatalf("non-strict save: %v", err)
	}
	if got.Answers["reviewerNotes"] != "looks fine" {
		t.Fatalf("notes not saved: %+v", got.Answers)
	}
	if got.Answers["amount"] != float64(1000) && got.Answers["amount"] != 1000 {
		t.Fatalf("amount overwritten out of scope: %v", got.Answers["amount"])
	}

	// The applicant has no write access at all in review.
	_, err = env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"amount": 2000},
		Partial: true,
	})
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden for applicant in review, got %v", err)
	}
}

func TestReadScopeFiltersAnswers(t *testing.T) {
	env := newTestEnv(t)
	app, err := env.Engine.CreateApplication(env.Ctx, engine.CreateOptions{
		TypeID: "benefits-review", Applicant: "user-1", Assignees: []string{"reviewer-1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"fullName": "Jon Jonsson", "amount": 1000},
	}); err != nil {
		t.Fatal(err)
	}
	app, _, err = env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "reviewer-1",
		Answers: map[string]any{"reviewerNotes": "internal assessment"},
		Partial: true,
	}); err != nil {
		t.Fatal(err)
	}

	seen, err := env.Engine.ViewApplication(env.Ctx, app.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, leaked := seen.Answers["reviewerNotes"]; leaked {
		t.Fatalf("applicant can read reviewer notes: %+v", seen.Answers)
	}
	if seen.Answers["fullName"] != "Jon Jonsson" {
		t.Fatalf("applicant lost own answers: %+v", seen.Answers)
	}

	seenByReviewer, err := env.Engine.ViewApplication(env.Ctx, app.ID, "reviewer-1")
	if err != nil {
		t.Fatal(err)
	}
	if seenByReviewer.Answers["reviewerNotes"] != "internal assessment" {
		t.Fatalf("reviewer cannot read own notes: %+v", seenByReviewer.Answers)
	}
}

func TestSchemaValidationModes(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")

	// Partial save of one key passes even though fullName is required.
	if _, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"email": "jon@example.is"},
		Partial: true,
	}); err != nil {
		t.Fatalf("partial save: %v", err)
	}

	// A full-validation save against the incomplete answer set fails.
	_, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"delivery": "digital"},
		Strict:  true,
	})
	var vf fault.ValidationFailed
	if !errors.As(err, &vf) {
		t.Fatalf("expected validation failure, got %v", err)
	}

	// Bad value for a present key fails even partially.
	_, err = env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"delivery": "carrier-pigeon"},
		Partial: true,
	})
	if !errors.As(err, &vf) {
		t.Fatalf("expected enum violation, got %v", err)
	}

	// Unknown keys are flagged because the schema forbids extras.
	_, err = env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"notInSchema": true},
		Partial: true,
	})
	if !errors.As(err, &vf) {
		t.Fatalf("expected unexpected-property failure, got %v", err)
	}
}

func TestConcurrentModification(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")
	if _, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"fullName": "Jon Jonsson", "email": "jon@example.is"},
	}); err != nil {
		t.Fatal(err)
	}
	// Fire against the version read before the save.
	_, _, err := env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{
		ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1",
		ExpectedVersion: app.Version,
	})
	var conflict fault.ConcurrentModification
	if !errors.As(err, &conflict) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
	if conflict.ExpectedVersion != app.Version {
		t.Fatalf("conflict = %+v", conflict)
	}
}

func TestLifecycleListingAndPruning(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")
	if _, err := env.Engine.SaveAnswers(env.Ctx, engine.SaveAnswersOptions{
		ApplicationID: app.ID, ActorID: "user-1",
		Answers: map[string]any{"fullName": "Jon Jonsson", "email": "jon@example.is"},
	}); err != nil {
		t.Fatal(err)
	}

	listed, err := env.Engine.ListApplications(env.Ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed = %d", len(listed))
	}

	if _, _, err := env.Engine.FireEvent(env.Ctx, engine.FireEventOptions{ApplicationID: app.ID, Event: "SUBMIT", ActorID: "user-1"}); err != nil {
		t.Fatal(err)
	}
	listed, err = env.Engine.ListApplications(env.Ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 0 {
		t.Fatalf("payment state should hide the application, got %d", len(listed))
	}

	prunable, err := env.Engine.ListPrunable(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(prunable) != 0 {
		t.Fatalf("nothing should be prunable yet, got %d", len(prunable))
	}

	*env.Clock = env.Clock.Add(25 * time.Hour)
	prunable, err = env.Engine.ListPrunable(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(prunable) != 1 || prunable[0].ID != app.ID {
		t.Fatalf("prunable = %+v", prunable)
	}
	if err := env.Engine.Repo.DeleteApplication(env.Ctx, app.ID); err != nil {
		t.Fatal(err)
	}
}

func TestRunProvidersExplicitRefresh(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")

	// Empty key list is a no-op success.
	got, err := env.Engine.RunProviders(env.Ctx, engine.RunProvidersOptions{ApplicationID: app.ID, ActorID: "user-1"})
	if err != nil {
		t.Fatalf("empty refresh: %v", err)
	}
	if got.Version != app.Version {
		t.Fatalf("no-op refresh bumped version to %d", got.Version)
	}

	// Draft scope is write-all, so the applicant may refresh the registry.
	got, err = env.Engine.RunProviders(env.Ctx, engine.RunProvidersOptions{
		ApplicationID: app.ID, ActorID: "user-1", Keys: []string{"nationalRegistry"},
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got.ExternalData["nationalRegistry"].Status != domain.ExternalDataSuccess {
		t.Fatalf("refresh result = %+v", got.ExternalData["nationalRegistry"])
	}
	if got.Version != app.Version+1 {
		t.Fatalf("version = %d", got.Version)
	}
}

func TestPermittedEvents(t *testing.T) {
	env := newTestEnv(t)
	app := env.createCriminalRecord(t, "user-1")
	events, err := env.Engine.PermittedEvents(env.Ctx, app.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0] != "SUBMIT" {
		t.Fatalf("events = %v", events)
	}
}
