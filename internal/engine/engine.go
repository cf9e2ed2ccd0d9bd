package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/domain"
	"caseflow/internal/engine/permit"
	"caseflow/internal/events"
	"caseflow/internal/fault"
	"caseflow/internal/providers"
	"caseflow/internal/repo"
	"caseflow/internal/schema"
	"caseflow/internal/template"
)

type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Events   events.Writer
	Registry *template.Registry
	Gate     *providers.Gate
	Now      func() time.Time
}

func New(db *sql.DB, registry *template.Registry) Engine {
	return Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Events:   events.Writer{DB: db},
		Registry: registry,
		Gate:     providers.NewGate(),
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Transition describes a committed state change and the side-effect hooks
// the caller's I/O layer should run, exit hooks of the old state first.
type Transition struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	SideEffects []template.Hook `json:"side_effects,omitempty"`
}

// CreateOptions are parameters for starting a new application.
type CreateOptions struct {
	ID        string
	TypeID    string
	Applicant string
	Assignees []string
}

// CreateApplication starts an application in its template's initial state,
// running any entry providers bound to the applicant's role there.
func (e Engine) CreateApplication(ctx context.Context, opts CreateOptions) (domain.Application, error) {
	if opts.Applicant == "" {
		return domain.Application{}, errors.New("applicant is required")
	}
	t, err := e.Registry.Get(opts.TypeID)
	if err != nil {
		return domain.Application{}, err
	}
	meta, _ := t.State(t.Initial)
	now := e.now().UTC()
	nowStr := now.Format(time.RFC3339)
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	app := domain.Application{
		ID:             id,
		TypeID:         t.Type,
		State:          t.Initial,
		Applicant:      opts.Applicant,
		Assignees:      opts.Assignees,
		Answers:        map[string]any{},
		ExternalData:   map[string]domain.ExternalDataEntry{},
		Version:        1,
		Listed:         meta.Lifecycle.ShouldBeListed,
		Created:        nowStr,
		Modified:       nowStr,
		StateEnteredAt: nowStr,
	}
	if at := meta.Lifecycle.PruneAt(now); at != nil {
		s := at.Format(time.RFC3339)
		app.PruneAt = &s
	}
	e.runEntryProviders(ctx, t, &app)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertApplication(ctx, tx, app); err != nil {
		return domain.Application{}, err
	}
	if err := e.Events.Append(ctx, tx, "application.created", app.ID, opts.Applicant, events.EventPayload{
		"type_id": app.TypeID,
		"state":   app.State,
	}); err != nil {
		return domain.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

// FireEventOptions are parameters for a state transition attempt.
type FireEventOptions struct {
	ApplicationID string
	Event         template.Event
	ActorID       string
	// ExpectedVersion enables optimistic concurrency across a
	// read-modify-write round trip; zero means "whatever is current".
	ExpectedVersion int64
}

// FireEvent attempts a transition. The role is resolved from the actor,
// checked against the current state's role table, and the event against the
// transition table. On success the new state commits with recomputed
// lifecycle metadata and the entering state's providers already run.
func (e Engine) FireEvent(ctx context.Context, opts FireEventOptions) (domain.Application, Transition, error) {
	app, err := e.Repo.GetApplication(ctx, opts.ApplicationID)
	if err != nil {
		return domain.Application{}, Transition{}, err
	}
	t, err := e.Registry.Get(app.TypeID)
	if err != nil {
		return domain.Application{}, Transition{}, err
	}
	role, ok := t.MapRole(opts.ActorID, app)
	if !ok {
		return domain.Application{}, Transition{}, fault.Forbidden{Reason: "actor has no role on this application"}
	}
	meta, ok := t.State(app.State)
	if !ok {
		return domain.Application{}, Transition{}, fmt.Errorf("state %s not declared by template %s", app.State, t.Type)
	}
	// Terminal states reject every event regardless of role; the rejection
	// must read as a transition error, not a permission one.
	if meta.Terminal() {
		return domain.Application{}, Transition{}, fault.InvalidTransition{State: app.State, Event: string(opts.Event)}
	}
	spec, ok := meta.Role(role)
	if !ok {
		return domain.Application{}, Transition{}, fault.Forbidden{Role: string(role), Reason: "role does not participate in state " + app.State}
	}
	if !spec.Allows(opts.Event) {
		return domain.Application{}, Transition{}, fault.Forbidden{Role: string(role), Reason: fmt.Sprintf("role may not fire %s in state %s", opts.Event, app.State)}
	}
	target, ok := meta.Transitions[opts.Event]
	if !ok {
		return domain.Application{}, Transition{}, fault.InvalidTransition{State: app.State, Event: string(opts.Event)}
	}
	if missing := providers.Satisfied(app, meta.RequireProviders[opts.Event]); len(missing) > 0 {
		fields := make([]fault.FieldError, 0, len(missing))
		for _, key := range missing {
			fields = append(fields, fault.FieldError{Key: key, Message: "required external data provider has not succeeded"})
		}
		return domain.Application{}, Transition{}, fault.ValidationFailed{Fields: fields}
	}

	expected := app.Version
	if opts.ExpectedVersion > 0 {
		expected = opts.ExpectedVersion
	}
	newMeta, _ := t.State(target)
	now := e.now().UTC()
	nowStr := now.Format(time.RFC3339)
	previous := app.State
	app.State = target
	app.Modified = nowStr
	app.StateEnteredAt = nowStr
	app.Listed = newMeta.Lifecycle.ShouldBeListed
	app.PruneAt = nil
	if at := newMeta.Lifecycle.PruneAt(now); at != nil {
		s := at.Format(time.RFC3339)
		app.PruneAt = &s
	}
	e.runEntryProviders(ctx, t, &app)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, Transition{}, err
	}
	defer tx.Rollback()
	app, err = e.Repo.UpdateApplicationCAS(ctx, tx, app, expected)
	if err != nil {
		return domain.Application{}, Transition{}, err
	}
	if err := e.Events.Append(ctx, tx, "application.transition", app.ID, opts.ActorID, events.EventPayload{
		"event": string(opts.Event),
		"from":  previous,
		"to":    target,
		"role":  string(role),
	}); err != nil {
		return domain.Application{}, Transition{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Application{}, Transition{}, err
	}
	tr := Transition{
		From:        previous,
		To:          target,
		SideEffects: append(append([]template.Hook{}, meta.OnExit...), newMeta.OnEntry...),
	}
	return app, tr, nil
}

// runEntryProviders runs the providers bound to the applicant's role in the
// application's (new) current state and merges the results. Failures are
// recorded on the entries, never raised; the last-completed result for a
// provider key wins.
func (e Engine) runEntryProviders(ctx context.Context, t *template.Template, app *domain.Application) {
	meta, ok := t.State(app.State)
	if !ok {
		return
	}
	role, ok := t.MapRole(app.Applicant, *app)
	if !ok {
		return
	}
	spec, ok := meta.Role(role)
	if !ok || len(spec.Providers) == 0 {
		return
	}
	results := e.Gate.Run(ctx, *app, spec.Providers, app.StateEnteredAt)
	if app.ExternalData == nil {
		app.ExternalData = map[string]domain.ExternalDataEntry{}
	}
	for key, entry := range results {
		app.ExternalData[key] = entry
	}
}

// SaveAnswersOptions are parameters for an answer mutation. Strict controls
// write-permission enforcement (reject vs drop out-of-scope keys); Partial
// controls schema validation depth (present keys only vs full answer set).
// Both are explicit per call site, never inferred.
type SaveAnswersOptions struct {
	ApplicationID string
	ActorID       string
	Answers       map[string]any
	Strict        bool
	Partial       bool
}

// SaveAnswers runs the permission-resolver + validator pipeline and commits
// the surviving keys into the application's answers.
func (e Engine) SaveAnswers(ctx context.Context, opts SaveAnswersOptions) (domain.Application, error) {
	app, err := e.Repo.GetApplication(ctx, opts.ApplicationID)
	if err != nil {
		return domain.Application{}, err
	}
	t, err := e.Registry.Get(app.TypeID)
	if err != nil {
		return domain.Application{}, err
	}
	role, ok := t.MapRole(opts.ActorID, app)
	if !ok {
		return domain.Application{}, fault.Forbidden{Reason: "actor has no role on this application"}
	}
	scope := permit.WritableScope(t, app, role)
	if scope == nil {
		return domain.Application{}, fault.Forbidden{Role: string(role), Reason: "role has no write access in state " + app.State}
	}
	accepted, err := permit.FilterAnswers(scope, opts.Answers, opts.Strict)
	if err != nil {
		return domain.Application{}, err
	}
	merged := make(map[string]any, len(app.Answers)+len(accepted))
	for k, v := range app.Answers {
		merged[k] = v
	}
	for k, v := range accepted {
		merged[k] = v
	}
	if opts.Partial {
		if verr := schema.Validate(t.DataSchema, accepted, true); verr != nil {
			return domain.Application{}, *verr
		}
	} else {
		if verr := schema.Validate(t.DataSchema, merged, false); verr != nil {
			return domain.Application{}, *verr
		}
	}
	app.Answers = merged
	app.Modified = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, err
	}
	defer tx.Rollback()
	app, err = e.Repo.UpdateApplicationCAS(ctx, tx, app, app.Version)
	if err != nil {
		return domain.Application{}, err
	}
	if err := e.Events.Append(ctx, tx, "application.answers.saved", app.ID, opts.ActorID, events.EventPayload{
		"keys":   sortedKeys(accepted),
		"strict": opts.Strict,
	}); err != nil {
		return domain.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

// RunProvidersOptions are parameters for an explicit provider refresh.
type RunProvidersOptions struct {
	ApplicationID string
	ActorID       string
	Keys          []string
}

// RunProviders re-runs the named providers for the actor's role in the
// current state. An empty key list is a no-op success. Failures are
// recorded on the application, not raised.
func (e Engine) RunProviders(ctx context.Context, opts RunProvidersOptions) (domain.Application, error) {
	app, err := e.Repo.GetApplication(ctx, opts.ApplicationID)
	if err != nil {
		return domain.Application{}, err
	}
	if len(opts.Keys) == 0 {
		return app, nil
	}
	t, err := e.Registry.Get(app.TypeID)
	if err != nil {
		return domain.Application{}, err
	}
	role, ok := t.MapRole(opts.ActorID, app)
	if !ok {
		return domain.Application{}, fault.Forbidden{Reason: "actor has no role on this application"}
	}
	scope := permit.WritableScope(t, app, role)
	if err := permit.CheckProviders(scope, opts.Keys); err != nil {
		return domain.Application{}, err
	}
	meta, _ := t.State(app.State)
	spec, ok := meta.Role(role)
	if !ok {
		return domain.Application{}, fault.Forbidden{Role: string(role), Reason: "role does not participate in state " + app.State}
	}
	requested := map[string]bool{}
	for _, k := range opts.Keys {
		requested[k] = true
	}
	var specs []template.Provider
	for _, p := range spec.Providers {
		if requested[p.Key] {
			specs = append(specs, p)
		}
	}
	results := e.Gate.Run(ctx, app, specs, app.StateEnteredAt)
	if len(results) == 0 {
		return app, nil
	}
	for key, entry := range results {
		app.ExternalData[key] = entry
	}
	app.Modified = e.now().UTC().Format(time.RFC3339)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Application{}, err
	}
	defer tx.Rollback()
	app, err = e.Repo.UpdateApplicationCAS(ctx, tx, app, app.Version)
	if err != nil {
		return domain.Application{}, err
	}
	if err := e.Events.Append(ctx, tx, "application.providers.run", app.ID, opts.ActorID, events.EventPayload{
		"keys": opts.Keys,
	}); err != nil {
		return domain.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

// ViewApplication returns the application projected through the actor's
// read scope for the current state. Actors without a role see nothing.
func (e Engine) ViewApplication(ctx context.Context, id, actorID string) (domain.Application, error) {
	app, err := e.Repo.GetApplication(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	t, err := e.Registry.Get(app.TypeID)
	if err != nil {
		return domain.Application{}, err
	}
	role, ok := t.MapRole(actorID, app)
	if !ok {
		return domain.Application{}, fault.Forbidden{Reason: "actor has no role on this application"}
	}
	scope := permit.ReadableScope(t, app, role)
	app.Answers = permit.VisibleAnswers(scope, app.Answers)
	app.ExternalData = permit.VisibleExternalData(scope, app.ExternalData)
	return app, nil
}

// ListApplications returns the applicant's applications whose current
// state is listable.
func (e Engine) ListApplications(ctx context.Context, applicant string) ([]domain.Application, error) {
	return e.Repo.ListByApplicant(ctx, applicant)
}

// ListPrunable returns applications past their prune deadline. Deletion is
// the caller's responsibility; the engine only computes eligibility.
func (e Engine) ListPrunable(ctx context.Context) ([]domain.Application, error) {
	now := e.now().UTC().Format(time.RFC3339)
	return e.Repo.ListPrunable(ctx, now)
}

// PermittedEvents returns the events the actor may fire from the current
// state, for UI affordances. Terminal states yield an empty list.
func (e Engine) PermittedEvents(ctx context.Context, id, actorID string) ([]template.Event, error) {
	app, err := e.Repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := e.Registry.Get(app.TypeID)
	if err != nil {
		return nil, err
	}
	role, ok := t.MapRole(actorID, app)
	if !ok {
		return nil, fault.Forbidden{Reason: "actor has no role on this application"}
	}
	meta, ok := t.State(app.State)
	if !ok {
		return nil, fmt.Errorf("state %s not declared by template %s", app.State, t.Type)
	}
	spec, ok := meta.Role(role)
	if !ok {
		return nil, nil
	}
	var out []template.Event
	for _, evt := range spec.Events {
		if _, hasTransition := meta.Transitions[evt]; hasTransition {
			out = append(out, evt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
