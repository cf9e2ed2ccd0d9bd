package server

import (
	"sort"

	"caseflow/internal/domain"
	"caseflow/internal/engine"
	"caseflow/internal/template"
)

// Request payloads

type CreateApplicationRequest struct {
	ID        *string  `json:"id,omitempty"`
	TypeID    string   `json:"type_id"`
	Assignees []string `json:"assignees,omitempty"`
}

type FireEventRequest struct {
	Event           string `json:"event"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type SaveAnswersRequest struct {
	Answers map[string]any `json:"answers"`
}

type RefreshProvidersRequest struct {
	Keys []string `json:"keys,omitempty"`
}

type CreateAPIKeyRequest struct {
	ActorID string  `json:"actor_id"`
	Name    *string `json:"name,omitempty"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
}

// Response payloads

type ApplicationResponse struct {
	ID             string                              `json:"id"`
	TypeID         string                              `json:"type_id"`
	State          string                              `json:"state"`
	Applicant      string                              `json:"applicant"`
	Assignees      []string                            `json:"assignees,omitempty"`
	Answers        map[string]any                      `json:"answers"`
	ExternalData   map[string]domain.ExternalDataEntry `json:"external_data"`
	Version        int64                               `json:"version"`
	Created        string                              `json:"created" format:"date-time"`
	Modified       string                              `json:"modified" format:"date-time"`
	StateEnteredAt string                              `json:"state_entered_at" format:"date-time"`
	PruneAt        *string                             `json:"prune_at,omitempty" format:"date-time"`
}

type TransitionResponse struct {
	Application ApplicationResponse `json:"application"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	SideEffects []string            `json:"side_effects,omitempty"`
}

type StateSummary struct {
	Name     string   `json:"name"`
	Terminal bool     `json:"terminal"`
	Roles    []string `json:"roles"`
	Events   []string `json:"events,omitempty"`
}

type TemplateResponse struct {
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Initial string         `json:"initial"`
	States  []StateSummary `json:"states"`
}

type EventResponse struct {
	ID            int64  `json:"id"`
	TS            string `json:"ts" format:"date-time"`
	Type          string `json:"type"`
	ApplicationID string `json:"application_id,omitempty"`
	ActorID       string `json:"actor_id"`
	Payload       string `json:"payload_json"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
	// Key is only present on creation; the server stores a hash.
	Key string `json:"key,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

func applicationResponse(a domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:             a.ID,
		TypeID:         a.TypeID,
		State:          a.State,
		Applicant:      a.Applicant,
		Assignees:      a.Assignees,
		Answers:        a.Answers,
		ExternalData:   a.ExternalData,
		Version:        a.Version,
		Created:        a.Created,
		Modified:       a.Modified,
		StateEnteredAt: a.StateEnteredAt,
		PruneAt:        a.PruneAt,
	}
}

func transitionResponse(a domain.Application, tr engine.Transition) TransitionResponse {
	out := TransitionResponse{
		Application: applicationResponse(a),
		From:        tr.From,
		To:          tr.To,
	}
	for _, hook := range tr.SideEffects {
		out.SideEffects = append(out.SideEffects, string(hook))
	}
	return out
}

func templateResponse(t *template.Template) TemplateResponse {
	out := TemplateResponse{
		Type:    t.Type,
		Name:    t.Name,
		Initial: t.Initial,
	}
	for name, meta := range t.States {
		s := StateSummary{Name: name, Terminal: meta.Terminal()}
		for _, role := range meta.Roles {
			s.Roles = append(s.Roles, string(role.ID))
		}
		for evt := range meta.Transitions {
			s.Events = append(s.Events, string(evt))
		}
		sort.Strings(s.Roles)
		sort.Strings(s.Events)
		out.States = append(out.States, s)
	}
	sort.Slice(out.States, func(i, j int) bool { return out.States[i].Name < out.States[j].Name })
	return out
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		TS:            e.TS,
		Type:          e.Type,
		ApplicationID: e.ApplicationID,
		ActorID:       e.ActorID,
		Payload:       e.Payload,
	}
}
