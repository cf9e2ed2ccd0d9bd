// Package caseflowsdk is a minimal Go client for the Caseflow HTTP API.
package caseflowsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one Caseflow server. Authentication uses a bearer token
// when set, an API key otherwise.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ExternalDataEntry is one provider result on an application.
type ExternalDataEntry struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Reason string `json:"reason,omitempty"`
	Date   string `json:"date"`
}

// Application is the API application model.
type Application struct {
	ID             string                       `json:"id"`
	TypeID         string                       `json:"type_id"`
	State          string                       `json:"state"`
	Applicant      string                       `json:"applicant"`
	Assignees      []string                     `json:"assignees,omitempty"`
	Answers        map[string]any               `json:"answers"`
	ExternalData   map[string]ExternalDataEntry `json:"external_data"`
	Version        int64                        `json:"version"`
	Created        string                       `json:"created"`
	Modified       string                       `json:"modified"`
	StateEnteredAt string                       `json:"state_entered_at"`
	PruneAt        *string                      `json:"prune_at,omitempty"`
}

// Transition is the result of firing an event.
type Transition struct {
	Application Application `json:"application"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	SideEffects []string    `json:"side_effects,omitempty"`
}

// Template summarizes one application template.
type Template struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Initial string `json:"initial"`
	States  []struct {
		Name     string   `json:"name"`
		Terminal bool     `json:"terminal"`
		Roles    []string `json:"roles"`
		Events   []string `json:"events,omitempty"`
	} `json:"states"`
}

// Event is one log entry.
type Event struct {
	ID            int64  `json:"id"`
	TS            string `json:"ts"`
	Type          string `json:"type"`
	ApplicationID string `json:"application_id,omitempty"`
	ActorID       string `json:"actor_id"`
	Payload       string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateApplication starts an application of the given type. The applicant
// is the authenticated actor.
func (c *Client) CreateApplication(ctx context.Context, typeID string, assignees []string) (Application, error) {
	body := map[string]any{"type_id": typeID}
	if len(assignees) > 0 {
		body["assignees"] = assignees
	}
	var resp Application
	err := c.do(ctx, http.MethodPost, "applications", body, &resp)
	return resp, err
}

// ListApplications returns the caller's listed applications.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	var resp struct {
		Applications []Application `json:"applications"`
	}
	err := c.do(ctx, http.MethodGet, "applications", nil, &resp)
	return resp.Applications, err
}

// GetApplication returns one application projected by the caller's read scope.
func (c *Client) GetApplication(ctx context.Context, id string) (Application, error) {
	var resp Application
	err := c.do(ctx, http.MethodGet, appPath(id, ""), nil, &resp)
	return resp, err
}

// FireEvent fires a state machine event. expectedVersion of zero means
// "whatever is current".
func (c *Client) FireEvent(ctx context.Context, id, event string, expectedVersion int64) (Transition, error) {
	body := map[string]any{"event": event}
	if expectedVersion > 0 {
		body["expected_version"] = expectedVersion
	}
	var resp Transition
	err := c.do(ctx, http.MethodPost, appPath(id, "events"), body, &resp)
	return resp, err
}

// PermittedEvents lists events the caller may fire from the current state.
func (c *Client) PermittedEvents(ctx context.Context, id string) ([]string, error) {
	var resp struct {
		Events []string `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, appPath(id, "events/permitted"), nil, &resp)
	return resp.Events, err
}

// SubmitAnswers replaces answers strictly: out-of-scope keys reject and the
// full answer set is validated.
func (c *Client) SubmitAnswers(ctx context.Context, id string, answers map[string]any) (Application, error) {
	var resp Application
	err := c.do(ctx, http.MethodPut, appPath(id, "answers"), map[string]any{"answers": answers}, &resp)
	return resp, err
}

// SaveDraft merges answers leniently: out-of-scope keys are dropped and
// only the keys present are validated. Suited to auto-save.
func (c *Client) SaveDraft(ctx context.Context, id string, answers map[string]any) (Application, error) {
	var resp Application
	err := c.do(ctx, http.MethodPatch, appPath(id, "answers"), map[string]any{"answers": answers}, &resp)
	return resp, err
}

// RefreshProviders re-runs the named external data providers.
func (c *Client) RefreshProviders(ctx context.Context, id string, keys []string) (Application, error) {
	var resp Application
	err := c.do(ctx, http.MethodPost, appPath(id, "providers/refresh"), map[string]any{"keys": keys}, &resp)
	return resp, err
}

// Templates lists the registered application templates.
func (c *Client) Templates(ctx context.Context) ([]Template, error) {
	var resp struct {
		Templates []Template `json:"templates"`
	}
	err := c.do(ctx, http.MethodGet, "templates", nil, &resp)
	return resp.Templates, err
}

// ApplicationLog returns an application's event log, oldest first.
func (c *Client) ApplicationLog(ctx context.Context, id string, limit int) ([]Event, error) {
	endpoint := appPath(id, "log")
	if limit > 0 {
		endpoint += fmt.Sprintf("?limit=%d", limit)
	}
	var resp struct {
		Events []Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Events, err
}

func appPath(id, suffix string) string {
	p := "applications/" + url.PathEscape(id)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/api/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
