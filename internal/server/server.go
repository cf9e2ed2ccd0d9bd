// Package server exposes the engine over HTTP. Every handler resolves the
// caller to an actor id, delegates to the engine and maps typed engine
// errors onto the API error envelope.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"caseflow/internal/config"
	"caseflow/internal/engine"
	"caseflow/internal/fault"
	"caseflow/internal/repo"
	"caseflow/internal/template"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	Webhooks []config.WebhookConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_transition"`
	Message string         `json:"message" example:"no transition for event SUBMIT from state completed"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Caseflow API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Caseflow API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerTemplates(group, cfg.Engine)
	registerApplications(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerPrune(group, cfg.Engine)
	registerAPIKeys(group, cfg.Engine)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)

	startWebhookDispatcher(cfg.Engine, cfg.Webhooks)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps typed engine errors to HTTP status and error codes.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var forbidden fault.Forbidden
	if errors.As(err, &forbidden) {
		details := map[string]any{}
		if forbidden.Role != "" {
			details["role"] = forbidden.Role
		}
		if len(forbidden.Keys) > 0 {
			details["keys"] = forbidden.Keys
		}
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), details)
	}
	var invalid fault.InvalidTransition
	if errors.As(err, &invalid) {
		return newAPIError(http.StatusConflict, "invalid_transition", err.Error(), map[string]any{
			"state": invalid.State,
			"event": invalid.Event,
		})
	}
	var failed fault.ValidationFailed
	if errors.As(err, &failed) {
		fields := make([]map[string]any, 0, len(failed.Fields))
		for _, f := range failed.Fields {
			fields = append(fields, map[string]any{"key": f.Key, "message": f.Message})
		}
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error(), map[string]any{"fields": fields})
	}
	var conflict fault.ConcurrentModification
	if errors.As(err, &conflict) {
		return newAPIError(http.StatusConflict, "concurrent_modification", err.Error(), map[string]any{
			"application_id":   conflict.ApplicationID,
			"expected_version": conflict.ExpectedVersion,
		})
	}
	if errors.Is(err, template.ErrUnknownType) {
		return newAPIError(http.StatusBadRequest, "unknown_type", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") || strings.Contains(lowered, "missing") {
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Status string `json:"status" example:"ok"`
		} `json:"body"`
	}, error) {
		out := &struct {
			Body struct {
				Status string `json:"status" example:"ok"`
			} `json:"body"`
		}{}
		out.Body.Status = "ok"
		return out, nil
	})
}

func registerTemplates(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-templates",
		Method:      http.MethodGet,
		Path:        "/templates",
		Summary:     "List application templates",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Templates []TemplateResponse `json:"templates"`
		} `json:"body"`
	}, error) {
		out := &struct {
			Body struct {
				Templates []TemplateResponse `json:"templates"`
			} `json:"body"`
		}{}
		for _, t := range e.Registry.List() {
			out.Body.Templates = append(out.Body.Templates, templateResponse(t))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-template",
		Method:      http.MethodGet,
		Path:        "/templates/{type}",
		Summary:     "Get one template",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type string `path:"type"`
	}) (*struct {
		Body TemplateResponse `json:"body"`
	}, error) {
		t, err := e.Registry.Get(input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TemplateResponse `json:"body"`
		}{Body: templateResponse(t)}, nil
	})
}

func registerApplications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-application",
		Method:        http.MethodPost,
		Path:          "/applications",
		Summary:       "Create application",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateApplicationRequest `json:"body"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.TypeID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "type_id is required", nil)
		}
		opts := engine.CreateOptions{
			TypeID:    input.Body.TypeID,
			Applicant: actorID,
			Assignees: input.Body.Assignees,
		}
		if input.Body.ID != nil {
			opts.ID = *input.Body.ID
		}
		app, err := e.CreateApplication(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApplicationResponse `json:"body"`
		}{Body: applicationResponse(app)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-applications",
		Method:      http.MethodGet,
		Path:        "/applications",
		Summary:     "List the caller's applications",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Applications []ApplicationResponse `json:"applications"`
		} `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		apps, err := e.ListApplications(ctx, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Applications []ApplicationResponse `json:"applications"`
			} `json:"body"`
		}{}
		for _, a := range apps {
			out.Body.Applications = append(out.Body.Applications, applicationResponse(a))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-application",
		Method:      http.MethodGet,
		Path:        "/applications/{id}",
		Summary:     "Get application (projected by the caller's read scope)",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		app, err := e.ViewApplication(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApplicationResponse `json:"body"`
		}{Body: applicationResponse(app)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "fire-event",
		Method:      http.MethodPost,
		Path:        "/applications/{id}/events",
		Summary:     "Fire a state machine event",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body FireEventRequest `json:"body"`
	}) (*struct {
		Body TransitionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.Event == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "event is required", nil)
		}
		opts := engine.FireEventOptions{
			ApplicationID: input.ID,
			Event:         template.Event(input.Body.Event),
			ActorID:       actorID,
		}
		if input.Body.ExpectedVersion != nil {
			opts.ExpectedVersion = *input.Body.ExpectedVersion
		}
		app, tr, err := e.FireEvent(ctx, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TransitionResponse `json:"body"`
		}{Body: transitionResponse(app, tr)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-permitted-events",
		Method:      http.MethodGet,
		Path:        "/applications/{id}/events/permitted",
		Summary:     "List events the caller may fire",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body struct {
			Events []string `json:"events"`
		} `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		events, err := e.PermittedEvents(ctx, input.ID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Events []string `json:"events"`
			} `json:"body"`
		}{}
		for _, evt := range events {
			out.Body.Events = append(out.Body.Events, string(evt))
		}
		return out, nil
	})

	// PUT submits the full answer set: strict permissions, full schema.
	huma.Register(api, huma.Operation{
		OperationID: "put-answers",
		Method:      http.MethodPut,
		Path:        "/applications/{id}/answers",
		Summary:     "Replace answers (strict, fully validated)",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body SaveAnswersRequest `json:"body"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		return saveAnswers(ctx, e, input.ID, input.Body.Answers, true, false)
	})

	// PATCH is the auto-save path: drop out-of-scope keys, validate only
	// what is present.
	huma.Register(api, huma.Operation{
		OperationID: "patch-answers",
		Method:      http.MethodPatch,
		Path:        "/applications/{id}/answers",
		Summary:     "Merge answers (lenient, partially validated)",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body SaveAnswersRequest `json:"body"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		return saveAnswers(ctx, e, input.ID, input.Body.Answers, false, true)
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-providers",
		Method:      http.MethodPost,
		Path:        "/applications/{id}/providers/refresh",
		Summary:     "Re-run external data providers",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                  `path:"id"`
		Body RefreshProvidersRequest `json:"body"`
	}) (*struct {
		Body ApplicationResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		app, err := e.RunProviders(ctx, engine.RunProvidersOptions{
			ApplicationID: input.ID,
			ActorID:       actorID,
			Keys:          input.Body.Keys,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ApplicationResponse `json:"body"`
		}{Body: applicationResponse(app)}, nil
	})
}

func saveAnswers(ctx context.Context, e engine.Engine, id string, answers map[string]any, strict, partial bool) (*struct {
	Body ApplicationResponse `json:"body"`
}, error) {
	actorID, authErr := actorIDFromContext(ctx)
	if authErr != nil {
		return nil, authErr
	}
	if answers == nil {
		return nil, newAPIError(http.StatusBadRequest, "bad_request", "answers is required", nil)
	}
	app, err := e.SaveAnswers(ctx, engine.SaveAnswersOptions{
		ApplicationID: id,
		ActorID:       actorID,
		Answers:       answers,
		Strict:        strict,
		Partial:       partial,
	})
	if err != nil {
		return nil, handleError(err)
	}
	return &struct {
		Body ApplicationResponse `json:"body"`
	}{Body: applicationResponse(app)}, nil
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-application-events",
		Method:      http.MethodGet,
		Path:        "/applications/{id}/log",
		Summary:     "List an application's event log",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id"`
		Limit int    `query:"limit" default:"100"`
	}) (*struct {
		Body struct {
			Events []EventResponse `json:"events"`
		} `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		// Viewing the log requires standing on the application.
		if _, err := e.ViewApplication(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		events, err := e.Repo.ListEvents(ctx, input.ID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Events []EventResponse `json:"events"`
			} `json:"body"`
		}{}
		for _, evt := range events {
			out.Body.Events = append(out.Body.Events, eventResponse(evt))
		}
		return out, nil
	})
}

func registerPrune(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-prunable",
		Method:      http.MethodGet,
		Path:        "/admin/prunable",
		Summary:     "List applications past their prune deadline",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Applications []ApplicationResponse `json:"applications"`
		} `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		apps, err := e.ListPrunable(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Applications []ApplicationResponse `json:"applications"`
			} `json:"body"`
		}{}
		for _, a := range apps {
			out.Body.Applications = append(out.Body.Applications, applicationResponse(a))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "run-prune",
		Method:      http.MethodPost,
		Path:        "/admin/prune",
		Summary:     "Delete all applications past their prune deadline",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Pruned []string `json:"pruned"`
		} `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		apps, err := e.ListPrunable(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Pruned []string `json:"pruned"`
			} `json:"body"`
		}{}
		for _, a := range apps {
			if err := e.Repo.DeleteApplication(ctx, a.ID); err != nil {
				return nil, handleError(err)
			}
			out.Body.Pruned = append(out.Body.Pruned, a.ID)
		}
		return out, nil
	})
}

func registerAPIKeys(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/apikeys",
		Summary:       "Create API key",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyResponse `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if input.Body.ActorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		name := ""
		if input.Body.Name != nil {
			name = *input.Body.Name
		}
		rawKey, key, err := engine.NewAPIKey(ctx, e.Repo, input.Body.ActorID, name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body APIKeyResponse `json:"body"`
		}{Body: APIKeyResponse{
			ID:        key.ID,
			ActorID:   key.ActorID,
			Name:      key.Name,
			CreatedAt: key.CreatedAt,
			Key:       rawKey,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List API keys",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ActorID string `query:"actor_id"`
	}) (*struct {
		Body struct {
			Keys []APIKeyResponse `json:"keys"`
		} `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		keys, err := e.Repo.ListAPIKeys(ctx, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Keys []APIKeyResponse `json:"keys"`
			} `json:"body"`
		}{}
		for _, k := range keys {
			out.Body.Keys = append(out.Body.Keys, APIKeyResponse{
				ID:        k.ID,
				ActorID:   k.ActorID,
				Name:      k.Name,
				CreatedAt: k.CreatedAt,
			})
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-api-key",
		Method:      http.MethodDelete,
		Path:        "/apikeys/{id}",
		Summary:     "Delete API key",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := e.Repo.DeleteAPIKey(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerDevAuth(api huma.API, auth AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "Issue a development JWT for an actor",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		if input.Body.ActorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		token, err := issueJWT(input.Body.ActorID, auth.JWTSecret, 24*time.Hour)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Caseflow API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"/>
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({ url: %q, dom_id: "#swagger-ui" });
      };
    </script>
  </body>
</html>`, specURL)
}
