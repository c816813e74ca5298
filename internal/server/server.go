package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pal/internal/assistant"
	"pal/internal/domain"
	"pal/internal/events"
	"pal/internal/ledger"
	"pal/internal/orchestrator"
	"pal/internal/repo"
	"pal/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Assistant   assistant.Engine
	Interpreter orchestrator.Interpreter
	Repo        repo.Repo
	Logger      *zap.Logger
	BasePath    string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"project not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the PAL API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	hcfg := huma.DefaultConfig("PAL API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerChat(group, cfg)
	registerCommands(group, cfg)
	registerActions(group)
	registerProjects(group, cfg)
	registerMembers(group, cfg)
	registerTransactions(group, cfg)
	registerEvents(group, cfg)

	return router, nil
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
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

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") {
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
	case http.StatusUnprocessableEntity:
		return "validation_failed"
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
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerChat(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/chat",
		Summary:     "Send a message to the assistant",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body ChatRequest `json:"body"`
	}) (*struct {
		Body ChatResponse `json:"body"`
	}, error) {
		text := strings.TrimSpace(input.Body.Message)
		var resp ChatResponse
		if text == "" {
			resp.Reply = cfg.Assistant.Greeting()
		} else {
			reply := cfg.Assistant.Process(text)
			resp.Reply = reply.Text
			resp.SuggestedActions = reply.SuggestedActions
		}
		if cfg.Repo.DB != nil {
			persistChat(ctx, cfg, text, resp)
		}
		return &struct {
			Body ChatResponse `json:"body"`
		}{Body: resp}, nil
	})
}

// persistChat appends the exchange to the default conversation log.
// Best-effort: a logging failure never fails the chat call.
func persistChat(ctx context.Context, cfg Config, text string, resp ChatResponse) {
	now := time.Now().UTC().Format(time.RFC3339)
	if text != "" {
		_ = cfg.Repo.AppendChatMessage(ctx, "default", domain.ChatMessage{
			ID:        uuid.NewString(),
			Sender:    domain.SenderUser,
			Content:   text,
			Timestamp: now,
		})
	}
	_ = cfg.Repo.AppendChatMessage(ctx, "default", domain.ChatMessage{
		ID:               uuid.NewString(),
		Sender:           domain.SenderPal,
		Content:          resp.Reply,
		Timestamp:        now,
		SuggestedActions: resp.SuggestedActions,
	})
	w := events.Writer{DB: cfg.Repo.DB}
	_ = w.Append(ctx, "chat.message", "conversation", "default", map[string]any{"sender": domain.SenderUser})
}

func registerCommands(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "command",
		Method:      http.MethodPost,
		Path:        "/commands",
		Summary:     "Run an orchestration command",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CommandRequest `json:"body"`
	}) (*struct {
		Body orchestrator.Result `json:"body"`
	}, error) {
		res, err := cfg.Interpreter.Handle(ctx, input.Body.Message, input.Body.Context)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body orchestrator.Result `json:"body"`
		}{Body: res}, nil
	})
}

func registerActions(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "suggested-actions",
		Method:      http.MethodGet,
		Path:        "/actions",
		Summary:     "Quick actions for a context",
	}, func(ctx context.Context, input *struct {
		Context string `query:"context" example:"sales"`
	}) (*struct {
		Body []domain.SuggestedAction `json:"body"`
	}, error) {
		return &struct {
			Body []domain.SuggestedAction `json:"body"`
		}{Body: assistant.SuggestedActions(input.Context)}, nil
	})
}

func registerProjects(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		for _, m := range input.Body.Members {
			if !domain.ValidRole(m.Role) {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid member role "+m.Role, nil)
			}
		}
		p, err := cfg.Interpreter.CreateProject(ctx, orchestrator.CreateProjectInput{
			Title:       input.Body.Title,
			Client:      input.Body.Client,
			Description: input.Body.Description,
			Budget:      input.Body.Budget,
			Timeline:    input.Body.Timeline,
			Brief:       input.Body.Brief,
			Members:     input.Body.Members,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects, newest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Project `json:"body"`
	}, error) {
		items, err := cfg.Interpreter.Store.ListProjects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Project{}
		}
		return &struct {
			Body []domain.Project `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, err := cfg.Interpreter.Store.GetProject(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-task-status",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/tasks/{task_id}/status",
		Summary:     "Set task status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		TaskID    string               `path:"task_id"`
		Body      SetTaskStatusRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		switch input.Body.Status {
		case domain.StatusPending, domain.StatusInProgress, domain.StatusDone:
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid status "+input.Body.Status, nil)
		}
		p, err := cfg.Interpreter.SetTaskStatus(ctx, input.ProjectID, input.TaskID, input.Body.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-task-deliverable",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/tasks/{task_id}/deliverable",
		Summary:     "Set task deliverable",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string                    `path:"project_id"`
		TaskID    string                    `path:"task_id"`
		Body      SetTaskDeliverableRequest `json:"body"`
	}) (*struct {
		Body domain.Project `json:"body"`
	}, error) {
		p, err := cfg.Interpreter.SetTaskDeliverable(ctx, input.ProjectID, input.TaskID, input.Body.Deliverable)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Project `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-progress",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/progress",
		Summary:     "Task progress grouped by role",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body map[string]orchestrator.RoleProgress `json:"body"`
	}, error) {
		progress, err := cfg.Interpreter.ProgressByRole(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]orchestrator.RoleProgress `json:"body"`
		}{Body: progress}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "project-pending-owners",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/pending",
		Summary:     "Members holding unfinished tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body []domain.Member `json:"body"`
	}, error) {
		owners, err := cfg.Interpreter.PendingOwners(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		if owners == nil {
			owners = []domain.Member{}
		}
		return &struct {
			Body []domain.Member `json:"body"`
		}{Body: owners}, nil
	})
}

func registerMembers(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/members",
		Summary:     "Team roster",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Member `json:"body"`
	}, error) {
		members, err := cfg.Interpreter.Store.Members(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Member `json:"body"`
		}{Body: members}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-members",
		Method:      http.MethodPut,
		Path:        "/members",
		Summary:     "Replace team roster",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body []domain.Member `json:"body"`
	}) (*struct {
		Body []domain.Member `json:"body"`
	}, error) {
		for _, m := range input.Body {
			if !domain.ValidRole(m.Role) {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid member role "+m.Role, nil)
			}
		}
		if err := cfg.Interpreter.Store.SetMembers(ctx, input.Body); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Member `json:"body"`
		}{Body: input.Body}, nil
	})
}

func registerTransactions(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "import-transactions",
		Method:      http.MethodPut,
		Path:        "/transactions",
		Summary:     "Replace the stored wallet transfer list",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body ImportTransactionsRequest `json:"body"`
	}) (*struct {
		Body ImportTransactionsResponse `json:"body"`
	}, error) {
		address := input.Body.Address
		if address == "" {
			address = "0xYourAddress"
		}
		if err := cfg.Repo.ReplaceTransactions(ctx, address, input.Body.Transactions); err != nil {
			return nil, handleError(err)
		}
		kpis := ledger.Aggregate(input.Body.Transactions, address).KPIs()
		return &struct {
			Body ImportTransactionsResponse `json:"body"`
		}{Body: ImportTransactionsResponse{OK: true, Count: len(input.Body.Transactions), KPIs: kpis}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-transactions",
		Method:      http.MethodGet,
		Path:        "/transactions",
		Summary:     "Stored transfers with KPIs and scenarios",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TransactionsResponse `json:"body"`
	}, error) {
		txs, address, err := cfg.Repo.Transactions(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if txs == nil {
			txs = []domain.Transaction{}
		}
		kpis := ledger.Aggregate(txs, address).KPIs()
		return &struct {
			Body TransactionsResponse `json:"body"`
		}{Body: TransactionsResponse{
			Transactions: txs,
			KPIs:         kpis,
			Scenarios:    ledger.WhatIfScenarios(kpis),
		}}, nil
	})
}

func registerEvents(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Tail the activity log",
	}, func(ctx context.Context, input *struct {
		N          int    `query:"n" default:"20"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		n := input.N
		if n <= 0 {
			n = 20
		}
		items, err := cfg.Repo.LatestEvents(ctx, n, input.Type, input.EntityKind)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Event{}
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}
