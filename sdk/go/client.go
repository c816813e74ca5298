package palsdk

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

// Client is a minimal PAL HTTP API client.
type Client struct {
	BaseURL    string
	BasePath   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/api",
		Timeout:  10 * time.Second,
	}
}

// SuggestedAction is a quick action offered next to a reply.
type SuggestedAction struct {
	Label    string `json:"label"`
	ActionID string `json:"action_id"`
}

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Reply            string            `json:"reply"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

// Member represents one roster entry.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Task represents the API task model.
type Task struct {
	ID          string  `json:"id"`
	Role        string  `json:"role"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	Status      string  `json:"status"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	Deliverable string  `json:"deliverable,omitempty"`
}

// Project represents the API project model.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Client      string   `json:"client,omitempty"`
	Description string   `json:"description,omitempty"`
	Budget      string   `json:"budget,omitempty"`
	Timeline    string   `json:"timeline,omitempty"`
	Brief       string   `json:"brief,omitempty"`
	Members     []Member `json:"members"`
	Tasks       []Task   `json:"tasks"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// CommandResult is the interpreter's structured reply.
type CommandResult struct {
	Reply   string   `json:"reply"`
	Project *Project `json:"project,omitempty"`
	Role    string   `json:"role,omitempty"`
	Tasks   []Task   `json:"tasks,omitempty"`
	Owners  []Member `json:"owners,omitempty"`
}

// RoleProgress summarizes one role's share of a project's tasks.
type RoleProgress struct {
	Total int    `json:"total"`
	Done  int    `json:"done"`
	Tasks []Task `json:"tasks"`
}

// Transaction is a wallet transfer record with a raw wei value string.
type Transaction struct {
	Timestamp int64  `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
}

// KPIs are the headline wallet figures.
type KPIs struct {
	WeeklyIncome   float64 `json:"weeklyIncome"`
	WeeklySpending float64 `json:"weeklySpending"`
	MonthlyNet     float64 `json:"monthlyNet"`
}

// Scenario is one what-if projection.
type Scenario struct {
	Title   string  `json:"title"`
	Impact  float64 `json:"impact"`
	Summary string  `json:"summary"`
	Action  string  `json:"action"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Chat sends a message to the assistant.
func (c *Client) Chat(ctx context.Context, message string) (ChatReply, error) {
	var resp ChatReply
	err := c.do(ctx, http.MethodPost, "chat", map[string]any{"message": message}, &resp)
	return resp, err
}

// Command runs one orchestration command against the optional project
// context.
func (c *Client) Command(ctx context.Context, message, projectID string) (CommandResult, error) {
	body := map[string]any{"message": message}
	if projectID != "" {
		body["context"] = map[string]string{"project_id": projectID}
	}
	var resp CommandResult
	err := c.do(ctx, http.MethodPost, "commands", body, &resp)
	return resp, err
}

// Actions returns the quick actions for a context ("sales", "expense",
// "project", or "default").
func (c *Client) Actions(ctx context.Context, context_ string) ([]SuggestedAction, error) {
	var resp []SuggestedAction
	endpoint := "actions?context=" + url.QueryEscape(context_)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateProjectInput are optional fields for CreateProject.
type CreateProjectInput struct {
	Title       string   `json:"title,omitempty"`
	Client      string   `json:"client,omitempty"`
	Description string   `json:"description,omitempty"`
	Budget      string   `json:"budget,omitempty"`
	Timeline    string   `json:"timeline,omitempty"`
	Brief       string   `json:"brief,omitempty"`
	Members     []Member `json:"members,omitempty"`
}

// CreateProject creates a project, generating tasks from the brief.
func (c *Client) CreateProject(ctx context.Context, input CreateProjectInput) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", input, &resp)
	return resp, err
}

// ListProjects returns projects newest first.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp []Project
	err := c.do(ctx, http.MethodGet, "projects", nil, &resp)
	return resp, err
}

// GetProject fetches a project by id.
func (c *Client) GetProject(ctx context.Context, id string) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodGet, "projects/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// SetTaskStatus updates one task's status.
func (c *Client) SetTaskStatus(ctx context.Context, projectID, taskID, status string) (Project, error) {
	var resp Project
	endpoint := fmt.Sprintf("projects/%s/tasks/%s/status", url.PathEscape(projectID), url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"status": status}, &resp)
	return resp, err
}

// SetTaskDeliverable records a deliverable on one task.
func (c *Client) SetTaskDeliverable(ctx context.Context, projectID, taskID, deliverable string) (Project, error) {
	var resp Project
	endpoint := fmt.Sprintf("projects/%s/tasks/%s/deliverable", url.PathEscape(projectID), url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]string{"deliverable": deliverable}, &resp)
	return resp, err
}

// Progress returns a project's task progress grouped by role.
func (c *Client) Progress(ctx context.Context, projectID string) (map[string]RoleProgress, error) {
	var resp map[string]RoleProgress
	endpoint := fmt.Sprintf("projects/%s/progress", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// PendingOwners returns the members still holding unfinished tasks.
func (c *Client) PendingOwners(ctx context.Context, projectID string) ([]Member, error) {
	var resp []Member
	endpoint := fmt.Sprintf("projects/%s/pending", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Members returns the team roster.
func (c *Client) Members(ctx context.Context) ([]Member, error) {
	var resp []Member
	err := c.do(ctx, http.MethodGet, "members", nil, &resp)
	return resp, err
}

// SetMembers replaces the team roster.
func (c *Client) SetMembers(ctx context.Context, members []Member) ([]Member, error) {
	var resp []Member
	err := c.do(ctx, http.MethodPut, "members", members, &resp)
	return resp, err
}

// ImportResult reports on a transfer-list import.
type ImportResult struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
	KPIs  KPIs `json:"kpis"`
}

// ImportTransactions replaces the stored wallet transfer list.
func (c *Client) ImportTransactions(ctx context.Context, address string, txs []Transaction) (ImportResult, error) {
	var resp ImportResult
	err := c.do(ctx, http.MethodPut, "transactions", map[string]any{
		"address":      address,
		"transactions": txs,
	}, &resp)
	return resp, err
}

// WalletSummary is the stored transfers with derived figures.
type WalletSummary struct {
	Transactions []Transaction `json:"transactions"`
	KPIs         KPIs          `json:"kpis"`
	Scenarios    []Scenario    `json:"scenarios"`
}

// Transactions returns the stored transfers with KPIs and scenarios.
func (c *Client) Transactions(ctx context.Context) (WalletSummary, error) {
	var resp WalletSummary
	err := c.do(ctx, http.MethodGet, "transactions", nil, &resp)
	return resp, err
}

// Events returns recent activity-log entries.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint = fmt.Sprintf("events?n=%d", limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
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
	base := strings.TrimRight(c.BaseURL, "/")
	path := c.BasePath
	if path == "" {
		path = "/api"
	}
	return base + "/" + strings.Trim(path, "/")
}
