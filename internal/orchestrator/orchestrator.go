package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"pal/internal/domain"
	"pal/internal/store"
)

// EventSink records interpreter activity. Nil sinks are ignored so the
// interpreter stays usable with a bare in-memory store.
type EventSink interface {
	Append(ctx context.Context, evtType, entityKind, entityID string, payload map[string]any) error
}

// Interpreter matches free-text commands against an ordered pattern
// table and reads or mutates the injected project store. First match
// wins; order is deliberate, not incidental.
type Interpreter struct {
	Store  store.ProjectStore
	Events EventSink
	Now    func() time.Time
}

func New(s store.ProjectStore) Interpreter {
	return Interpreter{Store: s, Now: time.Now}
}

// Context carries the caller-supplied hints that narrow a command
// without being part of the message text.
type Context struct {
	ProjectID string `json:"project_id,omitempty"`
}

// Result is the interpreter's structured reply. Exactly one of the
// data fields is populated depending on the matched command.
type Result struct {
	Reply   string          `json:"reply"`
	Project *domain.Project `json:"project,omitempty"`
	Role    string          `json:"role,omitempty"`
	Tasks   []domain.Task   `json:"tasks,omitempty"`
	Owners  []domain.Member `json:"owners,omitempty"`
}

var (
	reCreate   = regexp.MustCompile(`(?i)^(?:create project:?|new project)`)
	reAssign   = regexp.MustCompile(`(?i)assign(?: these)? tasks`)
	reProgress = regexp.MustCompile(`(?i)show progress(?: on)? (?:the )?(design|designer|frontend|backend|pm)`)
	reRole     = regexp.MustCompile(`(?i)(design|designer|frontend|backend|pm)`)
	rePending  = regexp.MustCompile(`(?i)who has(?: not|n['’]?t) submitted`)
)

const fallbackReply = "I can create projects, assign tasks, show role progress, or list who hasn't submitted. Try: ‘Create project: Website Redesign’."

// Handle runs one command. Recognized-but-incomplete commands come
// back as explanatory replies, never as errors; only store faults
// propagate.
func (in Interpreter) Handle(ctx context.Context, message string, cmdCtx Context) (Result, error) {
	msg := strings.TrimSpace(message)

	switch {
	case reCreate.MatchString(msg):
		title := "Untitled Project"
		if _, after, found := strings.Cut(msg, ":"); found {
			if t := strings.TrimSpace(after); t != "" {
				title = t
			}
		}
		p, err := in.CreateProject(ctx, CreateProjectInput{Title: title, Brief: title})
		if err != nil {
			return Result{}, err
		}
		return Result{
			Reply:   fmt.Sprintf("Created project “%s” with %d tasks assigned by role.", p.Title, len(p.Tasks)),
			Project: &p,
		}, nil

	case reAssign.MatchString(msg):
		p, ok, err := in.resolveProject(ctx, cmdCtx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Reply: "No active project context. Open a project to assign."}, nil
		}
		assignByRole(&p)
		if err := in.Store.PutProject(ctx, p); err != nil {
			return Result{}, err
		}
		in.record(ctx, "tasks.assigned", "project", p.ID, map[string]any{"tasks": len(p.Tasks)})
		return Result{Reply: "Tasks have been (re)assigned to team members by role.", Project: &p}, nil

	case reProgress.MatchString(msg):
		token := strings.ToLower(reRole.FindStringSubmatch(msg)[1])
		p, ok, err := in.resolveProject(ctx, cmdCtx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Reply: "No active project context. Open a project to view progress."}, nil
		}
		role := canonicalRole(token)
		progress := progressByRole(p)[role]
		return Result{
			Reply: fmt.Sprintf("%s progress: %d/%d done.", role, progress.Done, progress.Total),
			Role:  role,
			Tasks: progress.Tasks,
		}, nil

	case rePending.MatchString(msg):
		p, ok, err := in.resolveProject(ctx, cmdCtx)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Reply: "No active project context. Open a project first."}, nil
		}
		owners := pendingOwners(p)
		if len(owners) == 0 {
			return Result{Reply: "All assigned tasks are done.", Owners: []domain.Member{}}, nil
		}
		names := make([]string, len(owners))
		for i, o := range owners {
			names[i] = o.Name
		}
		return Result{
			Reply:  fmt.Sprintf("Pending submissions: %s.", strings.Join(names, ", ")),
			Owners: owners,
		}, nil
	}

	return Result{Reply: fallbackReply}, nil
}

// CreateProjectInput are parameters for creating a project. Missing
// fields are defaulted; an empty member list falls back to the store's
// roster.
type CreateProjectInput struct {
	Title       string
	Client      string
	Description string
	Budget      string
	Timeline    string
	Brief       string
	Members     []domain.Member
}

// CreateProject builds a project from the input, generates its task
// list from the brief, auto-assigns tasks by role, and inserts it at
// the front of the store.
func (in Interpreter) CreateProject(ctx context.Context, input CreateProjectInput) (domain.Project, error) {
	members := input.Members
	if len(members) == 0 {
		roster, err := in.Store.Members(ctx)
		if err != nil {
			return domain.Project{}, err
		}
		members = roster
	}
	title := input.Title
	if title == "" {
		title = "Untitled Project"
	}
	p := domain.Project{
		ID:          newID("p"),
		Title:       title,
		Client:      input.Client,
		Description: input.Description,
		Budget:      input.Budget,
		Timeline:    input.Timeline,
		Brief:       input.Brief,
		Members:     members,
		Tasks:       TasksFromBrief(input.Brief),
		CreatedAt:   in.now().UTC().Format(time.RFC3339),
	}
	assignByRole(&p)
	if err := in.Store.PutProject(ctx, p); err != nil {
		return domain.Project{}, err
	}
	in.record(ctx, "project.created", "project", p.ID, map[string]any{"title": p.Title, "tasks": len(p.Tasks)})
	return p, nil
}

// UpdateProject applies the mutator to a copy of the stored project
// and writes the result back atomically. Unknown ids surface
// store.ErrNotFound rather than succeeding silently.
func (in Interpreter) UpdateProject(ctx context.Context, id string, mutate func(domain.Project) domain.Project) (domain.Project, error) {
	p, err := in.Store.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	next := mutate(p)
	next.ID = p.ID
	if err := in.Store.PutProject(ctx, next); err != nil {
		return domain.Project{}, err
	}
	return next, nil
}

// SetTaskStatus updates one task's status in place.
func (in Interpreter) SetTaskStatus(ctx context.Context, projectID, taskID, status string) (domain.Project, error) {
	p, err := in.UpdateProject(ctx, projectID, func(p domain.Project) domain.Project {
		for i := range p.Tasks {
			if p.Tasks[i].ID == taskID {
				p.Tasks[i].Status = status
			}
		}
		return p
	})
	if err != nil {
		return p, err
	}
	in.record(ctx, "task.status", "task", taskID, map[string]any{"project_id": projectID, "status": status})
	return p, nil
}

// SetTaskDeliverable records a deliverable URL or note on one task.
func (in Interpreter) SetTaskDeliverable(ctx context.Context, projectID, taskID, deliverable string) (domain.Project, error) {
	p, err := in.UpdateProject(ctx, projectID, func(p domain.Project) domain.Project {
		for i := range p.Tasks {
			if p.Tasks[i].ID == taskID {
				p.Tasks[i].Deliverable = deliverable
			}
		}
		return p
	})
	if err != nil {
		return p, err
	}
	in.record(ctx, "task.deliverable", "task", taskID, map[string]any{"project_id": projectID})
	return p, nil
}

// RoleProgress summarizes one role's share of a project's tasks.
type RoleProgress struct {
	Total int           `json:"total"`
	Done  int           `json:"done"`
	Tasks []domain.Task `json:"tasks"`
}

// ProgressByRole groups a project's tasks by role. Counts across roles
// sum to the total task count.
func (in Interpreter) ProgressByRole(ctx context.Context, projectID string) (map[string]RoleProgress, error) {
	p, err := in.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return progressByRole(p), nil
}

// PendingOwners resolves the distinct assignees holding not-done
// tasks, preserving first-seen order.
func (in Interpreter) PendingOwners(ctx context.Context, projectID string) ([]domain.Member, error) {
	p, err := in.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return pendingOwners(p), nil
}

func progressByRole(p domain.Project) map[string]RoleProgress {
	roles := map[string]RoleProgress{}
	for _, t := range p.Tasks {
		r := roles[t.Role]
		r.Total++
		if t.Status == domain.StatusDone {
			r.Done++
		}
		r.Tasks = append(r.Tasks, t)
		roles[t.Role] = r
	}
	return roles
}

func pendingOwners(p domain.Project) []domain.Member {
	byID := map[string]domain.Member{}
	for _, m := range p.Members {
		byID[m.ID] = m
	}
	seen := map[string]bool{}
	var owners []domain.Member
	for _, t := range p.Tasks {
		if t.Status == domain.StatusDone || t.AssigneeID == nil || seen[*t.AssigneeID] {
			continue
		}
		seen[*t.AssigneeID] = true
		if m, ok := byID[*t.AssigneeID]; ok {
			owners = append(owners, m)
		}
	}
	return owners
}

// assignByRole gives every unassigned task the first member whose role
// matches, case-insensitively. Tasks without a matching member stay
// unassigned.
func assignByRole(p *domain.Project) {
	for i := range p.Tasks {
		if p.Tasks[i].AssigneeID != nil {
			continue
		}
		for _, m := range p.Members {
			if strings.EqualFold(m.Role, p.Tasks[i].Role) {
				id := m.ID
				p.Tasks[i].AssigneeID = &id
				break
			}
		}
	}
}

// canonicalRole maps a matched pattern token to the closed role set.
func canonicalRole(token string) string {
	switch {
	case strings.Contains(token, "design"):
		return domain.RoleDesigner
	case strings.Contains(token, "front"):
		return domain.RoleFrontend
	case strings.Contains(token, "back"):
		return domain.RoleBackend
	default:
		return domain.RolePM
	}
}

func (in Interpreter) resolveProject(ctx context.Context, cmdCtx Context) (domain.Project, bool, error) {
	if cmdCtx.ProjectID == "" {
		return domain.Project{}, false, nil
	}
	p, err := in.Store.GetProject(ctx, cmdCtx.ProjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Project{}, false, nil
		}
		return domain.Project{}, false, err
	}
	return p, true, nil
}

func (in Interpreter) record(ctx context.Context, evtType, entityKind, entityID string, payload map[string]any) {
	if in.Events == nil {
		return
	}
	_ = in.Events.Append(ctx, evtType, entityKind, entityID, payload)
}

func (in Interpreter) now() time.Time {
	if in.Now != nil {
		return in.Now()
	}
	return time.Now()
}

func newID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
