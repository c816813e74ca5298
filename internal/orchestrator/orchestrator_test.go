package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pal/internal/domain"
	"pal/internal/orchestrator"
	"pal/internal/store"
)

func newInterpreter() orchestrator.Interpreter {
	in := orchestrator.New(store.NewMemory())
	in.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return in
}

func TestTasksFromBriefLandingPage(t *testing.T) {
	tasks := orchestrator.TasksFromBrief("Landing page with signup forms and auth API")
	titles := make([]string, len(tasks))
	roles := map[string]int{}
	for i, task := range tasks {
		titles[i] = task.Title
		roles[task.Role]++
		require.Equal(t, domain.StatusPending, task.Status)
		require.NotEmpty(t, task.ID)
	}
	require.Contains(t, titles, "Create homepage wireframe")
	require.Contains(t, titles, "Implement signup form")
	require.Contains(t, titles, "Setup API endpoints")
	require.Contains(t, titles, "Build homepage hero")
	require.Contains(t, titles, "Configure data models")
	require.Equal(t, 2, roles[domain.RolePM])
}

func TestTasksFromBriefLandingOnly(t *testing.T) {
	// wireframe, hero, data models, and two PM tasks
	tasks := orchestrator.TasksFromBrief("Landing Page")
	require.Len(t, tasks, 5)
}

func TestTasksFromBriefBlankBrief(t *testing.T) {
	// a blank brief yields one starter task per role
	for _, brief := range []string{"", "   \t"} {
		tasks := orchestrator.TasksFromBrief(brief)
		require.Len(t, tasks, 4, "brief %q", brief)
		roles := map[string]int{}
		for _, task := range tasks {
			roles[task.Role]++
		}
		for _, role := range domain.Roles {
			require.Equal(t, 1, roles[role], "brief %q role %s", brief, role)
		}
	}
}

func TestCreateProjectAssignsByRole(t *testing.T) {
	in := newInterpreter()
	ctx := context.Background()
	p, err := in.CreateProject(ctx, orchestrator.CreateProjectInput{
		Title: "Website Redesign",
		Brief: "landing page with brand assets",
	})
	require.NoError(t, err)
	require.Equal(t, "Website Redesign", p.Title)
	require.Equal(t, "2024-01-01T12:00:00Z", p.CreatedAt)
	require.Len(t, p.Members, 4)

	byID := map[string]domain.Member{}
	for _, m := range p.Members {
		byID[m.ID] = m
	}
	for _, task := range p.Tasks {
		require.NotNil(t, task.AssigneeID, "task %q should be assigned", task.Title)
		require.Equal(t, task.Role, byID[*task.AssigneeID].Role)
	}
}

func TestCreateProjectDefaults(t *testing.T) {
	in := newInterpreter()
	p, err := in.CreateProject(context.Background(), orchestrator.CreateProjectInput{})
	require.NoError(t, err)
	require.Equal(t, "Untitled Project", p.Title)
	require.NotEmpty(t, p.Tasks)
}

func TestHandleCreateProject(t *testing.T) {
	in := newInterpreter()
	res, err := in.Handle(context.Background(), "Create project: Website Redesign", orchestrator.Context{})
	require.NoError(t, err)
	require.NotNil(t, res.Project)
	require.Equal(t, "Website Redesign", res.Project.Title)
	require.Contains(t, res.Reply, "Created project “Website Redesign”")

	// the new project is listed first
	items, err := in.Store.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, res.Project.ID, items[0].ID)
}

func TestHandleWithoutProjectContext(t *testing.T) {
	in := newInterpreter()
	ctx := context.Background()
	cases := []struct {
		message string
		reply   string
	}{
		{"assign tasks", "No active project context. Open a project to assign."},
		{"show progress on the frontend", "No active project context. Open a project to view progress."},
		{"who hasn't submitted?", "No active project context. Open a project first."},
	}
	for _, tc := range cases {
		res, err := in.Handle(ctx, tc.message, orchestrator.Context{})
		require.NoError(t, err)
		require.Equal(t, tc.reply, res.Reply, "message %q", tc.message)
	}
}

func TestHandleProgress(t *testing.T) {
	in := newInterpreter()
	ctx := context.Background()
	p, err := in.CreateProject(ctx, orchestrator.CreateProjectInput{Title: "App", Brief: "landing"})
	require.NoError(t, err)

	var designTask string
	for _, task := range p.Tasks {
		if task.Role == domain.RoleDesigner {
			designTask = task.ID
		}
	}
	require.NotEmpty(t, designTask)
	_, err = in.SetTaskStatus(ctx, p.ID, designTask, domain.StatusDone)
	require.NoError(t, err)

	res, err := in.Handle(ctx, "Show progress on the design", orchestrator.Context{ProjectID: p.ID})
	require.NoError(t, err)
	require.Equal(t, "Designer progress: 1/1 done.", res.Reply)
	require.Equal(t, domain.RoleDesigner, res.Role)
	require.Len(t, res.Tasks, 1)
}

func TestHandlePendingOwners(t *testing.T) {
	in := newInterpreter()
	ctx := context.Background()
	p, err := in.CreateProject(ctx, orchestrator.CreateProjectInput{Title: "App", Brief: "landing"})
	require.NoError(t, err)

	res, err := in.Handle(ctx, "Who hasn't submitted?", orchestrator.Context{ProjectID: p.ID})
	require.NoError(t, err)
	require.Contains(t, res.Reply, "Pending submissions:")
	require.NotEmpty(t, res.Owners)

	// curly apostrophe variant matches too
	res, err = in.Handle(ctx, "who hasn’t submitted", orchestrator.Context{ProjectID: p.ID})
	require.NoError(t, err)
	require.Contains(t, res.Reply, "Pending submissions:")

	for _, task := range p.Tasks {
		_, err = in.SetTaskStatus(ctx, p.ID, task.ID, domain.StatusDone)
		require.NoError(t, err)
	}
	res, err = in.Handle(ctx, "who has not submitted", orchestrator.Context{ProjectID: p.ID})
	require.NoError(t, err)
	require.Equal(t, "All assigned tasks are done.", res.Reply)
	require.Empty(t, res.Owners)
}

func TestPendingOwnersDedup(t *testing.T) {
	in := newInterpreter()
	ctx := context.Background()
	p, err := in.CreateProject(ctx, orchestrator.CreateProjectInput{Title: "App", Brief: "landing"})
	require.NoError(t, err)

	// two PM tasks share one assignee and yield a single owner
	owners, err := in.PendingOwners(ctx, p.ID)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, o := range owners {
		require.False(t, seen[o.ID], "owner %s listed twice", o.ID)
		seen[o.ID] = true
	}
}

func TestHandleFallback(t *testing.T) {
	in := newInterpreter()
	res, err := in.Handle(context.Background(), "please make coffee", orchestrator.Context{})
	require.NoError(t, err)
	require.Equal(t, "I can create projects, assign tasks, show role progress, or list who hasn't submitted. Try: ‘Create project: Website Redesign’.", res.Reply)
}

func TestProgressByRoleSums(t *testing.T) {
	in := newInterpreter()
	ctx := context.Background()
	p, err := in.CreateProject(ctx, orchestrator.CreateProjectInput{Title: "App", Brief: "landing page with auth api"})
	require.NoError(t, err)

	progress, err := in.ProgressByRole(ctx, p.ID)
	require.NoError(t, err)
	total := 0
	for _, rp := range progress {
		total += rp.Total
		require.Len(t, rp.Tasks, rp.Total)
	}
	require.Equal(t, len(p.Tasks), total)
}

func TestSetTaskStatusUnknownProject(t *testing.T) {
	in := newInterpreter()
	_, err := in.SetTaskStatus(context.Background(), "p-missing", "t-1", domain.StatusDone)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetTaskDeliverable(t *testing.T) {
	in := newInterpreter()
	ctx := context.Background()
	p, err := in.CreateProject(ctx, orchestrator.CreateProjectInput{Title: "App"})
	require.NoError(t, err)
	taskID := p.Tasks[0].ID

	updated, err := in.SetTaskDeliverable(ctx, p.ID, taskID, "https://figma.com/file/abc")
	require.NoError(t, err)
	require.Equal(t, "https://figma.com/file/abc", updated.Tasks[0].Deliverable)
}
