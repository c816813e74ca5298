package repo_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"pal/internal/db"
	"pal/internal/domain"
	"pal/internal/events"
	"pal/internal/migrate"
	"pal/internal/repo"
)

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn}
}

func sampleProject(id string) domain.Project {
	assignee := "u-des-1"
	return domain.Project{
		ID:          id,
		Title:       "Website Redesign",
		Client:      "Fashion Palace",
		Brief:       "landing page",
		Members:     []domain.Member{{ID: "u-des-1", Name: "Alex D.", Role: domain.RoleDesigner}},
		Tasks:       []domain.Task{{ID: "t-1", Role: domain.RoleDesigner, Title: "Wireframe", Status: domain.StatusPending, AssigneeID: &assignee}},
		CreatedAt:   "2024-01-01T12:00:00Z",
		Description: "refresh the site",
	}
}

func TestProjectRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	want := sampleProject("p-1")
	if err := r.PutProject(ctx, want); err != nil {
		t.Fatalf("put project: %v", err)
	}
	got, err := r.GetProject(ctx, "p-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestProjectNotFound(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.GetProject(context.Background(), "p-missing"); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProjectsNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for _, id := range []string{"p-1", "p-2", "p-3"} {
		if err := r.PutProject(ctx, sampleProject(id)); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	items, err := r.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 || items[0].ID != "p-3" || items[2].ID != "p-1" {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestPutProjectReplaces(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := sampleProject("p-1")
	if err := r.PutProject(ctx, p); err != nil {
		t.Fatalf("put: %v", err)
	}
	p.Tasks[0].Status = domain.StatusDone
	p.Title = "Renamed"
	if err := r.PutProject(ctx, p); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := r.GetProject(ctx, "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Renamed" || got.Tasks[0].Status != domain.StatusDone {
		t.Fatalf("replace not applied: %+v", got)
	}
	items, _ := r.ListProjects(ctx)
	if len(items) != 1 {
		t.Fatalf("expected single row after replace, got %d", len(items))
	}
}

func TestMembersDefaultAndReplace(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	members, err := r.Members(ctx)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 4 || members[0].ID != "u-des-1" {
		t.Fatalf("expected default roster, got %+v", members)
	}
	custom := []domain.Member{
		{ID: "u-1", Name: "Ada", Role: domain.RoleBackend},
		{ID: "u-2", Name: "Grace", Role: domain.RolePM},
	}
	if err := r.SetMembers(ctx, custom); err != nil {
		t.Fatalf("set members: %v", err)
	}
	members, err = r.Members(ctx)
	if err != nil {
		t.Fatalf("members after set: %v", err)
	}
	if !reflect.DeepEqual(custom, members) {
		t.Fatalf("roster mismatch: %+v", members)
	}
}

func TestChatLogRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	msgs := []domain.ChatMessage{
		{ID: "m-1", Sender: domain.SenderUser, Content: "how are sales?", Timestamp: "2024-01-01T12:00:00Z"},
		{ID: "m-2", Sender: domain.SenderPal, Content: "sales dey fine", Timestamp: "2024-01-01T12:00:01Z",
			SuggestedActions: []domain.SuggestedAction{{Label: "Add New Sale", ActionID: "add_new_sale"}}},
	}
	for _, m := range msgs {
		if err := r.AppendChatMessage(ctx, "default", m); err != nil {
			t.Fatalf("append %s: %v", m.ID, err)
		}
	}
	if err := r.AppendChatMessage(ctx, "other", domain.ChatMessage{ID: "m-3", Sender: domain.SenderUser, Content: "hi", Timestamp: "2024-01-01T12:00:02Z"}); err != nil {
		t.Fatalf("append other: %v", err)
	}
	got, err := r.ChatLog(ctx, "default")
	if err != nil {
		t.Fatalf("chat log: %v", err)
	}
	if !reflect.DeepEqual(msgs, got) {
		t.Fatalf("log mismatch:\nwant %+v\ngot  %+v", msgs, got)
	}
}

func TestTransactionsRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	txs := []domain.Transaction{
		{Timestamp: 1704276000, From: "0xother", To: "0xme", Value: "2000000000000000000"},
		{Timestamp: 1704189600, From: "0xme", To: "0xother", Value: "1000000000000000000"},
	}
	if err := r.ReplaceTransactions(ctx, "0xme", txs); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, address, err := r.Transactions(ctx)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if address != "0xme" {
		t.Fatalf("address mismatch: %s", address)
	}
	if !reflect.DeepEqual(txs, got) {
		t.Fatalf("transactions mismatch: %+v", got)
	}

	// a second import replaces the full list
	if err := r.ReplaceTransactions(ctx, "0xnew", txs[:1]); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	got, address, err = r.Transactions(ctx)
	if err != nil {
		t.Fatalf("transactions after replace: %v", err)
	}
	if len(got) != 1 || address != "0xnew" {
		t.Fatalf("replace not applied: %d txs, address %s", len(got), address)
	}
}

func TestLatestEvents(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	w := events.Writer{DB: r.DB, Now: func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }}
	if err := w.Append(ctx, "project.created", "project", "p-1", map[string]any{"title": "App"}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := w.Append(ctx, "task.status", "task", "t-1", nil); err != nil {
		t.Fatalf("append event: %v", err)
	}
	items, err := r.LatestEvents(ctx, 10, "", "")
	if err != nil {
		t.Fatalf("latest events: %v", err)
	}
	if len(items) != 2 || items[0].Type != "task.status" {
		t.Fatalf("unexpected events: %+v", items)
	}
	items, err = r.LatestEvents(ctx, 10, "project.created", "project")
	if err != nil {
		t.Fatalf("filtered events: %v", err)
	}
	if len(items) != 1 || items[0].EntityID != "p-1" {
		t.Fatalf("unexpected filtered events: %+v", items)
	}
}
