package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pal/internal/domain"
	"pal/internal/store"
)

func TestMemoryNewestFirst(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.PutProject(ctx, domain.Project{ID: "p-1", Title: "first"}))
	require.NoError(t, m.PutProject(ctx, domain.Project{ID: "p-2", Title: "second"}))

	items, err := m.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "p-2", items[0].ID)
	require.Equal(t, "p-1", items[1].ID)
}

func TestMemoryReplaceInPlace(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.PutProject(ctx, domain.Project{ID: "p-1", Title: "first"}))
	require.NoError(t, m.PutProject(ctx, domain.Project{ID: "p-2", Title: "second"}))
	require.NoError(t, m.PutProject(ctx, domain.Project{ID: "p-1", Title: "renamed"}))

	items, err := m.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// replacing keeps the original position
	require.Equal(t, "p-2", items[0].ID)
	require.Equal(t, "renamed", items[1].Title)
}

func TestMemoryNotFound(t *testing.T) {
	m := store.NewMemory()
	_, err := m.GetProject(context.Background(), "p-missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.PutProject(ctx, domain.Project{
		ID:    "p-1",
		Tasks: []domain.Task{{ID: "t-1", Status: domain.StatusPending}},
	}))

	got, err := m.GetProject(ctx, "p-1")
	require.NoError(t, err)
	got.Tasks[0].Status = domain.StatusDone

	again, err := m.GetProject(ctx, "p-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, again.Tasks[0].Status)
}

func TestMemoryDefaultMembers(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	members, err := m.Members(ctx)
	require.NoError(t, err)
	require.Len(t, members, 4)
	require.Equal(t, "Alex D.", members[0].Name)

	custom := []domain.Member{{ID: "u-1", Name: "Ada", Role: domain.RoleBackend}}
	require.NoError(t, m.SetMembers(ctx, custom))
	members, err = m.Members(ctx)
	require.NoError(t, err)
	require.Equal(t, custom, members)
}
