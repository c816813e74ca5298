package store

import (
	"context"
	"errors"

	"pal/internal/domain"
)

// ErrNotFound is returned when a project id does not resolve.
var ErrNotFound = errors.New("not found")

// ProjectStore holds the orchestrator's project collection. Put on a
// new id inserts the project at the front so listing is
// most-recent-first; Put on an existing id replaces the full record
// in place (atomic replace-on-write, no partial-field updates).
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	PutProject(ctx context.Context, p domain.Project) error
	Members(ctx context.Context) ([]domain.Member, error)
	SetMembers(ctx context.Context, members []domain.Member) error
}

// DefaultMembers is the static roster used when a caller supplies none.
func DefaultMembers() []domain.Member {
	return []domain.Member{
		{ID: "u-des-1", Name: "Alex D.", Role: domain.RoleDesigner},
		{ID: "u-fe-1", Name: "Sam F.", Role: domain.RoleFrontend},
		{ID: "u-be-1", Name: "Lee B.", Role: domain.RoleBackend},
		{ID: "u-pm-1", Name: "Pat M.", Role: domain.RolePM},
	}
}
