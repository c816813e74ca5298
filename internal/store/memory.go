package store

import (
	"context"

	"pal/internal/domain"
)

// Memory is an in-memory ProjectStore. It backs tests and embedded use;
// the sqlite store in internal/repo is the persisted implementation.
type Memory struct {
	projects []domain.Project
	members  []domain.Member
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) GetProject(_ context.Context, id string) (domain.Project, error) {
	for _, p := range m.projects {
		if p.ID == id {
			return cloneProject(p), nil
		}
	}
	return domain.Project{}, ErrNotFound
}

func (m *Memory) ListProjects(_ context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, cloneProject(p))
	}
	return out, nil
}

func (m *Memory) PutProject(_ context.Context, p domain.Project) error {
	for i, existing := range m.projects {
		if existing.ID == p.ID {
			m.projects[i] = cloneProject(p)
			return nil
		}
	}
	m.projects = append([]domain.Project{cloneProject(p)}, m.projects...)
	return nil
}

func (m *Memory) Members(_ context.Context) ([]domain.Member, error) {
	if len(m.members) == 0 {
		return DefaultMembers(), nil
	}
	return append([]domain.Member(nil), m.members...), nil
}

func (m *Memory) SetMembers(_ context.Context, members []domain.Member) error {
	m.members = append([]domain.Member(nil), members...)
	return nil
}

// cloneProject copies the record so callers cannot alias the stored
// slices through returned values.
func cloneProject(p domain.Project) domain.Project {
	out := p
	out.Members = append([]domain.Member(nil), p.Members...)
	out.Tasks = append([]domain.Task(nil), p.Tasks...)
	return out
}
