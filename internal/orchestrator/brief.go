package orchestrator

import (
	"strings"

	"pal/internal/domain"
)

// TasksFromBrief turns a free-text project brief into an initial task
// list via substring rules. A blank brief yields one generic starter
// task per role; otherwise the frontend/backend/PM baselines are
// always added alongside whatever the rules matched.
func TasksFromBrief(brief string) []domain.Task {
	text := strings.ToLower(brief)
	var tasks []domain.Task
	add := func(role, title, desc string) {
		tasks = append(tasks, domain.Task{
			ID:          newID("t"),
			Role:        role,
			Title:       title,
			Description: desc,
			Status:      domain.StatusPending,
		})
	}

	if strings.TrimSpace(text) == "" {
		add(domain.RoleDesigner, "Design initial mockups", "Figma mockups for key screens.")
		add(domain.RoleFrontend, "Build UI shell", "Navigation and layout in React/Tailwind.")
		add(domain.RoleBackend, "Scaffold backend", "Initial service scaffolding.")
		add(domain.RolePM, "Define scope and risks", "Write up scope, risks, communication plan.")
		return tasks
	}

	// Designer
	if strings.Contains(text, "homepage") || strings.Contains(text, "landing") {
		add(domain.RoleDesigner, "Create homepage wireframe", "Design wireframe in Figma and export assets.")
	}
	if strings.Contains(text, "brand") || strings.Contains(text, "logo") {
		add(domain.RoleDesigner, "Prepare brand assets", "Logo, color palette, and components in Figma.")
	}

	// Frontend
	add(domain.RoleFrontend, "Build homepage hero", "Implement responsive hero section (React/Tailwind).")
	if strings.Contains(text, "forms") || strings.Contains(text, "signup") {
		add(domain.RoleFrontend, "Implement signup form", "Responsive form with validation.")
	}

	// Backend
	if strings.Contains(text, "api") || strings.Contains(text, "auth") {
		add(domain.RoleBackend, "Setup API endpoints", "Auth + basic CRUD services.")
	}
	add(domain.RoleBackend, "Configure data models", "Define schema and persistence layer.")

	// PM
	add(domain.RolePM, "Create delivery timeline", "Plan sprints/milestones and owners.")
	add(domain.RolePM, "Review deliverables", "QA assets and coordinate approvals.")
	return tasks
}
