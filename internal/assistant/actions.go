package assistant

import "pal/internal/domain"

// SuggestedActions returns the fixed quick-action catalog for a
// context tag. Unknown contexts fall back to the default list. The
// lists are stable across calls and ordered by presentation priority.
func SuggestedActions(context string) []domain.SuggestedAction {
	switch context {
	case "sales":
		return []domain.SuggestedAction{
			{Label: "Add New Sale", ActionID: "add_new_sale"},
			{Label: "View Sales Report", ActionID: "view_sales_report"},
			{Label: "Set Sales Goal", ActionID: "set_sales_goal"},
		}
	case "expense":
		return []domain.SuggestedAction{
			{Label: "Add Expense", ActionID: "add_expense"},
			{Label: "Expense Breakdown", ActionID: "expense_breakdown"},
			{Label: "Cost-Cutting Tips", ActionID: "cost_cutting_tips"},
		}
	case "project":
		return []domain.SuggestedAction{
			{Label: "Add New Project", ActionID: "add_new_project"},
			{Label: "View All Projects", ActionID: "view_all_projects"},
			{Label: "Project Timeline", ActionID: "project_timeline"},
		}
	default:
		return []domain.SuggestedAction{
			{Label: "Add Sale", ActionID: "add_sale"},
			{Label: "Add Expense", ActionID: "add_expense"},
			{Label: "New Project", ActionID: "new_project"},
			{Label: "Business Tips", ActionID: "business_tips"},
		}
	}
}
