package server

import (
	"pal/internal/domain"
	"pal/internal/ledger"
	"pal/internal/orchestrator"
)

// Request payloads

type ChatRequest struct {
	Message string `json:"message,omitempty"`
}

type CommandRequest struct {
	Message string               `json:"message"`
	Context orchestrator.Context `json:"context,omitempty"`
}

type CreateProjectRequest struct {
	Title       string          `json:"title,omitempty"`
	Client      string          `json:"client,omitempty"`
	Description string          `json:"description,omitempty"`
	Budget      string          `json:"budget,omitempty"`
	Timeline    string          `json:"timeline,omitempty"`
	Brief       string          `json:"brief,omitempty"`
	Members     []domain.Member `json:"members,omitempty"`
}

type SetTaskStatusRequest struct {
	Status string `json:"status" enum:"Pending,In Progress,Done"`
}

type SetTaskDeliverableRequest struct {
	Deliverable string `json:"deliverable"`
}

type ImportTransactionsRequest struct {
	Address      string               `json:"address,omitempty"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Response payloads

type ChatResponse struct {
	Reply            string                   `json:"reply"`
	SuggestedActions []domain.SuggestedAction `json:"suggested_actions,omitempty"`
}

type ImportTransactionsResponse struct {
	OK    bool        `json:"ok"`
	Count int         `json:"count"`
	KPIs  ledger.KPIs `json:"kpis"`
}

type TransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	KPIs         ledger.KPIs          `json:"kpis"`
	Scenarios    []ledger.Scenario    `json:"scenarios"`
}
