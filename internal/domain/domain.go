package domain

// Role is one of the four fixed team functions used to partition
// members and tasks. The set is closed: progress and pending-owner
// calculations assume no other role ever appears.
const (
	RoleDesigner = "Designer"
	RoleFrontend = "Frontend Dev"
	RoleBackend  = "Backend Dev"
	RolePM       = "PM"
)

// Roles lists the closed role set in presentation order.
var Roles = []string{RoleDesigner, RoleFrontend, RoleBackend, RolePM}

// Task statuses.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// Chat message senders.
const (
	SenderUser = "user"
	SenderPal  = "pal"
)

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
	CreatedAt   string   `json:"created_at,omitempty" format:"date-time"`
}

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role" enum:"Designer,Frontend Dev,Backend Dev,PM"`
}

type Task struct {
	ID          string  `json:"id"`
	Role        string  `json:"role" enum:"Designer,Frontend Dev,Backend Dev,PM"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	Status      string  `json:"status" enum:"Pending,In Progress,Done"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	Deliverable string  `json:"deliverable,omitempty"`
}

// SuggestedAction is a quick action offered next to an assistant reply.
// Order is significant: the first entry is presented first.
type SuggestedAction struct {
	Label    string `json:"label"`
	ActionID string `json:"action_id"`
}

// ChatMessage is one entry of the caller-held conversation log. The
// assistant never stores messages itself; the CLI and server persist
// them per conversation.
type ChatMessage struct {
	ID               string            `json:"id"`
	Sender           string            `json:"sender" enum:"user,pal"`
	Content          string            `json:"content"`
	Timestamp        string            `json:"timestamp" format:"date-time"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

// Transaction is a block-explorer style transfer record. Value is the
// raw wei amount as a decimal string, the way explorers return it.
type Transaction struct {
	Timestamp int64  `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
}

// Event is one row of the append-only activity log.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
