package audit

import "time"

// Event is an immutable, append-only record of an operator action.
//
// Events are never updated or deleted. Recording is best-effort; a failed
// append never blocks the action itself.
type Event struct {
	ID     string `json:"id" db:"id"`
	Action Action `json:"action" db:"action"`

	Operator  string `json:"operator,omitempty" db:"operator"`
	Role      string `json:"role,omitempty" db:"role"`
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifies what was acted on, e.g. "organization:12".
	Target string `json:"target,omitempty" db:"target"`

	// Metadata is a JSON object with action details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Action string

const (
	ActionOrganizationCreated Action = "organization_created"
	ActionIngestionTriggered  Action = "ingestion_triggered"
	ActionBatchTriggered      Action = "batch_triggered"
)
