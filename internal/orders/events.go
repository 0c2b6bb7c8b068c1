package orders

import (
	"encoding/json"
	"time"
)

const (
	EventLedgerChanged = "LedgerChanged"
)

type Entity string

const (
	EntityOrder      Entity = "order"
	EntityParcel     Entity = "parcel"
	EntityOrderItem  Entity = "order_item"
	EntityParcelItem Entity = "parcel_item"
	EntityCarrier    Entity = "carrier"
	EntityStore      Entity = "store"
)

type Action string

const (
	ActionCreated    Action = "created"
	ActionUpdated    Action = "updated"
	ActionArchived   Action = "archived"
	ActionUnarchived Action = "unarchived"
	ActionDeleted    Action = "deleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // owning user id
	Payload       json.RawMessage `json:"payload"`
}

// ChangedPayload tells consumers that a user's snapshot is stale.
type ChangedPayload struct {
	UserID   string `json:"user_id"`
	Entity   Entity `json:"entity"`
	EntityID string `json:"entity_id"`
	Action   Action `json:"action"`
}
