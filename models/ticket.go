package models

import (
	"time"

	"github.com/arvand/waitline/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket statuses. The set is closed; transitions go through AllowedTransition.
const (
	TicketStatusWaiting   = "waiting"
	TicketStatusServing   = "serving"
	TicketStatusCompleted = "completed"
	TicketStatusCancelled = "cancelled"
)

// TicketOperation names the state-changing operations of the engine.
type TicketOperation string

const (
	OpAssign   TicketOperation = "assign"
	OpComplete TicketOperation = "complete"
	OpCancel   TicketOperation = "cancel"
	OpMoveUp   TicketOperation = "move_up"
	OpMoveDown TicketOperation = "move_down"
)

// transitionTable maps operation and source status to the target status.
// Any combination absent from the table is an illegal transition.
var transitionTable = map[TicketOperation]map[string]string{
	OpAssign: {
		TicketStatusWaiting: TicketStatusServing,
	},
	OpComplete: {
		TicketStatusServing: TicketStatusCompleted,
	},
	OpCancel: {
		TicketStatusWaiting: TicketStatusCancelled,
		TicketStatusServing: TicketStatusCancelled,
	},
	OpMoveUp: {
		TicketStatusWaiting: TicketStatusWaiting,
	},
	OpMoveDown: {
		TicketStatusWaiting: TicketStatusWaiting,
	},
}

// AllowedTransition returns the target status for op applied to a ticket in
// status from, or ok=false when the combination is not permitted.
func AllowedTransition(op TicketOperation, from string) (string, bool) {
	targets, ok := transitionTable[op]
	if !ok {
		return "", false
	}
	to, ok := targets[from]
	return to, ok
}

// IsTerminalStatus reports whether a status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == TicketStatusCompleted || status == TicketStatusCancelled
}

// Ticket represents a customer's place in a queue
// Table: tickets
// Indices: uuid, (queue_id, status), (queue_id, position)
// Number is the per-queue display number, assigned once from the queue
// sequence and never reused
// Position is meaningful only while waiting; it is frozen (not cleared)
// when the ticket leaves the waiting state
// WaitTime is whole minutes from called_at to completed_at, computed once
type Ticket struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	QueueID      uint      `gorm:"not null;index:idx_tickets_queue_status;index:idx_tickets_queue_position" json:"queue_id"`
	Number       int       `gorm:"not null" json:"number"`
	CustomerName *string   `gorm:"type:varchar(100)" json:"customer_name,omitempty"`
	Status       string    `gorm:"type:varchar(20);not null;default:'waiting';index:idx_tickets_queue_status" json:"status"`
	Position     int       `gorm:"not null;index:idx_tickets_queue_position" json:"position"`

	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	WaitTime    int        `gorm:"not null;default:0" json:"wait_time"`

	// Relations
	Queue *Queue `gorm:"foreignKey:QueueID;references:ID;constraint:OnDelete:CASCADE" json:"queue,omitempty"`
}

func (Ticket) TableName() string { return "tickets" }

// BeforeCreate ensures UUID, status and timestamps are set
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TicketStatusWaiting
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// TicketFilter represents filter criteria for ticket queries
type TicketFilter struct {
	ID             *uint      `json:"id,omitempty"`
	UUID           *uuid.UUID `json:"uuid,omitempty"`
	QueueID        *uint      `json:"queue_id,omitempty"`
	Number         *int       `json:"number,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Position       *int       `json:"position,omitempty"`
	CreatedAfter   *time.Time `json:"created_after,omitempty"`
	CreatedBefore  *time.Time `json:"created_before,omitempty"`
	CompletedAfter *time.Time `json:"completed_after,omitempty"`
	MinWaitTime    *int       `json:"min_wait_time,omitempty"`
}
