package models

import "time"

// TicketSequence stores the last issued ticket number per queue. The counter
// is bumped inside the ticket creation transaction, so numbers are monotonic
// and survive deletion of the highest-numbered ticket.
type TicketSequence struct {
	QueueID    uint      `gorm:"primaryKey" json:"queue_id"`
	LastNumber int64     `gorm:"not null;default:0" json:"last_number"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (TicketSequence) TableName() string { return "ticket_sequences" }
