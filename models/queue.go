package models

import (
	"time"

	"github.com/arvand/waitline/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Queue represents a named waiting line owned by an operator
// Table: queues
// Indices: uuid, owner_id, (owner_id, name) unique
// Name limited to 100 characters, Description to 500
// Timestamps default to UTC at DB level
type Queue struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_queues_owner_name" json:"name"`
	Description *string   `gorm:"type:varchar(500)" json:"description,omitempty"`
	OwnerID     uint      `gorm:"not null;index;uniqueIndex:idx_queues_owner_name" json:"owner_id"`
	IsActive    *bool     `gorm:"default:true;index" json:"is_active,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Queue) TableName() string { return "queues" }

// BeforeCreate ensures UUID and timestamps are set
func (q *Queue) BeforeCreate(tx *gorm.DB) error {
	if q.UUID == uuid.Nil {
		q.UUID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = utils.UTCNow()
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// QueueFilter represents filter criteria for queue queries
type QueueFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Name          *string    `json:"name,omitempty"`
	OwnerID       *uint      `json:"owner_id,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
