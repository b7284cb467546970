// Package businessflow contains the business logic for the application.
package businessflow

import (
	"fmt"
	"time"

	"github.com/arvand/waitline/app/dto"
	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for logging and tracing
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToQueueDTO converts a queue model for API responses
func ToQueueDTO(queue models.Queue) dto.QueueDTO {
	return dto.QueueDTO{
		ID:          queue.ID,
		UUID:        queue.UUID.String(),
		Name:        queue.Name,
		Description: queue.Description,
		IsActive:    utils.IsTrue(queue.IsActive),
		CreatedAt:   queue.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   queue.UpdatedAt.Format(time.RFC3339),
	}
}

// ToTicketDTO converts a ticket model for API responses
func ToTicketDTO(ticket models.Ticket) dto.TicketDTO {
	d := dto.TicketDTO{
		ID:           ticket.ID,
		UUID:         ticket.UUID.String(),
		Number:       ticket.Number,
		CustomerName: displayName(ticket),
		Status:       ticket.Status,
		Position:     ticket.Position,
		CreatedAt:    ticket.CreatedAt.Format(time.RFC3339),
		WaitTime:     ticket.WaitTime,
	}
	if ticket.CalledAt != nil {
		d.CalledAt = utils.ToPtr(ticket.CalledAt.Format(time.RFC3339))
	}
	if ticket.CompletedAt != nil {
		d.CompletedAt = utils.ToPtr(ticket.CompletedAt.Format(time.RFC3339))
	}
	if ticket.Queue != nil {
		d.QueueUUID = ticket.Queue.UUID.String()
	}
	return d
}

// displayName falls back to "Customer N" when no name was given at creation
func displayName(ticket models.Ticket) string {
	if ticket.CustomerName != nil && *ticket.CustomerName != "" {
		return *ticket.CustomerName
	}
	return fmt.Sprintf("Customer %d", ticket.Number)
}
