package dto

// CreateTicketRequest represents the payload for adding a customer to a queue
type CreateTicketRequest struct {
	QueueUUID    string  `json:"queue_uuid" validate:"required,uuid"`
	CustomerName *string `json:"customer_name,omitempty" validate:"omitempty,max=100"`
}

// TicketDTO represents a ticket in API responses
type TicketDTO struct {
	ID           uint    `json:"id"`
	UUID         string  `json:"uuid"`
	QueueUUID    string  `json:"queue_uuid,omitempty"`
	Number       int     `json:"number"`
	CustomerName string  `json:"customer_name"`
	Status       string  `json:"status"`
	Position     int     `json:"position"`
	CreatedAt    string  `json:"created_at"`
	CalledAt     *string `json:"called_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	WaitTime     int     `json:"wait_time"`
}

// CreateTicketResponse is returned after adding a ticket
type CreateTicketResponse struct {
	Message string    `json:"message"`
	Ticket  TicketDTO `json:"ticket"`
}

// TicketResponse wraps a single ticket after a state change
type TicketResponse struct {
	Message string    `json:"message"`
	Ticket  TicketDTO `json:"ticket"`
}

// MoveTicketResponse reports a reorder. Moved is false when the call was a
// no-op (no neighbor to swap with).
type MoveTicketResponse struct {
	Message string    `json:"message"`
	Ticket  TicketDTO `json:"ticket"`
	Moved   bool      `json:"moved"`
}

// ListTicketsResponse lists a queue's tickets
type ListTicketsResponse struct {
	Message string      `json:"message"`
	Tickets []TicketDTO `json:"tickets"`
}

// DeleteTicketResponse is returned after ticket deletion
type DeleteTicketResponse struct {
	Message string `json:"message"`
}
