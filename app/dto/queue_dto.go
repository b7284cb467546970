// Package dto contains request and response structures for the API
package dto

// CreateQueueRequest represents the payload for creating a queue
type CreateQueueRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateQueueRequest represents the payload for updating a queue
type UpdateQueueRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// QueueDTO represents a queue in API responses
type QueueDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// StatusCounts holds per-status ticket counts for a queue
type StatusCounts struct {
	Waiting   int64 `json:"waiting"`
	Serving   int64 `json:"serving"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// CreateQueueResponse is returned after queue creation
type CreateQueueResponse struct {
	Message string   `json:"message"`
	Queue   QueueDTO `json:"queue"`
}

// ListQueuesResponse lists an operator's queues
type ListQueuesResponse struct {
	Message string     `json:"message"`
	Queues  []QueueDTO `json:"queues"`
}

// QueueDetailResponse is the full queue view: waiting line in order, the
// serving ticket if any, and per-status counts
type QueueDetailResponse struct {
	Message        string       `json:"message"`
	Queue          QueueDTO     `json:"queue"`
	WaitingTickets []TicketDTO  `json:"waiting_tickets"`
	ServingTicket  *TicketDTO   `json:"serving_ticket,omitempty"`
	Counts         StatusCounts `json:"counts"`
}

// UpdateQueueResponse is returned after a queue update
type UpdateQueueResponse struct {
	Message string   `json:"message"`
	Queue   QueueDTO `json:"queue"`
}

// DeleteQueueResponse is returned after cascade deletion
type DeleteQueueResponse struct {
	Message        string `json:"message"`
	DeletedTickets int64  `json:"deleted_tickets"`
}

// DailyCount is a per-day ticket count bucket
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// QueueStatsResponse is the lightweight stats view on the queue surface
type QueueStatsResponse struct {
	Message     string       `json:"message"`
	Counts      StatusCounts `json:"counts"`
	AvgWaitTime float64      `json:"avg_wait_time"`
	Daily       []DailyCount `json:"daily"`
}
