// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/arvand/waitline/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// QueueRepository defines operations for queues
type QueueRepository interface {
	Repository[models.Queue, models.QueueFilter]
	ByUUID(ctx context.Context, uuidStr string) (*models.Queue, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Queue, error)
	NameTaken(ctx context.Context, ownerID uint, name string, excludeID uint) (bool, error)
	Update(ctx context.Context, queue *models.Queue) error
	Delete(ctx context.Context, queueID uint) error
}

// TicketRepository defines operations for tickets
type TicketRepository interface {
	Repository[models.Ticket, models.TicketFilter]
	ByUUID(ctx context.Context, uuidStr string) (*models.Ticket, error)
	ListByQueue(ctx context.Context, queueID uint, status *string) ([]*models.Ticket, error)
	WaitingByQueue(ctx context.Context, queueID uint) ([]*models.Ticket, error)
	ServingByQueue(ctx context.Context, queueID uint) (*models.Ticket, error)
	WaitingByQueueAndPosition(ctx context.Context, queueID uint, position int) (*models.Ticket, error)
	MaxPosition(ctx context.Context, queueID uint) (int, error)
	Update(ctx context.Context, ticket *models.Ticket) error
	Delete(ctx context.Context, ticketID uint) error
	ShiftWaitingPositionsAfter(ctx context.Context, queueID uint, position int) error
	DeleteByQueue(ctx context.Context, queueID uint) error
}

// TicketSequenceRepository defines operations for per-queue ticket counters
type TicketSequenceRepository interface {
	NextNumber(ctx context.Context, queueID uint) (int64, error)
	DeleteByQueue(ctx context.Context, queueID uint) error
}
