package repository

import (
	"context"
	"fmt"

	"github.com/arvand/waitline/models"
	"gorm.io/gorm"
)

// TicketSequenceRepositoryImpl implements TicketSequenceRepository
type TicketSequenceRepositoryImpl struct {
	DB *gorm.DB
}

// NewTicketSequenceRepository creates a new ticket sequence repository
func NewTicketSequenceRepository(db *gorm.DB) TicketSequenceRepository {
	return &TicketSequenceRepositoryImpl{DB: db}
}

func (r *TicketSequenceRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

// NextNumber bumps and returns the queue's counter. Upsert with RETURNING so
// the bump is a single atomic statement; the row is locked for the rest of
// the surrounding transaction.
func (r *TicketSequenceRepositoryImpl) NextNumber(ctx context.Context, queueID uint) (int64, error) {
	db := r.getDB(ctx)

	var next int64
	err := db.Raw(`
		INSERT INTO ticket_sequences (queue_id, last_number, created_at, updated_at)
		VALUES (?, 1, CURRENT_TIMESTAMP AT TIME ZONE 'UTC', CURRENT_TIMESTAMP AT TIME ZONE 'UTC')
		ON CONFLICT (queue_id)
		DO UPDATE SET last_number = ticket_sequences.last_number + 1,
		              updated_at = CURRENT_TIMESTAMP AT TIME ZONE 'UTC'
		RETURNING last_number`, queueID).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to bump ticket sequence for queue %d: %w", queueID, err)
	}
	return next, nil
}

// DeleteByQueue removes the counter row of a queue
func (r *TicketSequenceRepositoryImpl) DeleteByQueue(ctx context.Context, queueID uint) error {
	db := r.getDB(ctx)
	if err := db.Where("queue_id = ?", queueID).Delete(&models.TicketSequence{}).Error; err != nil {
		return fmt.Errorf("failed to delete ticket sequence for queue %d: %w", queueID, err)
	}
	return nil
}
