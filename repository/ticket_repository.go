package repository

import (
	"context"
	"fmt"

	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketRepositoryImpl implements TicketRepository interface
type TicketRepositoryImpl struct {
	*BaseRepository[models.Ticket, models.TicketFilter]
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &TicketRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Ticket, models.TicketFilter](db),
	}
}

// ByUUID retrieves a ticket by UUID
func (r *TicketRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Ticket, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, nil
	}
	rows, err := r.ByFilter(ctx, models.TicketFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListByQueue lists a queue's tickets. Waiting tickets come ordered by
// position, everything else by creation time descending.
func (r *TicketRepositoryImpl) ListByQueue(ctx context.Context, queueID uint, status *string) ([]*models.Ticket, error) {
	orderBy := "created_at DESC"
	if status != nil && *status == models.TicketStatusWaiting {
		orderBy = "position ASC"
	}
	return r.ByFilter(ctx, models.TicketFilter{QueueID: &queueID, Status: status}, orderBy, 0, 0)
}

// WaitingByQueue lists the queue's waiting tickets in position order
func (r *TicketRepositoryImpl) WaitingByQueue(ctx context.Context, queueID uint) ([]*models.Ticket, error) {
	status := models.TicketStatusWaiting
	return r.ByFilter(ctx, models.TicketFilter{QueueID: &queueID, Status: &status}, "position ASC", 0, 0)
}

// ServingByQueue returns the queue's serving ticket, nil when none
func (r *TicketRepositoryImpl) ServingByQueue(ctx context.Context, queueID uint) (*models.Ticket, error) {
	status := models.TicketStatusServing
	rows, err := r.ByFilter(ctx, models.TicketFilter{QueueID: &queueID, Status: &status}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// WaitingByQueueAndPosition returns the waiting ticket at a position, nil when absent
func (r *TicketRepositoryImpl) WaitingByQueueAndPosition(ctx context.Context, queueID uint, position int) (*models.Ticket, error) {
	status := models.TicketStatusWaiting
	rows, err := r.ByFilter(ctx, models.TicketFilter{QueueID: &queueID, Status: &status, Position: &position}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// MaxPosition returns the highest position over all tickets in the queue, 0 when empty
func (r *TicketRepositoryImpl) MaxPosition(ctx context.Context, queueID uint) (int, error) {
	db := r.getDB(ctx)
	var max int
	err := db.Model(&models.Ticket{}).
		Where("queue_id = ?", queueID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get max position for queue %d: %w", queueID, err)
	}
	return max, nil
}

// Update persists changes to an existing ticket
func (r *TicketRepositoryImpl) Update(ctx context.Context, ticket *models.Ticket) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	ticket.UpdatedAt = utils.UTCNow()
	err = db.Save(ticket).Error
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticket.ID, err)
	}
	return nil
}

// Delete removes a ticket row
func (r *TicketRepositoryImpl) Delete(ctx context.Context, ticketID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Delete(&models.Ticket{}, ticketID).Error
	if err != nil {
		return fmt.Errorf("failed to delete ticket %d: %w", ticketID, err)
	}
	return nil
}

// ShiftWaitingPositionsAfter decrements the position of every waiting ticket
// in the queue whose position is greater than the given one. Single UPDATE so
// the contiguity invariant is restored atomically.
func (r *TicketRepositoryImpl) ShiftWaitingPositionsAfter(ctx context.Context, queueID uint, position int) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Ticket{}).
		Where("queue_id = ? AND status = ? AND position > ?", queueID, models.TicketStatusWaiting, position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return fmt.Errorf("failed to shift positions in queue %d: %w", queueID, err)
	}
	return nil
}

// DeleteByQueue removes every ticket of a queue
func (r *TicketRepositoryImpl) DeleteByQueue(ctx context.Context, queueID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Where("queue_id = ?", queueID).Delete(&models.Ticket{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete tickets of queue %d: %w", queueID, err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TicketRepositoryImpl) applyFilter(query *gorm.DB, filter models.TicketFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.QueueID != nil {
		query = query.Where("queue_id = ?", *filter.QueueID)
	}
	if filter.Number != nil {
		query = query.Where("number = ?", *filter.Number)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Position != nil {
		query = query.Where("position = ?", *filter.Position)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.CompletedAfter != nil {
		query = query.Where("completed_at >= ?", *filter.CompletedAfter)
	}
	if filter.MinWaitTime != nil {
		query = query.Where("wait_time > ?", *filter.MinWaitTime)
	}
	return query
}

// ByFilter retrieves tickets based on filter criteria
func (r *TicketRepositoryImpl) ByFilter(ctx context.Context, filter models.TicketFilter, orderBy string, limit, offset int) ([]*models.Ticket, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Ticket{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Ticket
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of tickets matching filter
func (r *TicketRepositoryImpl) Count(ctx context.Context, filter models.TicketFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Ticket{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any ticket matches the filter
func (r *TicketRepositoryImpl) Exists(ctx context.Context, filter models.TicketFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
