package repository

import (
	"context"
	"fmt"

	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueueRepositoryImpl implements QueueRepository interface
type QueueRepositoryImpl struct {
	*BaseRepository[models.Queue, models.QueueFilter]
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &QueueRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Queue, models.QueueFilter](db),
	}
}

// ByUUID retrieves a queue by UUID
func (r *QueueRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Queue, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, nil
	}
	rows, err := r.ByFilter(ctx, models.QueueFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListByOwner lists an operator's queues, newest first
func (r *QueueRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Queue, error) {
	return r.ByFilter(ctx, models.QueueFilter{OwnerID: &ownerID}, "created_at DESC", 0, 0)
}

// NameTaken checks whether the owner already has a queue with the given name.
// excludeID skips the row being updated, 0 excludes nothing.
func (r *QueueRepositoryImpl) NameTaken(ctx context.Context, ownerID uint, name string, excludeID uint) (bool, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Queue{}).Where("owner_id = ? AND name = ?", ownerID, name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update persists changes to an existing queue
func (r *QueueRepositoryImpl) Update(ctx context.Context, queue *models.Queue) error {
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

	queue.UpdatedAt = utils.UTCNow()
	err = db.Save(queue).Error
	if err != nil {
		return fmt.Errorf("failed to update queue %d: %w", queue.ID, err)
	}
	return nil
}

// Delete removes a queue row
func (r *QueueRepositoryImpl) Delete(ctx context.Context, queueID uint) error {
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

	err = db.Delete(&models.Queue{}, queueID).Error
	if err != nil {
		return fmt.Errorf("failed to delete queue %d: %w", queueID, err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *QueueRepositoryImpl) applyFilter(query *gorm.DB, filter models.QueueFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves queues based on filter criteria
func (r *QueueRepositoryImpl) ByFilter(ctx context.Context, filter models.QueueFilter, orderBy string, limit, offset int) ([]*models.Queue, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Queue{})

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

	var rows []*models.Queue
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of queues matching filter
func (r *QueueRepositoryImpl) Count(ctx context.Context, filter models.QueueFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Queue{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any queue matches the filter
func (r *QueueRepositoryImpl) Exists(ctx context.Context, filter models.QueueFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
