package businessflow

import (
	"context"
	"strings"

	"github.com/arvand/waitline/app/dto"
	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/repository"
	"github.com/arvand/waitline/utils"
	"gorm.io/gorm"
)

// QueueFlow defines operations for managing waiting lines
type QueueFlow interface {
	CreateQueue(ctx context.Context, req *dto.CreateQueueRequest, ownerID uint, metadata *ClientMetadata) (*dto.CreateQueueResponse, error)
	ListQueues(ctx context.Context, ownerID uint, metadata *ClientMetadata) (*dto.ListQueuesResponse, error)
	GetQueue(ctx context.Context, queueUUID string, ownerID uint, metadata *ClientMetadata) (*dto.QueueDetailResponse, error)
	UpdateQueue(ctx context.Context, queueUUID string, req *dto.UpdateQueueRequest, ownerID uint, metadata *ClientMetadata) (*dto.UpdateQueueResponse, error)
	DeleteQueue(ctx context.Context, queueUUID string, ownerID uint, metadata *ClientMetadata) (*dto.DeleteQueueResponse, error)
	QueueStats(ctx context.Context, queueUUID string, ownerID uint, metadata *ClientMetadata) (*dto.QueueStatsResponse, error)
}

// QueueFlowImpl implements QueueFlow
type QueueFlowImpl struct {
	db         *gorm.DB
	queueRepo  repository.QueueRepository
	ticketRepo repository.TicketRepository
	seqRepo    repository.TicketSequenceRepository
}

func NewQueueFlow(db *gorm.DB, queueRepo repository.QueueRepository, ticketRepo repository.TicketRepository, seqRepo repository.TicketSequenceRepository) QueueFlow {
	return &QueueFlowImpl{db: db, queueRepo: queueRepo, ticketRepo: ticketRepo, seqRepo: seqRepo}
}

const (
	maxQueueNameLen = 100
	maxQueueDescLen = 500
)

// normalizeQueueName trims and validates a queue name
func normalizeQueueName(name string) (string, error) {
	trim := strings.TrimSpace(name)
	if trim == "" {
		return "", NewBusinessError("INVALID_NAME", "queue name is required", nil)
	}
	if len([]rune(trim)) > maxQueueNameLen {
		return "", NewBusinessError("INVALID_NAME", "queue name must be <= 100 chars", nil)
	}
	return trim, nil
}

func normalizeDescription(desc *string) (*string, error) {
	if desc == nil {
		return nil, nil
	}
	trim := strings.TrimSpace(*desc)
	if len([]rune(trim)) > maxQueueDescLen {
		return nil, NewBusinessError("INVALID_DESCRIPTION", "description must be <= 500 chars", nil)
	}
	if trim == "" {
		return nil, nil
	}
	return &trim, nil
}

func (f *QueueFlowImpl) CreateQueue(ctx context.Context, req *dto.CreateQueueRequest, ownerID uint, metadata *ClientMetadata) (*dto.CreateQueueResponse, error) {
	name, err := normalizeQueueName(req.Name)
	if err != nil {
		return nil, err
	}
	desc, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}

	taken, err := f.queueRepo.NameTaken(ctx, ownerID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrQueueNameTaken
	}

	queue := models.Queue{
		Name:        name,
		Description: desc,
		OwnerID:     ownerID,
		IsActive:    utils.ToPtr(true),
	}
	if err := f.queueRepo.Save(ctx, &queue); err != nil {
		return nil, err
	}

	return &dto.CreateQueueResponse{
		Message: "Queue created successfully",
		Queue:   ToQueueDTO(queue),
	}, nil
}

func (f *QueueFlowImpl) ListQueues(ctx context.Context, ownerID uint, metadata *ClientMetadata) (*dto.ListQueuesResponse, error) {
	rows, err := f.queueRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	queues := make([]dto.QueueDTO, 0, len(rows))
	for _, q := range rows {
		queues = append(queues, ToQueueDTO(*q))
	}
	return &dto.ListQueuesResponse{Message: "Queues retrieved successfully", Queues: queues}, nil
}

func (f *QueueFlowImpl) GetQueue(ctx context.Context, queueUUID string, ownerID uint, metadata *ClientMetadata) (*dto.QueueDetailResponse, error) {
	queue, err := getOwnedQueue(ctx, f.queueRepo, queueUUID, ownerID)
	if err != nil {
		return nil, err
	}

	waiting, err := f.ticketRepo.WaitingByQueue(ctx, queue.ID)
	if err != nil {
		return nil, err
	}
	serving, err := f.ticketRepo.ServingByQueue(ctx, queue.ID)
	if err != nil {
		return nil, err
	}
	counts, err := f.statusCounts(ctx, queue.ID)
	if err != nil {
		return nil, err
	}

	waitingDTOs := make([]dto.TicketDTO, 0, len(waiting))
	for _, t := range waiting {
		waitingDTOs = append(waitingDTOs, ToTicketDTO(*t))
	}
	resp := &dto.QueueDetailResponse{
		Message:        "Queue retrieved successfully",
		Queue:          ToQueueDTO(*queue),
		WaitingTickets: waitingDTOs,
		Counts:         counts,
	}
	if serving != nil {
		s := ToTicketDTO(*serving)
		resp.ServingTicket = &s
	}
	return resp, nil
}

func (f *QueueFlowImpl) UpdateQueue(ctx context.Context, queueUUID string, req *dto.UpdateQueueRequest, ownerID uint, metadata *ClientMetadata) (*dto.UpdateQueueResponse, error) {
	queue, err := getOwnedQueue(ctx, f.queueRepo, queueUUID, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := normalizeQueueName(*req.Name)
		if err != nil {
			return nil, err
		}
		if name != queue.Name {
			taken, err := f.queueRepo.NameTaken(ctx, ownerID, name, queue.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrQueueNameTaken
			}
			queue.Name = name
		}
	}
	if req.Description != nil {
		desc, err := normalizeDescription(req.Description)
		if err != nil {
			return nil, err
		}
		queue.Description = desc
	}
	if req.IsActive != nil {
		queue.IsActive = req.IsActive
	}

	if err := f.queueRepo.Update(ctx, queue); err != nil {
		return nil, err
	}

	return &dto.UpdateQueueResponse{
		Message: "Queue updated successfully",
		Queue:   ToQueueDTO(*queue),
	}, nil
}

func (f *QueueFlowImpl) DeleteQueue(ctx context.Context, queueUUID string, ownerID uint, metadata *ClientMetadata) (*dto.DeleteQueueResponse, error) {
	queue, err := getOwnedQueue(ctx, f.queueRepo, queueUUID, ownerID)
	if err != nil {
		return nil, err
	}

	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	var deleted int64
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		count, err := f.ticketRepo.Count(txCtx, models.TicketFilter{QueueID: &queue.ID})
		if err != nil {
			return err
		}
		if err := f.ticketRepo.DeleteByQueue(txCtx, queue.ID); err != nil {
			return err
		}
		if err := f.seqRepo.DeleteByQueue(txCtx, queue.ID); err != nil {
			return err
		}
		if err := f.queueRepo.Delete(txCtx, queue.ID); err != nil {
			return err
		}
		deleted = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.DeleteQueueResponse{
		Message:        "Queue deleted successfully",
		DeletedTickets: deleted,
	}, nil
}

func (f *QueueFlowImpl) QueueStats(ctx context.Context, queueUUID string, ownerID uint, metadata *ClientMetadata) (*dto.QueueStatsResponse, error) {
	queue, err := getOwnedQueue(ctx, f.queueRepo, queueUUID, ownerID)
	if err != nil {
		return nil, err
	}

	counts, err := f.statusCounts(ctx, queue.ID)
	if err != nil {
		return nil, err
	}

	completed := models.TicketStatusCompleted
	withWait, err := f.ticketRepo.ByFilter(ctx, models.TicketFilter{
		QueueID:     &queue.ID,
		Status:      &completed,
		MinWaitTime: utils.ToPtr(0),
	}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	avgWait := 0.0
	if len(withWait) > 0 {
		sum := 0
		for _, t := range withWait {
			sum += t.WaitTime
		}
		avgWait = round1(float64(sum) / float64(len(withWait)))
	}

	weekAgo := utils.StartOfDay(utils.UTCNow()).AddDate(0, 0, -6)
	recent, err := f.ticketRepo.ByFilter(ctx, models.TicketFilter{
		QueueID:      &queue.ID,
		CreatedAfter: &weekAgo,
	}, "created_at ASC", 0, 0)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int64)
	order := make([]string, 0)
	for _, t := range recent {
		key := utils.DayKey(t.CreatedAt)
		if _, ok := byDay[key]; !ok {
			order = append(order, key)
		}
		byDay[key]++
	}
	daily := make([]dto.DailyCount, 0, len(order))
	for _, key := range order {
		daily = append(daily, dto.DailyCount{Date: key, Count: byDay[key]})
	}

	return &dto.QueueStatsResponse{
		Message:     "Queue stats retrieved successfully",
		Counts:      counts,
		AvgWaitTime: avgWait,
		Daily:       daily,
	}, nil
}

// statusCounts counts the queue's tickets per status
func (f *QueueFlowImpl) statusCounts(ctx context.Context, queueID uint) (dto.StatusCounts, error) {
	var counts dto.StatusCounts
	for _, s := range []struct {
		status string
		dst    *int64
	}{
		{models.TicketStatusWaiting, &counts.Waiting},
		{models.TicketStatusServing, &counts.Serving},
		{models.TicketStatusCompleted, &counts.Completed},
		{models.TicketStatusCancelled, &counts.Cancelled},
	} {
		status := s.status
		c, err := f.ticketRepo.Count(ctx, models.TicketFilter{QueueID: &queueID, Status: &status})
		if err != nil {
			return counts, err
		}
		*s.dst = c
	}
	return counts, nil
}
