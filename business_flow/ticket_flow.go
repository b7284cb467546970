package businessflow

import (
	"context"
	"log"
	"math"
	"strings"

	"github.com/arvand/waitline/app/dto"
	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/repository"
	"github.com/arvand/waitline/utils"
	"gorm.io/gorm"
)

// ticketQueueLocks serializes all state-changing ticket operations per queue.
// Shared with the queue flow so cascade deletion excludes concurrent ticket
// operations on the same queue.
var ticketQueueLocks = newQueueLocks()

// TicketFlow defines the ordering and state operations on tickets
type TicketFlow interface {
	AddTicket(ctx context.Context, req *dto.CreateTicketRequest, ownerID uint, metadata *ClientMetadata) (*dto.CreateTicketResponse, error)
	MoveUp(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.MoveTicketResponse, error)
	MoveDown(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.MoveTicketResponse, error)
	AssignTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.TicketResponse, error)
	CompleteTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.TicketResponse, error)
	CancelTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.TicketResponse, error)
	DeleteTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.DeleteTicketResponse, error)
	ListTickets(ctx context.Context, queueUUID string, status *string, ownerID uint, metadata *ClientMetadata) (*dto.ListTicketsResponse, error)
}

// TicketFlowImpl implements TicketFlow
type TicketFlowImpl struct {
	db         *gorm.DB
	queueRepo  repository.QueueRepository
	ticketRepo repository.TicketRepository
	seqRepo    repository.TicketSequenceRepository
}

func NewTicketFlow(db *gorm.DB, queueRepo repository.QueueRepository, ticketRepo repository.TicketRepository, seqRepo repository.TicketSequenceRepository) TicketFlow {
	return &TicketFlowImpl{db: db, queueRepo: queueRepo, ticketRepo: ticketRepo, seqRepo: seqRepo}
}

const maxCustomerNameLen = 100

// getOwnedQueue loads a queue by UUID and verifies ownership
func getOwnedQueue(ctx context.Context, repo repository.QueueRepository, queueUUID string, ownerID uint) (*models.Queue, error) {
	queue, err := repo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		return nil, ErrQueueNotFound
	}
	if queue.OwnerID != ownerID {
		return nil, ErrQueueAccessDenied
	}
	return queue, nil
}

// getOwnedTicket loads a ticket by UUID along with its queue and verifies ownership
func (f *TicketFlowImpl) getOwnedTicket(ctx context.Context, ticketUUID string, ownerID uint) (*models.Ticket, *models.Queue, error) {
	ticket, err := f.ticketRepo.ByUUID(ctx, ticketUUID)
	if err != nil {
		return nil, nil, err
	}
	if ticket == nil {
		return nil, nil, ErrTicketNotFound
	}
	queue, err := f.queueRepo.ByID(ctx, ticket.QueueID)
	if err != nil {
		return nil, nil, err
	}
	if queue == nil {
		return nil, nil, ErrQueueNotFound
	}
	if queue.OwnerID != ownerID {
		return nil, nil, ErrQueueAccessDenied
	}
	return ticket, queue, nil
}

func (f *TicketFlowImpl) AddTicket(ctx context.Context, req *dto.CreateTicketRequest, ownerID uint, metadata *ClientMetadata) (*dto.CreateTicketResponse, error) {
	queue, err := getOwnedQueue(ctx, f.queueRepo, req.QueueUUID, ownerID)
	if err != nil {
		return nil, err
	}
	if !utils.IsTrue(queue.IsActive) {
		return nil, ErrQueueInactive
	}

	var name *string
	if req.CustomerName != nil {
		trim := strings.TrimSpace(*req.CustomerName)
		if len([]rune(trim)) > maxCustomerNameLen {
			return nil, NewBusinessError("INVALID_CUSTOMER_NAME", "customer name must be <= 100 chars", nil)
		}
		if trim != "" {
			name = &trim
		}
	}

	var ticket models.Ticket
	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		number, err := f.seqRepo.NextNumber(txCtx, queue.ID)
		if err != nil {
			return err
		}
		maxPos, err := f.ticketRepo.MaxPosition(txCtx, queue.ID)
		if err != nil {
			return err
		}
		ticket = models.Ticket{
			QueueID:      queue.ID,
			Number:       int(number),
			CustomerName: name,
			Status:       models.TicketStatusWaiting,
			Position:     maxPos + 1,
		}
		return f.ticketRepo.Save(txCtx, &ticket)
	})
	if err != nil {
		return nil, err
	}

	return &dto.CreateTicketResponse{
		Message: "Ticket created successfully",
		Ticket:  ToTicketDTO(ticket),
	}, nil
}

func (f *TicketFlowImpl) MoveUp(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.MoveTicketResponse, error) {
	ticket, queue, err := f.getOwnedTicket(ctx, ticketUUID, ownerID)
	if err != nil {
		return nil, err
	}

	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	if _, ok := models.AllowedTransition(models.OpMoveUp, ticket.Status); !ok {
		return nil, NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot move a %s ticket", ErrIllegalTransition, ticket.Status)
	}
	if ticket.Position <= 1 {
		return nil, NewBusinessError("ILLEGAL_TRANSITION", "ticket is already at the front", ErrIllegalTransition)
	}

	moved := false
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		// Re-read inside the transaction so the swap works on current positions
		current, err := f.ticketRepo.ByID(txCtx, ticket.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTicketNotFound
		}
		if _, ok := models.AllowedTransition(models.OpMoveUp, current.Status); !ok {
			return NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot move a %s ticket", ErrIllegalTransition, current.Status)
		}
		if current.Position <= 1 {
			return NewBusinessError("ILLEGAL_TRANSITION", "ticket is already at the front", ErrIllegalTransition)
		}
		neighbor, err := f.ticketRepo.WaitingByQueueAndPosition(txCtx, queue.ID, current.Position-1)
		if err != nil {
			return err
		}
		if neighbor == nil {
			// No waiting ticket directly ahead, nothing to swap with
			ticket = current
			return nil
		}
		neighbor.Position, current.Position = current.Position, neighbor.Position
		if err := f.ticketRepo.Update(txCtx, neighbor); err != nil {
			return err
		}
		if err := f.ticketRepo.Update(txCtx, current); err != nil {
			return err
		}
		ticket = current
		moved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := "Ticket moved up"
	if !moved {
		msg = "No ticket ahead to swap with"
	}
	return &dto.MoveTicketResponse{Message: msg, Ticket: ToTicketDTO(*ticket), Moved: moved}, nil
}

func (f *TicketFlowImpl) MoveDown(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.MoveTicketResponse, error) {
	ticket, queue, err := f.getOwnedTicket(ctx, ticketUUID, ownerID)
	if err != nil {
		return nil, err
	}

	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	if _, ok := models.AllowedTransition(models.OpMoveDown, ticket.Status); !ok {
		return nil, NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot move a %s ticket", ErrIllegalTransition, ticket.Status)
	}

	moved := false
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.ticketRepo.ByID(txCtx, ticket.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTicketNotFound
		}
		if _, ok := models.AllowedTransition(models.OpMoveDown, current.Status); !ok {
			return NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot move a %s ticket", ErrIllegalTransition, current.Status)
		}
		neighbor, err := f.ticketRepo.WaitingByQueueAndPosition(txCtx, queue.ID, current.Position+1)
		if err != nil {
			return err
		}
		if neighbor == nil {
			return NewBusinessError("ILLEGAL_TRANSITION", "ticket is already last", ErrIllegalTransition)
		}
		neighbor.Position, current.Position = current.Position, neighbor.Position
		if err := f.ticketRepo.Update(txCtx, neighbor); err != nil {
			return err
		}
		if err := f.ticketRepo.Update(txCtx, current); err != nil {
			return err
		}
		ticket = current
		moved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.MoveTicketResponse{Message: "Ticket moved down", Ticket: ToTicketDTO(*ticket), Moved: moved}, nil
}

func (f *TicketFlowImpl) AssignTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.TicketResponse, error) {
	ticket, queue, err := f.getOwnedTicket(ctx, ticketUUID, ownerID)
	if err != nil {
		return nil, err
	}

	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	target, ok := models.AllowedTransition(models.OpAssign, ticket.Status)
	if !ok {
		return nil, NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot assign a %s ticket", ErrIllegalTransition, ticket.Status)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		// Check-and-set: the one-serving invariant is verified in the same
		// critical section that flips the status
		serving, err := f.ticketRepo.ServingByQueue(txCtx, queue.ID)
		if err != nil {
			return err
		}
		if serving != nil {
			return &ServingConflictError{ServingTicket: serving}
		}
		current, err := f.ticketRepo.ByID(txCtx, ticket.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTicketNotFound
		}
		if current.Status != models.TicketStatusWaiting {
			return NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot assign a %s ticket", ErrIllegalTransition, current.Status)
		}
		current.Status = target
		current.CalledAt = utils.UTCNowPtr()
		if err := f.ticketRepo.Update(txCtx, current); err != nil {
			return err
		}
		ticket = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.TicketResponse{Message: "Ticket assigned", Ticket: ToTicketDTO(*ticket)}, nil
}

func (f *TicketFlowImpl) CompleteTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.TicketResponse, error) {
	ticket, queue, err := f.getOwnedTicket(ctx, ticketUUID, ownerID)
	if err != nil {
		return nil, err
	}

	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	target, ok := models.AllowedTransition(models.OpComplete, ticket.Status)
	if !ok {
		return nil, NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot complete a %s ticket", ErrIllegalTransition, ticket.Status)
	}
	if ticket.CalledAt == nil {
		log.Printf("[invariant] serving ticket %s has no called_at", ticket.UUID)
		return nil, NewBusinessError("INVARIANT_VIOLATION", "serving ticket has no call timestamp", ErrInvariantViolation)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.ticketRepo.ByID(txCtx, ticket.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTicketNotFound
		}
		// Check-and-set: the transition is verified on the row as it is now,
		// not on the snapshot read before the lock
		if _, ok := models.AllowedTransition(models.OpComplete, current.Status); !ok {
			return NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot complete a %s ticket", ErrIllegalTransition, current.Status)
		}
		if current.CalledAt == nil {
			log.Printf("[invariant] serving ticket %s has no called_at", current.UUID)
			return NewBusinessError("INVARIANT_VIOLATION", "serving ticket has no call timestamp", ErrInvariantViolation)
		}
		now := utils.UTCNow()
		current.Status = target
		current.CompletedAt = &now
		current.WaitTime = int(math.Round(now.Sub(*current.CalledAt).Minutes()))
		if err := f.ticketRepo.Update(txCtx, current); err != nil {
			return err
		}
		ticket = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.TicketResponse{Message: "Ticket completed", Ticket: ToTicketDTO(*ticket)}, nil
}

func (f *TicketFlowImpl) CancelTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.TicketResponse, error) {
	ticket, queue, err := f.getOwnedTicket(ctx, ticketUUID, ownerID)
	if err != nil {
		return nil, err
	}

	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	if _, ok := models.AllowedTransition(models.OpCancel, ticket.Status); !ok {
		return nil, NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot cancel a %s ticket", ErrIllegalTransition, ticket.Status)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.ticketRepo.ByID(txCtx, ticket.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTicketNotFound
		}
		target, ok := models.AllowedTransition(models.OpCancel, current.Status)
		if !ok {
			return NewBusinessErrorf("ILLEGAL_TRANSITION", "cannot cancel a %s ticket", ErrIllegalTransition, current.Status)
		}
		current.Status = target
		if err := f.ticketRepo.Update(txCtx, current); err != nil {
			return err
		}
		ticket = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.TicketResponse{Message: "Ticket cancelled", Ticket: ToTicketDTO(*ticket)}, nil
}

func (f *TicketFlowImpl) DeleteTicket(ctx context.Context, ticketUUID string, ownerID uint, metadata *ClientMetadata) (*dto.DeleteTicketResponse, error) {
	ticket, queue, err := f.getOwnedTicket(ctx, ticketUUID, ownerID)
	if err != nil {
		return nil, err
	}

	ticketQueueLocks.lock(queue.ID)
	defer ticketQueueLocks.unlock(queue.ID)

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		current, err := f.ticketRepo.ByID(txCtx, ticket.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTicketNotFound
		}
		if err := f.ticketRepo.Delete(txCtx, current.ID); err != nil {
			return err
		}
		if current.Status == models.TicketStatusWaiting {
			return f.ticketRepo.ShiftWaitingPositionsAfter(txCtx, queue.ID, current.Position)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.DeleteTicketResponse{Message: "Ticket deleted successfully"}, nil
}

func (f *TicketFlowImpl) ListTickets(ctx context.Context, queueUUID string, status *string, ownerID uint, metadata *ClientMetadata) (*dto.ListTicketsResponse, error) {
	queue, err := getOwnedQueue(ctx, f.queueRepo, queueUUID, ownerID)
	if err != nil {
		return nil, err
	}

	rows, err := f.ticketRepo.ListByQueue(ctx, queue.ID, status)
	if err != nil {
		return nil, err
	}

	tickets := make([]dto.TicketDTO, 0, len(rows))
	for _, r := range rows {
		tickets = append(tickets, ToTicketDTO(*r))
	}
	return &dto.ListTicketsResponse{Message: "Tickets retrieved successfully", Tickets: tickets}, nil
}
