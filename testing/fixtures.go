// Package testing provides test utilities and database setup for testing the queue management system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestQueue creates a queue owned by the given operator
func (tf *TestFixtures) CreateTestQueue(ownerID uint, name string) (*models.Queue, error) {
	if name == "" {
		name = fmt.Sprintf("Queue %d", rand.Intn(100000))
	}

	queue := &models.Queue{
		Name:     name,
		OwnerID:  ownerID,
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(queue).Error; err != nil {
		return nil, fmt.Errorf("failed to create test queue: %w", err)
	}

	return queue, nil
}

// CreateTestTicket creates a ticket in the given queue, bumping the queue
// sequence the same way the production path does
func (tf *TestFixtures) CreateTestTicket(queueID uint, position int, status string) (*models.Ticket, error) {
	if status == "" {
		status = models.TicketStatusWaiting
	}

	var number int64
	err := tf.DB.DB.Raw(`
		INSERT INTO ticket_sequences (queue_id, last_number)
		VALUES (?, 1)
		ON CONFLICT (queue_id)
		DO UPDATE SET last_number = ticket_sequences.last_number + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING last_number`, queueID).Scan(&number).Error
	if err != nil {
		return nil, fmt.Errorf("failed to bump ticket sequence: %w", err)
	}

	ticket := &models.Ticket{
		QueueID:  queueID,
		Number:   int(number),
		Status:   status,
		Position: position,
	}

	switch status {
	case models.TicketStatusServing:
		ticket.CalledAt = utils.UTCNowPtr()
	case models.TicketStatusCompleted:
		called := utils.UTCNow().Add(-10 * time.Minute)
		ticket.CalledAt = &called
		ticket.CompletedAt = utils.UTCNowPtr()
		ticket.WaitTime = 10
	}

	if err := tf.DB.DB.Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create test ticket: %w", err)
	}

	return ticket, nil
}
