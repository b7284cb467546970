// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/arvand/waitline/models"
	testingutil "github.com/arvand/waitline/testing"
	"github.com/arvand/waitline/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedTransition(t *testing.T) {
	cases := []struct {
		name string
		op   models.TicketOperation
		from string
		to   string
		ok   bool
	}{
		{"AssignWaiting", models.OpAssign, models.TicketStatusWaiting, models.TicketStatusServing, true},
		{"AssignServing", models.OpAssign, models.TicketStatusServing, "", false},
		{"AssignCompleted", models.OpAssign, models.TicketStatusCompleted, "", false},
		{"CompleteServing", models.OpComplete, models.TicketStatusServing, models.TicketStatusCompleted, true},
		{"CompleteWaiting", models.OpComplete, models.TicketStatusWaiting, "", false},
		{"CompleteCancelled", models.OpComplete, models.TicketStatusCancelled, "", false},
		{"CancelWaiting", models.OpCancel, models.TicketStatusWaiting, models.TicketStatusCancelled, true},
		{"CancelServing", models.OpCancel, models.TicketStatusServing, models.TicketStatusCancelled, true},
		{"CancelCompleted", models.OpCancel, models.TicketStatusCompleted, "", false},
		{"CancelCancelled", models.OpCancel, models.TicketStatusCancelled, "", false},
		{"MoveUpWaiting", models.OpMoveUp, models.TicketStatusWaiting, models.TicketStatusWaiting, true},
		{"MoveUpServing", models.OpMoveUp, models.TicketStatusServing, "", false},
		{"MoveDownWaiting", models.OpMoveDown, models.TicketStatusWaiting, models.TicketStatusWaiting, true},
		{"MoveDownCompleted", models.OpMoveDown, models.TicketStatusCompleted, "", false},
		{"UnknownOperation", models.TicketOperation("promote"), models.TicketStatusWaiting, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			to, ok := models.AllowedTransition(tc.op, tc.from)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.to, to)
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, models.IsTerminalStatus(models.TicketStatusCompleted))
	assert.True(t, models.IsTerminalStatus(models.TicketStatusCancelled))
	assert.False(t, models.IsTerminalStatus(models.TicketStatusWaiting))
	assert.False(t, models.IsTerminalStatus(models.TicketStatusServing))
}

func TestQueueModel(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		t.Run("TableName", func(t *testing.T) {
			assert.Equal(t, "queues", models.Queue{}.TableName())
			assert.Equal(t, "tickets", models.Ticket{}.TableName())
			assert.Equal(t, "ticket_sequences", models.TicketSequence{}.TableName())
		})

		t.Run("CreateQueue", func(t *testing.T) {
			queue, err := fixtures.CreateTestQueue(1, "Front Desk")
			require.NoError(t, err)
			assert.NotZero(t, queue.ID)
			assert.NotEmpty(t, queue.UUID)
			assert.Equal(t, "Front Desk", queue.Name)
			assert.True(t, utils.IsTrue(queue.IsActive))
			assert.False(t, queue.CreatedAt.IsZero())
		})

		t.Run("DuplicateNameSameOwnerRejected", func(t *testing.T) {
			_, err := fixtures.CreateTestQueue(2, "Pharmacy")
			require.NoError(t, err)
			_, err = fixtures.CreateTestQueue(2, "Pharmacy")
			assert.Error(t, err)
		})

		t.Run("SameNameDifferentOwnerAllowed", func(t *testing.T) {
			_, err := fixtures.CreateTestQueue(3, "Reception")
			require.NoError(t, err)
			_, err = fixtures.CreateTestQueue(4, "Reception")
			assert.NoError(t, err)
		})

		t.Run("CreateTicketDefaults", func(t *testing.T) {
			queue, err := fixtures.CreateTestQueue(5, "")
			require.NoError(t, err)

			ticket, err := fixtures.CreateTestTicket(queue.ID, 1, "")
			require.NoError(t, err)
			assert.NotEmpty(t, ticket.UUID)
			assert.Equal(t, models.TicketStatusWaiting, ticket.Status)
			assert.Equal(t, 1, ticket.Number)
			assert.Equal(t, 1, ticket.Position)
			assert.Nil(t, ticket.CalledAt)
			assert.Zero(t, ticket.WaitTime)
		})

		return nil
	})
	require.NoError(t, err)
}
