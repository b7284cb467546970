package tests

import (
	"context"
	"testing"

	"github.com/arvand/waitline/app/dto"
	businessflow "github.com/arvand/waitline/business_flow"
	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/repository"
	testingutil "github.com/arvand/waitline/testing"
	"github.com/arvand/waitline/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketFlow(testDB *testingutil.TestDB) businessflow.TicketFlow {
	queueRepo := repository.NewQueueRepository(testDB.DB)
	ticketRepo := repository.NewTicketRepository(testDB.DB)
	seqRepo := repository.NewTicketSequenceRepository(testDB.DB)
	return businessflow.NewTicketFlow(testDB.DB, queueRepo, ticketRepo, seqRepo)
}

func TestAddTicket(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTicketFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		t.Run("AssignsSequentialNumbersAndPositions", func(t *testing.T) {
			for i := 1; i <= 3; i++ {
				result, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{
					QueueUUID: queue.UUID.String(),
				}, 1, meta)
				require.NoError(t, err)
				assert.Equal(t, i, result.Ticket.Number)
				assert.Equal(t, i, result.Ticket.Position)
				assert.Equal(t, models.TicketStatusWaiting, result.Ticket.Status)
			}
		})

		t.Run("DefaultsCustomerNameToNumber", func(t *testing.T) {
			result, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{
				QueueUUID: queue.UUID.String(),
			}, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, "Customer 4", result.Ticket.CustomerName)
		})

		t.Run("KeepsProvidedCustomerName", func(t *testing.T) {
			result, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{
				QueueUUID:    queue.UUID.String(),
				CustomerName: utils.ToPtr("  Sara  "),
			}, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, "Sara", result.Ticket.CustomerName)
		})

		t.Run("RejectsInactiveQueue", func(t *testing.T) {
			inactive, err := fixtures.CreateTestQueue(1, "Closed Desk")
			require.NoError(t, err)
			err = testDB.DB.Model(&models.Queue{}).Where("id = ?", inactive.ID).
				Update("is_active", false).Error
			require.NoError(t, err)

			_, err = flow.AddTicket(context.Background(), &dto.CreateTicketRequest{
				QueueUUID: inactive.UUID.String(),
			}, 1, meta)
			assert.True(t, businessflow.IsQueueInactive(err))
		})

		t.Run("RejectsForeignQueue", func(t *testing.T) {
			_, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{
				QueueUUID: queue.UUID.String(),
			}, 99, meta)
			assert.True(t, businessflow.IsQueueAccessDenied(err))
		})

		t.Run("UnknownQueueIsNotFound", func(t *testing.T) {
			_, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{
				QueueUUID: "7b6a3f1e-9f5c-4f5a-8e2d-111111111111",
			}, 1, meta)
			assert.True(t, businessflow.IsQueueNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTicketNumbersNeverReused(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTicketFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		first, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
		require.NoError(t, err)
		second, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Ticket.Number)
		assert.Equal(t, 2, second.Ticket.Number)

		// Deleting the highest-numbered ticket must not free its number
		_, err = flow.DeleteTicket(context.Background(), second.Ticket.UUID, 1, meta)
		require.NoError(t, err)

		third, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
		require.NoError(t, err)
		assert.Equal(t, 3, third.Ticket.Number)

		return nil
	})
	require.NoError(t, err)
}

func TestMoveTicket(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTicketFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		var created []dto.TicketDTO
		for i := 0; i < 3; i++ {
			result, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
			require.NoError(t, err)
			created = append(created, result.Ticket)
		}

		t.Run("MoveUpSwapsWithNeighbor", func(t *testing.T) {
			result, err := flow.MoveUp(context.Background(), created[1].UUID, 1, meta)
			require.NoError(t, err)
			assert.True(t, result.Moved)
			assert.Equal(t, 1, result.Ticket.Position)

			// The former front ticket dropped to position 2
			list, err := flow.ListTickets(context.Background(), queue.UUID.String(), utils.ToPtr(models.TicketStatusWaiting), 1, meta)
			require.NoError(t, err)
			require.Len(t, list.Tickets, 3)
			assert.Equal(t, created[1].UUID, list.Tickets[0].UUID)
			assert.Equal(t, created[0].UUID, list.Tickets[1].UUID)
			assert.Equal(t, created[2].UUID, list.Tickets[2].UUID)
		})

		t.Run("MoveUpAtFrontRejected", func(t *testing.T) {
			_, err := flow.MoveUp(context.Background(), created[1].UUID, 1, meta)
			assert.True(t, businessflow.IsIllegalTransition(err))
		})

		t.Run("MoveDownSwapsWithNeighbor", func(t *testing.T) {
			result, err := flow.MoveDown(context.Background(), created[0].UUID, 1, meta)
			require.NoError(t, err)
			assert.True(t, result.Moved)
			assert.Equal(t, 3, result.Ticket.Position)
		})

		t.Run("MoveDownAtBackRejected", func(t *testing.T) {
			_, err := flow.MoveDown(context.Background(), created[0].UUID, 1, meta)
			assert.True(t, businessflow.IsIllegalTransition(err))
		})

		t.Run("MoveNonWaitingRejected", func(t *testing.T) {
			front, err := flow.ListTickets(context.Background(), queue.UUID.String(), utils.ToPtr(models.TicketStatusWaiting), 1, meta)
			require.NoError(t, err)
			assigned, err := flow.AssignTicket(context.Background(), front.Tickets[0].UUID, 1, meta)
			require.NoError(t, err)

			_, err = flow.MoveUp(context.Background(), assigned.Ticket.UUID, 1, meta)
			assert.True(t, businessflow.IsIllegalTransition(err))
			_, err = flow.MoveDown(context.Background(), assigned.Ticket.UUID, 1, meta)
			assert.True(t, businessflow.IsIllegalTransition(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAssignTicket(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTicketFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		first, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
		require.NoError(t, err)
		second, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
		require.NoError(t, err)

		t.Run("AssignSetsServingAndCalledAt", func(t *testing.T) {
			result, err := flow.AssignTicket(context.Background(), first.Ticket.UUID, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, models.TicketStatusServing, result.Ticket.Status)
			require.NotNil(t, result.Ticket.CalledAt)
			// Position is frozen, the waiting line behind does not shift
			assert.Equal(t, 1, result.Ticket.Position)

			waiting, err := flow.ListTickets(context.Background(), queue.UUID.String(), utils.ToPtr(models.TicketStatusWaiting), 1, meta)
			require.NoError(t, err)
			require.Len(t, waiting.Tickets, 1)
			assert.Equal(t, 2, waiting.Tickets[0].Position)
		})

		t.Run("SecondAssignConflictsWithServingTicket", func(t *testing.T) {
			_, err := flow.AssignTicket(context.Background(), second.Ticket.UUID, 1, meta)
			require.Error(t, err)
			assert.True(t, businessflow.IsServingConflict(err))

			var conflict *businessflow.ServingConflictError
			require.ErrorAs(t, err, &conflict)
			require.NotNil(t, conflict.ServingTicket)
			assert.Equal(t, first.Ticket.UUID, conflict.ServingTicket.UUID.String())
		})

		t.Run("AssignAfterCompleteSucceeds", func(t *testing.T) {
			_, err := flow.CompleteTicket(context.Background(), first.Ticket.UUID, 1, meta)
			require.NoError(t, err)

			result, err := flow.AssignTicket(context.Background(), second.Ticket.UUID, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, models.TicketStatusServing, result.Ticket.Status)
		})

		t.Run("AssignServingTicketRejected", func(t *testing.T) {
			_, err := flow.AssignTicket(context.Background(), second.Ticket.UUID, 1, meta)
			// The serving ticket itself blocks before the transition check
			assert.True(t, businessflow.IsServingConflict(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCompleteAndCancelTicket(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTicketFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		t.Run("CompleteRecordsWaitTime", func(t *testing.T) {
			created, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
			require.NoError(t, err)
			_, err = flow.AssignTicket(context.Background(), created.Ticket.UUID, 1, meta)
			require.NoError(t, err)

			result, err := flow.CompleteTicket(context.Background(), created.Ticket.UUID, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, models.TicketStatusCompleted, result.Ticket.Status)
			require.NotNil(t, result.Ticket.CompletedAt)
			// Called and completed within the same test run round to zero minutes
			assert.Equal(t, 0, result.Ticket.WaitTime)
		})

		t.Run("CompleteWaitingRejected", func(t *testing.T) {
			created, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
			require.NoError(t, err)

			_, err = flow.CompleteTicket(context.Background(), created.Ticket.UUID, 1, meta)
			assert.True(t, businessflow.IsIllegalTransition(err))
		})

		t.Run("CancelWaiting", func(t *testing.T) {
			created, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
			require.NoError(t, err)

			result, err := flow.CancelTicket(context.Background(), created.Ticket.UUID, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, models.TicketStatusCancelled, result.Ticket.Status)
		})

		t.Run("CancelServing", func(t *testing.T) {
			created, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
			require.NoError(t, err)
			_, err = flow.AssignTicket(context.Background(), created.Ticket.UUID, 1, meta)
			require.NoError(t, err)

			result, err := flow.CancelTicket(context.Background(), created.Ticket.UUID, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, models.TicketStatusCancelled, result.Ticket.Status)
		})

		t.Run("CancelTerminalRejected", func(t *testing.T) {
			created, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
			require.NoError(t, err)
			_, err = flow.CancelTicket(context.Background(), created.Ticket.UUID, 1, meta)
			require.NoError(t, err)

			_, err = flow.CancelTicket(context.Background(), created.Ticket.UUID, 1, meta)
			assert.True(t, businessflow.IsIllegalTransition(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteTicket(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTicketFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		var created []dto.TicketDTO
		for i := 0; i < 4; i++ {
			result, err := flow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: queue.UUID.String()}, 1, meta)
			require.NoError(t, err)
			created = append(created, result.Ticket)
		}

		t.Run("DeleteWaitingClosesPositionGap", func(t *testing.T) {
			_, err := flow.DeleteTicket(context.Background(), created[1].UUID, 1, meta)
			require.NoError(t, err)

			list, err := flow.ListTickets(context.Background(), queue.UUID.String(), utils.ToPtr(models.TicketStatusWaiting), 1, meta)
			require.NoError(t, err)
			require.Len(t, list.Tickets, 3)
			for i, ticket := range list.Tickets {
				assert.Equal(t, i+1, ticket.Position)
			}
			assert.Equal(t, created[0].UUID, list.Tickets[0].UUID)
			assert.Equal(t, created[2].UUID, list.Tickets[1].UUID)
			assert.Equal(t, created[3].UUID, list.Tickets[2].UUID)
		})

		t.Run("DeleteTerminalDoesNotShift", func(t *testing.T) {
			_, err := flow.CancelTicket(context.Background(), created[0].UUID, 1, meta)
			require.NoError(t, err)
			_, err = flow.DeleteTicket(context.Background(), created[0].UUID, 1, meta)
			require.NoError(t, err)

			list, err := flow.ListTickets(context.Background(), queue.UUID.String(), utils.ToPtr(models.TicketStatusWaiting), 1, meta)
			require.NoError(t, err)
			require.Len(t, list.Tickets, 2)
		})

		t.Run("DeleteUnknownTicketIsNotFound", func(t *testing.T) {
			_, err := flow.DeleteTicket(context.Background(), created[1].UUID, 1, meta)
			assert.True(t, businessflow.IsTicketNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

// Complete and Cancel race on the same serving ticket. The status check runs
// again on the row read inside the transaction, so only one of the two may
// reach a terminal state and the loser must see an illegal transition.
func TestConcurrentTerminalTransitions(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTicketFlow(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		for round := 0; round < 10; round++ {
			ticket, err := fixtures.CreateTestTicket(queue.ID, round+1, models.TicketStatusServing)
			require.NoError(t, err)

			start := make(chan struct{})
			results := make(chan error, 2)
			go func() {
				<-start
				_, err := flow.CompleteTicket(context.Background(), ticket.UUID.String(), 1, meta)
				results <- err
			}()
			go func() {
				<-start
				_, err := flow.CancelTicket(context.Background(), ticket.UUID.String(), 1, meta)
				results <- err
			}()
			close(start)

			failures := 0
			for i := 0; i < 2; i++ {
				if err := <-results; err != nil {
					failures++
					assert.True(t, businessflow.IsIllegalTransition(err))
				}
			}
			require.Equal(t, 1, failures)

			var current models.Ticket
			require.NoError(t, testDB.DB.Where("id = ?", ticket.ID).First(&current).Error)
			require.True(t, models.IsTerminalStatus(current.Status))
			if current.Status == models.TicketStatusCancelled {
				assert.Nil(t, current.CompletedAt)
				assert.Zero(t, current.WaitTime)
			} else {
				assert.NotNil(t, current.CompletedAt)
			}
		}

		return nil
	})
	require.NoError(t, err)
}
