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

func newQueueFlows(testDB *testingutil.TestDB) (businessflow.QueueFlow, businessflow.TicketFlow) {
	queueRepo := repository.NewQueueRepository(testDB.DB)
	ticketRepo := repository.NewTicketRepository(testDB.DB)
	seqRepo := repository.NewTicketSequenceRepository(testDB.DB)
	return businessflow.NewQueueFlow(testDB.DB, queueRepo, ticketRepo, seqRepo),
		businessflow.NewTicketFlow(testDB.DB, queueRepo, ticketRepo, seqRepo)
}

func TestCreateQueue(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, _ := newQueueFlows(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		t.Run("Success", func(t *testing.T) {
			result, err := flow.CreateQueue(context.Background(), &dto.CreateQueueRequest{
				Name:        "  Front Desk  ",
				Description: utils.ToPtr("Walk-in visitors"),
			}, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, "Front Desk", result.Queue.Name)
			require.NotNil(t, result.Queue.Description)
			assert.Equal(t, "Walk-in visitors", *result.Queue.Description)
			assert.True(t, result.Queue.IsActive)
			assert.NotEmpty(t, result.Queue.UUID)
		})

		t.Run("DuplicateNameRejected", func(t *testing.T) {
			_, err := flow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Front Desk"}, 1, meta)
			assert.True(t, businessflow.IsQueueNameTaken(err))
		})

		t.Run("SameNameOtherOwnerAllowed", func(t *testing.T) {
			_, err := flow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Front Desk"}, 2, meta)
			assert.NoError(t, err)
		})

		t.Run("BlankNameRejected", func(t *testing.T) {
			_, err := flow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "   "}, 1, meta)
			require.Error(t, err)
			var be *businessflow.BusinessError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, "INVALID_NAME", be.Code)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestGetAndListQueues(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		queueFlow, ticketFlow := newQueueFlows(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		created, err := queueFlow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Pharmacy"}, 1, meta)
		require.NoError(t, err)
		_, err = queueFlow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Lab"}, 1, meta)
		require.NoError(t, err)
		_, err = queueFlow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Other Owner"}, 2, meta)
		require.NoError(t, err)

		t.Run("ListReturnsOnlyOwnQueues", func(t *testing.T) {
			result, err := queueFlow.ListQueues(context.Background(), 1, meta)
			require.NoError(t, err)
			require.Len(t, result.Queues, 2)
			for _, q := range result.Queues {
				assert.NotEqual(t, "Other Owner", q.Name)
			}
		})

		t.Run("DetailIncludesWaitingLineAndServing", func(t *testing.T) {
			first, err := ticketFlow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: created.Queue.UUID}, 1, meta)
			require.NoError(t, err)
			_, err = ticketFlow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: created.Queue.UUID}, 1, meta)
			require.NoError(t, err)
			_, err = ticketFlow.AssignTicket(context.Background(), first.Ticket.UUID, 1, meta)
			require.NoError(t, err)

			detail, err := queueFlow.GetQueue(context.Background(), created.Queue.UUID, 1, meta)
			require.NoError(t, err)
			require.Len(t, detail.WaitingTickets, 1)
			require.NotNil(t, detail.ServingTicket)
			assert.Equal(t, first.Ticket.UUID, detail.ServingTicket.UUID)
			assert.Equal(t, int64(1), detail.Counts.Waiting)
			assert.Equal(t, int64(1), detail.Counts.Serving)
			assert.Equal(t, int64(0), detail.Counts.Completed)
		})

		t.Run("GetForeignQueueDenied", func(t *testing.T) {
			_, err := queueFlow.GetQueue(context.Background(), created.Queue.UUID, 2, meta)
			assert.True(t, businessflow.IsQueueAccessDenied(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUpdateQueue(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow, _ := newQueueFlows(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		created, err := flow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Pharmacy"}, 1, meta)
		require.NoError(t, err)
		_, err = flow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Lab"}, 1, meta)
		require.NoError(t, err)

		t.Run("RenameAndDeactivate", func(t *testing.T) {
			result, err := flow.UpdateQueue(context.Background(), created.Queue.UUID, &dto.UpdateQueueRequest{
				Name:     utils.ToPtr("Pharmacy West"),
				IsActive: utils.ToPtr(false),
			}, 1, meta)
			require.NoError(t, err)
			assert.Equal(t, "Pharmacy West", result.Queue.Name)
			assert.False(t, result.Queue.IsActive)
		})

		t.Run("RenameToTakenNameRejected", func(t *testing.T) {
			_, err := flow.UpdateQueue(context.Background(), created.Queue.UUID, &dto.UpdateQueueRequest{
				Name: utils.ToPtr("Lab"),
			}, 1, meta)
			assert.True(t, businessflow.IsQueueNameTaken(err))
		})

		t.Run("KeepingOwnNameAllowed", func(t *testing.T) {
			_, err := flow.UpdateQueue(context.Background(), created.Queue.UUID, &dto.UpdateQueueRequest{
				Name: utils.ToPtr("Pharmacy West"),
			}, 1, meta)
			assert.NoError(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteQueue(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		queueFlow, ticketFlow := newQueueFlows(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		created, err := queueFlow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Pharmacy"}, 1, meta)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err := ticketFlow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: created.Queue.UUID}, 1, meta)
			require.NoError(t, err)
		}

		result, err := queueFlow.DeleteQueue(context.Background(), created.Queue.UUID, 1, meta)
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.DeletedTickets)

		// Queue, tickets and the number sequence are all gone
		_, err = queueFlow.GetQueue(context.Background(), created.Queue.UUID, 1, meta)
		assert.True(t, businessflow.IsQueueNotFound(err))

		var ticketCount, seqCount int64
		require.NoError(t, testDB.DB.Model(&models.Ticket{}).Count(&ticketCount).Error)
		require.NoError(t, testDB.DB.Model(&models.TicketSequence{}).Count(&seqCount).Error)
		assert.Zero(t, ticketCount)
		assert.Zero(t, seqCount)

		return nil
	})
	require.NoError(t, err)
}

func TestQueueStats(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		queueFlow, ticketFlow := newQueueFlows(testDB)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		created, err := queueFlow.CreateQueue(context.Background(), &dto.CreateQueueRequest{Name: "Pharmacy"}, 1, meta)
		require.NoError(t, err)

		first, err := ticketFlow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: created.Queue.UUID}, 1, meta)
		require.NoError(t, err)
		_, err = ticketFlow.AddTicket(context.Background(), &dto.CreateTicketRequest{QueueUUID: created.Queue.UUID}, 1, meta)
		require.NoError(t, err)
		_, err = ticketFlow.AssignTicket(context.Background(), first.Ticket.UUID, 1, meta)
		require.NoError(t, err)
		_, err = ticketFlow.CompleteTicket(context.Background(), first.Ticket.UUID, 1, meta)
		require.NoError(t, err)

		stats, err := queueFlow.QueueStats(context.Background(), created.Queue.UUID, 1, meta)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Counts.Waiting)
		assert.Equal(t, int64(1), stats.Counts.Completed)
		require.Len(t, stats.Daily, 1)
		assert.Equal(t, int64(2), stats.Daily[0].Count)

		return nil
	})
	require.NoError(t, err)
}
