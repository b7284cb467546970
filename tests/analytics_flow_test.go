package tests

import (
	"context"
	"testing"
	"time"

	businessflow "github.com/arvand/waitline/business_flow"
	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/repository"
	testingutil "github.com/arvand/waitline/testing"
	"github.com/arvand/waitline/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportQueue(name string) *models.Queue {
	return &models.Queue{
		ID:       1,
		UUID:     uuid.New(),
		Name:     name,
		OwnerID:  1,
		IsActive: utils.ToPtr(true),
	}
}

func reportTicket(createdAt time.Time, status string, waitTime int) *models.Ticket {
	t := &models.Ticket{
		UUID:      uuid.New(),
		QueueID:   1,
		Status:    status,
		CreatedAt: createdAt,
		WaitTime:  waitTime,
	}
	if status == models.TicketStatusCompleted {
		completed := createdAt.Add(time.Duration(waitTime) * time.Minute)
		t.CalledAt = &createdAt
		t.CompletedAt = &completed
	}
	return t
}

func TestBuildQueueReport(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	queue := reportQueue("Front Desk")

	t.Run("SummaryAndCompletionRate", func(t *testing.T) {
		tickets := []*models.Ticket{
			reportTicket(now.Add(-2*time.Hour), models.TicketStatusCompleted, 5),
			reportTicket(now.Add(-1*time.Hour), models.TicketStatusCompleted, 10),
			reportTicket(now.Add(-30*time.Minute), models.TicketStatusWaiting, 0),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		assert.Equal(t, int64(3), report.Summary.TotalTickets)
		assert.Equal(t, int64(2), report.Summary.CompletedTickets)
		assert.Equal(t, 66.7, report.Summary.CompletionRate)
		assert.Equal(t, 7.5, report.Summary.AvgWaitTime)
		assert.Equal(t, 5, report.Summary.MinWaitTime)
		assert.Equal(t, 10, report.Summary.MaxWaitTime)
	})

	t.Run("ZeroWaitTimeExcludedFromWaitStats", func(t *testing.T) {
		tickets := []*models.Ticket{
			reportTicket(now.Add(-2*time.Hour), models.TicketStatusCompleted, 0),
			reportTicket(now.Add(-1*time.Hour), models.TicketStatusCompleted, 8),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		assert.Equal(t, 8.0, report.Summary.AvgWaitTime)
		assert.Equal(t, 8, report.Summary.MinWaitTime)
		assert.Equal(t, 8, report.Summary.MaxWaitTime)
	})

	t.Run("HeadlineTotalsAreAllTimeButWindowBoundsTheRest", func(t *testing.T) {
		tickets := []*models.Ticket{
			reportTicket(now.AddDate(0, 0, -30), models.TicketStatusCompleted, 20),
			reportTicket(now.Add(-1*time.Hour), models.TicketStatusCompleted, 4),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		assert.Equal(t, int64(2), report.Summary.TotalTickets)
		assert.Equal(t, int64(2), report.Summary.CompletedTickets)
		// The 30-day-old ticket falls outside the 7d window
		assert.Equal(t, 4.0, report.Summary.AvgWaitTime)
		assert.Equal(t, int64(1), report.StatusDistribution[models.TicketStatusCompleted])
		require.Len(t, report.Daily, 1)
	})

	t.Run("DailySeriesIsSparseAndAscending", func(t *testing.T) {
		tickets := []*models.Ticket{
			reportTicket(now.AddDate(0, 0, -5), models.TicketStatusCompleted, 3),
			reportTicket(now.AddDate(0, 0, -5).Add(time.Hour), models.TicketStatusWaiting, 0),
			reportTicket(now.AddDate(0, 0, -1), models.TicketStatusCancelled, 0),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		require.Len(t, report.Daily, 2)
		assert.Equal(t, utils.DayKey(now.AddDate(0, 0, -5)), report.Daily[0].Date)
		assert.Equal(t, int64(2), report.Daily[0].Total)
		assert.Equal(t, int64(1), report.Daily[0].Completed)
		assert.Equal(t, 3.0, report.Daily[0].AvgWaitTime)
		assert.Equal(t, utils.DayKey(now.AddDate(0, 0, -1)), report.Daily[1].Date)
	})

	t.Run("HourlyIsDenseForToday", func(t *testing.T) {
		tickets := []*models.Ticket{
			reportTicket(time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC), models.TicketStatusWaiting, 0),
			reportTicket(time.Date(2026, 8, 30, 9, 45, 0, 0, time.UTC), models.TicketStatusWaiting, 0),
			reportTicket(time.Date(2026, 8, 30, 13, 5, 0, 0, time.UTC), models.TicketStatusWaiting, 0),
			reportTicket(now.AddDate(0, 0, -1), models.TicketStatusWaiting, 0),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		require.Len(t, report.Hourly, 24)
		assert.Equal(t, int64(2), report.Hourly[9].Count)
		assert.Equal(t, int64(1), report.Hourly[13].Count)
		assert.Equal(t, int64(0), report.Hourly[10].Count)
		require.NotNil(t, report.Trends.BusiestHour)
		assert.Equal(t, 9, *report.Trends.BusiestHour)
	})

	t.Run("NoTicketsTodayLeavesBusiestHourUnset", func(t *testing.T) {
		tickets := []*models.Ticket{
			reportTicket(now.AddDate(0, 0, -2), models.TicketStatusWaiting, 0),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		assert.Nil(t, report.Trends.BusiestHour)
	})

	t.Run("AvgDailyTicketsOverActiveDays", func(t *testing.T) {
		// 5 tickets spread over 2 active days, averaged over the active
		// days rather than the whole window
		tickets := []*models.Ticket{
			reportTicket(now.AddDate(0, 0, -5), models.TicketStatusWaiting, 0),
			reportTicket(now.AddDate(0, 0, -5).Add(time.Hour), models.TicketStatusWaiting, 0),
			reportTicket(now.AddDate(0, 0, -5).Add(2*time.Hour), models.TicketStatusWaiting, 0),
			reportTicket(now.AddDate(0, 0, -1), models.TicketStatusWaiting, 0),
			reportTicket(now.AddDate(0, 0, -1).Add(time.Hour), models.TicketStatusWaiting, 0),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		assert.Equal(t, 2.5, report.Trends.AvgDailyTickets)
	})

	t.Run("PeakDayFirstOnTies", func(t *testing.T) {
		tickets := []*models.Ticket{
			reportTicket(now.AddDate(0, 0, -4), models.TicketStatusWaiting, 0),
			reportTicket(now.AddDate(0, 0, -2), models.TicketStatusWaiting, 0),
		}

		report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)
		assert.Equal(t, utils.DayKey(now.AddDate(0, 0, -4)), report.Trends.PeakDay)
	})

	t.Run("EmptyQueue", func(t *testing.T) {
		report := businessflow.BuildQueueReport(queue, nil, "30d", 30, now)
		assert.Zero(t, report.Summary.TotalTickets)
		assert.Zero(t, report.Summary.CompletionRate)
		assert.Empty(t, report.Daily)
		assert.Len(t, report.Hourly, 24)
		assert.Zero(t, report.Trends.AvgDailyTickets)
		assert.Equal(t, "30d", report.Period)
	})
}

func TestQueueReportPeriodValidation(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		queueRepo := repository.NewQueueRepository(testDB.DB)
		ticketRepo := repository.NewTicketRepository(testDB.DB)
		flow := businessflow.NewAnalyticsFlow(queueRepo, ticketRepo, nil, 0)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		queue, err := fixtures.CreateTestQueue(1, "Front Desk")
		require.NoError(t, err)

		t.Run("DefaultsToSevenDays", func(t *testing.T) {
			report, err := flow.QueueReport(context.Background(), queue.UUID.String(), "", 1, meta)
			require.NoError(t, err)
			assert.Equal(t, businessflow.DefaultPeriod, report.Period)
		})

		t.Run("AcceptedPeriods", func(t *testing.T) {
			for _, period := range []string{"7d", "30d", "90d"} {
				report, err := flow.QueueReport(context.Background(), queue.UUID.String(), period, 1, meta)
				require.NoError(t, err)
				assert.Equal(t, period, report.Period)
			}
		})

		t.Run("InvalidPeriodRejected", func(t *testing.T) {
			_, err := flow.QueueReport(context.Background(), queue.UUID.String(), "14d", 1, meta)
			assert.True(t, businessflow.IsInvalidPeriod(err))
		})

		t.Run("ForeignQueueDenied", func(t *testing.T) {
			_, err := flow.QueueReport(context.Background(), queue.UUID.String(), "7d", 2, meta)
			assert.True(t, businessflow.IsQueueAccessDenied(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOverview(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		queueRepo := repository.NewQueueRepository(testDB.DB)
		ticketRepo := repository.NewTicketRepository(testDB.DB)
		flow := businessflow.NewAnalyticsFlow(queueRepo, ticketRepo, nil, 0)
		meta := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		busy, err := fixtures.CreateTestQueue(1, "Busy")
		require.NoError(t, err)
		efficient, err := fixtures.CreateTestQueue(1, "Efficient")
		require.NoError(t, err)
		_, err = fixtures.CreateTestQueue(1, "Empty")
		require.NoError(t, err)
		_, err = fixtures.CreateTestQueue(2, "Foreign")
		require.NoError(t, err)

		// Busy: 3 tickets, 1 completed. Efficient: 1 ticket, completed.
		_, err = fixtures.CreateTestTicket(busy.ID, 1, models.TicketStatusWaiting)
		require.NoError(t, err)
		_, err = fixtures.CreateTestTicket(busy.ID, 2, models.TicketStatusWaiting)
		require.NoError(t, err)
		_, err = fixtures.CreateTestTicket(busy.ID, 3, models.TicketStatusCompleted)
		require.NoError(t, err)
		_, err = fixtures.CreateTestTicket(efficient.ID, 1, models.TicketStatusCompleted)
		require.NoError(t, err)

		result, err := flow.Overview(context.Background(), 1, meta)
		require.NoError(t, err)

		assert.Equal(t, int64(3), result.TotalQueues)
		assert.Equal(t, int64(4), result.TotalTickets)
		assert.Equal(t, int64(2), result.CompletedTickets)
		assert.Equal(t, 50.0, result.CompletionRate)
		assert.Equal(t, int64(4), result.TicketsToday)

		require.NotNil(t, result.MostActiveQueue)
		assert.Equal(t, "Busy", *result.MostActiveQueue)
		require.NotNil(t, result.MostEfficientQueue)
		assert.Equal(t, "Efficient", *result.MostEfficientQueue)

		// Queues without tickets never win a superlative
		for _, q := range result.Queues {
			if q.Name == "Empty" {
				assert.Zero(t, q.TotalTickets)
				assert.Zero(t, q.CompletionRate)
			}
		}

		return nil
	})
	require.NoError(t, err)
}

func TestExportQueueReport(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	queue := reportQueue("Front Desk")
	tickets := []*models.Ticket{
		reportTicket(now.Add(-2*time.Hour), models.TicketStatusCompleted, 5),
		reportTicket(now.Add(-1*time.Hour), models.TicketStatusWaiting, 0),
	}
	report := businessflow.BuildQueueReport(queue, tickets, "7d", 7, now)

	buf, err := businessflow.ExportQueueReport(report)
	require.NoError(t, err)
	// XLSX files are zip archives, check the magic bytes
	require.Greater(t, buf.Len(), 4)
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}
