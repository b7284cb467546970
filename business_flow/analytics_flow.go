package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/arvand/waitline/app/dto"
	"github.com/arvand/waitline/models"
	"github.com/arvand/waitline/repository"
	"github.com/arvand/waitline/utils"
	"github.com/redis/go-redis/v9"
)

// AnalyticsFlow defines read-only reporting over queue tickets. Reports are
// built from a snapshot without taking the queue lock, so a report that races
// a state change may be momentarily stale.
type AnalyticsFlow interface {
	QueueReport(ctx context.Context, queueUUID, period string, ownerID uint, metadata *ClientMetadata) (*dto.QueueReportResponse, error)
	Overview(ctx context.Context, ownerID uint, metadata *ClientMetadata) (*dto.OverviewResponse, error)
}

// AnalyticsFlowImpl implements AnalyticsFlow
type AnalyticsFlowImpl struct {
	queueRepo  repository.QueueRepository
	ticketRepo repository.TicketRepository
	redis      *redis.Client
	cacheTTL   time.Duration
}

func NewAnalyticsFlow(queueRepo repository.QueueRepository, ticketRepo repository.TicketRepository, redisClient *redis.Client, cacheTTL time.Duration) AnalyticsFlow {
	return &AnalyticsFlowImpl{queueRepo: queueRepo, ticketRepo: ticketRepo, redis: redisClient, cacheTTL: cacheTTL}
}

const DefaultPeriod = "7d"

// periodDays maps the accepted lookback periods to their day counts
var periodDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

func (f *AnalyticsFlowImpl) QueueReport(ctx context.Context, queueUUID, period string, ownerID uint, metadata *ClientMetadata) (*dto.QueueReportResponse, error) {
	if period == "" {
		period = DefaultPeriod
	}
	days, ok := periodDays[period]
	if !ok {
		return nil, NewBusinessErrorf("INVALID_PERIOD", "period must be one of 7d, 30d, 90d, got %q", ErrInvalidPeriod, period)
	}

	queue, err := getOwnedQueue(ctx, f.queueRepo, queueUUID, ownerID)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("analytics:queue:%s:%s", queue.UUID, period)
	if cached := f.readCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	tickets, err := f.ticketRepo.ByFilter(ctx, models.TicketFilter{QueueID: &queue.ID}, "created_at ASC", 0, 0)
	if err != nil {
		return nil, err
	}

	report := BuildQueueReport(queue, tickets, period, days, utils.UTCNow())
	f.writeCache(ctx, cacheKey, report)
	return report, nil
}

// BuildQueueReport computes the full report from a ticket snapshot. Pure
// function over its inputs; now fixes the window end and the "today" buckets.
func BuildQueueReport(queue *models.Queue, tickets []*models.Ticket, period string, days int, now time.Time) *dto.QueueReportResponse {
	windowStart := utils.StartOfDay(now).AddDate(0, 0, -(days - 1))
	todayStart := utils.StartOfDay(now)

	var windowed []*models.Ticket
	for _, t := range tickets {
		if !t.CreatedAt.Before(windowStart) {
			windowed = append(windowed, t)
		}
	}

	distribution := map[string]int64{
		models.TicketStatusWaiting:   0,
		models.TicketStatusServing:   0,
		models.TicketStatusCompleted: 0,
		models.TicketStatusCancelled: 0,
	}
	for _, t := range windowed {
		distribution[t.Status]++
	}

	// Headline totals are all-time; wait stats cover the window's completed
	// tickets with a positive wait time only
	var totalAll, completedAll int64
	for _, t := range tickets {
		totalAll++
		if t.Status == models.TicketStatusCompleted {
			completedAll++
		}
	}
	summary := dto.ReportSummary{
		TotalTickets:     totalAll,
		CompletedTickets: completedAll,
	}
	if totalAll > 0 {
		summary.CompletionRate = round1(float64(completedAll) / float64(totalAll) * 100)
	}

	waitSum, waitCount := 0, 0
	for _, t := range windowed {
		if t.Status != models.TicketStatusCompleted || t.WaitTime <= 0 {
			continue
		}
		waitSum += t.WaitTime
		waitCount++
		if waitCount == 1 || t.WaitTime < summary.MinWaitTime {
			summary.MinWaitTime = t.WaitTime
		}
		if t.WaitTime > summary.MaxWaitTime {
			summary.MaxWaitTime = t.WaitTime
		}
	}
	if waitCount > 0 {
		summary.AvgWaitTime = round1(float64(waitSum) / float64(waitCount))
	}

	// Sparse daily series: only days with tickets, ascending
	dayOrder := make([]string, 0)
	dayTotals := make(map[string]int64)
	dayCompleted := make(map[string]int64)
	dayWaitSum := make(map[string]int)
	dayWaitCount := make(map[string]int)
	for _, t := range windowed {
		key := utils.DayKey(t.CreatedAt)
		if _, ok := dayTotals[key]; !ok {
			dayOrder = append(dayOrder, key)
		}
		dayTotals[key]++
		if t.Status == models.TicketStatusCompleted {
			dayCompleted[key]++
			if t.WaitTime > 0 {
				dayWaitSum[key] += t.WaitTime
				dayWaitCount[key]++
			}
		}
	}
	daily := make([]dto.DailyStat, 0, len(dayOrder))
	for _, key := range dayOrder {
		stat := dto.DailyStat{
			Date:      key,
			Total:     dayTotals[key],
			Completed: dayCompleted[key],
		}
		if dayWaitCount[key] > 0 {
			stat.AvgWaitTime = round1(float64(dayWaitSum[key]) / float64(dayWaitCount[key]))
		}
		daily = append(daily, stat)
	}

	// Dense hourly distribution of today's created tickets
	hourly := make([]dto.HourlyStat, 24)
	for h := range hourly {
		hourly[h] = dto.HourlyStat{Hour: h}
	}
	todayCount := int64(0)
	for _, t := range windowed {
		if t.CreatedAt.Before(todayStart) {
			continue
		}
		hourly[t.CreatedAt.UTC().Hour()].Count++
		todayCount++
	}

	// Averaged over days that saw tickets, not over the whole window
	trends := dto.ReportTrends{}
	if len(dayOrder) > 0 {
		trends.AvgDailyTickets = round1(float64(len(windowed)) / float64(len(dayOrder)))
	}
	var peakCount int64
	for _, key := range dayOrder {
		if dayTotals[key] > peakCount {
			peakCount = dayTotals[key]
			trends.PeakDay = key
		}
	}
	if todayCount > 0 {
		busiest := 0
		for h := 1; h < 24; h++ {
			if hourly[h].Count > hourly[busiest].Count {
				busiest = h
			}
		}
		trends.BusiestHour = &busiest
	}

	return &dto.QueueReportResponse{
		Message:            "Analytics retrieved successfully",
		QueueUUID:          queue.UUID.String(),
		QueueName:          queue.Name,
		Period:             period,
		Summary:            summary,
		StatusDistribution: distribution,
		Daily:              daily,
		Hourly:             hourly,
		Trends:             trends,
	}
}

func (f *AnalyticsFlowImpl) Overview(ctx context.Context, ownerID uint, metadata *ClientMetadata) (*dto.OverviewResponse, error) {
	queues, err := f.queueRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	todayStart := utils.StartOfDay(utils.UTCNow())
	resp := &dto.OverviewResponse{
		Message:     "Overview retrieved successfully",
		TotalQueues: int64(len(queues)),
		Queues:      make([]dto.OverviewQueue, 0, len(queues)),
	}

	waitSum, waitCount := 0, 0
	for _, q := range queues {
		tickets, err := f.ticketRepo.ByFilter(ctx, models.TicketFilter{QueueID: &q.ID}, "", 0, 0)
		if err != nil {
			return nil, err
		}

		line := dto.OverviewQueue{UUID: q.UUID.String(), Name: q.Name}
		qWaitSum, qWaitCount := 0, 0
		for _, t := range tickets {
			line.TotalTickets++
			if !t.CreatedAt.Before(todayStart) {
				resp.TicketsToday++
			}
			if t.Status == models.TicketStatusCompleted {
				line.CompletedTickets++
				if t.WaitTime > 0 {
					qWaitSum += t.WaitTime
					qWaitCount++
				}
			}
		}
		if line.TotalTickets > 0 {
			line.CompletionRate = round1(float64(line.CompletedTickets) / float64(line.TotalTickets) * 100)
		}
		if qWaitCount > 0 {
			line.AvgWaitTime = round1(float64(qWaitSum) / float64(qWaitCount))
		}

		resp.TotalTickets += line.TotalTickets
		resp.CompletedTickets += line.CompletedTickets
		waitSum += qWaitSum
		waitCount += qWaitCount
		resp.Queues = append(resp.Queues, line)
	}

	if resp.TotalTickets > 0 {
		resp.CompletionRate = round1(float64(resp.CompletedTickets) / float64(resp.TotalTickets) * 100)
	}
	if waitCount > 0 {
		resp.AvgWaitTime = round1(float64(waitSum) / float64(waitCount))
	}

	// Most active by ticket volume, most efficient by completion rate.
	// First on ties, queues without tickets don't qualify.
	var active, efficient *dto.OverviewQueue
	for i := range resp.Queues {
		q := &resp.Queues[i]
		if q.TotalTickets == 0 {
			continue
		}
		if active == nil || q.TotalTickets > active.TotalTickets {
			active = q
		}
		if efficient == nil || q.CompletionRate > efficient.CompletionRate {
			efficient = q
		}
	}
	if active != nil {
		resp.MostActiveQueue = &active.Name
	}
	if efficient != nil {
		resp.MostEfficientQueue = &efficient.Name
	}

	return resp, nil
}

// readCache returns a cached report or nil. Cache failures are non-fatal.
func (f *AnalyticsFlowImpl) readCache(ctx context.Context, key string) *dto.QueueReportResponse {
	if f.redis == nil || f.cacheTTL <= 0 {
		return nil
	}
	raw, err := f.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var report dto.QueueReportResponse
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil
	}
	return &report
}

func (f *AnalyticsFlowImpl) writeCache(ctx context.Context, key string, report *dto.QueueReportResponse) {
	if f.redis == nil || f.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := f.redis.Set(ctx, key, raw, f.cacheTTL).Err(); err != nil {
		log.Printf("analytics cache write failed for %s: %v", key, err)
	}
}

// round1 rounds to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
