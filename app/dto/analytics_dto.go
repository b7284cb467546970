package dto

// ReportSummary holds the headline numbers of a queue report. Wait stats are
// computed over completed tickets with a positive wait time only.
type ReportSummary struct {
	TotalTickets     int64   `json:"total_tickets"`
	CompletedTickets int64   `json:"completed_tickets"`
	CompletionRate   float64 `json:"completion_rate"`
	AvgWaitTime      float64 `json:"avg_wait_time"`
	MinWaitTime      int     `json:"min_wait_time"`
	MaxWaitTime      int     `json:"max_wait_time"`
}

// DailyStat is one calendar-day bucket of the report window
type DailyStat struct {
	Date        string  `json:"date"`
	Total       int64   `json:"total"`
	Completed   int64   `json:"completed"`
	AvgWaitTime float64 `json:"avg_wait_time"`
}

// HourlyStat is one hour bucket of today's distribution
type HourlyStat struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// ReportTrends holds derived trend figures
type ReportTrends struct {
	AvgDailyTickets float64 `json:"avg_daily_tickets"`
	PeakDay         string  `json:"peak_day,omitempty"`
	BusiestHour     *int    `json:"busiest_hour,omitempty"`
}

// QueueReportResponse is the full analytics report for one queue
type QueueReportResponse struct {
	Message            string           `json:"message"`
	QueueUUID          string           `json:"queue_uuid"`
	QueueName          string           `json:"queue_name"`
	Period             string           `json:"period"`
	Summary            ReportSummary    `json:"summary"`
	StatusDistribution map[string]int64 `json:"status_distribution"`
	Daily              []DailyStat      `json:"daily"`
	Hourly             []HourlyStat     `json:"hourly"`
	Trends             ReportTrends     `json:"trends"`
}

// OverviewQueue is one queue's line in the owner overview
type OverviewQueue struct {
	UUID             string  `json:"uuid"`
	Name             string  `json:"name"`
	TotalTickets     int64   `json:"total_tickets"`
	CompletedTickets int64   `json:"completed_tickets"`
	CompletionRate   float64 `json:"completion_rate"`
	AvgWaitTime      float64 `json:"avg_wait_time"`
}

// OverviewResponse aggregates across all of an operator's queues
type OverviewResponse struct {
	Message            string          `json:"message"`
	TotalQueues        int64           `json:"total_queues"`
	TotalTickets       int64           `json:"total_tickets"`
	CompletedTickets   int64           `json:"completed_tickets"`
	CompletionRate     float64         `json:"completion_rate"`
	AvgWaitTime        float64         `json:"avg_wait_time"`
	TicketsToday       int64           `json:"tickets_today"`
	Queues             []OverviewQueue `json:"queues"`
	MostActiveQueue    *string         `json:"most_active_queue,omitempty"`
	MostEfficientQueue *string         `json:"most_efficient_queue,omitempty"`
}
