package businessflow

import (
	"bytes"
	"fmt"

	"github.com/arvand/waitline/app/dto"
	"github.com/xuri/excelize/v2"
)

// ExportQueueReport renders a queue report into an xlsx workbook with
// summary, daily and hourly sheets.
func ExportQueueReport(report *dto.QueueReportResponse) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Queue", report.QueueName},
		{"Period", report.Period},
		{"Total tickets", report.Summary.TotalTickets},
		{"Completed tickets", report.Summary.CompletedTickets},
		{"Completion rate (%)", report.Summary.CompletionRate},
		{"Avg wait (min)", report.Summary.AvgWaitTime},
		{"Min wait (min)", report.Summary.MinWaitTime},
		{"Max wait (min)", report.Summary.MaxWaitTime},
	}
	for _, status := range []string{"waiting", "serving", "completed", "cancelled"} {
		summaryRows = append(summaryRows, []any{fmt.Sprintf("Status: %s", status), report.StatusDistribution[status]})
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	const dailySheet = "Daily"
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}
	header := []any{"Date", "Total", "Completed", "Avg wait (min)"}
	if err := f.SetSheetRow(dailySheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, d := range report.Daily {
		row := []any{d.Date, d.Total, d.Completed, d.AvgWaitTime}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(dailySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	const hourlySheet = "Hourly"
	if _, err := f.NewSheet(hourlySheet); err != nil {
		return nil, err
	}
	hourHeader := []any{"Hour", "Tickets"}
	if err := f.SetSheetRow(hourlySheet, "A1", &hourHeader); err != nil {
		return nil, err
	}
	for i, h := range report.Hourly {
		row := []any{fmt.Sprintf("%02d:00", h.Hour), h.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(hourlySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}
