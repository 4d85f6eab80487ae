package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/repository"
)

// RequestsReport builds the analytics workbook: one sheet listing requests
// and one sheet with the per-status totals. Drafts never reach this code
// because the callers pass visibility-scoped data.
func RequestsReport(requests []models.Request, stats *repository.DashboardStats) (*excelize.File, error) {
	f := excelize.NewFile()

	const listSheet = "Yêu cầu"
	if err := f.SetSheetName("Sheet1", listSheet); err != nil {
		return nil, err
	}

	headers := []string{"ID", "Tiêu đề", "Trạng thái", "Ưu tiên", "Đã duyệt", "Ngày tạo"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(listSheet, cell, h); err != nil {
			return nil, err
		}
	}
	for row, req := range requests {
		statusName := ""
		if req.Status != nil {
			statusName = req.Status.Name
		}
		priorityName := ""
		if req.Priority != nil {
			priorityName = req.Priority.Name
		}
		approved := "Không"
		if req.IsApproved {
			approved = "Có"
		}
		values := []interface{}{
			req.ID,
			req.Title,
			statusName,
			priorityName,
			approved,
			req.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(listSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	const statsSheet = "Thống kê"
	if _, err := f.NewSheet(statsSheet); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(statsSheet, "A1", "Trạng thái"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(statsSheet, "B1", "Số lượng"); err != nil {
		return nil, err
	}
	for i, sc := range stats.ByStatus {
		row := i + 2
		if err := f.SetCellValue(statsSheet, fmt.Sprintf("A%d", row), sc.Name); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(statsSheet, fmt.Sprintf("B%d", row), sc.Count); err != nil {
			return nil, err
		}
	}
	totalsRow := len(stats.ByStatus) + 3
	if err := f.SetCellValue(statsSheet, fmt.Sprintf("A%d", totalsRow), "Tổng"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(statsSheet, fmt.Sprintf("B%d", totalsRow), stats.Total); err != nil {
		return nil, err
	}

	return f, nil
}
