package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/irequest/internal/models"
	"github.com/example/irequest/internal/repository"
)

func TestRequestsReport(t *testing.T) {
	requests := []models.Request{
		{
			ID:         1,
			Title:      "Cấp lại thẻ ra vào",
			Status:     &models.Status{Name: "Mới"},
			Priority:   &models.Priority{Name: "Cao"},
			IsApproved: true,
			CreatedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:        2,
			Title:     "Xin cấp máy tính",
			CreatedAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		},
	}
	stats := &repository.DashboardStats{
		Total:     2,
		Pending:   1,
		Completed: 1,
		ByStatus: []repository.StatusCount{
			{Name: "Mới", Count: 1},
			{Name: "Hoàn thành", Count: 1},
		},
	}

	file, err := RequestsReport(requests, stats)
	require.NoError(t, err)
	defer file.Close()

	assert.ElementsMatch(t, []string{"Yêu cầu", "Thống kê"}, file.GetSheetList())

	title, err := file.GetCellValue("Yêu cầu", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Cấp lại thẻ ra vào", title)

	approved, err := file.GetCellValue("Yêu cầu", "E2")
	require.NoError(t, err)
	assert.Equal(t, "Có", approved)

	// Missing lookups render as blanks, not panics.
	status, err := file.GetCellValue("Yêu cầu", "C3")
	require.NoError(t, err)
	assert.Empty(t, status)

	total, err := file.GetCellValue("Thống kê", "B5")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}
