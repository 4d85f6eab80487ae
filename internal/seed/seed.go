package seed

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/models"
)

// Reference data expected by the life-cycle logic. Seeding is idempotent:
// existing rows are left untouched.

var statuses = []models.Status{
	{Name: "Nháp"},
	{Name: "Mới"},
	{Name: "Đang xử lý"},
	{Name: "Hoàn thành", IsFinal: true},
	{Name: "Từ chối", IsFinal: true},
}

var priorities = []models.Priority{
	{Name: "Khẩn cấp", SortOrder: 1},
	{Name: "Cao", SortOrder: 2},
	{Name: "Trung bình", SortOrder: 3},
	{Name: "Thấp", SortOrder: 4},
}

var roles = []models.Role{
	{Name: "admin"},
	{Name: "manager"},
	{Name: "user"},
}

// Run inserts missing reference rows.
func Run(db *gorm.DB) error {
	for _, s := range statuses {
		var row models.Status
		err := db.Where(models.Status{Name: s.Name}).
			Attrs(models.Status{IsFinal: s.IsFinal}).
			FirstOrCreate(&row).Error
		if err != nil {
			return errors.Wrapf(err, "seed status %q", s.Name)
		}
	}
	for _, p := range priorities {
		var row models.Priority
		err := db.Where(models.Priority{Name: p.Name}).
			Attrs(models.Priority{SortOrder: p.SortOrder}).
			FirstOrCreate(&row).Error
		if err != nil {
			return errors.Wrapf(err, "seed priority %q", p.Name)
		}
	}
	for _, r := range roles {
		var row models.Role
		err := db.Where(models.Role{Name: r.Name}).FirstOrCreate(&row).Error
		if err != nil {
			return errors.Wrapf(err, "seed role %q", r.Name)
		}
	}
	return nil
}
