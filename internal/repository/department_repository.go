package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/models"
)

// DepartmentRepository provides persistence access for departments.
type DepartmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository constructs a repository using the provided gorm DB.
func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Create persists the department instance.
func (r *DepartmentRepository) Create(ctx context.Context, d *models.Department) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(d).Error)
}

// List returns all departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := r.db.WithContext(ctx).Order("name asc").Find(&departments).Error
	return departments, errors.WithStack(err)
}
