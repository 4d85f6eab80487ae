package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/irequest/internal/models"
)

// UserRepository provides persistence access for User entities.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a repository using the provided gorm DB.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create persists the user instance.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(user).Error)
}

// Update persists the modified user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return errors.WithStack(r.db.WithContext(ctx).Save(user).Error)
}

// FindByID returns the user by id with roles and department preloaded.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Department").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

// FindByUsername returns the user by username with roles preloaded.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		First(&user, "username = ?", username).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &user, nil
}

// List returns all users ordered by full name.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Department").
		Order("full_name asc").
		Find(&users).Error
	return users, errors.WithStack(err)
}
