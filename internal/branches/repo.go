package branches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists branches.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Branch, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Create(ctx context.Context, branch *models.Branch) error
	Save(ctx context.Context, branch *models.Branch) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	q := r.db.WithContext(ctx).Model(&models.Branch{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Branch
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repository) Create(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *repository) Save(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Branch{})
	return res.RowsAffected, res.Error
}
