package deliveryareas

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CreateInput is the admin payload for a delivery area.
type CreateInput struct {
	Name      string          `json:"name" validate:"required,max=120"`
	Fee       decimal.Decimal `json:"fee" validate:"money"`
	BranchID  *uuid.UUID      `json:"branchId"`
	IsEnabled *bool           `json:"isEnabled"`
}

// UpdateInput holds optional changes. BranchID distinguishes "absent" from an explicit null,
// which turns the area into one that serves every branch.
type UpdateInput struct {
	Name      *string                `json:"name" validate:"omitempty,min=1,max=120"`
	Fee       *decimal.Decimal       `json:"fee" validate:"omitempty,money"`
	BranchID  types.Patch[uuid.UUID] `json:"branchId"`
	IsEnabled *bool                  `json:"isEnabled"`
}

// Service manages delivery areas and answers the checkout fee lookup.
type Service interface {
	ListAll(ctx context.Context) ([]models.DeliveryArea, error)
	ListForBranch(ctx context.Context, branchID uuid.UUID) ([]models.DeliveryArea, error)
	Create(ctx context.Context, input CreateInput) (*models.DeliveryArea, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.DeliveryArea, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db *gorm.DB
}

func NewService(conn *gorm.DB) (Service, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: conn}, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.DeliveryArea, error) {
	var rows []models.DeliveryArea
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery areas")
	}
	return rows, nil
}

// ListForBranch returns enabled areas bound to the branch or to no branch, cheapest first.
func (s *service) ListForBranch(ctx context.Context, branchID uuid.UUID) ([]models.DeliveryArea, error) {
	var rows []models.DeliveryArea
	err := s.db.WithContext(ctx).
		Where("is_enabled = ?", true).
		Where("branch_id = ? OR branch_id IS NULL", branchID).
		Order("fee ASC").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery areas")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.DeliveryArea, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := checkFee(input.Fee); err != nil {
		return nil, err
	}
	area := &models.DeliveryArea{
		Name:      name,
		Fee:       input.Fee,
		BranchID:  input.BranchID,
		IsEnabled: input.IsEnabled == nil || *input.IsEnabled,
	}
	if err := s.db.WithContext(ctx).Create(area).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
	}
	return area, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.DeliveryArea, error) {
	var area models.DeliveryArea
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&area).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery area not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery area")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		area.Name = name
	}
	if input.Fee != nil {
		if err := checkFee(*input.Fee); err != nil {
			return nil, err
		}
		area.Fee = *input.Fee
	}
	if input.BranchID.Set {
		area.BranchID = input.BranchID.Ptr()
	}
	if input.IsEnabled != nil {
		area.IsEnabled = *input.IsEnabled
	}
	if err := s.db.WithContext(ctx).Save(&area).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
	}
	return &area, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DeliveryArea{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeWriteFailed, res.Error, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery area not found")
	}
	return nil
}

func checkFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee must not be negative")
	}
	return nil
}
