package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for placed orders.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Lines(ctx context.Context, orderID uuid.UUID) ([]Line, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (int64, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// Lines joins items with their variant and product. Names are live; the unit
// price is the snapshot taken at placement.
func (r *repository) Lines(ctx context.Context, orderID uuid.UUID) ([]Line, error) {
	var records []struct {
		models.OrderItem
		ProductName *string `gorm:"column:product_name"`
		VariantName *string `gorm:"column:variant_name"`
		SKU         *string `gorm:"column:sku"`
	}
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select("oi.*, p.name AS product_name, pv.name AS variant_name, pv.sku AS sku").
		Joins("LEFT JOIN product_variants pv ON pv.id = oi.product_variant_id").
		Joins("LEFT JOIN products p ON p.id = pv.product_id").
		Where("oi.order_id = ?", orderID).
		Order("p.name ASC").
		Order("oi.id ASC").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(records))
	for _, rec := range records {
		lines = append(lines, Line{
			VariantID:   rec.ProductVariantID,
			ProductName: deref(rec.ProductName),
			VariantName: deref(rec.VariantName),
			SKU:         deref(rec.SKU),
			Quantity:    rec.Quantity,
			UnitPrice:   rec.UnitPrice,
			LineTotal:   rec.UnitPrice.Mul(decimal.NewFromInt(int64(rec.Quantity))),
		})
	}
	return lines, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// List returns up to LimitWithBuffer orders, newest first, strictly after cursor.
func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}

	var rows []models.Order
	err := query.Scopes(pagination.Keyset(cursor, filter.Params.Limit)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
