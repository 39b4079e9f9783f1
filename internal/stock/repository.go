package stock

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Row is one variant with its quantity at the listed branch.
type Row struct {
	VariantID   uuid.UUID       `json:"variantId"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	VariantName string          `json:"variantName"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Repository reads and writes branch inventory rows.
type Repository interface {
	List(ctx context.Context, branchID uuid.UUID, query string) ([]Row, error)
	Upsert(ctx context.Context, branchID, variantID uuid.UUID, qty int) error
	BranchExists(ctx context.Context, branchID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// List returns every variant; variants without an inventory row at the branch read as 0.
func (r *repository) List(ctx context.Context, branchID uuid.UUID, query string) ([]Row, error) {
	q := r.db.WithContext(ctx).
		Table("product_variants pv").
		Select("pv.id AS variant_id, pv.product_id, p.name AS product_name, pv.name AS variant_name, pv.sku, pv.price, COALESCE(i.quantity, 0) AS quantity").
		Joins("JOIN products p ON p.id = pv.product_id").
		Joins("LEFT JOIN inventory i ON i.product_variant_id = pv.id AND i.branch_id = ?", branchID)

	if term := strings.ToLower(strings.TrimSpace(query)); term != "" {
		pattern := "%" + term + "%"
		q = q.Where("LOWER(p.name) LIKE ? OR LOWER(pv.name) LIKE ? OR LOWER(pv.sku) LIKE ?", pattern, pattern, pattern)
	}

	var rows []Row
	err := q.Order("p.name ASC").
		Order("pv.price ASC").
		Order("pv.sku ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes one (branch, variant) quantity, inserting the row when it does not exist.
func (r *repository) Upsert(ctx context.Context, branchID, variantID uuid.UUID, qty int) error {
	row := &models.InventoryRow{
		BranchID:         branchID,
		ProductVariantID: variantID,
		Quantity:         qty,
		UpdatedAt:        time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}, {Name: "product_variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(row).Error
}

func (r *repository) BranchExists(ctx context.Context, branchID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Branch{}).Where("id = ?", branchID).Count(&count).Error
	return count > 0, err
}
