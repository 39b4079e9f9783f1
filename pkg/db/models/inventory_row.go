package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryRow holds the quantity of one variant at one branch. A missing row means zero.
type InventoryRow struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BranchID         uuid.UUID `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:idx_inventory_branch_variant" json:"branchId"`
	ProductVariantID uuid.UUID `gorm:"column:product_variant_id;type:uuid;not null;uniqueIndex:idx_inventory_branch_variant" json:"productVariantId"`
	Quantity         int       `gorm:"column:quantity;not null" json:"quantity"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (InventoryRow) TableName() string { return "inventory" }

func (i *InventoryRow) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
