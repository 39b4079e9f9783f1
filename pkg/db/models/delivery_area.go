package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeliveryArea prices delivery into a named area. A nil BranchID applies to every branch.
type DeliveryArea struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Fee       decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null" json:"fee"`
	BranchID  *uuid.UUID      `gorm:"column:branch_id;type:uuid;index" json:"branchId,omitempty"`
	IsEnabled bool            `gorm:"column:is_enabled;not null" json:"isEnabled"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (DeliveryArea) TableName() string { return "delivery_areas" }

func (d *DeliveryArea) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
