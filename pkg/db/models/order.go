package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is immutable after placement except for Status and admin edits. Totals are
// always derived from its items and never stored.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BranchID        uuid.UUID            `gorm:"column:branch_id;type:uuid;not null;index" json:"branchId"`
	OrderNumber     string               `gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number" json:"orderNumber"`
	Status          enums.OrderStatus    `gorm:"column:status;not null" json:"status"`
	CustomerName    *string              `gorm:"column:customer_name" json:"customerName,omitempty"`
	CustomerEmail   string               `gorm:"column:customer_email;not null" json:"customerEmail"`
	CustomerPhone   *string              `gorm:"column:customer_phone" json:"customerPhone,omitempty"`
	DeliveryMethod  enums.DeliveryMethod `gorm:"column:delivery_method;not null" json:"deliveryMethod"`
	DeliveryAddress *string              `gorm:"column:delivery_address" json:"deliveryAddress,omitempty"`
	DeliveryAreaID  *uuid.UUID           `gorm:"column:delivery_area_id;type:uuid" json:"deliveryAreaId,omitempty"`
	DeliveryFee     *decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2)" json:"deliveryFee,omitempty"`
	PaymentMethod   enums.PaymentMethod  `gorm:"column:payment_method;not null" json:"paymentMethod"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem snapshots the unit price at placement time.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"orderId"`
	ProductVariantID uuid.UUID       `gorm:"column:product_variant_id;type:uuid;not null" json:"productVariantId"`
	Quantity         int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unitPrice"`

	// Variant is never loaded; it declares that ordered variants cannot be deleted.
	Variant *ProductVariant `gorm:"foreignKey:ProductVariantID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
