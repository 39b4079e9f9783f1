package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. Purchasable prices live on its variants; BasePrice
// is only a display fallback.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CategoryID  *uuid.UUID       `gorm:"column:category_id;type:uuid;index" json:"categoryId,omitempty"`
	Name        string           `gorm:"column:name;not null" json:"name"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex:idx_products_slug" json:"slug"`
	Description *string          `gorm:"column:description" json:"description,omitempty"`
	ImageURL    *string          `gorm:"column:image_url" json:"imageUrl,omitempty"`
	BasePrice   decimal.Decimal  `gorm:"column:base_price;type:numeric(12,2);not null" json:"basePrice"`
	IsActive    bool             `gorm:"column:is_active;not null" json:"isActive"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductVariant is a purchasable SKU under a product.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index" json:"productId"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	SKU       string          `gorm:"column:sku;not null;uniqueIndex:idx_product_variants_sku" json:"sku"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (ProductVariant) TableName() string { return "product_variants" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}
