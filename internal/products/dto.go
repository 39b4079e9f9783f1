package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// CategoryInput is the admin payload for a new category. An empty slug is derived from the name.
type CategoryInput struct {
	Name        string     `json:"name" validate:"required,max=120"`
	Slug        *string    `json:"slug" validate:"omitempty,max=140"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	ParentID    *uuid.UUID `json:"parentId"`
}

// CategoryUpdate holds optional category changes. ParentID null moves the category to the root.
type CategoryUpdate struct {
	Name        *string                `json:"name" validate:"omitempty,min=1,max=120"`
	Slug        *string                `json:"slug" validate:"omitempty,min=1,max=140"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	ParentID    types.Patch[uuid.UUID] `json:"parentId"`
}

// VariantInput describes one purchasable SKU.
type VariantInput struct {
	Name  string          `json:"name" validate:"required,max=120"`
	SKU   string          `json:"sku" validate:"required,max=64"`
	Price decimal.Decimal `json:"price" validate:"money"`
}

// VariantUpdate holds optional variant changes.
type VariantUpdate struct {
	Name  *string          `json:"name" validate:"omitempty,min=1,max=120"`
	SKU   *string          `json:"sku" validate:"omitempty,min=1,max=64"`
	Price *decimal.Decimal `json:"price" validate:"omitempty,money"`
}

// ProductInput creates a product together with its initial variants.
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Slug        *string          `json:"slug" validate:"omitempty,max=220"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
	BasePrice   *decimal.Decimal `json:"basePrice" validate:"omitempty,money"`
	IsActive    *bool            `json:"isActive"`
	Variants    []VariantInput   `json:"variants" validate:"omitempty,dive"`
}

// ProductUpdate holds optional product changes. CategoryID null uncategorizes the product.
type ProductUpdate struct {
	Name        *string                `json:"name" validate:"omitempty,min=1,max=200"`
	Slug        *string                `json:"slug" validate:"omitempty,min=1,max=220"`
	Description *string                `json:"description" validate:"omitempty,max=5000"`
	CategoryID  types.Patch[uuid.UUID] `json:"categoryId"`
	BasePrice   *decimal.Decimal       `json:"basePrice" validate:"omitempty,money"`
	IsActive    *bool                  `json:"isActive"`
}

// ProductList is one admin page of products.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"nextCursor,omitempty"`
}
