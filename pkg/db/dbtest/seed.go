package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func mustCreate(t testing.TB, conn *gorm.DB, row any) {
	t.Helper()
	if err := conn.Create(row).Error; err != nil {
		t.Fatalf("seed %T: %v", row, err)
	}
}

// Branch inserts an active branch.
func Branch(t testing.TB, conn *gorm.DB, name string) *models.Branch {
	t.Helper()
	phone := "0771234567"
	b := &models.Branch{Name: name, WhatsAppPhone: &phone, IsActive: true}
	mustCreate(t, conn, b)
	return b
}

// Category inserts a root category.
func Category(t testing.TB, conn *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: slug}
	mustCreate(t, conn, c)
	return c
}

// ProductOpts overrides Product defaults.
type ProductOpts struct {
	CategoryID  *uuid.UUID
	Description string
	BasePrice   string
	Inactive    bool
	CreatedAt   time.Time
}

// Product inserts a product; it is active unless opts say otherwise.
func Product(t testing.TB, conn *gorm.DB, name, slug string, opts ProductOpts) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       name,
		Slug:       slug,
		CategoryID: opts.CategoryID,
		IsActive:   !opts.Inactive,
		CreatedAt:  opts.CreatedAt,
		BasePrice:  decimal.Zero,
	}
	if opts.Description != "" {
		desc := opts.Description
		p.Description = &desc
	}
	if opts.BasePrice != "" {
		p.BasePrice = decimal.RequireFromString(opts.BasePrice)
	}
	mustCreate(t, conn, p)
	return p
}

// Variant inserts a variant priced at price. createdAt orders equal prices; zero means now.
func Variant(t testing.TB, conn *gorm.DB, productID uuid.UUID, sku, price string, createdAt time.Time) *models.ProductVariant {
	t.Helper()
	v := &models.ProductVariant{
		ProductID: productID,
		Name:      sku,
		SKU:       sku,
		Price:     decimal.RequireFromString(price),
		CreatedAt: createdAt,
	}
	mustCreate(t, conn, v)
	return v
}

// Stock sets the branch quantity of a variant.
func Stock(t testing.TB, conn *gorm.DB, branchID, variantID uuid.UUID, qty int) *models.InventoryRow {
	t.Helper()
	row := &models.InventoryRow{BranchID: branchID, ProductVariantID: variantID, Quantity: qty}
	mustCreate(t, conn, row)
	return row
}

// OrderLine is one item for Order.
type OrderLine struct {
	VariantID uuid.UUID
	Qty       int
	Price     string
}

// Order inserts a pending pickup order with its items. createdAt zero means now.
func Order(t testing.TB, conn *gorm.DB, branchID uuid.UUID, number, phone string, createdAt time.Time, lines ...OrderLine) *models.Order {
	t.Helper()
	fee := decimal.Zero
	o := &models.Order{
		BranchID:       branchID,
		OrderNumber:    number,
		Status:         enums.OrderStatusPending,
		CustomerEmail:  "customer@example.com",
		DeliveryMethod: enums.DeliveryMethodPickup,
		DeliveryFee:    &fee,
		PaymentMethod:  enums.PaymentMethodCOD,
		CreatedAt:      createdAt,
	}
	if phone != "" {
		o.CustomerPhone = &phone
	}
	if err := conn.Omit("Items").Create(o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	for _, l := range lines {
		item := &models.OrderItem{
			OrderID:          o.ID,
			ProductVariantID: l.VariantID,
			Quantity:         l.Qty,
			UnitPrice:        decimal.RequireFromString(l.Price),
		}
		mustCreate(t, conn, item)
		o.Items = append(o.Items, *item)
	}
	return o
}
