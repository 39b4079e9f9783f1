package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Totals are derived from an order's items on every read; nothing here is stored.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// Line is an order item joined with the product and variant names it was placed for.
type Line struct {
	VariantID   uuid.UUID       `json:"variantId"`
	ProductName string          `json:"productName"`
	VariantName string          `json:"variantName"`
	SKU         string          `json:"sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// Detail backs the confirmation page and the admin order view.
type Detail struct {
	Order      models.Order `json:"order"`
	BranchName string       `json:"branchName"`
	Lines      []Line       `json:"lines"`
	Totals     Totals       `json:"totals"`
	Step       int          `json:"step"`
}

// Tracking is what a customer sees after proving the order phone number.
type Tracking struct {
	OrderNumber string              `json:"orderNumber"`
	Status      enums.OrderStatus   `json:"status"`
	Step        int                 `json:"step"`
	Timeline    []enums.OrderStatus `json:"timeline"`
	CreatedAt   time.Time           `json:"createdAt"`
	Lines       []Line              `json:"lines"`
	Totals      Totals              `json:"totals"`
}

// ListFilter narrows the admin order list.
type ListFilter struct {
	Status   *enums.OrderStatus
	BranchID *uuid.UUID
	Params   pagination.Params
}

// Summary is one row of the admin order list.
type Summary struct {
	ID             uuid.UUID            `json:"id"`
	BranchID       uuid.UUID            `json:"branchId"`
	OrderNumber    string               `json:"orderNumber"`
	Status         enums.OrderStatus    `json:"status"`
	CustomerName   *string              `json:"customerName,omitempty"`
	CustomerPhone  *string              `json:"customerPhone,omitempty"`
	DeliveryMethod enums.DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod"`
	ItemCount      int                  `json:"itemCount"`
	Total          decimal.Decimal      `json:"total"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// List wraps a page of summaries plus the cursor for the next page.
type List struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// Share is the plain-text order summary and the chat deep link carrying it.
type Share struct {
	Text     string `json:"text"`
	ChatLink string `json:"chatLink,omitempty"`
}
