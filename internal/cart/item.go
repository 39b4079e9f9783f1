package cart

import (
	"github.com/shopspring/decimal"
)

// Item is one cart line. (BranchID, VariantID) is the line's identity.
type Item struct {
	BranchID     string          `json:"branchId" validate:"required"`
	VariantID    string          `json:"variantId" validate:"required"`
	ProductName  string          `json:"productName" validate:"required"`
	VariantLabel string          `json:"variantLabel" validate:"required"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Qty          int             `json:"qty"`
	ImageURL     *string         `json:"imageUrl,omitempty"`
}

func (i Item) matches(branchID, variantID string) bool {
	return i.BranchID == branchID && i.VariantID == variantID
}

// LineTotal is UnitPrice × Qty.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Qty)))
}
