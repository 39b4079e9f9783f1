package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ComputeTotals sums quantity × unit price over the items and adds the delivery fee.
func ComputeTotals(order models.Order) Totals {
	subtotal := decimal.Zero
	for _, item := range order.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	fee := decimal.Zero
	if order.DeliveryFee != nil {
		fee = *order.DeliveryFee
	}
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
	}
}

func itemCount(order models.Order) int {
	n := 0
	for _, item := range order.Items {
		n += item.Quantity
	}
	return n
}
