package orders

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Brand carries the storefront wording used in shared summaries.
type Brand struct {
	Name     string
	Currency string
}

// FormatSummary renders the plain-text order summary: a header, one line per item,
// a totals block and a footer. Output depends only on its inputs.
func FormatSummary(detail Detail, brand Brand) string {
	order := detail.Order
	var b strings.Builder

	fmt.Fprintf(&b, "%s order %s\n", brand.Name, order.OrderNumber)
	if detail.BranchName != "" {
		fmt.Fprintf(&b, "Branch: %s\n", detail.BranchName)
	}
	fmt.Fprintf(&b, "Placed: %s\n", order.CreatedAt.UTC().Format("2006-01-02 15:04"))
	b.WriteString("\n")

	for _, line := range detail.Lines {
		name := line.ProductName
		if line.VariantName != "" {
			name = fmt.Sprintf("%s (%s)", name, line.VariantName)
		}
		fmt.Fprintf(&b, "%d x %s - %s\n", line.Quantity, name, money(brand, line.LineTotal))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Subtotal: %s\n", money(brand, detail.Totals.Subtotal))
	fmt.Fprintf(&b, "Delivery: %s\n", money(brand, detail.Totals.DeliveryFee))
	fmt.Fprintf(&b, "Total: %s\n", money(brand, detail.Totals.Total))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Method: %s\n", deliveryLabel(order.DeliveryMethod))
	fmt.Fprintf(&b, "Payment: %s\n", order.PaymentMethod.Label())
	if order.CustomerName != nil {
		fmt.Fprintf(&b, "Name: %s\n", *order.CustomerName)
	}
	if order.CustomerPhone != nil {
		fmt.Fprintf(&b, "Phone: %s\n", *order.CustomerPhone)
	}
	if order.DeliveryAddress != nil {
		fmt.Fprintf(&b, "Address: %s\n", *order.DeliveryAddress)
	}
	fmt.Fprintf(&b, "\nThank you for shopping with %s!", brand.Name)
	return b.String()
}

// ChatLink builds a chat deep link prefilled with text. It returns "" when phone has no digits.
func ChatLink(phone, text string) string {
	digits := NormalizePhone(phone)
	if digits == "" {
		return ""
	}
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + escaped
}

func money(brand Brand, amount decimal.Decimal) string {
	if brand.Currency == "" {
		return amount.StringFixed(2)
	}
	return brand.Currency + " " + amount.StringFixed(2)
}

func deliveryLabel(method enums.DeliveryMethod) string {
	switch method {
	case enums.DeliveryMethodDelivery:
		return "Home delivery"
	case enums.DeliveryMethodPickup:
		return "Store pickup"
	}
	return string(method)
}
