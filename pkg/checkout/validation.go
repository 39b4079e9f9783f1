package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// LineInput describes the data required to verify one submitted order line.
type LineInput struct {
	VariantID string
	Label     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineViolationDetail exposes the data returned to callers when a validation fails.
type LineViolationDetail struct {
	Index     int    `json:"index"`
	VariantID string `json:"variantId,omitempty"`
	Label     string `json:"label,omitempty"`
	Reason    string `json:"reason"`
}

// ValidateLines ensures every line carries a positive quantity and a non-negative unit price.
func ValidateLines(lines []LineInput) error {
	var violations []LineViolationDetail
	for i, line := range lines {
		reason := ""
		switch {
		case line.Quantity < 1:
			reason = "quantity must be at least 1"
		case line.UnitPrice.IsNegative():
			reason = "unit price must not be negative"
		}
		if reason == "" {
			continue
		}
		violations = append(violations, LineViolationDetail{
			Index:     i,
			VariantID: line.VariantID,
			Label:     line.Label,
			Reason:    reason,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity or price for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
