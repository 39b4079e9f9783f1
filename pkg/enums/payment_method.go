package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is recorded on the order; no payment is processed online.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// paymentLabels doubles as the set of accepted methods.
var paymentLabels = map[PaymentMethod]string{
	PaymentMethodCOD:          "Cash on delivery",
	PaymentMethodBankTransfer: "Bank transfer",
}

func (m PaymentMethod) String() string {
	return string(m)
}

// Label is the customer-facing wording used in order summaries.
func (m PaymentMethod) Label() string {
	if label, ok := paymentLabels[m]; ok {
		return label
	}
	return string(m)
}

func (m PaymentMethod) IsValid() bool {
	_, ok := paymentLabels[m]
	return ok
}

// ParsePaymentMethod accepts the wire value in any letter case.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return m, nil
}
