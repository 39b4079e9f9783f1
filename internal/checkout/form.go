package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Form is the customer half of a checkout submission.
type Form struct {
	Name           string               `json:"name" validate:"max=120"`
	Email          string               `json:"email" validate:"required,email,max=254"`
	Phone          string               `json:"phone" validate:"required,min=7,max=20"`
	DeliveryMethod enums.DeliveryMethod `json:"deliveryMethod" validate:"required,oneof=delivery pickup"`
	Address        string               `json:"address" validate:"required_if=DeliveryMethod delivery,max=500"`
	DeliveryAreaID *uuid.UUID           `json:"deliveryAreaId,omitempty"`
	DeliveryFee    *decimal.Decimal     `json:"deliveryFee,omitempty"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod" validate:"required,oneof=cod bank_transfer"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func (f *Form) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.DeliveryMethod = enums.DeliveryMethod(strings.ToLower(strings.TrimSpace(string(f.DeliveryMethod))))
	f.PaymentMethod = enums.PaymentMethod(strings.ToLower(strings.TrimSpace(string(f.PaymentMethod))))
}

// Validate trims the form and checks it, returning a VALIDATION_ERROR with per-field details.
func (f *Form) Validate() error {
	f.normalize()
	if err := validate.Struct(f); err != nil {
		return fieldErrors(err)
	}
	if f.DeliveryFee != nil && f.DeliveryFee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{
			"deliveryFee": "must not be negative",
		})
	}
	return nil
}

// Fee is the delivery fee stored on the order: zero for pickup, the submitted fee otherwise.
func (f Form) Fee() decimal.Decimal {
	if f.DeliveryMethod == enums.DeliveryMethodPickup || f.DeliveryFee == nil {
		return decimal.Zero
	}
	return *f.DeliveryFee
}

func fieldErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := map[string]string{}
	for _, fe := range errs {
		details[fe.Field()] = fieldMessage(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for delivery"
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
