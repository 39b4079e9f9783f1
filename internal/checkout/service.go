package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type numberSource interface {
	Next() (string, error)
}

type placementMetrics interface {
	IncOrderPlaced(deliveryMethod string)
	IncCompensation(ok bool)
}

// Service turns a submitted cart plus customer form into a persisted order.
type Service interface {
	PlaceOrder(ctx context.Context, items []cart.Item, form Form) (uuid.UUID, error)
}

// Options selects the write strategy.
type Options struct {
	// UseTransaction writes order and items in one database transaction instead of
	// the two-step write with a compensating delete.
	UseTransaction bool
}

type service struct {
	repo    Repository
	tx      txRunner
	numbers numberSource
	metrics placementMetrics
	logg    *logger.Logger
	opts    Options
}

// NewService builds the checkout service. tx is only required when opts.UseTransaction is set.
func NewService(repo Repository, tx txRunner, numbers numberSource, metrics placementMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("order number source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.UseTransaction && tx == nil {
		return nil, fmt.Errorf("tx runner required for transactional checkout")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		numbers: numbers,
		metrics: metrics,
		logg:    logg,
		opts:    opts,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, items []cart.Item, form Form) (uuid.UUID, error) {
	if len(items) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := form.Validate(); err != nil {
		return uuid.Nil, err
	}

	branchID, err := uuid.Parse(items[0].BranchID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch id")
	}
	lines, err := orderLines(items)
	if err != nil {
		return uuid.Nil, err
	}

	number, err := s.numbers.Next()
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	fee := form.Fee()
	order := &models.Order{
		ID:             uuid.New(),
		BranchID:       branchID,
		OrderNumber:    number,
		Status:         enums.OrderStatusPending,
		CustomerName:   optional(form.Name),
		CustomerEmail:  form.Email,
		CustomerPhone:  optional(form.Phone),
		DeliveryMethod: form.DeliveryMethod,
		DeliveryFee:    &fee,
		PaymentMethod:  form.PaymentMethod,
	}
	if form.DeliveryMethod == enums.DeliveryMethodDelivery {
		order.DeliveryAddress = optional(form.Address)
		order.DeliveryAreaID = form.DeliveryAreaID
	}
	for i := range lines {
		lines[i].OrderID = order.ID
	}

	ctx = s.logg.WithBranchID(ctx, branchID.String())
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if s.opts.UseTransaction {
		err = s.writeInTx(ctx, order, lines)
	} else {
		err = s.writeWithCompensation(ctx, order, lines)
	}
	if err != nil {
		return uuid.Nil, err
	}

	if s.metrics != nil {
		s.metrics.IncOrderPlaced(string(order.DeliveryMethod))
	}
	ctx = s.logg.WithField(ctx, "order_number", order.OrderNumber)
	s.logg.Info(ctx, "order placed")
	return order.ID, nil
}

// writeWithCompensation inserts the order then its items; when the items fail the order
// row is deleted again so no order is left without lines.
func (s *service) writeWithCompensation(ctx context.Context, order *models.Order, lines []models.OrderItem) error {
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		s.logg.Error(ctx, "checkout.insert_order_failed", err)
		return insertOrderFailed(err)
	}
	if err := s.repo.CreateItems(ctx, lines); err != nil {
		s.logg.Error(ctx, "checkout.insert_items_failed", err)
		s.compensate(ctx, order.ID)
		return insertItemsFailed(err)
	}
	return nil
}

func (s *service) compensate(ctx context.Context, orderID uuid.UUID) {
	// Detached so a cancelled request still removes the orphan.
	err := s.repo.DeleteOrder(context.WithoutCancel(ctx), orderID)
	if s.metrics != nil {
		s.metrics.IncCompensation(err == nil)
	}
	if err != nil {
		s.logg.Error(ctx, "checkout.compensation_failed", err)
		return
	}
	s.logg.Warn(ctx, "checkout.order_compensated")
}

func (s *service) writeInTx(ctx context.Context, order *models.Order, lines []models.OrderItem) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return insertOrderFailed(err)
		}
		if err := repo.CreateItems(ctx, lines); err != nil {
			return insertItemsFailed(err)
		}
		return nil
	})
}

func orderLines(items []cart.Item) ([]models.OrderItem, error) {
	inputs := make([]checkout.LineInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, checkout.LineInput{
			VariantID: item.VariantID,
			Label:     item.VariantLabel,
			Quantity:  item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}
	if err := checkout.ValidateLines(inputs); err != nil {
		return nil, err
	}

	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		variantID, err := uuid.Parse(item.VariantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id").WithDetails(map[string]any{
				"variantId": item.VariantID,
			})
		}
		lines = append(lines, models.OrderItem{
			ProductVariantID: variantID,
			Quantity:         item.Qty,
			UnitPrice:        item.UnitPrice,
		})
	}
	return lines, nil
}

func insertOrderFailed(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, "insert order failed: "+err.Error()).WithStep("insert_order")
}

func insertItemsFailed(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, "insert items failed: "+err.Error()).WithStep("insert_items")
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
