package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// trackingMismatch is the single answer for unknown numbers and wrong phones alike.
const trackingMismatch = "order not found or phone does not match"

// Service drives the admin status workflow and the customer read paths.
type Service interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error)
	Track(ctx context.Context, orderNumber, phone string) (*Tracking, error)
	Get(ctx context.Context, orderID uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter ListFilter) (*List, error)
	Share(ctx context.Context, orderID uuid.UUID) (*Share, error)
}

type service struct {
	repo  Repository
	brand Brand
	logg  *logger.Logger
}

// NewService builds the orders service.
func NewService(repo Repository, brand Brand, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, brand: brand, logg: logg}, nil
}

// UpdateStatus sets any known status regardless of the current one.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	next, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").WithDetails(map[string]any{
			"status": status,
		})
	}

	affected, err := s.repo.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	ctx = s.logg.WithField(ctx, "status", next)
	s.logg.Info(ctx, "order status updated")
	return order, nil
}

func (s *service) Track(ctx context.Context, orderNumber, phone string) (*Tracking, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	supplied := NormalizePhone(phone)
	if orderNumber == "" || supplied == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, trackingMismatch)
	}

	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, trackingMismatch)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerPhone == nil || NormalizePhone(*order.CustomerPhone) != supplied {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order.track_phone_mismatch")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, trackingMismatch)
	}

	lines, err := s.repo.Lines(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	return &Tracking{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Step:        order.Status.Step(),
		Timeline:    enums.OrderTimeline,
		CreatedAt:   order.CreatedAt,
		Lines:       lines,
		Totals:      ComputeTotals(*order),
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	lines, err := s.repo.Lines(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}

	detail := &Detail{
		Order:  *order,
		Lines:  lines,
		Totals: ComputeTotals(*order),
		Step:   order.Status.Step(),
	}
	branch, err := s.repo.FindBranch(ctx, order.BranchID)
	switch {
	case err == nil:
		detail.BranchName = branch.Name
	case db.IsNotFound(err):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) (*List, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	cursor, err := pagination.ParseCursor(filter.Params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page, next := pagination.Trim(rows, filter.Params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})

	out := &List{Orders: make([]Summary, 0, len(page)), NextCursor: next}
	for _, o := range page {
		out.Orders = append(out.Orders, Summary{
			ID:             o.ID,
			BranchID:       o.BranchID,
			OrderNumber:    o.OrderNumber,
			Status:         o.Status,
			CustomerName:   o.CustomerName,
			CustomerPhone:  o.CustomerPhone,
			DeliveryMethod: o.DeliveryMethod,
			PaymentMethod:  o.PaymentMethod,
			ItemCount:      itemCount(o),
			Total:          ComputeTotals(o).Total,
			CreatedAt:      o.CreatedAt,
		})
	}
	return out, nil
}

// Share formats the order summary and, when the branch has a chat number, its deep link.
func (s *service) Share(ctx context.Context, orderID uuid.UUID) (*Share, error) {
	detail, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	text := FormatSummary(*detail, s.brand)
	share := &Share{Text: text}

	branch, err := s.repo.FindBranch(ctx, detail.Order.BranchID)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if branch != nil && branch.WhatsAppPhone != nil {
		share.ChatLink = ChatLink(*branch.WhatsAppPhone, text)
	}
	return share, nil
}

func orderLookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
