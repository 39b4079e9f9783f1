package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// View is the cart as returned to API callers.
type View struct {
	Items     []Item          `json:"items"`
	BranchID  string          `json:"branchId,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
	Version   int             `json:"version"`
}

// Service mirrors a browser cart per session token. Every call loads the token's
// store, applies one mutation and persists it; concurrent writers to one token
// overwrite each other.
type Service interface {
	Get(ctx context.Context, token string) (View, error)
	Add(ctx context.Context, token string, item Item, qty int) (View, error)
	UpdateQty(ctx context.Context, token, branchID, variantID string, qty int) (View, error)
	Remove(ctx context.Context, token, branchID, variantID string) (View, error)
	Clear(ctx context.Context, token string) (View, error)
	Import(ctx context.Context, token string, raw []byte) (View, error)
}

type service struct {
	persisters PersisterProvider
	logg       *logger.Logger
}

// NewService builds a session cart service over the given persistence provider.
func NewService(persisters PersisterProvider, logg *logger.Logger) (Service, error) {
	if persisters == nil {
		return nil, fmt.Errorf("cart persister provider required")
	}
	return &service{persisters: persisters, logg: logg}, nil
}

func (s *service) open(ctx context.Context, token string) (*Store, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart token is required")
	}
	store := NewStore(s.persisters(token), s.logg)
	store.Load(ctx)
	return store, nil
}

func (s *service) Get(ctx context.Context, token string) (View, error) {
	store, err := s.open(ctx, token)
	if err != nil {
		return View{}, err
	}
	return viewOf(store), nil
}

func (s *service) Add(ctx context.Context, token string, item Item, qty int) (View, error) {
	if strings.TrimSpace(item.BranchID) == "" || strings.TrimSpace(item.VariantID) == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "branchId and variantId are required")
	}
	store, err := s.open(ctx, token)
	if err != nil {
		return View{}, err
	}
	store.AddItem(ctx, item, qty)
	return viewOf(store), nil
}

func (s *service) UpdateQty(ctx context.Context, token, branchID, variantID string, qty int) (View, error) {
	store, err := s.open(ctx, token)
	if err != nil {
		return View{}, err
	}
	store.UpdateQty(ctx, branchID, variantID, qty)
	return viewOf(store), nil
}

func (s *service) Remove(ctx context.Context, token, branchID, variantID string) (View, error) {
	store, err := s.open(ctx, token)
	if err != nil {
		return View{}, err
	}
	store.RemoveItem(ctx, branchID, variantID)
	return viewOf(store), nil
}

func (s *service) Clear(ctx context.Context, token string) (View, error) {
	store, err := s.open(ctx, token)
	if err != nil {
		return View{}, err
	}
	store.Clear(ctx)
	return viewOf(store), nil
}

func (s *service) Import(ctx context.Context, token string, raw []byte) (View, error) {
	store, err := s.open(ctx, token)
	if err != nil {
		return View{}, err
	}
	store.Replace(ctx, DecodeEnvelope(raw))
	return viewOf(store), nil
}

func viewOf(store *Store) View {
	items := store.Items()
	if items == nil {
		items = []Item{}
	}
	return View{
		Items:     items,
		BranchID:  store.BranchID(),
		Subtotal:  store.Subtotal(),
		ItemCount: store.ItemCount(),
		Version:   store.Version(),
	}
}
