package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// SearchLimit caps the empty-term "recent" fallback. Term searches are unbounded.
const SearchLimit = 50

// HomeRecentLimit is how many recent products the branch home page shows.
const HomeRecentLimit = 12

// VariantStock is one purchasable variant on a product page.
type VariantStock struct {
	VariantRef
	Quantity int  `json:"quantity"`
	InStock  bool `json:"inStock"`
}

// ProductDetail is a product page for one branch, variants in ascending price.
type ProductDetail struct {
	ProductCard
	Variants []VariantStock `json:"variants"`
}

// Home bundles what the branch landing page renders.
type Home struct {
	Branch     models.Branch     `json:"branch"`
	Branches   []models.Branch   `json:"branches"`
	Categories []models.Category `json:"categories"`
	Recent     []ProductCard     `json:"recent"`
}

// Service is the inventory query layer: listing entry points that fold branch stock
// into product cards.
type Service interface {
	Branches(ctx context.Context) ([]models.Branch, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Branch(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	ByCategory(ctx context.Context, branchID uuid.UUID, categorySlug string) ([]ProductCard, error)
	Search(ctx context.Context, branchID uuid.UUID, term string) ([]ProductCard, error)
	Recent(ctx context.Context, branchID uuid.UUID, limit int) ([]ProductCard, error)
	ProductDetail(ctx context.Context, branchID uuid.UUID, slug string) (*ProductDetail, error)
	Home(ctx context.Context, branchID uuid.UUID) (*Home, error)
	InvalidateLookups()
}

// Options tunes the lookup cache.
type Options struct {
	LookupTTL       time.Duration
	CleanupInterval time.Duration
}

type service struct {
	repo  Repository
	cache *lookupCache
}

// NewService builds the catalog service over repo.
func NewService(repo Repository, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, cache: newLookupCache(opts.LookupTTL, opts.CleanupInterval)}, nil
}

func (s *service) Branches(ctx context.Context) ([]models.Branch, error) {
	branches, err := cached(s.cache, keyActiveBranches, func() ([]models.Branch, error) {
		return s.repo.ActiveBranches(ctx)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	return branches, nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := cached(s.cache, keyCategories, func() ([]models.Category, error) {
		return s.repo.Categories(ctx)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

// Branch resolves a customer-facing branch; inactive branches read as missing.
func (s *service) Branch(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	branch, err := cached(s.cache, keyBranchPrefix+id.String(), func() (*models.Branch, error) {
		return s.repo.BranchByID(ctx, id)
	})
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load branch")
	}
	if !branch.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	return branch, nil
}

func (s *service) ByCategory(ctx context.Context, branchID uuid.UUID, categorySlug string) ([]ProductCard, error) {
	if _, err := s.Branch(ctx, branchID); err != nil {
		return nil, err
	}
	category, err := s.repo.CategoryBySlug(ctx, strings.TrimSpace(categorySlug))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	products, err := s.repo.ActiveProductsByCategory(ctx, category.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category products")
	}
	return s.cards(ctx, branchID, products)
}

// Search returns products matching term; an empty term falls back to the most recent.
func (s *service) Search(ctx context.Context, branchID uuid.UUID, term string) ([]ProductCard, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.Recent(ctx, branchID, SearchLimit)
	}
	if _, err := s.Branch(ctx, branchID); err != nil {
		return nil, err
	}
	products, err := s.repo.SearchActiveProducts(ctx, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return s.cards(ctx, branchID, products)
}

func (s *service) Recent(ctx context.Context, branchID uuid.UUID, limit int) ([]ProductCard, error) {
	if limit <= 0 || limit > SearchLimit {
		limit = SearchLimit
	}
	if _, err := s.Branch(ctx, branchID); err != nil {
		return nil, err
	}
	products, err := s.repo.RecentActiveProducts(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent products")
	}
	return s.cards(ctx, branchID, products)
}

func (s *service) ProductDetail(ctx context.Context, branchID uuid.UUID, slug string) (*ProductDetail, error) {
	if _, err := s.Branch(ctx, branchID); err != nil {
		return nil, err
	}
	product, err := s.repo.ActiveProductBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	variants, err := s.repo.VariantsByPrice(ctx, []uuid.UUID{product.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	quantities, err := s.repo.BranchQuantities(ctx, branchID, variantIDs(variants))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}

	cards := Aggregate([]models.Product{*product}, variants, inStockSet(quantities))
	detail := &ProductDetail{ProductCard: cards[0], Variants: make([]VariantStock, 0, len(variants))}
	for _, v := range byPrice(variants) {
		qty := quantities[v.ID]
		detail.Variants = append(detail.Variants, VariantStock{
			VariantRef: *refOf(v),
			Quantity:   qty,
			InStock:    qty > 0,
		})
	}
	return detail, nil
}

// Home loads the landing page pieces concurrently.
func (s *service) Home(ctx context.Context, branchID uuid.UUID) (*Home, error) {
	branch, err := s.Branch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	home := &Home{Branch: *branch}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		branches, err := s.Branches(gctx)
		home.Branches = branches
		return err
	})
	g.Go(func() error {
		categories, err := s.Categories(gctx)
		home.Categories = categories
		return err
	})
	g.Go(func() error {
		recent, err := s.Recent(gctx, branchID, HomeRecentLimit)
		home.Recent = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return home, nil
}

func (s *service) InvalidateLookups() {
	s.cache.Flush()
}

func (s *service) cards(ctx context.Context, branchID uuid.UUID, products []models.Product) ([]ProductCard, error) {
	if len(products) == 0 {
		return []ProductCard{}, nil
	}
	variants, err := s.repo.VariantsByPrice(ctx, productIDs(products))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list variants")
	}
	quantities, err := s.repo.BranchQuantities(ctx, branchID, variantIDs(variants))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return Aggregate(products, variants, inStockSet(quantities)), nil
}

func inStockSet(quantities map[uuid.UUID]int) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(quantities))
	for id, qty := range quantities {
		if qty > 0 {
			set[id] = struct{}{}
		}
	}
	return set
}
