package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes admin catalog management.
type Service interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, search string, params pagination.Params) (*ProductList, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SetImage(ctx context.Context, id uuid.UUID, url string) error

	CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input VariantUpdate) (*models.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Invalidator drops cached storefront lookups after a catalog write.
type Invalidator interface {
	InvalidateLookups()
}

type service struct {
	repo  *Repository
	tx    txRunner
	cache Invalidator
	logg  *logger.Logger
}

var (
	errCategoryNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	errProductNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	errVariantNotFound  = pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
)

// NewService builds the catalog admin service. cache may be nil.
func NewService(repo *Repository, tx txRunner, cache Invalidator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, cache: cache, logg: logg}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := resolveSlug(input.Slug, name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
	}
	if input.ParentID != nil {
		if err := s.requireCategory(ctx, *input.ParentID, "parent category not found"); err != nil {
			return nil, err
		}
	}
	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: optional(input.Description),
		ParentID:    input.ParentID,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, writeError(err, "category slug already exists")
	}
	s.written(ctx, "category_id", category.ID, "category created")
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*models.Category, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, lookupError(err, errCategoryNotFound, "load category")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		category.Name = name
	}
	if input.Slug != nil {
		slug := Slugify(*input.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
		}
		category.Slug = slug
	}
	if input.Description != nil {
		category.Description = optional(input.Description)
	}
	if input.ParentID.Set {
		parent := input.ParentID.Ptr()
		if parent != nil {
			if *parent == category.ID {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
			}
			if err := s.requireCategory(ctx, *parent, "parent category not found"); err != nil {
				return nil, err
			}
		}
		category.ParentID = parent
	}
	if err := s.repo.SaveCategory(ctx, category); err != nil {
		return nil, writeError(err, "category slug already exists")
	}
	s.written(ctx, "category_id", category.ID, "category updated")
	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).DeleteCategory(ctx, id)
		affected = n
		return err
	})
	if err != nil {
		return writeError(err, "category is still referenced")
	}
	if affected == 0 {
		return errCategoryNotFound
	}
	s.written(ctx, "category_id", id, "category deleted")
	return nil
}

func (s *service) ListProducts(ctx context.Context, search string, params pagination.Params) (*ProductList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListProducts(ctx, search, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	page, next := pagination.Trim(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	if page == nil {
		page = []models.Product{}
	}
	return &ProductList{Products: page, NextCursor: next}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, lookupError(err, errProductNotFound, "load product")
	}
	return product, nil
}

// CreateProduct inserts the product and its initial variants in one transaction. Without
// an explicit base price the cheapest variant price is used.
func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := resolveSlug(input.Slug, name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
	}
	if input.CategoryID != nil {
		if err := s.requireCategory(ctx, *input.CategoryID, "category not found"); err != nil {
			return nil, err
		}
	}
	variants := make([]models.ProductVariant, 0, len(input.Variants))
	for _, v := range input.Variants {
		variant, err := buildVariant(v)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}

	product := &models.Product{
		Name:        name,
		Slug:        slug,
		Description: optional(input.Description),
		CategoryID:  input.CategoryID,
		BasePrice:   basePrice(input.BasePrice, variants),
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if product.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateProduct(ctx, product); err != nil {
			return err
		}
		for i := range variants {
			variants[i].ProductID = product.ID
		}
		return txRepo.CreateVariants(ctx, variants)
	})
	if err != nil {
		return nil, writeError(err, "product slug or variant sku already exists")
	}
	product.Variants = variants
	s.written(ctx, "product_id", product.ID, "product created")
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdate) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		product.Name = name
	}
	if input.Slug != nil {
		slug := Slugify(*input.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
		}
		product.Slug = slug
	}
	if input.Description != nil {
		product.Description = optional(input.Description)
	}
	if input.CategoryID.Set {
		category := input.CategoryID.Ptr()
		if category != nil {
			if err := s.requireCategory(ctx, *category, "category not found"); err != nil {
				return nil, err
			}
		}
		product.CategoryID = category
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
		}
		product.BasePrice = *input.BasePrice
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, writeError(err, "product slug already exists")
	}
	s.written(ctx, "product_id", product.ID, "product updated")
	return product, nil
}

// DeleteProduct removes the product with its variants. Variants already sold are
// referenced by order items, so such products are refused.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).DeleteProduct(ctx, id)
		affected = n
		return err
	})
	if err != nil {
		return writeError(err, "product has been ordered; deactivate it instead")
	}
	if affected == 0 {
		return errProductNotFound
	}
	s.written(ctx, "product_id", id, "product deleted")
	return nil
}

func (s *service) SetImage(ctx context.Context, id uuid.UUID, url string) error {
	affected, err := s.repo.SetImageURL(ctx, id, url)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
	}
	if affected == 0 {
		return errProductNotFound
	}
	s.written(ctx, "product_id", id, "product image set")
	return nil
}

func (s *service) CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.ProductVariant, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	variant, err := buildVariant(input)
	if err != nil {
		return nil, err
	}
	variant.ProductID = productID
	variants := []models.ProductVariant{variant}
	if err := s.repo.CreateVariants(ctx, variants); err != nil {
		return nil, writeError(err, "variant sku already exists")
	}
	s.written(ctx, "variant_id", variants[0].ID, "variant created")
	return &variants[0], nil
}

func (s *service) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, input VariantUpdate) (*models.ProductVariant, error) {
	variant, err := s.repo.FindVariant(ctx, productID, variantID)
	if err != nil {
		return nil, lookupError(err, errVariantNotFound, "load variant")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		variant.Name = name
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
		}
		variant.SKU = sku
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		variant.Price = *input.Price
	}
	if err := s.repo.SaveVariant(ctx, variant); err != nil {
		return nil, writeError(err, "variant sku already exists")
	}
	s.written(ctx, "variant_id", variant.ID, "variant updated")
	return variant, nil
}

func (s *service) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	affected, err := s.repo.DeleteVariant(ctx, productID, variantID)
	if err != nil {
		return writeError(err, "variant has been ordered and cannot be deleted")
	}
	if affected == 0 {
		return errVariantNotFound
	}
	s.written(ctx, "variant_id", variantID, "variant deleted")
	return nil
}

func (s *service) requireCategory(ctx context.Context, id uuid.UUID, missing string) error {
	if _, err := s.repo.FindCategory(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, missing).WithDetails(map[string]any{"id": id.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func (s *service) written(ctx context.Context, field string, id uuid.UUID, msg string) {
	if s.cache != nil {
		s.cache.InvalidateLookups()
	}
	s.logg.Info(s.logg.WithField(ctx, field, id.String()), msg)
}

func buildVariant(input VariantInput) (models.ProductVariant, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" || sku == "" {
		return models.ProductVariant{}, pkgerrors.New(pkgerrors.CodeValidation, "variant name and sku are required")
	}
	if input.Price.IsNegative() {
		return models.ProductVariant{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").
			WithDetails(map[string]any{"sku": sku})
	}
	return models.ProductVariant{Name: name, SKU: sku, Price: input.Price}, nil
}

func basePrice(explicit *decimal.Decimal, variants []models.ProductVariant) decimal.Decimal {
	if explicit != nil {
		return *explicit
	}
	if len(variants) == 0 {
		return decimal.Zero
	}
	lowest := variants[0].Price
	for _, v := range variants[1:] {
		if v.Price.LessThan(lowest) {
			lowest = v.Price
		}
	}
	return lowest
}

// writeError maps uniqueness and reference failures to CONFLICT and keeps the
// store's message for everything else.
func writeError(err error, conflict string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsUniqueViolation(err, "") || db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, conflict)
	}
	return pkgerrors.Wrap(pkgerrors.CodeWriteFailed, err, err.Error())
}

func lookupError(err error, notFound error, action string) error {
	if db.IsNotFound(err) {
		return notFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func optional(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
