package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository is the read side the inventory query layer composes.
type Repository interface {
	ActiveBranches(ctx context.Context) ([]models.Branch, error)
	BranchByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ActiveProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error)
	SearchActiveProducts(ctx context.Context, term string) ([]models.Product, error)
	RecentActiveProducts(ctx context.Context, limit int) ([]models.Product, error)
	ActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	VariantsByPrice(ctx context.Context, productIDs []uuid.UUID) ([]models.ProductVariant, error)
	BranchQuantities(ctx context.Context, branchID uuid.UUID, variantIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveBranches(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&branches).Error
	return branches, err
}

func (r *repository) BranchByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *repository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *repository) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) ActiveProductsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// SearchActiveProducts matches term case-insensitively against name or description.
// Every match is returned.
func (r *repository) SearchActiveProducts(ctx context.Context, term string) ([]models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\\')", pattern, pattern).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

func (r *repository) RecentActiveProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *repository) ActiveProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) VariantsByPrice(ctx context.Context, productIDs []uuid.UUID) ([]models.ProductVariant, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("price ASC").
		Order("created_at ASC").
		Find(&variants).Error
	return variants, err
}

// BranchQuantities returns the stored quantity per variant; variants without a row are absent.
func (r *repository) BranchQuantities(ctx context.Context, branchID uuid.UUID, variantIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	var rows []models.InventoryRow
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND product_variant_id IN ?", branchID, variantIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ProductVariantID] = row.Quantity
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
