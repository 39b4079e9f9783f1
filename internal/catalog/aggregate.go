package catalog

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// VariantRef is the variant a grid "add to cart" button acts on.
type VariantRef struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	SKU   string          `json:"sku"`
	Price decimal.Decimal `json:"price"`
}

// ProductCard is one product as shown on a branch's listing pages.
type ProductCard struct {
	ID             uuid.UUID       `json:"id"`
	CategoryID     *uuid.UUID      `json:"categoryId,omitempty"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    *string         `json:"description,omitempty"`
	ImageURL       *string         `json:"imageUrl,omitempty"`
	MinPrice       decimal.Decimal `json:"minPrice"`
	InStock        bool            `json:"inStock"`
	PrimaryVariant *VariantRef     `json:"primaryVariant"`
}

// Aggregate folds variants and the branch's in-stock variant ids into one card per
// product, keeping the product order. Variants are considered in ascending price; ties
// keep their incoming order, so the same input always yields the same primary variant.
func Aggregate(products []models.Product, variants []models.ProductVariant, inStock map[uuid.UUID]struct{}) []ProductCard {
	byProduct := make(map[uuid.UUID][]models.ProductVariant, len(products))
	for _, v := range byPrice(variants) {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}

	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		card := ProductCard{
			ID:          p.ID,
			CategoryID:  p.CategoryID,
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			MinPrice:    p.BasePrice,
		}

		pv := byProduct[p.ID]
		if len(pv) > 0 {
			card.MinPrice = pv[0].Price
			primary := pv[0]
			for _, v := range pv {
				if _, ok := inStock[v.ID]; ok {
					card.InStock = true
					primary = v
					break
				}
			}
			card.PrimaryVariant = refOf(primary)
		}
		cards = append(cards, card)
	}
	return cards
}

// byPrice returns a copy sorted by ascending price, ties in incoming order.
func byPrice(variants []models.ProductVariant) []models.ProductVariant {
	ordered := append([]models.ProductVariant(nil), variants...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Price.LessThan(ordered[j].Price)
	})
	return ordered
}

func refOf(v models.ProductVariant) *VariantRef {
	return &VariantRef{ID: v.ID, Name: v.Name, SKU: v.SKU, Price: v.Price}
}

func productIDs(products []models.Product) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func variantIDs(variants []models.ProductVariant) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}
	return ids
}
