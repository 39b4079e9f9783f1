package product

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type countingCache struct{ flushes int }

func (c *countingCache) InvalidateLookups() { c.flushes++ }

type fixture struct {
	conn  *gorm.DB
	svc   Service
	cache *countingCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return fixtureOn(t, dbtest.Open(t))
}

func fixtureOn(t *testing.T, conn *gorm.DB) fixture {
	t.Helper()
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cache := &countingCache{}
	svc, err := NewService(NewRepository(conn), db.FromConn(conn), cache, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return fixture{conn: conn, svc: svc, cache: cache}
}

func ptr[T any](v T) *T { return &v }

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Fresh Produce":          "fresh-produce",
		"  Milk & Dairy!! ":      "milk-dairy",
		"Rice -- 5kg":            "rice-5kg",
		"---":                    "",
		"Kithul Treacle (750ml)": "kithul-treacle-750ml",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	produce, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Fresh Produce"})
	require.NoError(t, err)
	assert.Equal(t, "fresh-produce", produce.Slug)

	_, err = f.svc.CreateCategory(ctx, CategoryInput{Name: "Produce", Slug: ptr("Fresh Produce")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	fruit, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "Fruit", ParentID: &produce.ID})
	require.NoError(t, err)
	require.NotNil(t, fruit.ParentID)

	_, err = f.svc.CreateCategory(ctx, CategoryInput{Name: "Orphan", ParentID: ptr(uuid.New())})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var self CategoryUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"parentId":"`+fruit.ID.String()+`"}`), &self))
	_, err = f.svc.UpdateCategory(ctx, fruit.ID, self)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var root CategoryUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"parentId":null,"name":"Fruits"}`), &root))
	updated, err := f.svc.UpdateCategory(ctx, fruit.ID, root)
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "Fruits", updated.Name)
	assert.Equal(t, "fruit", updated.Slug)

	mango := dbtest.Product(t, f.conn, "Mango", "mango", dbtest.ProductOpts{CategoryID: &produce.ID})
	require.NoError(t, f.svc.DeleteCategory(ctx, produce.ID))
	assert.True(t, pkgerrors.IsCode(f.svc.DeleteCategory(ctx, produce.ID), pkgerrors.CodeNotFound))

	reloaded, err := f.svc.GetProduct(ctx, mango.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CategoryID)

	all, err := f.svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Fruits", all[0].Name)
	assert.Equal(t, 4, f.cache.flushes)
}

func TestCreateProductWithVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, ProductInput{
		Name:        "Basmati Rice",
		Description: ptr("  Long grain  "),
		Variants: []VariantInput{
			{Name: "5kg", SKU: "RICE-5", Price: decimal.NewFromInt(2400)},
			{Name: "1kg", SKU: "RICE-1", Price: decimal.NewFromInt(520)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "basmati-rice", created.Slug)
	assert.True(t, created.IsActive)
	assert.True(t, created.BasePrice.Equal(decimal.NewFromInt(520)))
	require.NotNil(t, created.Description)
	assert.Equal(t, "Long grain", *created.Description)

	loaded, err := f.svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Variants, 2)
	assert.Equal(t, "RICE-1", loaded.Variants[0].SKU)
	assert.Equal(t, "RICE-5", loaded.Variants[1].SKU)
}

func TestCreateProductRollsBackOnDuplicateSKU(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := dbtest.Product(t, f.conn, "Sugar", "sugar", dbtest.ProductOpts{})
	dbtest.Variant(t, f.conn, existing.ID, "SUGAR-1", "300", time.Time{})

	_, err := f.svc.CreateProduct(ctx, ProductInput{
		Name:     "Brown Sugar",
		Variants: []VariantInput{{Name: "1kg", SKU: "SUGAR-1", Price: decimal.NewFromInt(350)}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var count int64
	require.NoError(t, f.conn.Model(&models.Product{}).Where("slug = ?", "brown-sugar").Count(&count).Error)
	assert.Zero(t, count)

	_, err = f.svc.CreateProduct(ctx, ProductInput{
		Name:     "Salt",
		Variants: []VariantInput{{Name: "1kg", SKU: "SALT-1", Price: decimal.NewFromInt(-1)}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := dbtest.Category(t, f.conn, "Pantry", "pantry")
	p := dbtest.Product(t, f.conn, "Dhal", "dhal", dbtest.ProductOpts{CategoryID: &cat.ID, BasePrice: "200"})

	updated, err := f.svc.UpdateProduct(ctx, p.ID, ProductUpdate{IsActive: ptr(false), BasePrice: ptr(decimal.NewFromInt(250))})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.BasePrice.Equal(decimal.NewFromInt(250)))
	require.NotNil(t, updated.CategoryID)

	var uncategorize ProductUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"categoryId":null}`), &uncategorize))
	updated, err = f.svc.UpdateProduct(ctx, p.ID, uncategorize)
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)

	dbtest.Product(t, f.conn, "Red Dhal", "red-dhal", dbtest.ProductOpts{})
	_, err = f.svc.UpdateProduct(ctx, p.ID, ProductUpdate{Slug: ptr("Red Dhal")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = f.svc.UpdateProduct(ctx, uuid.New(), ProductUpdate{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestVariantLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := dbtest.Product(t, f.conn, "Tea", "tea", dbtest.ProductOpts{})

	v, err := f.svc.CreateVariant(ctx, p.ID, VariantInput{Name: "100g", SKU: "TEA-100", Price: decimal.NewFromInt(450)})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, v.ID)

	_, err = f.svc.CreateVariant(ctx, p.ID, VariantInput{Name: "100g", SKU: "TEA-100", Price: decimal.NewFromInt(450)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = f.svc.CreateVariant(ctx, uuid.New(), VariantInput{Name: "x", SKU: "X", Price: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := f.svc.UpdateVariant(ctx, p.ID, v.ID, VariantUpdate{Price: ptr(decimal.NewFromInt(480))})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(480)))

	_, err = f.svc.UpdateVariant(ctx, p.ID, v.ID, VariantUpdate{Price: ptr(decimal.NewFromInt(-5))})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UpdateVariant(ctx, uuid.New(), v.ID, VariantUpdate{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.DeleteVariant(ctx, p.ID, v.ID))
	assert.True(t, pkgerrors.IsCode(f.svc.DeleteVariant(ctx, p.ID, v.ID), pkgerrors.CodeNotFound))
}

func TestListProductsPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range []string{"Apple", "Banana", "Cherry"} {
		dbtest.Product(t, f.conn, name, Slugify(name), dbtest.ProductOpts{CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	first, err := f.svc.ListProducts(ctx, "", pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	assert.Equal(t, "Cherry", first.Products[0].Name)
	assert.Equal(t, "Banana", first.Products[1].Name)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.ListProducts(ctx, "", pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, "Apple", second.Products[0].Name)
	assert.Empty(t, second.NextCursor)

	found, err := f.svc.ListProducts(ctx, "ANA", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, found.Products, 1)
	assert.Equal(t, "Banana", found.Products[0].Name)

	_, err = f.svc.ListProducts(ctx, "", pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteProductAndSetImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := dbtest.Product(t, f.conn, "Coconut", "coconut", dbtest.ProductOpts{})
	dbtest.Variant(t, f.conn, p.ID, "COCO-1", "120", time.Time{})

	require.NoError(t, f.svc.SetImage(ctx, p.ID, "https://cdn.example.com/products/coconut.png"))
	loaded, err := f.svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.ImageURL)
	assert.Equal(t, "https://cdn.example.com/products/coconut.png", *loaded.ImageURL)

	assert.True(t, pkgerrors.IsCode(f.svc.SetImage(ctx, uuid.New(), "x"), pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.DeleteProduct(ctx, p.ID))
	var variants int64
	require.NoError(t, f.conn.Model(&models.ProductVariant{}).Where("product_id = ?", p.ID).Count(&variants).Error)
	assert.Zero(t, variants)
	assert.True(t, pkgerrors.IsCode(f.svc.DeleteProduct(ctx, p.ID), pkgerrors.CodeNotFound))
}

func TestDeleteOrderedVariantConflicts(t *testing.T) {
	f := fixtureOn(t, dbtest.OpenStrict(t))
	ctx := context.Background()
	branch := dbtest.Branch(t, f.conn, "Colombo 07")
	p := dbtest.Product(t, f.conn, "Kithul Treacle", "kithul-treacle", dbtest.ProductOpts{})
	ordered := dbtest.Variant(t, f.conn, p.ID, "KITHUL-750", "900", time.Time{})
	spare := dbtest.Variant(t, f.conn, p.ID, "KITHUL-350", "480", time.Time{})
	dbtest.Order(t, f.conn, branch.ID, "SF-1", "", time.Time{}, dbtest.OrderLine{VariantID: ordered.ID, Qty: 1, Price: "900"})

	err := f.svc.DeleteVariant(ctx, p.ID, ordered.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	var items int64
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Where("product_variant_id = ?", ordered.ID).Count(&items).Error)
	assert.Equal(t, int64(1), items)

	require.NoError(t, f.svc.DeleteVariant(ctx, p.ID, spare.ID))
}
