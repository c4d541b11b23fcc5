package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_FetchProducts(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()

	require.NoError(t, f.sf.Catalog.FetchProducts(ctx))
	assert.Len(t, f.sf.Catalog.Products(), 3)
	assert.False(t, f.sf.Catalog.Loading())
	assert.Empty(t, f.sf.Catalog.Err())

	p, ok := f.sf.Catalog.Lookup(9)
	require.True(t, ok)
	assert.True(t, p.SoldOut())
	_, ok = f.sf.Catalog.Lookup(404)
	assert.False(t, ok)
}

func TestCatalogService_FetchFailureKeepsList(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()
	require.NoError(t, f.sf.Catalog.FetchProducts(ctx))

	f.srv.Fail("GET /products", http.StatusInternalServerError, "")
	err := f.sf.Catalog.FetchProducts(ctx)

	require.Error(t, err)
	assert.Equal(t, "Failed to fetch products", f.sf.Catalog.Err())
	assert.Len(t, f.sf.Catalog.Products(), 3)
}

func TestCatalogService_GetProduct(t *testing.T) {
	f := setupStorefrontTest(t)
	ctx := context.Background()

	detail, err := f.sf.Catalog.GetProduct(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Retro Console", detail.Product.Name)
	require.NotNil(t, detail.Category)
	assert.Equal(t, "Consoles", detail.Category.Name)

	_, err = f.sf.Catalog.GetProduct(ctx, 404)
	require.Error(t, err)
	assert.Equal(t, apperrors.ResourceNotFound, apperrors.Code(err))
}

func TestCatalogService_GetProductCategoryFailure(t *testing.T) {
	f := setupStorefrontTest(t)
	f.srv.Fail("GET /v1/admin/categories/:id", http.StatusForbidden, "This action is unauthorized.")

	detail, err := f.sf.Catalog.GetProduct(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, detail.Category)
}

func browserProducts(n int) []model.Product {
	products := make([]model.Product, 0, n)
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("Game %02d", i)
		if i%5 == 0 {
			name = fmt.Sprintf("Puzzle Box %02d", i)
		}
		products = append(products, model.Product{
			ID:     uint(i),
			Name:   name,
			Price:  decimal.NewFromInt(int64(10 + i)),
			Stock:  1,
			Status: model.StatusAvailable,
		})
	}
	return products
}

func TestProductBrowser_SearchResetsPagination(t *testing.T) {
	b := NewProductBrowser(browserProducts(25), 12)
	assert.Equal(t, 3, b.PageCount())

	b.SetPage(3)
	assert.Equal(t, 3, b.Page())
	assert.Len(t, b.Items(), 1)

	b.SetSearch("puzzle")
	assert.Equal(t, 1, b.Page())
	assert.Equal(t, 1, b.PageCount())
	assert.Len(t, b.Items(), 5)
}

func TestProductBrowser_Filtered(t *testing.T) {
	products := []model.Product{
		{ID: 1, Name: "Retro Console", Description: "Plays cartridges"},
		{ID: 2, Name: "Arcade Stick", Description: "For the RETRO crowd"},
		{ID: 3, Name: "Headset", Description: "Surround sound"},
	}

	tests := []struct {
		name   string
		search string
		want   []uint
	}{
		{"empty term keeps everything", "", []uint{1, 2, 3}},
		{"blank term keeps everything", "   ", []uint{1, 2, 3}},
		{"matches name or description ignoring case", "retro", []uint{1, 2}},
		{"matches description only", "surround", []uint{3}},
		{"no match", "keyboard", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewProductBrowser(products, DefaultPageSize)
			b.SetSearch(tt.search)
			var got []uint
			for _, p := range b.Filtered() {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductBrowser_SetPageClamps(t *testing.T) {
	b := NewProductBrowser(browserProducts(25), 0)
	assert.Equal(t, DefaultPageSize, b.PageSize())

	b.SetPage(99)
	assert.Equal(t, 3, b.Page())
	b.SetPage(-1)
	assert.Equal(t, 1, b.Page())

	b.SetPage(3)
	b.SetProducts(browserProducts(5))
	assert.Equal(t, 1, b.Page())
	assert.Len(t, b.Items(), 5)

	empty := NewProductBrowser(nil, 12)
	assert.Equal(t, 0, empty.PageCount())
	assert.Empty(t, empty.Items())
}
