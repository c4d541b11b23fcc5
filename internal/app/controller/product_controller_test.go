package controller

import (
	"net/http"
	"testing"

	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductController_ListProducts(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)

	w := f.do(http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	products := body["products"].([]interface{})
	require.Len(t, products, 3)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(1), body["page_count"])
	assert.Equal(t, float64(0), body["cart_count"])
	assert.NotContains(t, body, "error")

	console := products[0].(map[string]interface{})
	assert.Equal(t, "Retro Console", console["name"])
	assert.Equal(t, testCDN+"/products/console.png", console["image_url"])
	assert.Equal(t, false, console["sold_out"])

	stick := products[1].(map[string]interface{})
	assert.Equal(t, model.PlaceholderImage, stick["image_url"])

	cartridge := products[2].(map[string]interface{})
	assert.Equal(t, true, cartridge["sold_out"])
}

func TestProductController_ListProducts_Search(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)

	w := f.do(http.MethodGet, "/?search=ARCADE&page=4", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ARCADE", body["search"])
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["page"])
	assert.Len(t, body["products"], 1)
}

func TestProductController_ListProducts_CatalogDown(t *testing.T) {
	f := setupGatewayTest(t)
	f.srv.Fail("GET /products", http.StatusInternalServerError, "Catalog is being rebuilt")
	cookie := f.newVisitor(t)

	w := f.do(http.MethodGet, "/", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Empty(t, body["products"])
	assert.Equal(t, "Catalog is being rebuilt", body["error"])
}

func TestProductController_GetProduct(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)

	t.Run("with category", func(t *testing.T) {
		w := f.do(http.MethodGet, "/products/7", nil, cookie)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		product := body["product"].(map[string]interface{})
		assert.Equal(t, "Retro Console", product["name"])
		assert.Equal(t, "149.99", product["price"])
		category := body["category"].(map[string]interface{})
		assert.Equal(t, "Consoles", category["name"])
	})

	t.Run("unknown product", func(t *testing.T) {
		w := f.do(http.MethodGet, "/products/999", nil, cookie)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "RESOURCE_NOT_FOUND", decode(t, w)["error"])
	})

	t.Run("invalid id", func(t *testing.T) {
		w := f.do(http.MethodGet, "/products/abc", nil, cookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
