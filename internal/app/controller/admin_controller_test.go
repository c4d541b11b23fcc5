package controller

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestAdminController_Guards(t *testing.T) {
	f := setupGatewayTest(t)

	customer := f.newVisitor(t)
	f.login(t, customer, f.customer.Email)
	manager := f.newVisitor(t)
	f.login(t, manager, "manager@example.com")

	tests := []struct {
		name     string
		cookie   *http.Cookie
		path     string
		status   int
		location string
	}{
		{"anonymous dashboard", f.newVisitor(t), "/dashboard", http.StatusFound, "/login"},
		{"customer dashboard", customer, "/dashboard", http.StatusFound, "/unauthorized"},
		{"manager dashboard", manager, "/dashboard", http.StatusOK, ""},
		{"manager products", manager, "/admin/products", http.StatusOK, ""},
		{"manager categories", manager, "/categories", http.StatusFound, "/unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodGet, tt.path, nil, tt.cookie)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}

func TestAdminController_Dashboard(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)
	f.login(t, cookie, "manager@example.com")

	w := f.do(http.MethodGet, "/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(3), body["total_products"])
	assert.Equal(t, float64(2), body["total_low_products_in_stock"])
	assert.Len(t, body["latest_products"], 3)
}

func TestAdminController_Products(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)
	f.login(t, cookie, "manager@example.com")

	cover := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(cover, testPNG, 0o600))

	t.Run("create with image", func(t *testing.T) {
		w := f.do(http.MethodPost, "/admin/products", gin.H{
			"name":        "Neon Racer",
			"price":       "59.90",
			"stock":       4,
			"status":      "available",
			"category_id": 1,
			"images":      []string{cover},
		}, cookie)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		uploads := f.srv.Uploads()
		require.Len(t, uploads, 1)
		assert.Equal(t, "neon-racer", uploads[0].Fields["slug"])
		assert.Equal(t, "59.90", uploads[0].Fields["price"])
		assert.Equal(t, []string{"cover.png"}, uploads[0].Files)
	})

	t.Run("update", func(t *testing.T) {
		w := f.do(http.MethodPut, "/admin/products/7", gin.H{
			"name":        "Retro Console II",
			"price":       "159.99",
			"stock":       10,
			"status":      "available",
			"category_id": 1,
		}, cookie)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		uploads := f.srv.Uploads()
		last := uploads[len(uploads)-1]
		assert.Equal(t, "/v1/admin/products/7", last.Path)
		assert.Equal(t, http.MethodPut, last.Query.Get("_method"))
	})

	t.Run("invalid form", func(t *testing.T) {
		w := f.do(http.MethodPost, "/admin/products", gin.H{
			"name":   "",
			"price":  "10",
			"status": "available",
		}, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		fields := decode(t, w)["fields"].(map[string]interface{})
		assert.Contains(t, fields, "Name")
		assert.Contains(t, fields, "CategoryID")
	})

	t.Run("unreadable image", func(t *testing.T) {
		w := f.do(http.MethodPost, "/admin/products", gin.H{
			"name":        "Ghost",
			"price":       "10",
			"status":      "available",
			"category_id": 1,
			"images":      []string{filepath.Join(t.TempDir(), "missing.png")},
		}, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "VALIDATION_INVALID_FILE", decode(t, w)["error"])
	})

	t.Run("get and delete", func(t *testing.T) {
		w := f.do(http.MethodGet, "/admin/products/8", nil, cookie)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Arcade Stick", decode(t, w)["product"].(map[string]interface{})["name"])

		w = f.do(http.MethodDelete, "/admin/products/8", nil, cookie)
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(http.MethodDelete, "/admin/products/8", nil, cookie)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Product not found", decode(t, w)["message"])
	})
}

func TestAdminController_Categories(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)
	f.login(t, cookie, "root@example.com")

	w := f.do(http.MethodPost, "/categories", gin.H{"name": "Retro Games"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/categories", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode(t, w)["categories"].([]interface{})
	require.Len(t, categories, 2)
	created := categories[1].(map[string]interface{})
	assert.Equal(t, "retro-games", created["slug"])

	w = f.do(http.MethodPut, "/categories/1", gin.H{"name": "Home Consoles"}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/categories/1", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "home-consoles", decode(t, w)["category"].(map[string]interface{})["slug"])

	w = f.do(http.MethodPost, "/categories", gin.H{"name": "   "}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(http.MethodDelete, "/categories/1", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, "/categories/1", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
