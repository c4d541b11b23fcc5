package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartController_GuestFlow(t *testing.T) {
	f := setupGatewayTest(t)
	f.srv.QueueSessionIDs("guest-abc")
	cookie := f.newVisitor(t)

	w := f.do(http.MethodPost, "/cart/items", gin.H{"product_id": 7, "quantity": 2}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "guest", snap.Identity.Kind)
	assert.Equal(t, "guest-abc", snap.Identity.SessionID)
	assert.Equal(t, 2, snap.Cart.TotalItemCount)
	assert.Equal(t, "299.98", snap.Cart.TotalValue)

	// quantity defaults to one
	w = f.do(http.MethodPost, "/cart/items", gin.H{"product_id": 8}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[uint]int{7: 2, 8: 1}, f.srv.GuestCart("guest-abc"))

	w = f.do(http.MethodGet, "/cart", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	require.Len(t, snap.Cart.Items, 2)
	assert.Equal(t, "312.48", snap.Cart.TotalValue)

	itemID := snap.Cart.Items[0].ID
	w = f.do(http.MethodPut, fmt.Sprintf("/cart/items/%d", itemID), gin.H{"quantity": 5}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 6, decodeSnapshot(t, w).Cart.TotalItemCount)

	w = f.do(http.MethodDelete, fmt.Sprintf("/cart/items/%d", itemID), nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeSnapshot(t, w).Cart.TotalItemCount)

	w = f.do(http.MethodDelete, "/cart", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	snap = decodeSnapshot(t, w)
	assert.Empty(t, snap.Cart.Items)
	assert.Equal(t, "0", snap.Cart.TotalValue)
	assert.Empty(t, f.srv.GuestCart("guest-abc"))
}

func TestCartController_Rejections(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)
	// the sold out check needs the catalog
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/", nil, cookie).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   gin.H
		status int
		code   string
	}{
		{"sold out", http.MethodPost, "/cart/items", gin.H{"product_id": 9, "quantity": 1}, http.StatusUnprocessableEntity, "VALIDATION_SOLD_OUT"},
		{"zero quantity", http.MethodPost, "/cart/items", gin.H{"product_id": 7, "quantity": 0}, http.StatusUnprocessableEntity, "VALIDATION_INVALID_QUANTITY"},
		{"missing product", http.MethodPost, "/cart/items", gin.H{"quantity": 1}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"stale item update", http.MethodPut, "/cart/items/999", gin.H{"quantity": 2}, http.StatusConflict, "CART_STALE_ITEM"},
		{"stale item removal", http.MethodDelete, "/cart/items/999", nil, http.StatusConflict, "CART_STALE_ITEM"},
		{"invalid item id", http.MethodDelete, "/cart/items/zero", nil, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.body != nil {
				body = tt.body
			}
			w := f.do(tt.method, tt.path, body, cookie)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w)["error"])
		})
	}

	assert.Empty(t, f.srv.RequestsTo(http.MethodPost, "/v2/cart/add"))
}

func TestCartController_ServerFailure(t *testing.T) {
	f := setupGatewayTest(t)
	cookie := f.newVisitor(t)
	f.srv.Fail("POST /v2/cart/add", http.StatusInternalServerError, "Cart service unavailable")

	w := f.do(http.MethodPost, "/cart/items", gin.H{"product_id": 7, "quantity": 1}, cookie)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Cart service unavailable", body["message"])

	f.login(t, cookie, f.customer.Email)
	f.srv.Drop("GET /v2/cart/items")
	w = f.do(http.MethodGet, "/cart", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeSnapshot(t, w).Err)
}

func TestCheckoutController_GetSummary(t *testing.T) {
	f := setupGatewayTest(t)
	f.srv.SetUserCart(f.customer.ID, map[uint]int{7: 2, 8: 1})

	t.Run("anonymous visitor is sent to login", func(t *testing.T) {
		w := f.do(http.MethodGet, "/checkout", nil, f.newVisitor(t))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("signed in", func(t *testing.T) {
		cookie := f.newVisitor(t)
		f.login(t, cookie, f.customer.Email)

		w := f.do(http.MethodGet, "/checkout", nil, cookie)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		assert.Equal(t, float64(3), body["item_count"])
		assert.Equal(t, "312,48 €", body["total_text"])
		assert.Equal(t, "0,00 €", body["shipping_text"])
		assert.Len(t, body["lines"], 2)
	})
}
