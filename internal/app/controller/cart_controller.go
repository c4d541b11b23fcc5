package controller

import (
	"net/http"

	"github.com/gamexpress/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CartController struct{}

func NewCartController() *CartController {
	return &CartController{}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	// defaults to 1; values below 1 are refused by the cart
	Quantity *int `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart refetches and returns the visitor's cart. A failed refetch keeps
// the last projection and reports the error in the snapshot.
// GET /cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	if err := sf.Cart.FetchCart(c.Request.Context()); err != nil {
		log.Warn("Cart refetch failed, serving last known cart", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.JSON(http.StatusOK, sf.Cart.Snapshot())
}

// AddToCart adds a product to the visitor's cart
// POST /cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	log.Debug("Adding item to cart", map[string]interface{}{
		"product_id": req.ProductID,
		"quantity":   quantity,
	})

	if err := sf.Cart.AddToCart(c.Request.Context(), req.ProductID, quantity); err != nil {
		respondError(c, err, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, sf.Cart.Snapshot())
}

// UpdateCartItem sets the quantity of a cart line
// PUT /cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := sf.Cart.UpdateQuantity(c.Request.Context(), itemID, req.Quantity); err != nil {
		respondError(c, err, "Failed to update quantity")
		return
	}

	c.JSON(http.StatusOK, sf.Cart.Snapshot())
}

// RemoveFromCart deletes a cart line
// DELETE /cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := sf.Cart.RemoveFromCart(c.Request.Context(), itemID); err != nil {
		respondError(c, err, "Failed to remove item from cart")
		return
	}

	c.JSON(http.StatusOK, sf.Cart.Snapshot())
}

// ClearCart empties the visitor's cart
// DELETE /cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	if err := sf.Cart.ClearCart(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, sf.Cart.Snapshot())
}
