package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/pkg/logger"
)

// CartItemRequest is the body of add and update calls. SessionID is only
// set for guests that already hold one.
type CartItemRequest struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	SessionID string `json:"session_id,omitempty"`
}

// AddToCartResponse carries the guest session id minted on a first guest add.
type AddToCartResponse struct {
	SessionID string `json:"session_id,omitempty"`
}

type sessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type cartItemsResponse struct {
	Items *[]model.CartItem `json:"items"`
}

func (r *cartItemsResponse) validate() error {
	if r.Items == nil {
		return errors.New("missing items")
	}
	return nil
}

// CartItems returns the cart of the bearer's user, or of the guest session
// when sessionID is set.
func (c *Client) CartItems(ctx context.Context, sessionID string) ([]model.CartItem, error) {
	var query url.Values
	if sessionID != "" {
		query = url.Values{"session_id": {sessionID}}
	}

	var resp cartItemsResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/v2/cart/items", query: query}, &resp); err != nil {
		return nil, err
	}

	items := make([]model.CartItem, 0, len(*resp.Items))
	for _, item := range *resp.Items {
		if item.ProductID == 0 && item.Product != nil {
			item.ProductID = item.Product.ID
		}
		if item.Quantity < 1 {
			c.log.Warn("Dropping cart item with invalid quantity", logger.Fields{
				"cart_item_id": item.ID,
				"quantity":     item.Quantity,
			})
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// AddToCart adds a product line or increases its quantity.
func (c *Client) AddToCart(ctx context.Context, req CartItemRequest) (*AddToCartResponse, error) {
	var resp AddToCartResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/v2/cart/add", body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateCartItem sets the quantity of a product line.
func (c *Client) UpdateCartItem(ctx context.Context, req CartItemRequest) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/v2/cart/update", body: req}, nil)
}

// RemoveCartItem deletes one line by its item id.
func (c *Client) RemoveCartItem(ctx context.Context, itemID uint) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/v2/cart/remove/%d", itemID)}, nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context, sessionID string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/v2/cart/clear", body: sessionRequest{SessionID: sessionID}}, nil)
}

// MergeCart folds the guest cart into the bearer's cart.
func (c *Client) MergeCart(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("merge requires a session id")
	}
	return c.do(ctx, request{method: http.MethodPost, path: "/v2/cart/merge", body: sessionRequest{SessionID: sessionID}}, nil)
}
