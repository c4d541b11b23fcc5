package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gamexpress/storefront/internal/app/model"
)

type productsListResponse struct {
	ProductsList *[]model.Product `json:"products_list"`
}

func (r *productsListResponse) validate() error {
	if r.ProductsList == nil {
		return errors.New("missing products_list")
	}
	return nil
}

type productResponse struct {
	model.Product
}

func (r *productResponse) validate() error {
	if r.ID == 0 {
		return errors.New("missing product id")
	}
	return nil
}

// ListProducts returns the public product list.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var resp productsListResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products"}, &resp); err != nil {
		return nil, err
	}
	return *resp.ProductsList, nil
}

// GetProduct returns one product with its images and category id.
func (c *Client) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	var resp productResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/products/%d", id)}, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}
