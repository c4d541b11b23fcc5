package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/shopspring/decimal"
)

const (
	adminCategoriesPath = "/v1/admin/categories"
	adminProductsPath   = "/v1/admin/products"
)

// CategoryInput is the body of category create and update calls.
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"omitempty,max=255"`
}

type categoryUpdate struct {
	CategoryInput
	Method string `json:"_method"`
}

// ProductForm is the non file part of the multipart product form.
type ProductForm struct {
	Name         string              `validate:"required,max=255"`
	Slug         string              `validate:"omitempty,max=255"`
	Price        decimal.Decimal     `validate:"-"`
	Stock        int                 `validate:"gte=0"`
	Status       model.ProductStatus `validate:"required,oneof=available out_of_stock"`
	Description  string              `validate:"max=5000"`
	CategoryID   uint                `validate:"required"`
	PrimaryIndex int                 `validate:"gte=0"`
}

func (f ProductForm) fields(withImages bool) []formField {
	fields := []formField{
		{"name", f.Name},
		{"slug", f.Slug},
		{"price", f.Price.StringFixed(2)},
		{"stock", strconv.Itoa(f.Stock)},
		{"status", string(f.Status)},
		{"description", f.Description},
		{"category_id", strconv.FormatUint(uint64(f.CategoryID), 10)},
	}
	if withImages {
		fields = append(fields, formField{"primary_index", strconv.Itoa(f.PrimaryIndex)})
	}
	return fields
}

type categoriesResponse struct {
	Data *[]model.Category `json:"data"`
}

func (r *categoriesResponse) validate() error {
	if r.Data == nil {
		return errors.New("missing data")
	}
	return nil
}

type categoryResponse struct {
	Data *model.Category `json:"data"`
}

func (r *categoryResponse) validate() error {
	if r.Data == nil {
		return errors.New("missing data")
	}
	return nil
}

type dashboardResponse struct {
	Data *model.DashboardStats `json:"data"`
}

func (r *dashboardResponse) validate() error {
	if r.Data == nil {
		return errors.New("missing data")
	}
	return nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var resp categoriesResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: adminCategoriesPath}, &resp); err != nil {
		return nil, err
	}
	return *resp.Data, nil
}

// GetCategory returns one category.
func (c *Client) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	var resp categoryResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("%s/%d", adminCategoriesPath, id)}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) error {
	return c.do(ctx, request{method: http.MethodPost, path: adminCategoriesPath, body: in}, nil)
}

// UpdateCategory updates a category through method spoofing.
func (c *Client) UpdateCategory(ctx context.Context, id uint, in CategoryInput) error {
	body := categoryUpdate{CategoryInput: in, Method: http.MethodPut}
	return c.do(ctx, request{method: http.MethodPost, path: fmt.Sprintf("%s/%d", adminCategoriesPath, id), body: body}, nil)
}

// DeleteCategory deletes a category.
func (c *Client) DeleteCategory(ctx context.Context, id uint) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("%s/%d", adminCategoriesPath, id)}, nil)
}

// ListAdminProducts returns the product list as seen by managers.
func (c *Client) ListAdminProducts(ctx context.Context) ([]model.Product, error) {
	var resp productsListResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: adminProductsPath}, &resp); err != nil {
		return nil, err
	}
	return *resp.ProductsList, nil
}

// GetAdminProduct returns one product with its images.
func (c *Client) GetAdminProduct(ctx context.Context, id uint) (*model.Product, error) {
	var resp productResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: fmt.Sprintf("%s/%d", adminProductsPath, id)}, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

// CreateProduct sends the multipart product form with its images.
func (c *Client) CreateProduct(ctx context.Context, form ProductForm, images []Upload) error {
	return c.do(ctx, productRequest(adminProductsPath, nil, form, images), nil)
}

// UpdateProduct sends the multipart product form through method spoofing.
func (c *Client) UpdateProduct(ctx context.Context, id uint, form ProductForm, images []Upload) error {
	path := fmt.Sprintf("%s/%d", adminProductsPath, id)
	return c.do(ctx, productRequest(path, url.Values{"_method": {http.MethodPut}}, form, images), nil)
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	return c.do(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("%s/%d", adminProductsPath, id)}, nil)
}

// Dashboard returns the admin statistics.
func (c *Client) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var resp dashboardResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/v1/admin/dashboard"}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func productRequest(path string, query url.Values, form ProductForm, images []Upload) request {
	uploads := make([]Upload, 0, len(images))
	for _, img := range images {
		img.Field = "images[]"
		uploads = append(uploads, img)
	}
	return request{
		method:  http.MethodPost,
		path:    path,
		query:   query,
		fields:  form.fields(len(uploads) > 0),
		uploads: uploads,
	}
}
