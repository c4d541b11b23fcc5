package controller

import (
	"net/http"

	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminController struct{}

func NewAdminController() *AdminController {
	return &AdminController{}
}

// ProductRequest is the gateway form of a product. Images are references
// the gateway can read: local paths or s3://bucket/key.
type ProductRequest struct {
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Price        decimal.Decimal     `json:"price"`
	Stock        int                 `json:"stock"`
	Status       model.ProductStatus `json:"status"`
	Description  string              `json:"description"`
	CategoryID   uint                `json:"category_id"`
	PrimaryIndex int                 `json:"primary_index"`
	Images       []string            `json:"images"`
}

func (r ProductRequest) form() api.ProductForm {
	return api.ProductForm{
		Name:         r.Name,
		Slug:         r.Slug,
		Price:        r.Price,
		Stock:        r.Stock,
		Status:       r.Status,
		Description:  r.Description,
		CategoryID:   r.CategoryID,
		PrimaryIndex: r.PrimaryIndex,
	}
}

// Dashboard returns the admin statistics
// GET /dashboard
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	stats, err := sf.Admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch dashboard statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListProducts GET /admin/products
func (ctrl *AdminController) ListProducts(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	products, err := sf.Admin.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct GET /admin/products/:id
func (ctrl *AdminController) GetProduct(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	product, err := sf.Admin.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct POST /admin/products
func (ctrl *AdminController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := sf.Admin.CreateProduct(c.Request.Context(), req.form(), req.Images); err != nil {
		respondError(c, err, "Failed to save product")
		return
	}

	log.Info("Product created through gateway", map[string]interface{}{
		"name":   req.Name,
		"images": len(req.Images),
	})
	c.JSON(http.StatusCreated, gin.H{"message": "Product created"})
}

// UpdateProduct PUT /admin/products/:id
func (ctrl *AdminController) UpdateProduct(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := sf.Admin.UpdateProduct(c.Request.Context(), id, req.form(), req.Images); err != nil {
		respondError(c, err, "Failed to save product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

// DeleteProduct DELETE /admin/products/:id
func (ctrl *AdminController) DeleteProduct(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := sf.Admin.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// ListCategories GET /categories
func (ctrl *AdminController) ListCategories(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	categories, err := sf.Admin.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch categories. Please try again.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory GET /categories/:id
func (ctrl *AdminController) GetCategory(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	category, err := sf.Admin.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch categories. Please try again.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// CreateCategory POST /categories
func (ctrl *AdminController) CreateCategory(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	var req api.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	if err := sf.Admin.CreateCategory(c.Request.Context(), req); err != nil {
		respondError(c, err, "Failed to save category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Category created"})
}

// UpdateCategory PUT /categories/:id
func (ctrl *AdminController) UpdateCategory(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req api.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	if err := sf.Admin.UpdateCategory(c.Request.Context(), id, req); err != nil {
		respondError(c, err, "Failed to save category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category updated"})
}

// DeleteCategory DELETE /categories/:id
func (ctrl *AdminController) DeleteCategory(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := sf.Admin.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
