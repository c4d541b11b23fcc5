package controller

import (
	"net/http"
	"strconv"

	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gamexpress/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ProductController struct {
	storageURL string
	pageSize   int
}

func NewProductController(storageURL string, pageSize int) *ProductController {
	return &ProductController{storageURL: storageURL, pageSize: pageSize}
}

type productView struct {
	model.Product
	ImageURL string `json:"image_url"`
	SoldOut  bool   `json:"sold_out"`
}

func (ctrl *ProductController) view(p model.Product) productView {
	return productView{
		Product:  p,
		ImageURL: model.ResolveImageURL(ctrl.storageURL, p.PrimaryImage()),
		SoldOut:  p.SoldOut(),
	}
}

// ListProducts returns one page of the catalog
// GET /?search=&page=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}

	if len(sf.Catalog.Products()) == 0 {
		if err := sf.Catalog.FetchProducts(c.Request.Context()); err != nil {
			log.Warn("Catalog unavailable, rendering empty list", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	browser := service.NewProductBrowser(sf.Catalog.Products(), ctrl.pageSize)
	browser.SetSearch(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		browser.SetPage(page)
	}

	items := browser.Items()
	views := make([]productView, 0, len(items))
	for _, p := range items {
		views = append(views, ctrl.view(p))
	}

	resp := gin.H{
		"products":   views,
		"search":     browser.Search(),
		"page":       browser.Page(),
		"page_count": browser.PageCount(),
		"total":      len(browser.Filtered()),
		"cart_count": sf.Cart.Snapshot().Cart.TotalItemCount,
	}
	if msg := sf.Catalog.Err(); msg != "" {
		resp["error"] = msg
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct returns a product with its category
// GET /products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	sf, ok := storefrontOf(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := sf.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product":  ctrl.view(detail.Product),
		"category": detail.Category,
	})
}
