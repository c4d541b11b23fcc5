package service

import (
	"context"
	"sync"

	"github.com/gamexpress/storefront/internal/app/model"
	apperrors "github.com/gamexpress/storefront/internal/errors"
	"github.com/gamexpress/storefront/pkg/logger"
)

const (
	fallbackFetchProducts = "Failed to fetch products"
	fallbackFetchProduct  = "Failed to fetch product"
)

// CatalogAPI is the part of the API client the catalog talks to.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
}

// ProductDetail is a product with its category when it could be resolved.
type ProductDetail struct {
	Product  model.Product   `json:"product" yaml:"product"`
	Category *model.Category `json:"category,omitempty" yaml:"category,omitempty"`
}

type CatalogService interface {
	FetchProducts(ctx context.Context) error
	Products() []model.Product
	Lookup(productID uint) (*model.Product, bool)
	GetProduct(ctx context.Context, id uint) (*ProductDetail, error)
	Loading() bool
	Err() string
}

type catalogService struct {
	api CatalogAPI
	log *logger.Logger

	mu       sync.RWMutex
	products []model.Product
	byID     map[uint]int
	inflight int
	errMsg   string
}

func NewCatalogService(catalogAPI CatalogAPI, log *logger.Logger) CatalogService {
	if log == nil {
		log = logger.Get()
	}
	return &catalogService{
		api:  catalogAPI,
		log:  log,
		byID: map[uint]int{},
	}
}

// FetchProducts reloads the product list. The previous list stays on failure.
func (s *catalogService) FetchProducts(ctx context.Context) error {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	products, err := s.api.ListProducts(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if err != nil {
		appErr := apperrors.FromAPI(err, fallbackFetchProducts)
		s.errMsg = appErr.Message
		s.log.Error("Failed to fetch products", err)
		return appErr
	}

	s.products = products
	s.byID = make(map[uint]int, len(products))
	for i, p := range products {
		s.byID[p.ID] = i
	}
	s.errMsg = ""

	s.log.Debug("Products fetched", logger.Fields{
		"count": len(products),
	})
	return nil
}

func (s *catalogService) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *catalogService) Lookup(productID uint) (*model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[productID]
	if !ok {
		return nil, false
	}
	p := s.products[i]
	return &p, true
}

// GetProduct loads one product. A category that can not be loaded is left
// out rather than failing the call.
func (s *catalogService) GetProduct(ctx context.Context, id uint) (*ProductDetail, error) {
	product, err := s.api.GetProduct(ctx, id)
	if err != nil {
		s.log.Error("Failed to fetch product", err, logger.Fields{
			"product_id": id,
		})
		return nil, apperrors.FromAPI(err, fallbackFetchProduct)
	}

	detail := &ProductDetail{Product: *product}
	if product.CategoryID != nil && *product.CategoryID != 0 {
		category, err := s.api.GetCategory(ctx, *product.CategoryID)
		if err != nil {
			s.log.Warn("Failed to fetch product category", logger.Fields{
				"product_id":  id,
				"category_id": *product.CategoryID,
				"error":       err.Error(),
			})
		} else {
			detail.Category = category
		}
	}
	return detail, nil
}

func (s *catalogService) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

func (s *catalogService) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}
