package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gamexpress/storefront/internal/api/apitest"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/app/repository"
	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gamexpress/storefront/internal/db"
	"github.com/gamexpress/storefront/internal/middleware"
	"github.com/gamexpress/storefront/internal/storage"
	ws "github.com/gamexpress/storefront/internal/websocket"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "password123"
	testCDN      = "https://cdn.example.com/storage"
)

type gatewayFixture struct {
	srv      *apitest.Server
	registry *service.VisitorRegistry
	hub      *ws.Hub
	router   *gin.Engine
	customer model.Principal
}

func uintPtr(v uint) *uint { return &v }

func setupGatewayTest(t *testing.T) *gatewayFixture {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddCategory(model.Category{ID: 1, Name: "Consoles", Slug: "consoles"})
	srv.AddProduct(model.Product{ID: 7, Name: "Retro Console", Description: "Plays everything from the 90s",
		Price: decimal.RequireFromString("149.99"), Stock: 12, Status: model.StatusAvailable, CategoryID: uintPtr(1),
		Images: []model.ProductImage{{ID: 1, ImageURL: "products/console.png", IsPrimary: true}}})
	srv.AddProduct(model.Product{ID: 8, Name: "Arcade Stick", Description: "Tournament grade stick",
		Price: decimal.RequireFromString("12.50"), Stock: 3, Status: model.StatusAvailable, CategoryID: uintPtr(1)})
	srv.AddProduct(model.Product{ID: 9, Name: "Limited Edition Cartridge", Description: "Gold plated",
		Price: decimal.RequireFromString("80"), Stock: 0, Status: model.StatusOutOfStock})

	f := &gatewayFixture{
		srv:      srv,
		customer: srv.AddUser("Player One", "player@example.com", testPassword, model.RoleCustomer),
	}
	srv.AddUser("Manager", "manager@example.com", testPassword, model.RoleProductManager)
	srv.AddUser("Root", "root@example.com", testPassword, model.RoleSuperAdmin)

	f.registry = service.NewVisitorRegistry(service.StorefrontDeps{
		API:        srv.Config(),
		State:      repository.NewStateRepository(testDB),
		StorageURL: testCDN,
		Images:     storage.NewImageLoader(nil),
		Logger:     logger.Nop(),
	}, time.Hour)
	t.Cleanup(f.registry.Close)

	f.hub = ws.NewHub()
	go f.hub.Run()
	t.Cleanup(f.hub.Stop)

	products := NewProductController(testCDN, service.DefaultPageSize)
	auth := NewAuthController(f.hub)
	cart := NewCartController()
	checkout := NewCheckoutController()
	admin := NewAdminController()
	socket := NewCartSocketController(f.hub, f.registry, nil)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware(logger.Nop()), middleware.Visitor(f.registry))
	router.GET("/", products.ListProducts)
	router.GET("/products/:id", products.GetProduct)
	router.GET("/session", auth.Session)
	router.GET("/unauthorized", auth.Unauthorized)
	router.POST("/logout", auth.Logout)
	router.GET("/login", middleware.RequireGuest(), auth.LoginPage)
	router.POST("/login", middleware.RequireGuest(), auth.Login)
	router.POST("/register", middleware.RequireGuest(), auth.Register)
	router.GET("/cart", cart.GetCart)
	router.DELETE("/cart", cart.ClearCart)
	router.POST("/cart/items", cart.AddToCart)
	router.PUT("/cart/items/:id", cart.UpdateCartItem)
	router.DELETE("/cart/items/:id", cart.RemoveFromCart)
	router.GET("/checkout", middleware.RequireAuth(), checkout.GetSummary)
	router.GET("/ws/cart", socket.Connect)

	managers := router.Group("", middleware.RequireRole(model.RoleProductManager, model.RoleSuperAdmin))
	managers.GET("/dashboard", admin.Dashboard)
	managers.GET("/admin/products", admin.ListProducts)
	managers.POST("/admin/products", admin.CreateProduct)
	managers.GET("/admin/products/:id", admin.GetProduct)
	managers.PUT("/admin/products/:id", admin.UpdateProduct)
	managers.DELETE("/admin/products/:id", admin.DeleteProduct)

	categories := router.Group("/categories", middleware.RequireRole(model.RoleSuperAdmin))
	categories.GET("", admin.ListCategories)
	categories.POST("", admin.CreateCategory)
	categories.GET("/:id", admin.GetCategory)
	categories.PUT("/:id", admin.UpdateCategory)
	categories.DELETE("/:id", admin.DeleteCategory)

	f.router = router
	return f
}

// newVisitor returns the cookie of a visitor whose session check finished.
func (f *gatewayFixture) newVisitor(t *testing.T) *http.Cookie {
	visitorID := uuid.NewString()
	sf, err := f.registry.Storefront(visitorID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sf.Auth.WaitReady(ctx))
	return &http.Cookie{Name: middleware.VisitorCookie, Value: visitorID}
}

func (f *gatewayFixture) storefront(t *testing.T, cookie *http.Cookie) *service.Storefront {
	sf, err := f.registry.Storefront(cookie.Value)
	require.NoError(t, err)
	return sf
}

func (f *gatewayFixture) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *gatewayFixture) login(t *testing.T, cookie *http.Cookie, email string) {
	w := f.do(http.MethodPost, "/login", gin.H{"email": email, "password": testPassword}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type snapshotBody struct {
	Phase    string `json:"phase"`
	Identity struct {
		Kind      string `json:"kind"`
		SessionID string `json:"session_id"`
	} `json:"identity"`
	Cart struct {
		Items []struct {
			ID        uint `json:"id"`
			ProductID uint `json:"product_id"`
			Quantity  int  `json:"quantity"`
		} `json:"items"`
		TotalItemCount int    `json:"total_item_count"`
		TotalValue     string `json:"total_value"`
	} `json:"cart"`
	Err string `json:"error"`
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) snapshotBody {
	var out snapshotBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
