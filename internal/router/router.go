package router

import (
	"github.com/gamexpress/storefront/config"
	"github.com/gamexpress/storefront/internal/app/controller"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/middleware"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
)

type Router struct {
	productController    *controller.ProductController
	authController       *controller.AuthController
	cartController       *controller.CartController
	checkoutController   *controller.CheckoutController
	adminController      *controller.AdminController
	cartSocketController *controller.CartSocketController
	visitors             middleware.StorefrontSource
	log                  *logger.Logger
	config               *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	authController *controller.AuthController,
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	adminController *controller.AdminController,
	cartSocketController *controller.CartSocketController,
	visitors middleware.StorefrontSource,
	log *logger.Logger,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:    productController,
		authController:       authController,
		cartController:       cartController,
		checkoutController:   checkoutController,
		adminController:      adminController,
		cartSocketController: cartSocketController,
		visitors:             visitors,
		log:                  log,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(r.log))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "GameXpress storefront is running",
		})
	})

	site := router.Group("")
	site.Use(middleware.Visitor(r.visitors))
	{
		site.GET("/", r.productController.ListProducts)
		site.GET("/products/:id", r.productController.GetProduct)
		site.GET("/session", r.authController.Session)
		site.GET("/unauthorized", r.authController.Unauthorized)
		site.POST("/logout", r.authController.Logout)

		guest := site.Group("")
		guest.Use(middleware.RequireGuest())
		{
			guest.GET("/login", r.authController.LoginPage)
			guest.POST("/login", r.authController.Login)
			guest.GET("/register", r.authController.RegisterPage)
			guest.POST("/register", r.authController.Register)
		}

		cart := site.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items/:id", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:id", r.cartController.RemoveFromCart)
		}

		site.GET("/checkout", middleware.RequireAuth(), r.checkoutController.GetSummary)
		site.GET("/ws/cart", r.cartSocketController.Connect)

		managers := site.Group("")
		managers.Use(middleware.RequireRole(model.RoleProductManager, model.RoleSuperAdmin))
		{
			managers.GET("/dashboard", r.adminController.Dashboard)
			managers.GET("/admin/products", r.adminController.ListProducts)
			managers.POST("/admin/products", r.adminController.CreateProduct)
			managers.GET("/admin/products/:id", r.adminController.GetProduct)
			managers.PUT("/admin/products/:id", r.adminController.UpdateProduct)
			managers.DELETE("/admin/products/:id", r.adminController.DeleteProduct)
		}

		categories := site.Group("/categories")
		categories.Use(middleware.RequireRole(model.RoleSuperAdmin))
		{
			categories.GET("", r.adminController.ListCategories)
			categories.POST("", r.adminController.CreateCategory)
			categories.GET("/:id", r.adminController.GetCategory)
			categories.PUT("/:id", r.adminController.UpdateCategory)
			categories.DELETE("/:id", r.adminController.DeleteCategory)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
