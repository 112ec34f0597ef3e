// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/promo"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/receipt"
)

// Dependencies carries the wired domain services into the route setup
type Dependencies struct {
	CartService    *cart.Service
	CartResolver   *cart.Resolver
	PromoService   *promo.Service
	OrderService   *order.Service
	UserService    *user.Service
	ReceiptService *receipt.Service
}

// SetupRoutes mounts the storefront API on the engine root
func SetupRoutes(r *gin.Engine, deps *Dependencies, cfg *config.Config) {
	SetupAuthRoutes(r, deps, cfg)
	SetupCartRoutes(r, deps, cfg)
	SetupCheckoutRoutes(r, deps, cfg)
	SetupOrderRoutes(r, deps, cfg)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(r *gin.Engine, deps *Dependencies, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(deps.UserService, cfg)

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
}

// SetupCartRoutes sets up cart maintenance routes
func SetupCartRoutes(r *gin.Engine, deps *Dependencies, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(deps.CartService, cfg)

	cartGroup := r.Group("/cart")
	cartGroup.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.POST("/items", cartHandler.AddItem)
		cartGroup.PATCH("/items/:id", cartHandler.UpdateItem)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveItem)
	}
}

// SetupCheckoutRoutes sets up the checkout endpoint
func SetupCheckoutRoutes(r *gin.Engine, deps *Dependencies, cfg *config.Config) {
	checkoutHandler := handlers.NewCheckoutHandler(deps.CartResolver, deps.PromoService, deps.OrderService, cfg)

	r.POST("/checkout", middleware.OptionalAuthMiddleware(cfg), checkoutHandler.Checkout)
}

// SetupOrderRoutes sets up order settlement and lookup routes
func SetupOrderRoutes(r *gin.Engine, deps *Dependencies, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(deps.OrderService, deps.ReceiptService, cfg)

	orderGroup := r.Group("/order")
	orderGroup.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		orderGroup.POST("/complete", orderHandler.Complete)
		orderGroup.POST("/fail", orderHandler.Fail)
		orderGroup.GET("/:id", orderHandler.Get)
		orderGroup.GET("/:id/receipt", orderHandler.Receipt)
	}
}
