// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		config:      cfg,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userCart, ok := h.loadCart(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.cartService.BuildResponse(userCart),
	})
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userCart, ok := h.loadCart(c)
	if !ok {
		return
	}

	updated, err := h.cartService.AddItem(c.Request.Context(), userCart, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.cartService.BuildResponse(updated),
	})
}

// UpdateItem handles PATCH /cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userCart, ok := h.loadCart(c)
	if !ok {
		return
	}

	updated, err := h.cartService.UpdateItem(c.Request.Context(), userCart, itemID, &req)
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.cartService.BuildResponse(updated),
	})
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	userCart, ok := h.loadCart(c)
	if !ok {
		return
	}

	updated, err := h.cartService.RemoveItem(c.Request.Context(), userCart, itemID)
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.cartService.BuildResponse(updated),
	})
}

// loadCart finds or creates the caller's cart and refreshes the cart_token
// cookie. Responds and returns false on failure.
func (h *CartHandler) loadCart(c *gin.Context) (*cart.Cart, bool) {
	userID := middleware.UserIDPointer(c)
	token, _ := c.Cookie("cart_token")

	userCart, err := h.cartService.GetOrCreateCart(c.Request.Context(), userID, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to retrieve cart",
		})
		return nil, false
	}

	if userCart.Token != token {
		c.SetCookie("cart_token", userCart.Token, int(h.config.Checkout.OrderCookieMaxAge.Seconds()), "/", "", false, true)
	}

	return userCart, true
}

func (h *CartHandler) itemID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid cart item ID",
		})
		return 0, false
	}
	return uint(id), true
}

func (h *CartHandler) respondCartError(c *gin.Context, err error) {
	if errors.Is(err, cart.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Item not found in cart",
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": err.Error(),
	})
}
