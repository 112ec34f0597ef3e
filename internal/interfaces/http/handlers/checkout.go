// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/promo"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler handles the checkout endpoint
type CheckoutHandler struct {
	resolver     *cart.Resolver
	promoService *promo.Service
	orderService *order.Service
	config       *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(resolver *cart.Resolver, promoService *promo.Service, orderService *order.Service, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		resolver:     resolver,
		promoService: promoService,
		orderService: orderService,
		config:       cfg,
	}
}

// PromoRequest is the optional promo block of a checkout request
type PromoRequest struct {
	Code string `json:"code"`
}

// CheckoutRequest is the typed checkout payload
type CheckoutRequest struct {
	Items     []cart.ClaimedItem `json:"items"`
	CartToken string             `json:"cart_token"`
	FullName  string             `json:"full_name" binding:"required"`
	Email     string             `json:"email" binding:"required,email"`
	Phone     string             `json:"phone" binding:"required"`
	Address   string             `json:"address" binding:"required"`
	Comment   string             `json:"comment"`
	Promo     *PromoRequest      `json:"promo"`
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cartToken := req.CartToken
	if cartToken == "" {
		cartToken, _ = c.Cookie("cart_token")
	}

	userID := middleware.UserIDPointer(c)

	items, err := h.resolver.Resolve(c.Request.Context(), cartToken, userID, req.Items)
	if err != nil {
		if errors.Is(err, cart.ErrNoResolvableItems) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Cart is empty or contains invalid items",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to resolve cart items",
		})
		return
	}

	var validation *promo.Validation
	if req.Promo != nil && req.Promo.Code != "" {
		var subtotal int64
		for _, item := range items {
			subtotal += item.LineTotal()
		}

		validation, err = h.promoService.Validate(c.Request.Context(), req.Promo.Code, userID, subtotal)
		if err != nil {
			h.respondPromoError(c, err)
			return
		}
	}

	o, err := h.orderService.CreateOrder(c.Request.Context(), order.CreateParams{
		Items:  items,
		Promo:  validation,
		UserID: userID,
		Contact: order.ContactInfo{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			Address:  req.Address,
			Comment:  req.Comment,
		},
	})
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	maxAge := int(h.config.Checkout.OrderCookieMaxAge.Seconds())
	c.SetCookie("order_id", formatUint(o.ID), maxAge, "/", "", false, true)
	c.SetCookie("order_token", o.AccessToken, maxAge, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order_id":     o.ID,
			"order_token":  o.AccessToken,
			"total_amount": o.TotalAmount,
			"status":       o.Status,
		},
	})
}

func (h *CheckoutHandler) respondPromoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, promo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Promo code not found",
		})
	case errors.Is(err, promo.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Promo code is not available to this user",
		})
	case errors.Is(err, promo.ErrNotStarted),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrLimitReached),
		errors.Is(err, promo.ErrMinSubtotal):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to validate promo code",
		})
	}
}

func (h *CheckoutHandler) respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrPromoRequiresAuth):
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Promo codes require an authenticated user",
		})
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrPromoNotApplicable):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to create order",
		})
	}
}
