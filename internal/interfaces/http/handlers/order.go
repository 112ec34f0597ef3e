// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/receipt"
)

// OrderHandler handles order settlement and lookup endpoints
type OrderHandler struct {
	orderService   *order.Service
	receiptService *receipt.Service
	config         *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, receiptService *receipt.Service, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		receiptService: receiptService,
		config:         cfg,
	}
}

// CompleteRequest identifies the order to settle. Every field is optional;
// cookies set at checkout fill the gaps.
type CompleteRequest struct {
	OrderID    *uint  `json:"order_id"`
	OrderToken string `json:"order_token"`
}

// Complete handles POST /order/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	params := h.confirmParams(c)

	result, err := h.orderService.ConfirmSettlement(c.Request.Context(), params)
	if err != nil {
		h.respondSettlementError(c, err)
		return
	}

	// Refresh the order cookies so guests arriving from a provider redirect
	// keep access to the settled order
	maxAge := int(h.config.Checkout.OrderCookieMaxAge.Seconds())
	c.SetCookie("order_id", formatUint(result.OrderID), maxAge, "/", "", false, true)
	if result.AccessToken != "" {
		c.SetCookie("order_token", result.AccessToken, maxAge, "/", "", false, true)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Fail handles POST /order/fail. Returns 404 unless the failed-state
// feature is enabled.
func (h *OrderHandler) Fail(c *gin.Context) {
	if !h.config.Checkout.FailedStateEnabled {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Not found",
		})
		return
	}

	params := h.confirmParams(c)

	if err := h.orderService.FailOrder(c.Request.Context(), params); err != nil {
		h.respondSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// Get handles GET /order/:id
func (h *OrderHandler) Get(c *gin.Context) {
	o, ok := h.lookupWithAccess(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    o,
	})
}

// Receipt handles GET /order/:id/receipt. Only paid orders have receipts.
func (h *OrderHandler) Receipt(c *gin.Context) {
	o, ok := h.lookupWithAccess(c)
	if !ok {
		return
	}

	if o.Status != order.StatusSucceeded {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Receipt is only available for paid orders",
		})
		return
	}

	pdf, err := h.receiptService.Render(o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to generate receipt",
		})
		return
	}

	filename := "receipt.pdf"
	if o.PublicNumber != nil {
		filename = *o.PublicNumber + ".pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", pdf.Bytes())
}

// confirmParams collects the order identity from body, query and cookies
func (h *OrderHandler) confirmParams(c *gin.Context) order.ConfirmParams {
	var req CompleteRequest
	_ = c.ShouldBindJSON(&req)

	params := order.ConfirmParams{
		OrderID:      req.OrderID,
		AccessToken:  req.OrderToken,
		CallerUserID: middleware.UserIDPointer(c),
	}

	if params.OrderID == nil {
		if raw := c.Query("order_id"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				orderID := uint(id)
				params.OrderID = &orderID
			}
		}
	}
	if params.OrderID == nil {
		if raw, err := c.Cookie("order_id"); err == nil && raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				orderID := uint(id)
				params.OrderID = &orderID
			}
		}
	}

	if params.AccessToken == "" {
		params.AccessToken = c.Query("order_token")
	}
	if params.AccessToken == "" {
		params.AccessToken, _ = c.Cookie("order_token")
	}

	return params
}

// lookupWithAccess loads the order from the :id param and enforces the
// owner-or-token access rule. Responds and returns false on failure.
func (h *OrderHandler) lookupWithAccess(c *gin.Context) (*order.Order, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid order ID",
		})
		return nil, false
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Order not found",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to retrieve order",
		})
		return nil, false
	}

	token := c.Query("order_token")
	if token == "" {
		token, _ = c.Cookie("order_token")
	}

	userID := middleware.UserIDPointer(c)
	isOwner := o.UserID != nil && userID != nil && *o.UserID == *userID
	hasToken := token != "" && token == o.AccessToken

	if !isOwner && !hasToken {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Access to this order is denied",
		})
		return nil, false
	}

	return o, true
}

func (h *OrderHandler) respondSettlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Order not found",
		})
	case errors.Is(err, order.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Access to this order is denied",
		})
	case errors.Is(err, order.ErrNotPending):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Order is not awaiting payment",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to process order",
		})
	}
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
