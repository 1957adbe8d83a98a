package handler

import (
	"net/http"
	"webstore-orders/internal/domain"
	"webstore-orders/internal/middleware"
	"webstore-orders/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type placeOrderRequest struct {
	Products []domain.LineItem `json:"products"`
	Total    decimal.Decimal   `json:"total"`
	Status   string            `json:"status"`
}

type OrderHandler struct {
	orders service.OrderService
	reader service.OrderReader
}

func NewOrderHandler(orders service.OrderService, reader service.OrderReader) *OrderHandler {
	return &OrderHandler{orders: orders, reader: reader}
}

// CreateOrder handles POST /api/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	orderID, err := h.orders.PlaceOrder(c.Request.Context(), userID, req.Products, req.Total, req.Status)
	if err != nil {
		if domain.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while creating the order"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order_id": orderID})
}

// GetOrderHistory handles GET /api/orders/history for the calling customer.
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orders, err := h.reader.GetOrderHistory(c.Request.Context(), userID)
	if err != nil {
		if domain.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while fetching order history"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetAllOrders handles GET /api/admin/orders.
func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	orders, err := h.reader.GetAllOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while fetching orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}
