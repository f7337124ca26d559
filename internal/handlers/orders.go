package handlers

import (
	"net/http"

	"mandi_back_end/internal/models"
	"mandi_back_end/internal/repository"
	"mandi_back_end/internal/service"
	"mandi_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

// OrderHandler expose le checkout COD et la lecture des commandes du client
type OrderHandler struct {
	placement *service.Placement
	orders    repository.OrderStore
}

func NewOrderHandler(placement *service.Placement, orders repository.OrderStore) *OrderHandler {
	return &OrderHandler{placement: placement, orders: orders}
}

type placeOrderRequest struct {
	Items         []models.CartLine      `json:"items" binding:"required"`
	Shipping      models.ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod string                 `json:"payment_method" binding:"required"`
	CustomerLat   *float64               `json:"customer_lat" binding:"required"`
	CustomerLon   *float64               `json:"customer_lon" binding:"required"`
	ClientTotal   *float64               `json:"client_total"`
}

// PlaceOrder : POST /api/orders — checkout paiement à la livraison
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide", "code": "BAD_REQUEST"})
		return
	}

	orders, err := h.placement.PlaceOrder(c.Request.Context(), service.PlacementRequest{
		CustomerID:    c.GetString("user_id"),
		Cart:          req.Items,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
		CustomerLat:   req.CustomerLat,
		CustomerLon:   req.CustomerLon,
		ClientTotal:   req.ClientTotal,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande confirmée",
		"orders":  orders,
	})
}

// ListMyOrders : GET /api/orders — commandes du client connecté
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListByCustomer(c.Request.Context(), c.GetString("user_id"), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lecture des commandes impossible"})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder : GET /api/orders/:id — détail, réservé au propriétaire
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.FindByID(c.Request.Context(), c.Param("id"))
	if err == repository.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lecture de la commande impossible"})
		return
	}

	if order.CustomerID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetInvoiceURL : GET /api/orders/:id/invoice — URL temporaire de la facture
func (h *OrderHandler) GetInvoiceURL(c *gin.Context) {
	order, err := h.orders.FindByID(c.Request.Context(), c.Param("id"))
	if err == repository.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lecture de la commande impossible"})
		return
	}

	if order.CustomerID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
		return
	}

	url, err := services.PresignedInvoiceURL(order.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Facture non disponible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
