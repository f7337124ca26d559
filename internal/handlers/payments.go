package handlers

import (
	"net/http"

	"mandi_back_end/internal/models"
	"mandi_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentHandler expose le cycle prépayé : pré-autorisation, finalisation
// signée, webhook gateway
type PaymentHandler struct {
	settlement *service.Settlement
}

func NewPaymentHandler(settlement *service.Settlement) *PaymentHandler {
	return &PaymentHandler{settlement: settlement}
}

type preAuthorizeRequest struct {
	Items       []models.CartLine `json:"items" binding:"required"`
	CustomerLat *float64          `json:"customer_lat" binding:"required"`
	CustomerLon *float64          `json:"customer_lon" binding:"required"`
}

// PreAuthorize : POST /api/payments/preauthorize
// Renvoie l'identifiant de commande gateway à passer au widget de paiement
func (h *PaymentHandler) PreAuthorize(c *gin.Context) {
	var req preAuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide", "code": "BAD_REQUEST"})
		return
	}

	preAuth, err := h.settlement.PreAuthorize(c.Request.Context(),
		c.GetString("user_id"), req.Items, *req.CustomerLat, *req.CustomerLon)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gateway_order_id": preAuth.GatewayOrderID,
		"amount":           preAuth.AmountMinor,
		"currency":         preAuth.Currency,
		"summary":          preAuth.Summary,
	})
}

type finalizeRequest struct {
	GatewayOrderID   string                   `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string                   `json:"razorpay_payment_id" binding:"required"`
	Signature        string                   `json:"razorpay_signature" binding:"required"`
	Summary          []models.ShopOrderSummary `json:"summary"`
	Shipping         models.ShippingAddress   `json:"shipping_address" binding:"required"`
	CustomerLat      *float64                 `json:"customer_lat" binding:"required"`
	CustomerLon      *float64                 `json:"customer_lon" binding:"required"`
}

// Finalize : POST /api/payments/finalize
// Vérifie la signature du widget et persiste les commandes payées
func (h *PaymentHandler) Finalize(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide", "code": "BAD_REQUEST"})
		return
	}

	orders, replayed, err := h.settlement.Finalize(c.Request.Context(), service.FinalizeRequest{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		Summary:          req.Summary,
		CustomerID:       c.GetString("user_id"),
		Shipping:         req.Shipping,
		CustomerLat:      *req.CustomerLat,
		CustomerLon:      *req.CustomerLon,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Paiement confirmé, commandes créées"
	if replayed {
		message = "Paiement déjà finalisé"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"orders":  orders,
	})
}

// Webhook : POST /api/payments/webhook — point d'entrée serveur-à-serveur
// du gateway. Pas d'authentification : la signature HMAC du corps fait foi.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lecture corps échouée"})
		return
	}

	err = h.settlement.Webhook(c.Request.Context(), payload, c.GetHeader("X-Razorpay-Signature"))
	if err == service.ErrInvalidWebhookSignature {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}
	if err != nil {
		// Le gateway rejouera l'événement
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Traitement échoué"})
		return
	}

	c.Status(http.StatusOK)
}
