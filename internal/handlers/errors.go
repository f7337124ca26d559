package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"mandi_back_end/internal/pricing"
	"mandi_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

// respondServiceError traduit les erreurs métier en réponses HTTP.
// Chaque cas porte un code machine stable pour le front.
func respondServiceError(c *gin.Context, err error) {
	var unknown *pricing.UnknownProductError
	var outOfRange *pricing.OutOfRangeError

	switch {
	case errors.Is(err, service.ErrInvalidCart), errors.Is(err, pricing.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide", "code": "EMPTY_CART"})

	case errors.Is(err, service.ErrInvalidShippingInfo):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse de livraison incomplète", "code": "INVALID_SHIPPING"})

	case errors.Is(err, service.ErrInvalidPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Méthode de paiement non supportée", "code": "INVALID_PAYMENT_METHOD"})

	case errors.Is(err, service.ErrInvalidLocation), errors.Is(err, pricing.ErrInvalidLocation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Position du client invalide", "code": "INVALID_LOCATION"})

	case errors.Is(err, pricing.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide", "code": "INVALID_QUANTITY"})

	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Produit introuvable: %s", unknown.ProductID),
			"code":  "UNKNOWN_PRODUCT",
		})

	case errors.As(err, &outOfRange):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("%s est hors zone de livraison (%.1f km)", outOfRange.ShopName, outOfRange.DistanceKm),
			"code":  "SHOP_OUT_OF_RANGE",
		})

	case errors.Is(err, service.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Client introuvable", "code": "CUSTOMER_NOT_FOUND"})

	case errors.Is(err, service.ErrPriceMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le total affiché ne correspond plus aux prix actuels", "code": "PRICE_MISMATCH"})

	case errors.Is(err, service.ErrNothingToCharge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant à encaisser nul", "code": "NOTHING_TO_CHARGE"})

	case errors.Is(err, service.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature de paiement invalide", "code": "INVALID_SIGNATURE"})

	case errors.Is(err, service.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'enregistrement de la commande", "code": "PERSISTENCE_ERROR"})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne", "code": "INTERNAL"})
	}
}
