package handlers

import (
	"net/http"

	"mandi_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

// SearchSellerOrders : GET /api/seller/orders/search?q=...
// Recherche plein texte dans les commandes de la boutique du vendeur connecté
func SearchSellerOrders(c *gin.Context) {
	shopID := c.GetString("shop_id")
	if shopID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Compte sans boutique rattachée"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}

	results, err := services.SearchOrders(shopID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recherche indisponible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
