package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"mandi_back_end/internal/config"
	"mandi_back_end/internal/geo"
	"mandi_back_end/internal/models"
	"mandi_back_end/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart : aucune ligne exploitable dans le panier
	ErrEmptyCart = errors.New("panier vide")
	// ErrInvalidLocation : coordonnées client absentes ou non numériques
	ErrInvalidLocation = errors.New("coordonnées client invalides")
	// ErrInvalidQuantity : quantité nulle ou négative sur une ligne
	ErrInvalidQuantity = errors.New("quantité invalide")
)

// UnknownProductError : une ligne référence un produit qui ne résout plus
// dans le catalogue. Comportement par défaut : échec du checkout entier.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("produit introuvable au catalogue: %s", e.ProductID)
}

// OutOfRangeError : une boutique du panier dépasse le rayon de livraison.
// Une seule boutique hors zone invalide tout le panier multi-boutiques.
type OutOfRangeError struct {
	ShopID     string
	ShopName   string
	DistanceKm float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("boutique %s hors zone de livraison (%.1f km)", e.ShopName, e.DistanceKm)
}

// Aggregator regroupe les lignes de panier par boutique et produit un
// ShopOrderSummary chiffré par boutique. Aucune écriture : le catalogue est
// consulté en lecture seule.
type Aggregator struct {
	catalog repository.CatalogStore
	fees    config.FeeConfig
}

func NewAggregator(catalog repository.CatalogStore, fees config.FeeConfig) *Aggregator {
	return &Aggregator{catalog: catalog, fees: fees}
}

// ComputeSummary résout, regroupe et chiffre le panier.
// Ordre d'émission stable : ordre d'apparition des boutiques dans le panier.
func (a *Aggregator) ComputeSummary(ctx context.Context, lines []models.CartLine, customerLat, customerLon float64) ([]models.ShopOrderSummary, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !isFinite(customerLat) || !isFinite(customerLon) {
		return nil, ErrInvalidLocation
	}

	// 1. Résolution des lignes contre le catalogue
	resolved := make([]models.ResolvedLineItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w pour le produit %s", ErrInvalidQuantity, line.ProductID)
		}

		product, err := a.catalog.GetProduct(ctx, line.ProductID)
		if err == repository.ErrNotFound {
			if a.fees.DropUnknownProducts {
				// Comportement historique : on ignore la ligne disparue
				continue
			}
			return nil, &UnknownProductError{ProductID: line.ProductID}
		}
		if err != nil {
			return nil, err
		}

		subtotal := decimal.NewFromFloat(product.Price).
			Mul(decimal.NewFromInt(int64(line.Quantity)))

		resolved = append(resolved, models.ResolvedLineItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			ShopID:    product.ShopID,
			Quantity:  line.Quantity,
			Subtotal:  subtotal.InexactFloat64(),
		})
	}

	if len(resolved) == 0 {
		return nil, ErrEmptyCart
	}

	// 2. Regroupement par boutique (ordre d'insertion stable)
	shopOrder := make([]string, 0)
	groups := make(map[string][]models.ResolvedLineItem)
	for _, item := range resolved {
		if _, seen := groups[item.ShopID]; !seen {
			shopOrder = append(shopOrder, item.ShopID)
		}
		groups[item.ShopID] = append(groups[item.ShopID], item)
	}

	// 3. Un résumé chiffré par boutique
	summaries := make([]models.ShopOrderSummary, 0, len(shopOrder))
	for _, shopID := range shopOrder {
		shop, err := a.catalog.GetShop(ctx, shopID)
		if err != nil {
			return nil, fmt.Errorf("boutique %s: %w", shopID, err)
		}

		distance := geo.DistanceKm(customerLat, customerLon, shop.Latitude, shop.Longitude)
		if distance > a.fees.MaxDeliveryRadiusKm {
			return nil, &OutOfRangeError{ShopID: shop.ID, ShopName: shop.Name, DistanceKm: distance}
		}

		items := groups[shopID]
		itemsTotal := decimal.Zero
		for _, item := range items {
			itemsTotal = itemsTotal.Add(
				decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		deliveryCharge := decimal.NewFromFloat(geo.DeliveryCharge(distance, a.fees.DeliveryRatePerKm))
		// Commission sur (articles + livraison) — même base partout,
		// y compris la pré-autorisation
		platformFee := itemsTotal.Add(deliveryCharge).
			Mul(decimal.NewFromFloat(a.fees.PlatformFeeRate))
		// Pas d'arrondi avant le total final
		totalAmount := itemsTotal.Add(deliveryCharge).Add(platformFee).Round(2)

		summaries = append(summaries, models.ShopOrderSummary{
			ShopID:         shop.ID,
			ShopName:       shop.Name,
			Items:          items,
			ItemsTotal:     itemsTotal.InexactFloat64(),
			DistanceKm:     distance,
			DeliveryCharge: deliveryCharge.InexactFloat64(),
			PlatformFee:    platformFee.InexactFloat64(),
			TotalAmount:    totalAmount.InexactFloat64(),
		})
	}

	return summaries, nil
}

// GrandTotal additionne les totaux de tous les résumés en arithmétique décimale.
func GrandTotal(summaries []models.ShopOrderSummary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range summaries {
		total = total.Add(decimal.NewFromFloat(s.TotalAmount))
	}
	return total
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
