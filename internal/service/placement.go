package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"mandi_back_end/internal/models"
	"mandi_back_end/internal/pricing"
	"mandi_back_end/internal/repository"

	"github.com/google/uuid"
)

// Tolérance de comparaison entre total client et total serveur. Chaque
// résumé par boutique est arrondi au centime : un panier multi-boutiques
// peut légitimement dériver de quelques centimes par rapport au calcul client.
const priceTolerance = 0.05

// PlacementRequest : requête de checkout validée puis persistée.
type PlacementRequest struct {
	CustomerID    string
	Cart          []models.CartLine
	Shipping      models.ShippingAddress
	PaymentMethod string
	CustomerLat   *float64
	CustomerLon   *float64
	// ClientTotal : total affiché côté client, optionnel. S'il est fourni et
	// s'écarte de plus de priceTolerance du total serveur, le checkout échoue.
	ClientTotal *float64
}

// Placement valide un checkout, re-dérive le résumé côté serveur et persiste
// une commande par boutique (boucle séquentielle, non transactionnelle entre
// boutiques — tracée par une intention de checkout).
type Placement struct {
	customers repository.CustomerStore
	orders    repository.OrderStore
	intents   repository.IntentStore
	agg       *pricing.Aggregator
	notifier  Notifier
	indexer   OrderIndexer
}

func NewPlacement(
	customers repository.CustomerStore,
	orders repository.OrderStore,
	intents repository.IntentStore,
	agg *pricing.Aggregator,
	notifier Notifier,
	indexer OrderIndexer,
) *Placement {
	return &Placement{
		customers: customers,
		orders:    orders,
		intents:   intents,
		agg:       agg,
		notifier:  notifier,
		indexer:   indexer,
	}
}

// PlaceOrder : chemin paiement à la livraison. Les commandes sont créées avec
// paymentStatus = pending ; l'état terminal est "placed" quel que soit le gateway.
func (p *Placement) PlaceOrder(ctx context.Context, req PlacementRequest) ([]models.Order, error) {
	// Validation dans l'ordre du contrat : chaque échec est distinct
	if len(req.Cart) == 0 {
		return nil, ErrInvalidCart
	}
	if req.Shipping.Name == "" || req.Shipping.Phone == "" || req.Shipping.Street == "" ||
		req.Shipping.City == "" || req.Shipping.Pincode == "" {
		return nil, ErrInvalidShippingInfo
	}
	if req.PaymentMethod != models.PaymentMethodCOD && req.PaymentMethod != models.PaymentMethodPrepaid {
		return nil, ErrInvalidPaymentMethod
	}
	if req.CustomerLat == nil || req.CustomerLon == nil ||
		!isFinite(*req.CustomerLat) || !isFinite(*req.CustomerLon) {
		return nil, ErrInvalidLocation
	}

	customer, err := p.customers.GetCustomer(ctx, req.CustomerID)
	if err == repository.ErrNotFound {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	// Re-dérivation serveur du résumé ; les échecs d'agrégation remontent tels quels
	summaries, err := p.agg.ComputeSummary(ctx, req.Cart, *req.CustomerLat, *req.CustomerLon)
	if err != nil {
		return nil, err
	}

	// Garde anti-devis périmé : le client annonce un total, on le confronte
	if req.ClientTotal != nil {
		serverTotal := pricing.GrandTotal(summaries).InexactFloat64()
		if math.Abs(*req.ClientTotal-serverTotal) > priceTolerance {
			return nil, fmt.Errorf("%w: client %.2f, serveur %.2f", ErrPriceMismatch, *req.ClientTotal, serverTotal)
		}
	}

	orders, err := p.persistSummaries(ctx, customer, summaries, req, models.PaymentStatusPending, "", "")
	if err != nil {
		return nil, err
	}

	// Notifications et indexation best-effort, hors du chemin critique
	for _, order := range orders {
		o := order
		go p.notifier.OrderPlaced(o, *customer)
		go p.indexer.IndexOrder(o)
	}

	return orders, nil
}

// persistSummaries exécute la saga de persistance : intention d'abord, puis
// une commande par résumé, puis clôture de l'intention. Un échec en milieu de
// boucle laisse les commandes déjà insérées en place (pas de rollback) et
// l'intention ouverte pour le worker de réconciliation.
func (p *Placement) persistSummaries(
	ctx context.Context,
	customer *models.Customer,
	summaries []models.ShopOrderSummary,
	req PlacementRequest,
	paymentStatus, gatewayOrderID, gatewayPaymentID string,
) ([]models.Order, error) {
	now := time.Now()
	intent := &models.CheckoutIntent{
		ID:             uuid.NewString(),
		CustomerID:     customer.ID,
		GatewayOrderID: gatewayOrderID,
		OrderIDs:       []string{},
		Status:         models.IntentStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := p.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	orders := make([]models.Order, 0, len(summaries))
	orderIDs := make([]string, 0, len(summaries))

	for _, summary := range summaries {
		items := make([]models.OrderItem, 0, len(summary.Items))
		for _, item := range summary.Items {
			items = append(items, models.OrderItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.UnitPrice,
				Quantity:  item.Quantity,
			})
		}

		order := models.Order{
			ID:               uuid.NewString(),
			CustomerID:       customer.ID,
			ShopID:           summary.ShopID,
			ShopName:         summary.ShopName,
			Items:            items,
			ItemsTotal:       summary.ItemsTotal,
			DeliveryCharge:   summary.DeliveryCharge,
			PlatformFee:      summary.PlatformFee,
			TotalAmount:      summary.TotalAmount,
			DistanceKm:       summary.DistanceKm,
			PaymentMethod:    req.PaymentMethod,
			PaymentStatus:    paymentStatus,
			GatewayOrderID:   gatewayOrderID,
			GatewayPaymentID: gatewayPaymentID,
			Shipping:         req.Shipping,
			CustomerLat:      *req.CustomerLat,
			CustomerLon:      *req.CustomerLon,
			Status:           models.OrderStatusPlaced,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}

		if err := p.orders.Insert(ctx, &order); err != nil {
			log.Printf("❌ Persistance partielle : %d/%d commandes insérées (intention %s): %v",
				len(orders), len(summaries), intent.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}

	if err := p.intents.MarkCompleted(ctx, intent.ID, orderIDs); err != nil {
		// Les commandes sont toutes en place ; le worker refermera l'intention
		log.Printf("⚠️ Intention %s non clôturée (commandes toutes persistées): %v", intent.ID, err)
	}

	return orders, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
