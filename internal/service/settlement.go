package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"mandi_back_end/internal/cache"
	"mandi_back_end/internal/config"
	"mandi_back_end/internal/gateway"
	"mandi_back_end/internal/models"
	"mandi_back_end/internal/pricing"
	"mandi_back_end/internal/repository"
	"mandi_back_end/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinalizeRequest : retour du widget de paiement côté client.
type FinalizeRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	// Summary : résumé restitué par le client. N'est utilisé que si
	// l'enregistrement de pré-autorisation Redis a expiré.
	Summary     []models.ShopOrderSummary
	CustomerID  string
	Shipping    models.ShippingAddress
	CustomerLat float64
	CustomerLon float64
}

// webhookEvent : enveloppe d'événement gateway (payment.captured, order.paid,
// payment.failed)
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Settlement orchestre les deux chemins de paiement : COD (placement direct)
// et prépayé (pré-autorisation → paiement client → finalisation signée →
// réconciliation webhook). La config gateway est injectée à la construction.
type Settlement struct {
	cfg       config.GatewayConfig
	gateway   gateway.Client
	orders    repository.OrderStore
	customers repository.CustomerStore
	preAuths  cache.PreAuthStore
	agg       *pricing.Aggregator
	placement *Placement
	notifier  Notifier
	indexer   OrderIndexer
}

func NewSettlement(
	cfg config.GatewayConfig,
	gw gateway.Client,
	orders repository.OrderStore,
	customers repository.CustomerStore,
	preAuths cache.PreAuthStore,
	agg *pricing.Aggregator,
	placement *Placement,
	notifier Notifier,
	indexer OrderIndexer,
) *Settlement {
	return &Settlement{
		cfg:       cfg,
		gateway:   gw,
		orders:    orders,
		customers: customers,
		preAuths:  preAuths,
		agg:       agg,
		placement: placement,
		notifier:  notifier,
		indexer:   indexer,
	}
}

// PreAuthorize recompute le résumé côté serveur — jamais de total client à ce
// stade — et demande une pré-autorisation gateway en unités mineures.
func (s *Settlement) PreAuthorize(ctx context.Context, customerID string, cart []models.CartLine, customerLat, customerLon float64) (*models.GatewayPreAuth, error) {
	summaries, err := s.agg.ComputeSummary(ctx, cart, customerLat, customerLon)
	if err != nil {
		return nil, err
	}

	amountMinor := pricing.GrandTotal(summaries).
		Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if len(summaries) == 0 || amountMinor <= 0 {
		return nil, ErrNothingToCharge
	}

	receipt := "mandi_" + uuid.NewString()
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amountMinor, s.cfg.Currency, receipt,
		map[string]interface{}{"customer_id": customerID})
	if err != nil {
		return nil, err
	}

	preAuth := &models.GatewayPreAuth{
		GatewayOrderID: gatewayOrderID,
		AmountMinor:    amountMinor,
		Currency:       s.cfg.Currency,
		Summary:        summaries,
		CustomerID:     customerID,
		CreatedAt:      time.Now(),
	}

	// L'aller-retour passe par Redis ; si Redis est indisponible, la
	// finalisation retombera sur le résumé restitué par le client
	if err := s.preAuths.Save(ctx, preAuth); err != nil {
		log.Printf("⚠️ Pré-autorisation %s non mise en cache: %v", gatewayOrderID, err)
	}

	log.Printf("💳 Pré-autorisation créée: %s (%d %s, %d boutiques) pour %s",
		gatewayOrderID, amountMinor, s.cfg.Currency, len(summaries), customerID)

	return preAuth, nil
}

// Finalize convertit un paiement capturé en commandes durables. La signature
// HMAC sur "orderId|paymentId" est la seule preuve que le paiement a eu lieu.
// Rejouable sans double insertion : le claim LWT sur gateway_order_id fait foi.
// Le claim n'est pris qu'une fois résumé et client résolus, juste avant la
// persistance, et il est relâché si celle-ci échoue : un paiement capturé doit
// toujours rester récupérable par rejeu client.
func (s *Settlement) Finalize(ctx context.Context, req FinalizeRequest) ([]models.Order, bool, error) {
	if !utils.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature, s.cfg.KeySecret) {
		return nil, false, ErrInvalidSignature
	}

	// Rejeu idempotent : des commandes déjà persistées font foi, sans exiger
	// du client qu'il renvoie un résumé
	existing, err := s.orders.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(existing) > 0 {
		log.Printf("🔁 Finalisation rejouée pour %s: %d commandes existantes", req.GatewayOrderID, len(existing))
		return existing, true, nil
	}

	// Résumé : priorité à l'enregistrement de pré-autorisation (non falsifiable)
	summaries := req.Summary
	if preAuth, err := s.preAuths.Get(ctx, req.GatewayOrderID); err != nil {
		log.Printf("⚠️ Lecture pré-autorisation %s: %v", req.GatewayOrderID, err)
	} else if preAuth != nil {
		summaries = preAuth.Summary
	}
	if len(summaries) == 0 {
		return nil, false, ErrNothingToCharge
	}

	customer, err := s.customers.GetCustomer(ctx, req.CustomerID)
	if err == repository.ErrNotFound {
		return nil, false, ErrCustomerNotFound
	}
	if err != nil {
		return nil, false, err
	}

	// Claim atomique : ferme la course finalize/webhook et les doubles
	// finalisations concurrentes sans check-then-insert
	claimed, err := s.orders.ClaimSettlement(ctx, req.GatewayOrderID, req.GatewayPaymentID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !claimed {
		// Un concurrent a gagné la course pendant la résolution
		existing, err := s.orders.FindByGatewayOrderID(ctx, req.GatewayOrderID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if len(existing) == 0 {
			// Claim détenu, commandes pas encore écrites : persistance
			// concurrente en vol, le client doit rejouer plus tard
			return nil, false, fmt.Errorf("%w: règlement de %s en cours", ErrPersistence, req.GatewayOrderID)
		}
		log.Printf("🔁 Finalisation rejouée pour %s: %d commandes existantes", req.GatewayOrderID, len(existing))
		return existing, true, nil
	}

	lat, lon := req.CustomerLat, req.CustomerLon
	placementReq := PlacementRequest{
		CustomerID:    req.CustomerID,
		Shipping:      req.Shipping,
		PaymentMethod: models.PaymentMethodPrepaid,
		CustomerLat:   &lat,
		CustomerLon:   &lon,
	}

	orders, err := s.placement.persistSummaries(ctx, customer, summaries, placementReq,
		models.PaymentStatusCompleted, req.GatewayOrderID, req.GatewayPaymentID)
	if err != nil {
		// Relâche le claim : le paiement est capturé, le rejeu client doit
		// pouvoir reprendre la persistance quand le store revient
		if relErr := s.orders.ReleaseSettlement(ctx, req.GatewayOrderID); relErr != nil {
			log.Printf("❌ Claim %s non relâché après échec de persistance: %v", req.GatewayOrderID, relErr)
		}
		return nil, false, err
	}

	if err := s.preAuths.Delete(ctx, req.GatewayOrderID); err != nil {
		log.Printf("⚠️ Pré-autorisation %s non purgée: %v", req.GatewayOrderID, err)
	}

	for _, order := range orders {
		o := order
		go s.notifier.OrderPaid(o, *customer)
		go s.indexer.IndexOrder(o)
	}

	log.Printf("✅ Paiement %s finalisé: %d commandes persistées", req.GatewayPaymentID, len(orders))
	return orders, false, nil
}

// Webhook : point d'entrée asynchrone du gateway, filet de sécurité quand
// l'appel de finalisation client se perd (navigateur fermé, réseau coupé).
func (s *Settlement) Webhook(ctx context.Context, body []byte, signature string) error {
	if !utils.VerifyWebhookSignature(body, signature, s.cfg.WebhookSecret) {
		return ErrInvalidWebhookSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("événement webhook illisible: %w", err)
	}

	payment := event.Payload.Payment.Entity
	log.Printf("📥 Événement gateway reçu: %s (paiement %s, commande %s)",
		event.Event, payment.ID, payment.OrderID)

	switch event.Event {
	case "payment.captured", "order.paid":
		return s.reconcileCaptured(ctx, payment.OrderID, payment.ID)
	case "payment.failed":
		// Pas de transition : un paiement échoué ne doit pas annuler
		// silencieusement une commande qui pourrait être retentée
		log.Printf("ℹ️ Paiement échoué signalé pour %s — aucun changement d'état", payment.OrderID)
		return nil
	default:
		log.Printf("ℹ️ Événement ignoré: %s", event.Event)
		return nil
	}
}

// reconcileCaptured bascule en "completed" toute commande encore pending du
// gateway_order_id donné. Sans effet si la finalisation est déjà passée.
func (s *Settlement) reconcileCaptured(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	orders, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(orders) == 0 {
		// Finalisation pas encore arrivée ; le claim LWT protégera l'insertion
		log.Printf("ℹ️ Webhook pour %s sans commande persistée — la finalisation fera foi", gatewayOrderID)
		return nil
	}

	flipped := 0
	for _, order := range orders {
		if order.PaymentStatus == models.PaymentStatusCompleted {
			continue
		}
		if err := s.orders.MarkPaid(ctx, order.ID, gatewayPaymentID); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		flipped++

		order.PaymentStatus = models.PaymentStatusCompleted
		order.GatewayPaymentID = gatewayPaymentID
		o := order
		go s.indexer.IndexOrder(o)
		if customer, err := s.customers.GetCustomer(ctx, order.CustomerID); err == nil {
			go s.notifier.OrderPaid(o, *customer)
		}
		if order.CourierID != "" {
			go s.notifier.CourierAssigned(o)
		}
	}

	log.Printf("✅ Réconciliation webhook %s: %d commande(s) passée(s) à completed", gatewayOrderID, flipped)
	return nil
}
