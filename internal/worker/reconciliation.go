package worker

import (
	"context"
	"log"
	"time"

	"mandi_back_end/internal/gateway"
	"mandi_back_end/internal/models"
	"mandi_back_end/internal/repository"
)

// ReconciliationWorker balaye périodiquement les intentions de checkout
// restées ouvertes (crash en milieu de boucle de persistance, clôture
// manquée) et les referme d'après l'état réel du gateway.
type ReconciliationWorker struct {
	intents  repository.IntentStore
	orders   repository.OrderStore
	gateway  gateway.Client
	interval time.Duration
	// Délai de grâce avant de toucher une intention : un checkout en cours
	// a toujours une intention ouverte quelques secondes
	gracePeriod time.Duration
}

func NewReconciliationWorker(
	intents repository.IntentStore,
	orders repository.OrderStore,
	gw gateway.Client,
	interval, gracePeriod time.Duration,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		intents:     intents,
		orders:      orders,
		gateway:     gw,
		interval:    interval,
		gracePeriod: gracePeriod,
	}
}

// Start boucle jusqu'à annulation du contexte
func (w *ReconciliationWorker) Start(ctx context.Context) {
	log.Printf("🔄 Worker de réconciliation démarré (intervalle %s, grâce %s)", w.interval, w.gracePeriod)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("🔌 Worker de réconciliation arrêté")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep traite une passe d'intentions ouvertes. Exporté pour les tests.
func (w *ReconciliationWorker) Sweep(ctx context.Context) {
	intents, err := w.intents.ListOpen(ctx)
	if err != nil {
		log.Printf("❌ Liste des intentions ouvertes impossible: %v", err)
		return
	}

	for _, intent := range intents {
		if time.Since(intent.CreatedAt) < w.gracePeriod {
			continue
		}
		w.resolve(ctx, intent)
	}
}

func (w *ReconciliationWorker) resolve(ctx context.Context, intent models.CheckoutIntent) {
	// Chemin COD : pas de gateway impliqué. La reprise est pilotée par le
	// client (nouvelle tentative de checkout) ; on abandonne l'intention.
	if intent.GatewayOrderID == "" {
		log.Printf("🧹 Intention COD %s restée ouverte — abandonnée (reprise côté client)", intent.ID)
		if err := w.intents.MarkAbandoned(ctx, intent.ID); err != nil {
			log.Printf("❌ Abandon intention %s: %v", intent.ID, err)
		}
		return
	}

	payments, err := w.gateway.FetchPaymentsForOrder(ctx, intent.GatewayOrderID)
	if err != nil {
		log.Printf("⚠️ État gateway indisponible pour %s, on retentera: %v", intent.GatewayOrderID, err)
		return
	}

	captured := ""
	for _, p := range payments {
		if p.Status == "captured" {
			captured = p.ID
			break
		}
	}

	if captured == "" {
		// Rien d'encaissé : pré-autorisation expirée ou paiement jamais venu
		log.Printf("🧹 Intention %s sans paiement capturé — abandonnée", intent.ID)
		if err := w.intents.MarkAbandoned(ctx, intent.ID); err != nil {
			log.Printf("❌ Abandon intention %s: %v", intent.ID, err)
		}
		return
	}

	// Paiement capturé : on s'aligne sur l'état des commandes persistées
	orders, err := w.orders.FindByGatewayOrderID(ctx, intent.GatewayOrderID)
	if err != nil {
		log.Printf("❌ Lecture commandes de %s: %v", intent.GatewayOrderID, err)
		return
	}
	if len(orders) == 0 {
		// Argent encaissé mais aucune commande : cas à remboursement manuel
		log.Printf("🚨 Paiement %s capturé sans commande persistée (intention %s) — intervention requise",
			captured, intent.ID)
		return
	}

	orderIDs := make([]string, 0, len(orders))
	for _, order := range orders {
		if order.PaymentStatus != models.PaymentStatusCompleted {
			if err := w.orders.MarkPaid(ctx, order.ID, captured); err != nil {
				log.Printf("❌ Transition payée de %s: %v", order.ID, err)
				return
			}
		}
		orderIDs = append(orderIDs, order.ID)
	}

	if err := w.intents.MarkCompleted(ctx, intent.ID, orderIDs); err != nil {
		log.Printf("❌ Clôture intention %s: %v", intent.ID, err)
		return
	}
	log.Printf("✅ Intention %s réconciliée: %d commande(s) alignée(s) sur le paiement %s",
		intent.ID, len(orderIDs), captured)
}
