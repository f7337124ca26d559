package service

import "mandi_back_end/internal/models"

// Notifier : déclencheurs de notification best-effort. Les implémentations ne
// retournent rien au moteur : un échec d'envoi se logge, ne bloque jamais.
type Notifier interface {
	OrderPlaced(order models.Order, customer models.Customer)
	OrderPaid(order models.Order, customer models.Customer)
	CourierAssigned(order models.Order)
}

// OrderIndexer : indexation de recherche, best-effort elle aussi.
type OrderIndexer interface {
	IndexOrder(order models.Order)
}

// NopNotifier / NopIndexer : branchés quand SMTP ou Elastic sont absents.
type NopNotifier struct{}

func (NopNotifier) OrderPlaced(models.Order, models.Customer) {}
func (NopNotifier) OrderPaid(models.Order, models.Customer)   {}
func (NopNotifier) CourierAssigned(models.Order)              {}

type NopIndexer struct{}

func (NopIndexer) IndexOrder(models.Order) {}
