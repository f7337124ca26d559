package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"mandi_back_end/internal/database"
	"mandi_back_end/internal/models"

	"github.com/gocql/gocql"
)

// OrderStore : chemin d'écriture exclusif des commandes persistées.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]models.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) ([]models.Order, error)
	MarkPaid(ctx context.Context, orderID, gatewayPaymentID string) error
	// ClaimSettlement réserve atomiquement un gateway_order_id (LWT).
	// Retourne false si le règlement a déjà été réclamé : signal de rejeu.
	ClaimSettlement(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (bool, error)
	// ReleaseSettlement relâche un claim dont la persistance qui devait le
	// suivre a échoué, pour que le rejeu client puisse reprendre.
	ReleaseSettlement(ctx context.Context, gatewayOrderID string) error
}

type scyllaOrders struct{}

func NewScyllaOrders() OrderStore {
	return &scyllaOrders{}
}

func (s *scyllaOrders) Insert(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("sérialisation articles: %w", err)
	}
	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("sérialisation adresse: %w", err)
	}

	err = database.QueryInsertOrder(
		o.ID, o.CustomerID, o.ShopID, o.ShopName, string(items), o.ItemsTotal,
		o.DeliveryCharge, o.PlatformFee, o.TotalAmount, o.DistanceKm,
		o.PaymentMethod, o.PaymentStatus, o.GatewayOrderID, o.GatewayPaymentID,
		string(shipping), o.CustomerLat, o.CustomerLon, o.CourierID,
		o.Status, o.CreatedAt, o.UpdatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insertion commande %s: %w", o.ID, err)
	}

	// Tables de lookup. Un échec ici laisse la commande lisible par ID :
	// on logge sans faire échouer l'insertion principale.
	if err := database.QueryInsertOrderByCustomer(o.CustomerID, o.CreatedAt, o.ID).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Index orders_by_customer non écrit pour %s: %v", o.ID, err)
	}
	if o.GatewayOrderID != "" {
		if err := database.QueryInsertOrderByGateway(o.GatewayOrderID, o.ID).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Index orders_by_gateway non écrit pour %s: %v", o.ID, err)
		}
	}
	return nil
}

func (s *scyllaOrders) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	var items, shipping string
	err := database.QueryGetOrder(orderID).WithContext(ctx).Scan(
		&o.ID, &o.CustomerID, &o.ShopID, &o.ShopName, &items, &o.ItemsTotal,
		&o.DeliveryCharge, &o.PlatformFee, &o.TotalAmount, &o.DistanceKm,
		&o.PaymentMethod, &o.PaymentStatus, &o.GatewayOrderID, &o.GatewayPaymentID,
		&shipping, &o.CustomerLat, &o.CustomerLon, &o.CourierID,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lecture commande %s: %w", orderID, err)
	}

	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("articles corrompus pour %s: %w", orderID, err)
	}
	if err := json.Unmarshal([]byte(shipping), &o.Shipping); err != nil {
		return nil, fmt.Errorf("adresse corrompue pour %s: %w", orderID, err)
	}
	return &o, nil
}

func (s *scyllaOrders) ListByCustomer(ctx context.Context, customerID string, limit int) ([]models.Order, error) {
	iter := database.QueryOrdersByCustomer(customerID, limit).WithContext(ctx).Iter()

	var ids []string
	var id string
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lookup commandes client %s: %w", customerID, err)
	}

	orders := make([]models.Order, 0, len(ids))
	for _, oid := range ids {
		o, err := s.FindByID(ctx, oid)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *scyllaOrders) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) ([]models.Order, error) {
	iter := database.QueryOrdersByGateway(gatewayOrderID).WithContext(ctx).Iter()

	var ids []string
	var id string
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lookup commandes gateway %s: %w", gatewayOrderID, err)
	}

	orders := make([]models.Order, 0, len(ids))
	for _, oid := range ids {
		o, err := s.FindByID(ctx, oid)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *scyllaOrders) MarkPaid(ctx context.Context, orderID, gatewayPaymentID string) error {
	err := database.QueryMarkOrderPaid(
		models.PaymentStatusCompleted, gatewayPaymentID, time.Now(), orderID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("transition payée de %s: %w", orderID, err)
	}
	return nil
}

func (s *scyllaOrders) ClaimSettlement(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (bool, error) {
	prev := make(map[string]interface{})
	applied, err := database.QueryClaimSettlement(gatewayOrderID, gatewayPaymentID, time.Now()).
		WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return false, fmt.Errorf("claim règlement %s: %w", gatewayOrderID, err)
	}
	return applied, nil
}

func (s *scyllaOrders) ReleaseSettlement(ctx context.Context, gatewayOrderID string) error {
	if err := database.QueryReleaseSettlement(gatewayOrderID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("relâche règlement %s: %w", gatewayOrderID, err)
	}
	return nil
}
