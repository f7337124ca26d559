package gateway

import (
	"context"
	"fmt"

	"mandi_back_end/internal/config"

	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentInfo : vue minimale d'un paiement gateway
type PaymentInfo struct {
	ID      string
	OrderID string
	Status  string // created | authorized | captured | failed
}

// Client abstrait le gateway de paiement pour pouvoir injecter un mock en
// test. Le contexte est accepté sur chaque appel sortant (I/O réseau).
type Client interface {
	// CreateOrder demande une pré-autorisation et retourne l'identifiant
	// de commande gateway
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]interface{}) (string, error)
	FetchPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
	// FetchPaymentsForOrder liste les paiements rattachés à une commande
	// gateway (utilisé par le worker de réconciliation)
	FetchPaymentsForOrder(ctx context.Context, gatewayOrderID string) ([]PaymentInfo, error)
}

type razorpayClient struct {
	client *razorpay.Client
}

// NewRazorpayClient construit le client réel à partir de la config injectée
func NewRazorpayClient(cfg config.GatewayConfig) Client {
	return &razorpayClient{client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret)}
}

func (r *razorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	// Le SDK Razorpay ne prend pas de contexte ; l'appel reste borné par les
	// timeouts HTTP du SDK
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("création commande gateway: %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("réponse gateway sans identifiant de commande: %v", body)
	}
	return id, nil
}

func (r *razorpayClient) FetchPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	body, err := r.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("lecture paiement gateway %s: %w", paymentID, err)
	}
	return paymentFromMap(body), nil
}

func (r *razorpayClient) FetchPaymentsForOrder(ctx context.Context, gatewayOrderID string) ([]PaymentInfo, error) {
	body, err := r.client.Order.Payments(gatewayOrderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("liste paiements de %s: %w", gatewayOrderID, err)
	}

	items, ok := body["items"].([]interface{})
	if !ok {
		return nil, nil
	}

	payments := make([]PaymentInfo, 0, len(items))
	for _, raw := range items {
		if m, ok := raw.(map[string]interface{}); ok {
			payments = append(payments, *paymentFromMap(m))
		}
	}
	return payments, nil
}

func paymentFromMap(m map[string]interface{}) *PaymentInfo {
	info := &PaymentInfo{}
	if v, ok := m["id"].(string); ok {
		info.ID = v
	}
	if v, ok := m["order_id"].(string); ok {
		info.OrderID = v
	}
	if v, ok := m["status"].(string); ok {
		info.Status = v
	}
	return info
}
