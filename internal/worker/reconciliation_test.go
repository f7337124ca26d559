package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"mandi_back_end/internal/gateway"
	"mandi_back_end/internal/models"
	"mandi_back_end/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memIntents struct {
	mu      sync.Mutex
	intents map[string]*models.CheckoutIntent
}

func newMemIntents() *memIntents {
	return &memIntents{intents: make(map[string]*models.CheckoutIntent)}
}

func (m *memIntents) Create(_ context.Context, intent *models.CheckoutIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *intent
	m.intents[intent.ID] = &cp
	return nil
}

func (m *memIntents) MarkCompleted(_ context.Context, id string, orderIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.intents[id]; ok {
		it.Status = models.IntentStatusCompleted
		it.OrderIDs = orderIDs
	}
	return nil
}

func (m *memIntents) MarkAbandoned(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.intents[id]; ok {
		it.Status = models.IntentStatusAbandoned
	}
	return nil
}

func (m *memIntents) ListOpen(_ context.Context) ([]models.CheckoutIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CheckoutIntent
	for _, it := range m.intents {
		if it.Status == models.IntentStatusOpen {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memIntents) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intents[id].Status
}

type memOrders struct {
	mu     sync.Mutex
	orders []models.Order
}

func (m *memOrders) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, *o)
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			o := m.orders[i]
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memOrders) ListByCustomer(_ context.Context, customerID string, limit int) ([]models.Order, error) {
	return nil, nil
}

func (m *memOrders) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.GatewayOrderID == gatewayOrderID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) MarkPaid(_ context.Context, orderID, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].PaymentStatus = models.PaymentStatusCompleted
			m.orders[i].GatewayPaymentID = paymentID
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memOrders) ClaimSettlement(_ context.Context, gatewayOrderID, paymentID string) (bool, error) {
	return true, nil
}

func (m *memOrders) ReleaseSettlement(_ context.Context, _ string) error {
	return nil
}

type stubGateway struct {
	payments map[string][]gateway.PaymentInfo
}

func (s *stubGateway) CreateOrder(_ context.Context, _ int64, _, _ string, _ map[string]interface{}) (string, error) {
	return "", nil
}

func (s *stubGateway) FetchPayment(_ context.Context, _ string) (*gateway.PaymentInfo, error) {
	return nil, nil
}

func (s *stubGateway) FetchPaymentsForOrder(_ context.Context, gatewayOrderID string) ([]gateway.PaymentInfo, error) {
	return s.payments[gatewayOrderID], nil
}

func staleIntent(id, gatewayOrderID string) *models.CheckoutIntent {
	return &models.CheckoutIntent{
		ID:             id,
		CustomerID:     "cust-1",
		GatewayOrderID: gatewayOrderID,
		Status:         models.IntentStatusOpen,
		CreatedAt:      time.Now().Add(-time.Hour),
		UpdatedAt:      time.Now().Add(-time.Hour),
	}
}

func TestSweep_RespectsGracePeriod(t *testing.T) {
	intents := newMemIntents()
	fresh := staleIntent("int-fresh", "")
	fresh.CreatedAt = time.Now()
	require.NoError(t, intents.Create(context.Background(), fresh))

	w := NewReconciliationWorker(intents, &memOrders{}, &stubGateway{}, time.Minute, 10*time.Minute)
	w.Sweep(context.Background())

	assert.Equal(t, models.IntentStatusOpen, intents.status("int-fresh"))
}

func TestSweep_AbandonsCODIntent(t *testing.T) {
	intents := newMemIntents()
	require.NoError(t, intents.Create(context.Background(), staleIntent("int-cod", "")))

	w := NewReconciliationWorker(intents, &memOrders{}, &stubGateway{}, time.Minute, 10*time.Minute)
	w.Sweep(context.Background())

	assert.Equal(t, models.IntentStatusAbandoned, intents.status("int-cod"))
}

func TestSweep_AbandonsWhenNothingCaptured(t *testing.T) {
	intents := newMemIntents()
	require.NoError(t, intents.Create(context.Background(), staleIntent("int-1", "order_gw_1")))

	gw := &stubGateway{payments: map[string][]gateway.PaymentInfo{
		"order_gw_1": {{ID: "pay_1", OrderID: "order_gw_1", Status: "failed"}},
	}}
	w := NewReconciliationWorker(intents, &memOrders{}, gw, time.Minute, 10*time.Minute)
	w.Sweep(context.Background())

	assert.Equal(t, models.IntentStatusAbandoned, intents.status("int-1"))
}

func TestSweep_CompletesCapturedIntent(t *testing.T) {
	intents := newMemIntents()
	require.NoError(t, intents.Create(context.Background(), staleIntent("int-1", "order_gw_1")))

	orders := &memOrders{orders: []models.Order{
		{ID: "o1", GatewayOrderID: "order_gw_1", PaymentStatus: models.PaymentStatusPending},
		{ID: "o2", GatewayOrderID: "order_gw_1", PaymentStatus: models.PaymentStatusPending},
	}}
	gw := &stubGateway{payments: map[string][]gateway.PaymentInfo{
		"order_gw_1": {{ID: "pay_1", OrderID: "order_gw_1", Status: "captured"}},
	}}

	w := NewReconciliationWorker(intents, orders, gw, time.Minute, 10*time.Minute)
	w.Sweep(context.Background())

	assert.Equal(t, models.IntentStatusCompleted, intents.status("int-1"))
	for _, o := range orders.orders {
		assert.Equal(t, models.PaymentStatusCompleted, o.PaymentStatus)
		assert.Equal(t, "pay_1", o.GatewayPaymentID)
	}
}

func TestSweep_LeavesOrphanCaptureOpen(t *testing.T) {
	intents := newMemIntents()
	require.NoError(t, intents.Create(context.Background(), staleIntent("int-1", "order_gw_1")))

	// Argent capturé mais zéro commande persistée : pas d'abandon automatique
	gw := &stubGateway{payments: map[string][]gateway.PaymentInfo{
		"order_gw_1": {{ID: "pay_1", OrderID: "order_gw_1", Status: "captured"}},
	}}
	w := NewReconciliationWorker(intents, &memOrders{}, gw, time.Minute, 10*time.Minute)
	w.Sweep(context.Background())

	assert.Equal(t, models.IntentStatusOpen, intents.status("int-1"))
}
