package service

import (
	"context"
	"errors"
	"sync"

	"mandi_back_end/internal/gateway"
	"mandi_back_end/internal/models"
	"mandi_back_end/internal/repository"
)

// --- Catalogue en mémoire ---

type fakeCatalog struct {
	products map[string]models.Product
	shops    map[string]models.Shop
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) GetShop(_ context.Context, id string) (*models.Shop, error) {
	s, ok := f.shops[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeCatalog) GetCourier(_ context.Context, id string) (*models.Courier, error) {
	return nil, repository.ErrNotFound
}

// --- Clients en mémoire ---

type fakeCustomers struct {
	customers map[string]models.Customer
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

// --- Store de commandes en mémoire ---

type fakeOrders struct {
	mu     sync.Mutex
	orders []models.Order
	claims map[string]string // gateway_order_id → payment_id
	// failAfter : fait échouer le (n+1)-ième insert pour simuler une
	// persistance partielle (-1 = jamais)
	failAfter int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{claims: make(map[string]string), failAfter: -1}
}

func (f *fakeOrders) Insert(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.orders) >= f.failAfter {
		return errors.New("scylla indisponible")
	}
	f.orders = append(f.orders, *o)
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrders) ListByCustomer(_ context.Context, customerID string, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID && len(out) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.GatewayOrderID == gatewayOrderID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, orderID, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].PaymentStatus = models.PaymentStatusCompleted
			f.orders[i].GatewayPaymentID = paymentID
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeOrders) ClaimSettlement(_ context.Context, gatewayOrderID, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.claims[gatewayOrderID]; exists {
		return false, nil
	}
	f.claims[gatewayOrderID] = paymentID
	return true, nil
}

func (f *fakeOrders) ReleaseSettlement(_ context.Context, gatewayOrderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, gatewayOrderID)
	return nil
}

// --- Intentions en mémoire ---

type fakeIntents struct {
	mu      sync.Mutex
	intents map[string]*models.CheckoutIntent
}

func newFakeIntents() *fakeIntents {
	return &fakeIntents{intents: make(map[string]*models.CheckoutIntent)}
}

func (f *fakeIntents) Create(_ context.Context, intent *models.CheckoutIntent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *intent
	f.intents[intent.ID] = &cp
	return nil
}

func (f *fakeIntents) MarkCompleted(_ context.Context, id string, orderIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it, ok := f.intents[id]; ok {
		it.Status = models.IntentStatusCompleted
		it.OrderIDs = orderIDs
	}
	return nil
}

func (f *fakeIntents) MarkAbandoned(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it, ok := f.intents[id]; ok {
		it.Status = models.IntentStatusAbandoned
	}
	return nil
}

func (f *fakeIntents) ListOpen(_ context.Context) ([]models.CheckoutIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CheckoutIntent
	for _, it := range f.intents {
		if it.Status == models.IntentStatusOpen {
			out = append(out, *it)
		}
	}
	return out, nil
}

// --- Pré-autorisations en mémoire ---

type fakePreAuths struct {
	mu    sync.Mutex
	store map[string]models.GatewayPreAuth
}

func newFakePreAuths() *fakePreAuths {
	return &fakePreAuths{store: make(map[string]models.GatewayPreAuth)}
}

func (f *fakePreAuths) Save(_ context.Context, p *models.GatewayPreAuth) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[p.GatewayOrderID] = *p
	return nil
}

func (f *fakePreAuths) Get(_ context.Context, id string) (*models.GatewayPreAuth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.store[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePreAuths) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, id)
	return nil
}

// --- Gateway mock ---

type fakeGateway struct {
	mu           sync.Mutex
	createdCount int
	lastAmount   int64
	lastCurrency string
	failCreate   bool
	payments     map[string]gatewayPayment
}

type gatewayPayment struct {
	orderID string
	status  string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]gatewayPayment)}
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", errors.New("gateway indisponible")
	}
	f.createdCount++
	f.lastAmount = amountMinor
	f.lastCurrency = currency
	return "order_fake_1", nil
}

func (f *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.PaymentInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, errors.New("paiement inconnu")
	}
	return &gateway.PaymentInfo{ID: paymentID, OrderID: p.orderID, Status: p.status}, nil
}

func (f *fakeGateway) FetchPaymentsForOrder(_ context.Context, gatewayOrderID string) ([]gateway.PaymentInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gateway.PaymentInfo
	for id, p := range f.payments {
		if p.orderID == gatewayOrderID {
			out = append(out, gateway.PaymentInfo{ID: id, OrderID: p.orderID, Status: p.status})
		}
	}
	return out, nil
}

// --- Notifier / Indexer espions ---

type spyNotifier struct {
	mu       sync.Mutex
	placed   []string
	paid     []string
	couriers []string
}

func (s *spyNotifier) OrderPlaced(o models.Order, _ models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placed = append(s.placed, o.ID)
}

func (s *spyNotifier) OrderPaid(o models.Order, _ models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paid = append(s.paid, o.ID)
}

func (s *spyNotifier) CourierAssigned(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers = append(s.couriers, o.ID)
}

type spyIndexer struct {
	mu      sync.Mutex
	indexed []string
}

func (s *spyIndexer) IndexOrder(o models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, o.ID)
}
