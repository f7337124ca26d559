package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mandi_back_end/internal/config"
	"mandi_back_end/internal/gateway"
	"mandi_back_end/internal/models"
	"mandi_back_end/internal/pricing"
	"mandi_back_end/internal/repository"
	"mandi_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stubKeySecret     = "rzp_test_secret"
	stubWebhookSecret = "rzp_webhook_secret"
)

// --- Stores en mémoire, juste ce qu'il faut pour le routage ---

type stubCatalog struct {
	products map[string]models.Product
	shops    map[string]models.Shop
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *stubCatalog) GetShop(_ context.Context, id string) (*models.Shop, error) {
	sh, ok := s.shops[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sh, nil
}

func (s *stubCatalog) GetCourier(_ context.Context, _ string) (*models.Courier, error) {
	return nil, repository.ErrNotFound
}

type stubCustomers struct{}

func (stubCustomers) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	if id != "cust-1" {
		return nil, repository.ErrNotFound
	}
	return &models.Customer{ID: "cust-1", Name: "Asha", Email: "asha@example.com"}, nil
}

type stubOrders struct {
	mu     sync.Mutex
	orders []models.Order
	claims map[string]bool
}

func newStubOrders() *stubOrders {
	return &stubOrders{claims: make(map[string]bool)}
}

func (s *stubOrders) Insert(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, *o)
	return nil
}

func (s *stubOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			o := s.orders[i]
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubOrders) ListByCustomer(_ context.Context, customerID string, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID && len(out) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrders) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.GatewayOrderID == gatewayOrderID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrders) MarkPaid(_ context.Context, orderID, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].PaymentStatus = models.PaymentStatusCompleted
			s.orders[i].GatewayPaymentID = paymentID
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *stubOrders) ClaimSettlement(_ context.Context, gatewayOrderID, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claims[gatewayOrderID] {
		return false, nil
	}
	s.claims[gatewayOrderID] = true
	return true, nil
}

func (s *stubOrders) ReleaseSettlement(_ context.Context, gatewayOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, gatewayOrderID)
	return nil
}

type stubIntents struct{}

func (stubIntents) Create(_ context.Context, _ *models.CheckoutIntent) error       { return nil }
func (stubIntents) MarkCompleted(_ context.Context, _ string, _ []string) error    { return nil }
func (stubIntents) MarkAbandoned(_ context.Context, _ string) error                { return nil }
func (stubIntents) ListOpen(_ context.Context) ([]models.CheckoutIntent, error)    { return nil, nil }

type stubPreAuths struct {
	mu    sync.Mutex
	store map[string]models.GatewayPreAuth
}

func newStubPreAuths() *stubPreAuths {
	return &stubPreAuths{store: make(map[string]models.GatewayPreAuth)}
}

func (s *stubPreAuths) Save(_ context.Context, p *models.GatewayPreAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[p.GatewayOrderID] = *p
	return nil
}

func (s *stubPreAuths) Get(_ context.Context, id string) (*models.GatewayPreAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.store[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *stubPreAuths) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, id)
	return nil
}

type stubGateway struct{}

func (stubGateway) CreateOrder(_ context.Context, _ int64, _, _ string, _ map[string]interface{}) (string, error) {
	return "order_stub_1", nil
}

func (stubGateway) FetchPayment(_ context.Context, _ string) (*gateway.PaymentInfo, error) {
	return nil, nil
}

func (stubGateway) FetchPaymentsForOrder(_ context.Context, _ string) ([]gateway.PaymentInfo, error) {
	return nil, nil
}

// --- Montage du routeur de test ---

type testEnv struct {
	router *gin.Engine
	orders *stubOrders
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	catalog := &stubCatalog{
		products: map[string]models.Product{
			"prod-a": {ID: "prod-a", Name: "Thali végétarien", Price: 100, ShopID: "shop-x"},
		},
		shops: map[string]models.Shop{
			"shop-x": {ID: "shop-x", Name: "Shop X", Latitude: 12.95, Longitude: 77.55},
		},
	}
	orders := newStubOrders()
	agg := pricing.NewAggregator(catalog, config.FeeConfig{
		DeliveryRatePerKm: 10, PlatformFeeRate: 0.05, MaxDeliveryRadiusKm: 15,
	})

	placement := service.NewPlacement(stubCustomers{}, orders, stubIntents{}, agg,
		service.NopNotifier{}, service.NopIndexer{})
	settlement := service.NewSettlement(config.GatewayConfig{
		KeyID: "key", KeySecret: stubKeySecret, WebhookSecret: stubWebhookSecret, Currency: "INR",
	}, stubGateway{}, orders, stubCustomers{}, newStubPreAuths(), agg, placement,
		service.NopNotifier{}, service.NopIndexer{})

	oh := NewOrderHandler(placement, orders)
	ph := NewPaymentHandler(settlement)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/payments/webhook", ph.Webhook)

	// L'identité est normalement posée par le middleware JWT
	authed := api.Group("")
	authed.Use(func(c *gin.Context) { c.Set("user_id", "cust-1") })
	{
		authed.POST("/orders", oh.PlaceOrder)
		authed.GET("/orders", oh.ListMyOrders)
		authed.GET("/orders/:id", oh.GetOrder)
		authed.POST("/payments/preauthorize", ph.PreAuthorize)
		authed.POST("/payments/finalize", ph.Finalize)
	}

	return &testEnv{router: r, orders: orders}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func placeOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"items":          []map[string]interface{}{{"product_id": "prod-a", "quantity": 2}},
		"payment_method": "cod",
		"customer_lat":   12.95,
		"customer_lon":   77.55,
		"shipping_address": map[string]string{
			"name": "Asha", "phone": "9900000000", "street": "12 MG Road",
			"city": "Bengaluru", "pincode": "560001",
		},
	}
}

func TestPlaceOrderEndpoint_Created(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/orders", placeOrderBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Orders []models.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "shop-x", resp.Orders[0].ShopID)
	assert.Equal(t, models.PaymentStatusPending, resp.Orders[0].PaymentStatus)
}

func TestPlaceOrderEndpoint_MalformedBody(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{pas du json"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrderEndpoint_UnknownProductCode(t *testing.T) {
	env := newTestEnv()

	body := placeOrderBody()
	body["items"] = []map[string]interface{}{{"product_id": "prod-fantome", "quantity": 1}}
	w := env.do(http.MethodPost, "/api/orders", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_PRODUCT")
}

func TestGetOrderEndpoint_OwnershipEnforced(t *testing.T) {
	env := newTestEnv()
	env.orders.orders = []models.Order{{ID: "o-autre", CustomerID: "cust-2"}}

	w := env.do(http.MethodGet, "/api/orders/o-autre", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/orders/o-inexistante", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreAuthorizeEndpoint(t *testing.T) {
	env := newTestEnv()

	w := env.do(http.MethodPost, "/api/payments/preauthorize", map[string]interface{}{
		"items":        []map[string]interface{}{{"product_id": "prod-a", "quantity": 2}},
		"customer_lat": 12.95,
		"customer_lon": 77.55,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		GatewayOrderID string `json:"gateway_order_id"`
		Amount         int64  `json:"amount"`
		Currency       string `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "order_stub_1", resp.GatewayOrderID)
	// 200 articles × 1.05 → 210.00 → 21000 unités mineures
	assert.Equal(t, int64(21000), resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
}

func TestFinalizeEndpoint_InvalidSignature(t *testing.T) {
	env := newTestEnv()
	env.do(http.MethodPost, "/api/payments/preauthorize", map[string]interface{}{
		"items":        []map[string]interface{}{{"product_id": "prod-a", "quantity": 2}},
		"customer_lat": 12.95,
		"customer_lon": 77.55,
	})

	w := env.do(http.MethodPost, "/api/payments/finalize", map[string]interface{}{
		"razorpay_order_id":   "order_stub_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "forgée",
		"customer_lat":        12.95,
		"customer_lon":        77.55,
		"shipping_address": map[string]string{
			"name": "Asha", "phone": "9900000000", "street": "12 MG Road",
			"city": "Bengaluru", "pincode": "560001",
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SIGNATURE")
}

func TestWebhookEndpoint(t *testing.T) {
	env := newTestEnv()
	env.orders.orders = []models.Order{
		{ID: "o1", CustomerID: "cust-1", GatewayOrderID: "order_stub_1", PaymentStatus: models.PaymentStatusPending},
	}

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_stub_1","status":"captured"}}}}`)
	mac := hmac.New(sha256.New, []byte(stubWebhookSecret))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", hex.EncodeToString(mac.Sum(nil)))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentStatusCompleted, env.orders.orders[0].PaymentStatus)

	// Signature invalide → 400, aucun traitement
	req = httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "bidon")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
