package models

import "time"

// Méthodes de paiement acceptées
const (
	PaymentMethodCOD     = "cod"      // paiement à la livraison
	PaymentMethodPrepaid = "razorpay" // prépayé via gateway
)

// Statuts de paiement
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// Statuts de commande (les transitions de livraison sont gérées ailleurs)
const (
	OrderStatusPlaced = "placed"
)

// Statuts d'intention de checkout (saga multi-boutiques)
const (
	IntentStatusOpen      = "open"
	IntentStatusCompleted = "completed"
	IntentStatusAbandoned = "abandoned"
)

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order est l'enregistrement durable : une commande par boutique du panier.
// Créée par le service de placement, mutée ensuite uniquement par les
// transitions de statut de paiement (finalize ou webhook). Jamais supprimée.
type Order struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customer_id"`
	ShopID           string          `json:"shop_id"`
	ShopName         string          `json:"shop_name"`
	Items            []OrderItem     `json:"items"`
	ItemsTotal       float64         `json:"items_total"`
	DeliveryCharge   float64         `json:"delivery_charge"`
	PlatformFee      float64         `json:"platform_fee"`
	TotalAmount      float64         `json:"total_amount"`
	DistanceKm       float64         `json:"distance_km"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	GatewayOrderID   string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Shipping         ShippingAddress `json:"shipping"`
	CustomerLat      float64         `json:"customer_lat"`
	CustomerLon      float64         `json:"customer_lon"`
	CourierID        string          `json:"courier_id,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ShippingAddress struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	Pincode string `json:"pincode" binding:"required"`
}

// CheckoutIntent trace la boucle de persistance multi-boutiques : créée avant
// le premier insert, marquée completed après le dernier. Une intention restée
// "open" signale une persistance partielle à rattraper par le worker.
type CheckoutIntent struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customer_id"`
	GatewayOrderID string    `json:"gateway_order_id,omitempty"`
	OrderIDs       []string  `json:"order_ids"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
