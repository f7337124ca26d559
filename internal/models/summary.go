package models

import "time"

// ShopOrderSummary est le sous-total chiffré d'une boutique dans un panier
// multi-boutiques. Invariant : TotalAmount == ItemsTotal + DeliveryCharge + PlatformFee.
type ShopOrderSummary struct {
	ShopID         string             `json:"shop_id"`
	ShopName       string             `json:"shop_name"`
	Items          []ResolvedLineItem `json:"items"`
	ItemsTotal     float64            `json:"items_total"`
	DistanceKm     float64            `json:"distance_km"`
	DeliveryCharge float64            `json:"delivery_charge"`
	PlatformFee    float64            `json:"platform_fee"`
	TotalAmount    float64            `json:"total_amount"`
}

// GatewayPreAuth est l'enregistrement de corrélation transitoire entre la
// pré-autorisation gateway et la finalisation. Stocké dans Redis avec TTL,
// il doit revenir inchangé jusqu'à la finalisation.
type GatewayPreAuth struct {
	GatewayOrderID string             `json:"gateway_order_id"`
	AmountMinor    int64              `json:"amount_minor"`
	Currency       string             `json:"currency"`
	Summary        []ShopOrderSummary `json:"summary"`
	CustomerID     string             `json:"customer_id"`
	CreatedAt      time.Time          `json:"created_at"`
}
