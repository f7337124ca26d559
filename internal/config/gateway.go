package config

import (
	"log"
	"os"
	"strconv"
)

// GatewayConfig porte les secrets Razorpay. Injecté dans le service de
// règlement à la construction (pas de singleton global) pour pouvoir
// substituer un gateway mock en test.
type GatewayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
}

func LoadGateway() GatewayConfig {
	cfg := GatewayConfig{
		KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		Currency:      os.Getenv("PAYMENT_CURRENCY"),
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		log.Println("⚠️ Clés Razorpay manquantes — le paiement prépayé sera indisponible")
	}
	return cfg
}

// FeeConfig : paramètres tarifaires du moteur de commande.
type FeeConfig struct {
	// Tarif de livraison par kilomètre (défaut 10)
	DeliveryRatePerKm float64
	// Taux de commission plateforme, appliqué sur (articles + livraison)
	PlatformFeeRate float64
	// Rayon de livraison maximal en km ; au-delà, le checkout échoue
	MaxDeliveryRadiusKm float64
	// Si true, une ligne de panier dont le produit n'existe plus est
	// silencieusement ignorée (comportement historique). Par défaut on échoue.
	DropUnknownProducts bool
}

func LoadFees() FeeConfig {
	cfg := FeeConfig{
		DeliveryRatePerKm:   envFloat("DELIVERY_RATE_PER_KM", 10),
		PlatformFeeRate:     envFloat("PLATFORM_FEE_RATE", 0.05),
		MaxDeliveryRadiusKm: envFloat("MAX_DELIVERY_RADIUS_KM", 15),
		DropUnknownProducts: os.Getenv("CHECKOUT_DROP_UNKNOWN_PRODUCTS") == "true",
	}
	return cfg
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %.2f utilisée", key, v, fallback)
	}
	return fallback
}
