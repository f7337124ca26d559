package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"mandi_back_end/internal/models"
	"mandi_back_end/internal/repository"
	"mandi_back_end/internal/services"
)

// Mailer notifie client, boutique et livreur par e-mail. Tout est
// best-effort : un SMTP en panne se loggue, il ne casse jamais un checkout.
type Mailer struct {
	catalog repository.CatalogStore
}

func NewMailer(catalog repository.CatalogStore) *Mailer {
	return &Mailer{catalog: catalog}
}

const lookupTimeout = 5 * time.Second

// OrderPlaced : confirmation au client + alerte à la boutique
func (m *Mailer) OrderPlaced(order models.Order, customer models.Customer) {
	if customer.Email != "" {
		subject := fmt.Sprintf("✅ Commande confirmée chez %s - Mandi", order.ShopName)
		html := GenerateOrderPlacedHTML(order, customer)
		if err := SendEmail(customer.Email, subject, html, nil); err != nil {
			log.Printf("❌ Email client non envoyé (%s): %v", order.ID, err)
		}
	}

	m.notifySeller(order)
}

// OrderPaid : confirmation de paiement au client, facture PDF jointe
func (m *Mailer) OrderPaid(order models.Order, customer models.Customer) {
	pdf, err := GenerateInvoicePDF(order)
	if err != nil {
		log.Printf("⚠️ Facture PDF non générée pour %s: %v", order.ID, err)
		pdf = nil
	} else if err := services.UploadInvoicePDF(order.ID, pdf); err != nil {
		log.Printf("⚠️ Facture non archivée pour %s: %v", order.ID, err)
	}

	if customer.Email != "" {
		subject := "💳 Paiement confirmé - Mandi"
		html := GenerateOrderPlacedHTML(order, customer)
		if err := SendEmail(customer.Email, subject, html, pdf); err != nil {
			log.Printf("❌ Email de paiement non envoyé (%s): %v", order.ID, err)
		}
	}

	m.notifySeller(order)
}

// CourierAssigned : fiche de course au livreur
func (m *Mailer) CourierAssigned(order models.Order) {
	if order.CourierID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	courier, err := m.catalog.GetCourier(ctx, order.CourierID)
	if err != nil {
		log.Printf("⚠️ Livreur %s introuvable pour la commande %s: %v", order.CourierID, order.ID, err)
		return
	}
	if courier.Email == "" {
		return
	}

	subject := fmt.Sprintf("🛵 Course attribuée : commande #%s", order.ID)
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<h2>🛵 Nouvelle course</h2>
	<p>Retrait : <strong>%s</strong></p>
	<p>Livraison : %s, %s — %s (%.1f km)</p>
	<p>%s — Total ₹%.2f</p>
</body>
</html>`, order.ShopName,
		order.Shipping.Street, order.Shipping.City, order.Shipping.Pincode,
		order.DistanceKm, paymentStatusLabel(order.PaymentStatus), order.TotalAmount)

	if err := SendEmail(courier.Email, subject, html, nil); err != nil {
		log.Printf("❌ Email livreur non envoyé (%s): %v", order.ID, err)
	}
}

func (m *Mailer) notifySeller(order models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	shop, err := m.catalog.GetShop(ctx, order.ShopID)
	if err != nil {
		log.Printf("⚠️ Boutique %s introuvable pour notification: %v", order.ShopID, err)
		return
	}
	if shop.OwnerEmail == "" {
		return
	}

	subject := fmt.Sprintf("📥 Nouvelle commande #%s - Mandi", order.ID)
	if err := SendEmail(shop.OwnerEmail, subject, GenerateSellerOrderHTML(order), nil); err != nil {
		log.Printf("❌ Email boutique non envoyé (%s): %v", order.ID, err)
	}
}
