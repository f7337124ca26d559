package utils

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"

	"mandi_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// SendEmail envoie un e-mail HTML, avec pièce jointe PDF optionnelle
func SendEmail(to, subject, htmlBody string, pdfAttachment []byte) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@mandi.in"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if pdfAttachment != nil {
		msg.AttachReader("facture_mandi.pdf", bytes.NewReader(pdfAttachment))
	}

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderPlacedHTML génère le HTML de confirmation de commande
func GenerateOrderPlacedHTML(order models.Order, customer models.Customer) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">₹%.2f</td>
				<td style="padding: 10px; border: 1px solid #ddd;">₹%.2f</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	paymentLine := "Paiement à la livraison"
	if order.PaymentMethod == models.PaymentMethodPrepaid {
		paymentLine = "Payée en ligne"
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande chez %s</h2>
		<p>Bonjour %s,</p>
		<p>Votre commande a été confirmée avec succès. %s.</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produit</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Livraison (%.1f km):</td>
					<td style="padding: 10px;">₹%.2f</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Frais de service:</td>
					<td style="padding: 10px;">₹%.2f</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">₹%.2f</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Mandi</strong>
		</p>
	</div>
</body>
</html>`, order.ShopName, customer.Name, paymentLine, itemsHTML,
		order.DistanceKm, order.DeliveryCharge, order.PlatformFee, order.TotalAmount)
}

// GenerateSellerOrderHTML : notification envoyée à la boutique
func GenerateSellerOrderHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`<li>%d × %s</li>`, item.Quantity, item.Name)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<h2>📥 Nouvelle commande #%s</h2>
	<ul>%s</ul>
	<p>Livraison : %s, %s — %s (%.1f km)</p>
	<p><strong>Total articles : ₹%.2f</strong> — %s</p>
</body>
</html>`, order.ID, itemsHTML,
		order.Shipping.Street, order.Shipping.City, order.Shipping.Pincode,
		order.DistanceKm, order.ItemsTotal, paymentStatusLabel(order.PaymentStatus))
}

func paymentStatusLabel(status string) string {
	switch status {
	case models.PaymentStatusCompleted:
		return "payée en ligne"
	case models.PaymentStatusPending:
		return "à encaisser à la livraison"
	default:
		return status
	}
}
