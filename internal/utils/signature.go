package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature vérifie la signature HMAC-SHA256 renvoyée par le
// widget de paiement : HMAC(secret, "orderId|paymentId") en hexadécimal.
// C'est l'unique preuve d'authenticité côté finalisation.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	payload := gatewayOrderID + "|" + gatewayPaymentID
	return hmacMatches([]byte(payload), signature, secret)
}

// VerifyWebhookSignature vérifie la signature transport du webhook :
// HMAC-SHA256 du corps brut de la requête avec le secret webhook.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	return hmacMatches(body, signature, secret)
}

func hmacMatches(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	// Comparaison à temps constant
	return hmac.Equal([]byte(expected), []byte(signature))
}
