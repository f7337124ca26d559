package service

import "errors"

// Taxonomie d'erreurs métier du moteur de commande. Les handlers HTTP les
// traduisent en codes 4xx ; aucune n'est réessayée par le moteur lui-même.
var (
	ErrInvalidCart             = errors.New("panier vide ou malformé")
	ErrInvalidShippingInfo     = errors.New("informations de livraison incomplètes")
	ErrInvalidPaymentMethod    = errors.New("méthode de paiement inconnue")
	ErrInvalidLocation         = errors.New("coordonnées client invalides")
	ErrCustomerNotFound        = errors.New("client introuvable")
	ErrPriceMismatch           = errors.New("désaccord entre le total client et le total serveur")
	ErrNothingToCharge         = errors.New("aucun montant à encaisser")
	ErrInvalidSignature        = errors.New("signature de paiement invalide")
	ErrInvalidWebhookSignature = errors.New("signature webhook invalide")
	// ErrPersistence enveloppe une erreur du store pendant la boucle de
	// sauvegarde par boutique. Pas de rollback inter-boutiques : l'état
	// partiel est loggé et la reprise passe par l'intention de checkout.
	ErrPersistence = errors.New("échec de persistance")
)
