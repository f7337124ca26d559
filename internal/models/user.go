package models

// Customer : identité client consommée en lecture seule (propriété du module users).
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Courier : livreur éventuellement assigné à une commande (assignation externe).
type Courier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
