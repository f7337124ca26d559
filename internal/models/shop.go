package models

// Shop : boutique vendeuse. Les coordonnées servent au calcul de distance.
type Shop struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	OwnerEmail string  `json:"owner_email"`
}

// Product : snapshot catalogue en lecture seule pour ce moteur.
type Product struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	ShopID string  `json:"shop_id"`
}
