package models

// CartLine est une ligne de panier fournie par le client au checkout.
// Jamais persistée telle quelle : elle ne vit que le temps de la requête.
type CartLine struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// ResolvedLineItem est une ligne résolue contre le catalogue (snapshot produit).
// Immuable une fois calculée.
type ResolvedLineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	ShopID    string  `json:"shop_id"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}
