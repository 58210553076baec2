package models

type Cart struct {
	ID     string     `json:"id" db:"cart_id"`
	UserID string     `json:"user_id" db:"user_id"`
	Items  []CartLine `json:"items"`
}

// CartLine est une ligne de panier résolue au prix produit actuel.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}
