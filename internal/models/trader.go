package models

import "time"

// Statuts d'un compte vendeur, gérés par le back-office admin.
const (
	TraderStatusPending   = "pending"
	TraderStatusApproved  = "approved"
	TraderStatusSuspended = "suspended"
)

type Trader struct {
	ID        string     `json:"id" db:"trader_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	ShopName  string     `json:"shop_name" db:"shop_name"`
	Status    string     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
