package models

import "time"

type Product struct {
	ID            string     `json:"id" db:"product_id"`
	TraderID      *string    `json:"trader_id,omitempty" db:"trader_id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Price         float64    `json:"price" db:"price"`
	StockQuantity int        `json:"stock_quantity" db:"stock_quantity"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	Rating        float64    `json:"rating" db:"rating"`
	ReviewCount   int        `json:"review_count" db:"review_count"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
