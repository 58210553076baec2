package models

import "time"

type Review struct {
	ID               string    `json:"id" db:"review_id"`
	ProductID        string    `json:"product_id" db:"product_id"`
	UserID           string    `json:"user_id" db:"user_id"`
	UserName         string    `json:"user_name,omitempty"`
	Rating           int       `json:"rating" db:"rating"` // 1-5
	Title            string    `json:"title" db:"title"`
	Comment          string    `json:"comment" db:"comment"`
	VerifiedPurchase bool      `json:"verified_purchase" db:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
