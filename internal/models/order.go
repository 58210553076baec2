package models

import "time"

// Statuts de commande (workflow admin).
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Statuts de paiement (vérifiés par un admin, jamais automatiques).
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// ShippingAddress est persistée en JSONB sur la commande.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID              string          `json:"id" db:"order_id"`
	UserID          string          `json:"user_id" db:"user_id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	TotalAmount     float64         `json:"total_amount" db:"total_amount"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	Status          string          `json:"status" db:"status"`
	PaymentStatus   string          `json:"payment_status" db:"payment_status"`
	CustomerEmail   string          `json:"customer_email" db:"customer_email"`
	PaymentVerified bool            `json:"payment_verified" db:"payment_verified"`
	AdminNotes      string          `json:"admin_notes" db:"admin_notes"`
	PaymentProofKey string          `json:"payment_proof_key,omitempty" db:"payment_proof_key"`
	Items           []OrderItem     `json:"items,omitempty"`
	User            *UserSummary    `json:"user,omitempty"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty" db:"updated_at"`
}

// OrderItem fige quantité et prix au moment de l'achat : les modifications
// ultérieures du prix produit ne doivent jamais s'y répercuter.
type OrderItem struct {
	ID           string  `json:"id" db:"order_item_id"`
	OrderID      string  `json:"order_id" db:"order_id"`
	ProductID    string  `json:"product_id" db:"product_id"`
	ProductTitle string  `json:"product_title" db:"product_title"`
	Quantity     int     `json:"quantity" db:"quantity"`
	UnitPrice    float64 `json:"unit_price" db:"unit_price"`
	TotalPrice   float64 `json:"total_price" db:"total_price"`
}
