package models

import "time"

// PaymentReconciliation records a payment that PayPal captured but that
// could not be persisted as an order. The reconcile worker replays these;
// until then the row is the only evidence the customer paid.
type PaymentReconciliation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PayPalOrderID string    `gorm:"index;not null" json:"paypal_order_id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	UserEmail     string    `json:"user_email"`
	Amount        float64   `json:"amount"`
	ItemsPayload  string    `gorm:"type:text" json:"-"`
	Reason        string    `json:"reason"`
	Resolved      bool      `gorm:"index" json:"resolved"`
	OrderID       string    `json:"order_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
