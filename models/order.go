package models

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // remote order created, not yet captured
	OrderStatusProcessing OrderStatus = "processing" // capture in progress
	OrderStatusCompleted  OrderStatus = "completed"  // captured and recorded
	OrderStatusCancelled  OrderStatus = "cancelled"  // cancelled by operator
	OrderStatusRefunded   OrderStatus = "refunded"   // money returned to customer
)

type Order struct {
	ID             string      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string      `gorm:"index;not null" json:"user_id"`
	UserEmail      string      `json:"user_email"`
	Status         OrderStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	TotalAmount    float64     `json:"total_amount"`
	PayPalOrderID  string      `gorm:"index" json:"paypal_order_id"`
	IdempotencyKey string      `gorm:"uniqueIndex" json:"-"`
	Items          []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrderID       string    `gorm:"type:uuid;index;not null" json:"order_id"`
	TemplateID    string    `json:"template_id"`
	TemplateTitle string    `json:"template_title"`
	LicenseType   string    `json:"license_type"`
	Price         float64   `json:"price"`
	CreatedAt     time.Time `json:"created_at"`
}
