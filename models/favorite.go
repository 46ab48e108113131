package models

import "time"

type Favorite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"uniqueIndex:idx_user_template;not null" json:"user_id"`
	TemplateID string    `gorm:"uniqueIndex:idx_user_template;not null" json:"template_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AllAccessPass is a single flat-fee grant substituting for per-template
// licenses. One per user.
type AllAccessPass struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"uniqueIndex;not null" json:"user_id"`
	Price       float64   `json:"price"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_user_role;not null" json:"user_id"`
	Role      string    `gorm:"uniqueIndex:idx_user_role;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
