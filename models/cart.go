package models

import "time"

// CartRecord holds one serialized cart snapshot per user, mirroring the
// single-key snapshot the storefront keeps in browser local storage.
type CartRecord struct {
	UserID    string `gorm:"primaryKey"`
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}
