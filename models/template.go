package models

import (
	"time"

	"gorm.io/gorm"
)

type Template struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `json:"description"`
	Category      string         `gorm:"index;not null" json:"category"`
	Price         float64        `gorm:"not null" json:"price"`
	ExtendedPrice float64        `json:"extended_price"`
	ImageURL      string         `json:"image_url"`
	GalleryImages []string       `gorm:"serializer:json" json:"gallery_images"`
	Rating        float64        `json:"rating"`
	Sales         int            `gorm:"index" json:"sales"`
	Featured      bool           `gorm:"index" json:"featured"`
	TechStack     []string       `gorm:"serializer:json" json:"tech_stack"`
	Features      []string       `gorm:"serializer:json" json:"features"`
	DemoURL       string         `json:"demo_url"`
	SourceFileURL string         `json:"source_file_url"`
	YoutubeID     string         `json:"youtube_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
