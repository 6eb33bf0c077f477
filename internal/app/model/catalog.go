package model

import "time"

// Category is a brand grouping shown in the homepage carousel.
type Category struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Category     string    `gorm:"not null" json:"category"`
	BgColor      string    `gorm:"type:varchar(50)" json:"bg_color"` // tailwind class used by the carousel
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	IntervalMs   int       `gorm:"default:5000" json:"interval_ms"` // carousel rotation interval
	CreatedAt    time.Time `json:"created_at"`

	Brands []Brand `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"brands,omitempty"`
}

func (Category) TableName() string {
	return "brand_categories"
}

type Brand struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CategoryID   uint      `gorm:"not null;index" json:"category_id"`
	Name         string    `gorm:"not null" json:"name"`
	Image        string    `json:"image"`
	Description  string    `gorm:"type:text" json:"description"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Brand) TableName() string {
	return "brands"
}

type Product struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	Price         float64   `gorm:"not null" json:"price"`
	Image         string    `json:"image"`
	Category      string    `gorm:"type:varchar(100)" json:"category"`
	CategoryID    *uint     `gorm:"index" json:"category_id"` // optional tag to a brand category
	Stock         int       `gorm:"default:0" json:"stock"`
	Featured      bool      `gorm:"default:false" json:"featured"`
	FeaturedLabel string    `json:"featured_label"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}
