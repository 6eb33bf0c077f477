package model

import "time"

type BlogCategory struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `gorm:"not null" json:"name"`
	Slug         string `gorm:"uniqueIndex" json:"slug"`
	DisplayOrder int    `gorm:"default:0" json:"display_order"`

	Posts []BlogPost `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"posts,omitempty"`
}

func (BlogCategory) TableName() string {
	return "blog_categories"
}

type BlogPost struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Title      string    `gorm:"not null" json:"title"`
	Slug       string    `gorm:"uniqueIndex" json:"slug"`
	Content    string    `gorm:"type:text" json:"content"`
	Excerpt    string    `gorm:"type:text" json:"excerpt"`
	Published  bool      `gorm:"default:false;index" json:"published"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}
