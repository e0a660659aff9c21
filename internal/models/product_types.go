package models

import (
	"time"

	"github.com/gosimple/slug"
)

// Product is the model for the 'products' table.
// ID and CreatedAt are assigned by the store; UpdatedAt is stamped by the
// admin coordinator at submit time.
type Product struct {
	ID           string    `json:"id" gorm:"primaryKey;type:char(26)"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Category     *Category `json:"category" gorm:"size:32;index"`
	ImageURL     string    `json:"image_url" gorm:"size:2048"`
	AffiliateURL string    `json:"affiliate_url" gorm:"size:2048;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

func (Product) TableName() string { return "products" }

// Slug is the URL-friendly form of the product name.
func (p Product) Slug() string {
	return slug.Make(p.Name)
}

// ProductDraft is the operator-editable part of a Product.
// Category is kept as a plain string so an empty form value means "no category".
type ProductDraft struct {
	Name         string    `json:"name" binding:"required,max=255"`
	Description  string    `json:"description" binding:"max=5000"`
	Category     string    `json:"category" binding:"omitempty,oneof=Tops Bottoms Outerwear Footwear Accessories"`
	ImageURL     string    `json:"image_url" binding:"omitempty,url,max=2048"`
	AffiliateURL string    `json:"affiliate_url" binding:"required,url,max=2048"`
	UpdatedAt    time.Time `json:"-"`
}

// CategoryRef returns the draft's category, or nil when none was chosen.
func (d ProductDraft) CategoryRef() *Category {
	if d.Category == "" {
		return nil
	}
	c := Category(d.Category)
	return &c
}

// Apply copies the draft's fields onto p, leaving ID and CreatedAt alone.
func (d ProductDraft) Apply(p *Product) {
	p.Name = d.Name
	p.Description = d.Description
	p.Category = d.CategoryRef()
	p.ImageURL = d.ImageURL
	p.AffiliateURL = d.AffiliateURL
	p.UpdatedAt = d.UpdatedAt
}
