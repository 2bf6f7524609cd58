package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog row. The wider catalog subsystem (browsing, search,
// images) lives elsewhere; this module only reads pricing, sale state and
// stock from it.
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	Price         float64        `gorm:"not null" json:"price"`
	DiscountPrice *float64       `json:"discount_price,omitempty"`
	IsOnSale      bool           `gorm:"not null;default:false" json:"is_on_sale"`
	Category      string         `gorm:"type:varchar(255)" json:"category,omitempty"`
	Subcategory   string         `gorm:"type:varchar(255)" json:"subcategory,omitempty"`
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`
	Image         string         `gorm:"type:varchar(255)" json:"image,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectivePrice returns the discount price iff the product is marked
// on sale and a discount price is set. Every subtotal in the system
// (cart display, checkout preview, order commit) prices lines through
// this one rule.
func (p *Product) EffectivePrice() float64 {
	if p.IsOnSale && p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
