package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoucherType represents the type of discount a voucher provides.
type VoucherType string

const (
	VoucherTypePercentage  VoucherType = "percentage"
	VoucherTypeFixedAmount VoucherType = "fixed_amount"
)

// Voucher is a promotional discount code. Codes are stored uppercase and
// looked up case-insensitively. UsageLimit 0 means unlimited.
type Voucher struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code              string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Type              VoucherType    `gorm:"type:varchar(20);not null" json:"type"`
	Value             float64        `gorm:"not null" json:"value"`
	MinPurchaseAmount float64        `gorm:"not null;default:0" json:"min_purchase_amount"`
	MaxDiscountAmount *float64       `json:"max_discount_amount,omitempty"` // percentage type only
	ValidFrom         time.Time      `gorm:"not null" json:"valid_from"`
	ValidUntil        time.Time      `gorm:"not null" json:"valid_until"`
	UsageLimit        int            `gorm:"not null;default:0" json:"usage_limit"`
	UsedCount         int            `gorm:"not null;default:0" json:"used_count"`
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// VoucherUsage records one redemption. The composite unique index is the
// authority for "at most one redemption per account per voucher"; the
// application never relies on a read-then-insert check.
type VoucherUsage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VoucherID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_voucher_account" json:"voucher_id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_voucher_account" json:"account_id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null" json:"order_id"`
	UsedAt    time.Time `gorm:"autoCreateTime" json:"used_at"`
}

// CreateVoucherRequest is the admin payload for creating a voucher.
type CreateVoucherRequest struct {
	Code              string      `json:"code" binding:"required,min=3,max=64"`
	Type              VoucherType `json:"type" binding:"required,oneof=percentage fixed_amount"`
	Value             float64     `json:"value" binding:"required,gt=0"`
	MinPurchaseAmount float64     `json:"min_purchase_amount" binding:"gte=0"`
	MaxDiscountAmount *float64    `json:"max_discount_amount,omitempty" binding:"omitempty,gt=0"`
	ValidFrom         time.Time   `json:"valid_from"`
	ValidUntil        time.Time   `json:"valid_until" binding:"required"`
	UsageLimit        int         `json:"usage_limit" binding:"gte=0"`
}

// ApplyVoucherRequest is the payload for staging a voucher on the current
// checkout session.
type ApplyVoucherRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyVoucherResponse reports the discount a staged voucher yields against
// the current cart. Nothing is consumed until the order is placed.
type ApplyVoucherResponse struct {
	Code           string      `json:"code"`
	Type           VoucherType `json:"type"`
	DiscountAmount float64     `json:"discount_amount"`
	CartSubtotal   float64     `json:"cart_subtotal"`
}
