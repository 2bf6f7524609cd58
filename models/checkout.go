package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment method strings accepted at checkout.
const (
	PaymentMethodCOD  = "Cash on delivery (COD)"
	PaymentMethodMaya = "Maya"
	PaymentMethodCard = "Credit/Debit Card"
)

// CheckoutDetails is the staged checkout state for one account, held in
// Redis between steps. Step sequencing belongs to the client; the backend
// only keeps the selections and reads them at commit.
type CheckoutDetails struct {
	AddressID      *uuid.UUID     `json:"address_id,omitempty"`
	StoreID        *uuid.UUID     `json:"store_id,omitempty"`
	DeliveryMethod DeliveryMethod `json:"delivery_method,omitempty"`
	ShippingFee    float64        `json:"shipping_fee"`
	VoucherCode    string         `json:"voucher_code,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SetAddressRequest stages the delivery address.
type SetAddressRequest struct {
	AddressID uuid.UUID `json:"address_id" binding:"required"`
}

// SetShippingRequest stages the delivery method; StoreID is required for
// pickup and ignored otherwise.
type SetShippingRequest struct {
	DeliveryMethod DeliveryMethod `json:"delivery_method" binding:"required"`
	StoreID        *uuid.UUID     `json:"store_id,omitempty"`
}

// ProcessPaymentRequest commits the order.
type ProcessPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// ShippingQuote is an itemized shipping fee. The breakdown is informational
// only; the order persists nothing but the single fee.
type ShippingQuote struct {
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Fee            float64        `json:"fee"`
	DistanceKM     float64        `json:"distance_km"`
	BaseRate       float64        `json:"base_rate"`
	PerKMRate      float64        `json:"per_km_rate"`
	PriorityFee    float64        `json:"priority_fee"`
}

// CheckoutPreview assembles everything the client renders on the review
// step. The same numbers are frozen into the order at commit.
type CheckoutPreview struct {
	Lines           []CartLine     `json:"lines"`
	Subtotal        float64        `json:"subtotal"`
	VoucherCode     string         `json:"voucher_code,omitempty"`
	VoucherDiscount float64        `json:"voucher_discount"`
	ShippingFee     float64        `json:"shipping_fee"`
	Quote           *ShippingQuote `json:"shipping_quote,omitempty"`
	Total           float64        `json:"total"`
}
