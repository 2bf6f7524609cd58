package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus tracks money, independently of fulfillment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// ShippingStatus is the order's fulfillment state. The legal edges are in
// the transition tables below; nothing else in the system decides legality.
type ShippingStatus string

const (
	StatusProcessing           ShippingStatus = "PROCESSING"
	StatusPreparingForShipment ShippingStatus = "PREPARING_FOR_SHIPMENT"
	StatusInTransit            ShippingStatus = "IN_TRANSIT"
	StatusDelivered            ShippingStatus = "DELIVERED"
	StatusReadyForPickup       ShippingStatus = "READY_FOR_PICKUP"
	StatusCollected            ShippingStatus = "COLLECTED"
	StatusCancelled            ShippingStatus = "CANCELLED"
	StatusDeliveryFailed       ShippingStatus = "DELIVERY_FAILED"
)

// IsTerminal reports whether no further transition is permitted.
func (s ShippingStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCollected, StatusCancelled, StatusDeliveryFailed:
		return true
	}
	return false
}

// DeliveryMethod fixes the fulfillment branch at order creation.
type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "Standard Delivery"
	DeliveryPriority DeliveryMethod = "Priority Delivery"
	DeliveryPickup   DeliveryMethod = "Pickup Delivery"
)

// IsPickup reports whether the order is collected at a store.
func (m DeliveryMethod) IsPickup() bool {
	return m == DeliveryPickup
}

// Valid reports whether m is a known delivery method.
func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryStandard, DeliveryPriority, DeliveryPickup:
		return true
	}
	return false
}

// Legal forward edges per branch. CANCELLED is reachable from every
// non-terminal state and is appended by CanTransition rather than listed.
var deliveryTransitions = map[ShippingStatus][]ShippingStatus{
	StatusProcessing:           {StatusPreparingForShipment},
	StatusPreparingForShipment: {StatusInTransit},
	StatusInTransit:            {StatusDelivered, StatusDeliveryFailed},
}

var pickupTransitions = map[ShippingStatus][]ShippingStatus{
	StatusProcessing:           {StatusPreparingForShipment},
	StatusPreparingForShipment: {StatusReadyForPickup},
	StatusReadyForPickup:       {StatusCollected},
}

// CanTransition reports whether from → to is a legal edge for the given
// fulfillment branch.
func CanTransition(method DeliveryMethod, from, to ShippingStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}

	table := deliveryTransitions
	if method.IsPickup() {
		table = pickupTransitions
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is placed at checkout commit. Its monetary fields are frozen at
// that moment and never recomputed; later voucher or catalog edits do not
// reach back into placed orders.
type Order struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"account_id"`
	AddressID            *uuid.UUID     `gorm:"type:uuid" json:"address_id,omitempty"`
	StoreID              *uuid.UUID     `gorm:"type:uuid" json:"store_id,omitempty"`
	PaymentStatus        PaymentStatus  `gorm:"type:varchar(20);not null" json:"payment_status"`
	ShippingStatus       ShippingStatus `gorm:"type:varchar(32);not null" json:"shipping_status"`
	DeliveryMethod       DeliveryMethod `gorm:"type:varchar(32);not null" json:"delivery_method"`
	PaymentMethod        string         `gorm:"type:varchar(64);not null" json:"payment_method"`
	PaymentTransactionID string         `gorm:"type:varchar(255)" json:"payment_transaction_id,omitempty"`
	Subtotal             float64        `gorm:"not null" json:"subtotal"`
	ShippingFee          float64        `gorm:"not null" json:"shipping_fee"`
	VoucherCode          string         `gorm:"type:varchar(64)" json:"voucher_code,omitempty"`
	VoucherDiscount      float64        `gorm:"not null;default:0" json:"voucher_discount"`
	TotalPrice           float64        `gorm:"not null" json:"total_price"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
	Items                []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	History              []OrderHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
}

// OrderItem freezes one cart line at commit time. UnitPrice is the
// effective price at purchase, which may differ from the current catalog
// price.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// OrderHistory is the append-only audit trail. One row per lifecycle
// transition, including the initial creation; rows are never edited.
type OrderHistory struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	Status         ShippingStatus `gorm:"type:varchar(32);not null" json:"status"`
	Notes          string         `gorm:"type:varchar(1024);not null" json:"notes"`
	EventTimestamp time.Time      `gorm:"autoCreateTime" json:"event_timestamp"`
}

// UpdateOrderStatusRequest is the admin payload for driving the lifecycle.
type UpdateOrderStatusRequest struct {
	Status ShippingStatus `json:"status" binding:"required"`
	Notes  string         `json:"notes"`
}

// OrderPlacedEvent is published to SNS when an order is committed.
type OrderPlacedEvent struct {
	EventType      string    `json:"event_type"`
	OrderID        string    `json:"order_id"`
	AccountID      string    `json:"account_id"`
	DeliveryMethod string    `json:"delivery_method"`
	PaymentMethod  string    `json:"payment_method"`
	TotalPrice     float64   `json:"total_price"`
	Timestamp      time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent is published to SNS on every lifecycle transition.
type OrderStatusChangedEvent struct {
	EventType string    `json:"event_type"`
	OrderID   string    `json:"order_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
