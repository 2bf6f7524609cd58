package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one authenticated cart line. (account_id, product_id) is
// unique, so adding an existing product merges quantities.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_account_product" json:"account_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_account_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GuestCart is an anonymous cart held in Redis, keyed by the client's guest
// token. It never touches Postgres; on sign-in its lines are replayed into
// the account cart and the key is deleted.
type GuestCart struct {
	GuestToken string            `json:"guest_token"`
	Items      map[uuid.UUID]int `json:"items"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CartIdentity names a cart owner: an authenticated account or an anonymous
// guest token. Exactly one side is set.
type CartIdentity struct {
	AccountID  uuid.UUID
	GuestToken string
}

// AccountIdentity builds an identity for an authenticated account.
func AccountIdentity(accountID uuid.UUID) CartIdentity {
	return CartIdentity{AccountID: accountID}
}

// GuestIdentity builds an identity for an anonymous guest token.
func GuestIdentity(token string) CartIdentity {
	return CartIdentity{GuestToken: token}
}

// IsGuest reports whether the identity is an anonymous guest.
func (id CartIdentity) IsGuest() bool {
	return id.GuestToken != ""
}

// CartLine is a priced cart line returned to callers. UnitPrice is the
// effective (sale-aware) price at read time.
type CartLine struct {
	Product   *Product `json:"product"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	LineTotal float64  `json:"line_total"`
}

// CartView is the cart plus its subtotal.
type CartView struct {
	Lines    []CartLine `json:"lines"`
	Subtotal float64    `json:"subtotal"`
}

// AddCartItemRequest is the payload for adding a line to the cart.
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest is the payload for setting a line's quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// MergeCartRequest is the payload for merging a guest cart into the
// authenticated cart after sign-in.
type MergeCartRequest struct {
	GuestToken string `json:"guest_token" binding:"required"`
}
