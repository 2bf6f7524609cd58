package payment

import (
	"context"

	"grocery-backend/models"
)

// CheckoutSession is what a gateway returns for a pending order: where to
// send the customer and the gateway-side transaction id.
type CheckoutSession struct {
	CheckoutID  string
	RedirectURL string
}

// Gateway is the payment-provider boundary. The order is only confirmed
// after the gateway calls back; a gateway error at session creation leaves
// nothing but a cancellable PENDING order.
type Gateway interface {
	CreateCheckout(ctx context.Context, order *models.Order) (*CheckoutSession, error)
}
