package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"grocery-backend/models"
	"grocery-backend/services"
)

type pricingFixture struct {
	svc       services.PricingService
	cart      services.CartService
	accountID uuid.UUID
	product   *models.Product
	address   *models.Address
	vouchers  *mockVoucherRepo
	distance  *fixedDistance
}

func newPricingFixture(t *testing.T, vouchers ...*models.Voucher) *pricingFixture {
	t.Helper()
	accountID := uuid.New()
	product := productFixture(100, 50)
	products := newMockProductRepo(product)
	cartSvc, _, _ := newTestCartService(products)

	address := addressFixture(accountID, 14.55, 121.0)
	distance := &fixedDistance{km: 10}
	shippingSvc := newTestShippingService(distance)
	voucherRepo := newMockVoucherRepo(vouchers...)
	voucherSvc := services.NewVoucherService(voucherRepo, testLogger())

	svc := services.NewPricingService(cartSvc, voucherSvc, shippingSvc, newMockAddressRepo(address), testLogger())
	return &pricingFixture{
		svc:       svc,
		cart:      cartSvc,
		accountID: accountID,
		product:   product,
		address:   address,
		vouchers:  voucherRepo,
		distance:  distance,
	}
}

func TestPreviewSubtotalOnly(t *testing.T) {
	f := newPricingFixture(t)
	assert.Nil(t, f.cart.AddItem(context.Background(), models.AccountIdentity(f.accountID), f.product.ID, 3))

	preview, svcErr := f.svc.Preview(context.Background(), f.accountID, &models.CheckoutDetails{})
	assert.Nil(t, svcErr)
	assert.Equal(t, 300.0, preview.Subtotal)
	assert.Zero(t, preview.ShippingFee)
	assert.Zero(t, preview.VoucherDiscount)
	assert.Equal(t, 300.0, preview.Total)
}

func TestPreviewComposesAllParts(t *testing.T) {
	voucher := voucherFixture("SAVE10", models.VoucherTypePercentage, 10)
	f := newPricingFixture(t, voucher)
	assert.Nil(t, f.cart.AddItem(context.Background(), models.AccountIdentity(f.accountID), f.product.ID, 2))

	details := &models.CheckoutDetails{
		AddressID:      &f.address.ID,
		DeliveryMethod: models.DeliveryStandard,
		VoucherCode:    "SAVE10",
	}
	preview, svcErr := f.svc.Preview(context.Background(), f.accountID, details)
	assert.Nil(t, svcErr)
	assert.Equal(t, 200.0, preview.Subtotal)
	assert.Equal(t, 20.0, preview.VoucherDiscount)
	assert.Equal(t, 100.0, preview.ShippingFee) // 50 + 10*5
	assert.Equal(t, 280.0, preview.Total)       // 200 - 20 + 100
}

func TestPreviewTotalFlooredAtZero(t *testing.T) {
	voucher := voucherFixture("HUGE", models.VoucherTypeFixedAmount, 1000)
	f := newPricingFixture(t, voucher)
	assert.Nil(t, f.cart.AddItem(context.Background(), models.AccountIdentity(f.accountID), f.product.ID, 1))

	// Fixed discount clamps to subtotal, so the floor only matters with a
	// zero shipping fee; assert the invariant anyway.
	details := &models.CheckoutDetails{
		DeliveryMethod: models.DeliveryPickup,
		VoucherCode:    "HUGE",
	}
	preview, svcErr := f.svc.Preview(context.Background(), f.accountID, details)
	assert.Nil(t, svcErr)
	assert.Equal(t, 100.0, preview.VoucherDiscount)
	assert.GreaterOrEqual(t, preview.Total, 0.0)
	assert.Equal(t, 0.0, preview.Total)
}

func TestPreviewPickupHasNoFee(t *testing.T) {
	f := newPricingFixture(t)
	assert.Nil(t, f.cart.AddItem(context.Background(), models.AccountIdentity(f.accountID), f.product.ID, 1))

	preview, svcErr := f.svc.Preview(context.Background(), f.accountID, &models.CheckoutDetails{
		DeliveryMethod: models.DeliveryPickup,
	})
	assert.Nil(t, svcErr)
	assert.Zero(t, preview.ShippingFee)
	assert.Zero(t, f.distance.calls)
}

func TestPreviewSurfacesStaleVoucher(t *testing.T) {
	voucher := voucherFixture("GONE", models.VoucherTypePercentage, 10)
	f := newPricingFixture(t, voucher)
	assert.Nil(t, f.cart.AddItem(context.Background(), models.AccountIdentity(f.accountID), f.product.ID, 1))

	// Voucher deactivated after it was staged.
	voucher.IsActive = false

	_, svcErr := f.svc.Preview(context.Background(), f.accountID, &models.CheckoutDetails{VoucherCode: "GONE"})
	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeVoucherInactive, svcErr.Code)
}

func TestPreviewHasNoSideEffects(t *testing.T) {
	voucher := voucherFixture("SAVE10", models.VoucherTypePercentage, 10)
	f := newPricingFixture(t, voucher)
	assert.Nil(t, f.cart.AddItem(context.Background(), models.AccountIdentity(f.accountID), f.product.ID, 1))

	details := &models.CheckoutDetails{VoucherCode: "SAVE10"}
	for i := 0; i < 3; i++ {
		_, svcErr := f.svc.Preview(context.Background(), f.accountID, details)
		assert.Nil(t, svcErr)
	}

	// Repeated previews consume nothing.
	assert.Zero(t, voucher.UsedCount)
	assert.Equal(t, 50, f.product.StockQuantity)
}
