package controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"grocery-backend/controllers"
	"grocery-backend/models"
	"grocery-backend/services"
)

// --- Mock CheckoutService ---

type mockCheckoutService struct {
	quoteFn func(ctx context.Context, accountID uuid.UUID, method models.DeliveryMethod, addressID *uuid.UUID) (*models.ShippingQuote, *services.ServiceError)
}

func (m *mockCheckoutService) GetDetails(_ context.Context, _ uuid.UUID) (*models.CheckoutDetails, *services.ServiceError) {
	return &models.CheckoutDetails{}, nil
}
func (m *mockCheckoutService) SetAddress(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*models.CheckoutDetails, *services.ServiceError) {
	return &models.CheckoutDetails{}, nil
}
func (m *mockCheckoutService) SetShipping(_ context.Context, _ uuid.UUID, _ *models.SetShippingRequest) (*models.CheckoutDetails, *services.ServiceError) {
	return &models.CheckoutDetails{}, nil
}
func (m *mockCheckoutService) ApplyVoucher(_ context.Context, _ uuid.UUID, _ string) (*models.ApplyVoucherResponse, *services.ServiceError) {
	return &models.ApplyVoucherResponse{}, nil
}
func (m *mockCheckoutService) RemoveVoucher(_ context.Context, _ uuid.UUID) *services.ServiceError {
	return nil
}
func (m *mockCheckoutService) QuoteShipping(ctx context.Context, accountID uuid.UUID, method models.DeliveryMethod, addressID *uuid.UUID) (*models.ShippingQuote, *services.ServiceError) {
	return m.quoteFn(ctx, accountID, method, addressID)
}
func (m *mockCheckoutService) Preview(_ context.Context, _ uuid.UUID) (*models.CheckoutPreview, *services.ServiceError) {
	return &models.CheckoutPreview{}, nil
}
func (m *mockCheckoutService) ProcessPayment(_ context.Context, _ uuid.UUID, _ *models.ProcessPaymentRequest) (*services.PaymentResult, *services.ServiceError) {
	return &services.PaymentResult{}, nil
}
func (m *mockCheckoutService) ConfirmPayment(_ context.Context, _ uuid.UUID) (*models.Order, *services.ServiceError) {
	return &models.Order{}, nil
}
func (m *mockCheckoutService) FailPayment(_ context.Context, _ uuid.UUID) (*models.Order, *services.ServiceError) {
	return &models.Order{}, nil
}

func setupCheckoutRouter(accountID uuid.UUID, svc services.CheckoutService) *gin.Engine {
	r := authedRouter(accountID)
	cc := controllers.NewCheckoutController(svc)

	r.GET("/checkout/calculate-shipping", cc.QuoteShipping)
	return r
}

func quoteRecorder(quote *models.ShippingQuote) (*mockCheckoutService, *struct {
	method    models.DeliveryMethod
	addressID *uuid.UUID
}) {
	got := &struct {
		method    models.DeliveryMethod
		addressID *uuid.UUID
	}{}
	svc := &mockCheckoutService{
		quoteFn: func(_ context.Context, _ uuid.UUID, method models.DeliveryMethod, addressID *uuid.UUID) (*models.ShippingQuote, *services.ServiceError) {
			got.method = method
			got.addressID = addressID
			return quote, nil
		},
	}
	return svc, got
}

// --- Tests ---

func TestController_QuoteShipping_DeliveryMethodParam(t *testing.T) {
	svc, got := quoteRecorder(&models.ShippingQuote{DeliveryMethod: models.DeliveryStandard, Fee: 100})
	r := setupCheckoutRouter(uuid.New(), svc)

	req, _ := http.NewRequest(http.MethodGet, "/checkout/calculate-shipping?delivery_method=Standard+Delivery", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DeliveryStandard, got.method)
	assert.Nil(t, got.addressID)
}

func TestController_QuoteShipping_MethodAlias(t *testing.T) {
	svc, got := quoteRecorder(&models.ShippingQuote{DeliveryMethod: models.DeliveryPickup})
	r := setupCheckoutRouter(uuid.New(), svc)

	req, _ := http.NewRequest(http.MethodGet, "/checkout/calculate-shipping?method=Pickup+Delivery", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DeliveryPickup, got.method)
}

func TestController_QuoteShipping_AddressOverride(t *testing.T) {
	svc, got := quoteRecorder(&models.ShippingQuote{DeliveryMethod: models.DeliveryPriority, Fee: 200})
	r := setupCheckoutRouter(uuid.New(), svc)

	addressID := uuid.New()
	req, _ := http.NewRequest(http.MethodGet,
		"/checkout/calculate-shipping?delivery_method=Priority+Delivery&address_id="+addressID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, got.addressID)
	assert.Equal(t, addressID, *got.addressID)
}

func TestController_QuoteShipping_InvalidAddressID(t *testing.T) {
	svc := &mockCheckoutService{}
	r := setupCheckoutRouter(uuid.New(), svc)

	req, _ := http.NewRequest(http.MethodGet,
		"/checkout/calculate-shipping?delivery_method=Standard+Delivery&address_id=not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestController_QuoteShipping_UnknownMethod(t *testing.T) {
	svc := &mockCheckoutService{}
	r := setupCheckoutRouter(uuid.New(), svc)

	req, _ := http.NewRequest(http.MethodGet, "/checkout/calculate-shipping?delivery_method=Drone", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
