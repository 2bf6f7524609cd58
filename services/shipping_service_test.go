package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"grocery-backend/models"
	"grocery-backend/providers"
	"grocery-backend/services"
)

// fixedDistance always reports the same distance.
type fixedDistance struct {
	km    float64
	err   error
	calls int
}

func (f *fixedDistance) DistanceKM(_ context.Context, _, _ providers.Coordinates) (float64, error) {
	f.calls++
	return f.km, f.err
}

var testRates = services.ShippingRates{BaseRate: 50, PerKMRate: 5, PriorityFee: 100}

func newTestShippingService(distance providers.DistanceProvider) services.ShippingService {
	warehouse := providers.Coordinates{Latitude: 14.5995, Longitude: 120.9842}
	return services.NewShippingService(distance, warehouse, testRates, testLogger())
}

func TestQuoteStandardDelivery(t *testing.T) {
	svc := newTestShippingService(&fixedDistance{km: 10})
	address := addressFixture(uuid.Nil, 14.55, 121.0)

	quote, svcErr := svc.Quote(context.Background(), models.DeliveryStandard, address)
	assert.Nil(t, svcErr)
	assert.Equal(t, 100.0, quote.Fee) // 50 + 10*5
	assert.Equal(t, 10.0, quote.DistanceKM)
	assert.Zero(t, quote.PriorityFee)
}

func TestQuotePriorityDeliveryAddsFlatFee(t *testing.T) {
	svc := newTestShippingService(&fixedDistance{km: 5})
	address := addressFixture(uuid.Nil, 14.55, 121.0)

	quote, svcErr := svc.Quote(context.Background(), models.DeliveryPriority, address)
	assert.Nil(t, svcErr)
	assert.Equal(t, 175.0, quote.Fee) // 50 + 5*5 + 100
	assert.Equal(t, 100.0, quote.PriorityFee)
}

func TestQuotePickupIsFreeAndSkipsDistanceLookup(t *testing.T) {
	distance := &fixedDistance{km: 10}
	svc := newTestShippingService(distance)

	quote, svcErr := svc.Quote(context.Background(), models.DeliveryPickup, nil)
	assert.Nil(t, svcErr)
	assert.Zero(t, quote.Fee)
	assert.Zero(t, distance.calls)
}

func TestQuoteRequiresCoordinates(t *testing.T) {
	svc := newTestShippingService(&fixedDistance{km: 10})
	address := &models.Address{} // no pinned location

	_, svcErr := svc.Quote(context.Background(), models.DeliveryStandard, address)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, services.CodeMissingCoordinates, svcErr.Code)
}

func TestQuoteRejectsUnknownMethod(t *testing.T) {
	svc := newTestShippingService(&fixedDistance{km: 10})

	_, svcErr := svc.Quote(context.Background(), models.DeliveryMethod("Drone Delivery"), nil)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestQuoteDistanceProviderFailureIsRetryable(t *testing.T) {
	svc := newTestShippingService(&fixedDistance{err: errors.New("routing engine down")})
	address := addressFixture(uuid.Nil, 14.55, 121.0)

	_, svcErr := svc.Quote(context.Background(), models.DeliveryStandard, address)
	assert.NotNil(t, svcErr)
	assert.Equal(t, 502, svcErr.StatusCode)
}

func TestQuoteDeterministicForSameInputs(t *testing.T) {
	svc := newTestShippingService(&fixedDistance{km: 7.3})
	address := addressFixture(uuid.Nil, 14.55, 121.0)

	first, svcErr := svc.Quote(context.Background(), models.DeliveryStandard, address)
	assert.Nil(t, svcErr)
	second, svcErr := svc.Quote(context.Background(), models.DeliveryStandard, address)
	assert.Nil(t, svcErr)
	assert.Equal(t, first.Fee, second.Fee)
}
