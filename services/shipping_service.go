package services

import (
	"context"
	"math"

	"go.uber.org/zap"

	"grocery-backend/models"
	"grocery-backend/providers"
)

// ShippingRates are the pricing knobs for distance-based delivery.
type ShippingRates struct {
	BaseRate    float64
	PerKMRate   float64
	PriorityFee float64
}

// ShippingService quotes a deterministic fee for a destination and
// delivery method. Pickup is always free and skips the distance lookup
// entirely; Standard/Priority require pinned coordinates.
type ShippingService interface {
	Quote(ctx context.Context, method models.DeliveryMethod, address *models.Address) (*models.ShippingQuote, *ServiceError)
}

type shippingServiceImpl struct {
	distance  providers.DistanceProvider
	warehouse providers.Coordinates
	rates     ShippingRates
	logger    *zap.Logger
}

// NewShippingService creates a new ShippingService anchored at the
// warehouse origin.
func NewShippingService(
	distance providers.DistanceProvider,
	warehouse providers.Coordinates,
	rates ShippingRates,
	logger *zap.Logger,
) ShippingService {
	return &shippingServiceImpl{
		distance:  distance,
		warehouse: warehouse,
		rates:     rates,
		logger:    logger,
	}
}

func (s *shippingServiceImpl) Quote(ctx context.Context, method models.DeliveryMethod, address *models.Address) (*models.ShippingQuote, *ServiceError) {
	if !method.Valid() {
		return nil, &ServiceError{StatusCode: 400, Message: "Unknown delivery method: " + string(method)}
	}

	if method.IsPickup() {
		return &models.ShippingQuote{DeliveryMethod: method}, nil
	}

	if address == nil || !address.HasCoordinates() {
		return nil, &ServiceError{
			StatusCode: 400,
			Code:       CodeMissingCoordinates,
			Message:    "Address has no pinned location; latitude and longitude are required for delivery",
		}
	}

	distanceKM, err := s.distance.DistanceKM(ctx, s.warehouse, providers.Coordinates{
		Latitude:  *address.Latitude,
		Longitude: *address.Longitude,
	})
	if err != nil {
		s.logger.Error("Distance lookup failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 502, Message: "Distance lookup failed, please retry"}
	}

	quote := &models.ShippingQuote{
		DeliveryMethod: method,
		DistanceKM:     round2(distanceKM),
		BaseRate:       s.rates.BaseRate,
		PerKMRate:      s.rates.PerKMRate,
	}

	fee := s.rates.BaseRate + distanceKM*s.rates.PerKMRate
	if method == models.DeliveryPriority {
		quote.PriorityFee = s.rates.PriorityFee
		fee += s.rates.PriorityFee
	}
	quote.Fee = round2(fee)

	return quote, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
