package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"grocery-backend/pkg/aws"
	"grocery-backend/providers"
	"grocery-backend/services"
)

// Config holds all configuration for the grocery backend.
type Config struct {
	Port      string
	JWTSecret string

	RedisURL    string
	CartTTL     time.Duration
	CheckoutTTL time.Duration

	// Warehouse origin for distance-based shipping fees.
	Warehouse providers.Coordinates
	Rates     services.ShippingRates
	// Optional OSRM endpoint; empty means haversine distance.
	OSRMBaseURL string

	MayaBaseURL    string
	MayaPublicKey  string
	MayaSuccessURL string
	MayaFailureURL string
	MayaCancelURL  string

	OrderSNSTopicARN string

	RateLimitPerMinute int
	RateLimitBurst     int
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:     getDurationEnv("GUEST_CART_TTL", 7*24*time.Hour),
		CheckoutTTL: getDurationEnv("CHECKOUT_TTL", 2*time.Hour),
		Warehouse: providers.Coordinates{
			Latitude:  getFloatEnv("WAREHOUSE_LAT", 14.5995),
			Longitude: getFloatEnv("WAREHOUSE_LON", 120.9842),
		},
		Rates: services.ShippingRates{
			BaseRate:    getFloatEnv("SHIPPING_BASE_RATE", 50),
			PerKMRate:   getFloatEnv("SHIPPING_PER_KM_RATE", 5),
			PriorityFee: getFloatEnv("SHIPPING_PRIORITY_FEE", 100),
		},
		OSRMBaseURL:        os.Getenv("OSRM_BASE_URL"),
		MayaBaseURL:        getEnv("MAYA_BASE_URL", "https://pg-sandbox.paymaya.com"),
		MayaPublicKey:      os.Getenv("MAYA_PUBLIC_KEY"),
		MayaSuccessURL:     os.Getenv("MAYA_SUCCESS_URL"),
		MayaFailureURL:     os.Getenv("MAYA_FAILURE_URL"),
		MayaCancelURL:      os.Getenv("MAYA_CANCEL_URL"),
		OrderSNSTopicARN:   os.Getenv("ORDER_SNS_TOPIC_ARN"),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 300),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 50),
	}

	// Override sensitive values from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws.LoadAWSConfig(context.Background()); err == nil {
			sm := aws.NewSecretsClient(awsCfg)

			if secrets, err := sm.GetSecretMap(context.Background(), "grocery/APP_SECRETS"); err == nil {
				if v := secrets["JWT_SECRET"]; v != "" {
					cfg.JWTSecret = v
				}
				if v := secrets["MAYA_PUBLIC_KEY"]; v != "" {
					cfg.MayaPublicKey = v
				}
				if v := secrets["REDIS_URL"]; v != "" {
					cfg.RedisURL = v
				}
			}
		}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
