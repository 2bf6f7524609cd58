package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"grocery-backend/models"
)

// CheckoutRepository stores the staged checkout selections for one account
// in Redis. Only the staging endpoints write here; previews are read-only
// and the commit clears the key after the order is placed.
type CheckoutRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCheckoutRepository(client *redis.Client, ttl time.Duration) *CheckoutRepository {
	return &CheckoutRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CheckoutRepository) getKey(accountID uuid.UUID) string {
	return fmt.Sprintf("checkout:account:%s", accountID)
}

func (r *CheckoutRepository) GetDetails(ctx context.Context, accountID uuid.UUID) (*models.CheckoutDetails, error) {
	data, err := r.client.Get(ctx, r.getKey(accountID)).Result()
	if err == redis.Nil {
		return &models.CheckoutDetails{}, nil
	}
	if err != nil {
		return nil, err
	}

	var details models.CheckoutDetails
	if err := json.Unmarshal([]byte(data), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (r *CheckoutRepository) SaveDetails(ctx context.Context, accountID uuid.UUID, details *models.CheckoutDetails) error {
	details.UpdatedAt = time.Now()

	data, err := json.Marshal(details)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.getKey(accountID), data, r.ttl).Err()
}

func (r *CheckoutRepository) DeleteDetails(ctx context.Context, accountID uuid.UUID) error {
	return r.client.Del(ctx, r.getKey(accountID)).Err()
}
