package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grocery-backend/models"
)

// GuestCartRepository stores anonymous carts in Redis as JSON blobs with a
// TTL. A missing key reads as a nil cart, not an error.
type GuestCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuestCartRepository(client *redis.Client, ttl time.Duration) *GuestCartRepository {
	return &GuestCartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *GuestCartRepository) getKey(guestToken string) string {
	return fmt.Sprintf("cart:guest:%s", guestToken)
}

func (r *GuestCartRepository) GetCart(ctx context.Context, guestToken string) (*models.GuestCart, error) {
	data, err := r.client.Get(ctx, r.getKey(guestToken)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.GuestCart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GuestCartRepository) SaveCart(ctx context.Context, cart *models.GuestCart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, r.getKey(cart.GuestToken), data, r.ttl).Err()
}

func (r *GuestCartRepository) DeleteCart(ctx context.Context, guestToken string) error {
	return r.client.Del(ctx, r.getKey(guestToken)).Err()
}
