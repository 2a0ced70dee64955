package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gala-giveaway-backend/internal/features/profile/models"
	"gala-giveaway-backend/internal/features/profile/repository"
)

const (
	keyPrefixProfile     = "profile:"
	keyPrefixProfileAddr = "profile:addr:"
)

type redisRepository struct {
	client *redis.Client
}

func NewRedisProfileRepository(client *redis.Client) repository.ProfileRepository {
	return &redisRepository{client: client}
}

func makeProfileKey(id string) string {
	return keyPrefixProfile + id
}

func makeAddressKey(address string) string {
	return keyPrefixProfileAddr + address
}

func (r *redisRepository) Create(ctx context.Context, profile *models.Profile) error {
	// The address mapping doubles as the uniqueness guard.
	ok, err := r.client.SetNX(ctx, makeAddressKey(profile.GalaChainAddress), profile.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve address mapping: %w", err)
	}
	if !ok {
		return repository.ErrProfileExists
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := r.client.Set(ctx, makeProfileKey(profile.ID), data, 0).Err(); err != nil {
		r.client.Del(ctx, makeAddressKey(profile.GalaChainAddress))
		return err
	}
	return nil
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	data, err := r.client.Get(ctx, makeProfileKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *redisRepository) GetByAddress(ctx context.Context, galaChainAddress string) (*models.Profile, error) {
	id, err := r.client.Get(ctx, makeAddressKey(galaChainAddress)).Result()
	if err == redis.Nil {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
