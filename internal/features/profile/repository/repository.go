package repository

import (
	"context"
	"errors"

	"gala-giveaway-backend/internal/features/profile/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already registered for address")
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByAddress(ctx context.Context, galaChainAddress string) (*models.Profile, error)
}
