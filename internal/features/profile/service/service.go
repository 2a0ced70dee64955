package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "gala-giveaway-backend/internal/common/errors"
	"gala-giveaway-backend/internal/common/logger"
	"gala-giveaway-backend/internal/features/profile/models"
	"gala-giveaway-backend/internal/features/profile/repository"
)

// ProfileService registers and resolves profiles for signing identities.
type ProfileService struct {
	repo repository.ProfileRepository
	log  zerolog.Logger
}

func NewService(repo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		repo: repo,
		log:  logger.With("profile-service"),
	}
}

// Register creates a profile binding the signing address to a giveaway
// wallet. One profile per address.
func (s *ProfileService) Register(ctx context.Context, galaChainAddress string, req *models.ProfileCreateRequest) (*models.Profile, error) {
	profile := &models.Profile{
		ID:                    uuid.NewString(),
		GalaChainAddress:      galaChainAddress,
		GiveawayWalletAddress: req.GiveawayWalletAddress,
		CreatedAt:             time.Now(),
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return nil, apperrors.New(apperrors.ErrCodeProfileExists, "a profile is already registered for this address").
				WithDetail("address", galaChainAddress)
		}
		return nil, apperrors.NewDatabaseError("create profile", err)
	}

	s.log.Info().
		Str("profile_id", profile.ID).
		Str("address", galaChainAddress).
		Msg("Profile registered")
	return profile, nil
}

// GetByAddress resolves the profile registered under the signing address.
func (s *ProfileService) GetByAddress(ctx context.Context, galaChainAddress string) (*models.Profile, error) {
	profile, err := s.repo.GetByAddress(ctx, galaChainAddress)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, apperrors.NewProfileNotFoundError(galaChainAddress)
		}
		return nil, apperrors.NewDatabaseError("get profile", err)
	}
	return profile, nil
}
