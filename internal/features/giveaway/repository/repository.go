package repository

import (
	"context"
	"errors"
	"time"

	"gala-giveaway-backend/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrWinNotFound      = errors.New("win not found")
	ErrNoSlotsRemaining = errors.New("no claim slots remaining")
	ErrAlreadyLocked    = errors.New("creator is already locked")
)

type GiveawayRepository interface {
	Create(ctx context.Context, giveaway *models.Giveaway) error
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)
	Update(ctx context.Context, giveaway *models.Giveaway) error

	// GetByCreatorAndStatus returns the creator's giveaways filtered to the
	// given statuses; an empty filter returns all of them.
	GetByCreatorAndStatus(ctx context.Context, creatorID string, statuses []models.GiveawayStatus) ([]*models.Giveaway, error)

	// GetUndistributedEnded returns non-terminal giveaways whose end time has
	// passed and whose payout has not completed. Settlement input.
	GetUndistributedEnded(ctx context.Context, now time.Time) ([]*models.Giveaway, error)

	// AddSignup records an address for a distributed giveaway. Returns false
	// when the address was already signed up.
	AddSignup(ctx context.Context, giveawayID, address string) (bool, error)
	GetSignups(ctx context.Context, giveawayID string) ([]string, error)

	// TakeClaimSlot atomically increments the claimed counter unless it has
	// reached maxWinners. The slot check and increment are a single operation
	// so concurrent claimants can never over-allocate the last slot. Returns
	// the claimed count after the increment, or ErrNoSlotsRemaining.
	TakeClaimSlot(ctx context.Context, giveawayID string, maxWinners int) (int, error)
	GetClaimedCount(ctx context.Context, giveawayID string) (int, error)

	CreateWin(ctx context.Context, win *models.Win) error
	UpdateWin(ctx context.Context, win *models.Win) error
	GetWin(ctx context.Context, id string) (*models.Win, error)
	GetWinsByGiveaway(ctx context.Context, giveawayID string) ([]*models.Win, error)
	GetWinsByAddress(ctx context.Context, address string) ([]*models.Win, error)
	GetWinByGiveawayAndAddress(ctx context.Context, giveawayID, address string) (*models.Win, error)

	// WithCreatorLock runs fn while holding an exclusive per-creator lock,
	// serializing escrow validation against concurrent creation.
	WithCreatorLock(ctx context.Context, creatorID string, fn func() error) error
}
