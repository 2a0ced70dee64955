package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gala-giveaway-backend/internal/common/logger"
	"gala-giveaway-backend/internal/features/giveaway/models"
	"gala-giveaway-backend/internal/features/giveaway/repository"
	profilerepo "gala-giveaway-backend/internal/features/profile/repository"
	"gala-giveaway-backend/internal/utils/random"
)

// SettlementService sweeps ended giveaways on a fixed interval: it
// materializes winners, mints unpaid wins and drives each giveaway to a
// terminal status. A failed giveaway is marked errored and retried every
// tick until it settles; winners are materialized exactly once and never
// re-rolled across retries.
type SettlementService struct {
	repo     repository.GiveawayRepository
	profiles profilerepo.ProfileRepository
	ledger   TokenLedger
	rand     random.Source
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	ticker *time.Ticker
	done   chan struct{}
}

func NewSettlementService(repo repository.GiveawayRepository, profiles profilerepo.ProfileRepository, ledger TokenLedger, rand random.Source, interval time.Duration) *SettlementService {
	return &SettlementService{
		repo:     repo,
		profiles: profiles,
		ledger:   ledger,
		rand:     rand,
		interval: interval,
		now:      time.Now,
		log:      logger.With("settlement"),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *SettlementService) Start() {
	s.ticker = time.NewTicker(s.interval)
	s.log.Info().Dur("interval", s.interval).Msg("Settlement service started")

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.interval)
				s.RunTick(ctx)
				cancel()
			}
		}
	}()
}

// Stop terminates the sweep loop. A tick in flight finishes on its own.
func (s *SettlementService) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.done)
	s.log.Info().Msg("Settlement service stopped")
}

// RunTick settles every ended, undistributed giveaway. Failures are
// isolated per giveaway so one bad payout never blocks the rest.
func (s *SettlementService) RunTick(ctx context.Context) {
	giveaways, err := s.repo.GetUndistributedEnded(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list giveaways due for settlement")
		return
	}
	if len(giveaways) == 0 {
		return
	}

	s.log.Info().Int("count", len(giveaways)).Msg("Settling ended giveaways")
	for _, giveaway := range giveaways {
		if err := s.settle(ctx, giveaway); err != nil {
			s.log.Error().Err(err).
				Str("giveaway_id", giveaway.ID).
				Msg("Settlement failed, will retry next tick")
		}
	}
}

// settle drives one giveaway to a terminal state. Whatever happens, the
// giveaway document is persisted on the way out: a failure is recorded as
// status errored with the error text, so no tick loses state.
func (s *SettlementService) settle(ctx context.Context, giveaway *models.Giveaway) (err error) {
	defer func() {
		if err != nil {
			giveaway.Status = models.GiveawayStatusErrored
			giveaway.Error = err.Error()
		} else {
			giveaway.Error = ""
		}
		giveaway.UpdatedAt = s.now()
		if uerr := s.repo.Update(ctx, giveaway); uerr != nil {
			s.log.Error().Err(uerr).
				Str("giveaway_id", giveaway.ID).
				Msg("Failed to persist settlement state")
			if err == nil {
				err = uerr
			}
		}
	}()

	giveaway.Status = models.GiveawayStatusPending

	wins, err := s.repo.GetWinsByGiveaway(ctx, giveaway.ID)
	if err != nil {
		return fmt.Errorf("list wins: %w", err)
	}

	if giveaway.Type == models.GiveawayTypeDistributed && len(wins) == 0 {
		wins, err = s.materializeDistributed(ctx, giveaway)
		if err != nil {
			return err
		}
	}

	if err := s.mintUnpaid(ctx, giveaway, wins); err != nil {
		return err
	}

	giveaway.Distributed = true
	giveaway.Status = models.GiveawayStatusCompleted
	s.log.Info().
		Str("giveaway_id", giveaway.ID).
		Int("winners", len(wins)).
		Msg("Giveaway settled")
	return nil
}

// materializeDistributed rolls winners for a distributed giveaway and
// persists them straight away, both on the giveaway document and as win
// records. This write is the idempotency point: a retry after a later
// failure finds the win records and pays the same winners.
func (s *SettlementService) materializeDistributed(ctx context.Context, giveaway *models.Giveaway) ([]*models.Win, error) {
	signups, err := s.repo.GetSignups(ctx, giveaway.ID)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}

	if len(signups) == 0 {
		giveaway.Winners = []models.Winner{}
		s.log.Info().Str("giveaway_id", giveaway.ID).Msg("No signups, completing with no winners")
		return nil, nil
	}

	winners, err := SelectWinners(s.rand, signups, giveaway.Pool(), DefaultIterationCap, giveaway.MaxWinners)
	if err != nil {
		return nil, fmt.Errorf("select winners: %w", err)
	}

	now := s.now()
	wins := make([]*models.Win, 0, len(winners))
	for _, winner := range winners {
		win := &models.Win{
			ID:           uuid.NewString(),
			GiveawayID:   giveaway.ID,
			GiveawayType: models.GiveawayTypeDistributed,
			Address:      winner.Address,
			AmountWon:    winner.Amount,
			Claimed:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.CreateWin(ctx, win); err != nil {
			return nil, fmt.Errorf("persist win for %s: %w", winner.Address, err)
		}
		wins = append(wins, win)
	}

	giveaway.Winners = winners
	if err := s.repo.Update(ctx, giveaway); err != nil {
		return nil, fmt.Errorf("persist winners: %w", err)
	}
	return wins, nil
}

// mintUnpaid pays every claimed win that has no payment stamp yet, as one
// batch per giveaway.
func (s *SettlementService) mintUnpaid(ctx context.Context, giveaway *models.Giveaway, wins []*models.Win) error {
	var unpaid []*models.Win
	for _, w := range wins {
		if w.Claimed && !w.Paid() {
			unpaid = append(unpaid, w)
		}
	}
	if len(unpaid) == 0 {
		return nil
	}

	creator, err := s.profiles.GetByID(ctx, giveaway.CreatorID)
	if err != nil {
		return fmt.Errorf("resolve creator wallet: %w", err)
	}

	requests := make([]models.MintRequest, 0, len(unpaid))
	for _, w := range unpaid {
		requests = append(requests, models.MintRequest{Address: w.Address, Quantity: w.AmountWon})
	}
	if err := s.ledger.MintBatch(ctx, giveaway.Token, creator.GiveawayWalletAddress, requests); err != nil {
		return fmt.Errorf("mint batch of %d wins: %w", len(unpaid), err)
	}

	now := s.now()
	for _, w := range unpaid {
		w.PaymentSent = &now
		w.UpdatedAt = now
		if err := s.repo.UpdateWin(ctx, w); err != nil {
			return fmt.Errorf("stamp payment on win %s: %w", w.ID, err)
		}
	}
	return nil
}
