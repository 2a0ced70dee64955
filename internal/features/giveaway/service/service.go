package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "gala-giveaway-backend/internal/common/errors"
	"gala-giveaway-backend/internal/common/logger"
	"gala-giveaway-backend/internal/features/giveaway/models"
	"gala-giveaway-backend/internal/features/giveaway/models/dto"
	"gala-giveaway-backend/internal/features/giveaway/repository"
	profilemodels "gala-giveaway-backend/internal/features/profile/models"
	profilerepo "gala-giveaway-backend/internal/features/profile/repository"
	"gala-giveaway-backend/internal/utils/random"
)

// Config carries the tunables of the giveaway core.
type Config struct {
	// GasFeeToken is the token class consumed as gas, one unit per mint.
	GasFeeToken models.TokenClassKey

	// MinWindow is the minimum gap between start and end of a giveaway.
	MinWindow time.Duration

	// StartSkew is the tolerated clock skew when rejecting past start times.
	StartSkew time.Duration
}

// GiveawayService owns giveaway lifecycle: creation with escrow
// validation, signups, first-come-first-served claims and cancellation.
type GiveawayService struct {
	repo     repository.GiveawayRepository
	profiles profilerepo.ProfileRepository
	ledger   TokenLedger
	rand     random.Source
	cfg      Config
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(repo repository.GiveawayRepository, profiles profilerepo.ProfileRepository, ledger TokenLedger, rand random.Source, cfg Config) *GiveawayService {
	return &GiveawayService{
		repo:     repo,
		profiles: profiles,
		ledger:   ledger,
		rand:     rand,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.With("giveaway-service"),
	}
}

func (s *GiveawayService) profileByAddress(ctx context.Context, address string) (*profilemodels.Profile, error) {
	profile, err := s.profiles.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, profilerepo.ErrProfileNotFound) {
			return nil, apperrors.NewProfileNotFoundError(address)
		}
		return nil, apperrors.NewDatabaseError("get profile", err)
	}
	return profile, nil
}

// CreateGiveaway validates and persists a new giveaway for the profile
// registered under creatorAddress. Escrow and ledger checks run under a
// per-creator lock so two concurrent creations cannot both pass validation
// against the same wallet.
func (s *GiveawayService) CreateGiveaway(ctx context.Context, creatorAddress string, req *dto.GiveawayCreateRequest) (*models.Giveaway, error) {
	profile, err := s.profileByAddress(ctx, creatorAddress)
	if err != nil {
		return nil, err
	}

	now := s.now()
	start := now
	if req.StartDateTime != nil {
		start = *req.StartDateTime
	}

	if !req.WinPerUser.IsPositive() {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "win per user must be positive")
	}
	if start.Before(now.Add(-s.cfg.StartSkew)) {
		return nil, apperrors.NewInvalidTimeWindowError("start date must not be in the past")
	}
	if req.EndDateTime.Sub(start) < s.cfg.MinWindow {
		return nil, apperrors.NewInvalidTimeWindowError("giveaway must run for at least " + s.cfg.MinWindow.String())
	}
	if req.RequireBurnTokenToClaim {
		if req.Type != models.GiveawayTypeFCFS {
			return nil, apperrors.New(apperrors.ErrCodeValidation, "burn gate applies to first come first serve giveaways only")
		}
		if req.BurnToken == nil || !req.BurnTokenQuantity.IsPositive() {
			return nil, apperrors.New(apperrors.ErrCodeValidation, "burn gate requires a burn token and a positive quantity")
		}
	}

	giveaway := &models.Giveaway{
		ID:            uuid.NewString(),
		CreatorID:     profile.ID,
		Name:          req.Name,
		Type:          req.Type,
		Token:         req.Token,
		TokenType:     req.TokenType,
		WinPerUser:    req.WinPerUser,
		MaxWinners:    req.MaxWinners,
		StartDateTime: start,
		EndDateTime:   req.EndDateTime,
		Status:        models.GiveawayStatusCreated,

		RequireBurnTokenToClaim: req.RequireBurnTokenToClaim,
		BurnToken:               req.BurnToken,
		BurnTokenQuantity:       req.BurnTokenQuantity,

		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.WithCreatorLock(ctx, profile.ID, func() error {
		others, err := s.repo.GetByCreatorAndStatus(ctx, profile.ID, models.NonTerminalStatuses)
		if err != nil {
			return apperrors.NewDatabaseError("list creator giveaways", err)
		}
		if err := s.checkFunding(ctx, profile.GiveawayWalletAddress, giveaway, others); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, giveaway); err != nil {
			return apperrors.NewDatabaseError("create giveaway", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("giveaway_id", giveaway.ID).
		Str("creator_id", profile.ID).
		Str("type", string(giveaway.Type)).
		Str("token", giveaway.Token.String()).
		Msg("Giveaway created")
	return giveaway, nil
}

// checkFunding verifies that the giveaway wallet covers the new pool plus
// every reservation already held against it, payout and gas both. When the
// payout token is the gas token and funding comes from balance, the two
// lines are checked as one combined requirement.
func (s *GiveawayService) checkFunding(ctx context.Context, wallet string, g *models.Giveaway, others []*models.Giveaway) error {
	pool := g.Pool()
	reservedPayout := ReservedTokens(g.Token, g.TokenType, others)
	neededPayout := pool.Add(reservedPayout)

	gasNeeded := decimal.NewFromInt(int64(g.MaxWinners)).Add(ReservedGasFees(others))

	sameAsGas := g.Token.Equals(s.cfg.GasFeeToken)

	switch g.TokenType {
	case models.TokenTypeBalance:
		balance, err := s.ledger.FetchBalance(ctx, wallet, g.Token)
		if err != nil {
			return apperrors.NewLedgerError("fetch balance", err)
		}
		if sameAsGas {
			needed := neededPayout.Add(gasNeeded)
			if balance.LessThan(needed) {
				return apperrors.NewInsufficiencyError(apperrors.ErrCodeInsufficientBalance,
					g.Token.String()+" balance (payout and gas)", needed, balance)
			}
			return nil
		}
		if balance.LessThan(neededPayout) {
			return apperrors.NewInsufficiencyError(apperrors.ErrCodeInsufficientBalance,
				g.Token.String()+" balance", neededPayout, balance)
		}
	case models.TokenTypeAllowance:
		allowance, err := s.ledger.FetchAllowance(ctx, wallet, g.Token)
		if err != nil {
			return apperrors.NewLedgerError("fetch allowance", err)
		}
		if allowance.LessThan(neededPayout) {
			return apperrors.NewInsufficiencyError(apperrors.ErrCodeInsufficientAllowance,
				g.Token.String()+" allowance", neededPayout, allowance)
		}
	default:
		return apperrors.Newf(apperrors.ErrCodeValidation, "unknown token type %q", g.TokenType)
	}

	gasBalance, err := s.ledger.FetchBalance(ctx, wallet, s.cfg.GasFeeToken)
	if err != nil {
		return apperrors.NewLedgerError("fetch gas balance", err)
	}
	if gasBalance.LessThan(gasNeeded) {
		return apperrors.NewInsufficiencyError(apperrors.ErrCodeInsufficientGasFee,
			s.cfg.GasFeeToken.String()+" gas", gasNeeded, gasBalance)
	}
	return nil
}

// GetGiveaway returns one giveaway by id.
func (s *GiveawayService) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	giveaway, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			return nil, apperrors.NewGiveawayNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get giveaway", err)
	}
	return giveaway, nil
}

// GetCreatorGiveaways returns every giveaway created by the profile
// registered under creatorAddress, any status.
func (s *GiveawayService) GetCreatorGiveaways(ctx context.Context, creatorAddress string) ([]*models.Giveaway, error) {
	profile, err := s.profileByAddress(ctx, creatorAddress)
	if err != nil {
		return nil, err
	}
	giveaways, err := s.repo.GetByCreatorAndStatus(ctx, profile.ID, nil)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list creator giveaways", err)
	}
	return giveaways, nil
}

// Signup registers an address as a participant of a distributed giveaway.
func (s *GiveawayService) Signup(ctx context.Context, giveawayID, address string) error {
	giveaway, err := s.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return err
	}
	if giveaway.Type != models.GiveawayTypeDistributed {
		return apperrors.New(apperrors.ErrCodeValidation, "signups apply to distributed giveaways only")
	}
	if err := s.checkWindow(giveaway); err != nil {
		return err
	}

	added, err := s.repo.AddSignup(ctx, giveawayID, address)
	if err != nil {
		return apperrors.NewDatabaseError("add signup", err)
	}
	if !added {
		return apperrors.New(apperrors.ErrCodeAlreadySignedUp, "address already signed up").
			WithDetail("giveaway_id", giveawayID).
			WithDetail("address", address)
	}
	return nil
}

func (s *GiveawayService) checkWindow(g *models.Giveaway) error {
	now := s.now()
	if g.Status.IsTerminal() {
		return apperrors.Newf(apperrors.ErrCodeConflict, "giveaway is %s", g.Status)
	}
	if !g.HasStarted(now) {
		return apperrors.New(apperrors.ErrCodeGiveawayNotStarted, "giveaway has not started yet").
			WithDetail("start_date_time", g.StartDateTime)
	}
	if g.HasEnded(now) {
		return apperrors.New(apperrors.ErrCodeGiveawayEnded, "giveaway has ended").
			WithDetail("end_date_time", g.EndDateTime)
	}
	return nil
}

// ClaimFCFS takes a winner slot of a first-come-first-served giveaway for
// the given address. The burn gate, when configured, is verified before a
// slot is consumed, so a rejected claim never burns a slot. The mint is
// attempted immediately; on ledger failure the win stays unpaid and the
// settlement sweep retries it.
func (s *GiveawayService) ClaimFCFS(ctx context.Context, giveawayID, address, burnProof string) (*models.Win, error) {
	giveaway, err := s.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if giveaway.Type != models.GiveawayTypeFCFS {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "claims apply to first come first serve giveaways only")
	}
	if err := s.checkWindow(giveaway); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetWinByGiveawayAndAddress(ctx, giveawayID, address)
	if err != nil && !errors.Is(err, repository.ErrWinNotFound) {
		return nil, apperrors.NewDatabaseError("get win", err)
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.ErrCodeAlreadyClaimed, "address already claimed this giveaway").
			WithDetail("win_id", existing.ID)
	}

	burnVerified := false
	if giveaway.RequireBurnTokenToClaim {
		if burnProof == "" {
			return nil, apperrors.New(apperrors.ErrCodeBurnNotVerified, "burn proof is required for this giveaway")
		}
		verified, err := s.ledger.VerifyBurn(ctx, address, *giveaway.BurnToken, giveaway.BurnTokenQuantity, burnProof)
		if err != nil {
			return nil, apperrors.NewLedgerError("verify burn", err)
		}
		if !verified {
			return nil, apperrors.New(apperrors.ErrCodeBurnNotVerified, "burn could not be verified").
				WithDetail("burn_proof", burnProof)
		}
		burnVerified = true
	}

	claimed, err := s.repo.TakeClaimSlot(ctx, giveawayID, giveaway.MaxWinners)
	if err != nil {
		if errors.Is(err, repository.ErrNoSlotsRemaining) {
			return nil, apperrors.New(apperrors.ErrCodeNoSlotsRemaining, "all winner slots are taken")
		}
		return nil, apperrors.NewDatabaseError("take claim slot", err)
	}

	now := s.now()
	win := &models.Win{
		ID:           uuid.NewString(),
		GiveawayID:   giveawayID,
		GiveawayType: models.GiveawayTypeFCFS,
		Address:      address,
		AmountWon:    giveaway.WinPerUser,
		Claimed:      true,
		BurnVerified: burnVerified,
		BurnProof:    burnProof,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateWin(ctx, win); err != nil {
		return nil, apperrors.NewDatabaseError("create win", err)
	}

	s.log.Info().
		Str("giveaway_id", giveawayID).
		Str("address", address).
		Int("claimed", claimed).
		Int("max_winners", giveaway.MaxWinners).
		Msg("Claim slot taken")

	s.mintWin(ctx, giveaway, win)
	return win, nil
}

// mintWin pays one win out of the creator's giveaway wallet. Failures are
// logged and left for the settlement sweep.
func (s *GiveawayService) mintWin(ctx context.Context, giveaway *models.Giveaway, win *models.Win) {
	creator, err := s.profiles.GetByID(ctx, giveaway.CreatorID)
	if err != nil {
		s.log.Error().Err(err).Str("win_id", win.ID).Msg("Failed to resolve creator wallet for mint")
		return
	}

	mint := []models.MintRequest{{Address: win.Address, Quantity: win.AmountWon}}
	if err := s.ledger.MintBatch(ctx, giveaway.Token, creator.GiveawayWalletAddress, mint); err != nil {
		s.log.Error().Err(err).Str("win_id", win.ID).Msg("Immediate mint failed, deferring to settlement")
		return
	}

	now := s.now()
	win.PaymentSent = &now
	win.UpdatedAt = now
	if err := s.repo.UpdateWin(ctx, win); err != nil {
		s.log.Error().Err(err).Str("win_id", win.ID).Msg("Failed to stamp payment on win")
	}
}

// Cancel closes a giveaway before its end time. Escrow held for the
// cancelled giveaway is released; payouts already minted stay minted.
func (s *GiveawayService) Cancel(ctx context.Context, giveawayID, creatorAddress string) (*models.Giveaway, error) {
	profile, err := s.profileByAddress(ctx, creatorAddress)
	if err != nil {
		return nil, err
	}
	giveaway, err := s.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if giveaway.CreatorID != profile.ID {
		return nil, apperrors.New(apperrors.ErrCodeNotOwner, "only the creator can cancel a giveaway")
	}
	if giveaway.Status.IsTerminal() {
		return nil, apperrors.Newf(apperrors.ErrCodeConflict, "giveaway is already %s", giveaway.Status)
	}
	if giveaway.HasEnded(s.now()) {
		return nil, apperrors.New(apperrors.ErrCodeGiveawayEnded, "giveaway has ended and will be settled")
	}

	giveaway.Status = models.GiveawayStatusCancelled
	giveaway.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, giveaway); err != nil {
		return nil, apperrors.NewDatabaseError("update giveaway", err)
	}

	s.log.Info().Str("giveaway_id", giveawayID).Msg("Giveaway cancelled")
	return giveaway, nil
}

// GetWinners returns the payout lines of a giveaway. Distributed winners
// exist once settlement has materialized them; first-come-first-served
// winners accumulate claim by claim.
func (s *GiveawayService) GetWinners(ctx context.Context, giveawayID string) ([]models.Winner, error) {
	giveaway, err := s.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return nil, err
	}

	if giveaway.Type == models.GiveawayTypeFCFS {
		wins, err := s.repo.GetWinsByGiveaway(ctx, giveawayID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("list wins", err)
		}
		winners := make([]models.Winner, 0, len(wins))
		for _, w := range wins {
			winners = append(winners, models.Winner{Address: w.Address, Amount: w.AmountWon})
		}
		return winners, nil
	}

	if giveaway.Winners == nil {
		return []models.Winner{}, nil
	}
	return giveaway.Winners, nil
}

// EscrowSummary reports the quantities currently reserved against the
// creator's giveaway wallet, keyed by token class. Gas reservations appear
// under the gas token's key.
func (s *GiveawayService) EscrowSummary(ctx context.Context, creatorAddress string) (*dto.EscrowSummaryResponse, error) {
	profile, err := s.profileByAddress(ctx, creatorAddress)
	if err != nil {
		return nil, err
	}
	giveaways, err := s.repo.GetByCreatorAndStatus(ctx, profile.ID, models.NonTerminalStatuses)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list creator giveaways", err)
	}

	reserved := make(map[string]decimal.Decimal)
	add := func(key string, amount decimal.Decimal) {
		if !amount.IsPositive() {
			return
		}
		if prev, ok := reserved[key]; ok {
			reserved[key] = prev.Add(amount)
		} else {
			reserved[key] = amount
		}
	}

	for _, g := range giveaways {
		switch g.Type {
		case models.GiveawayTypeDistributed:
			add(g.Token.String(), g.Pool())
		case models.GiveawayTypeFCFS:
			add(g.Token.String(), g.WinPerUser.Mul(decimal.NewFromInt(int64(g.UnclaimedSlots()))))
		}
	}
	add(s.cfg.GasFeeToken.String(), ReservedGasFees(giveaways))

	return &dto.EscrowSummaryResponse{ReservedPerToken: reserved}, nil
}
