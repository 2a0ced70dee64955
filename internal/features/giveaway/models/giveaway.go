package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GiveawayType distinguishes the two payout mechanics.
type GiveawayType string

const (
	// GiveawayTypeDistributed splits a fixed pool among all signups at end time.
	GiveawayTypeDistributed GiveawayType = "DistributedGiveaway"
	// GiveawayTypeFCFS pays a fixed amount per claim, first maxWinners claimants win.
	GiveawayTypeFCFS GiveawayType = "FirstComeFirstServe"
)

// GiveawayTokenType selects which ledger quantity funds the giveaway.
type GiveawayTokenType string

const (
	TokenTypeBalance   GiveawayTokenType = "Balance"
	TokenTypeAllowance GiveawayTokenType = "Allowance"
)

// GiveawayStatus represents the lifecycle state of a giveaway.
type GiveawayStatus string

const (
	GiveawayStatusCreated   GiveawayStatus = "created"
	GiveawayStatusPending   GiveawayStatus = "pending" // settlement in progress
	GiveawayStatusCompleted GiveawayStatus = "completed"
	GiveawayStatusCancelled GiveawayStatus = "cancelled"
	GiveawayStatusErrored   GiveawayStatus = "errored" // settlement failed, retried next tick
)

// NonTerminalStatuses are the states in which a giveaway still holds escrow.
var NonTerminalStatuses = []GiveawayStatus{
	GiveawayStatusCreated,
	GiveawayStatusPending,
	GiveawayStatusErrored,
}

// IsTerminal reports whether the status releases escrow permanently.
func (s GiveawayStatus) IsTerminal() bool {
	return s == GiveawayStatusCompleted || s == GiveawayStatusCancelled
}

// Winner is one payout line produced by settlement or accumulated claims.
type Winner struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// Giveaway is a creator's pledge to distribute tokens from their giveaway wallet.
type Giveaway struct {
	ID        string            `json:"id"`
	CreatorID string            `json:"creator_id"`
	Name      string            `json:"name"`
	Type      GiveawayType      `json:"type"`
	Token     TokenClassKey     `json:"token"`
	TokenType GiveawayTokenType `json:"token_type"`

	WinPerUser decimal.Decimal `json:"win_per_user"`
	MaxWinners int             `json:"max_winners"`

	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`

	// Signups and the claimed counter are owned by the repository; documents
	// carry the last written snapshot and reads overwrite both from the
	// authoritative set and counter.
	UsersSignedUp []string `json:"users_signed_up,omitempty"`
	ClaimedCount  int      `json:"claimed_count"`

	Winners     []Winner       `json:"winners,omitempty"`
	Status      GiveawayStatus `json:"status"`
	Distributed bool           `json:"distributed"`
	Error       string         `json:"error,omitempty"`

	RequireBurnTokenToClaim bool            `json:"require_burn_token_to_claim"`
	BurnToken               *TokenClassKey  `json:"burn_token,omitempty"`
	BurnTokenQuantity       decimal.Decimal `json:"burn_token_quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pool is the full payout obligation of the giveaway.
func (g *Giveaway) Pool() decimal.Decimal {
	return g.WinPerUser.Mul(decimal.NewFromInt(int64(g.MaxWinners)))
}

// UnclaimedSlots is the number of winner slots still carrying escrow.
func (g *Giveaway) UnclaimedSlots() int {
	if g.Type != GiveawayTypeFCFS {
		return g.MaxWinners
	}
	remaining := g.MaxWinners - g.ClaimedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasStarted reports whether the giveaway window has opened.
func (g *Giveaway) HasStarted(now time.Time) bool {
	return !now.Before(g.StartDateTime)
}

// HasEnded reports whether the giveaway window has closed.
func (g *Giveaway) HasEnded(now time.Time) bool {
	return !now.Before(g.EndDateTime)
}

// IsActive reports whether the giveaway currently accepts signups or claims.
func (g *Giveaway) IsActive(now time.Time) bool {
	return !g.Status.IsTerminal() && g.HasStarted(now) && !g.HasEnded(now)
}
