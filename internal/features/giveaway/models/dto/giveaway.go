package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"gala-giveaway-backend/internal/features/giveaway/models"
)

// GiveawayCreateRequest is the payload for creating a giveaway.
// StartDateTime defaults to now when omitted.
type GiveawayCreateRequest struct {
	Name      string                   `json:"name" binding:"required,min=3,max=100"`
	Type      models.GiveawayType      `json:"type" binding:"required,oneof=DistributedGiveaway FirstComeFirstServe"`
	Token     models.TokenClassKey     `json:"token" binding:"required"`
	TokenType models.GiveawayTokenType `json:"token_type" binding:"required,oneof=Balance Allowance"`

	WinPerUser decimal.Decimal `json:"win_per_user" binding:"required"`
	MaxWinners int             `json:"max_winners" binding:"required,min=1"`

	StartDateTime *time.Time `json:"start_date_time,omitempty"`
	EndDateTime   time.Time  `json:"end_date_time" binding:"required"`

	RequireBurnTokenToClaim bool                  `json:"require_burn_token_to_claim"`
	BurnToken               *models.TokenClassKey `json:"burn_token,omitempty"`
	BurnTokenQuantity       decimal.Decimal       `json:"burn_token_quantity"`
}

// ClaimRequest is the payload for an FCFS claim. BurnProof carries the
// burn transaction reference when the giveaway is burn-gated.
type ClaimRequest struct {
	BurnProof string `json:"burn_proof,omitempty"`
}

// EscrowSummaryResponse reports reserved quantities per token class key.
type EscrowSummaryResponse struct {
	ReservedPerToken map[string]decimal.Decimal `json:"reserved_per_token"`
}
