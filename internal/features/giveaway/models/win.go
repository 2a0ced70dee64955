package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Win records one address's entitlement from one giveaway. Wins are an
// append-only audit trail; they are mutated only to stamp payment and to
// flip the claimed flag on burn confirmation, never deleted.
type Win struct {
	ID           string          `json:"id"`
	GiveawayID   string          `json:"giveaway_id"`
	GiveawayType GiveawayType    `json:"giveaway_type"`
	Address      string          `json:"address"`
	AmountWon    decimal.Decimal `json:"amount_won"`

	// Claimed is true once conditions for payout are met: always for
	// distributed wins, after burn verification for burn-gated claims.
	Claimed      bool   `json:"claimed"`
	BurnVerified bool   `json:"burn_verified,omitempty"`
	BurnProof    string `json:"burn_proof,omitempty"`

	PaymentSent *time.Time `json:"payment_sent,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Paid reports whether the mint for this win has been confirmed.
func (w *Win) Paid() bool {
	return w.PaymentSent != nil
}
