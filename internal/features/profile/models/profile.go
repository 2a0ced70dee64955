package models

import "time"

// Profile maps a user identity to its ledger addresses. The giveaway wallet
// is the funding source for every payout the user creates; key custody for
// that wallet lives outside this service.
type Profile struct {
	ID                    string    `json:"id"`
	GalaChainAddress      string    `json:"galachain_address"`
	GiveawayWalletAddress string    `json:"giveaway_wallet_address"`
	CreatedAt             time.Time `json:"created_at"`
}

// ProfileCreateRequest registers a profile for the signing identity.
type ProfileCreateRequest struct {
	GiveawayWalletAddress string `json:"giveaway_wallet_address" binding:"required"`
}
