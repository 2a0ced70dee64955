package service

import (
	"github.com/shopspring/decimal"

	"gala-giveaway-backend/internal/features/giveaway/models"
)

// Escrow is bookkeeping, not custody: nothing is locked on chain. Every
// non-terminal giveaway reserves the worst-case quantity it may still pay
// out, and creation of a new giveaway is validated against the wallet's
// holdings net of those reservations.

// ReservedTokens sums the outstanding payout obligations among the given
// giveaways for one token class and funding type. Distributed giveaways
// reserve their full pool until they reach a terminal state; first-come
// first-served giveaways release escrow slot by slot as claims land.
func ReservedTokens(token models.TokenClassKey, tokenType models.GiveawayTokenType, giveaways []*models.Giveaway) decimal.Decimal {
	total := decimal.Zero
	for _, g := range giveaways {
		if g.Status.IsTerminal() || !g.Token.Equals(token) || g.TokenType != tokenType {
			continue
		}
		switch g.Type {
		case models.GiveawayTypeDistributed:
			total = total.Add(g.Pool())
		case models.GiveawayTypeFCFS:
			total = total.Add(g.WinPerUser.Mul(decimal.NewFromInt(int64(g.UnclaimedSlots()))))
		}
	}
	return total
}

// ReservedGasFees counts one gas unit per unclaimed winner slot across all
// the given non-terminal giveaways, whatever their payout token. Each
// pending mint costs gas, so gas escrow spans every open giveaway at once.
func ReservedGasFees(giveaways []*models.Giveaway) decimal.Decimal {
	slots := 0
	for _, g := range giveaways {
		if g.Status.IsTerminal() {
			continue
		}
		slots += g.UnclaimedSlots()
	}
	return decimal.NewFromInt(int64(slots))
}
