package service

import (
	"context"

	"github.com/shopspring/decimal"

	"gala-giveaway-backend/internal/features/giveaway/models"
)

// TokenLedger is the chain-side surface the giveaway core depends on. The
// gateway client implements it; tests substitute stubs. Instances are always
// injected, never reached through package state.
type TokenLedger interface {
	// FetchBalance returns the owner's spendable balance for the token class.
	FetchBalance(ctx context.Context, owner string, token models.TokenClassKey) (decimal.Decimal, error)

	// FetchAllowance returns the unspent mint allowance granted to the address.
	FetchAllowance(ctx context.Context, grantedTo string, token models.TokenClassKey) (decimal.Decimal, error)

	// MintBatch mints each requested quantity from the owner wallet to the
	// request's address. All-or-nothing from the caller's point of view.
	MintBatch(ctx context.Context, token models.TokenClassKey, owner string, requests []models.MintRequest) error

	// VerifyBurn checks that the burn referenced by proof was performed by
	// owner and covers at least the given quantity.
	VerifyBurn(ctx context.Context, owner string, token models.TokenClassKey, quantity decimal.Decimal, proof string) (bool, error)
}
