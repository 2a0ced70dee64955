package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gala-giveaway-backend/internal/features/giveaway/models"
)

var (
	galaToken = models.TokenClassKey{Collection: "GALA", Category: "Unit", Type: "none", AdditionalKey: "none"}
	townToken = models.TokenClassKey{Collection: "TOWN", Category: "Unit", Type: "none", AdditionalKey: "none"}
)

func makeGiveaway(typ models.GiveawayType, token models.TokenClassKey, tokenType models.GiveawayTokenType, winPerUser int64, maxWinners, claimed int, status models.GiveawayStatus) *models.Giveaway {
	return &models.Giveaway{
		ID:           "g-" + string(typ) + token.Collection,
		Type:         typ,
		Token:        token,
		TokenType:    tokenType,
		WinPerUser:   decimal.NewFromInt(winPerUser),
		MaxWinners:   maxWinners,
		ClaimedCount: claimed,
		Status:       status,
	}
}

func TestReservedTokensDistributedHoldsFullPool(t *testing.T) {
	giveaways := []*models.Giveaway{
		makeGiveaway(models.GiveawayTypeDistributed, galaToken, models.TokenTypeBalance, 10, 5, 0, models.GiveawayStatusCreated),
	}

	reserved := ReservedTokens(galaToken, models.TokenTypeBalance, giveaways)
	assert.True(t, reserved.Equal(decimal.NewFromInt(50)))
}

func TestReservedTokensFCFSReleasesPerClaim(t *testing.T) {
	g := makeGiveaway(models.GiveawayTypeFCFS, galaToken, models.TokenTypeBalance, 10, 5, 0, models.GiveawayStatusCreated)
	giveaways := []*models.Giveaway{g}

	// Reservation shrinks monotonically as claims land.
	previous := ReservedTokens(galaToken, models.TokenTypeBalance, giveaways)
	for claimed := 1; claimed <= 5; claimed++ {
		g.ClaimedCount = claimed
		current := ReservedTokens(galaToken, models.TokenTypeBalance, giveaways)
		assert.True(t, current.LessThan(previous), "claim %d must shrink the reservation", claimed)
		previous = current
	}
	assert.True(t, previous.IsZero())

	// Over-count clamps at zero rather than going negative.
	g.ClaimedCount = 7
	assert.True(t, ReservedTokens(galaToken, models.TokenTypeBalance, giveaways).IsZero())
}

func TestReservedTokensFiltersTokenAndType(t *testing.T) {
	giveaways := []*models.Giveaway{
		makeGiveaway(models.GiveawayTypeDistributed, galaToken, models.TokenTypeBalance, 10, 2, 0, models.GiveawayStatusCreated),
		makeGiveaway(models.GiveawayTypeDistributed, galaToken, models.TokenTypeAllowance, 10, 3, 0, models.GiveawayStatusCreated),
		makeGiveaway(models.GiveawayTypeDistributed, townToken, models.TokenTypeBalance, 10, 4, 0, models.GiveawayStatusCreated),
	}

	assert.True(t, ReservedTokens(galaToken, models.TokenTypeBalance, giveaways).Equal(decimal.NewFromInt(20)))
	assert.True(t, ReservedTokens(galaToken, models.TokenTypeAllowance, giveaways).Equal(decimal.NewFromInt(30)))
	assert.True(t, ReservedTokens(townToken, models.TokenTypeBalance, giveaways).Equal(decimal.NewFromInt(40)))
}

func TestReservedTokensExcludesTerminal(t *testing.T) {
	giveaways := []*models.Giveaway{
		makeGiveaway(models.GiveawayTypeDistributed, galaToken, models.TokenTypeBalance, 10, 5, 0, models.GiveawayStatusCompleted),
		makeGiveaway(models.GiveawayTypeDistributed, galaToken, models.TokenTypeBalance, 10, 5, 0, models.GiveawayStatusCancelled),
		makeGiveaway(models.GiveawayTypeDistributed, galaToken, models.TokenTypeBalance, 10, 2, 0, models.GiveawayStatusErrored),
	}

	// Errored giveaways still hold escrow; completed and cancelled do not.
	assert.True(t, ReservedTokens(galaToken, models.TokenTypeBalance, giveaways).Equal(decimal.NewFromInt(20)))
}

func TestReservedGasFeesSpansAllTokens(t *testing.T) {
	giveaways := []*models.Giveaway{
		makeGiveaway(models.GiveawayTypeDistributed, galaToken, models.TokenTypeBalance, 10, 5, 0, models.GiveawayStatusCreated),
		makeGiveaway(models.GiveawayTypeFCFS, townToken, models.TokenTypeAllowance, 10, 4, 1, models.GiveawayStatusCreated),
		makeGiveaway(models.GiveawayTypeDistributed, townToken, models.TokenTypeBalance, 10, 9, 0, models.GiveawayStatusCompleted),
	}

	// 5 distributed slots + 3 unclaimed FCFS slots; the completed one is free.
	assert.True(t, ReservedGasFees(giveaways).Equal(decimal.NewFromInt(8)))
}
