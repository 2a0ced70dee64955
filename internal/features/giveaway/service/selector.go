package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gala-giveaway-backend/internal/features/giveaway/models"
	"gala-giveaway-backend/internal/utils/random"
)

// DefaultIterationCap bounds the number of random draws a distribution
// makes, so arbitrarily large pools settle in bounded time.
const DefaultIterationCap = 10000

var one = decimal.NewFromInt(1)

// SelectWinners splits pool among addrs by repeated uniform draws. Each
// draw awards a fixed chunk to a random address, so one address can win
// several chunks. The chunk size is chosen so the pool drains within the
// iteration budget: 1 for small pools, floor(pool/iterations) otherwise,
// with the final award truncated to whatever remains. The sum of all
// awards equals pool exactly.
//
// winnerCount, when positive, lowers the draw budget so at most that many
// distinct winners can occur. Winners are returned in first-win order.
func SelectWinners(src random.Source, addrs []string, pool decimal.Decimal, iterationCap, winnerCount int) ([]models.Winner, error) {
	if pool.IsNegative() {
		return nil, fmt.Errorf("pool must not be negative, got %s", pool.String())
	}
	if len(addrs) == 0 {
		if pool.IsPositive() {
			return nil, errors.New("cannot distribute a positive pool with no participants")
		}
		return []models.Winner{}, nil
	}
	if iterationCap <= 0 {
		iterationCap = DefaultIterationCap
	}

	iterations := iterationCap
	if winnerCount > 0 && winnerCount < iterations {
		iterations = winnerCount
	}

	// Div's integer digits are exact for any magnitude, so Floor is safe
	// even for pools far beyond int64.
	minPerIteration := one
	iterDec := decimal.NewFromInt(int64(iterations))
	if pool.GreaterThan(iterDec) {
		minPerIteration = pool.Div(iterDec).Floor()
	}

	amounts := make(map[string]decimal.Decimal, len(addrs))
	order := make([]string, 0, len(addrs))

	remaining := pool
	for remaining.IsPositive() {
		addr := addrs[src.Intn(len(addrs))]
		award := minPerIteration
		if remaining.LessThan(award) {
			award = remaining
		}
		if prev, seen := amounts[addr]; seen {
			amounts[addr] = prev.Add(award)
		} else {
			amounts[addr] = award
			order = append(order, addr)
		}
		remaining = remaining.Sub(award)
	}

	winners := make([]models.Winner, 0, len(order))
	for _, addr := range order {
		winners = append(winners, models.Winner{Address: addr, Amount: amounts[addr]})
	}
	return winners, nil
}
