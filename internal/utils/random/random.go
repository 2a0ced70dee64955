package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Source yields uniform random indexes. Injected into winner selection so
// tests can supply deterministic sequences.
type Source interface {
	// Intn returns a uniform value in [0, n). n must be > 0.
	Intn(n int) int
}

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

func (cryptoSource) Intn(n int) int {
	j, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return int(j.Int64())
}

// Shuffle performs a cryptographically secure Fisher-Yates shuffle.
func Shuffle[T any](src Source, slice []T) {
	for i := len(slice) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		slice[i], slice[j] = slice[j], slice[i]
	}
}
