package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenClassKey identifies an asset class on GalaChain.
type TokenClassKey struct {
	Collection    string `json:"collection" binding:"required"`
	Category      string `json:"category" binding:"required"`
	Type          string `json:"type" binding:"required"`
	AdditionalKey string `json:"additionalKey" binding:"required"`
}

// String renders the class key in pipe-joined form, e.g. "GALA|Unit|none|none".
func (k TokenClassKey) String() string {
	return strings.Join([]string{k.Collection, k.Category, k.Type, k.AdditionalKey}, "|")
}

// Equals reports whether two class keys identify the same asset.
func (k TokenClassKey) Equals(other TokenClassKey) bool {
	return k.Collection == other.Collection &&
		k.Category == other.Category &&
		k.Type == other.Type &&
		k.AdditionalKey == other.AdditionalKey
}

// ParseTokenClassKey parses a pipe-joined class key.
func ParseTokenClassKey(s string) (TokenClassKey, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 4 {
		return TokenClassKey{}, fmt.Errorf("invalid token class key %q: want Collection|Category|Type|AdditionalKey", s)
	}
	for _, p := range parts {
		if p == "" {
			return TokenClassKey{}, fmt.Errorf("invalid token class key %q: empty segment", s)
		}
	}
	return TokenClassKey{
		Collection:    parts[0],
		Category:      parts[1],
		Type:          parts[2],
		AdditionalKey: parts[3],
	}, nil
}

// MintRequest is one payout line of a batch mint.
type MintRequest struct {
	Address  string          `json:"address"`
	Quantity decimal.Decimal `json:"quantity"`
}
