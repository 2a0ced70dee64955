package middleware

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"

	"gala-giveaway-backend/internal/common/errors"
)

const (
	// HeaderSignature carries the hex encoded 65-byte secp256k1 signature.
	HeaderSignature = "X-Wallet-Signature"
	// HeaderTimestamp carries the unix seconds the signature was made at.
	HeaderTimestamp = "X-Wallet-Timestamp"

	// ContextAddressKey holds the recovered chain address of the caller.
	ContextAddressKey = "galachain_address"

	signatureMaxAge = 5 * time.Minute
)

// SigningPayload is the exact byte string a wallet signs for a request.
func SigningPayload(method, path string, timestamp int64) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", method, path, timestamp))
}

// RecoverAddress recovers the signer's chain address from a signature over
// the payload. Addresses are rendered in eth| prefixed form.
func RecoverAddress(payload, signature []byte) (string, error) {
	if len(signature) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}
	// Wallets commonly emit the legacy 27/28 recovery id.
	if signature[crypto.RecoveryIDOffset] >= 27 {
		signature = append([]byte(nil), signature...)
		signature[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(crypto.Keccak256(payload), signature)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}
	addr := crypto.PubkeyToAddress(*pubKey)
	return "eth|" + strings.TrimPrefix(addr.Hex(), "0x"), nil
}

// WalletSignature authenticates requests by recovering the signer address
// from a secp256k1 signature over method, path and a fresh timestamp. The
// recovered address is stored in the request context; there are no server
// side accounts or sessions.
func WalletSignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		sigHex := c.GetHeader(HeaderSignature)
		tsRaw := c.GetHeader(HeaderTimestamp)
		if sigHex == "" || tsRaw == "" {
			abortUnauthorized(c, "missing wallet signature headers")
			return
		}

		timestamp, err := strconv.ParseInt(tsRaw, 10, 64)
		if err != nil {
			abortUnauthorized(c, "malformed signature timestamp")
			return
		}
		if age := time.Since(time.Unix(timestamp, 0)); age > signatureMaxAge || age < -signatureMaxAge {
			abortUnauthorized(c, "signature timestamp outside accepted window")
			return
		}

		signature, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
		if err != nil {
			abortUnauthorized(c, "malformed signature encoding")
			return
		}

		payload := SigningPayload(c.Request.Method, c.Request.URL.Path, timestamp)
		address, err := RecoverAddress(payload, signature)
		if err != nil {
			abortUnauthorized(c, "signature verification failed")
			return
		}

		c.Set(ContextAddressKey, address)
		c.Next()
	}
}

// CallerAddress returns the authenticated chain address of the request.
func CallerAddress(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextAddressKey)
	if !exists {
		return "", false
	}
	address, ok := value.(string)
	return address, ok && address != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	appErr := errors.New(errors.ErrCodeUnauthorized, message)
	sendErrorResponse(c, appErr)
	c.Abort()
}
