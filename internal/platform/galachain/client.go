package galachain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gala-giveaway-backend/internal/common/logger"
	"gala-giveaway-backend/internal/features/giveaway/models"
)

const (
	pathFetchBalances   = "/FetchBalances"
	pathFetchAllowances = "/FetchAllowances"
	pathBatchMintToken  = "/BatchMintToken"
	pathFetchBurns      = "/FetchBurns"

	maxRetryElapsed = 30 * time.Second
)

// Client talks to a GalaChain token-contract gateway over HTTP. It is always
// constructed and passed in explicitly; there is no package-level instance.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient initializes a gateway-backed ledger client.
func NewClient(baseURL, apiToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("galachain"),
	}
}

type tokenInstanceQuery struct {
	Collection    string `json:"collection"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	AdditionalKey string `json:"additionalKey"`
}

func instanceQuery(token models.TokenClassKey) tokenInstanceQuery {
	return tokenInstanceQuery{
		Collection:    token.Collection,
		Category:      token.Category,
		Type:          token.Type,
		AdditionalKey: token.AdditionalKey,
	}
}

// post performs a JSON POST with exponential backoff. Rate limits and
// transient network/server failures retry; other statuses are permanent.
func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var respBody []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.apiToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("gateway busy, retrying with backoff")
			return fmt.Errorf("gateway http %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("gateway http %d: %s", resp.StatusCode, string(b)))
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxRetryElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

type balanceRecord struct {
	Quantity    decimal.Decimal `json:"quantity"`
	LockedHolds []struct {
		Quantity decimal.Decimal `json:"quantity"`
	} `json:"lockedHolds"`
}

// FetchBalance returns the owner's spendable balance for the token class.
func (c *Client) FetchBalance(ctx context.Context, owner string, token models.TokenClassKey) (decimal.Decimal, error) {
	payload := struct {
		Owner string `json:"owner"`
		tokenInstanceQuery
	}{Owner: owner, tokenInstanceQuery: instanceQuery(token)}

	var out struct {
		Data []balanceRecord `json:"Data"`
	}
	if err := c.post(ctx, pathFetchBalances, payload, &out); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, b := range out.Data {
		locked := decimal.Zero
		for _, h := range b.LockedHolds {
			locked = locked.Add(h.Quantity)
		}
		total = total.Add(b.Quantity.Sub(locked))
	}
	return total, nil
}

type allowanceRecord struct {
	Quantity      decimal.Decimal `json:"quantity"`
	QuantitySpent decimal.Decimal `json:"quantitySpent"`
}

// FetchAllowance returns the unspent mint allowance granted to the address.
func (c *Client) FetchAllowance(ctx context.Context, grantedTo string, token models.TokenClassKey) (decimal.Decimal, error) {
	payload := struct {
		GrantedTo string `json:"grantedTo"`
		tokenInstanceQuery
	}{GrantedTo: grantedTo, tokenInstanceQuery: instanceQuery(token)}

	var out struct {
		Data []allowanceRecord `json:"Data"`
	}
	if err := c.post(ctx, pathFetchAllowances, payload, &out); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range out.Data {
		remaining := a.Quantity.Sub(a.QuantitySpent)
		if remaining.IsPositive() {
			total = total.Add(remaining)
		}
	}
	return total, nil
}

// MintBatch mints the given quantities from the owner wallet to each
// recipient. The gateway treats the batch as one submission; partial chain
// failures surface as an error and the whole batch is retried by the caller.
func (c *Client) MintBatch(ctx context.Context, token models.TokenClassKey, owner string, requests []models.MintRequest) error {
	if len(requests) == 0 {
		return nil
	}

	type mintDto struct {
		Owner    string          `json:"owner"`
		Quantity decimal.Decimal `json:"quantity"`
	}
	payload := struct {
		TokenClass tokenInstanceQuery `json:"tokenClass"`
		Owner      string             `json:"owner"`
		Mints      []mintDto          `json:"mintDtos"`
	}{TokenClass: instanceQuery(token), Owner: owner}
	for _, req := range requests {
		payload.Mints = append(payload.Mints, mintDto{Owner: req.Address, Quantity: req.Quantity})
	}

	var out struct {
		Status  int    `json:"Status"`
		Message string `json:"Message"`
	}
	if err := c.post(ctx, pathBatchMintToken, payload, &out); err != nil {
		return err
	}
	if out.Status != 1 {
		return fmt.Errorf("mint rejected by chain: %s", out.Message)
	}

	c.log.Info().
		Str("token", token.String()).
		Int("recipients", len(requests)).
		Msg("Batch mint submitted")
	return nil
}

type burnRecord struct {
	TxID     string          `json:"txId"`
	Quantity decimal.Decimal `json:"quantity"`
}

// VerifyBurn checks that the burn referenced by proof exists for the owner
// and covers at least the required quantity.
func (c *Client) VerifyBurn(ctx context.Context, owner string, token models.TokenClassKey, quantity decimal.Decimal, proof string) (bool, error) {
	payload := struct {
		BurnedBy string `json:"burnedBy"`
		tokenInstanceQuery
	}{BurnedBy: owner, tokenInstanceQuery: instanceQuery(token)}

	var out struct {
		Data []burnRecord `json:"Data"`
	}
	if err := c.post(ctx, pathFetchBurns, payload, &out); err != nil {
		return false, err
	}

	for _, b := range out.Data {
		if b.TxID == proof && b.Quantity.GreaterThanOrEqual(quantity) {
			return true, nil
		}
	}
	return false, nil
}
