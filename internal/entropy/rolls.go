package entropy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	rollsEndpoint = "https://api.random.org/json-rpc/4/invoke"
	rollsBatch    = 200 // fractions per request
	rollsLowWater = 16  // refill once fewer than this remain
)

// BreakdownRolls serves ride breakdown rolls from batches of decimal
// fractions bought from random.org. A roll that cannot be served from the
// batch comes from crypto/rand, so a ride tick never stalls on an empty batch.
type BreakdownRolls struct {
	apiKey   string
	endpoint string
	http     *http.Client

	mu        sync.Mutex
	batch     []float64
	next      int
	fallbacks uint64
}

// NewBreakdownRolls returns nil when no API key is configured; a nil value
// still rolls, from crypto/rand.
func NewBreakdownRolls(apiKey string) *BreakdownRolls {
	if apiKey == "" {
		return nil
	}
	return &BreakdownRolls{
		apiKey:   apiKey,
		endpoint: rollsEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Live reports whether rolls come from random.org.
func (b *BreakdownRolls) Live() bool { return b != nil }

// Float64 returns the next roll in [0, 1).
func (b *BreakdownRolls) Float64() float64 {
	if b == nil {
		return cryptoFloat64()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.batch)-b.next < rollsLowWater {
		if err := b.restock(); err != nil {
			slog.Debug("breakdown rolls not restocked", "error", err)
		}
	}
	if b.next >= len(b.batch) {
		b.fallbacks++
		return cryptoFloat64()
	}
	f := b.batch[b.next]
	b.next++
	return f
}

// IntN returns a roll in [0, n).
func (b *BreakdownRolls) IntN(n int) int { return scaleN(b.Float64(), n) }

// Fallbacks counts the rolls served by crypto/rand.
func (b *BreakdownRolls) Fallbacks() uint64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fallbacks
}

type fractionsRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  fractionsParams `json:"params"`
	ID      int             `json:"id"`
}

type fractionsParams struct {
	APIKey        string `json:"apiKey"`
	N             int    `json:"n"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

type fractionsResponse struct {
	Result *fractionsResult `json:"result"`
	Error  *rpcError        `json:"error"`
}

type fractionsResult struct {
	Random struct {
		Data []float64 `json:"data"`
	} `json:"random"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// restock fetches one batch and appends it behind the unread rolls.
// Callers hold b.mu.
func (b *BreakdownRolls) restock() error {
	body, err := json.Marshal(fractionsRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params:  fractionsParams{APIKey: b.apiKey, N: rollsBatch, DecimalPlaces: 6},
		ID:      1,
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := b.http.Post(b.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("random.org returned %s", resp.Status)
	}

	var out fractionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	switch {
	case out.Error != nil:
		return fmt.Errorf("random.org error %d: %s", out.Error.Code, out.Error.Message)
	case out.Result == nil || len(out.Result.Random.Data) == 0:
		return errors.New("random.org sent no fractions")
	}

	b.batch = append(append([]float64(nil), b.batch[b.next:]...), out.Result.Random.Data...)
	b.next = 0
	slog.Debug("breakdown rolls restocked", "added", len(out.Result.Random.Data), "available", len(b.batch))
	return nil
}

// BreakdownSource picks where ride breakdown rolls come from: random.org when
// configured, otherwise the simulation's own source.
func BreakdownSource(rolls *BreakdownRolls, fallback Source) Source {
	if rolls.Live() {
		return rolls
	}
	return fallback
}
