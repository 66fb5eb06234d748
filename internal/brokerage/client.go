// Package brokerage reads holdings from a pre-authenticated brokerage REST
// API. Login and token exchange happen elsewhere; this package only signs the
// exchange checksum and reads already-issued sessions.
package brokerage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	apiVersion = "3"

	// maxResponseBytes caps how much of an upstream body is read.
	maxResponseBytes = 4 << 20
)

// ErrResponseTooLarge means the upstream body exceeded maxResponseBytes.
var ErrResponseTooLarge = errors.New("brokerage response too large")

var (
	// ErrUnauthorized means the access token was rejected or is missing.
	ErrUnauthorized  = errors.New("brokerage session not authorized")
	ErrNotConfigured = errors.New("brokerage api key not configured")
)

// Holding is one long-term position as reported by the broker.
type Holding struct {
	Symbol           string          `json:"tradingsymbol"`
	Exchange         string          `json:"exchange"`
	Quantity         decimal.Decimal `json:"quantity"`
	AveragePrice     decimal.Decimal `json:"average_price"`
	LastPrice        decimal.Decimal `json:"last_price"`
	ClosePrice       decimal.Decimal `json:"close_price"`
	PnL              decimal.Decimal `json:"pnl"`
	DayChange        decimal.Decimal `json:"day_change"`
	DayChangePercent decimal.Decimal `json:"day_change_percentage"`
}

type envelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
}

// Client calls the brokerage API with an api key and per-user access token.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether an api key and base URL are set.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.apiKey) != "" && c.baseURL != ""
}

// Holdings fetches the portfolio holdings for accessToken.
func (c *Client) Holdings(ctx context.Context, accessToken string) ([]Holding, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrUnauthorized
	}

	var holdings []Holding
	if err := c.get(ctx, "/portfolio/holdings", accessToken, &holdings); err != nil {
		return nil, err
	}
	if holdings == nil {
		holdings = []Holding{}
	}
	return holdings, nil
}

func (c *Client) get(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Kite-Version", apiVersion)
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.apiKey, accessToken))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("brokerage %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return err
	}
	if len(body) > maxResponseBytes {
		return fmt.Errorf("%s: %w", path, ErrResponseTooLarge)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || env.ErrorType == "TokenException" {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && env.Message != "" {
			return fmt.Errorf("brokerage api error: %s", env.Message)
		}
		return fmt.Errorf("brokerage api error: %s", strings.TrimSpace(string(body)))
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s: %w", path, decodeErr)
	}
	if env.Status != "success" {
		return fmt.Errorf("brokerage api error: %s", env.Message)
	}
	return json.Unmarshal(env.Data, out)
}

// Checksum signs the request token exchange: hex(HMAC-SHA256(apiSecret,
// apiKey+requestToken)).
func Checksum(apiKey, requestToken, apiSecret string) string {
	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(apiKey + requestToken))
	return hex.EncodeToString(mac.Sum(nil))
}
