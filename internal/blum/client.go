package blum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Default hosts of the remote service
const (
	DefaultGatewayURL = "https://gateway.blum.codes"
	DefaultGameURL    = "https://game-domain.blum.codes"
)

// codeTokenInvalid is the gateway error code for an unusable access token
const codeTokenInvalid = 16

var browserHeaders = map[string]string{
	"Accept":             "application/json, text/plain, */*",
	"Accept-Language":    "en-GB,en-US;q=0.9,en;q=0.8",
	"Origin":             "https://telegram.blum.codes",
	"Referer":            "https://telegram.blum.codes/",
	"Sec-Ch-Ua":          `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"macOS"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-site",
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Client is a Blum HTTP client
type Client struct {
	gatewayURL string
	gameURL    string
	httpClient *http.Client

	// Rate limiting
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewClient creates a new Blum client. Empty URLs fall back to the public hosts
func NewClient(gatewayURL, gameURL string, timeout time.Duration) *Client {
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	if gameURL == "" {
		gameURL = DefaultGameURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		gatewayURL: strings.TrimSuffix(gatewayURL, "/"),
		gameURL:    strings.TrimSuffix(gameURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		minDelay: 250 * time.Millisecond,
	}
}

func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.lastCall)
	if elapsed < c.minDelay {
		timer := time.NewTimer(c.minDelay - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastCall = time.Now()
	return nil
}

// doRequest sends a request and returns status and body of any HTTP answer.
// Only failures to get an answer are returned as errors
func (c *Client) doRequest(ctx context.Context, method, url, token string, body interface{}) (int, []byte, error) {
	if err := c.throttle(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	return resp.StatusCode, data, nil
}

// call performs a request that must answer 2xx
func (c *Client) call(ctx context.Context, op, method, url, token string) ([]byte, error) {
	status, data, err := c.doRequest(ctx, method, url, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Op: op, StatusCode: status, Body: string(data)}
	}
	return data, nil
}

// CheckSession reports whether the access token is usable.
// A 401 counts as usable unless the gateway says the token itself is invalid
func (c *Client) CheckSession(ctx context.Context, token string) (bool, error) {
	status, data, err := c.doRequest(ctx, http.MethodGet, c.gatewayURL+"/v1/user/me", token, nil)
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}

	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err != nil {
			return false, fmt.Errorf("check session: %w: %v", ErrMalformedResponse, err)
		}
		return apiErr.Code != codeTokenInvalid, nil
	default:
		return false, nil
	}
}

// Balance returns the balance and farming status
func (c *Client) Balance(ctx context.Context, token string) (FarmingStatus, error) {
	data, err := c.call(ctx, "balance", http.MethodGet, c.gameURL+"/api/v1/user/balance", token)
	if err != nil {
		return FarmingStatus{}, err
	}

	var resp BalanceResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return FarmingStatus{}, fmt.Errorf("balance: %w: %v", ErrMalformedResponse, err)
	}
	if resp.AvailableBalance == nil {
		return FarmingStatus{}, fmt.Errorf("balance: %w: availableBalance missing", ErrMalformedResponse)
	}

	return resp.Status(), nil
}

// Claim collects the reward of a finished farming cycle
func (c *Client) Claim(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, "claim", http.MethodPost, c.gameURL+"/api/v1/farming/claim", token)
}

// StartFarming begins a new farming cycle
func (c *Client) StartFarming(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, "start farming", http.MethodPost, c.gameURL+"/api/v1/farming/start", token)
}

// ClaimFriends collects the referral reward
func (c *Client) ClaimFriends(ctx context.Context, token string) (json.RawMessage, error) {
	return c.call(ctx, "claim friends", http.MethodPost, c.gatewayURL+"/v1/friends/claim", token)
}

// Refresh mints a new token pair. The request carries no Authorization header
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	status, data, err := c.doRequest(ctx, http.MethodPost, c.gatewayURL+"/v1/auth/refresh", "", refreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRefresh, status, truncate(string(data), 200))
	}

	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrRefresh, err)
	}
	if tokens.Access == "" {
		return nil, fmt.Errorf("%w: no access token in response", ErrRefresh)
	}

	return &tokens, nil
}
