package meegle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	ProjectKey    string
	MaxRetries    int
	Timeout       time.Duration
	UserCacheFile string
}

// Client is the Meegle API client. It implements timeline.Source.
type Client struct {
	httpClient *http.Client
	tokens     *TokenManager
	baseURL    string
	projectKey string
	maxRetries int
	users      *userCache
}

// NewClient creates a client over an already constructed token manager.
func NewClient(tokens *TokenManager, opts Options) *Client {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		tokens:     tokens,
		baseURL:    opts.BaseURL,
		projectKey: opts.ProjectKey,
		maxRetries: opts.MaxRetries,
		users:      newUserCache(opts.UserCacheFile),
	}
}

// apiEnvelope is the common response wrapper. Older endpoints report
// errors as err_code/err_msg, newer ones nest them under "error".
type apiEnvelope struct {
	ErrCode *int64 `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
	Error   struct {
		Code int64  `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

func (e *apiEnvelope) errCode() int64 {
	if e.ErrCode != nil {
		return *e.ErrCode
	}
	return e.Error.Code
}

func (e *apiEnvelope) errMsg() string {
	if e.ErrMsg != "" {
		return e.ErrMsg
	}
	if e.Error.Msg != "" {
		return e.Error.Msg
	}
	return "unknown error"
}

// request performs one API call with retries. Backoff grows by powers of
// three capped at 30s; a 429 waits much longer, powers of two on a 30s
// base capped at 300s. A 401/403 invalidates the token and retries once
// with a fresh one.
func (c *Client) request(method, endpoint string, query url.Values, body interface{}) (*apiEnvelope, error) {
	requestURL := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt)
			util.LogInfof("Retrying %s %s (attempt %d/%d) after %s", method, endpoint, attempt+1, c.maxRetries, wait)
			time.Sleep(wait)
		}

		envelope, retry, err := c.attempt(method, requestURL, payload, attempt)
		if err == nil {
			return envelope, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded for %s %s: %w", method, endpoint, lastErr)
}

// attempt performs one HTTP round trip. The second return value reports
// whether the failure is retryable.
func (c *Client) attempt(method, requestURL string, payload []byte, attempt int) (*apiEnvelope, bool, error) {
	token, err := c.tokens.ValidToken()
	if err != nil {
		return nil, false, err
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Key", c.tokens.UserKey())
	req.Header.Set("X-Plugin-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var envelope apiEnvelope
		if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, false, fmt.Errorf("invalid JSON response: %w", err)
		}
		if code := envelope.errCode(); code != 0 {
			return nil, false, fmt.Errorf("API error %d: %s", code, envelope.errMsg())
		}
		return &envelope, false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		wait := rateLimitBackoff(attempt)
		util.LogWarnf("Rate limit hit, waiting %s before retry", wait)
		time.Sleep(wait)
		return nil, true, fmt.Errorf("rate limited (429)")

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		util.LogWarnf("Authentication error %d, refreshing token", resp.StatusCode)
		c.tokens.Invalidate()
		return nil, true, fmt.Errorf("authentication failed with status %d", resp.StatusCode)

	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, true, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(text))
	}
}

func backoff(attempt int) time.Duration {
	wait := time.Second
	for i := 0; i < attempt; i++ {
		wait *= 3
	}
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	return wait
}

func rateLimitBackoff(attempt int) time.Duration {
	wait := 30 * time.Second << uint(attempt)
	if wait > 300*time.Second {
		wait = 300 * time.Second
	}
	return wait
}

func (c *Client) get(endpoint string, query url.Values) (*apiEnvelope, error) {
	return c.request(http.MethodGet, endpoint, query, nil)
}

func (c *Client) post(endpoint string, body interface{}) (*apiEnvelope, error) {
	return c.request(http.MethodPost, endpoint, nil, body)
}
