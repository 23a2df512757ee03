package meegle

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// tokenExpiryMargin is subtracted from the reported token lifetime so a
// token is refreshed before it actually expires mid-request.
const tokenExpiryMargin = 60 * time.Second

// TokenManager obtains and caches plugin tokens. Tokens survive process
// restarts through a JSON cache file.
type TokenManager struct {
	pluginID     string
	pluginSecret string
	userKey      string
	baseURL      string
	cacheFile    string
	httpClient   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenManager creates a token manager and loads any cached token.
// cacheFile may be empty to disable the file cache.
func NewTokenManager(pluginID, pluginSecret, userKey, baseURL, cacheFile string) *TokenManager {
	tm := &TokenManager{
		pluginID:     pluginID,
		pluginSecret: pluginSecret,
		userKey:      userKey,
		baseURL:      baseURL,
		cacheFile:    cacheFile,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	tm.loadCachedToken()
	return tm
}

// UserKey returns the user key requests are made on behalf of.
func (tm *TokenManager) UserKey() string {
	return tm.userKey
}

// ValidToken returns a token that is still valid, requesting a new one
// when the cached token is missing or about to expire.
func (tm *TokenManager) ValidToken() (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.token != "" && time.Now().Before(tm.expiresAt.Add(-tokenExpiryMargin)) {
		return tm.token, nil
	}

	util.LogInfo("Requesting new plugin token")
	token, expiresAt, err := tm.requestToken()
	if err != nil {
		return "", fmt.Errorf("failed to obtain plugin token: %w", err)
	}

	tm.token = token
	tm.expiresAt = expiresAt
	tm.saveCachedToken()
	return token, nil
}

// Invalidate discards the current token and its cache file. The next
// ValidToken call requests a fresh one.
func (tm *TokenManager) Invalidate() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.token = ""
	tm.expiresAt = time.Time{}
	if tm.cacheFile != "" {
		os.Remove(tm.cacheFile)
	}
}

type tokenRequest struct {
	PluginID     string `json:"plugin_id"`
	PluginSecret string `json:"plugin_secret"`
	UserKey      string `json:"user_key"`
}

type tokenResponse struct {
	Error struct {
		Code int64  `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
	Data struct {
		Token      string `json:"token"`
		ExpireTime int64  `json:"expire_time"`
	} `json:"data"`
}

func (tm *TokenManager) requestToken() (string, time.Time, error) {
	payload, err := sonic.Marshal(tokenRequest{
		PluginID:     tm.pluginID,
		PluginSecret: tm.pluginSecret,
		UserKey:      tm.userKey,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	url := tm.baseURL + "/authen/plugin_token"
	resp, err := tm.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var decoded tokenResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", time.Time{}, fmt.Errorf("invalid token response: %w", err)
	}
	if decoded.Error.Code != 0 {
		return "", time.Time{}, fmt.Errorf("authentication failed: %s", decoded.Error.Msg)
	}
	if decoded.Data.Token == "" {
		return "", time.Time{}, fmt.Errorf("empty token in response")
	}

	expireTime := decoded.Data.ExpireTime
	if expireTime <= 0 {
		expireTime = 3600
	}
	return decoded.Data.Token, time.Now().Add(time.Duration(expireTime) * time.Second), nil
}

type cachedToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	CachedAt  int64  `json:"cached_at"`
}

func (tm *TokenManager) loadCachedToken() {
	if tm.cacheFile == "" {
		return
	}
	raw, err := os.ReadFile(tm.cacheFile)
	if err != nil {
		return
	}
	var cached cachedToken
	if err := sonic.Unmarshal(raw, &cached); err != nil {
		util.LogWarnf("Failed to parse token cache %s: %v", tm.cacheFile, err)
		return
	}
	tm.token = cached.Token
	tm.expiresAt = time.Unix(cached.ExpiresAt, 0)
	util.LogDebug("Loaded cached plugin token")
}

func (tm *TokenManager) saveCachedToken() {
	if tm.cacheFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(tm.cacheFile), 0o755); err != nil {
		util.LogWarnf("Failed to create token cache directory: %v", err)
		return
	}
	raw, err := sonic.MarshalIndent(cachedToken{
		Token:     tm.token,
		ExpiresAt: tm.expiresAt.Unix(),
		CachedAt:  time.Now().Unix(),
	}, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(tm.cacheFile, raw, 0o600); err != nil {
		util.LogWarnf("Failed to save token cache: %v", err)
	}
}
