package meegle

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-meegle-timesheet/internal/util"
)

// userRecord is the slice of a Meegle user the pipeline cares about.
type userRecord struct {
	UserKey string `json:"user_key"`
	Email   string `json:"email"`
	NameCN  string `json:"name_cn"`
	NameEN  string `json:"name_en"`
}

// userCache maps owner keys to user records. User data changes rarely, so
// the cache file has no expiry; resolved users are remembered forever and
// only cache misses hit the API.
type userCache struct {
	file string

	mu    sync.Mutex
	users map[string]userRecord
	dirty bool
}

func newUserCache(file string) *userCache {
	cache := &userCache{
		file:  file,
		users: make(map[string]userRecord),
	}
	cache.load()
	return cache
}

type userCacheFile struct {
	Timestamp int64                 `json:"timestamp"`
	Users     map[string]userRecord `json:"users"`
}

func (uc *userCache) load() {
	if uc.file == "" {
		return
	}
	raw, err := os.ReadFile(uc.file)
	if err != nil {
		return
	}
	var data userCacheFile
	if err := sonic.Unmarshal(raw, &data); err != nil {
		util.LogWarnf("Failed to parse user cache %s: %v", uc.file, err)
		return
	}
	if data.Users != nil {
		uc.users = data.Users
		util.LogDebugf("Loaded %d users from cache", len(uc.users))
	}
}

func (uc *userCache) save() {
	if uc.file == "" || !uc.dirty {
		return
	}
	if err := os.MkdirAll(filepath.Dir(uc.file), 0o755); err != nil {
		util.LogWarnf("Failed to create user cache directory: %v", err)
		return
	}
	raw, err := sonic.MarshalIndent(userCacheFile{
		Timestamp: time.Now().Unix(),
		Users:     uc.users,
	}, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(uc.file, raw, 0o644); err != nil {
		util.LogWarnf("Failed to save user cache: %v", err)
		return
	}
	uc.dirty = false
}

// ResolveUser maps an owner key to an email address and display name. An
// unresolvable key falls back to a synthetic company address so the entry
// is still attributable.
func (c *Client) ResolveUser(userKey string) (email, name string) {
	if userKey == "" {
		return "", ""
	}

	c.users.mu.Lock()
	record, ok := c.users.users[userKey]
	c.users.mu.Unlock()

	if !ok {
		record = c.fetchUser(userKey)
		c.users.mu.Lock()
		c.users.users[userKey] = record
		c.users.dirty = true
		c.users.save()
		c.users.mu.Unlock()
	}

	email = record.Email
	if email == "" {
		email = fmt.Sprintf("%s@company.com", userKey)
	}
	name = record.NameEN
	if name == "" {
		name = record.NameCN
	}
	if name == "" {
		name = userKey
	}
	return email, name
}

type userQuery struct {
	UserKeys []string `json:"user_keys"`
}

// fetchUser queries one user. Failures yield an empty record, which is
// cached too so a broken key is not retried on every entry.
func (c *Client) fetchUser(userKey string) userRecord {
	envelope, err := c.post("user/query", userQuery{UserKeys: []string{userKey}})
	if err != nil {
		util.LogWarnf("Failed to resolve user %s: %v", userKey, err)
		return userRecord{UserKey: userKey}
	}

	var users []userRecord
	if len(envelope.Data) > 0 {
		if err := sonic.Unmarshal(envelope.Data, &users); err != nil {
			// Some deployments wrap the list in a "users" member.
			var wrapped struct {
				Users []userRecord `json:"users"`
			}
			if err := sonic.Unmarshal(envelope.Data, &wrapped); err != nil {
				util.LogWarnf("Failed to decode user %s: %v", userKey, err)
				return userRecord{UserKey: userKey}
			}
			users = wrapped.Users
		}
	}
	if len(users) == 0 {
		util.LogDebugf("User %s not found", userKey)
		return userRecord{UserKey: userKey}
	}
	return users[0]
}
