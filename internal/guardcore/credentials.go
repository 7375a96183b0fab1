package guardcore

import (
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/guardcore/guarddash/internal/prefs"
)

// credentials caches the bearer token and API key. Each value is rehydrated
// from storage on its first read; after that, or after any set, the cache is
// authoritative even if the storage write failed.
type credentials struct {
	mu      sync.Mutex
	token   string
	apiKey  string
	loaded  map[string]bool
	storage prefs.Storage
	logger  glog.Logger
}

func (c *credentials) get(key string, cached *string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded[key] && c.storage != nil {
		if value, ok := c.storage.Get(key); ok {
			*cached = value
		}
	}
	c.markLoaded(key)
	return *cached
}

func (c *credentials) set(key string, cached *string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*cached = value
	c.markLoaded(key)
	if c.storage == nil {
		return nil
	}
	var err error
	if value == "" {
		err = c.storage.Remove(key)
	} else {
		err = c.storage.Set(key, value)
	}
	if err != nil && c.logger != nil {
		c.logger.Warn("credential storage write failed", "key", key, "error", err)
	}
	return err
}

func (c *credentials) markLoaded(key string) {
	if c.loaded == nil {
		c.loaded = map[string]bool{}
	}
	c.loaded[key] = true
}

// SetToken stores the bearer token. An empty token clears it.
func (c *Client) SetToken(token string) error {
	return c.creds.set(prefs.KeyToken, &c.creds.token, token)
}

// Token returns the bearer token, or "" when none is set.
func (c *Client) Token() string {
	return c.creds.get(prefs.KeyToken, &c.creds.token)
}

// SetAPIKey stores the API key. An empty key clears it.
func (c *Client) SetAPIKey(apiKey string) error {
	return c.creds.set(prefs.KeyAPIKey, &c.creds.apiKey, apiKey)
}

// APIKey returns the API key, or "" when none is set.
func (c *Client) APIKey() string {
	return c.creds.get(prefs.KeyAPIKey, &c.creds.apiKey)
}

// HasCredentials reports whether a token or an API key is available.
func (c *Client) HasCredentials() bool {
	return c.Token() != "" || c.APIKey() != ""
}
