// Package cache is a small file-backed store for remote signal feeds (KEV
// catalog, EPSS responses) so repeated scans don't refetch them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"
)

// Cache stores responses as content-addressed files under a directory, each
// valid until its modification time ages past the TTL.
type Cache struct {
	Dir string
	TTL time.Duration
}

// DefaultTTL is the default cache time-to-live
const DefaultTTL = 24 * time.Hour

// New creates a cache rooted under the user cache dir for the given app name
func New(appName string, ttl time.Duration) (*Cache, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewAt(filepath.Join(homeDir, ".cache", appName), ttl)
}

// NewAt creates a cache rooted at an explicit directory
func NewAt(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Cache{Dir: dir, TTL: ttl}, nil
}

// keyToFilename converts a URL or key to a safe filename
func (c *Cache) keyToFilename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".cache"
}

// Path returns the full path to the cache file for a key
func (c *Cache) Path(key string) string {
	return filepath.Join(c.Dir, c.keyToFilename(key))
}

// Get retrieves data from cache if it exists and is not expired
func (c *Cache) Get(key string) ([]byte, bool) {
	path := c.Path(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.TTL {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores data in the cache
func (c *Cache) Set(key string, data []byte) error {
	return os.WriteFile(c.Path(key), data, 0644)
}

// Clear removes all cached entries, leaving unrelated files alone
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".cache" {
			os.Remove(filepath.Join(c.Dir, entry.Name()))
		}
	}
	return nil
}
