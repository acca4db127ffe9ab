package cache

import (
	"os"
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := NewAt(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}

	if _, ok := c.Get("https://example.com/feed"); ok {
		t.Fatal("Get on empty cache returned a hit")
	}

	if err := c.Set("https://example.com/feed", []byte("payload")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	data, ok := c.Get("https://example.com/feed")
	if !ok || string(data) != "payload" {
		t.Fatalf("Get = (%q, %v), want (payload, true)", data, ok)
	}
}

func TestCacheExpiry(t *testing.T) {
	c, err := NewAt(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if err := c.Set("key", []byte("stale")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Age the entry past the TTL.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(c.Path("key"), old, old); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("key"); ok {
		t.Error("expired entry returned as a hit")
	}
}

func TestCacheClear(t *testing.T) {
	c, err := NewAt(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("entry survived Clear")
	}
}
