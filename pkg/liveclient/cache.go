package liveclient

import (
	"sync"
	"time"
)

// Entry is one cached resource state with the ordering metadata used to
// resolve races between the live channel and the polling fallback.
type Entry struct {
	Value     interface{}
	Seq       uint64
	Timestamp time.Time
}

// Cache is a last-writer-wins view of server state. Live events carry a
// server-assigned sequence number; poll snapshots carry none. A write is
// applied only if it is provably newer than what is cached, so a delayed
// poll response can never clobber a fresher live update.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
	}
}

// ApplyLive stores a live-channel update. Returns false when the cached
// entry already has an equal or higher sequence number.
func (c *Cache) ApplyLive(key string, value interface{}, seq uint64, timestamp time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.entries[key]
	if ok && current.Seq >= seq {
		return false
	}
	c.entries[key] = Entry{Value: value, Seq: seq, Timestamp: timestamp}
	return true
}

// ApplyPoll stores a polled snapshot. Poll data has no sequence number, so
// it only replaces an entry whose timestamp is older; against a live entry
// with the same timestamp the live one wins.
func (c *Cache) ApplyPoll(key string, value interface{}, timestamp time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.entries[key]
	if ok && !current.Timestamp.Before(timestamp) {
		return false
	}
	// A poll write keeps the old seq watermark: a live event that raced the
	// poll still applies afterwards.
	seq := uint64(0)
	if ok {
		seq = current.Seq
	}
	c.entries[key] = Entry{Value: value, Seq: seq, Timestamp: timestamp}
	return true
}

func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Snapshot copies the current view, for rendering.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.entries))
	for key, entry := range c.entries {
		out[key] = entry
	}
	return out
}
