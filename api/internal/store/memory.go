package store

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	reply string
	at    time.Time
}

// MemoryCache keeps replies for the life of the process.
type MemoryCache struct {
	maxAge  time.Duration
	entries sync.Map // key -> memEntry
	now     func() time.Time
}

func NewMemoryCache(maxAge time.Duration) *MemoryCache {
	return &MemoryCache{maxAge: maxAge, now: time.Now}
}

func memKey(hash, engine, model string) string {
	return engine + "\x00" + model + "\x00" + hash
}

func (c *MemoryCache) Get(_ context.Context, hash, engine, model string) (string, bool, error) {
	v, ok := c.entries.Load(memKey(hash, engine, model))
	if !ok {
		return "", false, nil
	}
	e := v.(memEntry)
	if c.maxAge > 0 && c.now().Sub(e.at) > c.maxAge {
		c.entries.Delete(memKey(hash, engine, model))
		return "", false, nil
	}
	return e.reply, true, nil
}

func (c *MemoryCache) Put(_ context.Context, hash, engine, model, reply string) error {
	c.entries.Store(memKey(hash, engine, model), memEntry{reply: reply, at: c.now()})
	return nil
}

func (c *MemoryCache) Close() error { return nil }
