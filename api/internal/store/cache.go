// Package store holds the optional cache of completion replies.
package store

import (
	"context"
	"time"
)

// ReplyCache is satisfied by MemoryCache and ReplyRepo.
type ReplyCache interface {
	Get(ctx context.Context, hash, engine, model string) (string, bool, error)
	Put(ctx context.Context, hash, engine, model, reply string) error
	Close() error
}

// OpenCache builds the cache selected by driver. DriverNone returns nil.
// SQL caches drop rows older than maxAge on open.
func OpenCache(ctx context.Context, driver Driver, dsn string, maxAge time.Duration) (ReplyCache, error) {
	switch driver {
	case DriverNone:
		return nil, nil
	case DriverMemory, "":
		return NewMemoryCache(maxAge), nil
	}
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	repo := NewReplyRepo(db, driver, maxAge)
	if maxAge > 0 {
		if _, err := repo.PurgeOlderThan(ctx, maxAge); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return repo, nil
}
