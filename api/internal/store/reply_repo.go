package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReplyRepo caches completion replies in SQL keyed by (request_hash, engine, model).
type ReplyRepo struct {
	DB     *sql.DB
	Driver Driver
	// MaxAge > 0 makes older rows a miss.
	MaxAge time.Duration
}

func NewReplyRepo(db *sql.DB, driver Driver, maxAge time.Duration) *ReplyRepo {
	return &ReplyRepo{DB: db, Driver: driver, MaxAge: maxAge}
}

func (r *ReplyRepo) Get(ctx context.Context, hash, engine, model string) (string, bool, error) {
	const q = `select reply, created_at from reply_cache where request_hash=$1 and engine=$2 and model=$3`
	var (
		reply string
		ts    int64
	)
	err := r.DB.QueryRowContext(ctx, rebind(r.Driver, q), hash, engine, model).Scan(&reply, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "reply cache get")
	}
	if r.MaxAge > 0 && time.Since(time.Unix(ts, 0)) > r.MaxAge {
		return "", false, nil
	}
	return reply, true, nil
}

// Put inserts or refreshes a reply.
func (r *ReplyRepo) Put(ctx context.Context, hash, engine, model, reply string) error {
	const q = `
insert into reply_cache(request_hash, engine, model, reply, created_at)
values ($1,$2,$3,$4,$5)
on conflict (request_hash, engine, model)
do update set reply=excluded.reply, created_at=excluded.created_at`
	_, err := r.DB.ExecContext(ctx, rebind(r.Driver, q), hash, engine, model, reply, time.Now().Unix())
	return eris.Wrap(err, "reply cache put")
}

// PurgeOlderThan deletes stale rows so the table does not grow unbounded.
func (r *ReplyRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, eris.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan).Unix()
	const q = `delete from reply_cache where created_at < $1`
	res, err := r.DB.ExecContext(ctx, rebind(r.Driver, q), cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "reply cache purge")
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

// PurgeEvery removes rows older than MaxAge each interval until ctx is done.
func (r *ReplyRepo) PurgeEvery(ctx context.Context, interval time.Duration, log *zap.Logger) {
	if r.MaxAge <= 0 || interval <= 0 {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := r.PurgeOlderThan(ctx, r.MaxAge)
			if err != nil {
				log.Warn("reply cache purge", zap.Error(err))
				continue
			}
			log.Debug("reply cache purged", zap.Int64("rows", n))
		}
	}
}

func (r *ReplyRepo) Close() error { return r.DB.Close() }
