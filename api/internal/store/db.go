package store

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // driver: sqlite
)

type Driver string

const (
	DriverNone     Driver = "none"
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DriverMemory, nil
	case DriverNone, DriverMemory, DriverSQLite, DriverPostgres:
		return d, nil
	}
	return "", eris.Errorf("unsupported cache driver %q", s)
}

// Open opens a SQL database and ensures the reply cache table exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:mcq-cache.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/mcq?sslmode=disable"
		}
	default:
		return nil, eris.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sql open")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sql ping")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "ensure schema")
	}
	return db, nil
}

// created_at is unix seconds so both drivers share one schema.
const schema = `
CREATE TABLE IF NOT EXISTS reply_cache (
  request_hash TEXT NOT NULL,
  engine TEXT NOT NULL,
  model TEXT NOT NULL,
  reply TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  PRIMARY KEY (request_hash, engine, model)
);`

// rebind rewrites $N placeholders for drivers that only take "?".
func rebind(driver Driver, q string) string {
	if driver != DriverSQLite {
		return q
	}
	var b strings.Builder
	for i := 0; i < len(q); i++ {
		if q[i] == '$' && i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
			j := i + 1
			for j < len(q) && q[j] >= '0' && q[j] <= '9' {
				j++
			}
			b.WriteByte('?')
			i = j - 1
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
