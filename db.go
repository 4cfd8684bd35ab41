package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// DefaultDatabaseURL is a sqlite file next to the binary
const DefaultDatabaseURL = "file:users.db?cache=shared"

// OpenDB connects to postgres for postgres:// URLs and to sqlite for
// anything else
func OpenDB(ctx context.Context, dsn string) (*bun.DB, error) {
	if dsn == "" {
		dsn = DefaultDatabaseURL
	}

	var db *bun.DB
	if isPostgresDSN(dsn) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite database")
		}
		// sqlite serializes writers anyway, one connection keeps
		// in-memory databases alive and shared
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to reach database")
	}

	return db, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// isUniqueViolation recognizes unique constraint errors from postgres
// and sqlite anywhere in the chain
func isUniqueViolation(err error) bool {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		var pgErr pgdriver.Error
		if stderrors.As(e, &pgErr) && pgErr.Field('C') == "23505" {
			return true
		}
		msg := e.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE") {
			return true
		}
	}
	return false
}
