package otel

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// pragmas run on the single pooled connection. busy_timeout lets a second
// fabflow process on the same file wait for the write lock.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// OpenDB opens the order database with statement tracing and pool metrics.
// The same handle backs the repositories and the river queue, so the pool
// is capped at one connection.
func OpenDB(path string) (*sql.DB, error) {
	attrs := otelsql.WithAttributes(
		semconv.DBSystemSqlite,
		attribute.String("db.namespace", filepath.Base(path)),
	)

	db, err := otelsql.Open("sqlite", path, attrs,
		// River polls its tables constantly; row and session spans would
		// drown the order queries.
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitRows:             true,
			OmitConnResetSession: true,
			DisableErrSkip:       true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, attrs); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}
	return db, nil
}
