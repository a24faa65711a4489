// Package trace is an optional, non-blocking scan audit trail: each
// completed ScanResult can be appended to a local "scans" table so repeated
// runs against the same fleet of targets can be diffed later. Never
// required for correctness; the in-memory pipeline works with no store
// configured.
package trace

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/depfused/depfused/internal/idgen"
	"github.com/depfused/depfused/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	scan_id        TEXT PRIMARY KEY,
	target         TEXT NOT NULL,
	findings_count INTEGER NOT NULL,
	js_files_count INTEGER NOT NULL,
	duration_ms    INTEGER NOT NULL,
	created_at     INTEGER NOT NULL
);`

// Store records scan results to sqlite.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the scan ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore wraps an already-open sqlite handle and ensures the scans
// table exists.
func NewStore(db *sql.DB, opts ...Option) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	s := &Store{db: db, newID: idgen.ScanID}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Record appends a ScanResult. Non-blocking: failures are logged but never
// returned, so a failing audit store never blocks a scan.
func (s *Store) Record(ctx context.Context, logger *slog.Logger, result types.ScanResult) {
	if s == nil {
		return
	}
	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (scan_id, target, findings_count, js_files_count, duration_ms, created_at)
		VALUES (?,?,?,?,?,?)`,
		id, result.Target, len(result.Findings), result.JsFilesCount,
		result.Duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		if logger != nil {
			logger.Error("trace: record scan failed", "error", err, "target", result.Target)
		}
	}
}
