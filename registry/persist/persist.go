// Package persist is an optional sqlite-backed record of exploitable
// registry check results (NotFound for unscoped names, ScopeNotClaimed)
// that survives process restarts. Store only writes: it has no lookup
// method, and registry.Checker does not consult it.
package persist

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/depfused/depfused/internal/dbopen"
	"github.com/depfused/depfused/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS registry_findings (
	name TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	scope TEXT,
	checked_at INTEGER NOT NULL
);
`

// Store persists exploitable registry check results.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a sqlite-backed Store at path.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record saves result if it's exploitable (NotFound for an unscoped
// name, or ScopeNotClaimed); other kinds aren't worth persisting.
func (s *Store) Record(ctx context.Context, logger *slog.Logger, result types.NpmCheckResult) {
	if s == nil || s.db == nil {
		return
	}
	if result.Kind != types.NpmNotFound && result.Kind != types.NpmScopeNotClaimed {
		return
	}
	if result.Kind == types.NpmNotFound && strings.HasPrefix(result.Name, "@") {
		return
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_findings(name, kind, scope, checked_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET kind=excluded.kind, scope=excluded.scope, checked_at=excluded.checked_at`,
		result.Name, string(result.Kind), result.Scope, time.Now().Unix())
	if err != nil && logger != nil {
		logger.Warn("persist: record registry finding failed", "error", err, "name", result.Name)
	}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
