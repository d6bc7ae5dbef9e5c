// Package catalog tracks persisted segments and resources awaiting upload in
// a local SQLite database, so spooled replay data survives process restarts.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	replayerr "github.com/replaykit/replaykit/internal/errors"
)

// Kind discriminates catalog entries.
type Kind string

const (
	KindSegment  Kind = "segment"
	KindResource Kind = "resource"
)

// Entry states.
const (
	StatePending  = "pending"
	StateUploaded = "uploaded"
)

// Entry is one tracked blob.
type Entry struct {
	ID            string
	Kind          Kind
	ApplicationID string
	SessionID     string
	ViewID        string
	ObjectPath    string
	ContentType   string // resources only
	RecordCount   int    // segments only
	StartMs       int64
	EndMs         int64
	SizeBytes     int64
	Privacy       string
	State         string
	CreatedAt     time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	application_id TEXT NOT NULL DEFAULT '',
	session_id     TEXT NOT NULL DEFAULT '',
	view_id        TEXT NOT NULL DEFAULT '',
	object_path    TEXT NOT NULL,
	content_type   TEXT NOT NULL DEFAULT '',
	record_count   INTEGER NOT NULL DEFAULT 0,
	start_ms       INTEGER NOT NULL DEFAULT 0,
	end_ms         INTEGER NOT NULL DEFAULT 0,
	size_bytes     INTEGER NOT NULL DEFAULT 0,
	privacy        TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT 'pending',
	created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_state_kind ON entries(state, kind, id);
`

// Catalog is a SQLite-backed upload catalog. A single write connection with
// WAL mode keeps writers serialized; reads go through the same handle since
// catalog traffic is tiny.
type Catalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// New opens (and if needed initializes) the catalog at dbPath.
func New(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: failed to initialize schema: %w", err)
	}

	return &Catalog{db: db, dbPath: dbPath}, nil
}

// Register adds an entry. Idempotent: registering an already-known id is a
// no-op, which makes crash-recovery re-registration safe.
func (c *Catalog) Register(ctx context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	state := e.State
	if state == "" {
		state = StatePending
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO entries
		(id, kind, application_id, session_id, view_id, object_path,
		 content_type, record_count, start_ms, end_ms, size_bytes, privacy,
		 state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.ApplicationID, e.SessionID, e.ViewID,
		e.ObjectPath, e.ContentType, e.RecordCount, e.StartMs, e.EndMs,
		e.SizeBytes, e.Privacy, state, createdAt.UnixMilli())
	if err != nil {
		return replayerr.NewCatalogError(replayerr.CodeRegisterFailed, fmt.Sprintf("failed to register %s", e.ID), err)
	}
	return nil
}

// Has reports whether an id is tracked.
func (c *Catalog) Has(ctx context.Context, id string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, replayerr.NewCatalogError(replayerr.CodeQueryFailed, fmt.Sprintf("failed to look up %s", id), err)
	}
	return n > 0, nil
}

// Pending returns up to limit pending entries of the given kind, oldest
// first. Segment ids are ULIDs, so id order is creation order.
func (c *Catalog) Pending(ctx context.Context, kind Kind, limit int) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, kind, application_id, session_id, view_id, object_path,
		       content_type, record_count, start_ms, end_ms, size_bytes,
		       privacy, state, created_at
		FROM entries
		WHERE state = ? AND kind = ?
		ORDER BY id ASC
		LIMIT ?`,
		StatePending, string(kind), limit)
	if err != nil {
		return nil, replayerr.NewCatalogError(replayerr.CodeQueryFailed, "failed to query pending entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kindStr string
		var createdMs int64
		if err := rows.Scan(&e.ID, &kindStr, &e.ApplicationID, &e.SessionID,
			&e.ViewID, &e.ObjectPath, &e.ContentType, &e.RecordCount,
			&e.StartMs, &e.EndMs, &e.SizeBytes, &e.Privacy, &e.State,
			&createdMs); err != nil {
			return nil, replayerr.NewCatalogError(replayerr.CodeQueryFailed, "failed to scan entry", err)
		}
		e.Kind = Kind(kindStr)
		e.CreatedAt = time.UnixMilli(createdMs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkUploaded transitions an entry to the uploaded state.
func (c *Catalog) MarkUploaded(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx,
		`UPDATE entries SET state = ? WHERE id = ?`, StateUploaded, id)
	if err != nil {
		return replayerr.NewCatalogError(replayerr.CodeRegisterFailed, fmt.Sprintf("failed to mark %s uploaded", id), err)
	}
	return nil
}

// DeleteExpired removes uploaded entries older than ttl and returns their
// object paths so the caller can reclaim spool space.
func (c *Catalog) DeleteExpired(ctx context.Context, ttl time.Duration) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-ttl).UnixMilli()

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, object_path FROM entries WHERE state = ? AND created_at < ?`,
		StateUploaded, cutoff)
	if err != nil {
		return nil, replayerr.NewCatalogError(replayerr.CodeQueryFailed, "failed to query expired entries", err)
	}

	var ids, paths []string
	for rows.Next() {
		var id, objectPath string
		if err := rows.Scan(&id, &objectPath); err != nil {
			rows.Close()
			return nil, replayerr.NewCatalogError(replayerr.CodeQueryFailed, "failed to scan expired entry", err)
		}
		ids = append(ids, id)
		paths = append(paths, objectPath)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return nil, replayerr.NewCatalogError(replayerr.CodeRegisterFailed, fmt.Sprintf("failed to delete %s", id), err)
		}
	}

	return paths, nil
}

// Close closes the catalog database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
