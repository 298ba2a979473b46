package convlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// ErrEntryNotFound is when no journal entry exists for the given id.
var ErrEntryNotFound = errors.New("convlog: entry not found")

// Journal is a sqlite-backed record of conversions. Reads may run
// concurrently; writes are serialized on a mutex.
type Journal struct {
	db  *sql.DB
	cfg Config
	// Serializes write-queries.
	mu sync.Mutex
}

// New opens (and if needed creates) the journal database and its schema.
// Use Config{BaseDir: MemoryDBBaseDir} for an in-memory journal.
func New(cfg Config) (*Journal, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.BaseDir != MemoryDBBaseDir {
		// Idempotent - harmless if it already exists.
		if err := os.MkdirAll(cfg.BaseDir, 0o770); err != nil {
			return nil, err
		}
	}

	dataSourceName := filepath.Join(
		cfg.BaseDir,
		cfg.DBFileName,
	)

	db, err := sql.Open("sqlite", dataSourceName+"?busy_timeout=5000&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	j := &Journal{db: db, cfg: cfg}
	slog.Info("convlog bootstrap", "dbPath", dataSourceName)
	if err := j.bootstrap(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return j, nil
}

// Record inserts one entry and returns its assigned id. A zero At is
// replaced with the current time.
func (j *Journal) Record(ctx context.Context, e Entry) (string, error) {
	if strings.TrimSpace(e.Op) == "" {
		return "", errors.New("convlog: empty op")
	}
	id, err := NewID()
	if err != nil {
		return "", err
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}

	const sqlIns = `INSERT INTO %s (id, op, path, chars, bytes, at) VALUES (?,?,?,?,?,?)`
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.ExecContext(ctx,
		fmt.Sprintf(sqlIns, quote(j.cfg.Table)),
		id, e.Op, e.Path, e.Chars, e.Bytes, at.UTC().UnixMilli())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the entry with the given id, or ErrEntryNotFound.
func (j *Journal) Get(ctx context.Context, id string) (*Entry, error) {
	const sqlGet = `SELECT id, op, path, chars, bytes, at FROM %s WHERE id=?`
	row := j.db.QueryRowContext(ctx, fmt.Sprintf(sqlGet, quote(j.cfg.Table)), id)

	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns up to limit entries, newest first. A non-positive limit
// returns all entries.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	const sqlList = `SELECT id, op, path, chars, bytes, at FROM %s ORDER BY id DESC`
	q := fmt.Sprintf(sqlList, quote(j.cfg.Table))
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Delete removes the entry with the given id. Deleting a missing id is not
// an error.
func (j *Journal) Delete(ctx context.Context, id string) error {
	const sqlDel = `DELETE FROM %s WHERE id=?`
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx, fmt.Sprintf(sqlDel, quote(j.cfg.Table)), id)
	return err
}

// Prune removes entries recorded before cutoff and returns how many went.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	const sqlPrune = `DELETE FROM %s WHERE at < ?`
	j.mu.Lock()
	defer j.mu.Unlock()
	res, err := j.db.ExecContext(ctx,
		fmt.Sprintf(sqlPrune, quote(j.cfg.Table)), cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (j *Journal) IsEmpty(ctx context.Context) (bool, error) {
	const sqlIsEmpty = `SELECT count(*) FROM %s`
	var n int
	if err := j.db.QueryRowContext(
		ctx, fmt.Sprintf(sqlIsEmpty, quote(j.cfg.Table)),
	).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) bootstrap(ctx context.Context) error {
	const sqlCreateTable = `CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		op TEXT NOT NULL,
		path TEXT NOT NULL,
		chars INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		at INTEGER NOT NULL
	);`
	const sqlCreateAtIndex = `CREATE INDEX IF NOT EXISTS %s ON %s (at);`

	if _, err := j.db.ExecContext(ctx,
		fmt.Sprintf(sqlCreateTable, quote(j.cfg.Table))); err != nil {
		return err
	}
	_, err := j.db.ExecContext(ctx,
		fmt.Sprintf(sqlCreateAtIndex, quote(j.cfg.Table+"_at"), quote(j.cfg.Table)))
	return err
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var e Entry
	var atMillis int64
	if err := scan(&e.ID, &e.Op, &e.Path, &e.Chars, &e.Bytes, &atMillis); err != nil {
		return nil, err
	}
	e.At = time.UnixMilli(atMillis).UTC()
	return &e, nil
}

func validateConfig(c Config) error {
	if c.BaseDir == "" {
		return errors.New("convlog: DB BaseDir incorrect")
	}
	if c.BaseDir == MemoryDBBaseDir && c.DBFileName != "" {
		return errors.New("convlog: DB filename should be empty for memory db")
	}
	if c.BaseDir != MemoryDBBaseDir && c.DBFileName == "" {
		return errors.New("convlog: DB filename incorrect")
	}
	if strings.TrimSpace(c.Table) == "" {
		return errors.New("convlog: empty table name")
	}
	return nil
}

func quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
