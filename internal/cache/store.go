package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dekarrin/rezi"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no entry exists for a key.
var ErrNotFound = errors.New("cache: not found")

// Key returns the content-hash cache key for a grammar source text.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Store is an analysis-result cache backed by a single sqlite database
// file, following the same sql.Open("sqlite", path) + CREATE TABLE IF NOT
// EXISTS init pattern the teacher's own dao/sqlite store uses.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st := &Store{db: db}
	if err := st.init(); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (st *Store) init() error {
	_, err := st.db.Exec(`CREATE TABLE IF NOT EXISTS analysis_cache (
		source_hash TEXT NOT NULL PRIMARY KEY,
		entry       BLOB NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Close closes the underlying database handle.
func (st *Store) Close() error {
	return st.db.Close()
}

// Get looks up the cached Entry for a grammar source's content hash. It
// returns ErrNotFound if nothing is cached for that key.
func (st *Store) Get(ctx context.Context, key string) (Entry, error) {
	row := st.db.QueryRowContext(ctx, `SELECT entry FROM analysis_cache WHERE source_hash = ?;`, key)

	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, wrapDBError(err)
	}

	var e Entry
	n, err := rezi.DecBinary(blob, &e)
	if err != nil {
		return Entry{}, fmt.Errorf("cache: decode entry for %s: %w", key, err)
	}
	if n != len(blob) {
		return Entry{}, fmt.Errorf("cache: decode entry for %s: consumed %d/%d bytes", key, n, len(blob))
	}

	return e, nil
}

// Put stores (overwriting any existing entry for the same key) the cached
// Entry for a grammar source's content hash.
func (st *Store) Put(ctx context.Context, key string, e Entry) error {
	blob := rezi.EncBinary(e)

	_, err := st.db.ExecContext(ctx, `INSERT INTO analysis_cache (source_hash, entry) VALUES (?, ?)
		ON CONFLICT(source_hash) DO UPDATE SET entry = excluded.entry;`, key, blob)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cache: %w", err)
}
