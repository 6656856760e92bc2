package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

const dbName = "sprintpulse.db"

// ErrNoDocument is returned when no usable document exists for a key.
var ErrNoDocument = errors.New("docstore: no document")

// Store is a persistent document cache keyed on (kind, key). Documents are
// JSON blobs; writes overwrite the existing record for the same identity,
// last write wins.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the document store inside dir.
func Open(dir string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.Join(dir, dbName))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS documents (
		kind      TEXT NOT NULL,
		key       TEXT NOT NULL,
		body      BLOB NOT NULL,
		stored_at INTEGER NOT NULL,
		PRIMARY KEY (kind, key)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores doc under (kind, key), replacing any existing document.
func (s *Store) Put(ctx context.Context, kind, key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", kind, key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents(kind, key, body, stored_at) VALUES (?,?,?,?)
		 ON CONFLICT(kind, key) DO UPDATE SET body=excluded.body, stored_at=excluded.stored_at`,
		kind, key, body, time.Now().UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to store document %s/%s: %w", kind, key, err)
	}

	log.Debug().Str("kind", kind).Str("key", key).Msg("Document stored")
	return nil
}

// Get loads the document under (kind, key) into out and returns when it was
// stored. Returns ErrNoDocument when the key is absent.
func (s *Store) Get(ctx context.Context, kind, key string, out any) (time.Time, error) {
	var body []byte
	var storedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, stored_at FROM documents WHERE kind=? AND key=?`, kind, key).
		Scan(&body, &storedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNoDocument
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load document %s/%s: %w", kind, key, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		// A document that no longer decodes is treated as a miss; the
		// caller will refetch and overwrite it.
		log.Warn().Err(err).Str("kind", kind).Str("key", key).Msg("Discarding undecodable cached document")
		return time.Time{}, ErrNoDocument
	}

	return time.UnixMicro(storedAt), nil
}

// GetFresh behaves like Get but reports ErrNoDocument when the stored
// document is older than ttl. A zero ttl accepts any age.
func (s *Store) GetFresh(ctx context.Context, kind, key string, ttl time.Duration, out any) error {
	storedAt, err := s.Get(ctx, kind, key, out)
	if err != nil {
		return err
	}
	if ttl > 0 && time.Since(storedAt) > ttl {
		log.Debug().Str("kind", kind).Str("key", key).Dur("ttl", ttl).Msg("Cached document expired")
		return ErrNoDocument
	}
	return nil
}

// Delete removes the document under (kind, key). Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, kind, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE kind=? AND key=?`, kind, key)
	return err
}
