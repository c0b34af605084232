// Package snapshots persists the content fingerprint of the last
// observed schedule per (subscriber, entity, date) key. It is the only
// state the change-detection sweep needs to survive a restart.
package snapshots

import (
	"context"
	"database/sql"
	"fmt"

	"raspbot-backend/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Key builds the persisted snapshot key. The layout is part of the
// stored data, changing it orphans every existing row.
func Key(subscriberID, entity, date string) string {
	return fmt.Sprintf("%s_%s_%s", subscriberID, entity, date)
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// GetHash returns the persisted hash for a key; ok is false when the
// key has never been observed.
func (s Store) GetHash(ctx context.Context, key string) (hash string, ok bool, err error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT hash FROM schedule_snapshot WHERE key = ?`,
		key,
	)
	err = row.Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}

// SaveHash upserts the hash for a key. Each poll cycle owns disjoint
// keys, so plain last-writer-wins is enough.
func (s Store) SaveHash(ctx context.Context, key, hash string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO schedule_snapshot (key, hash, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		key, hash, timezone.Now().Unix(),
	)
	return err
}
