// Package checkpoint persists the ordered list of device identities that
// were connected at the last checkpoint, so a restarted process can
// re-attempt lookup of previously known devices. It is a hint, not a
// reconnection guarantee.
package checkpoint

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS connected_devices (
	position INTEGER PRIMARY KEY,
	identity TEXT NOT NULL UNIQUE
);`

// Store keeps the checkpoint inside a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the checkpoint database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open checkpoint database %s failed", path)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ensure checkpoint schema failed")
	}
	return &Store{db: db}, nil
}

func configure(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "execute sqlite pragma %s failed", stmt)
		}
	}
	db.SetMaxOpenConns(1)
	return nil
}

// Save replaces the checkpoint with identities, preserving their order.
func (s *Store) Save(identities []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin checkpoint transaction failed")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM connected_devices"); err != nil {
		return errors.Wrap(err, "clear checkpoint failed")
	}
	stmt, err := tx.Prepare("INSERT INTO connected_devices (position, identity) VALUES (?, ?)")
	if err != nil {
		return errors.Wrap(err, "prepare checkpoint insert failed")
	}
	defer stmt.Close()

	for i, id := range identities {
		if _, err := stmt.Exec(i, id); err != nil {
			return errors.Wrapf(err, "insert checkpoint identity %s failed", id)
		}
	}
	return errors.Wrap(tx.Commit(), "commit checkpoint failed")
}

// Load returns the checkpointed identities in saved order. An empty
// checkpoint yields an empty slice, not an error.
func (s *Store) Load() ([]string, error) {
	rows, err := s.db.Query("SELECT identity FROM connected_devices ORDER BY position")
	if err != nil {
		return nil, errors.Wrap(err, "query checkpoint failed")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan checkpoint row failed")
		}
		out = append(out, id)
	}
	return out, errors.Wrap(rows.Err(), "iterate checkpoint rows failed")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
