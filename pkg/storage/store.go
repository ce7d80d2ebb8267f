// Package storage persists per-session reaction snapshots in a pebble
// key-value store. The persisted copy is a derived cache keyed by session
// token, not a source of truth once a live relay connection exists.
package storage

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/Teyk0o/wwsnb/pkg/reactions"
)

const keyPrefix = "wwsnb_reactions_"

type Store struct {
	db     *pebble.DB
	logger *slog.Logger
}

// Open creates (or reopens) the snapshot store at dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "storage")),
	}, nil
}

func snapshotKey(sessionToken string) []byte {
	return []byte(keyPrefix + sessionToken)
}

// SaveSnapshot writes the full reaction state for one session,
// replacing any previous snapshot.
func (s *Store) SaveSnapshot(sessionToken string, snap reactions.Snapshot) error {
	data, err := reactions.EncodeObject(snap)
	if err != nil {
		return err
	}
	return s.db.Set(snapshotKey(sessionToken), data, pebble.Sync)
}

// LoadSnapshot reads the stored state for one session. An absent or
// unparseable snapshot yields an empty state, never an error: a broken
// cache is logged and discarded rather than propagated.
func (s *Store) LoadSnapshot(sessionToken string) (reactions.Snapshot, error) {
	value, closer, err := s.db.Get(snapshotKey(sessionToken))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return make(reactions.Snapshot), nil
		}
		return nil, err
	}
	defer func() { _ = closer.Close() }()

	snap, err := reactions.DecodeObject(value)
	if err != nil {
		s.logger.Warn("Stored snapshot is unparseable, resetting to empty",
			slog.String("sessionToken", sessionToken),
			slog.Any("error", err),
		)
		return make(reactions.Snapshot), nil
	}
	return snap, nil
}

// EraseSnapshot removes the stored state for one session.
func (s *Store) EraseSnapshot(sessionToken string) error {
	return s.db.Delete(snapshotKey(sessionToken), pebble.Sync)
}

func (s *Store) Close() error {
	return s.db.Close()
}
