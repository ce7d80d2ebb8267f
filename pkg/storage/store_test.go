package storage

import (
	"log/slog"
	"os"
	"reflect"
	"testing"

	"github.com/cockroachdb/pebble"

	"github.com/Teyk0o/wwsnb/pkg/reactions"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), newTestLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	snap := reactions.Snapshot{
		"msg-1": {"👍": {"alice", "bob"}},
		"msg-2": {"🔥": {"carol"}},
	}

	if err := s.SaveSnapshot("session-a", snap); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	got, err := s.LoadSnapshot("session-a")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("round trip mismatch: %v vs %v", got, snap)
	}
}

func TestLoadAbsentSessionIsEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LoadSnapshot("never-seen")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty snapshot, got %v", got)
	}
}

func TestSessionsArePartitioned(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSnapshot("session-a", reactions.Snapshot{"msg-1": {"👍": {"alice"}}}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, err := s.LoadSnapshot("session-b")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("snapshot leaked across sessions: %v", got)
	}
}

func TestEraseSnapshot(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSnapshot("session-a", reactions.Snapshot{"msg-1": {"👍": {"alice"}}}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := s.EraseSnapshot("session-a"); err != nil {
		t.Fatalf("EraseSnapshot failed: %v", err)
	}

	got, err := s.LoadSnapshot("session-a")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("snapshot survived erase: %v", got)
	}
}

func TestCorruptSnapshotResetsToEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.db.Set(snapshotKey("session-a"), []byte("{not json"), pebble.Sync); err != nil {
		t.Fatalf("planting corrupt value failed: %v", err)
	}

	got, err := s.LoadSnapshot("session-a")
	if err != nil {
		t.Fatalf("LoadSnapshot should not propagate parse failures: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty snapshot after corruption, got %v", got)
	}
}
