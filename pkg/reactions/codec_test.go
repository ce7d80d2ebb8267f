package reactions_test

import (
	"reflect"
	"testing"

	"github.com/Teyk0o/wwsnb/pkg/reactions"
)

func TestDecodeEntriesServerPush(t *testing.T) {
	// The exact payload shape a relay push carries.
	raw := `[["msg-1",[["👍",["alice"]]]]]`

	snap, err := reactions.DecodeEntries(raw)
	if err != nil {
		t.Fatalf("DecodeEntries failed: %v", err)
	}
	want := reactions.Snapshot{"msg-1": {"👍": {"alice"}}}
	if !reflect.DeepEqual(snap, want) {
		t.Errorf("decoded %v, want %v", snap, want)
	}
}

func TestEntriesRoundTrip(t *testing.T) {
	snap := reactions.Snapshot{
		"msg-1": {"👍": {"alice", "bob"}, "😂": {"carol"}},
		"msg-2": {"🔥": {"bob"}},
	}

	raw, err := reactions.EncodeEntries(snap)
	if err != nil {
		t.Fatalf("EncodeEntries failed: %v", err)
	}
	back, err := reactions.DecodeEntries(raw)
	if err != nil {
		t.Fatalf("DecodeEntries failed: %v", err)
	}
	if !reflect.DeepEqual(back, snap) {
		t.Errorf("round trip mismatch: %v vs %v", back, snap)
	}
}

func TestEncodeEntriesDeterministic(t *testing.T) {
	snap := reactions.Snapshot{
		"b": {"👍": {"alice"}},
		"a": {"🔥": {"bob"}, "👀": {"carol"}},
	}
	first, err := reactions.EncodeEntries(snap)
	if err != nil {
		t.Fatalf("EncodeEntries failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := reactions.EncodeEntries(snap)
		if err != nil {
			t.Fatalf("EncodeEntries failed: %v", err)
		}
		if again != first {
			t.Fatalf("encoding not deterministic: %q vs %q", again, first)
		}
	}
}

func TestDecodeEntriesMalformed(t *testing.T) {
	cases := []string{
		"not json at all",
		`{"an":"object"}`,
		`[["msg-1"]]`,
		`[[42,[["👍",["alice"]]]]]`,
		`[["msg-1",[["👍","alice"]]]]`,
	}
	for _, raw := range cases {
		if _, err := reactions.DecodeEntries(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestDecodeEntriesDropsEmpty(t *testing.T) {
	snap, err := reactions.DecodeEntries(`[["msg-1",[["👍",[]]]],["msg-2",[]]]`)
	if err != nil {
		t.Fatalf("DecodeEntries failed: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("empty entries should be discarded, got %v", snap)
	}
}

func TestObjectRoundTrip(t *testing.T) {
	snap := reactions.Snapshot{"msg-1": {"👍": {"alice"}}}

	data, err := reactions.EncodeObject(snap)
	if err != nil {
		t.Fatalf("EncodeObject failed: %v", err)
	}
	back, err := reactions.DecodeObject(data)
	if err != nil {
		t.Fatalf("DecodeObject failed: %v", err)
	}
	if !reflect.DeepEqual(back, snap) {
		t.Errorf("round trip mismatch: %v vs %v", back, snap)
	}
}
