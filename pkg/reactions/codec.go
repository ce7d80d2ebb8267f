package reactions

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/tidwall/gjson"
)

// Two encodings of the same snapshot exist. The wire carries the entries
// form, a JSON array of [messageID, [[emoji, [user...]], ...]] pairs,
// serialized to a string and nested inside the envelope. Storage keeps
// the object form, a plain nested JSON object. Both are emitted in
// lexicographic key order so equal snapshots encode identically.

var errBadEntries = errors.New("reactions: malformed entries payload")

// EncodeEntries serializes a snapshot to the wire entries form.
func EncodeEntries(snap Snapshot) (string, error) {
	messageIDs := make([]string, 0, len(snap))
	for id := range snap {
		messageIDs = append(messageIDs, id)
	}
	sort.Strings(messageIDs)

	entries := make([]any, 0, len(messageIDs))
	for _, id := range messageIDs {
		set := snap[id]
		emojis := make([]string, 0, len(set))
		for e := range set {
			emojis = append(emojis, e)
		}
		sort.Strings(emojis)

		pairs := make([]any, 0, len(emojis))
		for _, e := range emojis {
			pairs = append(pairs, [2]any{e, set[e]})
		}
		entries = append(entries, [2]any{id, pairs})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeEntries parses the wire entries form back into a snapshot.
// Structurally invalid payloads return an error; the caller resets to
// empty rather than propagating.
func DecodeEntries(raw string) (Snapshot, error) {
	if !gjson.Valid(raw) {
		return nil, errBadEntries
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, errBadEntries
	}

	snap := make(Snapshot)
	var bad bool
	parsed.ForEach(func(_, entry gjson.Result) bool {
		pair := entry.Array()
		if len(pair) != 2 || pair[0].Type != gjson.String || !pair[1].IsArray() {
			bad = true
			return false
		}
		messageID := pair[0].String()
		set := make(map[string][]string)
		pair[1].ForEach(func(_, emojiEntry gjson.Result) bool {
			emojiPair := emojiEntry.Array()
			if len(emojiPair) != 2 || emojiPair[0].Type != gjson.String || !emojiPair[1].IsArray() {
				bad = true
				return false
			}
			var users []string
			emojiPair[1].ForEach(func(_, user gjson.Result) bool {
				users = append(users, user.String())
				return true
			})
			if len(users) > 0 {
				set[emojiPair[0].String()] = users
			}
			return true
		})
		if len(set) > 0 {
			snap[messageID] = set
		}
		return !bad
	})
	if bad {
		return nil, errBadEntries
	}
	return snap, nil
}

// EncodeObject serializes a snapshot to the storage object form.
func EncodeObject(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// DecodeObject parses the storage object form.
func DecodeObject(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = make(Snapshot)
	}
	return snap, nil
}
