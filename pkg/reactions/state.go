// Package reactions owns the canonical reaction state: which users
// reacted with which emoji on which message. The whole state is the unit
// of synchronization; the relay pushes full snapshots that replace it.
package reactions

import (
	"sort"
	"sync"
)

// Snapshot is the plain-map form of the full reaction state:
// message identity -> emoji -> reactor user IDs in reaction order.
type Snapshot = map[string]map[string][]string

// State is the in-process owner of the reaction table. It is constructed
// explicitly and handed to the components that need it; there is no
// ambient shared instance.
type State struct {
	mu        sync.RWMutex
	byMessage map[string]map[string][]string
}

func NewState() *State {
	return &State{byMessage: make(map[string]map[string][]string)}
}

// Toggle flips userID's reaction on (messageID, emoji): present -> removed,
// absent -> appended. Returns true when the reaction is present afterwards.
func (s *State) Toggle(messageID, emoji, userID string) bool {
	if s.Remove(messageID, emoji, userID) {
		return false
	}
	s.Add(messageID, emoji, userID)
	return true
}

// Add appends userID to the reactor list, preserving insertion order.
// A user appears at most once per emoji per message.
func (s *State) Add(messageID, emoji, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.byMessage[messageID]
	if !ok {
		set = make(map[string][]string)
		s.byMessage[messageID] = set
	}
	for _, u := range set[emoji] {
		if u == userID {
			return false
		}
	}
	set[emoji] = append(set[emoji], userID)
	return true
}

// Remove deletes userID's reaction. An emptied emoji entry is dropped,
// and an emptied message entry with it; no empty entries persist.
func (s *State) Remove(messageID, emoji, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.byMessage[messageID]
	if !ok {
		return false
	}
	users := set[emoji]
	for i, u := range users {
		if u != userID {
			continue
		}
		users = append(users[:i], users[i+1:]...)
		if len(users) == 0 {
			delete(set, emoji)
		} else {
			set[emoji] = users
		}
		if len(set) == 0 {
			delete(s.byMessage, messageID)
		}
		return true
	}
	return false
}

// UserReacted reports whether userID currently reacts with emoji on messageID.
func (s *State) UserReacted(messageID, emoji, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byMessage[messageID][emoji] {
		if u == userID {
			return true
		}
	}
	return false
}

// Message returns a copy of the reaction set for one message; nil when
// the message is unknown.
func (s *State) Message(messageID string) map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.byMessage[messageID]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(set))
	for emoji, users := range set {
		out[emoji] = append([]string(nil), users...)
	}
	return out
}

// Reactors returns a copy of the ordered reactor list for one emoji.
func (s *State) Reactors(messageID, emoji string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.byMessage[messageID][emoji]...)
}

// Emojis returns the emoji present on a message in lexicographic order.
func (s *State) Emojis(messageID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.byMessage[messageID]
	out := make([]string, 0, len(set))
	for emoji := range set {
		out = append(out, emoji)
	}
	sort.Strings(out)
	return out
}

// Snapshot deep-copies the full state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Snapshot, len(s.byMessage))
	for messageID, set := range s.byMessage {
		cp := make(map[string][]string, len(set))
		for emoji, users := range set {
			cp[emoji] = append([]string(nil), users...)
		}
		out[messageID] = cp
	}
	return out
}

// ReplaceAll overwrites the state with an incoming snapshot. Last write
// wins; no reconciliation with in-flight local changes is attempted.
// The snapshot is normalized on the way in: duplicate reactors are
// dropped and empty entries are discarded.
func (s *State) ReplaceAll(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byMessage = make(map[string]map[string][]string, len(snap))
	for messageID, set := range snap {
		cp := make(map[string][]string, len(set))
		for emoji, users := range set {
			var dedup []string
			for _, u := range users {
				seen := false
				for _, d := range dedup {
					if d == u {
						seen = true
						break
					}
				}
				if !seen {
					dedup = append(dedup, u)
				}
			}
			if len(dedup) > 0 {
				cp[emoji] = dedup
			}
		}
		if len(cp) > 0 {
			s.byMessage[messageID] = cp
		}
	}
}

// Len reports how many messages currently carry reactions.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMessage)
}
