package identity_test

import (
	"testing"

	"github.com/Teyk0o/wwsnb/pkg/identity"
)

func TestDeriveIsDeterministic(t *testing.T) {
	a := identity.Derive("alice", "hello world", "10:42")
	b := identity.Derive("alice", "hello world", "10:42")
	if a != b {
		t.Errorf("same triple produced different identities: %q vs %q", a, b)
	}
}

func TestDeriveDistinguishesTriples(t *testing.T) {
	base := identity.Derive("alice", "hello world", "10:42")
	cases := [][3]string{
		{"bob", "hello world", "10:42"},
		{"alice", "hello there", "10:42"},
		{"alice", "hello world", "10:43"},
	}
	for _, c := range cases {
		if got := identity.Derive(c[0], c[1], c[2]); got == base {
			t.Errorf("triple %v collided with base identity %q", c, base)
		}
	}
}

func TestDeriveShape(t *testing.T) {
	id := identity.Derive("a long author name", "a fairly long message body that pads the encoding", "12:00")
	if len(id) != identity.Length {
		t.Fatalf("expected length %d, got %d (%q)", identity.Length, len(id), id)
	}
	for _, r := range id {
		alnum := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			t.Fatalf("identity contains non-alphanumeric rune %q in %q", r, id)
		}
	}
}

func TestDeriveEmptyInputs(t *testing.T) {
	// Missing sub-elements default to empty strings; derivation must
	// still succeed and stay deterministic.
	a := identity.Derive("", "", "")
	b := identity.Derive("", "", "")
	if a != b {
		t.Errorf("empty triple not deterministic: %q vs %q", a, b)
	}
	if a == "" {
		t.Error("empty triple produced empty identity")
	}
}
