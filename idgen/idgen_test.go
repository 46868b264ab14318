package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7Sortable(t *testing.T) {
	gen := UUIDv7()
	a := gen()
	b := gen()

	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("not a uuid: %q", a)
	}
	if a == b {
		t.Fatal("generator produced duplicate IDs")
	}
	// v7 IDs embed a timestamp, so successive IDs sort ascending.
	if a >= b {
		t.Fatalf("ids not time-ordered: %q then %q", a, b)
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("run_", func() string { return "abc" })
	if got := gen(); got != "run_abc" {
		t.Fatalf("got %q", got)
	}
}

func TestNew(t *testing.T) {
	id := New()
	if id == "" || strings.Contains(id, " ") {
		t.Fatalf("bad id %q", id)
	}
}
