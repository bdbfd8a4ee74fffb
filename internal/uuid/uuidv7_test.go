package uuid

import (
	"sort"
	"testing"
	"time"

	googleuuid "github.com/google/uuid"
)

func TestNew_IsVersion7(t *testing.T) {
	id := New()
	parsed, err := googleuuid.Parse(id)
	if err != nil {
		t.Fatalf("expected a parseable UUID, got %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("expected version 7, got %d", parsed.Version())
	}
	if parsed.Variant() != googleuuid.RFC4122 {
		t.Errorf("expected RFC 4122 variant, got %v", parsed.Variant())
	}
}

func TestNew_MonotonicWithinSameMillisecond(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	g := &generator{now: func() time.Time { return frozen }}

	ids := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		ids = append(ids, g.next())
	}

	if !sort.StringsAreSorted(ids) {
		t.Fatal("expected ids generated in the same millisecond to sort in creation order")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNew_CounterOverflowBorrowsNextMillisecond(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	g := &generator{now: func() time.Time { return frozen }}

	prev := g.next()
	for i := 0; i < 5000; i++ {
		id := g.next()
		if id <= prev {
			t.Fatalf("id %s does not sort after %s", id, prev)
		}
		prev = id
	}
}

func TestParseAndIsValid(t *testing.T) {
	id := New()
	if !IsValid(id) {
		t.Errorf("expected %s to be valid", id)
	}
	if IsValid("not-a-uuid") {
		t.Error("expected garbage to be invalid")
	}
	normalized, err := Parse("0190A6E0-0000-7000-8000-000000000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if normalized != "0190a6e0-0000-7000-8000-000000000000" {
		t.Errorf("expected lower-case form, got %s", normalized)
	}
}
