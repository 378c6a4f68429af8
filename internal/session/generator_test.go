package session

import (
	"math/rand"
	"regexp"
	"testing"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9]{5}[0-9]{5}$`)

func TestNewIDFormat(t *testing.T) {
	g := NewGenerator(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		id := g.NewID()
		if len(id) != Length {
			t.Fatalf("NewID() length = %d, want %d", len(id), Length)
		}
		if !idPattern.MatchString(id) {
			t.Fatalf("NewID() = %q, does not match %s", id, idPattern)
		}
	}
}

func TestNewIDNoDuplicates(t *testing.T) {
	g := NewGenerator(rand.NewSource(7))

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := g.NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id %q after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestNewIDDeterministicForSeed(t *testing.T) {
	a := NewGenerator(rand.NewSource(99))
	b := NewGenerator(rand.NewSource(99))

	for i := 0; i < 10; i++ {
		if ida, idb := a.NewID(), b.NewID(); ida != idb {
			t.Fatalf("same seed diverged: %q vs %q", ida, idb)
		}
	}
}

func TestDefaultGeneratorsDiverge(t *testing.T) {
	// Two independent pushes must never share an id by construction.
	g := Default()
	if g.NewID() == g.NewID() {
		t.Error("consecutive ids from one generator are equal")
	}
}
