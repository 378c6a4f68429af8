// Package session generates the opaque identifiers that correlate one
// firmware-push attempt with every update-log envelope the device emits
// for it.
//
// A session id is generated exactly once, at push time, and is never
// recomputed or derived from content — two pushes of the same firmware to
// the same device always get distinct ids. Collision probability at the
// expected volume (tens of sessions per device per year) is accepted as
// negligible; the ids are not security tokens.
package session

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// ID format constants.
const (
	// alphanumericLen is the number of leading alphanumeric characters.
	alphanumericLen = 5

	// digitLen is the number of trailing decimal digits.
	digitLen = 5

	// Length is the total length of a generated session id.
	Length = alphanumericLen + digitLen
)

const (
	alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	digits        = "0123456789"
)

// Generator produces session ids from a pseudo-random source.
//
// All methods are safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a Generator backed by the given source.
// Pass a fixed-seed source in tests for reproducible output.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Default creates a Generator seeded from the current time.
func Default() *Generator {
	return NewGenerator(rand.NewSource(time.Now().UnixNano()))
}

// NewID returns a fresh session id: five characters drawn uniformly from
// the 62-symbol alphanumeric alphabet followed by five uniformly random
// decimal digits, e.g. "Ab3Kf12345".
func (g *Generator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(Length)
	for range alphanumericLen {
		b.WriteByte(alphanumerics[g.rnd.Intn(len(alphanumerics))])
	}
	for range digitLen {
		b.WriteByte(digits[g.rnd.Intn(len(digits))])
	}
	return b.String()
}
