// Package txid produces the short transaction identifiers records are
// addressed by.
package txid

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/dvloznov/finance-bot/internal/store"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the fixed identifier length.
const Length = 4

// maxAttempts caps collision re-rolls. The id space holds 36^4 ≈ 1.68M
// values, so hitting the cap means the table is pathologically full or the
// store is misbehaving.
const maxAttempts = 50

// ErrExhausted is returned when every candidate collided with a live record.
var ErrExhausted = errors.New("transaction id generation exhausted")

// Generator draws candidate ids and re-rolls until one does not collide with
// any live record in the store.
type Generator struct {
	store store.RecordStore
	intN  func(n int) int
}

// New creates a Generator backed by the default random source.
func New(st store.RecordStore) *Generator {
	return &Generator{store: st, intN: rand.IntN}
}

// NewWithSource creates a Generator with an injected random source.
// Tests use this to force collisions.
func NewWithSource(st store.RecordStore, intN func(n int) int) *Generator {
	return &Generator{store: st, intN: intN}
}

// Generate returns a fresh identifier that is not present in the store.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := g.roll()

		existing, err := g.store.LookupByKey(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("Generate: checking candidate %q: %w", candidate, err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func (g *Generator) roll() string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		b.WriteByte(alphabet[g.intN(len(alphabet))])
	}
	return b.String()
}

// IsValid reports whether s has the shape of a transaction id: exactly four
// characters drawn from the generator's alphabet.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
