package poker

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// SeedBytesPerDraw is how much of the seed a single draw consumes.
const SeedBytesPerDraw = 8

// SeedLen returns the seed length required to deal one full hand to the
// given number of players: two hole cards each plus five community cards.
func SeedLen(players int) int {
	return (2*players + 5) * SeedBytesPerDraw
}

// Deck is a deterministic card sequence derived from a single opaque seed.
// Draws are without replacement: the not-yet-drawn remainder is sampled
// uniformly with seed-derived randomness and the drawn card is swapped to
// the cursor position (the in-place Fisher-Yates draw). The seed is a
// single-use resource; it is consumed by the draws of one hand and never
// reused.
type Deck struct {
	cards  [DeckSize]Card
	cursor int
	seed   []byte
	offset int
}

// NewDeck builds a deck over the full 52-card set driven by seed. A seed
// that is empty or not a whole number of draw-sized chunks is malformed.
func NewDeck(seed []byte) (*Deck, error) {
	if len(seed) == 0 || len(seed)%SeedBytesPerDraw != 0 {
		return nil, fmt.Errorf("%w: seed length %d", ErrInsufficientEntropy, len(seed))
	}
	d := &Deck{seed: seed}
	for i := range d.cards {
		d.cards[i] = Card(i)
	}
	return d, nil
}

// Draw removes and returns one card chosen uniformly among the cards not
// yet drawn. It fails with ErrInsufficientEntropy once the seed is used up.
func (d *Deck) Draw() (Card, error) {
	if d.cursor >= DeckSize {
		return 0, fmt.Errorf("%w: all %d cards drawn", ErrInsufficientEntropy, DeckSize)
	}
	if d.offset+SeedBytesPerDraw > len(d.seed) {
		return 0, fmt.Errorf("%w: seed exhausted after %d draws", ErrInsufficientEntropy, d.cursor)
	}
	v := binary.BigEndian.Uint64(d.seed[d.offset:])
	d.offset += SeedBytesPerDraw

	remaining := DeckSize - d.cursor
	pick := d.cursor + int(v%uint64(remaining))
	d.cards[d.cursor], d.cards[pick] = d.cards[pick], d.cards[d.cursor]
	card := d.cards[d.cursor]
	d.cursor++
	return card, nil
}

// Drawn returns how many cards have been drawn so far.
func (d *Deck) Drawn() int {
	return d.cursor
}

// SeedSource supplies one opaque byte seed per hand, long enough to drive
// every draw that hand requires.
type SeedSource interface {
	HandSeed(draws int) ([]byte, error)
}

// SeedFunc adapts a plain function to a SeedSource.
type SeedFunc func(draws int) ([]byte, error)

// HandSeed implements SeedSource.
func (f SeedFunc) HandSeed(draws int) ([]byte, error) {
	return f(draws)
}

// CryptoSeedSource derives hand seeds from the operating system's CSPRNG.
type CryptoSeedSource struct{}

// HandSeed implements SeedSource.
func (CryptoSeedSource) HandSeed(draws int) ([]byte, error) {
	seed := make([]byte, draws*SeedBytesPerDraw)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientEntropy, err)
	}
	return seed, nil
}
