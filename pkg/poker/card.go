package poker

import "fmt"

// Suit represents a card suit.
type Suit uint8

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// String returns the suit's symbol.
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Rank represents a card rank. Ace is the lowest index so that the compact
// card encoding below stays stable on the wire.
type Rank uint8

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the rank's short form.
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if r >= Two && r <= Nine {
			return string(rune('1' + r))
		}
		return "?"
	}
}

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// Card is a playing card in the compact 0-51 encoding: rank = card mod 13,
// suit = card div 13. The encoding is bijective with the wire form and is
// what gets persisted and reported in queries.
type Card uint8

// NewCard builds a card from rank and suit.
func NewCard(r Rank, s Suit) Card {
	return Card(uint8(s)*13 + uint8(r))
}

// Rank returns the card's rank.
func (c Card) Rank() Rank {
	return Rank(c % 13)
}

// Suit returns the card's suit.
func (c Card) Suit() Suit {
	return Suit(c / 13)
}

// Valid reports whether the card is inside the 0-51 range.
func (c Card) Valid() bool {
	return c < DeckSize
}

// String returns a short human-readable form such as "A♥".
func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("card(%d)", uint8(c))
	}
	return c.Rank().String() + c.Suit().String()
}

// HoleCards are the two private cards dealt to a player for a hand.
type HoleCards [2]Card

// String returns both cards separated by a space.
func (h HoleCards) String() string {
	return h[0].String() + " " + h[1].String()
}
