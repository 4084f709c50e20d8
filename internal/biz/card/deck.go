package card

import (
	"math/rand/v2"

	"github.com/yola1107/fadu/pkg/codes"
)

// ErrEmptyDeck is returned by Draw on an empty deck.
var ErrEmptyDeck = codes.ErrEmptyDeck

// Deck is an ordered pile of cards. The top is the last element.
type Deck struct {
	cards []Card
}

// NewDeck builds the full 52 card deck, suit by suit, values ascending.
func NewDeck() *Deck {
	cards := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for v := MinValue; v <= MaxValue; v++ {
			cards = append(cards, Card{Suit: s, Value: v})
		}
	}
	return &Deck{cards: cards}
}

// NewDeckFrom builds a deck over a copy of cards.
func NewDeckFrom(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Shuffle permutes the deck in place (Fisher-Yates).
func (d *Deck) Shuffle(rng *rand.Rand) {
	Shuffle(d.cards, rng)
}

func Shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	n := len(d.cards)
	if n == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := d.cards[n-1]
	d.cards = d.cards[:n-1]
	return c, nil
}

// DrawN draws up to n cards, fewer when the deck runs out.
func (d *Deck) DrawN(n int) []Card {
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c, err := d.Draw()
		if err != nil {
			break
		}
		out = append(out, c)
	}
	return out
}

func (d *Deck) Len() int {
	return len(d.cards)
}

func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy, bottom first.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}
