package card

import (
	"fmt"

	"github.com/samber/lo"
)

type Suit string

const (
	Hearts   Suit = "Hearts"
	Diamonds Suit = "Diamonds"
	Clubs    Suit = "Clubs"
	Spades   Suit = "Spades"
)

// Suits in deck build order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

const (
	MinValue = 1
	MaxValue = 13
	DeckSize = 52
)

// Card is a comparable value; two cards are equal when suit and value match.
type Card struct {
	Suit  Suit `json:"suit"`
	Value int  `json:"value"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s-%d", c.Suit, c.Value)
}

func (c Card) Valid() bool {
	return lo.Contains(Suits, c.Suit) && c.Value >= MinValue && c.Value <= MaxValue
}

// HandValue is the sum of card values.
func HandValue(cards []Card) int {
	return lo.SumBy(cards, func(c Card) int { return c.Value })
}

// HasValue reports whether any card in cards carries value v.
func HasValue(cards []Card, v int) bool {
	return lo.ContainsBy(cards, func(c Card) bool { return c.Value == v })
}
