package card

import (
	"math/rand/v2"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	d := NewDeck()
	require.Equal(t, DeckSize, d.Len())

	cards := d.Cards()
	assert.Equal(t, Card{Suit: Hearts, Value: 1}, cards[0])
	assert.Equal(t, Card{Suit: Hearts, Value: 13}, cards[12])
	assert.Equal(t, Card{Suit: Diamonds, Value: 1}, cards[13])
	assert.Equal(t, Card{Suit: Spades, Value: 13}, cards[51])

	seen := make(map[Card]struct{}, DeckSize)
	for _, c := range cards {
		assert.True(t, c.Valid(), c.String())
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, DeckSize)
}

func TestShuffleIsBijection(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		d := NewDeck()
		before := d.Cards()
		d.Shuffle(rng)
		after := d.Cards()
		assert.ElementsMatch(t, before, after)
	}
}

func TestShuffleDeterministic(t *testing.T) {
	a, b := NewDeck(), NewDeck()
	a.Shuffle(rand.New(rand.NewPCG(7, 7)))
	b.Shuffle(rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a.Cards(), b.Cards())
	assert.NotEqual(t, NewDeck().Cards(), a.Cards())
}

func TestDraw(t *testing.T) {
	t.Run("pops from the end", func(t *testing.T) {
		d := NewDeck()
		c, err := d.Draw()
		require.NoError(t, err)
		assert.Equal(t, Card{Suit: Spades, Value: 13}, c)
		assert.Equal(t, DeckSize-1, d.Len())
	})

	t.Run("empty deck", func(t *testing.T) {
		d := NewDeckFrom(nil)
		_, err := d.Draw()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyDeck))
	})

	t.Run("draw n stops at empty", func(t *testing.T) {
		d := NewDeckFrom([]Card{{Hearts, 1}, {Hearts, 2}})
		got := d.DrawN(5)
		assert.Equal(t, []Card{{Hearts, 2}, {Hearts, 1}}, got)
		assert.True(t, d.IsEmpty())
	})
}

func TestHandHelpers(t *testing.T) {
	hand := []Card{{Hearts, 3}, {Clubs, 10}, {Spades, 1}}
	assert.Equal(t, 14, HandValue(hand))
	assert.Equal(t, 0, HandValue(nil))
	assert.True(t, HasValue(hand, 10))
	assert.False(t, HasValue(hand, 11))
	assert.Equal(t, "Clubs-10", hand[1].String())
	assert.False(t, Card{Suit: "Stars", Value: 1}.Valid())
	assert.False(t, Card{Suit: Hearts, Value: 14}.Valid())
}
