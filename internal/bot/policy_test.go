package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
)

func cards(values ...int) []v1.Card {
	out := make([]v1.Card, len(values))
	for i, v := range values {
		out[i] = v1.Card{Suit: "Spades", Value: v}
	}
	return out
}

func TestDecide(t *testing.T) {
	table := &v1.Card{Suit: "Hearts", Value: 7}

	tests := []struct {
		name     string
		hand     []v1.Card
		hasDrawn bool
		want     *v1.Action
	}{
		{"low hand calls", cards(1, 2), false, v1.NewCall()},
		{"empty hand calls", nil, true, v1.NewCall()},
		{"draw when eligible", cards(9, 12, 3), false, v1.NewDrawCard()},
		{"play highest when hand matches table", cards(9, 7, 13, 2), false, v1.NewPlayCard(2)},
		{"play highest after drawing", cards(9, 12, 3, 11), true, v1.NewPlayCard(1)},
		{"first of equal values", cards(10, 10, 4), true, v1.NewPlayCard(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.hand, table, tt.hasDrawn, 5))
		})
	}
}

func TestCanDraw(t *testing.T) {
	assert.False(t, CanDraw(cards(1, 2), nil))
	assert.True(t, CanDraw(cards(1, 2), &v1.Card{Value: 3}))
	assert.False(t, CanDraw(cards(1, 3), &v1.Card{Value: 3}))
	assert.Equal(t, 6, HandValue(cards(1, 2, 3)))
}
