// Package bot plays Fadu over the websocket protocol. It drives load tests and demo rooms.
package bot

import (
	"github.com/samber/lo"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
)

// HandValue sums the face values of hand.
func HandValue(hand []v1.Card) int {
	return lo.SumBy(hand, func(c v1.Card) int { return c.Value })
}

// CanDraw reports whether the server would accept a draw: the hand must not hold the table card's value.
func CanDraw(hand []v1.Card, tableCard *v1.Card) bool {
	if tableCard == nil {
		return false
	}
	return !lo.ContainsBy(hand, func(c v1.Card) bool { return c.Value == tableCard.Value })
}

// Decide picks the turn holder's next action.
// 手牌点数不超过 callAt 时叫牌; 能摸牌先摸牌; 否则打出点数最大的牌
func Decide(hand []v1.Card, tableCard *v1.Card, hasDrawn bool, callAt int) *v1.Action {
	if len(hand) == 0 || HandValue(hand) <= callAt {
		return v1.NewCall()
	}
	if !hasDrawn && CanDraw(hand, tableCard) {
		return v1.NewDrawCard()
	}

	best := 0
	for i, c := range hand {
		if c.Value > hand[best].Value {
			best = i
		}
	}
	return v1.NewPlayCard(best)
}
