package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yola1107/fadu/internal/biz/card"
)

type stubSession struct{ id string }

func (s *stubSession) ID() string        { return s.id }
func (s *stubSession) Send([]byte) error { return nil }
func (s *stubSession) Close(bool) bool   { return true }

func TestHand(t *testing.T) {
	p := New("alice", 0)
	src := []card.Card{{Suit: card.Hearts, Value: 2}, {Suit: card.Clubs, Value: 9}}
	p.SetHand(src)
	src[0].Value = 13
	assert.Equal(t, 2, p.Hand()[0].Value)

	p.AddCard(card.Card{Suit: card.Spades, Value: 4})
	assert.Equal(t, 3, p.HandSize())
	assert.Equal(t, 15, p.HandValue())
	assert.True(t, p.HasValue(9))

	c := p.RemoveCard(1)
	assert.Equal(t, card.Card{Suit: card.Clubs, Value: 9}, c)
	assert.Equal(t, []card.Card{{Suit: card.Hearts, Value: 2}, {Suit: card.Spades, Value: 4}}, p.Hand())
}

func TestScoreNeverDecreases(t *testing.T) {
	p := New("bob", 1)
	p.AddScore(2)
	p.AddScore(-5)
	p.AddScore(0)
	assert.Equal(t, 2, p.GetScore())
}

func TestBind(t *testing.T) {
	p := New("carol", 2)
	assert.True(t, p.IsOffline())

	first := &stubSession{id: "s1"}
	assert.Nil(t, p.Bind(first))
	assert.False(t, p.IsOffline())

	old := p.Bind(&stubSession{id: "s2"})
	assert.Equal(t, first, old)
	assert.Equal(t, "s2", p.GetSession().ID())

	p.Unbind()
	assert.True(t, p.IsOffline())
	assert.Contains(t, p.Desc(), "offline:true")
}
