package player

import (
	"fmt"

	"github.com/yola1107/fadu/internal/biz/card"
)

// Session is the outbound half of a participant connection.
type Session interface {
	ID() string
	Send(msg []byte) error
	Close(force bool) bool
}

type Status int32

const (
	StFree   Status = iota // seated, game not started
	StGaming               // in the roster of a running game
)

func (s Status) String() string {
	switch s {
	case StFree:
		return "Free"
	case StGaming:
		return "Gaming"
	default:
		return fmt.Sprintf("%d", s)
	}
}

type Player struct {
	id      string
	chairID int
	status  Status
	hand    []card.Card
	score   int
	session Session
}

func New(id string, chairID int) *Player {
	return &Player{id: id, chairID: chairID}
}

func (p *Player) GetPlayerID() string {
	return p.id
}

func (p *Player) GetChairID() int {
	return p.chairID
}

func (p *Player) GetStatus() Status {
	return p.status
}

func (p *Player) SetGaming() {
	p.status = StGaming
}

func (p *Player) IsGaming() bool {
	return p.status == StGaming
}

// Hand returns a copy of the cards held.
func (p *Player) Hand() []card.Card {
	return append([]card.Card(nil), p.hand...)
}

func (p *Player) HandSize() int {
	return len(p.hand)
}

func (p *Player) HandValue() int {
	return card.HandValue(p.hand)
}

func (p *Player) HasValue(v int) bool {
	return card.HasValue(p.hand, v)
}

// SetHand replaces the hand.
func (p *Player) SetHand(cards []card.Card) {
	p.hand = append(p.hand[:0:0], cards...)
}

func (p *Player) AddCard(c card.Card) {
	p.hand = append(p.hand, c)
}

// RemoveCard takes out the card at index. The caller checks the bounds.
func (p *Player) RemoveCard(index int) card.Card {
	c := p.hand[index]
	p.hand = append(p.hand[:index], p.hand[index+1:]...)
	return c
}

func (p *Player) GetScore() int {
	return p.score
}

// AddScore ignores non-positive amounts, scores never decrease.
func (p *Player) AddScore(points int) {
	if points > 0 {
		p.score += points
	}
}

func (p *Player) GetSession() Session {
	return p.session
}

// Bind attaches s and returns the session it replaced, if any.
func (p *Player) Bind(s Session) (old Session) {
	old, p.session = p.session, s
	return old
}

func (p *Player) Unbind() {
	p.session = nil
}

func (p *Player) IsOffline() bool {
	return p.session == nil
}

func (p *Player) Desc() string {
	return fmt.Sprintf("(%s chair:%d st:%v score:%d hand:%d offline:%v)",
		p.id, p.chairID, p.status, p.score, len(p.hand), p.IsOffline())
}
