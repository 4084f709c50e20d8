package table

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/samber/lo"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/biz/card"
	"github.com/yola1107/fadu/internal/biz/player"
)

type packet struct {
	playerID string
	session  player.Session
	data     []byte
}

// unlockAndFlush releases the room lock and delivers what was queued under it.
// sendMu is taken before mu is released so batches leave in action order.
func (t *Table) unlockAndFlush() {
	out := t.outbox
	t.outbox = nil
	t.sendMu.Lock()
	t.mu.Unlock()
	defer t.sendMu.Unlock()

	for _, pkt := range out {
		if err := pkt.session.Send(pkt.data); err != nil {
			log.Warnf("send to player failed, dropping connection. room=%s player=%s session=%s err=%v",
				t.ID, pkt.playerID, pkt.session.ID(), err)
			s := pkt.session
			t.repo.GetExecutor().Post(func() { s.Close(false) })
		}
	}
}

func (t *Table) enqueue(p *player.Player, data []byte) {
	if p == nil {
		return
	}
	session := p.GetSession()
	if session == nil {
		return
	}
	t.outbox = append(t.outbox, packet{playerID: p.GetPlayerID(), session: session, data: data})
}

func marshal(msg any) []byte {
	data, err := v1.Marshal(msg)
	if err != nil {
		log.Errorf("marshal %T failed: %v", msg, err)
		return nil
	}
	return data
}

func (t *Table) SendPacketToClient(p *player.Player, msg any) {
	if data := marshal(msg); data != nil {
		t.enqueue(p, data)
	}
}

func (t *Table) SendPacketToAll(msg any) {
	t.SendPacketToAllExcept(msg, "")
}

// SendPacketToAllExcept encodes msg once and queues it for every seated player but playerID.
func (t *Table) SendPacketToAllExcept(msg any, playerID string) {
	data := marshal(msg)
	if data == nil {
		return
	}
	for _, p := range t.seats {
		if p.GetPlayerID() == playerID {
			continue
		}
		t.enqueue(p, data)
	}
}

func toWireCard(c card.Card) v1.Card {
	return v1.Card{Suit: string(c.Suit), Value: c.Value}
}

func toWireCards(cs []card.Card) []v1.Card {
	return lo.Map(cs, func(c card.Card, _ int) v1.Card { return toWireCard(c) })
}

// snapshot is the public view of the room, identical for every recipient.
func (t *Table) snapshot() *v1.PublicState {
	st := &v1.PublicState{
		RoomID:      t.ID,
		Stage:       t.stage.State.String(),
		Round:       t.round,
		TotalRounds: t.totalRounds,
		DeckSize:    t.deck.Len(),
		PileSize:    len(t.pile),
		HasDrawn:    t.hasDrawn,
		Stalled:     t.stalled(),
		Scores:      t.scores(),
		HandSizes:   lo.SliceToMap(t.seats, func(p *player.Player) (string, int) { return p.GetPlayerID(), p.HandSize() }),
		Players: lo.Map(t.seats, func(p *player.Player, _ int) v1.PlayerInfo {
			return v1.PlayerInfo{
				PlayerID:  p.GetPlayerID(),
				ChairID:   p.GetChairID(),
				HandSize:  p.HandSize(),
				Score:     p.GetScore(),
				Connected: !p.IsOffline(),
			}
		}),
		Winners: t.winners,
	}
	if t.stage.State != StAwaitingStart {
		tc := toWireCard(t.tableCard)
		st.TableCard = &tc
	}
	if p := t.GetActivePlayer(); p != nil && t.stage.State == StInRound {
		st.TurnPlayerID = p.GetPlayerID()
	}
	return st
}

// Snapshot returns the public state of the room.
func (t *Table) Snapshot() *v1.PublicState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Table) sendWelcome(p *player.Player) {
	t.SendPacketToClient(p, &v1.Welcome{
		Type:     v1.TypeWelcome,
		Message:  fmt.Sprintf("Welcome to room %s!", t.ID),
		PlayerID: p.GetPlayerID(),
		RoomID:   t.ID,
		State:    t.snapshot(),
	})
}

// sendPrivateUpdate goes to the hand owner only.
func (t *Table) sendPrivateUpdate(p *player.Player, outcome string) {
	t.SendPacketToClient(p, &v1.PrivateUpdate{
		Type:     v1.TypePrivateUpdate,
		Hand:     toWireCards(p.Hand()),
		HasDrawn: t.hasDrawn && t.GetActivePlayer() == p,
		Outcome:  outcome,
	})
}

func (t *Table) sendPrivateUpdateAll(outcome string) {
	for _, p := range t.seats {
		t.sendPrivateUpdate(p, outcome)
	}
}

func (t *Table) publicUpdate() *v1.PublicUpdate {
	return &v1.PublicUpdate{
		Type:        v1.TypePublicUpdate,
		PublicState: t.snapshot(),
		LastAction:  t.lastAction,
	}
}

func (t *Table) broadcastPublicUpdate() {
	t.SendPacketToAll(t.publicUpdate())
}

func (t *Table) broadcastPublicUpdateExcept(p *player.Player) {
	t.SendPacketToAllExcept(t.publicUpdate(), p.GetPlayerID())
}

// broadcastPlayerNotice tells the others that p joined or left.
func (t *Table) broadcastPlayerNotice(p *player.Player, typ string) {
	t.SendPacketToAllExcept(&v1.PlayerNotice{
		Type:      typ,
		PlayerID:  p.GetPlayerID(),
		Connected: !p.IsOffline(),
	}, p.GetPlayerID())
}

func (t *Table) broadcastRoundResult(caller *player.Player, handValues, awarded map[string]int) {
	msg := &v1.RoundResult{
		Type:       v1.TypeRoundResult,
		Round:      t.round,
		HandValues: handValues,
		Awarded:    awarded,
		Scores:     t.scores(),
	}
	if caller != nil {
		msg.CallerID = caller.GetPlayerID()
	}
	t.SendPacketToAll(msg)
}

func (t *Table) broadcastGameOver() {
	t.SendPacketToAll(&v1.GameOver{
		Type:    v1.TypeGameOver,
		Winners: t.winners,
		Scores:  t.scores(),
	})
}
