package table

import (
	"math"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/samber/lo"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/biz/card"
	"github.com/yola1107/fadu/internal/biz/player"
)

/*
	游戏主逻辑, 调用方持有房间锁
*/

const defaultIdleGrace = 60 * time.Second

func (t *Table) updateStage(state StageID) {
	t.stage.Set(state)
	t.mLog.stage(t.stage.Desc(), t.round)
}

// onStart fixes the roster and deals the first round.
func (t *Table) onStart(numRounds int) {
	t.totalRounds = numRounds
	t.round = 0
	for _, p := range t.seats {
		p.SetGaming()
	}
	log.Infof("GameStart. %s players=%v", t.Desc(), logPlayers(t.seats))
	t.startNewRound()
}

// startNewRound deals the next round, or ends the game once the last round has been played.
func (t *Table) startNewRound() {
	if t.round >= t.totalRounds {
		t.gameEnd()
		return
	}

	c := t.repo.GetRoomConfig()
	t.round++
	t.deck = card.NewDeck()
	t.deck.Shuffle(t.rng)
	t.pile = nil
	for _, p := range t.seats {
		p.SetHand(t.deck.DrawN(c.HandSize))
	}
	t.tableCard, _ = t.deck.Draw()

	t.first = (t.round - 1) % len(t.seats)
	t.active = t.first
	t.hasDrawn = false
	t.lastAction = nil
	t.stage.TimerID = 0
	t.updateStage(StInRound)

	t.sendPrivateUpdateAll(v1.OutcomeDeal)
	t.broadcastPublicUpdate()

	t.mLog.begin(t.round, t.tableCard, t.seats)
	log.Debugf("RoundStart. %s table=%v first=%s", t.Desc(), t.tableCard, t.GetActivePlayer().GetPlayerID())
}

// drawFromDeck refills an empty deck from the discard pile. The table card stays put.
func (t *Table) drawFromDeck() (card.Card, error) {
	if t.deck.IsEmpty() && len(t.pile) > 0 {
		t.deck = card.NewDeckFrom(t.pile)
		t.deck.Shuffle(t.rng)
		t.pile = nil
		t.mLog.reshuffle(t.deck.Len())
		log.Debugf("Reshuffle. %s", t.Desc())
	}
	return t.deck.Draw()
}

func (t *Table) onDrawCard(p *player.Player) error {
	c, err := t.drawFromDeck()
	if err != nil {
		log.Warnf("DrawCard: deck and pile exhausted, ending round. p=%s %s", p.Desc(), t.Desc())
		t.mLog.exhausted(p)
		t.endRound(nil)
		return err
	}

	p.AddCard(c)
	t.hasDrawn = true
	t.lastAction = &v1.LastAction{PlayerID: p.GetPlayerID(), Action: v1.ActionDrawCard}

	t.sendPrivateUpdate(p, v1.OutcomeDraw)
	t.broadcastPublicUpdateExcept(p)

	t.mLog.draw(p, c, t.deck.Len())
	return nil
}

func (t *Table) onPlayCard(p *player.Player, index int) {
	c := p.RemoveCard(index)
	t.pile = append(t.pile, t.tableCard)
	t.tableCard = c
	wc := toWireCard(c)
	t.lastAction = &v1.LastAction{PlayerID: p.GetPlayerID(), Action: v1.ActionPlayCard, Card: &wc}

	t.active = t.NextChair(t.active)
	t.hasDrawn = false

	t.sendPrivateUpdate(p, v1.OutcomePlay)
	t.broadcastPublicUpdate()

	t.mLog.play(p, c, t.GetActivePlayer())
}

func (t *Table) onCall(p *player.Player) {
	t.lastAction = &v1.LastAction{PlayerID: p.GetPlayerID(), Action: v1.ActionCall}
	t.mLog.call(p)
	t.endRound(p)
}

// endRound scores the round. A nil caller means the round ended without a call.
func (t *Table) endRound(caller *player.Player) {
	sc := t.repo.GetRoomConfig().Scoring

	handValues := make(map[string]int, len(t.seats))
	awarded := make(map[string]int, len(t.seats))
	lowest := math.MaxInt
	for _, p := range t.seats {
		v := p.HandValue()
		handValues[p.GetPlayerID()] = v
		awarded[p.GetPlayerID()] = 0
		lowest = min(lowest, v)
	}

	minimal := lo.Filter(t.seats, func(p *player.Player, _ int) bool { return p.HandValue() == lowest })
	for _, p := range minimal {
		awarded[p.GetPlayerID()] += sc.LowestHandPoints
	}
	if caller != nil && len(minimal) == 1 && minimal[0] == caller {
		awarded[caller.GetPlayerID()] += sc.CallBonus
	}
	for _, p := range t.seats {
		p.AddScore(awarded[p.GetPlayerID()])
	}

	t.hasDrawn = false
	t.updateStage(StRoundEnding)
	t.broadcastRoundResult(caller, handValues, awarded)
	t.broadcastPublicUpdate()

	t.mLog.roundEnd(t.round, caller, handValues, awarded, t.scores())
	log.Infof("RoundEnd. %s values=%v awarded=%v", t.Desc(), handValues, awarded)

	delay := t.repo.GetRoomConfig().RoundEndDelay.Std()
	if delay <= 0 {
		t.startNewRound()
		return
	}
	t.stage.TimerID = t.repo.GetTimer().Once(delay, t.onRoundEndTimeout)
}

func (t *Table) onRoundEndTimeout() {
	t.mu.Lock()
	defer t.unlockAndFlush()

	if t.closed || t.stage.State != StRoundEnding {
		return
	}
	t.stage.TimerID = 0
	t.startNewRound()
}

func (t *Table) gameEnd() {
	t.updateStage(StGameEnded)
	t.active = -1

	scores := t.scores()
	best := lo.Max(lo.Values(scores))
	t.winners = lo.FilterMap(t.seats, func(p *player.Player, _ int) (string, bool) {
		return p.GetPlayerID(), p.GetScore() == best
	})

	t.broadcastGameOver()
	t.broadcastPublicUpdate()

	t.mLog.gameEnd(t.winners, scores)
	log.Infof("GameEnd. %s winners=%v scores=%v", t.Desc(), t.winners, scores)

	result := &Result{
		RoomID:     t.ID,
		Rounds:     t.totalRounds,
		Winners:    append([]string(nil), t.winners...),
		Scores:     scores,
		FinishedAt: time.Now(),
	}
	t.repo.GetExecutor().Post(func() { t.repo.SaveResult(result) })
}

func (t *Table) cancelIdle() {
	if t.idleTimer != 0 {
		t.repo.GetTimer().Cancel(t.idleTimer)
		t.idleTimer = 0
	}
}

// scheduleIdle arms teardown once nobody is connected.
func (t *Table) scheduleIdle() {
	t.cancelIdle()
	if t.onIdle == nil {
		return
	}
	grace := t.repo.GetRoomConfig().IdleGrace.Std()
	if grace <= 0 {
		grace = defaultIdleGrace
	}
	t.idleTimer = t.repo.GetTimer().Once(grace, t.onIdle)
}

// shutdown marks the table closed and drops every connection. Caller holds the lock.
func (t *Table) shutdown() {
	t.closed = true
	t.cancelIdle()
	if t.stage.TimerID != 0 {
		t.repo.GetTimer().Cancel(t.stage.TimerID)
		t.stage.TimerID = 0
	}
	t.outbox = nil
	for _, p := range t.seats {
		if s := p.GetSession(); s != nil {
			p.Unbind()
			t.repo.GetExecutor().Post(func() { s.Close(false) })
		}
	}
	t.mLog.close()
	log.Infof("TableClosed. %s", t.Desc())
}

func logPlayers(seats []*player.Player) []string {
	return lo.Map(seats, func(p *player.Player, _ int) string { return p.Desc() })
}
