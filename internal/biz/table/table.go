package table

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/samber/lo"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/biz/card"
	"github.com/yola1107/fadu/internal/biz/player"
	"github.com/yola1107/fadu/pkg/codes"
)

// Table is the authoritative game session of one room. Every exported method
// takes the room lock; messages queued while it is held are delivered in order
// once it is released.
type Table struct {
	ID     string
	repo   Repo
	onIdle func()

	mu     sync.Mutex
	sendMu sync.Mutex
	outbox []packet

	closed    bool
	idleTimer int64
	stage     *Stage
	mLog      *Log
	rng       *rand.Rand

	// 游戏变量
	seats     []*player.Player
	deck      *card.Deck
	pile      []card.Card // 被覆盖的弃牌
	tableCard card.Card

	round       int
	totalRounds int
	active      int
	first       int
	hasDrawn    bool
	winners     []string
	lastAction  *v1.LastAction
}

func NewTable(id string, repo Repo) *Table {
	return &Table{
		ID:     id,
		repo:   repo,
		stage:  &Stage{},
		mLog:   NewTableLog(id, repo.GetRoomConfig().LogCache),
		rng:    repo.NewRand(),
		deck:   card.NewDeckFrom(nil),
		active: -1,
		first:  -1,
	}
}

func (t *Table) Desc() string {
	return fmt.Sprintf("(Room:%s St:%v Round:%d/%d Seats:%d Online:%d active:%d deck:%d pile:%d)",
		t.ID, t.stage.State, t.round, t.totalRounds, len(t.seats), t.connectedCount(), t.active, t.deck.Len(), len(t.pile))
}

func (t *Table) getPlayer(playerID string) *player.Player {
	p, _ := lo.Find(t.seats, func(p *player.Player) bool { return p.GetPlayerID() == playerID })
	return p
}

func (t *Table) GetPlayerByChair(chair int) *player.Player {
	if chair < 0 || chair >= len(t.seats) {
		return nil
	}
	return t.seats[chair]
}

func (t *Table) GetActivePlayer() *player.Player {
	return t.GetPlayerByChair(t.active)
}

// NextChair wraps around the fixed roster regardless of connection state.
func (t *Table) NextChair(chair int) int {
	return (chair + 1) % len(t.seats)
}

func (t *Table) connectedCount() int {
	return lo.CountBy(t.seats, func(p *player.Player) bool { return !p.IsOffline() })
}

func (t *Table) stalled() bool {
	if t.stage.State != StInRound {
		return false
	}
	p := t.GetActivePlayer()
	return p != nil && p.IsOffline()
}

func (t *Table) scores() map[string]int {
	return lo.SliceToMap(t.seats, func(p *player.Player) (string, int) { return p.GetPlayerID(), p.GetScore() })
}

// cardCount totals every card of the round: deck, hands, table card and pile.
func (t *Table) cardCount() int {
	if t.stage.State == StAwaitingStart {
		return 0
	}
	return t.deck.Len() + lo.SumBy(t.seats, (*player.Player).HandSize) + 1 + len(t.pile)
}

func (t *Table) checkOpen() error {
	if t.closed {
		return codes.ErrRoomNotFound
	}
	return nil
}

// checkTurn validates, in order, the stage, the player and the turn.
func (t *Table) checkTurn(playerID string) (*player.Player, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	switch t.stage.State {
	case StAwaitingStart:
		return nil, codes.ErrNotStarted
	case StGameEnded:
		return nil, codes.ErrGameOver
	}
	p := t.getPlayer(playerID)
	if p == nil {
		return nil, codes.ErrUnknownPlayer
	}
	if t.stage.State != StInRound {
		return nil, codes.Errorf(codes.ErrNotYourTurn, "round %d is ending", t.round)
	}
	if t.GetActivePlayer() != p {
		return nil, codes.ErrNotYourTurn
	}
	return p, nil
}

/*
	读接口: 加锁读取, 供服务层与测试使用
*/

func (t *Table) Stage() StageID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage.State
}

func (t *Table) Round() (round, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.round, t.totalRounds
}

func (t *Table) TurnPlayerID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p := t.GetActivePlayer(); p != nil && t.stage.State == StInRound {
		return p.GetPlayerID()
	}
	return ""
}

func (t *Table) TableCard() card.Card {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tableCard
}

func (t *Table) DeckSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deck.Len()
}

func (t *Table) PileSize() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pile)
}

func (t *Table) HasDrawn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasDrawn
}

// Stalled reports whether the turn holder is disconnected.
func (t *Table) Stalled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stalled()
}

func (t *Table) Hand(playerID string) ([]card.Card, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.getPlayer(playerID)
	if p == nil {
		return nil, codes.ErrUnknownPlayer
	}
	return p.Hand(), nil
}

func (t *Table) Scores() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scores()
}

func (t *Table) Winners() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.winners...)
}

// Players lists the seated player ids in turn order.
func (t *Table) Players() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lo.Map(t.seats, func(p *player.Player, _ int) string { return p.GetPlayerID() })
}

func (t *Table) CardCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cardCount()
}

func (t *Table) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
