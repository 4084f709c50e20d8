package table

import (
	"github.com/go-kratos/kratos/v2/log"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/biz/player"
	"github.com/yola1107/fadu/pkg/codes"
)

// Handle dispatches a decoded client action. Validation always precedes
// mutation: a returned error means the room state is unchanged, except for
// codes.ErrEmptyDeck which ends the round.
func (t *Table) Handle(playerID string, in *v1.Action) error {
	switch in.Action {
	case v1.ActionStart:
		if in.NumPlayers == nil || in.NumRounds == nil {
			return codes.ErrMalformedMessage
		}
		return t.Start(playerID, *in.NumPlayers, *in.NumRounds)
	case v1.ActionDrawCard:
		return t.DrawCard(playerID)
	case v1.ActionPlayCard:
		if in.CardIndex == nil {
			return codes.ErrMalformedMessage
		}
		return t.PlayCard(playerID, *in.CardIndex)
	case v1.ActionCall:
		return t.Call(playerID)
	default:
		return codes.ErrUnrecognizedAction
	}
}

// Start fixes the roster and deals the first round.
func (t *Table) Start(playerID string, numPlayers, numRounds int) error {
	t.mu.Lock()
	defer t.unlockAndFlush()

	if err := t.canStart(playerID, numPlayers, numRounds); err != nil {
		log.Debugf("Start rejected. player=%s numPlayers=%d numRounds=%d %s err=%v",
			playerID, numPlayers, numRounds, t.Desc(), err)
		return err
	}
	t.onStart(numRounds)
	return nil
}

func (t *Table) canStart(playerID string, numPlayers, numRounds int) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.stage.State != StAwaitingStart {
		return codes.ErrAlreadyStarted
	}
	if t.getPlayer(playerID) == nil {
		return codes.ErrUnknownPlayer
	}
	c := t.repo.GetRoomConfig()
	if numPlayers < c.MinPlayers || numPlayers > c.MaxPlayers {
		return codes.Errorf(codes.ErrInvalidStart, "numPlayers must be within [%d, %d], got %d",
			c.MinPlayers, c.MaxPlayers, numPlayers)
	}
	if numRounds < 1 {
		return codes.Errorf(codes.ErrInvalidStart, "numRounds must be at least 1, got %d", numRounds)
	}
	if numPlayers != len(t.seats) {
		return codes.Errorf(codes.ErrRosterMismatch, "numPlayers %d but %d seated", numPlayers, len(t.seats))
	}
	return nil
}

// DrawCard draws one card for the turn holder. Drawing is optional and allowed
// once per turn, and only when no card in hand matches the table card's value.
func (t *Table) DrawCard(playerID string) error {
	t.mu.Lock()
	defer t.unlockAndFlush()

	p, err := t.canDrawCard(playerID)
	if err != nil {
		log.Debugf("DrawCard rejected. player=%s %s err=%v", playerID, t.Desc(), err)
		return err
	}
	return t.onDrawCard(p)
}

func (t *Table) canDrawCard(playerID string) (*player.Player, error) {
	p, err := t.checkTurn(playerID)
	if err != nil {
		return nil, err
	}
	if t.hasDrawn {
		return nil, codes.ErrAlreadyDrawn
	}
	if p.HasValue(t.tableCard.Value) {
		return nil, codes.Errorf(codes.ErrIneligibleDraw, "hand holds a %d like the table card", t.tableCard.Value)
	}
	return p, nil
}

// PlayCard puts hand[cardIndex] on the table and passes the turn.
func (t *Table) PlayCard(playerID string, cardIndex int) error {
	t.mu.Lock()
	defer t.unlockAndFlush()

	p, err := t.checkTurn(playerID)
	if err != nil {
		log.Debugf("PlayCard rejected. player=%s index=%d %s err=%v", playerID, cardIndex, t.Desc(), err)
		return err
	}
	if cardIndex < 0 || cardIndex >= p.HandSize() {
		return codes.Errorf(codes.ErrInvalidCardIndex, "card index %d outside [0, %d)", cardIndex, p.HandSize())
	}
	t.onPlayCard(p, cardIndex)
	return nil
}

// Call ends the round on the turn holder's behalf and scores it.
func (t *Table) Call(playerID string) error {
	t.mu.Lock()
	defer t.unlockAndFlush()

	p, err := t.checkTurn(playerID)
	if err != nil {
		log.Debugf("Call rejected. player=%s %s err=%v", playerID, t.Desc(), err)
		return err
	}
	t.onCall(p)
	return nil
}

// StartNewRound skips a pending round end delay.
func (t *Table) StartNewRound() error {
	t.mu.Lock()
	defer t.unlockAndFlush()

	if err := t.checkOpen(); err != nil {
		return err
	}
	switch t.stage.State {
	case StAwaitingStart:
		return codes.ErrNotStarted
	case StInRound:
		return codes.ErrRoundInProgress
	case StGameEnded:
		return codes.ErrGameOver
	}
	t.repo.GetTimer().Cancel(t.stage.TimerID)
	t.startNewRound()
	return nil
}

// Attach binds a connection to playerID. Before the start an unseen player takes
// the next seat; afterwards only the roster may attach. A newer connection
// replaces the older one, which is closed.
func (t *Table) Attach(playerID string, s player.Session) error {
	t.mu.Lock()
	defer t.unlockAndFlush()

	if err := t.checkOpen(); err != nil {
		return err
	}

	p := t.getPlayer(playerID)
	if p == nil {
		if t.stage.State != StAwaitingStart {
			return codes.ErrUnknownPlayer
		}
		if len(t.seats) >= t.repo.GetRoomConfig().MaxPlayers {
			return codes.ErrRoomFull
		}
		p = player.New(playerID, len(t.seats))
		t.seats = append(t.seats, p)
		t.mLog.userEnter(p, len(t.seats))
	} else {
		t.mLog.userReEnter(p)
	}

	if old := p.Bind(s); old != nil && old.ID() != s.ID() {
		log.Infof("Replace connection. player=%s old=%s new=%s", playerID, old.ID(), s.ID())
		t.repo.GetExecutor().Post(func() { old.Close(false) })
	}
	t.cancelIdle()

	t.sendWelcome(p)
	t.sendPrivateUpdate(p, "")
	t.broadcastPlayerNotice(p, v1.TypePlayerJoined)
	t.broadcastPublicUpdateExcept(p)

	log.Infof("Attach. p=%s %s", p.Desc(), t.Desc())
	return nil
}

// Detach marks playerID disconnected if s is still its bound connection.
// The roster and the game are left untouched.
func (t *Table) Detach(playerID string, s player.Session) {
	t.mu.Lock()
	defer t.unlockAndFlush()

	if t.closed {
		return
	}
	p := t.getPlayer(playerID)
	if p == nil || p.GetSession() == nil || p.GetSession().ID() != s.ID() {
		return
	}
	p.Unbind()

	t.broadcastPlayerNotice(p, v1.TypePlayerLeft)
	t.broadcastPublicUpdateExcept(p)
	t.mLog.offline(p)
	log.Infof("Detach. p=%s %s stalled=%v", p.Desc(), t.Desc(), t.stalled())

	if t.connectedCount() == 0 {
		t.scheduleIdle()
	}
}

// seat places the roster in order. Only used on a fresh table.
func (t *Table) seat(roster []string) error {
	t.mu.Lock()
	defer t.unlockAndFlush()

	if len(roster) > t.repo.GetRoomConfig().MaxPlayers {
		return codes.Errorf(codes.ErrInvalidStart, "roster of %d exceeds %d players", len(roster), t.repo.GetRoomConfig().MaxPlayers)
	}
	seen := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		if id == "" {
			return codes.Errorf(codes.ErrInvalidStart, "empty player id in roster")
		}
		if _, ok := seen[id]; ok {
			return codes.Errorf(codes.ErrInvalidStart, "duplicate player %q in roster", id)
		}
		seen[id] = struct{}{}
	}
	for i, id := range roster {
		p := player.New(id, i)
		t.seats = append(t.seats, p)
		t.mLog.userEnter(p, len(t.seats))
	}
	t.scheduleIdle()
	return nil
}

// close tears the table down. With idleOnly it backs off while anyone is
// connected. remove runs under the room lock.
func (t *Table) close(idleOnly bool, remove func()) bool {
	t.mu.Lock()
	defer t.unlockAndFlush()

	if t.closed || (idleOnly && t.connectedCount() > 0) {
		return false
	}
	if remove != nil {
		remove()
	}
	t.shutdown()
	return true
}
