package bot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/library/ext"
	"github.com/yola1107/fadu/library/work"
	"github.com/yola1107/fadu/pkg/codes"
	"github.com/yola1107/fadu/transport/websocket"
)

const stageInRound = "in_round"

var errNotConnected = errors.New("bot: not connected")

// Agent is one bot seat. It keeps the last public snapshot and its own hand, and acts when it holds the turn.
type Agent struct {
	id     string
	callAt int
	think  [2]time.Duration
	timer  work.Timer
	send   func(msg any) error
	client atomic.Pointer[websocket.Client]

	mu       sync.Mutex
	state    *v1.PublicState
	hand     []v1.Card
	hasDrawn bool
	dealt    bool
	acting   bool
	over     *v1.GameOver

	welcome chan struct{}
	done    chan struct{}
}

func NewAgent(id string, c *Config, timer work.Timer) *Agent {
	a := &Agent{
		id:      id,
		callAt:  c.CallAt,
		think:   [2]time.Duration{c.ThinkMin, c.ThinkMax},
		timer:   timer,
		welcome: make(chan struct{}),
		done:    make(chan struct{}),
	}
	a.send = a.request
	return a
}

func (a *Agent) ID() string { return a.id }

// SetClient binds the connection used for outbound actions.
func (a *Agent) SetClient(c *websocket.Client) {
	a.client.Store(c)
}

func (a *Agent) request(msg any) error {
	c := a.client.Load()
	if c == nil || !c.IsAlive() {
		return errNotConnected
	}
	return c.Send(msg)
}

// Result is the game_over frame, nil until the game ended.
func (a *Agent) Result() *v1.GameOver {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.over
}

// WaitWelcome blocks until the server accepted the seat.
func (a *Agent) WaitWelcome(ctx context.Context) error {
	select {
	case <-a.welcome:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until game_over arrives.
func (a *Agent) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnMessage is the websocket.MessageHandler of the agent's client.
func (a *Agent) OnMessage(data []byte) {
	typ, err := v1.PeekType(data)
	if err != nil {
		log.Warnf("bot %s: bad frame: %v", a.id, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch typ {
	case v1.TypeWelcome:
		var m v1.Welcome
		if a.decode(data, &m) {
			a.state = m.State
			select {
			case <-a.welcome:
			default:
				close(a.welcome)
			}
		}
	case v1.TypePrivateUpdate:
		var m v1.PrivateUpdate
		if a.decode(data, &m) {
			a.hand, a.hasDrawn, a.acting = m.Hand, m.HasDrawn, false
			a.dealt = true
			// the public update that follows a play moves the turn on
			if m.Outcome == v1.OutcomePlay && a.state != nil {
				a.state.TurnPlayerID = ""
			}
		}
	case v1.TypePublicUpdate:
		var m v1.PublicUpdate
		if a.decode(data, &m) && m.PublicState != nil {
			a.state = m.PublicState
			if m.TurnPlayerID != a.id {
				a.acting = false
			}
		}
	case v1.TypeGameOver:
		var m v1.GameOver
		if a.decode(data, &m) && a.over == nil {
			a.over = &m
			log.Infof("bot %s: game over. winners=%v scores=%v", a.id, m.Winners, m.Scores)
			close(a.done)
		}
		return
	case v1.TypeError:
		var m v1.ErrorMessage
		if a.decode(data, &m) {
			log.Warnf("bot %s: rejected. reason=%s msg=%q", a.id, m.Reason, m.Message)
			if m.Reason == codes.ErrAlreadyDrawn.Reason || m.Reason == codes.ErrIneligibleDraw.Reason {
				a.hasDrawn = true
			}
			a.acting = false
		}
	default:
		return
	}
	a.maybeAct()
}

func (a *Agent) decode(data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warnf("bot %s: decode failed: %v", a.id, err)
		return false
	}
	return true
}

// maybeAct schedules one action when the agent holds the turn. Caller holds mu.
func (a *Agent) maybeAct() {
	if a.acting || !a.dealt || a.over != nil || a.state == nil {
		return
	}
	if a.state.Stage != stageInRound || a.state.TurnPlayerID != a.id {
		return
	}

	act := Decide(a.hand, a.state.TableCard, a.hasDrawn, a.callAt)
	a.acting = true
	a.timer.Once(ext.RandInt(a.think[0], a.think[1]), func() {
		if err := a.send(act); err != nil {
			log.Warnf("bot %s: send %s failed: %v", a.id, act.Action, err)
			a.mu.Lock()
			a.acting = false
			a.mu.Unlock()
		}
	})
}
