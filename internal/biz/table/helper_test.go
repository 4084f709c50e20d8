package table

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/biz/card"
	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/library/work"
)

type syncExecutor struct{}

func (syncExecutor) Post(job func()) { job() }

type fakeTimer struct {
	mu    sync.Mutex
	seq   int64
	tasks map[int64]func()
	delay map[int64]time.Duration
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{tasks: map[int64]func(){}, delay: map[int64]time.Duration{}}
}

func (f *fakeTimer) Once(d time.Duration, fn func()) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.tasks[f.seq] = fn
	f.delay[f.seq] = d
	return f.seq
}

func (f *fakeTimer) Cancel(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, id)
	delete(f.delay, id)
}

func (f *fakeTimer) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// FireAll runs every pending task as if its delay had elapsed.
func (f *fakeTimer) FireAll() {
	f.mu.Lock()
	tasks := f.tasks
	f.tasks = map[int64]func(){}
	f.delay = map[int64]time.Duration{}
	f.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

// FireUpTo runs the pending tasks whose delay is at most d.
func (f *fakeTimer) FireUpTo(d time.Duration) int {
	f.mu.Lock()
	var due []func()
	for id, fn := range f.tasks {
		if f.delay[id] <= d {
			due = append(due, fn)
			delete(f.tasks, id)
			delete(f.delay, id)
		}
	}
	f.mu.Unlock()
	for _, fn := range due {
		fn()
	}
	return len(due)
}

type fakeRepo struct {
	room    *conf.Room
	timer   *fakeTimer
	mu      sync.Mutex
	seed    uint64
	results []*Result
}

var _ Repo = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	room := conf.DefaultRoom()
	room.RoundEndDelay = 0
	room.Shards = 4
	return &fakeRepo{room: room, timer: newFakeTimer(), seed: 42}
}

func (r *fakeRepo) GetRoomConfig() *conf.Room  { return r.room }
func (r *fakeRepo) GetTimer() work.Timer       { return r.timer }
func (r *fakeRepo) GetExecutor() work.Executor { return syncExecutor{} }

func (r *fakeRepo) NewRand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seed++
	return rand.New(rand.NewPCG(r.seed, r.seed*31))
}

func (r *fakeRepo) SaveResult(res *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *fakeRepo) Results() []*Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Result(nil), r.results...)
}

type fakeSession struct {
	id       string
	mu       sync.Mutex
	msgs     [][]byte
	closed   bool
	failSend bool
}

func newSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return errors.New("send buffer full")
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *fakeSession) Close(bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasOpen := !s.closed
	s.closed = true
	return wasOpen
}

func (s *fakeSession) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
}

func (s *fakeSession) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.msgs))
	for _, m := range s.msgs {
		typ, _ := v1.PeekType(m)
		out = append(out, typ)
	}
	return out
}

// Raw returns every frame of type typ.
func (s *fakeSession) Raw(typ string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]byte
	for _, m := range s.msgs {
		if got, _ := v1.PeekType(m); got == typ {
			out = append(out, m)
		}
	}
	return out
}

func lastOf[T any](t *testing.T, s *fakeSession, typ string) *T {
	t.Helper()
	frames := s.Raw(typ)
	require.NotEmpty(t, frames, "no %s frame for %s", typ, s.id)
	var v T
	require.NoError(t, json.Unmarshal(frames[len(frames)-1], &v))
	return &v
}

// newStartedTable seats players in order and starts a game of rounds rounds.
func newStartedTable(t *testing.T, repo *fakeRepo, rounds int, players ...string) *Table {
	t.Helper()
	tb, err := NewManager(repo).CreateSession("room-1", players, rounds)
	require.NoError(t, err)
	return tb
}

// setHand replaces a hand for scoring tests. The card count invariant is not kept.
func setHand(tb *Table, playerID string, values ...int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	hand := make([]card.Card, 0, len(values))
	for _, v := range values {
		hand = append(hand, card.Card{Suit: card.Hearts, Value: v})
	}
	tb.getPlayer(playerID).SetHand(hand)
}

// makeDrawEligible swaps the table card with a deck card whose value is absent from the hand.
func makeDrawEligible(t *testing.T, tb *Table, playerID string) {
	t.Helper()
	swapTableCard(t, tb, func(hand []card.Card, c card.Card) bool { return !card.HasValue(hand, c.Value) }, playerID)
}

// makeDrawIneligible swaps the table card with a deck card whose value is in the hand.
func makeDrawIneligible(t *testing.T, tb *Table, playerID string) {
	t.Helper()
	swapTableCard(t, tb, func(hand []card.Card, c card.Card) bool { return card.HasValue(hand, c.Value) }, playerID)
}

func swapTableCard(t *testing.T, tb *Table, want func([]card.Card, card.Card) bool, playerID string) {
	t.Helper()
	tb.mu.Lock()
	defer tb.mu.Unlock()

	hand := tb.getPlayer(playerID).Hand()
	if want(hand, tb.tableCard) {
		return
	}
	cards := tb.deck.Cards()
	for i, c := range cards {
		if want(hand, c) {
			cards[i], tb.tableCard = tb.tableCard, c
			tb.deck = card.NewDeckFrom(cards)
			return
		}
	}
	t.Fatalf("no suitable deck card for %s", playerID)
}
