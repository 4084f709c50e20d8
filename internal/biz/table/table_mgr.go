package table

import (
	"math/rand/v2"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/zhenjl/cityhash"

	"github.com/yola1107/fadu/internal/biz/player"
	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/library/work"
	"github.com/yola1107/fadu/pkg/codes"
)

// Repo is what a table needs from its environment.
type Repo interface {
	GetRoomConfig() *conf.Room
	GetTimer() work.Timer
	GetExecutor() work.Executor
	NewRand() *rand.Rand
	SaveResult(r *Result)
}

type shard struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// Manager maps room ids to tables. It owns nothing but the map; all game
// state lives in the tables.
type Manager struct {
	repo   Repo
	shards []*shard
}

func NewManager(repo Repo) *Manager {
	n := max(repo.GetRoomConfig().Shards, 1)
	m := &Manager{
		repo:   repo,
		shards: make([]*shard, n),
	}
	for i := range m.shards {
		m.shards[i] = &shard{tables: make(map[string]*Table)}
	}
	return m
}

func (m *Manager) shardOf(roomID string) *shard {
	h := cityhash.CityHash32([]byte(roomID), uint32(len(roomID)))
	return m.shards[h%uint32(len(m.shards))]
}

func (m *Manager) newTable(roomID string) *Table {
	t := NewTable(roomID, m.repo)
	t.onIdle = func() {
		if t.close(true, m.remover(roomID, t)) {
			log.Infof("Room torn down after idle grace. room=%s", roomID)
		}
	}
	return t
}

// remover drops t from its shard if it is still the registered table for roomID.
func (m *Manager) remover(roomID string, t *Table) func() {
	return func() {
		sh := m.shardOf(roomID)
		sh.mu.Lock()
		if sh.tables[roomID] == t {
			delete(sh.tables, roomID)
		}
		sh.mu.Unlock()
	}
}

// CreateSession seats roster in order and starts a game of rounds rounds.
func (m *Manager) CreateSession(roomID string, roster []string, rounds int) (*Table, error) {
	if roomID == "" {
		return nil, codes.Errorf(codes.ErrInvalidStart, "empty room id")
	}
	if len(roster) == 0 {
		return nil, codes.Errorf(codes.ErrInvalidStart, "empty roster")
	}
	if _, err := m.GetSession(roomID); err == nil {
		return nil, codes.ErrRoomAlreadyExists
	}

	t := m.newTable(roomID)
	if err := t.seat(roster); err != nil {
		t.close(false, nil)
		return nil, err
	}
	if err := t.Start(roster[0], len(roster), rounds); err != nil {
		t.close(false, nil)
		return nil, err
	}

	sh := m.shardOf(roomID)
	sh.mu.Lock()
	if _, ok := sh.tables[roomID]; ok {
		sh.mu.Unlock()
		t.close(false, nil)
		return nil, codes.ErrRoomAlreadyExists
	}
	sh.tables[roomID] = t
	sh.mu.Unlock()

	log.Infof("CreateSession. room=%s roster=%v rounds=%d", roomID, roster, rounds)
	return t, nil
}

// Open returns the table of roomID, creating an empty one awaiting start.
func (m *Manager) Open(roomID string) *Table {
	sh := m.shardOf(roomID)
	sh.mu.RLock()
	t := sh.tables[roomID]
	sh.mu.RUnlock()
	if t != nil {
		return t
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if t = sh.tables[roomID]; t == nil {
		t = m.newTable(roomID)
		sh.tables[roomID] = t
		log.Infof("Open room. room=%s", roomID)
	}
	return t
}

func (m *Manager) GetSession(roomID string) (*Table, error) {
	sh := m.shardOf(roomID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if t, ok := sh.tables[roomID]; ok {
		return t, nil
	}
	return nil, codes.ErrRoomNotFound
}

func (m *Manager) Attach(roomID, playerID string, s player.Session) (*Table, error) {
	t, err := m.GetSession(roomID)
	if err != nil {
		return nil, err
	}
	if err := t.Attach(playerID, s); err != nil {
		return nil, err
	}
	return t, nil
}

func (m *Manager) Detach(roomID, playerID string, s player.Session) {
	t, err := m.GetSession(roomID)
	if err != nil {
		return
	}
	t.Detach(playerID, s)
}

// Close removes the room under its lock. Later actions on a captured table fail with ErrRoomNotFound.
func (m *Manager) Close(roomID string) error {
	t, err := m.GetSession(roomID)
	if err != nil {
		return err
	}
	if !t.close(false, m.remover(roomID, t)) {
		return codes.ErrRoomNotFound
	}
	return nil
}

// CloseAll tears down every room, used on shutdown.
func (m *Manager) CloseAll() {
	for _, sh := range m.shards {
		sh.mu.RLock()
		tables := make(map[string]*Table, len(sh.tables))
		for id, t := range sh.tables {
			tables[id] = t
		}
		sh.mu.RUnlock()
		for id, t := range tables {
			t.close(false, m.remover(id, t))
		}
	}
}

func (m *Manager) Count() int {
	n := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		n += len(sh.tables)
		sh.mu.RUnlock()
	}
	return n
}
