package table

import (
	"fmt"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/pkg/codes"
)

func TestManagerLobbyStart(t *testing.T) {
	repo := newFakeRepo()
	m := NewManager(repo)
	tb := m.Open("lobby")
	assert.Same(t, tb, m.Open("lobby"))
	assert.Equal(t, StAwaitingStart, tb.Stage())
	assert.Equal(t, 0, tb.CardCount())

	alice, bob := newSession("a1"), newSession("b1")
	_, err := m.Attach("lobby", "alice", alice)
	require.NoError(t, err)
	_, err = m.Attach("lobby", "bob", bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, tb.Players())
	assert.Equal(t, "bob", lastOf[v1.PlayerNotice](t, alice, v1.TypePlayerJoined).PlayerID)

	for _, err := range []error{tb.DrawCard("alice"), tb.PlayCard("alice", 0), tb.Call("alice"), tb.StartNewRound()} {
		assert.True(t, errors.Is(err, codes.ErrNotStarted), "got %v", err)
	}

	tests := []struct {
		name       string
		playerID   string
		numPlayers int
		numRounds  int
		want       *errors.Error
	}{
		{"unknown player", "carol", 2, 1, codes.ErrUnknownPlayer},
		{"too few players", "alice", 1, 1, codes.ErrInvalidStart},
		{"too many players", "alice", 7, 1, codes.ErrInvalidStart},
		{"no rounds", "alice", 2, 0, codes.ErrInvalidStart},
		{"roster mismatch", "alice", 3, 1, codes.ErrRosterMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tb.Start(tt.playerID, tt.numPlayers, tt.numRounds)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, StAwaitingStart, tb.Stage())
		})
	}

	require.NoError(t, tb.Handle("bob", v1.NewStart(2, 2)))
	assert.Equal(t, StInRound, tb.Stage())
	assert.Equal(t, "alice", tb.TurnPlayerID())
	assert.Equal(t, 52, tb.CardCount())
	assert.Len(t, lastOf[v1.PrivateUpdate](t, alice, v1.TypePrivateUpdate).Hand, 5)

	assert.True(t, errors.Is(tb.Start("alice", 2, 2), codes.ErrAlreadyStarted))

	_, err = m.Attach("lobby", "carol", newSession("c1"))
	assert.True(t, errors.Is(err, codes.ErrUnknownPlayer), "got %v", err)
}

func TestManagerHandleMalformed(t *testing.T) {
	tb := newStartedTable(t, newFakeRepo(), 1, "alice", "bob")
	assert.True(t, errors.Is(tb.Handle("alice", &v1.Action{Action: v1.ActionPlayCard}), codes.ErrMalformedMessage))
	assert.True(t, errors.Is(tb.Handle("alice", &v1.Action{Action: "fold"}), codes.ErrUnrecognizedAction))
	require.NoError(t, tb.Handle("alice", v1.NewPlayCard(0)))
	require.NoError(t, tb.Handle("bob", v1.NewCall()))
	assert.Equal(t, StGameEnded, tb.Stage())
}

func TestManagerRoomFull(t *testing.T) {
	repo := newFakeRepo()
	repo.room.MaxPlayers = 2
	m := NewManager(repo)
	m.Open("r")

	for _, id := range []string{"a", "b"} {
		_, err := m.Attach("r", id, newSession(id))
		require.NoError(t, err)
	}
	_, err := m.Attach("r", "c", newSession("c"))
	assert.True(t, errors.Is(err, codes.ErrRoomFull), "got %v", err)

	// a known player may still reconnect
	_, err = m.Attach("r", "a", newSession("a2"))
	assert.NoError(t, err)
}

func TestManagerCreateSession(t *testing.T) {
	tests := []struct {
		name   string
		room   string
		roster []string
		rounds int
		want   *errors.Error
	}{
		{"empty room id", "", []string{"a", "b"}, 1, codes.ErrInvalidStart},
		{"empty roster", "r", nil, 1, codes.ErrInvalidStart},
		{"single player", "r", []string{"a"}, 1, codes.ErrInvalidStart},
		{"duplicate player", "r", []string{"a", "a"}, 1, codes.ErrInvalidStart},
		{"empty player id", "r", []string{"a", ""}, 1, codes.ErrInvalidStart},
		{"too many players", "r", []string{"a", "b", "c", "d", "e", "f", "g"}, 1, codes.ErrInvalidStart},
		{"no rounds", "r", []string{"a", "b"}, 0, codes.ErrInvalidStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(newFakeRepo())
			_, err := m.CreateSession(tt.room, tt.roster, tt.rounds)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 0, m.Count())
		})
	}

	t.Run("already exists", func(t *testing.T) {
		m := NewManager(newFakeRepo())
		_, err := m.CreateSession("r", []string{"a", "b"}, 1)
		require.NoError(t, err)
		_, err = m.CreateSession("r", []string{"c", "d"}, 1)
		assert.True(t, errors.Is(err, codes.ErrRoomAlreadyExists), "got %v", err)

		m.Open("lobby")
		_, err = m.CreateSession("lobby", []string{"c", "d"}, 1)
		assert.True(t, errors.Is(err, codes.ErrRoomAlreadyExists), "got %v", err)
		assert.Equal(t, 2, m.Count())
	})
}

func TestManagerClose(t *testing.T) {
	m := NewManager(newFakeRepo())
	tb, err := m.CreateSession("r", []string{"alice", "bob"}, 2)
	require.NoError(t, err)
	alice := newSession("a1")
	_, err = m.Attach("r", "alice", alice)
	require.NoError(t, err)

	require.NoError(t, m.Close("r"))
	assert.True(t, tb.IsClosed())
	assert.True(t, alice.IsClosed())
	assert.Equal(t, 0, m.Count())

	_, err = m.GetSession("r")
	assert.True(t, errors.Is(err, codes.ErrRoomNotFound))
	assert.True(t, errors.Is(m.Close("r"), codes.ErrRoomNotFound))
	_, err = m.Attach("r", "alice", newSession("a2"))
	assert.True(t, errors.Is(err, codes.ErrRoomNotFound))

	// a table captured before the close refuses further actions
	for _, err := range []error{tb.PlayCard("alice", 0), tb.Attach("bob", newSession("b1")), tb.StartNewRound()} {
		assert.True(t, errors.Is(err, codes.ErrRoomNotFound), "got %v", err)
	}

	// the id is free again
	_, err = m.CreateSession("r", []string{"x", "y"}, 1)
	assert.NoError(t, err)
}

func TestManagerReplaceConnection(t *testing.T) {
	m := NewManager(newFakeRepo())
	_, err := m.CreateSession("r", []string{"alice", "bob"}, 1)
	require.NoError(t, err)

	s1, s2 := newSession("s1"), newSession("s2")
	tb, err := m.Attach("r", "alice", s1)
	require.NoError(t, err)
	_, err = m.Attach("r", "alice", s2)
	require.NoError(t, err)
	assert.True(t, s1.IsClosed())
	assert.False(t, s2.IsClosed())

	// the stale connection going away does not disconnect the new one
	m.Detach("r", "alice", s1)
	assert.False(t, tb.Stalled())
	assert.True(t, tb.Snapshot().Players[0].Connected)

	m.Detach("r", "alice", s2)
	assert.True(t, tb.Stalled())
}

func TestManagerIdleTeardown(t *testing.T) {
	t.Run("fires once everyone left", func(t *testing.T) {
		repo := newFakeRepo()
		m := NewManager(repo)
		s := newSession("a1")
		_, err := m.Attach("r", "alice", s)
		assert.True(t, errors.Is(err, codes.ErrRoomNotFound))

		m.Open("r")
		_, err = m.Attach("r", "alice", s)
		require.NoError(t, err)
		assert.Equal(t, 0, repo.timer.Len())

		m.Detach("r", "alice", s)
		assert.Equal(t, 1, repo.timer.Len())
		repo.timer.FireAll()

		_, err = m.GetSession("r")
		assert.True(t, errors.Is(err, codes.ErrRoomNotFound))
	})

	t.Run("cancelled by a reconnect", func(t *testing.T) {
		repo := newFakeRepo()
		m := NewManager(repo)
		m.Open("r")
		s := newSession("a1")
		_, err := m.Attach("r", "alice", s)
		require.NoError(t, err)
		m.Detach("r", "alice", s)
		_, err = m.Attach("r", "alice", newSession("a2"))
		require.NoError(t, err)
		assert.Equal(t, 0, repo.timer.Len())

		_, err = m.GetSession("r")
		assert.NoError(t, err)
	})

	t.Run("created rooms nobody joins", func(t *testing.T) {
		repo := newFakeRepo()
		m := NewManager(repo)
		_, err := m.CreateSession("r", []string{"a", "b"}, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.timer.Len())
		repo.timer.FireAll()
		assert.Equal(t, 0, m.Count())
	})
}

func TestManagerShards(t *testing.T) {
	m := NewManager(newFakeRepo())
	for i := 0; i < 40; i++ {
		m.Open(fmt.Sprintf("room-%d", i))
	}
	assert.Equal(t, 40, m.Count())
	used := 0
	for _, sh := range m.shards {
		if len(sh.tables) > 0 {
			used++
		}
	}
	assert.Greater(t, used, 1)

	m.CloseAll()
	assert.Equal(t, 0, m.Count())
}
