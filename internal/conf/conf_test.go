package conf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  websocket:
    addr: ":4102"
    read_deadline: 30s
    ping_interval: 5
room:
  max_players: 4
  round_end_delay: 0s
  scoring:
    lowest_hand_points: 2
    call_bonus: 3
data:
  redis:
    addr: "127.0.0.1:6379"
log:
  level: info
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	c, bc, err := LoadConfig(writeConfig(t, sample))
	require.NoError(t, err)
	defer c.Close()

	ws := bc.Server.Websocket
	assert.Equal(t, ":4102", ws.Addr)
	assert.Equal(t, 30*time.Second, ws.ReadDeadline.Std())
	assert.Equal(t, 5*time.Second, ws.PingInterval.Std())
	assert.Equal(t, "/ws", ws.PathPrefix, "defaults survive partial sections")
	assert.Equal(t, 128, ws.SendChanSize)
	assert.Equal(t, ":3101", bc.Server.Http.Addr)

	assert.Equal(t, 4, bc.Room.MaxPlayers)
	assert.Equal(t, 5, bc.Room.HandSize)
	assert.Zero(t, bc.Room.RoundEndDelay.Std())
	assert.Equal(t, &Scoring{LowestHandPoints: 2, CallBonus: 3}, bc.Room.Scoring)
	assert.Equal(t, "127.0.0.1:6379", bc.Data.Redis.Addr)
	assert.Equal(t, Name, bc.Data.Redis.KeyPrefix)
	assert.Equal(t, "game.result", bc.Data.Rabbitmq.RoutingKey)
	assert.Empty(t, bc.Data.Rabbitmq.Host)
	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, Name, bc.Log.AppName)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, _, err := LoadConfig(writeConfig(t, "room:\n  max_players: 11\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not fit one deck")

	_, _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Std())
	require.NoError(t, json.Unmarshal([]byte(`2`), &d))
	assert.Equal(t, 2*time.Second, d.Std())
	require.NoError(t, json.Unmarshal([]byte(`"0.5"`), &d))
	assert.Equal(t, 500*time.Millisecond, d.Std())
	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))

	out, err := json.Marshal(Duration(3 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"3s"`, string(out))
}

type fakeValue struct {
	config.Value
	raw string
}

func (v fakeValue) Scan(dst any) error       { return json.Unmarshal([]byte(v.raw), dst) }
func (v fakeValue) String() (string, error) { return v.raw, nil }

func TestObserver(t *testing.T) {
	live := &Scoring{LowestHandPoints: 1, CallBonus: 1}
	var got []any
	obs := observer(KeyRoomScoring, live, func(key string, val any) {
		assert.Equal(t, KeyRoomScoring, key)
		got = append(got, val)
	})

	obs(KeyRoomScoring, fakeValue{raw: `{"lowest_hand_points":1,"call_bonus":1}`})
	assert.Empty(t, got, "unchanged value is not published")

	obs(KeyRoomScoring, fakeValue{raw: `{"lowest_hand_points":-1,"call_bonus":1}`})
	assert.Empty(t, got, "invalid value is rejected")
	assert.Equal(t, 1, live.LowestHandPoints)

	obs(KeyRoomScoring, fakeValue{raw: `{"lowest_hand_points":1,"call_bonus":4}`})
	require.Len(t, got, 1)
	assert.Equal(t, 4, live.CallBonus)
	assert.Equal(t, &Scoring{LowestHandPoints: 1, CallBonus: 4}, got[0])
}
