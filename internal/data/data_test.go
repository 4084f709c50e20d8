package data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/fadu/internal/biz/table"
	"github.com/yola1107/fadu/internal/conf"
)

func TestKeys(t *testing.T) {
	first, second := time.UnixMilli(1700000000000), time.UnixMilli(1700000090000)
	assert.Equal(t, "fadu:result:room-1:1700000000000", ResultKey("fadu", "room-1", first))
	assert.NotEqual(t, ResultKey("fadu", "room-1", first), ResultKey("fadu", "room-1", second))
	assert.Equal(t, "fadu:leaderboard", LeaderboardKey("fadu"))
}

func TestSaveResultWithoutRedis(t *testing.T) {
	c := &conf.Data{Redis: &conf.Redis{}}
	rdb := NewRedis(c)
	assert.Nil(t, rdb)
	assert.Nil(t, NewPublisher(c))

	d, cleanup, err := NewData(c, log.DefaultLogger, rdb, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, conf.Name, d.prefix)

	repo := NewResultRepo(d, log.DefaultLogger)
	assert.NoError(t, repo.SaveResult(context.Background(), &table.Result{RoomID: "r"}))
}

// Runs against a live server when FADU_TEST_REDIS is set, e.g. FADU_TEST_REDIS=127.0.0.1:6379.
func TestSaveResultRedis(t *testing.T) {
	addr := os.Getenv("FADU_TEST_REDIS")
	if addr == "" {
		t.Skip("FADU_TEST_REDIS not set")
	}
	c := &conf.Data{Redis: &conf.Redis{Addr: addr, KeyPrefix: "fadu-test", ResultTTL: conf.Duration(time.Minute)}}
	rdb := NewRedis(c)
	require.NotNil(t, rdb)
	d, cleanup, err := NewData(c, log.DefaultLogger, rdb, nil)
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	board := LeaderboardKey("fadu-test")
	res := &table.Result{
		RoomID:     "room-x",
		Rounds:     2,
		Winners:    []string{"alice"},
		Scores:     map[string]int{"alice": 3, "bob": 1},
		FinishedAt: time.Unix(1700000000, 0),
	}
	key := ResultKey("fadu-test", "room-x", res.FinishedAt)
	rdb.Del(ctx, board, key)
	require.NoError(t, NewResultRepo(d, log.DefaultLogger).SaveResult(ctx, res))

	// a second game in the same room keeps the first archive
	again := *res
	again.FinishedAt = res.FinishedAt.Add(time.Minute)
	rdb.Del(ctx, ResultKey("fadu-test", "room-x", again.FinishedAt))
	require.NoError(t, NewResultRepo(d, log.DefaultLogger).SaveResult(ctx, &again))
	n, err := rdb.Exists(ctx, key, ResultKey("fadu-test", "room-x", again.FinishedAt)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	m, err := rdb.HGetAll(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "alice", m[FieldWinners])
	assert.Equal(t, "2", m[FieldRounds])
	assert.Equal(t, "1700000000", m[FieldFinishedAt])
	assert.JSONEq(t, `{"alice":3,"bob":1}`, m[FieldScores])

	score, err := rdb.ZScore(ctx, board, "alice").Result()
	require.NoError(t, err)
	assert.Equal(t, float64(6), score)
}
