package data

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/yola1107/fadu/internal/biz"
	"github.com/yola1107/fadu/internal/biz/table"
)

const (
	FieldWinners    = "winners"
	FieldScores     = "scores"
	FieldRounds     = "rounds"
	FieldFinishedAt = "finished_at"
)

// ResultEvent is published to the broker once a game is over.
type ResultEvent struct {
	RoomID     string         `json:"roomId"`
	Rounds     int            `json:"rounds"`
	Winners    []string       `json:"winners"`
	Scores     map[string]int `json:"scores"`
	FinishedAt time.Time      `json:"finishedAt"`
}

type resultRepo struct {
	data *Data
	log  *log.Helper
}

// NewResultRepo .
func NewResultRepo(data *Data, logger log.Logger) biz.ResultRepo {
	return &resultRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// SaveResult archives the outcome in redis and publishes it as an event. Either sink may be disabled.
func (r *resultRepo) SaveResult(ctx context.Context, res *table.Result) error {
	var errs []error
	if r.data.redis != nil {
		errs = append(errs, r.archive(ctx, res))
	}
	if r.data.pub != nil {
		errs = append(errs, r.publish(res))
	}
	return errors.Join(errs...)
}

func (r *resultRepo) publish(res *table.Result) error {
	ev := &ResultEvent{
		RoomID:     res.RoomID,
		Rounds:     res.Rounds,
		Winners:    res.Winners,
		Scores:     res.Scores,
		FinishedAt: res.FinishedAt,
	}
	if err := r.data.pub.PublishJSON("", ev); err != nil {
		return err
	}
	r.log.Debugf("result published. room=%s", res.RoomID)
	return nil
}

// archive stores the result hash and adds every score to the leaderboard.
func (r *resultRepo) archive(ctx context.Context, res *table.Result) error {
	scores, err := json.Marshal(res.Scores)
	if err != nil {
		return err
	}

	key := ResultKey(r.data.prefix, res.RoomID, res.FinishedAt)
	board := LeaderboardKey(r.data.prefix)
	_, err = r.data.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			FieldWinners, strings.Join(res.Winners, ","),
			FieldScores, string(scores),
			FieldRounds, res.Rounds,
			FieldFinishedAt, res.FinishedAt.Unix(),
		)
		if r.data.ttl > 0 {
			pipe.Expire(ctx, key, r.data.ttl)
		}
		for pid, score := range res.Scores {
			if score > 0 {
				pipe.ZIncrBy(ctx, board, float64(score), pid)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.Infof("result archived. key=%s winners=%v", key, res.Winners)
	return nil
}
