package table

import (
	"fmt"
	"time"
)

/*
	StageID 房间阶段
*/

type StageID int32

const (
	StAwaitingStart StageID = iota // 等待开局
	StInRound                      // 回合进行中
	StRoundEnding                  // 回合结算, 等待下一回合
	StGameEnded                    // 游戏结束
)

var StageNames = map[StageID]string{
	StAwaitingStart: "awaiting_start",
	StInRound:       "in_round",
	StRoundEnding:   "round_ending",
	StGameEnded:     "game_ended",
}

func (s StageID) String() string {
	if name, ok := StageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StageID(%d)", s)
}

// Stage is guarded by the owning table's lock.
type Stage struct {
	State   StageID
	Prev    StageID
	TimerID int64 // pending round start, 0 when none
	StartAt time.Time
}

func (s *Stage) Set(state StageID) {
	s.Prev = s.State
	s.State = state
	s.StartAt = time.Now()
}

func (s *Stage) Desc() string {
	return fmt.Sprintf("[%v->%v timer=%d]", s.Prev, s.State, s.TimerID)
}

// Result is the archived outcome of a finished game.
type Result struct {
	RoomID     string
	Rounds     int
	Winners    []string
	Scores     map[string]int
	FinishedAt time.Time
}
