package table

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yola1107/fadu/internal/biz/card"
	"github.com/yola1107/fadu/internal/biz/player"
	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/library/log/file"
)

const logFileFormat = "room_%s.log"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Log is the per-room action journal. It is a no-op unless log_cache is open.
type Log struct {
	roomID string
	logger *file.Log
}

func NewTableLog(roomID string, c *conf.LogCache) *Log {
	l := &Log{roomID: roomID}
	if c != nil && c.Open {
		name := fmt.Sprintf(logFileFormat, unsafeFileChars.ReplaceAllString(roomID, "_"))
		l.logger = file.NewFileLog(filepath.Join(c.Dir, name))
	}
	return l
}

func (l *Log) close() {
	if l.logger != nil {
		_ = l.logger.Close()
	}
}

func (l *Log) write(msg string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.WriteLog(msg, args...)
}

func (l *Log) userEnter(p *player.Player, sitCnt int) {
	l.write("[进入房间] 玩家:%s 房间人数(%d)", p.Desc(), sitCnt)
}

func (l *Log) userReEnter(p *player.Player) {
	l.write("[重进房间] 玩家:%s", p.Desc())
}

func (l *Log) offline(p *player.Player) {
	l.write("[玩家断线] 玩家:%s", p.Desc())
}

func (l *Log) stage(desc string, round int) {
	l.write("[阶段切换] %s round:%d", desc, round)
}

func (l *Log) begin(round int, tableCard card.Card, seats []*player.Player) {
	var sb strings.Builder
	for _, p := range seats {
		fmt.Fprintf(&sb, "\n\t%s 手牌:%v", p.Desc(), p.Hand())
	}
	l.write("[回合开始] round:%d 桌面牌:%v%s", round, tableCard, sb.String())
}

func (l *Log) draw(p *player.Player, c card.Card, deckLeft int) {
	l.write("[摸牌] 玩家:%s 摸到:%v 剩余:%d", p.Desc(), c, deckLeft)
}

func (l *Log) play(p *player.Player, c card.Card, next *player.Player) {
	l.write("[出牌] 玩家:%s 出牌:%v 下家:%s", p.Desc(), c, next.GetPlayerID())
}

func (l *Log) call(p *player.Player) {
	l.write("[叫牌] 玩家:%s 手牌值:%d", p.Desc(), p.HandValue())
}

func (l *Log) reshuffle(deckSize int) {
	l.write("[洗回弃牌] 新牌堆:%d", deckSize)
}

func (l *Log) exhausted(p *player.Player) {
	l.write("[牌堆耗尽] 玩家:%s 回合提前结束", p.Desc())
}

func (l *Log) roundEnd(round int, caller *player.Player, values, awarded, scores map[string]int) {
	callerID := "-"
	if caller != nil {
		callerID = caller.GetPlayerID()
	}
	l.write("[回合结算] round:%d 叫牌:%s 手牌值:%v 得分:%v 总分:%v", round, callerID, values, awarded, scores)
}

func (l *Log) gameEnd(winners []string, scores map[string]int) {
	l.write("[游戏结束] 赢家:%v 总分:%v", winners, scores)
}
