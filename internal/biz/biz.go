package biz

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	gonanoid "github.com/matoous/go-nanoid/v2"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/biz/player"
	"github.com/yola1107/fadu/internal/biz/table"
	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/library/ext"
	"github.com/yola1107/fadu/library/work"
	"github.com/yola1107/fadu/pkg/codes"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewUsecase)

// 实现table.Repo接口
var _ table.Repo = (*Usecase)(nil)

const (
	roomIDLen         = 10
	saveResultTimeout = 3 * time.Second
)

// ResultRepo archives finished games.
type ResultRepo interface {
	SaveResult(context.Context, *table.Result) error
}

// Usecase is the room usecase shared by the websocket and http services.
type Usecase struct {
	repo ResultRepo
	log  *log.Helper

	// room
	rc atomic.Pointer[conf.Room]
	ws *work.Store
	tm *table.Manager
}

// NewUsecase new a room usecase.
func NewUsecase(repo ResultRepo, logger log.Logger, c *conf.Room, wc *conf.Work) (*Usecase, func(), error) {
	uc := &Usecase{repo: repo, log: log.NewHelper(logger)}

	rc, err := cloneRoom(c)
	if err != nil {
		return nil, nil, err
	}
	uc.rc.Store(rc)
	uc.ws = work.NewStore(wc.PoolSize, wc.Tick.Std())
	uc.tm = table.NewManager(uc)

	cleanup := func() {
		uc.log.Info("closing the room resources")
		uc.tm.CloseAll()
		uc.ws.Stop()
	}
	return uc, cleanup, errors.Join(uc.ws.Start())
}

func cloneRoom(c *conf.Room) (*conf.Room, error) {
	rc := &conf.Room{}
	if err := ext.DeepCopy(rc, c); err != nil {
		return nil, err
	}
	return rc, nil
}

// GetRoomConfig 获取房间配置
func (uc *Usecase) GetRoomConfig() *conf.Room {
	return uc.rc.Load()
}

// GetTimer 获取定时器
func (uc *Usecase) GetTimer() work.Timer {
	return uc.ws
}

func (uc *Usecase) GetExecutor() work.Executor {
	return uc.ws
}

func (uc *Usecase) NewRand() *rand.Rand {
	return ext.NewRand()
}

// SaveResult runs on the work pool once a game is over.
func (uc *Usecase) SaveResult(r *table.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), saveResultTimeout)
	defer cancel()
	if err := uc.repo.SaveResult(ctx, r); err != nil {
		uc.log.Errorf("save result failed. room=%s err=%v", r.RoomID, err)
	}
}

// UpdateScoring swaps in new scoring points. Rounds scored afterwards use them.
func (uc *Usecase) UpdateScoring(sc *conf.Scoring) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	rc, err := cloneRoom(uc.rc.Load())
	if err != nil {
		return err
	}
	rc.Scoring = &conf.Scoring{LowestHandPoints: sc.LowestHandPoints, CallBonus: sc.CallBonus}
	uc.rc.Store(rc)
	uc.log.Infof("scoring updated: lowest_hand_points=%d call_bonus=%d", sc.LowestHandPoints, sc.CallBonus)
	return nil
}

// OnConfigChange is the conf.Subscriber for room settings.
func (uc *Usecase) OnConfigChange(key string, val any) {
	switch key {
	case conf.KeyRoomScoring:
		sc, ok := val.(*conf.Scoring)
		if !ok {
			uc.log.Errorf("unexpected value for %q: %T", key, val)
			return
		}
		if err := uc.UpdateScoring(sc); err != nil {
			uc.log.Errorf("apply %q failed: %v", key, err)
		}
	}
}

// Attach opens roomID if needed and binds s to playerID.
func (uc *Usecase) Attach(roomID, playerID string, s player.Session) (*table.Table, error) {
	t, err := uc.tm.Attach(roomID, playerID, s)
	if errors.Is(err, codes.ErrRoomNotFound) {
		// 房间不存在或刚被回收, 重新打开一次
		uc.tm.Open(roomID)
		t, err = uc.tm.Attach(roomID, playerID, s)
	}
	return t, err
}

func (uc *Usecase) Detach(roomID, playerID string, s player.Session) {
	uc.tm.Detach(roomID, playerID, s)
}

// Handle applies a decoded action of playerID in roomID.
func (uc *Usecase) Handle(roomID, playerID string, in *v1.Action) error {
	t, err := uc.tm.GetSession(roomID)
	if err != nil {
		return err
	}
	return t.Handle(playerID, in)
}

// CreateRoom seats roster and starts the game. An empty roomID gets a generated one.
func (uc *Usecase) CreateRoom(roomID string, roster []string, rounds int) (string, error) {
	if roomID == "" {
		id, err := gonanoid.New(roomIDLen)
		if err != nil {
			return "", err
		}
		roomID = id
	}
	if _, err := uc.tm.CreateSession(roomID, roster, rounds); err != nil {
		return "", err
	}
	return roomID, nil
}

func (uc *Usecase) CloseRoom(roomID string) error {
	return uc.tm.Close(roomID)
}

func (uc *Usecase) Snapshot(roomID string) (*v1.PublicState, error) {
	t, err := uc.tm.GetSession(roomID)
	if err != nil {
		return nil, err
	}
	return t.Snapshot(), nil
}

func (uc *Usecase) RoomCount() int {
	return uc.tm.Count()
}
