package service

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/biz"
	"github.com/yola1107/fadu/transport/websocket"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewService)

// Route variables of the websocket path.
const (
	VarRoomID   = "roomId"
	VarPlayerID = "playerId"
)

var (
	_ websocket.Handler = (*Service)(nil)
	_ v1.RoomHTTPServer = (*Service)(nil)
)

// Service is a service.
type Service struct {
	log *log.Helper
	uc  *biz.Usecase
}

// NewService new a service.
func NewService(uc *biz.Usecase, logger log.Logger) *Service {
	return &Service{uc: uc, log: log.NewHelper(logger)}
}
