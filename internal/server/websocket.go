package server

import (
	"crypto/tls"
	"strings"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/internal/service"
	"github.com/yola1107/fadu/transport/websocket"
)

// NewWebsocketServer new a Websocket server serving {prefix}/{roomId}/{playerId}.
func NewWebsocketServer(c *conf.Server, svc *service.Service) *websocket.Server {
	ws := c.Websocket
	var opts = []websocket.ServerOption{
		websocket.Heartbeat(ws.ReadDeadline.Std(), ws.PingInterval.Std(), ws.WriteTimeout.Std()),
		websocket.RateLimit(ws.RateLimit, ws.RateBurst),
	}
	if ws.Addr != "" {
		opts = append(opts, websocket.Address(ws.Addr))
	}
	if ws.SendChanSize > 0 {
		opts = append(opts, websocket.SentChanSize(ws.SendChanSize))
	}
	if ws.MaxConn > 0 {
		opts = append(opts, websocket.MaxConnLimit(ws.MaxConn))
	}
	if len(ws.AllowOrigins) > 0 {
		opts = append(opts, websocket.AllowOrigins(ws.AllowOrigins...))
	}
	if ws.CertFile != "" && ws.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(ws.CertFile, ws.KeyFile)
		if err != nil {
			log.Errorf("[websocket] load tls key pair failed, serving plain ws: %v", err)
		} else {
			opts = append(opts, websocket.TlsConf(&tls.Config{Certificates: []tls.Certificate{cert}}))
		}
	}
	srv := websocket.NewServer(opts...)
	srv.Route(RoutePath(ws.PathPrefix), svc)
	return srv
}

// RoutePath is the websocket route under prefix.
func RoutePath(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/{" + service.VarRoomID + "}/{" + service.VarPlayerID + "}"
}
