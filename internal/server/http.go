package server

import (
	"github.com/go-kratos/kratos/v2/middleware/ratelimit"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/internal/conf"
	"github.com/yola1107/fadu/internal/service"
	"github.com/yola1107/fadu/transport/websocket"
)

// NewHTTPServer new an HTTP server for room management.
func NewHTTPServer(c *conf.Server, svc *service.Service) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			ratelimit.Server(),
		),
		http.Filter(websocket.CORS),
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout > 0 {
		opts = append(opts, http.Timeout(c.Http.Timeout.Std()))
	}
	srv := http.NewServer(opts...)
	srv.HandleFunc("/healthz", svc.Healthz)
	v1.RegisterRoomHTTPServer(srv, svc)
	return srv
}
