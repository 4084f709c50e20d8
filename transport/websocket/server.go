package websocket

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var (
	_ transport.Server     = (*Server)(nil)
	_ transport.Endpointer = (*Server)(nil)
	_ http.Handler         = (*Server)(nil)
)

// ServerOption is a Websocket server option.
type ServerOption func(*Server)

func Network(network string) ServerOption {
	return func(o *Server) { o.network = network }
}
func Address(addr string) ServerOption {
	return func(o *Server) { o.address = addr }
}
func TlsConf(tlsConfig *tls.Config) ServerOption {
	return func(o *Server) { o.tlsConf = tlsConfig }
}
func MaxConnLimit(maxConnLimit int32) ServerOption {
	return func(o *Server) { o.maxConnLimit = maxConnLimit }
}
func Heartbeat(d, i, w time.Duration) ServerOption {
	return func(o *Server) {
		o.sessionConf.ReadDeadline, o.sessionConf.PingInterval, o.sessionConf.WriteTimeout = d, i, w
	}
}
func SentChanSize(size int) ServerOption {
	return func(o *Server) { o.sessionConf.SendChanSize = size }
}
func RateLimit(limit float64, burst int) ServerOption {
	return func(o *Server) { o.sessionConf.RateLimit, o.sessionConf.RateBurst = limit, burst }
}

// AllowOrigins restricts the upgrade to the given Origin headers. None means any origin.
func AllowOrigins(origins ...string) ServerOption {
	return func(o *Server) { o.origins = origins }
}

// Server is a Websocket server wrapper.
type Server struct {
	*http.Server
	lis          net.Listener
	tlsConf      *tls.Config
	endpoint     *url.URL
	err          error
	network      string
	address      string
	origins      []string
	maxConnLimit int32
	sessionConf  *SessionConfig
	router       *mux.Router         // 路由, 路径变量传给会话
	upgrader     *websocket.Upgrader // WebSocket升级器
	sessionMgr   *SessionManager     // 会话管理
}

// NewServer creates a Websocket server by options.
func NewServer(opts ...ServerOption) *Server {
	srv := &Server{
		network: "tcp",
		address: ":0",
		sessionConf: &SessionConfig{
			WriteTimeout: 10 * time.Second,
			PingInterval: 15 * time.Second,
			ReadDeadline: 60 * time.Second,
			SendChanSize: 128,
		},
		maxConnLimit: 10000,
		router:       mux.NewRouter(),
		sessionMgr:   NewSessionManager(),
	}
	for _, o := range opts {
		o(srv)
	}
	srv.upgrader = &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     srv.checkOrigin,
	}
	srv.Server = &http.Server{
		Addr:      srv.address,
		TLSConfig: srv.tlsConf,
		Handler:   srv.router,
	}
	return srv
}

// Route registers h for upgrade requests matching path, e.g. "/ws/{roomId}/{playerId}".
func (s *Server) Route(path string, h Handler) {
	s.router.HandleFunc(path, s.handleConnections(&routeHandler{srv: s, h: h}))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SessionCount is the number of open sessions.
func (s *Server) SessionCount() int32 {
	return s.sessionMgr.Len()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	return slices.Contains(s.origins, r.Header.Get("Origin"))
}

func (s *Server) Endpoint() (*url.URL, error) {
	if err := s.listenAndEndpoint(); err != nil {
		return nil, err
	}
	return s.endpoint, nil
}

func (s *Server) listenAndEndpoint() error {
	if s.lis == nil {
		lis, err := net.Listen(s.network, s.address)
		if err != nil {
			s.err = err
			return err
		}
		s.lis = lis
	}
	if s.endpoint == nil {
		scheme := "ws"
		if s.tlsConf != nil {
			scheme = "wss"
		}
		s.endpoint = &url.URL{Scheme: scheme, Host: s.lis.Addr().String()}
	}
	return s.err
}

// Start start the Websocket server.
func (s *Server) Start(ctx context.Context) error {
	if err := s.listenAndEndpoint(); err != nil {
		return err
	}
	s.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	log.Infof("[websocket] server listening on: %s", s.lis.Addr().String())
	var err error
	if s.tlsConf != nil {
		err = s.ServeTLS(s.lis, "", "")
	} else {
		err = s.Serve(s.lis)
	}
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleConnections(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cnt := s.sessionMgr.Len(); cnt >= s.maxConnLimit {
			w.WriteHeader(http.StatusServiceUnavailable)
			log.Warnf("[websocket] StatusServiceUnavailable. over maxConnections(%d)", cnt)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("[websocket] upgrade error: %v", err)
			return
		}

		_ = NewSession(h, conn, s.sessionConf, mux.Vars(r))
	}
}

// Stop stop the Websocket server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info("[websocket] server stopping")

	// 停止HTTP服务器, 已升级的连接不受影响
	err := s.Shutdown(ctx)

	// 关闭所有会话
	s.sessionMgr.CloseAllSessions()

	return err
}

// routeHandler keeps the session manager in step with a route's handler.
type routeHandler struct {
	srv *Server
	h   Handler
}

func (r *routeHandler) OnSessionOpen(sess *Session) error {
	r.srv.sessionMgr.Add(sess)
	return r.h.OnSessionOpen(sess)
}

func (r *routeHandler) OnSessionClose(sess *Session) {
	r.h.OnSessionClose(sess)
	r.srv.sessionMgr.Delete(sess)
}

func (r *routeHandler) DispatchMessage(sess *Session, data []byte) error {
	return r.h.DispatchMessage(sess, data)
}

// CORS answers preflight requests and allows any origin to call the wrapped handler.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 添加 CORS 相关头部
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Content-Length, X-CSRF-Token, Token")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
