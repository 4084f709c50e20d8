package websocket

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/yola1107/fadu/library/xgo"
)

var (
	ErrSessionClosed  = errors.New("session: closed send")
	ErrSendBufferFull = errors.New("session: send buffer full")
)

type Handler interface {
	// OnSessionOpen 会话建立后回调，例如绑定房间与玩家. 返回错误时已入队的消息写出后关闭连接
	OnSessionOpen(sess *Session) error
	// OnSessionClose 会话断开时回调，例如离开房间、注销 session 等
	OnSessionClose(sess *Session)
	// DispatchMessage 处理客户端发来的文本帧
	DispatchMessage(sess *Session, data []byte) error
}

type SessionConfig struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadDeadline time.Duration
	SendChanSize int
	RateLimit    float64 // 每秒入站消息数, 0 不限制
	RateBurst    int
}

type Session struct {
	id         string
	vars       map[string]string
	h          Handler
	connMu     sync.Mutex
	conn       *websocket.Conn
	config     *SessionConfig
	sendChan   chan []byte
	closed     atomic.Bool
	lastActive atomic.Value // time.Time
	limiter    *rate.Limiter
	ctx        context.Context
	cancel     context.CancelFunc
	sendMu     sync.Mutex
}

// NewSession runs the open callback and, if it succeeds, starts the pumps.
func NewSession(h Handler, conn *websocket.Conn, config *SessionConfig, vars map[string]string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.New().String(),
		vars:     vars,
		h:        h,
		conn:     conn,
		config:   config,
		sendChan: make(chan []byte, max(config.SendChanSize, 1)),
		ctx:      ctx,
		cancel:   cancel,
	}
	if config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), max(config.RateBurst, 1))
	}
	s.lastActive.Store(time.Now())
	conn.SetPongHandler(func(string) error {
		s.lastActive.Store(time.Now())
		return conn.SetReadDeadline(deadline(s.config.ReadDeadline))
	})

	if err := s.h.OnSessionOpen(s); err != nil {
		log.Infof("sessionID=%q open rejected: %v", s.id, err)
		s.flush()
		s.Close(false)
		return s
	}
	go s.readPump()
	go s.writePump()
	if config.PingInterval > 0 {
		go s.heartbeat()
	}
	return s
}

// deadline is now+d, or no deadline when d is not positive.
func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func (s *Session) ID() string {
	return s.id
}

// Vars are the route variables of the upgrade request.
func (s *Session) Vars() map[string]string {
	return s.vars
}

func (s *Session) Var(key string) string {
	return s.vars[key]
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) GetRemoteIP() string {
	return s.conn.RemoteAddr().String()
}

func (s *Session) LastActive() time.Time {
	return s.lastActive.Load().(time.Time)
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Allow reports whether one more inbound message fits the rate limit.
func (s *Session) Allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

// Send queues message without blocking. A full buffer means the peer is not keeping up.
func (s *Session) Send(message []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.Closed() {
		return ErrSessionClosed
	}
	select {
	case s.sendChan <- message:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (s *Session) readPump() {
	defer xgo.RecoverFromError(nil)
	defer s.Close(false)

	for {
		if err := s.conn.SetReadDeadline(deadline(s.config.ReadDeadline)); err != nil {
			log.Errorf("sessionID=%q set read deadline error: %v", s.id, err)
			return
		}

		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warnf("sessionID=%q unexpected close: %v", s.id, err)
			}
			return
		}

		s.lastActive.Store(time.Now())

		switch msgType {
		case websocket.TextMessage:
			if err := s.h.DispatchMessage(s, data); err != nil {
				log.Debugf("sessionID=%q dispatch error: %v", s.id, err)
			}
		default:
			log.Warnf("sessionID=%q unsupported message type: %d", s.id, msgType)
		}
	}
}

func (s *Session) writePump() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-s.sendChan:
			if !ok {
				return
			}
			if err := s.writeTextMessage(msg); err != nil {
				if errors.Is(err, ErrSessionClosed) || strings.Contains(err.Error(), "close sent") {
					log.Infof("sessionID=%q write aborted, reason: %v", s.id, err)
				} else {
					log.Errorf("sessionID=%q write error: %v", s.id, err)
				}
				s.Close(true)
				return
			}
		}
	}
}

// flush writes whatever is queued. Only used before the pumps run.
func (s *Session) flush() {
	for {
		select {
		case msg := <-s.sendChan:
			if err := s.writeTextMessage(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) heartbeat() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			if s.Closed() {
				return
			}
			if s.config.ReadDeadline > 0 && time.Since(s.LastActive()) > s.config.ReadDeadline {
				log.Warnf("sessionID=%q heartbeat timeout", s.id)
				s.Close(true)
				return
			}
			s.writeControl(websocket.PingMessage, nil)
		}
	}
}

// Close is idempotent; it returns false if the session was already closed.
func (s *Session) Close(force bool) bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}

	s.closeNotify(force)

	s.cancel()

	s.sendMu.Lock()
	close(s.sendChan)
	s.sendMu.Unlock()

	s.connMu.Lock()
	_ = s.conn.Close()
	s.connMu.Unlock()

	s.h.OnSessionClose(s) // 回调处理器
	return true
}

func (s *Session) closeNotify(force bool) {
	reason := "Normal Closure"
	if force {
		reason = "Force Closure"
		if time.Since(s.LastActive()) > s.config.ReadDeadline {
			reason = "Force Closure (Heartbeat timeout)"
		}
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	s.writeControl(websocket.CloseMessage, message)
}

func (s *Session) writeControl(msgType int, data []byte) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	_ = s.conn.WriteControl(msgType, data, deadline(s.config.WriteTimeout))
}

func (s *Session) writeTextMessage(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.Closed() {
		return ErrSessionClosed
	}
	if err := s.conn.SetWriteDeadline(deadline(s.config.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
