package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
)

type SessionManager struct {
	count    int32
	sessions sync.Map
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		count:    0,
		sessions: sync.Map{},
	}
}

func (s *SessionManager) Len() int32 {
	return atomic.LoadInt32(&s.count)
}

func (s *SessionManager) Add(session *Session) {
	if _, loaded := s.sessions.LoadOrStore(session.ID(), session); !loaded {
		count := atomic.AddInt32(&s.count, 1)
		log.Infof("start ws serve. key=%q vars=%v sessions=%d", session.ID(), session.Vars(), count)
	}
}

func (s *SessionManager) Delete(session *Session) {
	if _, loaded := s.sessions.LoadAndDelete(session.ID()); loaded {
		count := atomic.AddInt32(&s.count, -1)
		log.Infof("disconnect. key=%q sessions=%d", session.ID(), count)
	}
}

func (s *SessionManager) Get(sessionId string) *Session {
	v, ok := s.sessions.Load(sessionId)
	if !ok {
		return nil
	}
	return v.(*Session)
}

func (s *SessionManager) Range(fn func(*Session)) {
	s.sessions.Range(func(k, v any) bool {
		fn(v.(*Session))
		return true
	})
}

// CloseAllSessions closes every session; each removes itself through OnSessionClose.
func (s *SessionManager) CloseAllSessions() {
	s.Range(func(session *Session) {
		session.Close(true)
	})
}
