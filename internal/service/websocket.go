package service

import (
	v1 "github.com/yola1107/fadu/api/fadu/v1"
	"github.com/yola1107/fadu/pkg/codes"
	"github.com/yola1107/fadu/transport/websocket"
)

// OnSessionOpen seats the connection in its room. A refusal is reported to
// the client before the connection is closed.
func (s *Service) OnSessionOpen(sess *websocket.Session) error {
	roomID, playerID := sess.Var(VarRoomID), sess.Var(VarPlayerID)
	if roomID == "" || playerID == "" {
		err := codes.Errorf(codes.ErrMalformedMessage, "room and player id are required")
		s.sendError(sess, err)
		return err
	}
	if _, err := s.uc.Attach(roomID, playerID, sess); err != nil {
		s.log.Infof("attach refused. room=%s player=%s ip=%s err=%v", roomID, playerID, sess.GetRemoteIP(), err)
		s.sendError(sess, err)
		return err
	}
	s.log.Debugf("attached. room=%s player=%s session=%s ip=%s", roomID, playerID, sess.ID(), sess.GetRemoteIP())
	return nil
}

func (s *Service) OnSessionClose(sess *websocket.Session) {
	s.uc.Detach(sess.Var(VarRoomID), sess.Var(VarPlayerID), sess)
}

// DispatchMessage decodes one client action and applies it. Any error goes
// back to the sender only; the connection stays open.
func (s *Service) DispatchMessage(sess *websocket.Session, data []byte) error {
	if !sess.Allow() {
		s.sendError(sess, codes.ErrRateLimited)
		return codes.ErrRateLimited
	}
	in, err := v1.DecodeAction(data)
	if err == nil {
		err = s.uc.Handle(sess.Var(VarRoomID), sess.Var(VarPlayerID), in)
	}
	if err != nil {
		s.sendError(sess, err)
	}
	return err
}

func (s *Service) sendError(sess *websocket.Session, err error) {
	data, merr := v1.Marshal(v1.NewErrorMessage(err))
	if merr != nil {
		s.log.Errorf("marshal error message failed: %v", merr)
		return
	}
	if serr := sess.Send(data); serr != nil {
		s.log.Debugf("send error message failed. session=%s err=%v", sess.ID(), serr)
	}
}
