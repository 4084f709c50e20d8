package service

import (
	"context"
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/errors"

	v1 "github.com/yola1107/fadu/api/fadu/v1"
)

func (s *Service) CreateRoom(_ context.Context, in *v1.CreateRoomRequest) (*v1.CreateRoomReply, error) {
	roomID, err := s.uc.CreateRoom(in.RoomID, in.Roster, in.Rounds)
	if err != nil {
		return nil, badRequest(err)
	}
	s.log.Infof("room created over http. room=%s roster=%v rounds=%d", roomID, in.Roster, in.Rounds)
	return &v1.CreateRoomReply{RoomID: roomID}, nil
}

func (s *Service) GetRoom(_ context.Context, in *v1.GetRoomRequest) (*v1.PublicState, error) {
	return s.uc.Snapshot(in.RoomID)
}

func (s *Service) DeleteRoom(_ context.Context, in *v1.DeleteRoomRequest) (*v1.DeleteRoomReply, error) {
	if err := s.uc.CloseRoom(in.RoomID); err != nil {
		return nil, err
	}
	return &v1.DeleteRoomReply{}, nil
}

// Healthz answers liveness probes.
func (s *Service) Healthz(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// badRequest reports rejected input as 400, keeping conflicts as 409.
func badRequest(err error) error {
	se := errors.FromError(err)
	if se.Code == nethttp.StatusConflict || se.Code >= nethttp.StatusInternalServerError {
		return se
	}
	return errors.New(nethttp.StatusBadRequest, se.Reason, se.Message)
}
