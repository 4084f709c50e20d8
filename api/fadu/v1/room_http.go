package v1

import (
	"context"
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationRoomCreateRoom = "/fadu.v1.Room/CreateRoom"
	OperationRoomGetRoom    = "/fadu.v1.Room/GetRoom"
	OperationRoomDeleteRoom = "/fadu.v1.Room/DeleteRoom"
)

type CreateRoomRequest struct {
	RoomID string   `json:"roomId"`
	Roster []string `json:"roster"`
	Rounds int      `json:"rounds"`
}

type CreateRoomReply struct {
	RoomID string `json:"roomId"`
}

type GetRoomRequest struct {
	RoomID string `json:"roomId"`
}

type DeleteRoomRequest struct {
	RoomID string `json:"roomId"`
}

type DeleteRoomReply struct{}

type RoomHTTPServer interface {
	CreateRoom(context.Context, *CreateRoomRequest) (*CreateRoomReply, error)
	GetRoom(context.Context, *GetRoomRequest) (*PublicState, error)
	DeleteRoom(context.Context, *DeleteRoomRequest) (*DeleteRoomReply, error)
}

func RegisterRoomHTTPServer(s *http.Server, srv RoomHTTPServer) {
	r := s.Route("/")
	r.POST("/rooms", _Room_CreateRoom0_HTTP_Handler(srv))
	r.GET("/rooms/{roomId}", _Room_GetRoom0_HTTP_Handler(srv))
	r.DELETE("/rooms/{roomId}", _Room_DeleteRoom0_HTTP_Handler(srv))
}

func _Room_CreateRoom0_HTTP_Handler(srv RoomHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in CreateRoomRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationRoomCreateRoom)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.CreateRoom(ctx, req.(*CreateRoomRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*CreateRoomReply)
		return ctx.Result(nethttp.StatusCreated, reply)
	}
}

func _Room_GetRoom0_HTTP_Handler(srv RoomHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := GetRoomRequest{RoomID: ctx.Vars().Get("roomId")}
		http.SetOperation(ctx, OperationRoomGetRoom)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.GetRoom(ctx, req.(*GetRoomRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*PublicState)
		return ctx.Result(nethttp.StatusOK, reply)
	}
}

func _Room_DeleteRoom0_HTTP_Handler(srv RoomHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := DeleteRoomRequest{RoomID: ctx.Vars().Get("roomId")}
		http.SetOperation(ctx, OperationRoomDeleteRoom)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.DeleteRoom(ctx, req.(*DeleteRoomRequest))
		})
		if _, err := h(ctx, &in); err != nil {
			return err
		}
		ctx.Response().WriteHeader(nethttp.StatusNoContent)
		return nil
	}
}
