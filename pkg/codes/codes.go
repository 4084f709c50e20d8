// Package codes holds the error values shared by the engine, the registry and the wire protocol.
package codes

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
)

// Protocol errors: the inbound frame could not be turned into an action.
var (
	ErrMalformedMessage   = errors.New(400, "MALFORMED_MESSAGE", "malformed message")
	ErrUnrecognizedAction = errors.New(400, "UNRECOGNIZED_ACTION", "unrecognized action")
	ErrRateLimited        = errors.New(429, "RATE_LIMITED", "too many messages")
)

// Validation errors: the action was well formed but is not legal right now.
var (
	ErrNotYourTurn      = errors.New(412, "NOT_YOUR_TURN", "it is not your turn")
	ErrAlreadyDrawn     = errors.New(412, "ALREADY_DRAWN", "already drew a card this turn")
	ErrInvalidCardIndex = errors.New(412, "INVALID_CARD_INDEX", "card index out of range")
	ErrIneligibleDraw   = errors.New(412, "INELIGIBLE_DRAW", "hand matches the table card, drawing is not allowed")
	ErrInvalidStart     = errors.New(412, "INVALID_START", "invalid start parameters")
	ErrRosterMismatch   = errors.New(412, "ROSTER_MISMATCH", "player count does not match the seated players")
	ErrAlreadyStarted   = errors.New(412, "ALREADY_STARTED", "game already started")
	ErrNotStarted       = errors.New(412, "NOT_STARTED", "game not started")
	ErrRoundInProgress  = errors.New(412, "ROUND_IN_PROGRESS", "round still in progress")
	ErrGameOver         = errors.New(412, "GAME_OVER", "game is over")

	ErrUnknownPlayer = errors.New(404, "UNKNOWN_PLAYER", "player is not part of this room")
	ErrRoomNotFound  = errors.New(404, "ROOM_NOT_FOUND", "room not found")

	ErrRoomAlreadyExists = errors.New(409, "ROOM_ALREADY_EXISTS", "room already exists")
	ErrRoomFull          = errors.New(409, "ROOM_FULL", "room is full")
)

// ErrEmptyDeck is returned when neither the deck nor the discard pile can supply a card.
var ErrEmptyDeck = errors.New(503, "EMPTY_DECK", "deck is empty")

// Errorf returns a copy of e carrying a formatted message. errors.Is still matches e.
func Errorf(e *errors.Error, format string, args ...any) *errors.Error {
	return errors.New(int(e.Code), e.Reason, fmt.Sprintf(format, args...))
}

// IsProtocol reports whether err was raised while decoding an inbound frame.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrMalformedMessage) ||
		errors.Is(err, ErrUnrecognizedAction) ||
		errors.Is(err, ErrRateLimited)
}
