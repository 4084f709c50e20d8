package v1

import (
	"encoding/json"

	"github.com/yola1107/fadu/pkg/codes"
)

type ActionType string

const (
	ActionStart    ActionType = "start"
	ActionDrawCard ActionType = "draw_card"
	ActionPlayCard ActionType = "play_card"
	ActionCall     ActionType = "call"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionStart, ActionDrawCard, ActionPlayCard, ActionCall:
		return true
	}
	return false
}

// Action is an inbound client frame.
type Action struct {
	Action     ActionType `json:"action"`
	CardIndex  *int       `json:"cardIndex,omitempty"`
	NumPlayers *int       `json:"numPlayers,omitempty"`
	NumRounds  *int       `json:"numRounds,omitempty"`
}

// DecodeAction parses and validates one inbound frame. The returned error is
// always codes.ErrMalformedMessage or codes.ErrUnrecognizedAction.
func DecodeAction(data []byte) (*Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, codes.Errorf(codes.ErrMalformedMessage, "invalid json: %v", err)
	}
	if a.Action == "" {
		return nil, codes.Errorf(codes.ErrMalformedMessage, "missing action")
	}
	if !a.Action.Valid() {
		return nil, codes.Errorf(codes.ErrUnrecognizedAction, "unrecognized action %q", a.Action)
	}

	switch a.Action {
	case ActionPlayCard:
		if a.CardIndex == nil {
			return nil, codes.Errorf(codes.ErrMalformedMessage, "play_card requires cardIndex")
		}
	case ActionStart:
		if a.NumPlayers == nil || a.NumRounds == nil {
			return nil, codes.Errorf(codes.ErrMalformedMessage, "start requires numPlayers and numRounds")
		}
	}
	return &a, nil
}

func NewStart(numPlayers, numRounds int) *Action {
	return &Action{Action: ActionStart, NumPlayers: &numPlayers, NumRounds: &numRounds}
}

func NewDrawCard() *Action {
	return &Action{Action: ActionDrawCard}
}

func NewPlayCard(index int) *Action {
	return &Action{Action: ActionPlayCard, CardIndex: &index}
}

func NewCall() *Action {
	return &Action{Action: ActionCall}
}
