package v1

import (
	"encoding/json"

	"github.com/go-kratos/kratos/v2/errors"
)

// Outbound message discriminators.
const (
	TypeWelcome       = "welcome"
	TypePrivateUpdate = "private_update"
	TypePublicUpdate  = "public_update"
	TypePlayerJoined  = "player_joined"
	TypePlayerLeft    = "player_left"
	TypeRoundResult   = "round_result"
	TypeGameOver      = "game_over"
	TypeError         = "error"
)

// Outcome of the action that produced a private update.
const (
	OutcomeDeal = "deal"
	OutcomeDraw = "draw"
	OutcomePlay = "play"
)

type Card struct {
	Suit  string `json:"suit"`
	Value int    `json:"value"`
}

type PlayerInfo struct {
	PlayerID  string `json:"playerId"`
	ChairID   int    `json:"chairId"`
	HandSize  int    `json:"handSize"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

type LastAction struct {
	PlayerID string     `json:"playerId"`
	Action   ActionType `json:"action"`
	Card     *Card      `json:"card,omitempty"`
}

// PublicState is what every participant of a room may see. It never carries hand contents.
type PublicState struct {
	RoomID       string         `json:"roomId"`
	Stage        string         `json:"stage"`
	Round        int            `json:"round"`
	TotalRounds  int            `json:"totalRounds"`
	TableCard    *Card          `json:"tableCard"`
	DeckSize     int            `json:"deckSize"`
	PileSize     int            `json:"pileSize"`
	TurnPlayerID string         `json:"turnPlayerId"`
	HasDrawn     bool           `json:"hasDrawn"`
	Stalled      bool           `json:"stalled"`
	Scores       map[string]int `json:"scores"`
	HandSizes    map[string]int `json:"handSizes"`
	Players      []PlayerInfo   `json:"players"`
	Winners      []string       `json:"winners,omitempty"`
}

type Welcome struct {
	Type     string       `json:"type"`
	Message  string       `json:"message"`
	PlayerID string       `json:"playerId"`
	RoomID   string       `json:"roomId"`
	State    *PublicState `json:"state"`
}

type PrivateUpdate struct {
	Type     string `json:"type"`
	Hand     []Card `json:"hand"`
	HasDrawn bool   `json:"hasDrawn"`
	Outcome  string `json:"outcome,omitempty"`
}

type PublicUpdate struct {
	Type string `json:"type"`
	*PublicState
	LastAction *LastAction `json:"lastAction,omitempty"`
}

type PlayerNotice struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	Connected bool   `json:"connected"`
}

type RoundResult struct {
	Type       string         `json:"type"`
	Round      int            `json:"round"`
	CallerID   string         `json:"callerId,omitempty"`
	HandValues map[string]int `json:"handValues"`
	Awarded    map[string]int `json:"awarded"`
	Scores     map[string]int `json:"scores"`
}

type GameOver struct {
	Type    string         `json:"type"`
	Winners []string       `json:"winners"`
	Scores  map[string]int `json:"scores"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    int32  `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// NewErrorMessage converts any error into the wire error frame.
func NewErrorMessage(err error) *ErrorMessage {
	se := errors.FromError(err)
	return &ErrorMessage{
		Type:    TypeError,
		Code:    se.Code,
		Reason:  se.Reason,
		Message: se.Message,
	}
}

// Envelope is used by clients to peek at the discriminator before decoding the full frame.
type Envelope struct {
	Type string `json:"type"`
}

func Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// PeekType returns the type discriminator of an outbound frame.
func PeekType(data []byte) (string, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	return e.Type, nil
}
