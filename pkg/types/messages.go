package types

// Client -> Server actions. Type is one of "createRoom", "joinRoom" or
// "rollDice"; a disconnect is implicit (the socket closes).
type ClientMessage struct {
	Type       string `json:"type"`
	RoomName   string `json:"roomName,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Room       string `json:"room,omitempty"`
	NumDice    int    `json:"numDice,omitempty"`
}

// Server -> Client event names.
const (
	EvtRoomCreated    = "roomCreated"
	EvtPlayerJoined   = "playerJoined"
	EvtStartGame      = "startGame"
	EvtUpdateTurn     = "updateTurn"
	EvtUpdateHistory  = "updateHistory"
	EvtDiceResult     = "diceResult"
	EvtBiskit         = "biskit"
	EvtDouble         = "double"
	EvtDoubleOnes     = "double_1"
	EvtChickenStatus  = "chickenPlayerStatus"
	EvtChickenPenalty = "chickenPlayerPenalties"
)

type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RollInfo struct {
	PlayerName  string `json:"playerName"`
	DiceResults []int  `json:"diceResults"`
	TotalResult int    `json:"totalResult"`
}

// ServerMessage is the envelope for every outbound event; fields unused
// by an event type are omitted.
//
// roomCreated:            room
// playerJoined:           players
// startGame:              room
// updateTurn:             playerId, playerName
// updateHistory:          history
// diceResult:             diceResults, totalResult
// biskit:                 message
// double:                 value
// double_1:               playerName
// chickenPlayerStatus:    playerName ("VACANT" when the role is empty)
// chickenPlayerPenalties: playerId, message
type ServerMessage struct {
	Type        string       `json:"type"`
	Room        string       `json:"room,omitempty"`
	Players     []PlayerInfo `json:"players,omitempty"`
	PlayerID    string       `json:"playerId,omitempty"`
	PlayerName  string       `json:"playerName,omitempty"`
	History     []RollInfo   `json:"history,omitempty"`
	DiceResults []int        `json:"diceResults,omitempty"`
	TotalResult int          `json:"totalResult,omitempty"`
	Value       int          `json:"value,omitempty"`
	Message     string       `json:"message,omitempty"`
}
