package game

import "domino/internal/domino"

// EventKind names an outbound event. Values are the wire names.
type EventKind string

const (
	EventRoomCreated     EventKind = "roomCreated"
	EventPlayerJoined    EventKind = "playerJoined"
	EventGameStarted     EventKind = "gameStarted"
	EventTilePlayed      EventKind = "tilePlayed"
	EventTileDrawn       EventKind = "tileDrawn"
	EventTurnPassed      EventKind = "turnPassed"
	EventPlayerLeft      EventKind = "playerLeft"
	EventGameFinished    EventKind = "gameFinished"
	EventMovesSuggested  EventKind = "movesSuggested"
	EventCommandRejected EventKind = "commandRejected"
	EventPong            EventKind = "pong"
)

// SchemaVersion is stamped on every outbound envelope.
const SchemaVersion = 1

// Event is delivered to exactly one connection.
type Event struct {
	Kind    EventKind
	Payload any
}

// Notifier delivers events to connections. Notify is called with a room
// lock held: it must not block and must not call back into the Registry.
type Notifier interface {
	Notify(connID string, ev Event)
}

// ParticipantView is what everyone may see about a participant.
type ParticipantView struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	HandCount   int    `json:"handCount"`
	IsAutomated bool   `json:"isAutomated"`
	IsHost      bool   `json:"isHost"`
}

// Table is the room state as seen by one recipient: public data plus the
// recipient's own hand. Other hands only appear as counts.
type Table struct {
	RoomID       string            `json:"roomId"`
	Mode         Mode              `json:"mode"`
	Phase        Phase             `json:"phase"`
	Participants []ParticipantView `json:"participants"`
	Chain        domino.Chain      `json:"chain"`
	PileCount    int               `json:"pileCount"`
	CurrentTurn  int               `json:"currentTurn"`
	You          int               `json:"you"`
	Hand         []domino.Tile     `json:"hand"`
}

type RoomCreatedPayload struct {
	Table
	Capacity int `json:"capacity"`
}

type PlayerJoinedPayload struct {
	Table
	Joined ParticipantView `json:"joined"`
}

type GameStartedPayload struct {
	Table
}

type TilePlayedPayload struct {
	Table
	By   int         `json:"by"`
	Tile domino.Tile `json:"tile"`
	Side domino.Side `json:"side"`
	Drew bool        `json:"drew"`
}

// TileDrawnPayload only goes to the participant who drew.
type TileDrawnPayload struct {
	Table
	Tile       domino.Tile `json:"tile"`
	Playable   bool        `json:"playable"`
	TurnPassed bool        `json:"turnPassed"`
}

type TurnPassedPayload struct {
	Table
	By   int  `json:"by"`
	Drew bool `json:"drew"`
}

type PlayerLeftPayload struct {
	Table
	Left ParticipantView `json:"left"`
}

type GameFinishedPayload struct {
	RoomID       string            `json:"roomId"`
	Winner       int               `json:"winner"`
	WinnerName   string            `json:"winnerName"`
	Reason       FinishReason      `json:"reason"`
	Participants []ParticipantView `json:"participants"`
	PipTotals    []int             `json:"pipTotals"`
	Chain        domino.Chain      `json:"chain"`
	Turns        int               `json:"turns"`
}

type MovesSuggestedPayload struct {
	RoomID   string            `json:"roomId"`
	HandHash string            `json:"handHash"`
	Cached   bool              `json:"cached"`
	Result   domino.HintResult `json:"result"`
}

type CommandRejectedPayload struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

type PongPayload struct {
	Time int64 `json:"time"`
}
