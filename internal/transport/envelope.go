package transport

import (
	"encoding/json"

	"domino/internal/game"
)

// Inbound command names.
const (
	CmdCreateRoom   = "createRoom"
	CmdJoinRoom     = "joinRoom"
	CmdStartGame    = "startGame"
	CmdPlayTile     = "playTile"
	CmdDrawFromPile = "drawFromPile"
	CmdPassTurn     = "passTurn"
	CmdSuggestMoves = "suggestMoves"
	CmdLeaveRoom    = "leaveRoom"
	CmdPing         = "ping"
)

type InMsg struct {
	T     string          `json:"t"`
	ReqID string          `json:"reqId,omitempty"`
	P     json.RawMessage `json:"p,omitempty"`
}

type OutMsg struct {
	T     string `json:"t"`
	ReqID string `json:"reqId,omitempty"`
	P     any    `json:"p,omitempty"`
	V     int    `json:"v"`
}

type CreateRoomPayload struct {
	HostName string `json:"hostName"`
	Mode     string `json:"mode"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// RoomPayload carries just the target room; used by startGame,
// drawFromPile, passTurn and suggestMoves.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type PlayTilePayload struct {
	RoomID string `json:"roomId"`
	TileID string `json:"tileId"`
	Side   string `json:"side"`
}

func encode(kind game.EventKind, reqID string, payload any) ([]byte, error) {
	return json.Marshal(OutMsg{T: string(kind), ReqID: reqID, P: payload, V: game.SchemaVersion})
}

// decodePayload tolerates a missing payload for commands whose fields are
// all optional.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &game.Error{Kind: game.KindInvalidCommand, Msg: "invalid payload", Err: err}
	}
	return nil
}
