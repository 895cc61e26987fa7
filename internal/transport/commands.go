package transport

import (
	"encoding/json"
	"strings"
	"time"

	"domino/internal/domino"
	"domino/internal/game"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

func (s *Server) readPump(c *Conn) {
	defer func() {
		s.reg.Leave(c.id)
		s.hub.remove(c)
		c.closeSend()
		_ = c.ws.Close()
		c.log.Info("connection closed")
	}()

	c.ws.SetReadLimit(s.cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("read failed")
			}
			return
		}

		// Every frame counts against the limiter, parseable or not.
		var in InMsg
		perr := json.Unmarshal(data, &in)
		if !c.limiter.Allow() {
			s.reject(c, in.ReqID, game.ErrRateLimited)
			continue
		}
		if perr != nil {
			s.reject(c, "", &game.Error{Kind: game.KindInvalidCommand, Msg: "invalid json", Err: perr})
			continue
		}
		s.dispatch(c, in)
	}
}

func (s *Server) dispatch(c *Conn, in InMsg) {
	clog := c.log.WithField("cmd", in.T)
	clog.Debug("command")

	var err error
	switch in.T {
	case CmdPing:
		s.reply(c, in.ReqID, game.EventPong, game.PongPayload{Time: time.Now().UnixMilli()})
		return

	case CmdCreateRoom:
		var p CreateRoomPayload
		if err = decodePayload(in.P, &p); err != nil {
			break
		}
		_, err = s.reg.CreateRoom(c.id, p.HostName, game.ParseMode(p.Mode))

	case CmdJoinRoom:
		var p JoinRoomPayload
		if err = decodePayload(in.P, &p); err != nil {
			break
		}
		roomID := normalizeRoomID(p.RoomID)
		if roomID == "" {
			err = &game.Error{Kind: game.KindInvalidCommand, Msg: "roomId required"}
			break
		}
		err = s.reg.JoinRoom(c.id, roomID, p.Name)

	case CmdStartGame:
		var p RoomPayload
		if err = decodePayload(in.P, &p); err != nil {
			break
		}
		err = s.reg.StartGame(c.id, normalizeRoomID(p.RoomID))

	case CmdPlayTile:
		var p PlayTilePayload
		if err = decodePayload(in.P, &p); err != nil {
			break
		}
		side, ok := domino.ParseSide(p.Side)
		if !ok || p.TileID == "" {
			err = &game.Error{Kind: game.KindInvalidCommand, Msg: "tileId and side (left, right, center) required"}
			break
		}
		err = s.reg.PlayTile(c.id, normalizeRoomID(p.RoomID), p.TileID, side)

	case CmdDrawFromPile:
		var p RoomPayload
		if err = decodePayload(in.P, &p); err != nil {
			break
		}
		err = s.reg.DrawTile(c.id, normalizeRoomID(p.RoomID))

	case CmdPassTurn:
		var p RoomPayload
		if err = decodePayload(in.P, &p); err != nil {
			break
		}
		err = s.reg.PassTurn(c.id, normalizeRoomID(p.RoomID))

	case CmdSuggestMoves:
		var p RoomPayload
		if err = decodePayload(in.P, &p); err != nil {
			break
		}
		var hint game.MovesSuggestedPayload
		if hint, err = s.reg.SuggestMoves(c.id, normalizeRoomID(p.RoomID)); err == nil {
			s.reply(c, in.ReqID, game.EventMovesSuggested, hint)
			return
		}

	case CmdLeaveRoom:
		var left game.PlayerLeftPayload
		if left, err = s.reg.Leave(c.id); err == nil {
			s.reply(c, in.ReqID, game.EventPlayerLeft, left)
			return
		}

	default:
		err = &game.Error{Kind: game.KindInvalidCommand, Msg: "unknown command " + in.T}
	}

	if err != nil {
		s.reject(c, in.ReqID, err)
	}
}

func normalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func (s *Server) reply(c *Conn, reqID string, kind game.EventKind, payload any) {
	b, err := encode(kind, reqID, payload)
	if err != nil {
		c.log.WithError(err).WithField("kind", kind).Error("encode reply")
		return
	}
	c.enqueue(b)
}

// reject answers only the caller. Internal failures are logged; rule
// violations are routine and stay at debug.
func (s *Server) reject(c *Conn, reqID string, err error) {
	kind := game.KindOf(err)
	entry := c.log.WithFields(log.Fields{"kind": kind, "reqId": reqID})
	if kind == game.KindInternal {
		entry.WithError(err).Error("command failed")
	} else {
		entry.WithError(err).Debug("command rejected")
	}
	s.reply(c, reqID, game.EventCommandRejected, game.CommandRejectedPayload{
		Kind:    kind,
		Message: err.Error(),
	})
}
