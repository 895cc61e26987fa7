package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"domino/internal/domino"

	log "github.com/sirupsen/logrus"
)

// RoomIDLength is the number of characters in a generated room id.
const RoomIDLength = 6

// Options tune a Registry. Zero values are usable.
type Options struct {
	// TurnDelay paces automated participants.
	TurnDelay time.Duration
	// AfterFunc schedules automated turns; defaults to time.AfterFunc.
	AfterFunc AfterFunc
	// Intn drives shuffles; defaults to crypto/rand.
	Intn domino.Intn
	// NewRoomID generates room ids; defaults to genRoomID.
	NewRoomID func() (string, error)
	Logger    *log.Entry
}

// Stats is a point-in-time count for health reporting.
type Stats struct {
	Rooms   int `json:"rooms"`
	Players int `json:"players"`
}

// Registry owns every live room and knows which room each connection is in.
// Lock order is Registry then Room; rooms never take the Registry lock.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	connRoom map[string]string

	notify Notifier
	opts   Options
	log    *log.Entry
}

func NewRegistry(n Notifier, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = log.NewEntry(log.StandardLogger())
	}
	if opts.NewRoomID == nil {
		opts.NewRoomID = func() (string, error) { return genRoomID(RoomIDLength) }
	}
	if opts.Intn == nil {
		opts.Intn = domino.CryptoIntn
	}
	return &Registry{
		rooms:    make(map[string]*Room),
		connRoom: make(map[string]string),
		notify:   n,
		opts:     opts,
		log:      opts.Logger,
	}
}

func genRoomID(n int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		x, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		out[i] = alphabet[x.Int64()]
	}
	return string(out), nil
}

// CreateRoom opens a room with connID as host and returns its id. Single
// mode rooms are filled with automated participants straight away.
func (g *Registry) CreateRoom(connID, hostName string, mode Mode) (string, error) {
	if connID == "" {
		return "", newError(KindInvalidCommand, "connection id required")
	}
	name := DisplayName(hostName)

	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.connRoom[connID]; ok {
		return "", newError(KindAlreadyInRoom, "already in room %s", cur)
	}

	var id string
	for attempt := 0; ; attempt++ {
		next, err := g.opts.NewRoomID()
		if err != nil {
			return "", &Error{Kind: KindInternal, Msg: "room id", Err: err}
		}
		if _, taken := g.rooms[next]; !taken {
			id = next
			break
		}
		if attempt >= 16 {
			return "", newError(KindInternal, "could not allocate a room id")
		}
	}

	host := &Participant{ID: connID, Name: name, IsHost: true}
	room := newRoom(id, mode, host, roomDeps{
		notify: g.notify,
		delay:  g.opts.TurnDelay,
		after:  g.opts.AfterFunc,
		intn:   g.opts.Intn,
		log:    g.log,
	})
	g.rooms[id] = room
	g.connRoom[connID] = id

	room.announce(connID)
	g.log.WithFields(log.Fields{"room": id, "conn": connID, "mode": mode}).Info("room created")
	return id, nil
}

// JoinRoom seats connID in an existing waiting room.
func (g *Registry) JoinRoom(connID, roomID, name string) error {
	if connID == "" {
		return newError(KindInvalidCommand, "connection id required")
	}
	display := DisplayName(name)

	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.connRoom[connID]; ok {
		return newError(KindAlreadyInRoom, "already in room %s", cur)
	}
	room, ok := g.rooms[roomID]
	if !ok {
		return newError(KindRoomNotFound, "room %q not found", roomID)
	}
	if err := room.join(&Participant{ID: connID, Name: display}); err != nil {
		return err
	}
	g.connRoom[connID] = roomID
	return nil
}

func (g *Registry) StartGame(connID, roomID string) error {
	room, err := g.lookup(connID, roomID)
	if err != nil {
		return err
	}
	return room.start(connID)
}

func (g *Registry) PlayTile(connID, roomID, tileID string, side domino.Side) error {
	room, err := g.lookup(connID, roomID)
	if err != nil {
		return err
	}
	return room.playTile(connID, tileID, side)
}

func (g *Registry) DrawTile(connID, roomID string) error {
	room, err := g.lookup(connID, roomID)
	if err != nil {
		return err
	}
	return room.drawTile(connID)
}

func (g *Registry) PassTurn(connID, roomID string) error {
	room, err := g.lookup(connID, roomID)
	if err != nil {
		return err
	}
	return room.passTurn(connID)
}

// SuggestMoves is read-only and only answers the caller.
func (g *Registry) SuggestMoves(connID, roomID string) (MovesSuggestedPayload, error) {
	room, err := g.lookup(connID, roomID)
	if err != nil {
		return MovesSuggestedPayload{}, err
	}
	return room.suggest(connID)
}

// Leave removes connID from its room and returns the table as the leaver
// last sees it. The room is deleted once no human participant remains.
// Leaving when not in a room fails with NotInRoom and changes nothing.
func (g *Registry) Leave(connID string) (PlayerLeftPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	roomID, ok := g.connRoom[connID]
	if !ok {
		return PlayerLeftPayload{}, newError(KindNotInRoom, "not in any room")
	}
	delete(g.connRoom, connID)

	room, ok := g.rooms[roomID]
	if !ok {
		return PlayerLeftPayload{}, newError(KindRoomNotFound, "room %q not found", roomID)
	}
	left, humans, _ := room.leave(connID)
	if humans == 0 {
		delete(g.rooms, roomID)
		g.log.WithField("room", roomID).Info("room deleted")
	}
	return left, nil
}

// Room returns a live room by id.
func (g *Registry) Room(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// RoomOf returns the id of the room connID is in.
func (g *Registry) RoomOf(connID string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.connRoom[connID]
	return id, ok
}

func (g *Registry) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Stats{Rooms: len(g.rooms), Players: len(g.connRoom)}
}

// Shutdown closes every room and cancels pending automated turns.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, room := range g.rooms {
		room.close()
		delete(g.rooms, id)
	}
	for conn := range g.connRoom {
		delete(g.connRoom, conn)
	}
	g.log.Info("registry shut down")
}

// lookup resolves the target room. An empty roomID means the caller's own
// room.
func (g *Registry) lookup(connID, roomID string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if roomID == "" {
		cur, ok := g.connRoom[connID]
		if !ok {
			return nil, newError(KindNotInRoom, "not in any room")
		}
		roomID = cur
	}
	room, ok := g.rooms[roomID]
	if !ok {
		return nil, newError(KindRoomNotFound, "room %q not found", roomID)
	}
	return room, nil
}

func (s Stats) String() string { return fmt.Sprintf("%d rooms, %d players", s.Rooms, s.Players) }
