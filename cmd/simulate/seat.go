package main

import (
	"sync"

	"domino/internal/game"

	log "github.com/sirupsen/logrus"
)

// router is the Notifier for simulated seats. It only ever enqueues, so it
// is safe to call with a room lock held.
type router struct {
	mu    sync.RWMutex
	seats map[string]chan game.Event
}

func newRouter() *router { return &router{seats: make(map[string]chan game.Event)} }

func (r *router) Notify(connID string, ev game.Event) {
	r.mu.RLock()
	ch, ok := r.seats[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
		log.WithFields(log.Fields{"conn": connID, "kind": ev.Kind}).Warn("seat buffer full, event dropped")
	}
}

func (r *router) add(id string, ch chan game.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seats[id] = ch
}

func (r *router) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seats, id)
}

// seat plays the human position using only what a client would see.
type seat struct {
	id     string
	reg    *game.Registry
	events chan game.Event
	log    *log.Entry
}

func (s *seat) handle(ev game.Event) *game.GameFinishedPayload {
	var t game.Table
	switch p := ev.Payload.(type) {
	case game.GameStartedPayload:
		t = p.Table
	case game.TilePlayedPayload:
		t = p.Table
	case game.TurnPassedPayload:
		t = p.Table
	case game.TileDrawnPayload:
		t = p.Table
	case game.PlayerLeftPayload:
		t = p.Table
	case game.GameFinishedPayload:
		return &p
	default:
		return nil
	}
	if t.Phase == game.PhasePlaying && t.CurrentTurn == t.You {
		s.act(t)
	}
	return nil
}

// act plays the best hinted move, else draws, else passes. Rejections from
// stale views are expected and ignored; the next event resynchronises.
func (s *seat) act(t game.Table) {
	hint, err := s.reg.SuggestMoves(s.id, t.RoomID)
	switch {
	case err != nil:
	case hint.Result.CanPlay:
		best := hint.Result.Moves[0]
		err = s.reg.PlayTile(s.id, t.RoomID, best.Tile.ID, best.Sides[0])
	case t.PileCount > 0:
		err = s.reg.DrawTile(s.id, t.RoomID)
	default:
		err = s.reg.PassTurn(s.id, t.RoomID)
	}
	if err != nil {
		s.log.WithError(err).WithField("kind", game.KindOf(err)).Debug("move rejected")
	}
}
