package game

import (
	"errors"
	"sync"
	"time"

	"domino/internal/bot"
	"domino/internal/domino"

	log "github.com/sirupsen/logrus"
)

// Phase is the lifecycle stage of a room.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// FinishReason says how a game ended.
type FinishReason string

const (
	ReasonDomino    FinishReason = "domino"
	ReasonBlocked   FinishReason = "blocked"
	ReasonAbandoned FinishReason = "abandoned"
)

// Participant is a seat in a room. Its index in the room is its turn order.
type Participant struct {
	ID          string
	Name        string
	Hand        []domino.Tile
	IsAutomated bool
	IsHost      bool
}

func (p *Participant) HandSize() int { return len(p.Hand) }

type roomDeps struct {
	notify Notifier
	delay  time.Duration
	after  AfterFunc
	intn   domino.Intn
	log    *log.Entry
}

// Room is one independent game. All state is guarded by mu and only changes
// through the methods below; events go out while mu is held so recipients
// see them in transition order.
type Room struct {
	mu sync.Mutex

	id           string
	mode         Mode
	participants []*Participant
	chain        domino.Chain
	pile         []domino.Tile
	currentTurn  int
	phase        Phase
	winnerID     string
	reason       FinishReason
	turns        int
	closed       bool
	updated      time.Time

	// SHA-1 hand hash + open ends -> hint
	hints map[string]domino.HintResult

	sched  *turnScheduler
	notify Notifier
	intn   domino.Intn
	log    *log.Entry
}

func newRoom(id string, mode Mode, host *Participant, d roomDeps) *Room {
	r := &Room{
		id:           id,
		mode:         mode,
		participants: []*Participant{host},
		phase:        PhaseWaiting,
		updated:      time.Now(),
		hints:        make(map[string]domino.HintResult),
		sched:        newTurnScheduler(d.delay, d.after),
		notify:       d.notify,
		intn:         d.intn,
		log:          d.log.WithField("room", id),
	}
	for i := 0; i < AutomatedSeats(mode); i++ {
		ident := bot.NewIdentity(i)
		r.participants = append(r.participants, &Participant{
			ID:          ident.ID,
			Name:        ident.Name,
			IsAutomated: true,
		})
	}
	return r
}

/* =========================
   Commands
   ========================= */

func (r *Room) announce(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOfLocked(connID)
	r.notify.Notify(connID, Event{Kind: EventRoomCreated, Payload: RoomCreatedPayload{
		Table:    r.tableLocked(idx),
		Capacity: Capacity(r.mode),
	}})
}

func (r *Room) join(p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.phase != PhaseWaiting {
		return newError(KindGameAlreadyStarted, "room %s is %s", r.id, r.phase)
	}
	if len(r.participants) >= Capacity(r.mode) {
		return newError(KindRoomFull, "room %s holds %d participants", r.id, Capacity(r.mode))
	}

	r.participants = append(r.participants, p)
	r.touchLocked()
	joined := r.viewLocked(len(r.participants) - 1)
	r.broadcastLocked(EventPlayerJoined, func(t Table) any {
		return PlayerJoinedPayload{Table: t, Joined: joined}
	})
	r.log.WithFields(log.Fields{"participant": p.ID, "name": p.Name}).Info("participant joined")
	return nil
}

func (r *Room) start(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.indexOfLocked(connID) < 0 {
		return newError(KindNotInRoom, "not a participant of room %s", r.id)
	}
	if r.phase != PhaseWaiting {
		return newError(KindGameAlreadyStarted, "room %s is %s", r.id, r.phase)
	}

	hands, pile, err := domino.Deal(len(r.participants), domino.NewShuffledSet(r.intn))
	if err != nil {
		kind := KindInternal
		if errors.Is(err, domino.ErrInsufficientTiles) {
			kind = KindInsufficientTiles
		}
		return &Error{Kind: kind, Msg: err.Error(), Err: err}
	}
	for i, p := range r.participants {
		p.Hand = hands[i]
	}
	r.pile = pile
	r.chain = nil
	r.turns = 0
	r.winnerID, r.reason = "", ""
	r.hints = make(map[string]domino.HintResult)

	starter, ok := domino.HighestDoubleHolder(hands)
	if !ok {
		starter = 0
	}
	r.currentTurn = starter
	r.phase = PhasePlaying
	r.touchLocked()

	r.broadcastLocked(EventGameStarted, func(t Table) any {
		return GameStartedPayload{Table: t}
	})
	r.log.WithFields(log.Fields{
		"participants": len(r.participants),
		"starter":      r.participants[starter].ID,
		"pile":         len(r.pile),
	}).Info("game started")

	r.scheduleLocked()
	return nil
}

func (r *Room) playTile(connID, tileID string, side domino.Side) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.turnHolderLocked(connID)
	if err != nil {
		return err
	}
	p := r.participants[idx]
	hi := domino.IndexOf(p.Hand, tileID)
	if hi < 0 {
		return newError(KindTileNotInHand, "tile %q is not in hand", tileID)
	}
	if !domino.IsLegal(p.Hand[hi], r.chain, side) {
		return newError(KindIllegalMove, "tile %s cannot go %s", p.Hand[hi], side)
	}

	r.placeLocked(idx, hi, side, false)
	r.scheduleLocked()
	return nil
}

func (r *Room) drawTile(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.turnHolderLocked(connID)
	if err != nil {
		return err
	}
	if len(r.pile) == 0 {
		return newError(KindBoneyardEmpty, "the draw pile is empty")
	}

	p := r.participants[idx]
	t := r.popPileLocked()
	p.Hand = append(p.Hand, t)
	playable := domino.IsPlayable(t, r.chain)
	r.touchLocked()

	if playable {
		r.notify.Notify(p.ID, Event{Kind: EventTileDrawn, Payload: TileDrawnPayload{
			Table:    r.tableLocked(idx),
			Tile:     t,
			Playable: true,
		}})
		return nil
	}

	r.advanceLocked()
	r.notify.Notify(p.ID, Event{Kind: EventTileDrawn, Payload: TileDrawnPayload{
		Table:      r.tableLocked(idx),
		Tile:       t,
		TurnPassed: true,
	}})
	r.broadcastLocked(EventTurnPassed, func(tb Table) any {
		return TurnPassedPayload{Table: tb, By: idx, Drew: true}
	})
	r.checkBlockedLocked()
	r.scheduleLocked()
	return nil
}

func (r *Room) passTurn(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.turnHolderLocked(connID)
	if err != nil {
		return err
	}
	if len(r.pile) > 0 {
		return newError(KindIllegalMove, "draw from the pile before passing")
	}
	for _, t := range r.participants[idx].Hand {
		if domino.IsPlayable(t, r.chain) {
			return newError(KindIllegalMove, "tile %s can be played", t)
		}
	}

	r.passLocked(idx, false)
	r.scheduleLocked()
	return nil
}

func (r *Room) suggest(connID string) (MovesSuggestedPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return MovesSuggestedPayload{}, ErrRoomNotFound
	}
	if err := r.phaseErrLocked(); err != nil {
		return MovesSuggestedPayload{}, err
	}
	idx := r.indexOfLocked(connID)
	if idx < 0 {
		return MovesSuggestedPayload{}, newError(KindNotInRoom, "not a participant of room %s", r.id)
	}

	hand := r.participants[idx].Hand
	key := domino.HintKey(hand, r.chain)
	res, cached := r.hints[key]
	if !cached {
		res = domino.Suggest(hand, r.chain)
		r.hints[key] = res
	}
	return MovesSuggestedPayload{
		RoomID:   r.id,
		HandHash: domino.HandHash(hand),
		Cached:   cached,
		Result:   res,
	}, nil
}

// leave removes connID. The turn stays with whoever held it; if the leaver
// held it, it moves to the participant after them. It returns the leaver's
// own playerLeft view and how many human participants remain; at zero the
// room is closed.
func (r *Room) leave(connID string) (out PlayerLeftPayload, humans int, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOfLocked(connID)
	if idx < 0 {
		return out, r.humanCountLocked(), false
	}
	leaver := r.participants[idx]
	left := r.viewLocked(idx)

	holder := ""
	if r.phase == PhasePlaying {
		holder = r.participants[r.currentTurn].ID
	}
	r.participants = append(r.participants[:idx:idx], r.participants[idx+1:]...)
	r.touchLocked()

	plog := r.log.WithField("participant", leaver.ID)
	humans = r.humanCountLocked()
	if humans == 0 {
		r.closeLocked()
		plog.Info("last human left, room closed")
		return PlayerLeftPayload{Table: r.tableLocked(-1), Left: left}, 0, true
	}

	if leaver.IsHost {
		for _, p := range r.participants {
			if !p.IsAutomated {
				p.IsHost = true
				break
			}
		}
	}

	abandoned := false
	if r.phase == PhasePlaying {
		if holder == leaver.ID {
			r.currentTurn = idx % len(r.participants)
		} else {
			r.currentTurn = r.indexOfLocked(holder)
		}
		if len(r.participants) < 2 {
			r.finishLocked(0, ReasonAbandoned)
			abandoned = true
		}
	}

	r.broadcastLocked(EventPlayerLeft, func(t Table) any {
		return PlayerLeftPayload{Table: t, Left: left}
	})
	plog.Info("participant left")

	if abandoned {
		r.emitFinishedLocked()
	} else {
		r.checkBlockedLocked()
	}
	r.scheduleLocked()
	return PlayerLeftPayload{Table: r.tableLocked(-1), Left: left}, humans, true
}

func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

/* =========================
   Automated turns
   ========================= */

func (r *Room) scheduleLocked() {
	if r.closed || r.phase != PhasePlaying || !r.participants[r.currentTurn].IsAutomated {
		if r.sched.pending() {
			r.sched.cancel()
		}
		return
	}
	r.sched.arm(r.runAutomatedTurn)
}

func (r *Room) runAutomatedTurn(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sched.current(gen) {
		r.log.WithField("gen", gen).Debug("stale automated turn ignored")
		return
	}
	r.sched.fired(gen)
	if r.closed || r.phase != PhasePlaying {
		r.log.WithField("phase", r.phase).Debug("automated turn on inactive room ignored")
		return
	}
	idx := r.currentTurn
	p := r.participants[idx]
	if !p.IsAutomated {
		return
	}

	m := bot.Decide(p.Hand, r.chain, r.pile)
	if m.Drew {
		p.Hand = append(p.Hand, r.popPileLocked())
	}
	if m.Play {
		r.placeLocked(idx, domino.IndexOf(p.Hand, m.Tile.ID), m.Side, m.Drew)
	} else {
		r.passLocked(idx, m.Drew)
	}
	r.scheduleLocked()
}

/* =========================
   Transitions (mu held)
   ========================= */

func (r *Room) placeLocked(idx, hi int, side domino.Side, drew bool) {
	p := r.participants[idx]
	t := p.Hand[hi]
	p.Hand = domino.Remove(p.Hand, hi)
	r.chain = domino.ApplyMove(t, r.chain, side)

	placed := r.chain[0]
	if side == domino.SideRight {
		placed = r.chain[len(r.chain)-1]
	}

	if len(p.Hand) == 0 {
		r.turns++
		r.finishLocked(idx, ReasonDomino)
	} else {
		r.advanceLocked()
	}

	r.broadcastLocked(EventTilePlayed, func(tb Table) any {
		return TilePlayedPayload{Table: tb, By: idx, Tile: placed, Side: side, Drew: drew}
	})
	r.log.WithFields(log.Fields{"participant": p.ID, "tile": placed.ID, "side": side}).Debug("tile played")

	if r.phase == PhaseFinished {
		r.emitFinishedLocked()
		return
	}
	r.checkBlockedLocked()
}

func (r *Room) passLocked(idx int, drew bool) {
	r.advanceLocked()
	r.broadcastLocked(EventTurnPassed, func(tb Table) any {
		return TurnPassedPayload{Table: tb, By: idx, Drew: drew}
	})
	r.checkBlockedLocked()
}

func (r *Room) advanceLocked() {
	r.turns++
	r.currentTurn = (r.currentTurn + 1) % len(r.participants)
	r.touchLocked()
}

// checkBlockedLocked ends the game when the pile is empty and nobody can
// play. The lowest pip total wins, ties going to the lower index.
func (r *Room) checkBlockedLocked() {
	if r.phase != PhasePlaying || len(r.pile) > 0 {
		return
	}
	for _, p := range r.participants {
		for _, t := range p.Hand {
			if domino.IsPlayable(t, r.chain) {
				return
			}
		}
	}
	winner := 0
	for i, p := range r.participants {
		if domino.PipTotal(p.Hand) < domino.PipTotal(r.participants[winner].Hand) {
			winner = i
		}
	}
	r.finishLocked(winner, ReasonBlocked)
	r.emitFinishedLocked()
}

func (r *Room) finishLocked(winner int, reason FinishReason) {
	r.phase = PhaseFinished
	r.winnerID = r.participants[winner].ID
	r.reason = reason
	r.sched.cancel()
	r.touchLocked()
	r.log.WithFields(log.Fields{"winner": r.winnerID, "reason": reason, "turns": r.turns}).Info("game finished")
}

func (r *Room) emitFinishedLocked() {
	winner := r.indexOfLocked(r.winnerID)
	payload := GameFinishedPayload{
		RoomID:       r.id,
		Winner:       winner,
		Reason:       r.reason,
		Participants: r.viewsLocked(),
		PipTotals:    make([]int, len(r.participants)),
		Chain:        append(domino.Chain(nil), r.chain...),
		Turns:        r.turns,
	}
	if winner >= 0 {
		payload.WinnerName = r.participants[winner].Name
	}
	for i, p := range r.participants {
		payload.PipTotals[i] = domino.PipTotal(p.Hand)
	}
	for _, p := range r.participants {
		if !p.IsAutomated {
			r.notify.Notify(p.ID, Event{Kind: EventGameFinished, Payload: payload})
		}
	}
}

func (r *Room) closeLocked() {
	r.closed = true
	r.sched.cancel()
}

func (r *Room) popPileLocked() domino.Tile {
	t := r.pile[len(r.pile)-1]
	r.pile = r.pile[:len(r.pile)-1]
	return t
}

func (r *Room) touchLocked() { r.updated = time.Now() }

/* =========================
   Lookups and views (mu held)
   ========================= */

func (r *Room) phaseErrLocked() error {
	switch r.phase {
	case PhaseWaiting:
		return newError(KindGameNotStarted, "room %s has not started", r.id)
	case PhaseFinished:
		return newError(KindGameFinished, "room %s has finished", r.id)
	}
	return nil
}

func (r *Room) turnHolderLocked(connID string) (int, error) {
	if r.closed {
		return -1, ErrRoomNotFound
	}
	if err := r.phaseErrLocked(); err != nil {
		return -1, err
	}
	idx := r.indexOfLocked(connID)
	if idx < 0 {
		return -1, newError(KindNotInRoom, "not a participant of room %s", r.id)
	}
	if idx != r.currentTurn {
		return -1, newError(KindNotYourTurn, "it is %s's turn", r.participants[r.currentTurn].Name)
	}
	return idx, nil
}

func (r *Room) indexOfLocked(id string) int {
	for i, p := range r.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) humanCountLocked() int {
	n := 0
	for _, p := range r.participants {
		if !p.IsAutomated {
			n++
		}
	}
	return n
}

func (r *Room) viewLocked(i int) ParticipantView {
	p := r.participants[i]
	return ParticipantView{
		Index:       i,
		ID:          p.ID,
		Name:        p.Name,
		HandCount:   p.HandSize(),
		IsAutomated: p.IsAutomated,
		IsHost:      p.IsHost,
	}
}

func (r *Room) viewsLocked() []ParticipantView {
	out := make([]ParticipantView, len(r.participants))
	for i := range r.participants {
		out[i] = r.viewLocked(i)
	}
	return out
}

// tableLocked builds the state one recipient may see. you < 0 yields no hand.
func (r *Room) tableLocked(you int) Table {
	t := Table{
		RoomID:       r.id,
		Mode:         r.mode,
		Phase:        r.phase,
		Participants: r.viewsLocked(),
		Chain:        append(domino.Chain{}, r.chain...),
		PileCount:    len(r.pile),
		CurrentTurn:  r.currentTurn,
		You:          you,
		Hand:         []domino.Tile{},
	}
	if you >= 0 {
		t.Hand = append(t.Hand, r.participants[you].Hand...)
	}
	return t
}

// broadcastLocked sends one event to every human participant, each with
// their own view of the table.
func (r *Room) broadcastLocked(kind EventKind, build func(t Table) any) {
	for i, p := range r.participants {
		if p.IsAutomated {
			continue
		}
		r.notify.Notify(p.ID, Event{Kind: kind, Payload: build(r.tableLocked(i))})
	}
}
