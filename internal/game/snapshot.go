package game

import (
	"time"

	"domino/internal/domino"
)

// ParticipantState is a full copy of one participant, hand included.
type ParticipantState struct {
	ID          string
	Name        string
	Hand        []domino.Tile
	IsAutomated bool
	IsHost      bool
}

// Snapshot is a deep copy of a room's state. It is meant for inspection and
// tests, never for sending to clients.
type Snapshot struct {
	ID           string
	Mode         Mode
	Phase        Phase
	Participants []ParticipantState
	Chain        domino.Chain
	Pile         []domino.Tile
	CurrentTurn  int
	Winner       int
	Reason       FinishReason
	Turns        int
	Closed       bool
	Updated      time.Time
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		ID:           r.id,
		Mode:         r.mode,
		Phase:        r.phase,
		Participants: make([]ParticipantState, len(r.participants)),
		Chain:        append(domino.Chain(nil), r.chain...),
		Pile:         append([]domino.Tile(nil), r.pile...),
		CurrentTurn:  r.currentTurn,
		Winner:       r.indexOfLocked(r.winnerID),
		Reason:       r.reason,
		Turns:        r.turns,
		Closed:       r.closed,
		Updated:      r.updated,
	}
	if r.winnerID == "" {
		s.Winner = -1
	}
	for i, p := range r.participants {
		s.Participants[i] = ParticipantState{
			ID:          p.ID,
			Name:        p.Name,
			Hand:        append([]domino.Tile(nil), p.Hand...),
			IsAutomated: p.IsAutomated,
			IsHost:      p.IsHost,
		}
	}
	return s
}
