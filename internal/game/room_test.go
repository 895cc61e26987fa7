package game

import (
	"testing"

	"domino/internal/bot"
	"domino/internal/domino"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) arm(t *testing.T, id string) {
	t.Helper()
	r := f.room(t, id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduleLocked()
}

// pairRoom creates a started pair room: "h" at index 0 with 0-0..0-6 and
// "g" at index 1 with 1-1..1-6,2-2, g to move.
func pairRoom(t *testing.T, f *fixture) string {
	t.Helper()
	id, err := f.reg.CreateRoom("h", "Host", ModePair)
	require.NoError(t, err)
	require.NoError(t, f.reg.JoinRoom("g", id, "Guest"))
	require.NoError(t, f.reg.StartGame("h", id))
	return id
}

func TestScenarioSingleModeRunsToTheEnd(t *testing.T) {
	f := newFixture(t)
	id, err := f.reg.CreateRoom("x", "X", ModeSingle)
	require.NoError(t, err)

	s := f.room(t, id).Snapshot()
	require.Len(t, s.Participants, 4)
	assert.Equal(t, PhaseWaiting, s.Phase)
	assert.False(t, s.Participants[0].IsAutomated)
	assert.True(t, s.Participants[0].IsHost)
	for _, p := range s.Participants[1:] {
		assert.True(t, p.IsAutomated)
		assert.True(t, bot.IsBot(p.ID))
	}

	require.NoError(t, f.reg.StartGame("x", id))
	s = f.room(t, id).Snapshot()
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Empty(t, s.Pile)
	for _, p := range s.Participants {
		assert.Len(t, p.Hand, domino.HandSize)
	}
	assert.Equal(t, 3, s.CurrentTurn, "double six opens")
	assert.Equal(t, 1, f.clock.pending())

	for step := 0; step < 200; step++ {
		s = f.room(t, id).Snapshot()
		checkRoom(t, s)
		require.LessOrEqual(t, f.clock.pending(), 1)
		if s.Phase == PhaseFinished {
			break
		}
		cur := s.Participants[s.CurrentTurn]
		if !cur.IsAutomated {
			require.Equal(t, 0, f.clock.pending())
			m := bot.Decide(cur.Hand, s.Chain, s.Pile)
			if m.Play {
				require.NoError(t, f.reg.PlayTile("x", id, m.Tile.ID, m.Side))
			} else {
				require.NoError(t, f.reg.PassTurn("x", id))
			}
			continue
		}
		require.True(t, f.clock.fireNext())
	}

	s = f.room(t, id).Snapshot()
	require.Equal(t, PhaseFinished, s.Phase)
	assert.Contains(t, []FinishReason{ReasonDomino, ReasonBlocked}, s.Reason)
	assert.GreaterOrEqual(t, s.Winner, 0)
	assert.Equal(t, 0, f.clock.pending())

	total := len(s.Chain) + len(s.Pile)
	for _, p := range s.Participants {
		total += len(p.Hand)
	}
	assert.Equal(t, domino.SetSize, total)

	kinds := f.rec.kinds("x")
	require.NotEmpty(t, kinds)
	assert.Equal(t, EventRoomCreated, kinds[0])
	assert.Equal(t, EventGameStarted, kinds[1])
	assert.Equal(t, EventGameFinished, kinds[len(kinds)-1])
	assert.Contains(t, kinds, EventTilePlayed)
}

func TestScenarioJoinFullRoom(t *testing.T) {
	f := newFixture(t)
	id, err := f.reg.CreateRoom("x", "X", ModeSingle)
	require.NoError(t, err)

	err = f.reg.JoinRoom("y", id, "Y")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Len(t, f.room(t, id).Snapshot().Participants, 4)
	_, bound := f.reg.RoomOf("y")
	assert.False(t, bound)
}

func TestScenarioTileNotInHandLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	id := pairRoom(t, f)

	before := f.room(t, id).Snapshot()
	err := f.reg.PlayTile("g", id, "0-0", domino.SideCenter)
	assert.ErrorIs(t, err, ErrTileNotInHand)
	assert.Equal(t, before, f.room(t, id).Snapshot())
}

func TestPairGameFlow(t *testing.T) {
	f := newFixture(t)
	id := pairRoom(t, f)
	r := f.room(t, id)

	s := r.Snapshot()
	require.Equal(t, 1, s.CurrentTurn)
	require.Len(t, s.Pile, 14)
	assert.Equal(t, 0, f.clock.pending(), "no automated seats")

	assert.ErrorIs(t, f.reg.PlayTile("h", id, "0-0", domino.SideCenter), ErrNotYourTurn)
	assert.ErrorIs(t, f.reg.PlayTile("g", id, "1-6", domino.SideLeft), ErrIllegalMove)

	require.NoError(t, f.reg.PlayTile("g", id, "1-6", domino.SideCenter))
	s = r.Snapshot()
	assert.Equal(t, domino.Chain{domino.NewTile(1, 6)}, s.Chain)
	assert.Equal(t, 0, s.CurrentTurn)
	assert.Len(t, s.Participants[1].Hand, 6)

	// top of the pile is 6-6, which fits the right end
	require.NoError(t, f.reg.DrawTile("h", id))
	s = r.Snapshot()
	assert.Equal(t, 0, s.CurrentTurn, "playable draw keeps the turn")
	assert.Len(t, s.Participants[0].Hand, 8)
	assert.Len(t, s.Pile, 13)
	drawn := f.rec.last("h")
	require.Equal(t, EventTileDrawn, drawn.Kind)
	p := drawn.Payload.(TileDrawnPayload)
	assert.Equal(t, "6-6", p.Tile.ID)
	assert.True(t, p.Playable)
	assert.False(t, p.TurnPassed)
	assert.NotEqual(t, EventTileDrawn, f.rec.last("g").Kind, "draws are private")

	require.NoError(t, f.reg.PlayTile("h", id, "6-6", domino.SideRight))
	s = r.Snapshot()
	assert.Equal(t, domino.Chain{domino.NewTile(1, 6), domino.NewTile(6, 6)}, s.Chain)
	assert.Equal(t, 1, s.CurrentTurn)
	checkRoom(t, s)

	ev := f.rec.last("g")
	require.Equal(t, EventTilePlayed, ev.Kind)
	tp := ev.Payload.(TilePlayedPayload)
	assert.Equal(t, 0, tp.By)
	assert.Equal(t, 1, tp.You)
	assert.Len(t, tp.Hand, 6, "recipient sees only their own hand")
	assert.Equal(t, 8-1, tp.Participants[0].HandCount)
}

func TestDrawUnplayablePassesTurn(t *testing.T) {
	f := newFixture(t)
	id := pairRoom(t, f)
	f.set(t, id,
		[][]domino.Tile{tiles([2]int{0, 1}), tiles([2]int{2, 3}, [2]int{4, 4})},
		domino.Chain{domino.NewTile(5, 5)},
		tiles([2]int{1, 2}, [2]int{3, 6}),
		0)
	f.rec.reset()

	require.NoError(t, f.reg.DrawTile("h", id))
	s := f.room(t, id).Snapshot()
	assert.Equal(t, 1, s.CurrentTurn)
	assert.Equal(t, tiles([2]int{0, 1}, [2]int{3, 6}), s.Participants[0].Hand)
	assert.Equal(t, tiles([2]int{1, 2}), s.Pile)

	assert.Equal(t, []EventKind{EventTileDrawn, EventTurnPassed}, f.rec.kinds("h"))
	assert.Equal(t, []EventKind{EventTurnPassed}, f.rec.kinds("g"))
	tp := f.rec.last("g").Payload.(TurnPassedPayload)
	assert.True(t, tp.Drew)
	assert.Equal(t, 0, tp.By)
	assert.Equal(t, 1, tp.CurrentTurn)
}

func TestDrawFromEmptyPile(t *testing.T) {
	f := newFixture(t)
	id := pairRoom(t, f)
	f.set(t, id,
		[][]domino.Tile{tiles([2]int{0, 1}), tiles([2]int{2, 3})},
		domino.Chain{domino.NewTile(5, 5)},
		nil,
		0)

	assert.ErrorIs(t, f.reg.DrawTile("h", id), ErrBoneyardEmpty)
}

func TestPassTurn(t *testing.T) {
	tests := []struct {
		name    string
		hands   [][]domino.Tile
		pile    []domino.Tile
		wantErr error
		want    Phase
	}{
		{
			name:    "pile not empty",
			hands:   [][]domino.Tile{tiles([2]int{0, 1}), tiles([2]int{5, 6})},
			pile:    tiles([2]int{2, 2}),
			wantErr: ErrIllegalMove,
		},
		{
			name:    "holding a playable tile",
			hands:   [][]domino.Tile{tiles([2]int{0, 5}), tiles([2]int{5, 6})},
			wantErr: ErrIllegalMove,
		},
		{
			name:  "turn moves on",
			hands: [][]domino.Tile{tiles([2]int{0, 1}), tiles([2]int{5, 6})},
			want:  PhasePlaying,
		},
		{
			name:  "nobody can play",
			hands: [][]domino.Tile{tiles([2]int{0, 1}), tiles([2]int{3, 4}, [2]int{2, 2})},
			want:  PhaseFinished,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := pairRoom(t, f)
			f.set(t, id, tt.hands, domino.Chain{domino.NewTile(5, 5)}, tt.pile, 0)
			before := f.room(t, id).Snapshot()

			err := f.reg.PassTurn("h", id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, f.room(t, id).Snapshot())
				return
			}
			require.NoError(t, err)
			s := f.room(t, id).Snapshot()
			assert.Equal(t, tt.want, s.Phase)
			assert.Equal(t, 1, s.CurrentTurn)
		})
	}
}

func TestBlockedGameLowestPipsWin(t *testing.T) {
	tests := []struct {
		name  string
		hands [][]domino.Tile
		want  int
	}{
		{
			name:  "first seat lighter",
			hands: [][]domino.Tile{tiles([2]int{0, 1}), tiles([2]int{3, 4}, [2]int{2, 2})},
			want:  0,
		},
		{
			name:  "second seat lighter",
			hands: [][]domino.Tile{tiles([2]int{6, 6}), tiles([2]int{0, 0})},
			want:  1,
		},
		{
			name:  "tie goes to lower index",
			hands: [][]domino.Tile{tiles([2]int{0, 3}), tiles([2]int{1, 2})},
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := pairRoom(t, f)
			f.set(t, id, tt.hands, domino.Chain{domino.NewTile(5, 5)}, nil, 0)
			f.rec.reset()

			require.NoError(t, f.reg.PassTurn("h", id))
			s := f.room(t, id).Snapshot()
			require.Equal(t, PhaseFinished, s.Phase)
			assert.Equal(t, ReasonBlocked, s.Reason)
			assert.Equal(t, tt.want, s.Winner)

			assert.Equal(t, []EventKind{EventTurnPassed, EventGameFinished}, f.rec.kinds("g"))
			gf := f.rec.last("g").Payload.(GameFinishedPayload)
			assert.Equal(t, tt.want, gf.Winner)
			assert.Equal(t, ReasonBlocked, gf.Reason)
			assert.Len(t, gf.PipTotals, 2)
		})
	}
}

func TestEmptyHandWins(t *testing.T) {
	f := newFixture(t)
	id := pairRoom(t, f)
	f.set(t, id,
		[][]domino.Tile{tiles([2]int{0, 1}), tiles([2]int{2, 3}, [2]int{4, 4})},
		domino.Chain{domino.NewTile(1, 5)},
		tiles([2]int{6, 6}),
		0)
	f.rec.reset()

	require.NoError(t, f.reg.PlayTile("h", id, "0-1", domino.SideLeft))
	s := f.room(t, id).Snapshot()
	assert.Equal(t, PhaseFinished, s.Phase)
	assert.Equal(t, ReasonDomino, s.Reason)
	assert.Equal(t, 0, s.Winner)
	assert.Equal(t, 0, s.CurrentTurn, "turn does not advance past the winner")
	assert.Equal(t, domino.Chain{{Left: 0, Right: 1, ID: "0-1"}, domino.NewTile(1, 5)}, s.Chain)

	assert.Equal(t, []EventKind{EventTilePlayed, EventGameFinished}, f.rec.kinds("h"))
	assert.Equal(t, []EventKind{EventTilePlayed, EventGameFinished}, f.rec.kinds("g"))

	assert.ErrorIs(t, f.reg.PlayTile("g", id, "2-3", domino.SideRight), ErrGameFinished)
	assert.ErrorIs(t, f.reg.StartGame("h", id), ErrGameAlreadyStarted)
}

func TestStartRules(t *testing.T) {
	f := newFixture(t)
	id, err := f.reg.CreateRoom("h", "Host", ModePair)
	require.NoError(t, err)

	assert.ErrorIs(t, f.reg.PlayTile("h", id, "0-0", domino.SideCenter), ErrGameNotStarted)
	assert.ErrorIs(t, f.reg.StartGame("stranger", id), ErrNotInRoom)
	assert.ErrorIs(t, f.reg.StartGame("h", "NOPE42"), ErrRoomNotFound)

	require.NoError(t, f.reg.StartGame("h", id))
	s := f.room(t, id).Snapshot()
	assert.Len(t, s.Participants[0].Hand, domino.HandSize)
	assert.Len(t, s.Pile, domino.SetSize-domino.HandSize)

	assert.ErrorIs(t, f.reg.StartGame("h", id), ErrGameAlreadyStarted)
	assert.ErrorIs(t, f.reg.JoinRoom("g", id, "Guest"), ErrGameAlreadyStarted)
}

func TestAutomatedDrawThenPlay(t *testing.T) {
	f := newFixture(t)
	id, err := f.reg.CreateRoom("x", "X", ModeSingle)
	require.NoError(t, err)
	require.NoError(t, f.reg.StartGame("x", id))

	// drop the continuation armed by the deal, then set up bot 1 to move
	r := f.room(t, id)
	r.mu.Lock()
	r.sched.cancel()
	r.mu.Unlock()

	f.set(t, id,
		[][]domino.Tile{
			tiles([2]int{0, 0}),
			tiles([2]int{1, 1}),
			tiles([2]int{2, 2}),
			tiles([2]int{3, 3}),
		},
		domino.Chain{domino.NewTile(5, 6)},
		tiles([2]int{4, 4}, [2]int{1, 6}),
		1)
	f.arm(t, id)
	f.rec.reset()
	require.Equal(t, 1, f.clock.pending())

	require.True(t, f.clock.fireNext())
	s := r.Snapshot()
	assert.Equal(t, domino.Chain{domino.NewTile(5, 6), {Left: 6, Right: 1, ID: "1-6"}}, s.Chain)
	assert.Equal(t, tiles([2]int{1, 1}), s.Participants[1].Hand)
	assert.Equal(t, 2, s.CurrentTurn)
	ev := f.rec.last("x")
	require.Equal(t, EventTilePlayed, ev.Kind)
	tp := ev.Payload.(TilePlayedPayload)
	assert.True(t, tp.Drew)
	assert.Equal(t, 1, tp.By)

	// bot 2 draws 4-4, which does not fit either end
	require.True(t, f.clock.fireNext())
	s = r.Snapshot()
	assert.Equal(t, 3, s.CurrentTurn)
	assert.Empty(t, s.Pile)
	assert.Equal(t, tiles([2]int{2, 2}, [2]int{4, 4}), s.Participants[2].Hand)
	assert.Equal(t, PhasePlaying, s.Phase, "bot 1 can still play 1-1")
	ev = f.rec.last("x")
	require.Equal(t, EventTurnPassed, ev.Kind)
	assert.True(t, ev.Payload.(TurnPassedPayload).Drew)
	assert.Equal(t, 1, f.clock.pending())
}

func TestStaleContinuationIsNoop(t *testing.T) {
	f := newFixture(t)
	id, err := f.reg.CreateRoom("x", "X", ModeSingle)
	require.NoError(t, err)
	require.NoError(t, f.reg.StartGame("x", id))

	live := f.clock.live()
	require.Len(t, live, 1)
	task := live[0]
	r := f.room(t, id)

	f.reg.Leave("x")
	_, ok := f.reg.Room(id)
	assert.False(t, ok, "room is deleted with its last human")
	assert.Equal(t, 0, f.clock.pending())

	before := r.Snapshot()
	assert.True(t, before.Closed)
	// a timer that had already fired when it was stopped still runs
	assert.NotPanics(t, task.f)
	assert.Equal(t, before, r.Snapshot())
}

func TestRearmReplacesPendingContinuation(t *testing.T) {
	f := newFixture(t)
	id, err := f.reg.CreateRoom("x", "X", ModeSingle)
	require.NoError(t, err)
	require.NoError(t, f.reg.StartGame("x", id))

	first := f.clock.live()[0]
	f.arm(t, id)
	require.Equal(t, 1, f.clock.pending())
	assert.True(t, first.stopped)

	before := f.room(t, id).Snapshot()
	first.f()
	assert.Equal(t, before, f.room(t, id).Snapshot(), "superseded continuation must not move")

	require.True(t, f.clock.fireNext())
	assert.NotEqual(t, before.Turns, f.room(t, id).Snapshot().Turns)
}

func TestSuggestMovesCaches(t *testing.T) {
	f := newFixture(t)
	id := pairRoom(t, f)

	_, err := f.reg.SuggestMoves("stranger", id)
	assert.ErrorIs(t, err, ErrNotInRoom)

	first, err := f.reg.SuggestMoves("g", id)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, first.Result.CanPlay)
	assert.Len(t, first.Result.Moves, domino.HandSize)

	second, err := f.reg.SuggestMoves("g", "")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, first.HandHash, second.HandHash)

	require.NoError(t, f.reg.PlayTile("g", id, "2-2", domino.SideCenter))
	hint, err := f.reg.SuggestMoves("h", id)
	require.NoError(t, err)
	assert.False(t, hint.Cached)
	require.Len(t, hint.Result.Moves, 1)
	assert.Equal(t, "0-2", hint.Result.Moves[0].Tile.ID)
}
