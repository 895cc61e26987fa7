package game

import (
	"sync"
	"testing"
	"time"

	"domino/internal/domino"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// identityIntn keeps NewShuffledSet in canonical order, so deals are known:
// with two participants the first holds 0-0..0-6 and the second 1-1..1-6,2-2.
func identityIntn(n int) int { return n - 1 }

type manualTask struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTask) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

// manualClock collects scheduled continuations and runs them on demand in
// the calling goroutine.
type manualClock struct {
	mu    sync.Mutex
	tasks []*manualTask
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTask{d: d, f: f}
	c.tasks = append(c.tasks, t)
	return t
}

func (c *manualClock) live() []*manualTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTask
	for _, t := range c.tasks {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (c *manualClock) pending() int { return len(c.live()) }

// fireNext runs the oldest live continuation. It reports false when none is
// pending.
func (c *manualClock) fireNext() bool {
	live := c.live()
	if len(live) == 0 {
		return false
	}
	t := live[0]
	c.mu.Lock()
	t.fired = true
	c.mu.Unlock()
	t.f()
	return true
}

type recorder struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newRecorder() *recorder { return &recorder{events: make(map[string][]Event)} }

func (r *recorder) Notify(connID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[connID] = append(r.events[connID], ev)
}

func (r *recorder) kinds(connID string) []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events[connID]))
	for _, ev := range r.events[connID] {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) last(connID string) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[connID]
	if len(evs) == 0 {
		return Event{}
	}
	return evs[len(evs)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(map[string][]Event)
}

func nullEntry() *log.Entry {
	logger, _ := test.NewNullLogger()
	return log.NewEntry(logger)
}

type fixture struct {
	reg   *Registry
	rec   *recorder
	clock *manualClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{rec: newRecorder(), clock: &manualClock{}}
	f.reg = NewRegistry(f.rec, Options{
		TurnDelay: 1500 * time.Millisecond,
		AfterFunc: f.clock.AfterFunc,
		Intn:      identityIntn,
		Logger:    nullEntry(),
	})
	return f
}

func (f *fixture) room(t *testing.T, id string) *Room {
	t.Helper()
	r, ok := f.reg.Room(id)
	require.True(t, ok, "room %s should exist", id)
	return r
}

// set rewrites a started room's hands, chain, pile and turn.
func (f *fixture) set(t *testing.T, id string, hands [][]domino.Tile, chain domino.Chain, pile []domino.Tile, turn int) {
	t.Helper()
	r := f.room(t, id)
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, hands, len(r.participants))
	for i, h := range hands {
		r.participants[i].Hand = h
	}
	r.chain = chain
	r.pile = pile
	r.currentTurn = turn
}

func tiles(pairs ...[2]int) []domino.Tile {
	out := make([]domino.Tile, len(pairs))
	for i, p := range pairs {
		out[i] = domino.NewTile(p[0], p[1])
	}
	return out
}

// checkRoom asserts the structural invariants every observable state keeps.
func checkRoom(t *testing.T, s Snapshot) {
	t.Helper()
	for i := 0; i+1 < len(s.Chain); i++ {
		require.Equal(t, s.Chain[i].Right, s.Chain[i+1].Left, "chain broken at %d", i)
	}
	if s.Phase == PhasePlaying {
		require.GreaterOrEqual(t, s.CurrentTurn, 0)
		require.Less(t, s.CurrentTurn, len(s.Participants))
	}
	seen := make(map[string]bool)
	add := func(ts []domino.Tile) {
		for _, tl := range ts {
			require.False(t, seen[tl.ID], "tile %s appears twice", tl.ID)
			seen[tl.ID] = true
		}
	}
	add(s.Chain)
	add(s.Pile)
	for _, p := range s.Participants {
		add(p.Hand)
	}
}
