// Command simulate plays whole single-mode games through the Registry with
// the human seat driven by the move hints, then prints a JSON summary.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"domino/internal/domino"
	"domino/internal/game"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli"
)

type Summary struct {
	Games        int                       `json:"games"`
	Finished     int                       `json:"finished"`
	TimedOut     int                       `json:"timedOut"`
	Reasons      map[game.FinishReason]int `json:"reasons"`
	WinsBySeat   []int                     `json:"winsBySeat"`
	AverageTurns float64                   `json:"averageTurns"`
	Elapsed      string                    `json:"elapsed"`
}

func main() {
	app := cli.NewApp()
	app.Name = "domino-simulate"
	app.Usage = "run automated single-mode games and report the outcomes"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "games,n", Usage: "number of games", Value: 100},
		cli.IntFlag{Name: "parallel,p", Usage: "games running at once", Value: 8},
		cli.DurationFlag{Name: "delay", Usage: "pause before automated moves", Value: 0},
		cli.DurationFlag{Name: "timeout", Usage: "give up on a game after this long", Value: 30 * time.Second},
		cli.Uint64Flag{Name: "seed", Usage: "shuffle seed, 0 for crypto/rand"},
		cli.StringFlag{Name: "log-level,l", Usage: "Log `level` for output", Value: "warn"},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	level, err := log.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	games := c.Int("games")
	if games < 1 {
		return fmt.Errorf("games must be at least 1")
	}
	parallel := c.Int("parallel")
	if parallel < 1 {
		parallel = 1
	}

	seats := newRouter()
	opts := game.Options{
		TurnDelay: c.Duration("delay"),
		Logger:    log.WithField("app", "simulate"),
	}
	if seed := c.Uint64("seed"); seed != 0 {
		opts.Intn = lockedIntn(seed)
	}
	reg := game.NewRegistry(seats, opts)
	defer reg.Shutdown()

	start := time.Now()
	results := make(chan *game.GameFinishedPayload, games)
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	for i := 0; i < games; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results <- playOne(reg, seats, c.Duration("timeout"))
		}()
	}
	wg.Wait()
	close(results)

	sum := Summary{
		Games:      games,
		Reasons:    make(map[game.FinishReason]int),
		WinsBySeat: make([]int, game.Capacity(game.ModeSingle)),
	}
	turns := 0
	for fin := range results {
		if fin == nil {
			sum.TimedOut++
			continue
		}
		sum.Finished++
		sum.Reasons[fin.Reason]++
		if fin.Winner >= 0 && fin.Winner < len(sum.WinsBySeat) {
			sum.WinsBySeat[fin.Winner]++
		}
		turns += fin.Turns
	}
	if sum.Finished > 0 {
		sum.AverageTurns = float64(turns) / float64(sum.Finished)
	}
	sum.Elapsed = time.Since(start).Round(time.Millisecond).String()

	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// lockedIntn shares one seeded source between rooms shuffling concurrently.
func lockedIntn(seed uint64) domino.Intn {
	var mu sync.Mutex
	r := rand.New(rand.NewPCG(seed, seed))
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		return r.IntN(n)
	}
}

func playOne(reg *game.Registry, seats *router, timeout time.Duration) *game.GameFinishedPayload {
	s := &seat{
		id:     "sim-" + uuid.NewString(),
		reg:    reg,
		events: make(chan game.Event, 1024),
		log:    log.WithField("app", "simulate"),
	}
	seats.add(s.id, s.events)
	defer seats.remove(s.id)
	defer reg.Leave(s.id)

	if _, err := reg.CreateRoom(s.id, "", game.ModeSingle); err != nil {
		s.log.WithError(err).Error("create room")
		return nil
	}
	if err := reg.StartGame(s.id, ""); err != nil {
		s.log.WithError(err).Error("start game")
		return nil
	}

	deadline := time.After(timeout)
	for {
		select {
		case ev := <-s.events:
			if fin := s.handle(ev); fin != nil {
				return fin
			}
		case <-deadline:
			s.log.WithField("conn", s.id).Warn("game timed out")
			return nil
		}
	}
}
