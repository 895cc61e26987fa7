package domino

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sort"
	"strings"
)

const (
	// MaxPip is the highest pip value on a double-six set.
	MaxPip = 6
	// SetSize is the number of tiles in a double-six set.
	SetSize = 28
	// HandSize is the number of tiles dealt to each participant.
	HandSize = 7
)

var (
	ErrInsufficientTiles = errors.New("not enough tiles to deal")
	ErrNoParticipants    = errors.New("no participants to deal to")
)

// Tile is a domino. Left and Right are the pip values in the orientation the
// tile is currently stored in; ID is fixed at creation ("a-b" with a <= b).
type Tile struct {
	Left  int    `json:"left"`
	Right int    `json:"right"`
	ID    string `json:"id"`
}

// NewTile builds a tile in canonical orientation.
func NewTile(a, b int) Tile {
	if a > b {
		a, b = b, a
	}
	return Tile{Left: a, Right: b, ID: fmt.Sprintf("%d-%d", a, b)}
}

func (t Tile) IsDouble() bool { return t.Left == t.Right }

// Flip returns the tile with its pips swapped; the id is unchanged.
func (t Tile) Flip() Tile { return Tile{Left: t.Right, Right: t.Left, ID: t.ID} }

// Has reports whether either pip equals v.
func (t Tile) Has(v int) bool { return t.Left == v || t.Right == v }

func (t Tile) Pips() int { return t.Left + t.Right }

func (t Tile) String() string { return fmt.Sprintf("[%d|%d]", t.Left, t.Right) }

// Intn returns a uniformly distributed integer in [0, n).
type Intn func(n int) int

// CryptoIntn draws from crypto/rand. If the system source fails it falls back
// to math/rand/v2, which is still uniform.
func CryptoIntn(n int) int {
	x, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mrand.IntN(n)
	}
	return int(x.Int64())
}

// NewSet returns the 28 canonical tiles (0,0) .. (6,6) in ascending order.
func NewSet() []Tile {
	set := make([]Tile, 0, SetSize)
	for i := 0; i <= MaxPip; i++ {
		for j := i; j <= MaxPip; j++ {
			set = append(set, NewTile(i, j))
		}
	}
	return set
}

// Shuffle applies a Fisher-Yates permutation in place.
func Shuffle(tiles []Tile, intn Intn) {
	if intn == nil {
		intn = CryptoIntn
	}
	for i := len(tiles) - 1; i > 0; i-- {
		j := intn(i + 1)
		tiles[i], tiles[j] = tiles[j], tiles[i]
	}
}

// NewShuffledSet returns a full set in uniformly random order.
func NewShuffledSet(intn Intn) []Tile {
	set := NewSet()
	Shuffle(set, intn)
	return set
}

// Deal hands out HandSize tiles to each of n participants in turn order and
// returns the remainder as the draw pile. The input slice is not modified.
func Deal(n int, set []Tile) ([][]Tile, []Tile, error) {
	if n < 1 {
		return nil, nil, ErrNoParticipants
	}
	if n*HandSize > len(set) {
		return nil, nil, fmt.Errorf("%w: %d participants need %d tiles, have %d", ErrInsufficientTiles, n, n*HandSize, len(set))
	}
	hands := make([][]Tile, n)
	for i := 0; i < n; i++ {
		hands[i] = append([]Tile(nil), set[i*HandSize:(i+1)*HandSize]...)
	}
	pile := append([]Tile(nil), set[n*HandSize:]...)
	return hands, pile, nil
}

// HighestDoubleHolder returns the index of the hand holding the highest
// double. ok is false when nobody holds a double.
func HighestDoubleHolder(hands [][]Tile) (idx int, ok bool) {
	best := -1
	idx = -1
	for i, hand := range hands {
		for _, t := range hand {
			if t.IsDouble() && t.Left > best {
				best = t.Left
				idx = i
			}
		}
	}
	return idx, idx >= 0
}

// IndexOf returns the position of the tile with the given id, or -1.
func IndexOf(hand []Tile, id string) int {
	for i := range hand {
		if hand[i].ID == id {
			return i
		}
	}
	return -1
}

// Remove returns a new hand without the tile at i, preserving order.
func Remove(hand []Tile, i int) []Tile {
	out := make([]Tile, 0, len(hand)-1)
	out = append(out, hand[:i]...)
	return append(out, hand[i+1:]...)
}

// PipTotal sums all pips in a hand.
func PipTotal(hand []Tile) int {
	n := 0
	for _, t := range hand {
		n += t.Pips()
	}
	return n
}

// HandHash identifies a hand regardless of tile order.
func HandHash(hand []Tile) string {
	ids := make([]string, len(hand))
	for i, t := range hand {
		ids[i] = t.ID
	}
	sort.Strings(ids)
	h := sha1.Sum([]byte(strings.Join(ids, "|")))
	return hex.EncodeToString(h[:])
}
