package domino

import "sort"

// Hint is one playable tile from a hand with every side it may attach to.
type Hint struct {
	Tile  Tile   `json:"tile"`
	Sides []Side `json:"sides"`
}

// HintResult is what Suggest reports for a hand against a chain.
type HintResult struct {
	Moves      []Hint   `json:"moves"`
	Unplayable []string `json:"unplayable"`
	LeftEnd    *int     `json:"leftEnd,omitempty"`
	RightEnd   *int     `json:"rightEnd,omitempty"`
	CanPlay    bool     `json:"canPlay"`
}

// Suggest lists the legal moves for hand. Heavier tiles come first since
// shedding pips early lowers the count if the game ends blocked; doubles win
// ties. Unplayable ids keep hand order.
func Suggest(hand []Tile, c Chain) HintResult {
	res := HintResult{
		Moves:      make([]Hint, 0, len(hand)),
		Unplayable: make([]string, 0, len(hand)),
	}
	if l, r, ok := OpenEnds(c); ok {
		res.LeftEnd, res.RightEnd = &l, &r
	}

	for _, t := range hand {
		sides := LegalSides(t, c)
		if len(sides) == 0 {
			res.Unplayable = append(res.Unplayable, t.ID)
			continue
		}
		res.Moves = append(res.Moves, Hint{Tile: t, Sides: sides})
	}

	sort.SliceStable(res.Moves, func(i, j int) bool {
		a, b := res.Moves[i].Tile, res.Moves[j].Tile
		if a.Pips() != b.Pips() {
			return a.Pips() > b.Pips()
		}
		return a.IsDouble() && !b.IsDouble()
	})
	res.CanPlay = len(res.Moves) > 0
	return res
}

// HintKey identifies a Suggest result: the hand and the two open ends are
// the only inputs that matter.
func HintKey(hand []Tile, c Chain) string {
	key := HandHash(hand)
	l, r, ok := OpenEnds(c)
	if !ok {
		return key + ":empty"
	}
	return key + ":" + string(rune('0'+l)) + string(rune('0'+r))
}
