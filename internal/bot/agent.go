package bot

import (
	"domino/internal/domino"
)

// Move is what an automated participant does on its turn.
type Move struct {
	// Drew is set when the bot took the top tile of the pile first.
	Drew  bool
	Drawn domino.Tile

	// Play is false when the turn passes without a placement.
	Play bool
	Tile domino.Tile
	Side domino.Side
}

// Pass reports a turn with no placement.
func (m Move) Pass() bool { return !m.Play }

// Decide picks a move without touching its inputs: the first playable tile
// in hand order on its first legal side; failing that, the top of the pile
// (the last element) played straight away if it fits. The caller moves the
// drawn tile into the hand when Drew is set.
func Decide(hand []domino.Tile, chain domino.Chain, pile []domino.Tile) Move {
	for _, t := range hand {
		if sides := domino.LegalSides(t, chain); len(sides) > 0 {
			return Move{Play: true, Tile: t, Side: sides[0]}
		}
	}

	if len(pile) == 0 {
		return Move{}
	}

	drawn := pile[len(pile)-1]
	m := Move{Drew: true, Drawn: drawn}
	if sides := domino.LegalSides(drawn, chain); len(sides) > 0 {
		m.Play, m.Tile, m.Side = true, drawn, sides[0]
	}
	return m
}
