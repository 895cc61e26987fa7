package domino

import "fmt"

// Side is where a tile attaches to the chain.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideCenter Side = "center"
)

// ParseSide validates a side name coming off the wire.
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideLeft, SideRight, SideCenter:
		return Side(s), true
	}
	return "", false
}

// Chain is the board: placed tiles in order, each oriented so that
// chain[i].Right == chain[i+1].Left.
type Chain []Tile

// OpenEnds returns the outward pips of the first and last tile. ok is false
// for an empty chain.
func OpenEnds(c Chain) (left, right int, ok bool) {
	if len(c) == 0 {
		return 0, 0, false
	}
	return c[0].Left, c[len(c)-1].Right, true
}

// IsPlayable reports whether t can attach anywhere on c.
func IsPlayable(t Tile, c Chain) bool {
	l, r, ok := OpenEnds(c)
	if !ok {
		return true
	}
	return t.Has(l) || t.Has(r)
}

// LegalSides lists where t may attach, left before right. An empty chain
// only accepts center.
func LegalSides(t Tile, c Chain) []Side {
	l, r, ok := OpenEnds(c)
	if !ok {
		return []Side{SideCenter}
	}
	var sides []Side
	if t.Has(l) {
		sides = append(sides, SideLeft)
	}
	if t.Has(r) {
		sides = append(sides, SideRight)
	}
	return sides
}

// IsLegal reports whether side is one of LegalSides(t, c).
func IsLegal(t Tile, c Chain, side Side) bool {
	for _, s := range LegalSides(t, c) {
		if s == side {
			return true
		}
	}
	return false
}

// ApplyMove returns a new chain with t attached at side. The input chain is
// not modified. Callers must check IsLegal first; a mismatched tile panics.
func ApplyMove(t Tile, c Chain, side Side) Chain {
	l, r, ok := OpenEnds(c)
	switch {
	case !ok:
		if side != SideCenter {
			panic(fmt.Sprintf("domino: %s played %s on an empty chain", t, side))
		}
		return Chain{t}
	case side == SideLeft:
		placed, matched := orient(t, l, false)
		if !matched {
			panic(fmt.Sprintf("domino: %s does not match left end %d", t, l))
		}
		out := make(Chain, 0, len(c)+1)
		out = append(out, placed)
		return append(out, c...)
	case side == SideRight:
		placed, matched := orient(t, r, true)
		if !matched {
			panic(fmt.Sprintf("domino: %s does not match right end %d", t, r))
		}
		out := make(Chain, 0, len(c)+1)
		out = append(out, c...)
		return append(out, placed)
	}
	panic(fmt.Sprintf("domino: %s played %s on a non-empty chain", t, side))
}

// orient turns t so that the pip touching end faces inward. For the right
// end that is the tile's Left pip, for the left end its Right pip.
func orient(t Tile, end int, right bool) (Tile, bool) {
	inward, outward := t.Right, t.Left
	if right {
		inward, outward = t.Left, t.Right
	}
	switch end {
	case inward:
		return t, true
	case outward:
		return t.Flip(), true
	}
	return t, false
}
