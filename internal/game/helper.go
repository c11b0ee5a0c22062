package game

import (
	"cmp"
	"slices"
)

// Position is a board coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type positionSet map[Position]struct{}

func (s positionSet) add(ps ...Position) {
	for _, p := range ps {
		s[p] = struct{}{}
	}
}

func (s positionSet) sorted() []Position {
	if len(s) == 0 {
		return nil
	}
	out := make([]Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Position) int {
		if n := cmp.Compare(a.Row, b.Row); n != 0 {
			return n
		}
		return cmp.Compare(a.Col, b.Col)
	})
	return out
}
