package game

import (
	"errors"
)

// Cell is the content of a single board position.
type Cell int8

const (
	Empty Cell = iota
	Seat0
	Seat1
)

// Seats is the number of players sharing a board.
const Seats = 2

var (
	ErrInvalidColumn     = errors.New("invalid column")
	ErrColumnFull        = errors.New("column is full")
	ErrInvalidDimensions = errors.New("board dimensions must be positive")
	ErrInvalidSeat       = errors.New("invalid seat")
)

// direction vectors scanned for winning runs: horizontal, vertical, diagonal, anti-diagonal.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// Board is a rows x cols grid where pieces fall to the lowest free row.
// Row 0 is the bottom of the board.
type Board struct {
	rows  int
	cols  int
	cells [][]Cell
	moves int
}

// NewBoard allocates an empty board.
func NewBoard(rows, cols int) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}
	return &Board{rows: rows, cols: cols, cells: cells}, nil
}

func (b *Board) Rows() int { return b.rows }
func (b *Board) Cols() int { return b.cols }

// At returns the cell at the given position. Out of range positions read as Empty.
func (b *Board) At(row, col int) Cell {
	if !b.inside(row, col) {
		return Empty
	}
	return b.cells[row][col]
}

// Full reports whether every cell is occupied.
func (b *Board) Full() bool {
	return b.moves == b.rows*b.cols
}

// Drop places a piece for seat in column and returns the row it landed on.
func (b *Board) Drop(seat, column int) (int, error) {
	cell, err := SeatCell(seat)
	if err != nil {
		return -1, err
	}
	if column < 0 || column >= b.cols {
		return -1, ErrInvalidColumn
	}
	for row := 0; row < b.rows; row++ {
		if b.cells[row][column] == Empty {
			b.cells[row][column] = cell
			b.moves++
			return row, nil
		}
	}
	return -1, ErrColumnFull
}

// FindWinningLines returns every position belonging to a straight run of at
// least connectLength pieces owned by seat. Each position appears once and the
// result is ordered by row, then column.
func (b *Board) FindWinningLines(seat, connectLength int) []Position {
	cell, err := SeatCell(seat)
	if err != nil || connectLength <= 0 {
		return nil
	}

	found := make(positionSet)
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			if b.cells[r][c] != cell {
				continue
			}
			for _, d := range directions {
				run := b.walk(r, c, d[0], d[1], cell)
				if len(run) >= connectLength {
					found.add(run...)
				}
			}
		}
	}
	return found.sorted()
}

// Grid returns a copy of the cells, bottom row first.
func (b *Board) Grid() [][]Cell {
	grid := make([][]Cell, b.rows)
	for r := range b.cells {
		grid[r] = append([]Cell(nil), b.cells[r]...)
	}
	return grid
}

// walk collects consecutive cells owned by cell starting at (r, c) in direction (dr, dc).
func (b *Board) walk(r, c, dr, dc int, cell Cell) []Position {
	var run []Position
	for b.inside(r, c) && b.cells[r][c] == cell {
		run = append(run, Position{Row: r, Col: c})
		r += dr
		c += dc
	}
	return run
}

func (b *Board) inside(r, c int) bool {
	return r >= 0 && r < b.rows && c >= 0 && c < b.cols
}

// SeatCell maps a seat index to the cell value it places.
func SeatCell(seat int) (Cell, error) {
	switch seat {
	case 0:
		return Seat0, nil
	case 1:
		return Seat1, nil
	default:
		return Empty, ErrInvalidSeat
	}
}
