package gobang

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/entity"
)

const (
	// WinLength is the number of consecutive stones that wins a round.
	WinLength = 5

	DefaultBoardSize = 15
)

// Point is a board coordinate, x is the column and y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board is a square grid of cells with a single remembered move for undo.
// It is not safe for concurrent use.
type Board struct {
	size     int
	cells    []entity.Cell
	lastMove *Point
}

// NewBoard returns an empty size×size board. Sizes below WinLength are a
// configuration error.
func NewBoard(size int) (*Board, error) {
	if size < WinLength {
		return nil, fmt.Errorf("%w: got %d", apperror.ErrInvalidBoardSize, size)
	}

	return &Board{
		size:  size,
		cells: make([]entity.Cell, size*size),
	}, nil
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) IsValid(x, y int) bool {
	return 0 <= x && x < that.size && 0 <= y && y < that.size
}

func (that *Board) CellAt(x, y int) (entity.Cell, error) {
	if !that.IsValid(x, y) {
		return entity.EmptyCell, outOfBounds(x, y)
	}

	return that.cells[that.index(x, y)], nil
}

func (that *Board) IsEmptyAt(x, y int) (bool, error) {
	cell, err := that.CellAt(x, y)
	if err != nil {
		return false, err
	}

	return cell.IsEmpty(), nil
}

// Place puts a stone of player at (x, y) and remembers it as the last move.
func (that *Board) Place(x, y int, player entity.Player) error {
	empty, err := that.IsEmptyAt(x, y)
	if err != nil {
		return err
	}

	if !empty {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, x, y)
	}

	that.cells[that.index(x, y)] = entity.CellOf(player)
	that.lastMove = &Point{X: x, Y: y}

	return nil
}

// Undo removes the last placed stone. Only one step is remembered.
func (that *Board) Undo() bool {
	if that.lastMove == nil {
		return false
	}

	last := *that.lastMove
	if !that.IsValid(last.X, last.Y) || that.cells[that.index(last.X, last.Y)].IsEmpty() {
		return false
	}

	that.cells[that.index(last.X, last.Y)] = entity.EmptyCell
	that.lastMove = nil

	return true
}

// LastMove returns the most recently placed stone, if any.
func (that *Board) LastMove() (Point, bool) {
	if that.lastMove == nil {
		return Point{}, false
	}

	return *that.lastMove, true
}

// CheckWin reports whether player has WinLength or more stones in a row
// horizontally, vertically or on either diagonal.
func (that *Board) CheckWin(player entity.Player) bool {
	stone := entity.CellOf(player)
	size := that.size

	// x and y increasing; offsets cover every diagonal with WinLength cells
	for s := WinLength - size; s < size-WinLength+1; s++ {
		if that.scanLine(stone, s, 0, 1, 1) {
			return true
		}
	}

	// x decreasing, y increasing
	for s := 2*size - WinLength; s >= WinLength-1; s-- {
		if that.scanLine(stone, s, 0, -1, 1) {
			return true
		}
	}

	for x := 0; x < size; x++ {
		if that.scanLine(stone, x, 0, 0, 1) {
			return true
		}
	}

	for y := 0; y < size; y++ {
		if that.scanLine(stone, 0, y, 1, 0) {
			return true
		}
	}

	return false
}

// scanLine walks size steps from (x, y) by (dx, dy). Positions off the board
// are skipped and leave the counter untouched.
func (that *Board) scanLine(stone entity.Cell, x, y, dx, dy int) bool {
	count := 0

	for step := 0; step < that.size; step++ {
		if that.IsValid(x, y) {
			if that.cells[that.index(x, y)] == stone {
				count++
			} else {
				count = 0
			}

			if count == WinLength {
				return true
			}
		}

		x += dx
		y += dy
	}

	return false
}

// String dumps the board row by row, see formatGrid.
func (that *Board) String() string {
	return formatGrid(that.size, func(x, y int) entity.Cell {
		return that.cells[that.index(x, y)]
	})
}

// formatGrid writes one line per row with cell glyphs separated by spaces.
func formatGrid(size int, cellAt func(x, y int) entity.Cell) string {
	var sb strings.Builder

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(cellAt(x, y).Glyph())
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// clear empties every cell and forgets the last move.
func (that *Board) clear() {
	for i := range that.cells {
		that.cells[i] = entity.EmptyCell
	}
	that.lastMove = nil
}

func (that *Board) index(x, y int) int {
	return y*that.size + x
}

func outOfBounds(x, y int) error {
	return fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfBounds, x, y)
}
