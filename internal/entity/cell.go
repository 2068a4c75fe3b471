package entity

import (
	"errors"
	"fmt"
)

// Cell is the content of one board position: empty or a player's stone.
type Cell string

const EmptyCell Cell = ""

var ErrUnknownCellCode = errors.New("unknown cell code")

func CellOf(player Player) Cell {
	return Cell(player)
}

func (that Cell) IsEmpty() bool {
	return that == EmptyCell
}

// Player reports the owner of the stone, false for an empty cell.
func (that Cell) Player() (Player, bool) {
	switch Player(that) {
	case PlayerBlack, PlayerWhite:
		return Player(that), true
	default:
		return "", false
	}
}

// Glyph is the one-character text form: B, W or . for empty.
func (that Cell) Glyph() byte {
	switch player, _ := that.Player(); player {
	case PlayerBlack:
		return 'B'
	case PlayerWhite:
		return 'W'
	default:
		return '.'
	}
}

func (that Cell) Code() int {
	player, ok := that.Player()
	if !ok {
		return CodeNone
	}
	return player.Code()
}

func CellFromCode(code int) (Cell, error) {
	if code == CodeNone {
		return EmptyCell, nil
	}

	player, err := PlayerFromCode(code)
	if err != nil {
		return EmptyCell, fmt.Errorf("%w: %d", ErrUnknownCellCode, code)
	}

	return CellOf(player), nil
}
