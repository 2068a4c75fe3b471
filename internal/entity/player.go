package entity

import (
	"errors"
	"fmt"
)

// Player identifies one of the two sides. Black always moves first.
type Player string

const (
	PlayerBlack Player = "black"
	PlayerWhite Player = "white"
)

// Persistence codes, shared with cell codes.
const (
	CodeBlack = 0
	CodeWhite = 1
	CodeNone  = 2
)

var ErrUnknownPlayerCode = errors.New("unknown player code")

// Other returns the opponent of that.
func (that Player) Other() Player {
	if that == PlayerBlack {
		return PlayerWhite
	}
	return PlayerBlack
}

func (that Player) Code() int {
	if that == PlayerBlack {
		return CodeBlack
	}
	return CodeWhite
}

func (that Player) String() string {
	return string(that)
}

func PlayerFromCode(code int) (Player, error) {
	switch code {
	case CodeBlack:
		return PlayerBlack, nil
	case CodeWhite:
		return PlayerWhite, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownPlayerCode, code)
	}
}
