package apperror

import "errors"

var (
	ErrOutOfBounds       = errors.New("coordinate is out of bounds")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrWrongPhase        = errors.New("command is not allowed in the current phase")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrInvalidBoardSize  = errors.New("board size must be at least 5")
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
)
