package gobang

import (
	"fmt"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/entity"
)

type MoveStatus string

const (
	MoveContinued MoveStatus = "continued"
	MoveWin       MoveStatus = "win"
)

// MoveOutcome is the result of an accepted move. Winner is set only for MoveWin.
type MoveOutcome struct {
	Status MoveStatus    `json:"status"`
	Winner entity.Player `json:"winner,omitempty"`
}

func (that MoveOutcome) IsWin() bool {
	return that.Status == MoveWin
}

// Option configures a Session.
type Option func(*Session)

// WithPhaseNotifier registers fn to be called after every phase change.
// It runs synchronously inside the command that caused the change.
func WithPhaseNotifier(fn func(entity.Phase)) Option {
	return func(s *Session) {
		s.notify = fn
	}
}

// Session is the turn and phase state machine of one game. It exclusively
// owns its board and is not safe for concurrent use: callers serialize every
// read and write behind one lock. The zero value has no board and is not
// usable, build sessions with NewSession or RestoreSession.
type Session struct {
	board  *Board
	active entity.Player
	phase  entity.Phase
	winner *entity.Player
	notify func(entity.Phase)
}

// NewSession returns a session in the ready phase with an empty board.
func NewSession(boardSize int, opts ...Option) (*Session, error) {
	board, err := NewBoard(boardSize)
	if err != nil {
		return nil, fmt.Errorf("could not create board: %w", err)
	}

	session := &Session{
		board:  board,
		active: entity.PlayerBlack,
		phase:  entity.PhaseReady,
	}

	for _, opt := range opts {
		opt(session)
	}

	return session, nil
}

func (that *Session) Size() int {
	return that.board.Size()
}

func (that *Session) CellAt(x, y int) (entity.Cell, error) {
	return that.board.CellAt(x, y)
}

func (that *Session) Phase() entity.Phase {
	return that.phase
}

func (that *Session) ActivePlayer() entity.Player {
	return that.active
}

// Winner returns the winner of a finished round.
func (that *Session) Winner() (entity.Player, bool) {
	if that.winner == nil {
		return "", false
	}

	return *that.winner, true
}

// StartNewGame clears the board and returns to the ready phase. It is valid
// in every phase and is the only way out of PhaseFinished.
func (that *Session) StartNewGame() {
	that.board.clear()
	that.active = entity.PlayerBlack
	that.winner = nil
	that.setPhase(entity.PhaseReady)
}

func (that *Session) BeginPlay() error {
	if that.phase != entity.PhaseReady {
		return fmt.Errorf("%w: cannot begin play while %s", apperror.ErrWrongPhase, that.phase)
	}

	that.setPhase(entity.PhasePlaying)

	return nil
}

// AttemptMove places a stone for the active player. Failed moves leave the
// session unchanged.
func (that *Session) AttemptMove(x, y int) (MoveOutcome, error) {
	if that.phase != entity.PhasePlaying {
		return MoveOutcome{}, fmt.Errorf("%w: cannot move while %s", apperror.ErrWrongPhase, that.phase)
	}

	player := that.active
	if err := that.board.Place(x, y, player); err != nil {
		return MoveOutcome{}, fmt.Errorf("invalid move: %w", err)
	}

	if that.board.CheckWin(player) {
		that.winner = &player
		that.setPhase(entity.PhaseFinished)

		return MoveOutcome{Status: MoveWin, Winner: player}, nil
	}

	that.active = player.Other()

	return MoveOutcome{Status: MoveContinued}, nil
}

// UndoLastMove takes back the last stone and returns the turn to its owner.
// It reports false and changes nothing outside PhasePlaying or when there is
// nothing to undo.
func (that *Session) UndoLastMove() bool {
	if that.phase != entity.PhasePlaying {
		return false
	}

	if !that.board.Undo() {
		return false
	}

	that.active = that.active.Other()

	return true
}

func (that *Session) setPhase(phase entity.Phase) {
	that.phase = phase

	if that.notify != nil {
		that.notify(phase)
	}
}
