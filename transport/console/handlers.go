package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/entity"
)

const helpText = `commands:
  new        start a new game
  start      begin play
  tap X Y    begin, move or restart depending on the game state
  move X Y   place a stone at column X, row Y
  undo       take back the last stone
  show       print the board
  save       save the game
  delete     forget the saved game and leave
  quit       save and leave
`

func (that *Server) handleNewGame(ctx context.Context, gameID string, _ []string) error {
	view, err := that.uGame.NewGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to start new game: %w", err)
	}

	that.render(view)

	return nil
}

func (that *Server) handleBeginPlay(ctx context.Context, gameID string, _ []string) error {
	view, err := that.uGame.BeginPlay(ctx, gameID)
	if errors.Is(err, apperror.ErrWrongPhase) {
		that.printf("game is not ready, type new to start over\n")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to begin play: %w", err)
	}

	that.render(view)

	return nil
}

func (that *Server) handleUndo(ctx context.Context, gameID string, _ []string) error {
	view, err := that.uGame.View(gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	if view.Phase != entity.PhasePlaying {
		that.printf("undo is only available while playing\n")
		return nil
	}

	undone, view, err := that.uGame.Undo(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to undo: %w", err)
	}

	if !undone {
		that.printf("cannot undo further\n")
		return nil
	}

	that.render(view)

	return nil
}

func (that *Server) handleMove(ctx context.Context, gameID string, args []string) error {
	x, y, ok := that.parsePoint(args)
	if !ok {
		return nil
	}

	outcome, view, err := that.uGame.MakeMove(ctx, gameID, x, y)
	switch {
	case errors.Is(err, apperror.ErrOutOfBounds):
		that.printf("(%d, %d) is off the board\n", x, y)
		return nil
	case errors.Is(err, apperror.ErrCellOccupied):
		that.printf("(%d, %d) is already taken\n", x, y)
		return nil
	case errors.Is(err, apperror.ErrWrongPhase):
		that.printf("game is not being played\n")
		return nil
	case err != nil:
		return fmt.Errorf("failed to make move: %w", err)
	}

	that.render(view)

	if outcome.IsWin() {
		that.logger.Info("game won", "gameID", gameID, "winner", outcome.Winner)
	}

	return nil
}

// handleTap reproduces a touch on the board: it begins a ready game, places a
// stone in a running one and resets a finished one.
func (that *Server) handleTap(ctx context.Context, gameID string, args []string) error {
	view, err := that.uGame.View(gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	switch view.Phase {
	case entity.PhaseReady:
		return that.handleBeginPlay(ctx, gameID, nil)
	case entity.PhaseFinished:
		return that.handleNewGame(ctx, gameID, nil)
	default:
		return that.handleMove(ctx, gameID, args)
	}
}

func (that *Server) handleShow(_ context.Context, gameID string, _ []string) error {
	view, err := that.uGame.View(gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	that.render(view)

	return nil
}

func (that *Server) handleSave(ctx context.Context, gameID string, _ []string) error {
	if err := that.uGame.Save(ctx, gameID); err != nil {
		that.printf("could not save the game\n")
		return fmt.Errorf("failed to save game: %w", err)
	}

	that.printf("saved\n")

	return nil
}

func (that *Server) handleDelete(ctx context.Context, gameID string, _ []string) error {
	if err := that.uGame.DeleteGame(ctx, gameID); err != nil {
		that.printf("could not delete the game\n")
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.printf("game deleted\n")

	return errQuit
}

func (that *Server) handleHelp(_ context.Context, _ string, _ []string) error {
	that.printf("%s", helpText)
	return nil
}

func (that *Server) handleQuit(_ context.Context, _ string, _ []string) error {
	return errQuit
}

func (that *Server) parsePoint(args []string) (int, int, bool) {
	if len(args) != 2 {
		that.printf("expected two coordinates: X Y\n")
		return 0, 0, false
	}

	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		that.printf("coordinates must be numbers\n")
		return 0, 0, false
	}

	return x, y, true
}
