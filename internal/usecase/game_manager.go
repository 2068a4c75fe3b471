package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/entity"
	"github.com/rocketscienceinc/gobang-backend/internal/gobang"
)

type snapshotRepo interface {
	Save(ctx context.Context, id string, snap *gobang.Snapshot) error
	GetByID(ctx context.Context, id string) (*gobang.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

// table is one live game. mu guards every read and write of session.
type table struct {
	mu      sync.Mutex
	session *gobang.Session
}

// GameManager owns the live sessions and persists them after each command.
type GameManager struct {
	logger    *slog.Logger
	repo      snapshotRepo
	boardSize int

	mu     sync.Mutex
	tables map[string]*table
}

func NewGameManager(logger *slog.Logger, repo snapshotRepo, boardSize int) *GameManager {
	return &GameManager{
		logger:    logger.With("component", "game_manager"),
		repo:      repo,
		boardSize: boardSize,

		tables: make(map[string]*table),
	}
}

// CreateGame starts a new game under a generated ID.
func (that *GameManager) CreateGame(ctx context.Context) (string, error) {
	id := uuid.NewString()

	session, err := gobang.NewSession(that.boardSize, that.phaseNotifier(id))
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	if err = that.repo.Save(ctx, id, session.Snapshot()); err != nil {
		return "", fmt.Errorf("failed to save game: %w", err)
	}

	if err = that.register(id, session); err != nil {
		return "", err
	}

	that.logger.Info("game created", "gameID", id)

	return id, nil
}

// OpenGame makes the game live: restored from the repository when it was
// saved before, otherwise created fresh under id.
func (that *GameManager) OpenGame(ctx context.Context, id string) (*gobang.Snapshot, error) {
	log := that.logger.With("method", "OpenGame", "gameID", id)

	if view, err := that.View(id); err == nil {
		return view, nil
	}

	var session *gobang.Session

	snap, err := that.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		session, err = gobang.NewSession(that.boardSize, that.phaseNotifier(id))
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		if err = that.repo.Save(ctx, id, session.Snapshot()); err != nil {
			return nil, fmt.Errorf("failed to save game: %w", err)
		}

		log.Info("new game started")
	case err != nil:
		return nil, fmt.Errorf("failed to get game: %w", err)
	default:
		session, err = gobang.RestoreSession(snap, that.phaseNotifier(id))
		if err != nil {
			return nil, fmt.Errorf("failed to restore game: %w", err)
		}

		log.Info("game restored", "phase", session.Phase())
	}

	if err = that.register(id, session); err != nil && !errors.Is(err, apperror.ErrGameAlreadyExists) {
		return nil, err
	}

	return that.View(id)
}

// NewGame clears the board of a live game and returns it to the ready phase.
func (that *GameManager) NewGame(ctx context.Context, id string) (*gobang.Snapshot, error) {
	return that.mutate(ctx, id, func(session *gobang.Session) error {
		session.StartNewGame()
		return nil
	})
}

func (that *GameManager) BeginPlay(ctx context.Context, id string) (*gobang.Snapshot, error) {
	return that.mutate(ctx, id, func(session *gobang.Session) error {
		if err := session.BeginPlay(); err != nil {
			return fmt.Errorf("failed begin play: %w", err)
		}
		return nil
	})
}

// MakeMove places the active player's stone at (x, y).
func (that *GameManager) MakeMove(ctx context.Context, id string, x, y int) (gobang.MoveOutcome, *gobang.Snapshot, error) {
	var outcome gobang.MoveOutcome

	view, err := that.mutate(ctx, id, func(session *gobang.Session) error {
		var err error

		outcome, err = session.AttemptMove(x, y)
		if err != nil {
			return fmt.Errorf("failed make move: %w", err)
		}
		return nil
	})
	if err != nil {
		return gobang.MoveOutcome{}, view, err
	}

	if outcome.IsWin() {
		that.logger.Info("game finished", "gameID", id, "winner", outcome.Winner)
	}

	return outcome, view, nil
}

// Undo takes back the last stone. It reports false when there is nothing to
// undo or the game is not being played.
func (that *GameManager) Undo(ctx context.Context, id string) (bool, *gobang.Snapshot, error) {
	var undone bool

	view, err := that.mutate(ctx, id, func(session *gobang.Session) error {
		undone = session.UndoLastMove()
		return nil
	})

	return undone, view, err
}

// View returns a copy of the game state taken under the game's lock.
func (that *GameManager) View(id string) (*gobang.Snapshot, error) {
	tbl, err := that.table(id)
	if err != nil {
		return nil, err
	}

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	return tbl.session.Snapshot(), nil
}

// Save persists the current state of a live game.
func (that *GameManager) Save(ctx context.Context, id string) error {
	tbl, err := that.table(id)
	if err != nil {
		return err
	}

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	return that.save(ctx, id, tbl.session)
}

// Suspend saves a live game and drops it from memory.
func (that *GameManager) Suspend(ctx context.Context, id string) error {
	if err := that.Save(ctx, id); err != nil {
		return err
	}

	that.mu.Lock()
	delete(that.tables, id)
	that.mu.Unlock()

	that.logger.Info("game suspended", "gameID", id)

	return nil
}

// DeleteGame drops a game from memory and from the repository.
func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	log := that.logger.With("method", "DeleteGame", "gameID", id)

	that.mu.Lock()
	delete(that.tables, id)
	that.mu.Unlock()

	if err := that.repo.DeleteByID(ctx, id); err != nil {
		if !errors.Is(err, apperror.ErrGameNotFound) {
			return fmt.Errorf("failed to delete game: %w", err)
		}
		log.Debug("game was never stored")
	}

	log.Info("game deleted")

	return nil
}

func (that *GameManager) mutate(ctx context.Context, id string, command func(*gobang.Session) error) (*gobang.Snapshot, error) {
	tbl, err := that.table(id)
	if err != nil {
		return nil, err
	}

	tbl.mu.Lock()
	defer tbl.mu.Unlock()

	before := tbl.session.Snapshot()

	if err = command(tbl.session); err != nil {
		return tbl.session.Snapshot(), err
	}

	if err = that.save(ctx, id, tbl.session); err != nil {
		// the live game must match what is stored
		restored, restoreErr := gobang.RestoreSession(before, that.phaseNotifier(id))
		if restoreErr != nil {
			return tbl.session.Snapshot(), errors.Join(err, fmt.Errorf("failed to roll back game: %w", restoreErr))
		}

		tbl.session = restored

		return before, err
	}

	return tbl.session.Snapshot(), nil
}

func (that *GameManager) save(ctx context.Context, id string, session *gobang.Session) error {
	if err := that.repo.Save(ctx, id, session.Snapshot()); err != nil {
		that.logger.Error("failed to save game", "gameID", id, "error", err)

		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

func (that *GameManager) table(id string) (*table, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	tbl, ok := that.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	return tbl, nil
}

func (that *GameManager) register(id string, session *gobang.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.tables[id]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrGameAlreadyExists, id)
	}

	that.tables[id] = &table{session: session}

	return nil
}

func (that *GameManager) phaseNotifier(id string) gobang.Option {
	return gobang.WithPhaseNotifier(func(phase entity.Phase) {
		that.logger.Debug("phase changed", "gameID", id, "phase", phase)
	})
}
