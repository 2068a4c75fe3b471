package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/entity"
	"github.com/rocketscienceinc/gobang-backend/internal/gobang"
	"github.com/rocketscienceinc/gobang-backend/internal/repository"
	"github.com/rocketscienceinc/gobang-backend/testing/suite"
)

var (
	errRedisDown = errors.New("redis down")
	errDiskFull  = errors.New("disk full")
)

type mockSnapshotRepo struct {
	mock.Mock
}

func (that *mockSnapshotRepo) Save(ctx context.Context, id string, snap *gobang.Snapshot) error {
	args := that.Called(ctx, id, snap)
	return args.Error(0)
}

func (that *mockSnapshotRepo) GetByID(ctx context.Context, id string) (*gobang.Snapshot, error) {
	args := that.Called(ctx, id)
	snap, _ := args.Get(0).(*gobang.Snapshot)
	return snap, args.Error(1)
}

func (that *mockSnapshotRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func newMockRepo(t *testing.T) *mockSnapshotRepo {
	t.Helper()

	repo := &mockSnapshotRepo{}
	t.Cleanup(func() {
		repo.AssertExpectations(t)
	})

	return repo
}

func newTestManager(repo snapshotRepo) *GameManager {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewGameManager(logger, repo, gobang.DefaultBoardSize)
}

// openPlaying opens a fresh game with id "g1" and begins play.
func openPlaying(t *testing.T, ctx context.Context, repo *mockSnapshotRepo) *GameManager {
	t.Helper()

	repo.On("GetByID", mock.Anything, "g1").Return(nil, apperror.ErrGameNotFound).Once()
	repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(nil)

	manager := newTestManager(repo)

	_, err := manager.OpenGame(ctx, "g1")
	require.NoError(t, err)

	_, err = manager.BeginPlay(ctx, "g1")
	require.NoError(t, err)

	return manager
}

func TestGameManager_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates and saves a new game", func(t *testing.T) {
		// Given: a repository that accepts saves
		repo := newMockRepo(t)
		repo.On("Save", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("*gobang.Snapshot")).
			Return(nil).
			Once()
		manager := newTestManager(repo)

		// When: a game is created
		id, err := manager.CreateGame(ctx)

		// Then: it has an ID and is live in the ready phase
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		view, err := manager.View(id)
		require.NoError(t, err)
		assert.Equal(t, entity.PhaseReady, view.Phase)
		assert.Equal(t, gobang.DefaultBoardSize, view.Size)
	})

	t.Run("Returns error if save fails", func(t *testing.T) {
		repo := newMockRepo(t)
		repo.On("Save", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("*gobang.Snapshot")).
			Return(errRedisDown).
			Once()
		manager := newTestManager(repo)

		id, err := manager.CreateGame(ctx)

		require.ErrorIs(t, err, errRedisDown)
		assert.Empty(t, id)
	})

	t.Run("Invalid board size", func(t *testing.T) {
		repo := newMockRepo(t)
		manager := NewGameManager(slog.New(slog.NewJSONHandler(io.Discard, nil)), repo, 3)

		_, err := manager.CreateGame(ctx)

		require.ErrorIs(t, err, apperror.ErrInvalidBoardSize)
	})
}

func TestGameManager_OpenGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a game when none is stored", func(t *testing.T) {
		// Given: nothing stored under "local"
		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "local").Return(nil, apperror.ErrGameNotFound).Once()
		repo.On("Save", mock.Anything, "local", mock.AnythingOfType("*gobang.Snapshot")).Return(nil).Once()
		manager := newTestManager(repo)

		// When: the game is opened
		view, err := manager.OpenGame(ctx, "local")

		// Then: a fresh ready game is live
		require.NoError(t, err)
		assert.Equal(t, entity.PhaseReady, view.Phase)
		assert.Equal(t, entity.PlayerBlack, view.Turn)
	})

	t.Run("Restores a stored game", func(t *testing.T) {
		// Given: a stored game where black has played (7, 7)
		session, err := gobang.NewSession(gobang.DefaultBoardSize)
		require.NoError(t, err)
		require.NoError(t, session.BeginPlay())
		_, err = session.AttemptMove(7, 7)
		require.NoError(t, err)

		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "local").Return(session.Snapshot(), nil).Once()
		manager := newTestManager(repo)

		// When: the game is opened
		view, err := manager.OpenGame(ctx, "local")

		// Then: the stored state is live
		require.NoError(t, err)
		assert.Equal(t, session.Snapshot(), view)
	})

	t.Run("Live game is not reloaded", func(t *testing.T) {
		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "local").Return(nil, apperror.ErrGameNotFound).Once()
		repo.On("Save", mock.Anything, "local", mock.AnythingOfType("*gobang.Snapshot")).Return(nil).Once()
		manager := newTestManager(repo)

		_, err := manager.OpenGame(ctx, "local")
		require.NoError(t, err)

		// When: the game is opened again
		_, err = manager.OpenGame(ctx, "local")

		// Then: the repository is not consulted a second time
		require.NoError(t, err)
	})

	t.Run("Returns error if repository fails", func(t *testing.T) {
		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "local").Return(nil, errRedisDown).Once()
		manager := newTestManager(repo)

		view, err := manager.OpenGame(ctx, "local")

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, view)

		_, err = manager.View("local")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Move is applied and saved", func(t *testing.T) {
		// Given: a live game in play
		repo := newMockRepo(t)
		manager := openPlaying(t, ctx, repo)

		// When: black plays (3, 4)
		outcome, view, err := manager.MakeMove(ctx, "g1", 3, 4)

		// Then: the stone is on the board and white is to move
		require.NoError(t, err)
		assert.Equal(t, gobang.MoveContinued, outcome.Status)
		assert.Equal(t, entity.CellOf(entity.PlayerBlack), view.CellAt(3, 4))
		assert.Equal(t, entity.PlayerWhite, view.Turn)

		repo.AssertCalled(t, "Save", mock.Anything, "g1", mock.MatchedBy(func(snap *gobang.Snapshot) bool {
			return snap.CellAt(3, 4) == entity.CellOf(entity.PlayerBlack)
		}))
	})

	t.Run("Winning move finishes the game", func(t *testing.T) {
		repo := newMockRepo(t)
		manager := openPlaying(t, ctx, repo)

		for i := 0; i < 4; i++ {
			_, _, err := manager.MakeMove(ctx, "g1", i, 0)
			require.NoError(t, err)
			_, _, err = manager.MakeMove(ctx, "g1", i, 1)
			require.NoError(t, err)
		}

		outcome, view, err := manager.MakeMove(ctx, "g1", 4, 0)

		require.NoError(t, err)
		assert.Equal(t, gobang.MoveOutcome{Status: gobang.MoveWin, Winner: entity.PlayerBlack}, outcome)
		assert.Equal(t, entity.PhaseFinished, view.Phase)
		assert.Equal(t, entity.PlayerBlack, view.Winner)
	})

	t.Run("Occupied cell", func(t *testing.T) {
		repo := newMockRepo(t)
		manager := openPlaying(t, ctx, repo)

		_, _, err := manager.MakeMove(ctx, "g1", 0, 0)
		require.NoError(t, err)

		_, view, err := manager.MakeMove(ctx, "g1", 0, 0)

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, entity.PlayerWhite, view.Turn)
	})

	t.Run("Wrong phase", func(t *testing.T) {
		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "g1").Return(nil, apperror.ErrGameNotFound).Once()
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(nil).Once()
		manager := newTestManager(repo)

		_, err := manager.OpenGame(ctx, "g1")
		require.NoError(t, err)

		_, _, err = manager.MakeMove(ctx, "g1", 0, 0)

		require.ErrorIs(t, err, apperror.ErrWrongPhase)
	})

	t.Run("Unknown game", func(t *testing.T) {
		manager := newTestManager(newMockRepo(t))

		_, _, err := manager.MakeMove(ctx, "nope", 0, 0)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameManager_Undo(t *testing.T) {
	ctx := context.Background()

	// Given: black has played (5, 5)
	repo := newMockRepo(t)
	manager := openPlaying(t, ctx, repo)
	_, _, err := manager.MakeMove(ctx, "g1", 5, 5)
	require.NoError(t, err)

	// When: the move is undone twice
	first, view, err := manager.Undo(ctx, "g1")
	require.NoError(t, err)
	second, _, err := manager.Undo(ctx, "g1")
	require.NoError(t, err)

	// Then: only the first undo succeeds and black is to move again
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, view.CellAt(5, 5).IsEmpty())
	assert.Equal(t, entity.PlayerBlack, view.Turn)
}

func TestGameManager_NewGame(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepo(t)
	manager := openPlaying(t, ctx, repo)
	_, _, err := manager.MakeMove(ctx, "g1", 5, 5)
	require.NoError(t, err)

	view, err := manager.NewGame(ctx, "g1")

	require.NoError(t, err)
	assert.Equal(t, entity.PhaseReady, view.Phase)
	assert.True(t, view.CellAt(5, 5).IsEmpty())
}

func TestGameManager_Suspend(t *testing.T) {
	ctx := context.Background()

	t.Run("Saves and evicts", func(t *testing.T) {
		repo := newMockRepo(t)
		manager := openPlaying(t, ctx, repo)

		err := manager.Suspend(ctx, "g1")

		require.NoError(t, err)

		_, err = manager.View("g1")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Save failure keeps the game live", func(t *testing.T) {
		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "g1").Return(nil, apperror.ErrGameNotFound).Once()
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(nil).Once()
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(errRedisDown).Once()
		manager := newTestManager(repo)

		_, err := manager.OpenGame(ctx, "g1")
		require.NoError(t, err)

		err = manager.Suspend(ctx, "g1")

		require.ErrorIs(t, err, errRedisDown)

		_, err = manager.View("g1")
		require.NoError(t, err)
	})
}

func TestGameManager_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()

	// Given: a live game in play
	repo := newMockRepo(t)
	manager := openPlaying(t, ctx, repo)

	// stones two cells apart can never form a line
	points := make([]gobang.Point, 0, 10)
	for i := 0; i < 10; i++ {
		points = append(points, gobang.Point{X: 2 * (i % 5), Y: 2 * (i / 5)})
	}

	// When: moves and renders run concurrently
	var wg sync.WaitGroup
	for _, p := range points {
		wg.Add(2)

		go func(p gobang.Point) {
			defer wg.Done()
			_, _, _ = manager.MakeMove(ctx, "g1", p.X, p.Y)
		}(p)

		go func() {
			defer wg.Done()
			_, _ = manager.View("g1")
		}()
	}
	wg.Wait()

	// Then: every move landed and turns stayed consistent
	view, err := manager.View("g1")
	require.NoError(t, err)

	stones := 0
	for _, p := range points {
		if !view.CellAt(p.X, p.Y).IsEmpty() {
			stones++
		}
	}
	assert.Equal(t, 10, stones)
	assert.Equal(t, entity.PlayerBlack, view.Turn)
}

func TestGameManager_SaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()

	t.Run("Move is undone when it cannot be saved", func(t *testing.T) {
		// Given: a playing game whose next save fails
		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "g1").Return(nil, apperror.ErrGameNotFound).Once()
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(nil).Times(2)
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(errDiskFull).Once()
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(nil).Once()

		manager := newTestManager(repo)
		_, err := manager.OpenGame(ctx, "g1")
		require.NoError(t, err)
		_, err = manager.BeginPlay(ctx, "g1")
		require.NoError(t, err)

		// When: black plays (3, 3)
		outcome, view, err := manager.MakeMove(ctx, "g1", 3, 3)

		// Then: the error is reported and the game is as before the move
		require.ErrorIs(t, err, errDiskFull)
		assert.Equal(t, gobang.MoveOutcome{}, outcome)
		assert.True(t, view.CellAt(3, 3).IsEmpty())

		live, err := manager.View("g1")
		require.NoError(t, err)
		assert.True(t, live.CellAt(3, 3).IsEmpty())
		assert.Equal(t, entity.PlayerBlack, live.Turn)
		assert.Equal(t, entity.PhasePlaying, live.Phase)

		// Then: retrying the same move succeeds
		outcome, view, err = manager.MakeMove(ctx, "g1", 3, 3)
		require.NoError(t, err)
		assert.Equal(t, gobang.MoveContinued, outcome.Status)
		assert.Equal(t, entity.CellOf(entity.PlayerBlack), view.CellAt(3, 3))
		assert.Equal(t, entity.PlayerWhite, view.Turn)
	})

	t.Run("Winning move stays unplayed when it cannot be saved", func(t *testing.T) {
		// Given: black has four in a row and the next save fails
		repo := newMockRepo(t)
		repo.On("GetByID", mock.Anything, "g1").Return(nil, apperror.ErrGameNotFound).Once()
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(nil).Times(10)
		repo.On("Save", mock.Anything, "g1", mock.AnythingOfType("*gobang.Snapshot")).Return(errDiskFull).Once()

		manager := newTestManager(repo)
		_, err := manager.OpenGame(ctx, "g1")
		require.NoError(t, err)
		_, err = manager.BeginPlay(ctx, "g1")
		require.NoError(t, err)

		for i := 0; i < 4; i++ {
			_, _, err = manager.MakeMove(ctx, "g1", i, 0)
			require.NoError(t, err)
			_, _, err = manager.MakeMove(ctx, "g1", i, 1)
			require.NoError(t, err)
		}

		// When: the fifth stone cannot be saved
		_, view, err := manager.MakeMove(ctx, "g1", 4, 0)

		// Then: the game is still being played with no winner
		require.ErrorIs(t, err, errDiskFull)
		assert.Equal(t, entity.PhasePlaying, view.Phase)
		assert.Empty(t, view.Winner)
		assert.True(t, view.CellAt(4, 0).IsEmpty())
	})
}

func TestGameManager_DeleteGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes live and stored game", func(t *testing.T) {
		// Given: a live game
		repo := newMockRepo(t)
		manager := openPlaying(t, ctx, repo)
		repo.On("DeleteByID", mock.Anything, "g1").Return(nil).Once()

		// When: it is deleted
		err := manager.DeleteGame(ctx, "g1")

		// Then: it is no longer live
		require.NoError(t, err)

		_, err = manager.View("g1")
		assert.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Game that was never stored", func(t *testing.T) {
		repo := newMockRepo(t)
		repo.On("DeleteByID", mock.Anything, "g2").Return(apperror.ErrGameNotFound).Once()
		manager := newTestManager(repo)

		err := manager.DeleteGame(ctx, "g2")

		assert.NoError(t, err)
	})

	t.Run("Returns error if repository fails", func(t *testing.T) {
		repo := newMockRepo(t)
		repo.On("DeleteByID", mock.Anything, "g1").Return(errRedisDown).Once()
		manager := newTestManager(repo)

		err := manager.DeleteGame(ctx, "g1")

		assert.ErrorIs(t, err, errRedisDown)
	})
}

func TestGameManager_SQLite(t *testing.T) {
	// Given: a manager backed by a real SQLite database
	ctx, s := suite.NewSQLite(t)
	repo := repository.NewSQLiteSnapshotRepository(s.SQLite.Connection)

	manager := NewGameManager(s.Logger, repo, gobang.DefaultBoardSize)
	_, err := manager.OpenGame(ctx, "table")
	require.NoError(t, err)
	_, err = manager.BeginPlay(ctx, "table")
	require.NoError(t, err)
	_, _, err = manager.MakeMove(ctx, "table", 6, 9)
	require.NoError(t, err)
	require.NoError(t, manager.Suspend(ctx, "table"))

	// When: another manager opens the same game
	resumed := NewGameManager(s.Logger, repo, gobang.DefaultBoardSize)
	view, err := resumed.OpenGame(ctx, "table")
	require.NoError(t, err)

	// Then: the stone and the turn survived
	assert.Equal(t, entity.CellOf(entity.PlayerBlack), view.CellAt(6, 9))
	assert.Equal(t, entity.PlayerWhite, view.Turn)

	// When: the game is deleted
	require.NoError(t, resumed.DeleteGame(ctx, "table"))

	// Then: it is gone from storage too
	_, err = repo.GetByID(ctx, "table")
	assert.ErrorIs(t, err, apperror.ErrGameNotFound)
}
