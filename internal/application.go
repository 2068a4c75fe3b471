package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/config"
	"github.com/rocketscienceinc/gobang-backend/internal/repository"
	"github.com/rocketscienceinc/gobang-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gobang-backend/internal/usecase"
	"github.com/rocketscienceinc/gobang-backend/transport/console"
)

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrUnknownStorage = errors.New("unknown storage")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	repo, closeStorage, err := openRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeStorage(); err != nil {
			log.Error("could not close storage", "storage", conf.Storage, "error", err)
		}
	}()

	gameUseCase := usecase.NewGameManager(logger, repo, conf.BoardSize)

	gameID, err := resolveGameID(ctx, gameUseCase, conf.GameID)
	if err != nil {
		return err
	}

	log.Info("Starting console", "gameID", gameID, "storage", conf.Storage, "boardSize", conf.BoardSize)

	consoleServer := console.New(logger, gameUseCase, os.Stdin, os.Stdout)
	runErr := consoleServer.Start(ctx, gameID)

	// the context may already be canceled, the last position is still written
	err = gameUseCase.Suspend(context.WithoutCancel(ctx), gameID)
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		log.Info("game is not live, nothing to suspend", "gameID", gameID)
	case err != nil:
		log.Error("could not suspend game", "gameID", gameID, "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("console error: %w", runErr)
	}

	log.Info("Application stopped")

	return nil
}

type gameCreator interface {
	CreateGame(ctx context.Context) (string, error)
}

// resolveGameID returns the configured game ID, or creates a new game when
// none is configured.
func resolveGameID(ctx context.Context, uGame gameCreator, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	gameID, err := uGame.CreateGame(ctx)
	if err != nil {
		return "", fmt.Errorf("could not create game: %w", err)
	}

	return gameID, nil
}

func openRepository(ctx context.Context, conf *config.Config) (repository.SnapshotRepository, func() error, error) {
	switch conf.Storage {
	case config.StorageRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewSnapshotRepository(redisStorage.Connection), redisStorage.Close, nil
	case config.StorageSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteSnapshotRepository(sqliteStorage.Connection), sqliteStorage.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorage, conf.Storage)
	}
}
